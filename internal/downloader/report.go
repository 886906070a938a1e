package downloader

import (
	"fmt"
	"time"
)

// Report accumulates per-run counters and the start time. It only produces
// strings; the caller decides where they are emitted.
type Report struct {
	start     time.Time
	total     int
	done      int
	completed int
	skipped   int
	failed    int
}

func NewReport(total int) *Report {
	return &Report{start: time.Now(), total: total}
}

// Record counts one finished device, whatever its outcome was.
func (r *Report) Record(o Outcome) {
	r.done++

	switch o.Status {
	case StatusCompleted:
		r.completed++
	case StatusSkipped:
		r.skipped++
	case StatusFailed:
		r.failed++
	}
}

// Progress returns the done/total counter in the shape emitted after each
// device.
func (r *Report) Progress() string {
	return fmt.Sprintf("%d/%d", r.done, r.total)
}

func (r *Report) Done() int      { return r.done }
func (r *Report) Total() int     { return r.total }
func (r *Report) Completed() int { return r.completed }
func (r *Report) Skipped() int   { return r.skipped }
func (r *Report) Failed() int    { return r.failed }

// Elapsed returns the wall-clock time since the report was created.
func (r *Report) Elapsed() time.Duration {
	return time.Since(r.start)
}

// Summary returns the terminal line emitted once the run ends.
func (r *Report) Summary() string {
	return fmt.Sprintf("Finished in %d minutes.", int(r.Elapsed().Minutes()))
}
