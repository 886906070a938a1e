package downloader

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/italolelis/ipsw_downloader/internal/catalog"
	"github.com/italolelis/ipsw_downloader/internal/cleanup"
	"github.com/italolelis/ipsw_downloader/internal/downloader/progress"
	"github.com/italolelis/ipsw_downloader/internal/interrupt"
	"github.com/italolelis/ipsw_downloader/internal/logctx"
)

const (
	dirPerm = 0755

	// chunkSize is how much of the stream is pulled per read while racing
	// against cancellation.
	chunkSize = 128 * 1024
)

// StreamOpener is the slice of the catalog client the materializer needs.
type StreamOpener interface {
	OpenDownload(ctx context.Context, fw catalog.Firmware) (io.ReadCloser, int64, error)
}

// Materializer stages the newest firmware image of one listing to a temporary
// file and promotes it into the destination tree only once the stream has
// fully drained. Cancellation mid-stream discards the stage and never touches
// the final path.
type Materializer struct {
	opener           StreamOpener
	opts             Options
	progressInterval int64
}

func NewMaterializer(opener StreamOpener, opts Options, progressInterval int64) *Materializer {
	return &Materializer{
		opener:           opener,
		opts:             opts,
		progressInterval: progressInterval,
	}
}

// chunk is one unit of the download stream handed from the reader goroutine
// to the write loop. err is io.EOF on a clean drain.
type chunk struct {
	data []byte
	err  error
}

// Materialize downloads the newest firmware of the listing. It never returns
// an error; every path collapses into an Outcome for the orchestrator to
// record.
func (m *Materializer) Materialize(ctx context.Context, listing *catalog.FirmwareListing, latch *interrupt.Latch) Outcome {
	logger := logctx.LoggerFromContext(ctx).With("device", listing.Name)

	newest := listing.Newest()
	if newest == nil {
		logger.Info("no firmware available for download")

		return Skipped(ReasonNoFirmware)
	}

	// The version string, not the build identifier, names the file so that
	// every digit of the version lands in the path.
	deviceDir := filepath.Join(m.opts.DownloadPath, listing.Name)
	finalName := newest.Version + ".ipsw"
	finalPath := filepath.Join(deviceDir, finalName)

	logger.Debug("using path", "path", finalPath)

	// Advisory check only; nothing else writes this path during a run.
	if _, err := os.Stat(finalPath); err == nil {
		logger.Info("already downloaded, skipping")

		return Skipped(ReasonAlreadyDownloaded)
	}

	if m.opts.DeleteOldFirmware {
		cleanup.DeleteStaleFirmware(ctx, deviceDir, finalName)
	}

	logger.Info("beginning download", "version", newest.Version, "buildid", newest.BuildID)

	// Stage under the destination root but outside the device directory: on
	// the same volume so promotion is a rename, and never at the final path
	// so an interrupt can't leave a half-written file there.
	if err := os.MkdirAll(m.opts.DownloadPath, dirPerm); err != nil {
		return Failed(FailureIO, fmt.Errorf("creating download root: %w", err))
	}

	stage, err := os.CreateTemp(m.opts.DownloadPath, ".staging-*.ipsw")
	if err != nil {
		return Failed(FailureIO, fmt.Errorf("creating staging file: %w", err))
	}

	promoted := false

	defer func() {
		stage.Close()

		if !promoted {
			if err := os.Remove(stage.Name()); err != nil && !os.IsNotExist(err) {
				logger.Warn("failed to discard staging file", "file", stage.Name(), "err", err)
			}
		}
	}()

	// A latch trip cancels the stream context so a blocked read unwinds
	// instead of leaking the reader goroutine.
	streamCtx, cancelStream := context.WithCancel(ctx)
	defer cancelStream()

	go func() {
		select {
		case <-latch.Done():
			cancelStream()
		case <-streamCtx.Done():
		}
	}()

	stream, declared, err := m.opener.OpenDownload(streamCtx, *newest)
	if err != nil {
		logger.Error("download errored on the catalog service, skipping", "version", newest.Version, "err", err)

		return Failed(FailureRemote, err)
	}

	defer stream.Close()

	logger.Info("downloading file", "file_size", humanize.Bytes(uint64(declared)))

	written, outcome := m.drain(streamCtx, stage, stream, declared, latch, logger)
	if outcome != nil {
		return *outcome
	}

	if declared > 0 && written != declared {
		logger.Warn("stream ended short of its declared length",
			"declared", declared, "written", written)
	}

	if err := m.promote(stage, deviceDir, finalPath); err != nil {
		logger.Error("failed to promote staged file", "path", finalPath, "err", err)

		return Failed(FailureIO, err)
	}

	promoted = true

	logger.Info("downloaded and saved file", "target", finalPath, "size", humanize.Bytes(uint64(written)))

	return Completed(written)
}

// drain runs the write loop, racing the next chunk of the stream against the
// cancellation latch. It returns the number of bytes staged and, unless the
// stream drained cleanly, the outcome to report.
func (m *Materializer) drain(ctx context.Context, stage *os.File, stream io.Reader, declared int64, latch *interrupt.Latch, logger *slog.Logger) (int64, *Outcome) {
	chunks := make(chan chunk)

	go readChunks(ctx, stream, declared, m.progressInterval, logger, chunks)

	out := bufio.NewWriter(stage)

	var written int64

	for {
		select {
		case c := <-chunks:
			if len(c.data) > 0 {
				n, err := out.Write(c.data)
				written += int64(n)

				if err != nil {
					failed := Failed(FailureIO, fmt.Errorf("writing staging file: %w", err))

					return written, &failed
				}
			}

			if c.err != nil {
				if errors.Is(c.err, io.EOF) {
					if err := out.Flush(); err != nil {
						failed := Failed(FailureIO, fmt.Errorf("flushing staging file: %w", err))

						return written, &failed
					}

					return written, nil
				}

				failed := Failed(FailureRemote, fmt.Errorf("reading download stream: %w", c.err))

				return written, &failed
			}
		case <-latch.Done():
			logger.Info("download interrupted, discarding staged bytes", "written", written)

			failed := Failed(FailureCancelled, errors.New("interrupted"))

			return written, &failed
		}
	}
}

// readChunks feeds the stream to the write loop one buffer at a time. It owns
// progress accounting and exits when the stream ends or ctx is cancelled.
func readChunks(ctx context.Context, stream io.Reader, declared, interval int64, logger *slog.Logger, chunks chan<- chunk) {
	pr := progress.NewReader(stream, declared, interval, func(read, total int64) {
		if total > 0 {
			logger.Debug("download progress",
				"downloaded", humanize.Bytes(uint64(read)),
				"total", humanize.Bytes(uint64(total)),
				"percent", humanize.FtoaWithDigits(float64(read)*100/float64(total), 2))
		} else {
			logger.Debug("download progress", "downloaded", humanize.Bytes(uint64(read)))
		}
	})

	buf := make([]byte, chunkSize)

	for {
		n, err := pr.Read(buf)

		var data []byte
		if n > 0 {
			data = make([]byte, n)
			copy(data, buf[:n])
		}

		if data != nil || err != nil {
			select {
			case chunks <- chunk{data: data, err: err}:
			case <-ctx.Done():
				return
			}
		}

		if err != nil {
			return
		}
	}
}

// promote makes the fully-staged file visible at its final path. Rename keeps
// the transition atomic: external observers only ever see the path absent or
// complete.
func (m *Materializer) promote(stage *os.File, deviceDir, finalPath string) error {
	if err := stage.Sync(); err != nil {
		return fmt.Errorf("syncing staging file: %w", err)
	}

	if err := stage.Close(); err != nil {
		return fmt.Errorf("closing staging file: %w", err)
	}

	if err := os.MkdirAll(deviceDir, dirPerm); err != nil {
		return fmt.Errorf("creating device directory: %w", err)
	}

	if err := os.Rename(stage.Name(), finalPath); err != nil {
		return fmt.Errorf("promoting staged file: %w", err)
	}

	return nil
}
