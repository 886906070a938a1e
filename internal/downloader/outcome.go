package downloader

// Skip reasons reported by the materializer. Skips are normal outcomes, not
// errors.
const (
	ReasonNoFirmware        = "no firmware available"
	ReasonAlreadyDownloaded = "already downloaded"
)

// Status classifies the result of one device's materialization attempt.
type Status int

const (
	StatusSkipped Status = iota
	StatusCompleted
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSkipped:
		return "skipped"
	case StatusCompleted:
		return "completed"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FailureKind classifies a failed outcome.
type FailureKind int

const (
	FailureNone FailureKind = iota
	// FailureRemote covers catalog or download service errors. These are
	// common and expected for very old firmware images.
	FailureRemote
	// FailureIO covers local filesystem errors during staging or promotion.
	FailureIO
	// FailureCancelled means the user interrupted the run mid-download.
	FailureCancelled
)

func (k FailureKind) String() string {
	switch k {
	case FailureRemote:
		return "remote_unavailable"
	case FailureIO:
		return "io_error"
	case FailureCancelled:
		return "cancelled"
	default:
		return "none"
	}
}

// Outcome is the per-device result of one run. Produced exactly once per
// processed device and consumed only for counters and reporting.
type Outcome struct {
	Device string
	Status Status
	Reason string
	Bytes  int64
	Kind   FailureKind
	Err    error
}

func Skipped(reason string) Outcome {
	return Outcome{Status: StatusSkipped, Reason: reason}
}

func Completed(bytes int64) Outcome {
	return Outcome{Status: StatusCompleted, Bytes: bytes}
}

func Failed(kind FailureKind, err error) Outcome {
	o := Outcome{Status: StatusFailed, Kind: kind, Err: err}
	if err != nil {
		o.Reason = err.Error()
	}

	return o
}
