package downloader

// Options is the per-run configuration assembled by the CLI layer. Read-only
// to the download core.
type Options struct {
	// DownloadPath is the destination root directory.
	DownloadPath string

	// DeleteOldFirmware removes other firmware files from a device directory
	// before a new image is written there.
	DeleteOldFirmware bool

	// FilterTerm restricts the run to devices whose display name contains
	// this substring. Empty means all devices. Matching is case sensitive.
	FilterTerm string

	// LogPath is the optional diagnostic log file. Consumed by the CLI layer
	// when wiring the logger; carried here so a run is fully described by one
	// value.
	LogPath string
}
