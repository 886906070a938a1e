// Package downloader holds the run orchestration and the crash-safe file
// materialization engine: deciding what to fetch, racing the stream against
// cancellation, and promoting staged bytes into final storage.
package downloader

import (
	"context"
	"strings"

	"github.com/italolelis/ipsw_downloader/internal/catalog"
	"github.com/italolelis/ipsw_downloader/internal/interrupt"
	"github.com/italolelis/ipsw_downloader/internal/logctx"
)

// Catalog is the surface of the catalog client the orchestrator consumes.
type Catalog interface {
	StreamOpener

	DeviceFirmware(ctx context.Context, device catalog.Device) (*catalog.FirmwareListing, error)
}

// Downloader drives a single-pass run over the device list: one device at a
// time, one download at a time, stopping early when the latch trips.
type Downloader struct {
	catalog Catalog
	opts    Options

	progressInterval int64
}

func NewDownloader(catalog Catalog, opts Options, progressInterval int64) *Downloader {
	return &Downloader{
		catalog:          catalog,
		opts:             opts,
		progressInterval: progressInterval,
	}
}

// Run processes devices in catalog order, recording one outcome per device.
// A device-level failure never aborts the run; only cancellation does, and
// only between devices.
func (d *Downloader) Run(ctx context.Context, devices []catalog.Device, latch *interrupt.Latch) []Outcome {
	logger := logctx.LoggerFromContext(ctx)

	if d.opts.FilterTerm != "" {
		logger.Debug("using filter", "term", d.opts.FilterTerm)

		devices = filterDevices(devices, d.opts.FilterTerm)
	}

	report := NewReport(len(devices))
	materializer := NewMaterializer(d.catalog, d.opts, d.progressInterval)
	outcomes := make([]Outcome, 0, len(devices))

	for _, device := range devices {
		if latch.Triggered() {
			logger.Info("cancellation observed, stopping before the next device")

			break
		}

		outcome := d.processDevice(ctx, device, materializer, latch)
		outcome.Device = device.Name
		outcomes = append(outcomes, outcome)

		report.Record(outcome)
		logger.Info("ended work on device",
			"device", device.Name,
			"status", outcome.Status.String(),
			"progress", report.Progress(),
		)
	}

	logger.Info(report.Summary(), "elapsed", report.Elapsed().String())

	return outcomes
}

func (d *Downloader) processDevice(ctx context.Context, device catalog.Device, materializer *Materializer, latch *interrupt.Latch) Outcome {
	logger := logctx.LoggerFromContext(ctx)

	listing, err := d.catalog.DeviceFirmware(ctx, device)
	if err != nil {
		logger.Error("failed to fetch firmware listing", "device", device.Name, "err", err)

		return Failed(FailureRemote, err)
	}

	return materializer.Materialize(ctx, listing, latch)
}

func filterDevices(devices []catalog.Device, term string) []catalog.Device {
	filtered := make([]catalog.Device, 0, len(devices))

	for _, device := range devices {
		if strings.Contains(device.Name, term) {
			filtered = append(filtered, device)
		}
	}

	return filtered
}
