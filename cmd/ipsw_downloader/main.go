package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/italolelis/ipsw_downloader/internal/catalog"
	"github.com/italolelis/ipsw_downloader/internal/config"
	"github.com/italolelis/ipsw_downloader/internal/downloader"
	"github.com/italolelis/ipsw_downloader/internal/interrupt"
	"github.com/italolelis/ipsw_downloader/internal/logctx"
)

// Exit codes
const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitInvalidArgs  = 2
)

// cliOpts is the raw command-line surface before validation.
type cliOpts struct {
	downloadPath    string
	deleteOldFw     bool
	downloadAll     bool
	filterTerm      string
	logPath         string
	listDeviceNames bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, code := parseArgs(args)
	if code != ExitSuccess {
		return code
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)

		return ExitGeneralError
	}

	logger := buildLogger(cfg, opts.logPath)
	slog.SetDefault(logger)

	ctx := logctx.WithLogger(context.Background(), logger)
	client := catalog.NewClient(cfg.CatalogBaseURL, cfg.UserAgent, cfg.HTTPTimeout)

	logger.Info("retrieving device catalog...", "catalog", cfg.CatalogBaseURL)

	devices, err := client.Devices(ctx)
	if err != nil {
		logger.Error("cannot reach the catalog service", "err", err)

		return ExitGeneralError
	}

	if opts.listDeviceNames {
		for _, device := range devices {
			fmt.Println(device.Name)
		}

		return ExitSuccess
	}

	logger.Info("retrieved device catalog", "device_count", len(devices))

	latch := interrupt.Install(logger)
	defer latch.Close()

	dl := downloader.NewDownloader(client, downloader.Options{
		DownloadPath:      opts.downloadPath,
		DeleteOldFirmware: opts.deleteOldFw,
		FilterTerm:        opts.filterTerm,
		LogPath:           opts.logPath,
	}, cfg.ProgressIntervalBytes)

	dl.Run(ctx, devices, latch)

	return ExitSuccess
}

func parseArgs(args []string) (*cliOpts, int) {
	var opts cliOpts

	fs := flag.NewFlagSet("ipsw_downloader", flag.ContinueOnError)

	fs.StringVar(&opts.downloadPath, "p", "./ipsw", "Directory to download .ipsw files to.")
	fs.StringVar(&opts.downloadPath, "download-path", "./ipsw", "Directory to download .ipsw files to.")
	fs.BoolVar(&opts.deleteOldFw, "d", false, "Delete old ipsw files when a newer version is available.")
	fs.BoolVar(&opts.deleteOldFw, "delete-old-fw", false, "Delete old ipsw files when a newer version is available.")
	fs.BoolVar(&opts.downloadAll, "A", false, "Download the latest ipsw for all devices.")
	fs.BoolVar(&opts.downloadAll, "download-all", false, "Download the latest ipsw for all devices.")
	fs.StringVar(&opts.filterTerm, "f", "", "Only download for device names matching the term.")
	fs.StringVar(&opts.filterTerm, "filter-term", "", "Only download for device names matching the term.")
	fs.StringVar(&opts.logPath, "l", "", "File to write diagnostic logs to. Will not log to a file if not set.")
	fs.StringVar(&opts.logPath, "log-path", "", "File to write diagnostic logs to. Will not log to a file if not set.")
	fs.BoolVar(&opts.listDeviceNames, "L", false, "List all device names that could be downloaded.")
	fs.BoolVar(&opts.listDeviceNames, "list-device-names", false, "List all device names that could be downloaded.")

	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, `Usage: ipsw_downloader [options]

Downloads the newest .ipsw firmware image for Apple devices.
Exactly one of -A/--download-all, -f/--filter-term or -L/--list-device-names
must be given.

Options:`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, ExitInvalidArgs
	}

	if err := validateOpts(&opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fs.Usage()

		return nil, ExitInvalidArgs
	}

	return &opts, ExitSuccess
}

func validateOpts(opts *cliOpts) error {
	modes := 0
	if opts.downloadAll {
		modes++
	}

	if opts.filterTerm != "" {
		modes++
	}

	if opts.listDeviceNames {
		modes++
	}

	if modes == 0 {
		return fmt.Errorf("one of -A, -f or -L is required")
	}

	if modes > 1 {
		return fmt.Errorf("-A, -f and -L are mutually exclusive")
	}

	return nil
}

// buildLogger wires the console handler, and fans log records out to a
// rotating JSON log file when a log path is given.
func buildLogger(cfg *config.Config, logPath string) *slog.Logger {
	console := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()})

	var handler slog.Handler = console

	if logPath != "" {
		fileWriter := &lumberjack.Logger{
			Filename:   logPath,
			MaxSize:    cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
		}
		file := slog.NewJSONHandler(fileWriter, &slog.HandlerOptions{Level: slog.LevelDebug})
		handler = slogmulti.Fanout(console, file)
	}

	return slog.New(handler).With("run_id", downloader.GenerateRunID())
}
