package cleanup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/italolelis/ipsw_downloader/internal/logctx"
)

// DeleteStaleFirmware removes every regular file in dir except keep, so a
// device directory only holds the newest image. Best effort: each deletion
// failure is logged and does not abort the run.
func DeleteStaleFirmware(ctx context.Context, dir, keep string) {
	logger := logctx.LoggerFromContext(ctx)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("failed to read device directory for cleanup", "dir", dir, "err", err)
		}

		return
	}

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == keep {
			continue
		}

		path := filepath.Join(dir, entry.Name())

		if err := os.Remove(path); err != nil {
			logger.Error("failed to delete old firmware file", "file", path, "err", err)

			continue
		}

		logger.Info("deleted old firmware file", "file", path)
	}
}
