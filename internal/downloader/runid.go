package downloader

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strconv"
)

// GenerateRunID returns a unique string for this run (hostname+pid+random),
// attached to every log line so overlapping log files stay distinguishable.
func GenerateRunID() string {
	host, _ := os.Hostname()
	pid := os.Getpid()
	rnd := make([]byte, 4)
	_, _ = rand.Read(rnd)

	return host + "-" + strconv.Itoa(pid) + "-" + hex.EncodeToString(rnd)
}
