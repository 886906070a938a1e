package interrupt

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLatch_TriggerIsIdempotent(t *testing.T) {
	latch := Install(discardLogger())
	defer latch.Close()

	assert.False(t, latch.Triggered())

	latch.Trigger()
	latch.Trigger() // second call must be a no-op, not a panic

	assert.True(t, latch.Triggered())
}

func TestLatch_DoneKeepsResolving(t *testing.T) {
	latch := Install(discardLogger())
	defer latch.Close()

	select {
	case <-latch.Done():
		t.Fatal("latch resolved before being triggered")
	default:
	}

	latch.Trigger()

	// Repeated observation after the first resolution must not re-block.
	for i := 0; i < 3; i++ {
		select {
		case <-latch.Done():
		case <-time.After(time.Second):
			t.Fatal("triggered latch did not resolve")
		}
	}
}

func TestInstall_SecondLiveLatchPanics(t *testing.T) {
	latch := Install(discardLogger())
	defer latch.Close()

	require.Panics(t, func() {
		Install(discardLogger())
	})
}

func TestInstall_AllowedAfterClose(t *testing.T) {
	first := Install(discardLogger())
	first.Close()

	second := Install(discardLogger())
	defer second.Close()

	assert.False(t, second.Triggered())
}
