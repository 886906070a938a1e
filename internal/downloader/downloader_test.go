package downloader

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/italolelis/ipsw_downloader/internal/catalog"
)

type fakeCatalog struct {
	listings map[string]*catalog.FirmwareListing
	listErrs map[string]error
	payloads map[string][]byte

	fetched []string
}

func (f *fakeCatalog) DeviceFirmware(ctx context.Context, device catalog.Device) (*catalog.FirmwareListing, error) {
	f.fetched = append(f.fetched, device.Identifier)

	if err := f.listErrs[device.Identifier]; err != nil {
		return nil, err
	}

	return f.listings[device.Identifier], nil
}

func (f *fakeCatalog) OpenDownload(ctx context.Context, fw catalog.Firmware) (io.ReadCloser, int64, error) {
	payload := f.payloads[fw.Identifier]

	return io.NopCloser(bytes.NewReader(payload)), int64(len(payload)), nil
}

func TestRun_FilterRestrictsDevices(t *testing.T) {
	devices := []catalog.Device{
		{Name: "iPhone 1", Identifier: "iPhone1,1"},
		{Name: "iPad Pro", Identifier: "iPad6,7"},
	}

	cat := &fakeCatalog{
		listings: map[string]*catalog.FirmwareListing{
			"iPad6,7": newListing("iPad Pro"),
		},
	}

	d := NewDownloader(cat, Options{DownloadPath: t.TempDir(), FilterTerm: "iPad"}, testProgressInterval)
	outcomes := d.Run(context.Background(), devices, newTestLatch(t))

	// Only the matching device is processed and counted.
	require.Len(t, outcomes, 1)
	assert.Equal(t, "iPad Pro", outcomes[0].Device)
	assert.Equal(t, []string{"iPad6,7"}, cat.fetched)
}

func TestRun_FilterIsCaseSensitive(t *testing.T) {
	devices := []catalog.Device{
		{Name: "iPhone 1", Identifier: "iPhone1,1"},
	}

	cat := &fakeCatalog{}

	d := NewDownloader(cat, Options{DownloadPath: t.TempDir(), FilterTerm: "iphone"}, testProgressInterval)
	outcomes := d.Run(context.Background(), devices, newTestLatch(t))

	assert.Empty(t, outcomes)
	assert.Empty(t, cat.fetched)
}

func TestRun_StopsWhenAlreadyCancelled(t *testing.T) {
	devices := []catalog.Device{
		{Name: "iPhone 1", Identifier: "iPhone1,1"},
		{Name: "iPad Pro", Identifier: "iPad6,7"},
	}

	cat := &fakeCatalog{}
	latch := newTestLatch(t)
	latch.Trigger()

	d := NewDownloader(cat, Options{DownloadPath: t.TempDir()}, testProgressInterval)
	outcomes := d.Run(context.Background(), devices, latch)

	// No device is processed and no network call is made.
	assert.Empty(t, outcomes)
	assert.Empty(t, cat.fetched)
}

func TestRun_DeviceErrorDoesNotAbortRun(t *testing.T) {
	devices := []catalog.Device{
		{Name: "iPhone 1", Identifier: "iPhone1,1"},
		{Name: "iPad Pro", Identifier: "iPad6,7"},
	}

	cat := &fakeCatalog{
		listErrs: map[string]error{
			"iPhone1,1": errors.New("catalog unreachable"),
		},
		listings: map[string]*catalog.FirmwareListing{
			"iPad6,7": newListing("iPad Pro"),
		},
	}

	d := NewDownloader(cat, Options{DownloadPath: t.TempDir()}, testProgressInterval)
	outcomes := d.Run(context.Background(), devices, newTestLatch(t))

	require.Len(t, outcomes, 2)

	assert.Equal(t, StatusFailed, outcomes[0].Status)
	assert.Equal(t, FailureRemote, outcomes[0].Kind)

	// The second device was still processed.
	assert.Equal(t, StatusSkipped, outcomes[1].Status)
	assert.Equal(t, []string{"iPhone1,1", "iPad6,7"}, cat.fetched)
}

func TestRun_EndToEndDownload(t *testing.T) {
	root := t.TempDir()
	payload := bytes.Repeat([]byte{0x42}, 64)

	devices := []catalog.Device{{Name: "iPhone 1", Identifier: "iPhone1,1"}}

	cat := &fakeCatalog{
		listings: map[string]*catalog.FirmwareListing{
			"iPhone1,1": newListing("iPhone 1", catalog.Firmware{
				Identifier: "iPhone1,1",
				Version:    "16.0",
				BuildID:    "X1",
				Filesize:   int64(len(payload)),
			}),
		},
		payloads: map[string][]byte{"iPhone1,1": payload},
	}

	d := NewDownloader(cat, Options{DownloadPath: root}, testProgressInterval)
	outcomes := d.Run(context.Background(), devices, newTestLatch(t))

	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusCompleted, outcomes[0].Status)
	assert.Equal(t, int64(len(payload)), outcomes[0].Bytes)
}
