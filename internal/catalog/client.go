// Package catalog provides a client for the ipsw.me v4 firmware catalog API.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/italolelis/ipsw_downloader/internal/logctx"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL   string
	userAgent string

	// hc serves metadata calls and carries the configured timeout. dlc shares
	// the transport but has no client-level timeout: a firmware image can
	// legitimately take longer to stream than any sane request deadline, so
	// downloads are bounded by context cancellation instead.
	hc  *http.Client
	dlc *http.Client
}

func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	transport := otelhttp.NewTransport(http.DefaultTransport)

	return &Client{
		baseURL:   baseURL,
		userAgent: userAgent,
		hc:        &http.Client{Transport: transport, Timeout: timeout},
		dlc:       &http.Client{Transport: transport},
	}
}

// Devices retrieves the full device index from the catalog.
func (c *Client) Devices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.getJSON(ctx, "list_devices", c.baseURL+"/devices", &devices); err != nil {
		return nil, err
	}

	return devices, nil
}

// DeviceFirmware retrieves the firmware listing for a device. The device name
// in the returned listing is sanitized for use as a directory component.
func (c *Client) DeviceFirmware(ctx context.Context, device Device) (*FirmwareListing, error) {
	url := fmt.Sprintf("%s/device/%s?type=ipsw", c.baseURL, device.Identifier)

	var listing FirmwareListing
	if err := c.getJSON(ctx, "list_firmware", url, &listing); err != nil {
		return nil, err
	}

	listing.Name = SanitizeName(listing.Name)

	return &listing, nil
}

// OpenDownload starts streaming the firmware image and returns the body along
// with its declared length in bytes. The caller owns closing the stream.
func (c *Client) OpenDownload(ctx context.Context, fw Firmware) (io.ReadCloser, int64, error) {
	url := fmt.Sprintf("%s/ipsw/download/%s/%s", c.baseURL, fw.Identifier, fw.BuildID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, &NetworkError{Operation: "open_download", Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.dlc.Do(req)
	if err != nil {
		return nil, 0, &NetworkError{Operation: "open_download", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()

		return nil, 0, &NetworkError{Operation: "open_download", StatusCode: resp.StatusCode}
	}

	length := resp.ContentLength
	if length < 0 {
		// The download endpoint redirects to a CDN that always declares a
		// length, but fall back to the listing's size if it ever doesn't.
		length = fw.Filesize
	}

	logctx.LoggerFromContext(ctx).Debug("download stream opened",
		"identifier", fw.Identifier, "buildid", fw.BuildID, "length", length)

	return resp.Body, length, nil
}

func (c *Client) getJSON(ctx context.Context, operation, url string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &NetworkError{Operation: operation, Err: err}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.hc.Do(req)
	if err != nil {
		return &NetworkError{Operation: operation, Err: err}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &NetworkError{Operation: operation, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return &NetworkError{Operation: operation, Err: fmt.Errorf("decoding response: %w", err)}
	}

	return nil
}
