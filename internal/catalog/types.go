package catalog

import (
	"strings"
	"time"
)

// Device is one hardware entry from the catalog device index.
type Device struct {
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Platform   string `json:"platform"`
	CPID       uint32 `json:"cpid"`
	BDID       uint32 `json:"bdid"`
}

// Firmware is one downloadable image for a device.
type Firmware struct {
	Identifier string    `json:"identifier"`
	Version    string    `json:"version"`
	BuildID    string    `json:"buildid"`
	SHA1Sum    string    `json:"sha1sum"`
	MD5Sum     string    `json:"md5sum"`
	Filesize   int64     `json:"filesize"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"uploaddate"`
}

// FirmwareListing is the per-device firmware index. Firmwares is ordered
// newest first by the catalog; callers rely on that ordering.
type FirmwareListing struct {
	Name        string     `json:"name"`
	Identifier  string     `json:"identifier"`
	Platform    string     `json:"platform"`
	BoardConfig string     `json:"boardconfig"`
	CPID        uint32     `json:"cpid"`
	BDID        uint32     `json:"bdid"`
	Firmwares   []Firmware `json:"firmwares"`
}

// Newest returns the most recent firmware entry, or nil if the listing is empty.
func (l *FirmwareListing) Newest() *Firmware {
	if len(l.Firmwares) == 0 {
		return nil
	}

	return &l.Firmwares[0]
}

// SanitizeName makes a device name safe for use as a directory component by
// replacing path separators. Idempotent.
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "/", "z")

	return strings.ReplaceAll(name, `\`, "z")
}
