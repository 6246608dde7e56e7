package archive

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"time"
)

// FormatVersion is the archive format version written to metadata.json.
const FormatVersion = 1

// Counts tracks entity counts for validation and reporting.
type Counts struct {
	Trees     int `json:"trees"`
	Updates   int `json:"updates"`
	Photos    int `json:"photos"`
	Reminders int `json:"reminders"`
}

// Metadata describes an archive. It is informational; archives without
// metadata.json import fine.
type Metadata struct {
	ID         string    `json:"id"`
	Version    int       `json:"version"`
	CreatedAt  time.Time `json:"created_at"`
	AppVersion string    `json:"app_version"`
	Counts     Counts    `json:"counts"`
	DataSHA256 string    `json:"data_sha256"` // checksum of trees_data.json
}

func writeMetadata(path string, meta *Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// readMetadata returns nil without error when the archive has no metadata.
func readMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
