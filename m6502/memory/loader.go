package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ROM image loading. Three forms are supported: a direct byte map, a raw
// binary at a start address, and a directory of JSON descriptors with
// sidecar .bin payloads applied in ascending priority (later writes win).

// Loader failure kinds. Directory loading logs and skips broken images
// rather than failing the whole overlay.
var (
	ErrImageOutOfRange = errors.New("rom: load address outside window")
	ErrMetadataInvalid = errors.New("rom: invalid image metadata")
)

// imageMeta mirrors a descriptor file. The payload is read from a sidecar
// file with the same basename and a .bin extension.
type imageMeta struct {
	Name        string  `json:"name"`
	LoadAddress hexAddr `json:"load_address"`
	Size        int     `json:"size"`
	Priority    int     `json:"priority"`
}

// hexAddr accepts either a JSON integer or a "0xNNNN" string.
type hexAddr uint16

func (h *hexAddr) UnmarshalJSON(data []byte) error {
	var n uint16
	if err := json.Unmarshal(data, &n); err == nil {
		*h = hexAddr(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: load_address must be an integer or hex string", ErrMetadataInvalid)
	}
	v, err := strconv.ParseUint(s, 0, 16)
	if err != nil {
		return fmt.Errorf("%w: bad load_address %q", ErrMetadataInvalid, s)
	}
	*h = hexAddr(v)
	return nil
}

// LoadBinaryFile loads a raw binary image at the given start address.
func (r *ROM) LoadBinaryFile(path string, start uint16) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("rom: reading %s: %w", path, err)
	}
	r.LoadBytes(start, data)
	return nil
}

// LoadDirectory scans dir for *.json descriptors and applies their images
// in ascending priority order. Broken or out-of-window images are logged
// and skipped; the remaining overlay still loads.
func (r *ROM) LoadDirectory(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("rom: reading directory %s: %w", dir, err)
	}

	type pending struct {
		meta imageMeta
		path string
	}
	var images []pending

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		meta, err := readImageMeta(path)
		if err != nil {
			slog.Warn("skipping rom image", "descriptor", path, "error", err)
			continue
		}
		images = append(images, pending{meta: meta, path: path})
	}

	sort.SliceStable(images, func(i, j int) bool {
		return images[i].meta.Priority < images[j].meta.Priority
	})

	for _, img := range images {
		if err := r.applyImage(img.meta, img.path); err != nil {
			slog.Warn("skipping rom image",
				"name", img.meta.Name, "descriptor", img.path, "error", err)
		}
	}
	return nil
}

func readImageMeta(path string) (imageMeta, error) {
	var meta imageMeta
	data, err := os.ReadFile(path)
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return meta, fmt.Errorf("%w: %v", ErrMetadataInvalid, err)
	}
	if meta.Name == "" || meta.Size <= 0 {
		return meta, fmt.Errorf("%w: name and positive size required", ErrMetadataInvalid)
	}
	return meta, nil
}

func (r *ROM) applyImage(meta imageMeta, descriptorPath string) error {
	start := uint16(meta.LoadAddress)
	if !r.InWindow(start) {
		return fmt.Errorf("%w: 0x%04X", ErrImageOutOfRange, start)
	}

	binPath := strings.TrimSuffix(descriptorPath, ".json") + ".bin"
	data, err := os.ReadFile(binPath)
	if err != nil {
		return fmt.Errorf("rom: reading payload %s: %w", binPath, err)
	}
	if len(data) > meta.Size {
		data = data[:meta.Size]
	}

	r.LoadBytes(start, data)
	slog.Debug("loaded rom image",
		"name", meta.Name, "address", fmt.Sprintf("0x%04X", start),
		"bytes", len(data), "priority", meta.Priority)
	return nil
}
