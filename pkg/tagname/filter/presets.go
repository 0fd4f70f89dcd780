// Package filter decides which walked files are candidates for renaming:
// an extension allow-list, chosen explicitly, by named preset, or by the
// historical default, plus optional exclude globs.
package filter

import (
	"errors"
	"fmt"
	"sort"
)

// PresetAppleCamera groups what an iPhone export typically contains.
const PresetAppleCamera = "apple-camera"

// DefaultExtensions applies when neither explicit extensions nor a preset
// are configured.
var DefaultExtensions = []string{".heic"}

// Presets maps preset names to their extension sets.
var Presets = map[string][]string{
	PresetAppleCamera: {
		".heic", ".heif",
		".jpg", ".jpeg", ".png",
		".mov", ".mp4",
		".aae",  // iOS edit sidecar
		".json", // tooling metadata
		".xmp",  // metadata sidecar
	},
	"image": {
		".jpg", ".jpeg", ".png", ".gif", ".bmp", ".tiff", ".tif", ".webp", ".heic", ".heif", ".raw", ".dng",
	},
	"video": {
		".mp4", ".mkv", ".avi", ".mov", ".wmv", ".webm", ".m4v", ".mpeg", ".mpg",
	},
}

// ErrUnknownPreset indicates a preset name not present in Presets.
var ErrUnknownPreset = errors.New("unknown preset")

// PresetNames returns the sorted preset names.
func PresetNames() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// PresetExtensions returns the extensions of the named preset.
func PresetExtensions(name string) ([]string, error) {
	exts, ok := Presets[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (available: %v)", ErrUnknownPreset, name, PresetNames())
	}
	return exts, nil
}
