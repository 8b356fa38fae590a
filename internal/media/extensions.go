// Package media classifies filesystem paths as library-relevant media files.
package media

import (
	"path/filepath"
	"strings"
)

// defaultExtensions covers the formats Emby indexes. Lowercase, no leading dot.
var defaultExtensions = map[string]struct{}{
	// Video
	"mp4": {}, "mkv": {}, "flv": {}, "avi": {}, "wmv": {},
	"ts": {}, "rmvb": {}, "webm": {}, "mpg": {},
	// Audio
	"flac": {}, "m4a": {}, "mp3": {}, "wav": {}, "dsf": {}, "dff": {},
	"ape": {}, "aiff": {}, "alac": {}, "aac": {}, "ogg": {}, "wma": {}, "opus": {},
	// Streaming placeholders
	"strm": {},
}

// Filter reports whether paths count as media, optionally extended with
// additional extensions from configuration.
type Filter struct {
	extensions map[string]struct{}
}

// NewFilter builds a filter over the default extension set plus extras.
// Extras are normalized to lowercase without a leading dot.
func NewFilter(extras ...string) *Filter {
	exts := make(map[string]struct{}, len(defaultExtensions)+len(extras))
	for ext := range defaultExtensions {
		exts[ext] = struct{}{}
	}
	for _, extra := range extras {
		normalized := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(extra), "."))
		if normalized != "" {
			exts[normalized] = struct{}{}
		}
	}
	return &Filter{extensions: exts}
}

// Match reports whether the path has a recognized media extension. Hidden
// files and common download temp suffixes are rejected regardless of
// extension so half-written files never reach the trigger pipeline.
func (f *Filter) Match(path string) bool {
	name := filepath.Base(path)
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	lower := strings.ToLower(name)
	if strings.HasSuffix(lower, ".part") || strings.HasSuffix(lower, ".tmp") || strings.HasSuffix(lower, ".!qb") {
		return false
	}
	ext := strings.TrimPrefix(filepath.Ext(lower), ".")
	if ext == "" {
		return false
	}
	_, ok := f.extensions[ext]
	return ok
}
