package xiaohongshu

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the platform's title limit, counted in runes since
// titles are mostly CJK text.
const MaxTitleLength = 40

// allowedImageExtensions lists the upload formats the composer accepts.
var allowedImageExtensions = map[string]struct{}{
	".jpg":  {},
	".jpeg": {},
	".png":  {},
	".gif":  {},
	".webp": {},
}

// PublishRequest describes one image+text post. It must pass Validate
// before any browser interaction begins.
type PublishRequest struct {
	Title      string   `json:"title"`
	Content    string   `json:"content"`
	ImagePaths []string `json:"image_paths"`
}

// Validate checks the request against the platform's constraints.
// A failure here short-circuits the whole publish flow.
func (r PublishRequest) Validate() error {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return fmt.Errorf("title must not be empty")
	}
	if n := utf8.RuneCountInString(title); n > MaxTitleLength {
		return fmt.Errorf("title is %d characters, the limit is %d", n, MaxTitleLength)
	}

	if r.Content == "" {
		return fmt.Errorf("content must not be empty")
	}

	if len(r.ImagePaths) == 0 {
		return fmt.Errorf("at least one image is required")
	}
	for _, path := range r.ImagePaths {
		ext := strings.ToLower(filepath.Ext(path))
		if _, ok := allowedImageExtensions[ext]; !ok {
			return fmt.Errorf("unsupported image format %q for %s", ext, path)
		}
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("image file not accessible: %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return fmt.Errorf("image path is not a regular file: %s", path)
		}
	}
	return nil
}
