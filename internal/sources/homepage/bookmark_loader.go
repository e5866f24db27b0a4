// Package homepage imports bookmarks from a Homepage dashboard
// bookmarks.yaml file.
package homepage

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

var templateVar = regexp.MustCompile(`\{\{[^}]+\}\}`)

// BookmarkLoader handles loading and parsing of Homepage bookmarks.yaml
type BookmarkLoader struct {
	filePath string
}

// NewBookmarkLoader creates a new Homepage bookmark loader
func NewBookmarkLoader(filePath string) *BookmarkLoader {
	return &BookmarkLoader{
		filePath: filePath,
	}
}

// Load reads and parses the bookmarks.yaml file
func (l *BookmarkLoader) Load() (BookmarksConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read bookmarks file: %w", err)
	}

	var config BookmarksConfig
	if err := yaml.Unmarshal(stripTemplateVariables(data), &config); err != nil {
		return nil, fmt.Errorf("failed to parse bookmarks yaml: %w", err)
	}

	return config, nil
}

// stripTemplateVariables blanks Homepage template variables
// Example: {{HOMEPAGE_VAR_ADGUARD_USER}} -> ""
func stripTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAll(data, []byte(`""`))
}
