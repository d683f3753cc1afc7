// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads API keys and credentials from a directory of plain-text files.
// Each file in the directory represents one secret: the filename is the key name and the
// file contents (trimmed) are the value.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Key names medscan reads from the secrets directory. A key file whose name
// matches none of these is still loaded, but nothing will consume it; callers
// can surface that with Recognized.
const (
	// KeyGrokAPI authenticates the oracle's x.ai completions calls.
	KeyGrokAPI = "grok-api-key"

	// KeyOpenAIAPI authenticates an OpenAI-compatible oracle endpoint.
	KeyOpenAIAPI = "openai-api-key"

	// KeyOCRToken authenticates a hosted OCR service, when one is used
	// instead of the local container.
	KeyOCRToken = "ocr-service-token"
)

var knownKeys = map[string]bool{
	KeyGrokAPI:   true,
	KeyOpenAIAPI: true,
	KeyOCRToken:  true,
}

// Recognized reports whether key names a secret some medscan component reads.
func Recognized(key string) bool {
	return knownKeys[key]
}

// Load reads all files in dir and returns a map of filename to trimmed contents.
// A missing directory or missing files are not errors; Load returns an empty map.
// Unreadable files produce a warning on stderr but do not abort.
func Load(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	secrets := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: could not read secret %s: %v\n", name, err)
			continue
		}

		value := strings.TrimSpace(string(data))
		if value != "" {
			secrets[name] = value
		}
	}

	return secrets, nil
}
