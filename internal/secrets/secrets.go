// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// The filename is the key and the trimmed file contents are the value, so
// keys never have to live in the config file or the shell history.
//
// Recognized keys: ncbi-api-key, ncbi-email.
package secrets

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/leadgen/pkg/types"
)

const (
	// KeyNCBIAPIKey raises the PubMed E-utilities rate limit.
	KeyNCBIAPIKey = "ncbi-api-key"
	// KeyNCBIEmail identifies the caller to NCBI.
	KeyNCBIEmail = "ncbi-email"
)

// Set maps secret names to values.
type Set map[string]string

// Load reads all regular, non-hidden files in dir. A missing directory is
// not an error and yields an empty Set. Unreadable files are reported on w
// and skipped.
func Load(dir string, w io.Writer) (Set, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Set{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Set)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			fmt.Fprintf(w, "warning: could not read secret %s: %v\n", name, err)
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// Names returns the loaded key names in sorted order, never the values.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// ApplyTo fills credentials in cfg that the config file left empty.
// Explicit config values win over secret files.
func (s Set) ApplyTo(cfg *types.Config) {
	if cfg.PubMed.APIKey == "" {
		cfg.PubMed.APIKey = s[KeyNCBIAPIKey]
	}
	if cfg.PubMed.Email == "" {
		cfg.PubMed.Email = s[KeyNCBIEmail]
	}
	// OpenAlex only needs a contact address; reuse the NCBI one.
	if cfg.OpenAlex.Email == "" {
		cfg.OpenAlex.Email = cfg.PubMed.Email
	}
}
