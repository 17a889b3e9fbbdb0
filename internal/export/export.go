// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package export writes scored leads as CSV, JSON, YAML or a text table.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/leadgen/pkg/types"
)

// Supported formats.
const (
	FormatCSV   = "csv"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
	FormatTable = "table"
)

// CSVHeader is the header row of a lead export, in column order.
var CSVHeader = []string{"Rank Probability", "Name", "Title", "Company", "Location", "Email", "LinkedIn"}

// Write encodes leads in the named format.
func Write(w io.Writer, format string, leads []types.Lead) error {
	switch strings.ToLower(format) {
	case FormatCSV, "":
		return WriteCSV(w, leads)
	case FormatJSON:
		return WriteJSON(w, leads)
	case FormatYAML, "yml":
		return WriteYAML(w, leads)
	case FormatTable:
		return WriteTable(w, leads)
	default:
		return fmt.Errorf("unsupported format %q: use csv, json, yaml or table", format)
	}
}

// ContentType returns the MIME type for a download in format.
func ContentType(format string) string {
	switch strings.ToLower(format) {
	case FormatJSON:
		return "application/json"
	case FormatYAML, "yml":
		return "application/yaml"
	case FormatTable:
		return "text/plain; charset=utf-8"
	default:
		return "text/csv; charset=utf-8"
	}
}

// WriteCSV writes the header and one row per lead. Rank probability is
// written with two decimals.
func WriteCSV(w io.Writer, leads []types.Lead) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for _, l := range leads {
		row := []string{
			strconv.FormatFloat(l.RankProbability, 'f', 2, 64),
			l.Name,
			l.Title,
			l.Company,
			l.Location,
			l.Email,
			l.LinkedInURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %q: %w", l.Name, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteJSON writes leads as an indented JSON array.
func WriteJSON(w io.Writer, leads []types.Lead) error {
	if leads == nil {
		leads = []types.Lead{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(leads); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

// WriteYAML writes leads as a YAML sequence.
func WriteYAML(w io.Writer, leads []types.Lead) error {
	if leads == nil {
		leads = []types.Lead{}
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(leads); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

// WriteTable writes a fixed-width table for terminals.
func WriteTable(w io.Writer, leads []types.Lead) error {
	if len(leads) == 0 {
		_, err := fmt.Fprintln(w, "No leads.")
		return err
	}

	fmt.Fprintf(w, "%-4s  %-5s  %-24s  %-28s  %-28s  %s\n",
		"Rank", "Score", "Name", "Title", "Company", "Location")
	fmt.Fprintln(w, strings.Repeat("-", 112))

	for i, l := range leads {
		fmt.Fprintf(w, "%-4d  %-5.2f  %-24s  %-28s  %-28s  %s\n",
			i+1, l.RankProbability, truncate(l.Name, 24), truncate(l.Title, 28),
			truncate(l.Company, 28), l.Location)
	}

	_, err := fmt.Fprintf(w, "\n%d leads\n", len(leads))
	return err
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
