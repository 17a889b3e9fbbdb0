// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/leadgen/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Run the pipeline and write the ranked leads to a file",
	Long: `Export runs the pipeline once and writes the ranked leads as CSV, JSON
or YAML. CSV columns are: Rank Probability, Name, Title, Company, Location,
Email, LinkedIn.`,
	RunE: runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case export.FormatCSV, export.FormatJSON, export.FormatYAML:
	default:
		return fmt.Errorf("unsupported format %q: use csv, json or yaml", format)
	}
	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = "leads." + format
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, &cfg)

	p, _, err := buildPipeline(cfg, os.Stderr, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := p.Run(ctx, os.Stderr)
	if err != nil {
		return err
	}

	if out == "-" {
		return export.Write(os.Stdout, format, run.Leads)
	}
	if err := writeExportFile(out, format, run.Leads); err != nil {
		return err
	}
	fmt.Printf("Exported %d leads to %s\n", len(run.Leads), out)
	return nil
}

func init() {
	exportCmd.Flags().String("format", export.FormatCSV, "export format: csv, json or yaml")
	exportCmd.Flags().String("out", "", `output file (default "leads.<format>", "-" for stdout)`)
	exportCmd.Flags().Int("max-leads", 30, "maximum leads to enrich and score (0 = no cap)")
	exportCmd.Flags().Bool("offline", false, "use only the built-in lead list")

	rootCmd.AddCommand(exportCmd)
}
