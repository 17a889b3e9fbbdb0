// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/pdiddy/leadgen/internal/export"
	"github.com/pdiddy/leadgen/internal/scoring"
	"github.com/pdiddy/leadgen/pkg/types"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the pipeline once and print the ranked leads",
	Long: `Run ingests leads from every enabled source, enriches them, scores them
and prints the ranked list. A source that fails is reported as a warning and
the run continues with the others; the built-in list keeps results coming
when the network is unavailable.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	applyRunFlags(cmd, &cfg)

	p, scorer, err := buildPipeline(cfg, os.Stderr, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	run, err := p.Run(ctx, os.Stderr)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	explain, _ := cmd.Flags().GetBool("explain")
	if explain {
		printExplain(run, scorer)
	} else if err := export.Write(os.Stdout, format, run.Leads); err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("csv"); path != "" {
		if err := writeExportFile(path, export.FormatCSV, run.Leads); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	if path, _ := cmd.Flags().GetString("json"); path != "" {
		if err := writeExportFile(path, export.FormatJSON, run.Leads); err != nil {
			return err
		}
		fmt.Fprintf(os.Stderr, "Wrote %s\n", path)
	}
	return nil
}

// applyRunFlags lets flags override the pipeline section of cfg.
func applyRunFlags(cmd *cobra.Command, cfg *types.Config) {
	if cmd.Flags().Changed("max-leads") {
		cfg.Pipeline.MaxLeads, _ = cmd.Flags().GetInt("max-leads")
	}
	if cmd.Flags().Changed("offline") {
		if offline, _ := cmd.Flags().GetBool("offline"); offline {
			cfg.PubMed.Enabled = false
			cfg.OpenAlex.Enabled = false
			cfg.Conference.Enabled = false
			cfg.Mock.Enabled = true
		}
	}
}

func printExplain(run types.Run, scorer *scoring.Scorer) {
	fmt.Fprintf(os.Stdout, "%-4s  %-5s  %-24s  %s\n", "Rank", "Score", "Name", "Sub-scores")
	for i, l := range run.Leads {
		fmt.Fprintf(os.Stdout, "%-4d  %-5.2f  %-24s  %s\n", i+1, l.RankProbability, l.Name, scorer.SubScores(l))
	}
}

func writeExportFile(path, format string, leads []types.Lead) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := export.Write(f, format, leads); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func init() {
	runCmd.Flags().String("format", export.FormatTable, "stdout format: table, csv, json or yaml")
	runCmd.Flags().Bool("explain", false, "print per-feature sub-scores instead of the lead table")
	runCmd.Flags().Int("max-leads", 30, "maximum leads to enrich and score (0 = no cap)")
	runCmd.Flags().Bool("offline", false, "use only the built-in lead list")
	runCmd.Flags().String("csv", "", "also write the ranked leads to this CSV file")
	runCmd.Flags().String("json", "", "also write the ranked leads to this JSON file")

	rootCmd.AddCommand(runCmd)
}
