// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/leadgen/internal/config"
)

var checkConfigCmd = &cobra.Command{
	Use:   "check-config",
	Short: "Validate the configuration and print the effective settings",
	Long: `Check-config loads the config file and environment overrides, validates
the scoring weights, keyword tiers, funding stages and preferred locations,
and prints the effective configuration as YAML. Every problem is reported at
once; the command fails if any of them is an error.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.PubMed.APIKey != "" {
			cfg.PubMed.APIKey = "(set)"
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		os.Stdout.Write(data)
		fmt.Fprintln(os.Stderr, "Configuration OK.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkConfigCmd)
}
