// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the leadgen CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/leadgen/internal/config"
	"github.com/pdiddy/leadgen/internal/secrets"
	"github.com/pdiddy/leadgen/pkg/types"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds credentials loaded from the secrets directory at startup.
var loadedSecrets secrets.Set

// rootCmd is the base command for the leadgen CLI.
var rootCmd = &cobra.Command{
	Use:   "leadgen",
	Short: "Find, enrich and rank biotech sales leads",
	Long: `leadgen gathers candidate contacts from PubMed authors, conference speaker
pages and a built-in lead list, fills in contact details, and ranks every
lead by a weighted score of role fit, funding stage, location and
scientific intent.

Use run for a one-off ranked list, serve for the interactive dashboard, and
export to write the ranked leads to a file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfgFile, _ := cmd.Flags().GetString("config")
		if err := config.Setup(viper.GetViper(), cfgFile); err != nil {
			return err
		}
		if err := config.Read(viper.GetViper(), os.Stderr); err != nil {
			return err
		}

		dir, _ := cmd.Flags().GetString("secrets-dir")
		s, err := secrets.Load(dir, os.Stderr)
		if err != nil {
			return err
		}
		loadedSecrets = s
		if names := s.Names(); len(names) > 0 {
			fmt.Fprintf(os.Stderr, "Loaded secrets: %v\n", names)
		}
		return nil
	},
}

// loadConfig decodes and validates the configuration and fills credentials
// the config file left empty from the secrets directory.
func loadConfig() (types.Config, error) {
	cfg, err := config.Decode(viper.GetViper(), os.Stderr)
	if err != nil {
		return types.Config{}, err
	}
	loadedSecrets.ApplyTo(&cfg)
	return cfg, nil
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file (default: ./leadgen.yaml or ~/.config/leadgen/leadgen.yaml)")
	rootCmd.PersistentFlags().String("secrets-dir", ".secrets", "directory of credential files (ncbi-api-key, ncbi-email)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
