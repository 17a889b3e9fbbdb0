// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package config loads leadgen settings from a YAML file and LEADGEN_*
// environment variables on top of types.DefaultConfig.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/leadgen/internal/scoring"
	"github.com/pdiddy/leadgen/pkg/types"
)

const (
	// FileName is the config file name searched for without extension.
	FileName = "leadgen"

	// EnvPrefix prefixes environment overrides, e.g. LEADGEN_SERVER_ADDR.
	EnvPrefix = "LEADGEN"
)

// Setup points v at the config file and environment. An explicit path wins;
// otherwise ./leadgen.yaml and ~/.config/leadgen/leadgen.yaml are searched.
// Defaults from types.DefaultConfig are registered so every key can be
// overridden from the environment.
func Setup(v *viper.Viper, path string) error {
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", FileName))
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// Keys without a default are invisible to AutomaticEnv.
	for _, key := range []string{"pubmed.email", "pubmed.api_key", "openalex.email", "openalex.keywords", "mock.path"} {
		if err := v.BindEnv(key); err != nil {
			return fmt.Errorf("binding %s: %w", key, err)
		}
	}

	return registerDefaults(v, types.DefaultConfig())
}

// Read loads the config file if one is found. A missing file is not an
// error when no explicit path was given.
func Read(v *viper.Viper, w io.Writer) error {
	err := v.ReadInConfig()
	if err == nil {
		fmt.Fprintln(w, "Using config file:", v.ConfigFileUsed())
		return nil
	}
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return fmt.Errorf("reading config: %w", err)
}

// Decode builds a Config from v and validates its scoring section. Warnings
// are written to w as "warning: ..." lines. Errors from every check are
// returned together.
func Decode(v *viper.Viper, w io.Writer) (types.Config, error) {
	cfg := types.DefaultConfig()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "yaml",
		Squash:           true,
		ZeroFields:       true,
		WeaklyTypedInput: true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
		Result: &cfg,
	})
	if err != nil {
		return types.Config{}, fmt.Errorf("creating config decoder: %w", err)
	}
	if err := dec.Decode(v.AllSettings()); err != nil {
		return types.Config{}, fmt.Errorf("decoding config: %w", err)
	}

	val := scoring.Validate(cfg.Scoring)
	for _, warn := range val.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	if err := val.Err(); err != nil {
		return types.Config{}, err
	}
	return cfg, nil
}

// Marshal renders cfg as the YAML a config file would hold.
func Marshal(cfg types.Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// registerDefaults sets a viper default for every leaf key of cfg.
func registerDefaults(v *viper.Viper, cfg types.Config) error {
	data, err := Marshal(cfg)
	if err != nil {
		return err
	}
	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("parsing default config: %w", err)
	}
	setDefaults(v, "", tree)
	return nil
}

func setDefaults(v *viper.Viper, prefix string, tree map[string]any) {
	for k, val := range tree {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if sub, ok := val.(map[string]any); ok && len(sub) > 0 {
			setDefaults(v, key, sub)
			continue
		}
		v.SetDefault(key, val)
	}
}
