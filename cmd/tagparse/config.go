package main

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Flags holds CLI flag names, allowing callers to customize flag names while
// keeping sensible defaults.
type Flags struct {
	Type      string
	Schema    string
	Input     string
	ChunkSize string
	LogLevel  string
	LogFormat string
	Config    string
}

// Config holds CLI flag values for one run of the demo binary.
//
// Create instances with [NewConfig] and register CLI flags with
// [Config.RegisterFlags].
type Config struct {
	Flags Flags

	Type       string
	Schema     string
	Input      string
	ChunkSize  int
	LogLevel   string
	LogFormat  string
	ConfigFile string
}

// fileDefaults is the shape a --config YAML file may supply; any field left
// unset in the file keeps the flag's own default (or whatever the user
// passed on the command line, which always wins — see ApplyConfigFile).
type fileDefaults struct {
	Type      string `yaml:"type"`
	Schema    string `yaml:"schema"`
	Input     string `yaml:"input"`
	ChunkSize int    `yaml:"chunk_size"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// NewConfig returns a new [Config] with default flag names.
func NewConfig() *Config {
	f := Flags{
		Type:      "type",
		Schema:    "schema",
		Input:     "input",
		ChunkSize: "chunk-size",
		LogLevel:  "log-level",
		LogFormat: "log-format",
		Config:    "config",
	}

	return &Config{Flags: f}
}

// RegisterFlags adds the demo binary's flags to the given [*pflag.FlagSet].
func (c *Config) RegisterFlags(flags *pflag.FlagSet) {
	flags.StringVar(&c.Type, c.Flags.Type, "",
		"name of the root class to bind against (required unless --schema is given)")
	flags.StringVar(&c.Schema, c.Flags.Schema, "",
		"path to a JSON Schema document describing the root type")
	flags.StringVar(&c.Input, c.Flags.Input, "-",
		"input file path (- for stdin)")
	flags.IntVar(&c.ChunkSize, c.Flags.ChunkSize, 32,
		"bytes fed to the parser per Feed call, to exercise chunk-invariance")
	flags.StringVar(&c.LogLevel, c.Flags.LogLevel, "info",
		"log level (debug, info, warn, error)")
	flags.StringVar(&c.LogFormat, c.Flags.LogFormat, "logfmt",
		"log output format (json, logfmt)")
	flags.StringVar(&c.ConfigFile, c.Flags.Config, "",
		"YAML file supplying default flag values, overridden by any flag given explicitly")
}

// ApplyConfigFile loads c.ConfigFile, if set, and fills in any flag the
// caller did not pass explicitly on the command line — matching
// MacroPower-x's own config-loading idiom (github.com/goccy/go-yaml) of
// letting a file supply defaults rather than the final word.
func (c *Config) ApplyConfigFile(flags *pflag.FlagSet) error {
	if c.ConfigFile == "" {
		return nil
	}

	data, err := os.ReadFile(c.ConfigFile)
	if err != nil {
		return fmt.Errorf("reading --%s: %w", c.Flags.Config, err)
	}

	var fd fileDefaults
	if err := yaml.Unmarshal(data, &fd); err != nil {
		return fmt.Errorf("parsing --%s: %w", c.Flags.Config, err)
	}

	if fd.Type != "" && !flags.Changed(c.Flags.Type) {
		c.Type = fd.Type
	}
	if fd.Schema != "" && !flags.Changed(c.Flags.Schema) {
		c.Schema = fd.Schema
	}
	if fd.Input != "" && !flags.Changed(c.Flags.Input) {
		c.Input = fd.Input
	}
	if fd.ChunkSize != 0 && !flags.Changed(c.Flags.ChunkSize) {
		c.ChunkSize = fd.ChunkSize
	}
	if fd.LogLevel != "" && !flags.Changed(c.Flags.LogLevel) {
		c.LogLevel = fd.LogLevel
	}
	if fd.LogFormat != "" && !flags.Changed(c.Flags.LogFormat) {
		c.LogFormat = fd.LogFormat
	}
	return nil
}

// RegisterCompletions registers shell completions for the demo binary's
// flags on cmd.
func (c *Config) RegisterCompletions(cmd *cobra.Command) error {
	err := cmd.RegisterFlagCompletionFunc(c.Flags.LogLevel,
		cobra.FixedCompletions([]string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.LogLevel, err)
	}

	err = cmd.RegisterFlagCompletionFunc(c.Flags.LogFormat,
		cobra.FixedCompletions([]string{"json", "logfmt"}, cobra.ShellCompDirectiveNoFileComp))
	if err != nil {
		return fmt.Errorf("registering %s completion: %w", c.Flags.LogFormat, err)
	}

	return nil
}
