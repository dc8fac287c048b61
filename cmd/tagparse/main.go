// Package main provides the CLI entry point for tagparse, a demonstration
// driver for the streaming tag-delimited extractor: it feeds a file or
// stdin through a Parser chunk-by-chunk (simulating network arrival) and
// prints each incremental snapshot.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tagparse/tagparse"
	"github.com/tagparse/tagparse/log"
	"github.com/tagparse/tagparse/model"
	"github.com/tagparse/tagparse/schema/jsonimport"
)

func main() {
	cfg := NewConfig()

	rootCmd := &cobra.Command{
		Use:   "tagparse [flags]",
		Short: "Stream tag-delimited, malformed JSON-ish payloads into typed Go values",
		Long: `tagparse reads a tag-delimited payload (such as an LLM completion wrapping
its structured output in <TypeName>...</TypeName> markers) from a file or
stdin, feeds it through the streaming extractor in fixed-size chunks to
exercise chunk-invariance, and prints each incremental best-effort snapshot
as indented JSON.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.ApplyConfigFile(cmd.Flags()); err != nil {
				return err
			}
			return run(cfg)
		},
	}

	cfg.RegisterFlags(rootCmd.Flags())

	if err := cfg.RegisterCompletions(rootCmd); err != nil {
		fmt.Fprintf(os.Stderr, "register completions: %v\n", err)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func run(cfg *Config) error {
	handler, err := log.CreateHandlerWithStrings(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger := slog.New(handler)
	runID := uuid.NewString()

	root, inst, err := resolveSchema(cfg)
	if err != nil {
		return err
	}

	parser, err := tagparse.New(root, inst)
	if err != nil {
		return fmt.Errorf("constructing parser: %w", err)
	}

	data, err := readInput(cfg.Input)
	if err != nil {
		return err
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 32
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	logged := 0
	logNewRecords := func() {
		records := parser.Records()
		for _, r := range records[logged:] {
			log.Emit(logger, runID, r)
		}
		logged = len(records)
	}

	for len(data) > 0 {
		n := cfg.ChunkSize
		if n > len(data) {
			n = len(data)
		}
		snapshot := parser.Feed(data[:n])
		data = data[n:]

		logNewRecords()

		if snapshot != nil {
			if encErr := enc.Encode(snapshot); encErr != nil {
				return fmt.Errorf("encoding snapshot: %w", encErr)
			}
		}
	}

	final, verr := parser.Validate()
	logNewRecords()
	if verr != nil {
		return fmt.Errorf("validate: %w", verr)
	}
	return enc.Encode(final)
}

func resolveSchema(cfg *Config) (*model.Descriptor, model.Instantiator, error) {
	switch {
	case cfg.Schema != "":
		data, err := os.ReadFile(cfg.Schema)
		if err != nil {
			return nil, nil, fmt.Errorf("reading --schema: %w", err)
		}
		var s jsonschema.Schema
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, nil, fmt.Errorf("parsing --schema: %w", err)
		}
		name := cfg.Type
		if name == "" {
			name = "Root"
		}
		return jsonimport.Import(name, &s)

	case cfg.Type != "":
		return buildDemoSchema(cfg.Type)

	default:
		return nil, nil, fmt.Errorf("tagparse: one of --type or --schema is required")
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading --input: %w", err)
	}
	return bytes.TrimSpace(data), nil
}
