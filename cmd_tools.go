package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/bodul/autocross/internal/config"
	"github.com/bodul/autocross/internal/crossword"
	"github.com/bodul/autocross/internal/gemini"
	"github.com/bodul/autocross/internal/generator"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// readLayout decodes a JSON or YAML layout file, chosen by extension.
func readLayout(path string) (crossword.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return crossword.Result{}, err
	}
	var res crossword.Result
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &res)
	default:
		err = json.Unmarshal(data, &res)
	}
	if err != nil {
		if ve, ok := crossword.AsValidation(err); ok {
			return crossword.Result{}, ve
		}
		return crossword.Result{}, fmt.Errorf("parse %s: %w", path, err)
	}
	res.Questions = normalizeWords(res.Questions)
	return res, nil
}

func runValidate(cmd *cobra.Command, args []string) error {
	res, err := readLayout(args[0])
	if err != nil {
		return err
	}
	if err := crossword.Validate(res); err != nil {
		return err
	}
	rows, cols := crossword.Extent(res.Questions)
	fmt.Fprintf(cmd.OutOrStdout(), "valid: %d words on a %dx%d grid\n", len(res.Questions), rows, cols)
	return nil
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	req := generator.Request{Topic: genTopic, Content: genContent, Count: genCount}
	if genFile != "" {
		data, err := os.ReadFile(genFile)
		if err != nil {
			return err
		}
		if err := attachDocument(&req, filepath.Base(genFile), data); err != nil {
			return err
		}
	}

	gc, err := gemini.New(ctx, cfg.AI)
	if err != nil {
		if errors.Is(err, gemini.ErrNotConfigured) {
			return errors.New("set GEMINI_API_KEY or GCP_PROJECT_ID to generate")
		}
		return err
	}
	defer gc.Close()

	stderr := cmd.ErrOrStderr()
	opts := generator.Options{
		MaxRetries:     cfg.Generator.MaxRetries,
		AttemptTimeout: cfg.Generator.AttemptTimeout,
		Backoff:        cfg.Generator.Backoff,
		ContentLimit:   cfg.Generator.ContentLimit,
		ExtraTerms:     cfg.Generator.ExtraTerms,
		OnTransition: func(e generator.Event) {
			switch {
			case e.Err != nil:
				fmt.Fprintf(stderr, "%s (attempt %d/%d): %v\n", e.State, e.Attempt, e.MaxAttempts, e.Err)
			case e.Attempt > 0:
				fmt.Fprintf(stderr, "%s (attempt %d/%d)\n", e.State, e.Attempt, e.MaxAttempts)
			default:
				fmt.Fprintf(stderr, "%s\n", e.State)
			}
		},
	}

	res, err := generator.New(gc, opts).Generate(ctx, req)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}
