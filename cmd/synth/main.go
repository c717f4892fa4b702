package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-synth/config"
	"github.com/wippyai/wasm-synth/errors"
	"github.com/wippyai/wasm-synth/recipe"
	"github.com/wippyai/wasm-synth/wasm/synth"
)

func main() {
	var (
		configFile  = flag.String("config", "", "Path to config file (yaml, json or toml)")
		recipeFile  = flag.String("recipe", "", "Path to a recipe yaml file")
		preset      = flag.String("preset", "", "Name of a built-in preset")
		output      = flag.String("o", "", "Output wasm file (overrides config)")
		list        = flag.Bool("list", false, "Print the module layout after building")
		presets     = flag.Bool("presets", false, "List built-in presets and exit")
		interactive = flag.Bool("i", false, "Browse the built module with a TUI")
	)
	flag.Parse()

	if *presets {
		for _, name := range presetNames() {
			fmt.Println(name)
		}
		return
	}

	if (*recipeFile == "") == (*preset == "") {
		fmt.Fprintln(os.Stderr, "Usage: synth -recipe <file.yaml> [-o out.wasm] [-list] [-i]")
		fmt.Fprintln(os.Stderr, "       synth -preset <name> [-o out.wasm] [-list] [-i]")
		fmt.Fprintln(os.Stderr, "       synth -presets")
		os.Exit(1)
	}

	if err := run(*configFile, *recipeFile, *preset, *output, *list, *interactive); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configFile, recipeFile, preset, output string, listOnly, interactive bool) error {
	ctx := context.Background()

	cfg, err := config.Load(configFile)
	if err != nil {
		return err
	}
	if output != "" {
		cfg.Output = output
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	synth.SetLogger(logger)
	recipe.SetLogger(logger)

	data, name, err := build(ctx, cfg, logger, recipeFile, preset)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(cfg.Output, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logger.Info("wrote module",
		zap.String("source", name),
		zap.String("output", cfg.Output),
		zap.Int("size", len(data)))

	if interactive {
		return runInteractive(name, data)
	}

	if listOnly {
		s, err := summarize(data)
		if err != nil {
			return err
		}
		printSummary(os.Stdout, s)
	}
	return nil
}

func build(ctx context.Context, cfg *config.Config, logger *zap.Logger, recipeFile, preset string) ([]byte, string, error) {
	opts := cfg.BuilderOptions(logger)

	if recipeFile != "" {
		r, err := recipe.Load(recipeFile)
		if err != nil {
			return nil, "", err
		}
		// The recipe's own metadata wins over the config default.
		data, err := r.Build(ctx, append(opts, r.Options()...)...)
		if err != nil {
			return nil, "", err
		}
		return data, recipeFile, nil
	}

	p, ok := synth.Presets()[preset]
	if !ok {
		return nil, "", errors.NotFound(errors.PhaseLoad, "preset", preset)
	}
	data, err := p(ctx, opts...)
	if err != nil {
		return nil, "", err
	}
	return data, preset, nil
}

func presetNames() []string {
	var names []string
	for name := range synth.Presets() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
