// Package pipeline orchestrates the complete split workflow.
package pipeline

import (
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/romsplit/internal/config"
	"github.com/retroenv/romsplit/internal/linker"
	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/report"
	"github.com/retroenv/romsplit/internal/split"
)

// Pipeline orchestrates the complete split workflow.
type Pipeline struct {
	logger *log.Logger
}

// New creates a new split pipeline.
func New(logger *log.Logger) *Pipeline {
	return &Pipeline{
		logger: logger,
	}
}

// Execute loads the ROM and the split config, runs the split engine and
// writes the configured output artifacts. Outputs are deterministic, running
// twice on identical inputs produces byte identical files.
func (p *Pipeline) Execute(opts options.Program) error {
	rom, err := os.ReadFile(opts.Rom)
	if err != nil {
		return fmt.Errorf("reading ROM %s: %w", opts.Rom, err)
	}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return fmt.Errorf("creating output directory %s: %w", opts.OutDir, err)
	}

	splitOpts := options.NewSplit(opts.ModeList(), opts.Debug)
	splitOpts.LdAddrsHeader = cfg.Options.LdAddrsHeader

	engine := split.New(p.logger, splitOpts)
	result, err := engine.Run(rom, cfg, opts.OutDir)
	if err != nil {
		return fmt.Errorf("splitting ROM: %w", err)
	}

	if splitOpts.ModeEnabled(options.ModeLd) {
		if err := linker.WriteScript(opts.OutDir, cfg.Basename, result.LdSections); err != nil {
			return fmt.Errorf("writing linker script: %w", err)
		}

		if splitOpts.LdAddrsHeader != "" {
			if err := linker.WriteAddrsHeader(opts.OutDir, splitOpts.LdAddrsHeader, result.LdSymbols); err != nil {
				return fmt.Errorf("writing address header: %w", err)
			}
		}
	}

	lines, err := report.Undefined(result.Required, result.Defined,
		result.Functions.KnownAddresses())
	if err != nil {
		return fmt.Errorf("reconciling undefined functions: %w", err)
	}
	if err := report.Write(opts.OutDir, lines); err != nil {
		return fmt.Errorf("writing undefined function report: %w", err)
	}

	p.logger.Debug("Split finished",
		log.Int("segments", len(result.Segments)),
		log.Int("undefined_functions", len(lines)))

	return nil
}
