// Package split drives the segment lifecycle of a ROM split: descriptor
// construction, the split pass in config order, the post split pass and the
// collection of linker fragments and label state across segments.
package split

import (
	"fmt"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/romsplit/internal/config"
	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
	"github.com/retroenv/romsplit/internal/symbols"
)

// Engine runs the two pass segment lifecycle.
type Engine struct {
	logger *log.Logger
	opts   *options.Split
}

// Result contains the outputs of a split run that downstream synthesis
// consumes.
type Result struct {
	Segments []segment.Segment

	// LdSections contains one linker fragment per segment in config order,
	// the order determines the section order of the generated script.
	LdSections []string

	// LdSymbols maps published symbol names to addresses in first
	// definition order.
	LdSymbols *segment.SymbolMap

	// Defined contains every global label some code segment emitted.
	Defined set.Set[string]

	// Required contains every global label some code segment referenced
	// without defining it, in first seen order.
	Required []string

	Functions *symbols.Functions
	Variables *symbols.Variables
}

// New creates a new split engine.
func New(logger *log.Logger, opts *options.Split) *Engine {
	return &Engine{
		logger: logger,
		opts:   opts,
	}
}

// Run splits the ROM according to the config descriptors. Segments are
// processed strictly in config order, later segments observe the label state
// produced by earlier ones. After every segment has been split, the post
// split pass runs with the complete segment list visible. Any failure aborts
// the run, already written segment files are intentionally left in place to
// aid debugging.
func (e *Engine) Run(rom []byte, cfg *config.Config, outDir string) (*Result, error) {
	funcs, err := symbols.GatherFunctions(outDir)
	if err != nil {
		return nil, fmt.Errorf("gathering functions: %w", err)
	}
	vars, err := symbols.GatherVariables(outDir)
	if err != nil {
		return nil, fmt.Errorf("gathering variables: %w", err)
	}

	segments, err := e.constructSegments(cfg)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Segments:  segments,
		LdSymbols: segment.NewSymbolMap(),
		Defined:   set.New[string](),
		Functions: funcs,
		Variables: vars,
	}

	if err := e.splitSegments(rom, outDir, result); err != nil {
		return nil, err
	}

	for _, seg := range segments {
		if err := seg.PostSplit(segments); err != nil {
			return nil, fmt.Errorf("post splitting segment %s: %w", seg.Descriptor().Name, err)
		}
	}

	return result, nil
}

// constructSegments resolves and instantiates all segments before any
// extraction side effect. Unknown kind tags and duplicate names of unique
// name requiring kinds fail here.
func (e *Engine) constructSegments(cfg *config.Config) ([]segment.Segment, error) {
	segments := make([]segment.Segment, 0, len(cfg.Descriptors))
	seenNames := set.New[string]()

	for _, desc := range cfg.Descriptors {
		k, err := resolveKind(desc.Kind)
		if err != nil {
			return nil, fmt.Errorf("segment %s: %w", desc.Name, err)
		}

		if k.requireUniqueName {
			if seenNames.Contains(desc.Name) {
				return nil, fmt.Errorf("segment name %s is not unique", desc.Name)
			}
			seenNames.Add(desc.Name)
		}

		seg, err := k.construct(desc, e.opts)
		if err != nil {
			return nil, fmt.Errorf("constructing segment %s: %w", desc.Name, err)
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// splitSegments runs the split pass. The engine owns the accumulated label
// state, code segments receive a read view of the defined labels before
// splitting and return their deltas to be folded afterwards.
func (e *Engine) splitSegments(rom []byte, outDir string, result *Result) error {
	requiredSeen := set.New[string]()

	for _, seg := range result.Segments {
		desc := seg.Descriptor()

		if code, ok := seg.(segment.CodeSegment); ok {
			code.InjectSymbols(result.Defined, result.Functions, result.Variables)
		}

		if e.opts.Verbose {
			e.logger.Info("Splitting segment",
				log.String("kind", desc.Kind),
				log.String("name", desc.Name),
				log.Hex("start", desc.RomStart))
		}

		if err := seg.Check(len(rom)); err != nil {
			return fmt.Errorf("checking segment %s: %w", desc.Name, err)
		}
		if err := seg.Split(rom, outDir); err != nil {
			return fmt.Errorf("splitting segment %s: %w", desc.Name, err)
		}

		if code, ok := seg.(segment.CodeSegment); ok {
			for _, name := range code.DefinedLabels() {
				result.Defined.Add(name)
			}
			for _, name := range code.RequiredLabels() {
				if requiredSeen.Contains(name) {
					continue
				}
				requiredSeen.Add(name)
				result.Required = append(result.Required, name)
			}
		}

		section, published := seg.LinkerSection()
		for _, sym := range published {
			section += fmt.Sprintf("%s = 0x%X;\n", sym.Name, sym.Address)
			result.LdSymbols.Set(sym.Name, sym.Address)
		}
		result.LdSections = append(result.LdSections, section)
	}
	return nil
}
