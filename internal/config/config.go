// Package config handles application configuration and the split config file.
package config

import (
	"fmt"
	"os"

	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/romsplit/internal/segment"
	"gopkg.in/yaml.v3"
)

// CreateLogger creates a logger with appropriate settings
func CreateLogger(debug, quiet bool) *log.Logger {
	cfg := log.DefaultConfig()
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

// Config is the parsed and validated split config.
type Config struct {
	Basename string
	Options  Options

	// Descriptors contains one entry per segment to extract, in config
	// order. The end sentinel of the config is already consumed, every
	// descriptor carries its resolved end address.
	Descriptors []*segment.Descriptor
}

// Options contains the optional settings of the split config.
type Options struct {
	LdAddrsHeader string `yaml:"ld_addrs_header"`
}

type rawConfig struct {
	Basename string      `yaml:"basename"`
	Options  Options     `yaml:"options"`
	Segments []yaml.Node `yaml:"segments"`
}

// rawSegment is the mapping form of a segment entry. The sequence form
// [start, kind, name, vram] maps to the same fields.
type rawSegment struct {
	Start *uint32 `yaml:"start"`
	Type  string  `yaml:"type"`
	Name  string  `yaml:"name"`
	Vram  uint32  `yaml:"vram"`
}

// Load reads and validates a split config file. Descriptor order is
// load bearing: starts have to be strictly increasing, the end address of
// every segment is the start of its successor and the final entry only
// supplies the last end boundary.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	var raw rawConfig
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if raw.Basename == "" {
		return nil, fmt.Errorf("config %s: missing basename", path)
	}
	if len(raw.Segments) < 2 {
		return nil, fmt.Errorf("config %s: at least one segment and the end sentinel are required", path)
	}

	entries := make([]rawSegment, 0, len(raw.Segments))
	for i, node := range raw.Segments {
		entry, err := parseSegmentNode(node)
		if err != nil {
			return nil, fmt.Errorf("config %s segment %d: %w", path, i, err)
		}
		entries = append(entries, entry)
	}

	cfg := &Config{
		Basename: raw.Basename,
		Options:  raw.Options,
	}
	if err := cfg.buildDescriptors(entries); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) buildDescriptors(entries []rawSegment) error {
	for i, entry := range entries {
		last := i == len(entries)-1

		if entry.Start == nil {
			return fmt.Errorf("segment %d: missing start address", i)
		}
		if i > 0 && *entry.Start <= *entries[i-1].Start {
			return fmt.Errorf("segment %d: start 0x%X does not increase over predecessor 0x%X",
				i, *entry.Start, *entries[i-1].Start)
		}
		if last {
			// end sentinel, supplies the final end boundary only
			continue
		}
		if entry.Type == "" || entry.Name == "" {
			return fmt.Errorf("segment %d: missing kind or name", i)
		}

		c.Descriptors = append(c.Descriptors, &segment.Descriptor{
			Kind:      entry.Type,
			Name:      entry.Name,
			RomStart:  *entry.Start,
			RomEnd:    *entries[i+1].Start,
			VramStart: entry.Vram,
		})
	}
	return nil
}

// parseSegmentNode accepts the compact sequence form [start, kind, name] with
// an optional trailing vram address, and the mapping form with explicit keys.
func parseSegmentNode(node yaml.Node) (rawSegment, error) {
	var entry rawSegment

	switch node.Kind {
	case yaml.SequenceNode:
		content := node.Content
		if len(content) == 0 || len(content) > 4 {
			return entry, fmt.Errorf("sequence entry has %d fields, expected 1 to 4", len(content))
		}

		var start uint32
		if err := content[0].Decode(&start); err != nil {
			return entry, fmt.Errorf("decoding start address: %w", err)
		}
		entry.Start = &start

		if len(content) > 1 {
			if err := content[1].Decode(&entry.Type); err != nil {
				return entry, fmt.Errorf("decoding kind: %w", err)
			}
		}
		if len(content) > 2 {
			if err := content[2].Decode(&entry.Name); err != nil {
				return entry, fmt.Errorf("decoding name: %w", err)
			}
		}
		if len(content) > 3 {
			if err := content[3].Decode(&entry.Vram); err != nil {
				return entry, fmt.Errorf("decoding vram address: %w", err)
			}
		}
		return entry, nil

	case yaml.MappingNode:
		if err := node.Decode(&entry); err != nil {
			return entry, fmt.Errorf("decoding mapping entry: %w", err)
		}
		return entry, nil

	default:
		return entry, fmt.Errorf("unsupported entry node kind %d", node.Kind)
	}
}
