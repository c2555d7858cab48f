// Package bin implements the raw binary segment kind, the segment bytes are
// copied unmodified into the output directory.
package bin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
)

// Segment extracts a raw binary range of the ROM.
type Segment struct {
	desc *segment.Descriptor
	opts *options.Split
}

// New creates a new raw binary segment.
func New(desc *segment.Descriptor, opts *options.Split) (segment.Segment, error) {
	return &Segment{
		desc: desc,
		opts: opts,
	}, nil
}

// Descriptor returns the segment descriptor.
func (s *Segment) Descriptor() *segment.Descriptor {
	return s.desc
}

// Check validates the segment range against the ROM.
func (s *Segment) Check(romSize int) error {
	return s.desc.CheckRange(romSize)
}

// Split writes the raw segment bytes to bin/<name>.bin.
func (s *Segment) Split(rom []byte, outDir string) error {
	dir := filepath.Join(outDir, "bin")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	fileName := filepath.Join(dir, s.desc.Name+".bin")
	data := rom[s.desc.RomStart:s.desc.RomEnd]
	if err := os.WriteFile(fileName, data, 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", fileName, err)
	}
	return nil
}

// PostSplit does nothing for raw binary segments.
func (s *Segment) PostSplit(_ []segment.Segment) error {
	return nil
}

// LinkerSection returns the linker fragment placing the binary as data and
// publishes the ROM range of the segment.
func (s *Segment) LinkerSection() (string, []segment.SymbolAssignment) {
	section := fmt.Sprintf(".%s :\n{\n    build/bin/%s.bin.o(.data);\n}\n",
		s.desc.Name, s.desc.Name)

	symbols := []segment.SymbolAssignment{
		{Name: s.desc.Name + "_ROM_START", Address: s.desc.RomStart},
		{Name: s.desc.Name + "_ROM_END", Address: s.desc.RomEnd},
	}
	return section, symbols
}
