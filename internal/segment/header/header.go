// Package header implements the header segment kind, the segment bytes are
// emitted as word directives so the header stays editable as assembly.
package header

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
)

// Segment extracts a ROM header as assembly word directives.
type Segment struct {
	desc *segment.Descriptor
	opts *options.Split
}

// New creates a new header segment.
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

// Split writes the header bytes as assembly to asm/<name>.s.
func (s *Segment) Split(rom []byte, outDir string) error {
	dir := filepath.Join(outDir, "asm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data := rom[s.desc.RomStart:s.desc.RomEnd]
	buf := &strings.Builder{}
	fmt.Fprintf(buf, ".section .data\n\nglabel %s\n", s.desc.Name)

	words := len(data) / 4
	for i := range words {
		word := binary.BigEndian.Uint32(data[i*4:])
		fmt.Fprintf(buf, ".word 0x%08X\n", word)
	}
	// trailing bytes of an unaligned header are kept as single bytes
	for _, b := range data[words*4:] {
		fmt.Fprintf(buf, ".byte 0x%02X\n", b)
	}

	fileName := filepath.Join(dir, s.desc.Name+".s")
	if err := os.WriteFile(fileName, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", fileName, err)
	}
	return nil
}

// PostSplit does nothing for header segments.
func (s *Segment) PostSplit(_ []segment.Segment) error {
	return nil
}

// LinkerSection returns the linker fragment of the header segment.
func (s *Segment) LinkerSection() (string, []segment.SymbolAssignment) {
	section := fmt.Sprintf(".%s :\n{\n    build/asm/%s.s.o(.data);\n}\n",
		s.desc.Name, s.desc.Name)
	return section, nil
}
