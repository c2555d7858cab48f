// Package segment defines the segment descriptor and the contract that all
// segment kind implementations fulfill.
package segment

import (
	"fmt"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/romsplit/internal/symbols"
)

// Descriptor describes one segment of the ROM as derived from config order.
// The end address of a segment is the start address of its successor, the
// last config entry only exists to supply the final end boundary.
type Descriptor struct {
	Kind string // kind tag selecting the segment implementation
	Name string

	RomStart uint32
	RomEnd   uint32

	// VramStart is the address the segment is mapped to at runtime,
	// only meaningful for code segments.
	VramStart uint32
}

// Size returns the segment size in bytes.
func (d *Descriptor) Size() uint32 {
	return d.RomEnd - d.RomStart
}

// CheckRange validates the descriptor range against the ROM size.
func (d *Descriptor) CheckRange(romSize int) error {
	if d.RomEnd < d.RomStart {
		return fmt.Errorf("segment %s: end 0x%X before start 0x%X", d.Name, d.RomEnd, d.RomStart)
	}
	if int(d.RomEnd) > romSize {
		return fmt.Errorf("segment %s: end 0x%X exceeds ROM size 0x%X", d.Name, d.RomEnd, romSize)
	}
	return nil
}

// VramEnd returns the end of the runtime address range of the segment.
func (d *Descriptor) VramEnd() uint32 {
	return d.VramStart + d.Size()
}

// RomOffset translates a runtime address inside the segment to its ROM offset.
func (d *Descriptor) RomOffset(vram uint32) uint32 {
	return d.RomStart + (vram - d.VramStart)
}

// SymbolAssignment is one symbol address pair a segment publishes for the
// linker script and the optional address header.
type SymbolAssignment struct {
	Name    string
	Address uint32
}

// Segment is the capability interface of one configured segment instance.
// Check and Split run in config order for all segments, PostSplit runs as a
// second pass once every segment has been split.
type Segment interface {
	Descriptor() *Descriptor

	// Check validates the descriptor against the ROM before any extraction.
	Check(romSize int) error

	// Split extracts the segment bytes below the output directory.
	Split(rom []byte, outDir string) error

	// PostSplit runs after all segments have been split with the complete
	// segment list visible, allowing cross segment references.
	PostSplit(all []Segment) error

	// LinkerSection returns the linker script fragment of the segment and
	// the symbol addresses it publishes.
	LinkerSection() (string, []SymbolAssignment)
}

// CodeSegment is implemented by code bearing segment kinds. The split engine
// injects the symbol tables and a read view of the labels defined by earlier
// segments before Split, and folds the returned label deltas afterwards.
type CodeSegment interface {
	Segment

	InjectSymbols(defined set.Set[string], funcs *symbols.Functions, vars *symbols.Variables)

	// DefinedLabels returns the global labels the segment emitted.
	DefinedLabels() []string

	// RequiredLabels returns the global labels the segment references but
	// does not define locally.
	RequiredLabels() []string
}
