// Package code implements the code segment kind. The segment is extracted as
// a relocatable assembly skeleton: a global label for every function known to
// live inside the segment and incbin slices for the instruction bytes in
// between. Call instructions are scanned to discover functions and to record
// references to labels that no segment defines.
package code

import (
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/retroenv/retrogolib/set"
	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
	"github.com/retroenv/romsplit/internal/symbols"
)

const (
	callOpcode     = 0x03 // jal
	opcodeShift    = 26
	callTargetMask = 0x03FF_FFFF
	regionMask     = 0xF000_0000
)

// Segment extracts a code bearing range of the ROM.
type Segment struct {
	desc *segment.Descriptor
	opts *options.Split

	// injected by the split engine before Split runs
	defined set.Set[string]
	funcs   *symbols.Functions
	vars    *symbols.Variables

	definedLabels  []string
	requiredLabels []string
}

// New creates a new code segment.
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

// InjectSymbols provides the symbol tables and a read view of the global
// labels defined by segments that were split earlier in the run.
func (s *Segment) InjectSymbols(defined set.Set[string], funcs *symbols.Functions,
	vars *symbols.Variables) {

	s.defined = defined
	s.funcs = funcs
	s.vars = vars
}

// Check validates the segment range against the ROM.
func (s *Segment) Check(romSize int) error {
	if err := s.desc.CheckRange(romSize); err != nil {
		return err
	}
	if s.desc.VramStart == 0 {
		return fmt.Errorf("code segment %s: missing vram address", s.desc.Name)
	}
	if s.desc.Size()%4 != 0 {
		return fmt.Errorf("code segment %s: size 0x%X is not word aligned", s.desc.Name, s.desc.Size())
	}
	return nil
}

// Split writes the raw segment bytes to asm/<name>.bin and the assembly
// skeleton referencing them to asm/<name>.s.
func (s *Segment) Split(rom []byte, outDir string) error {
	dir := filepath.Join(outDir, "asm")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	data := rom[s.desc.RomStart:s.desc.RomEnd]

	binFile := filepath.Join(dir, s.desc.Name+".bin")
	if err := os.WriteFile(binFile, data, 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", binFile, err)
	}

	labels := s.collectLabels(data)
	externs := s.collectVariablePointers(data)

	asmFile := filepath.Join(dir, s.desc.Name+".s")
	content := s.renderAssembly(labels, externs)
	if err := os.WriteFile(asmFile, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing file %s: %w", asmFile, err)
	}

	for _, address := range sortedAddresses(labels) {
		s.definedLabels = append(s.definedLabels, labels[address])
	}
	return nil
}

// collectLabels determines all function labels of the segment: functions the
// symbol table places inside the vram range, the segment entry point and any
// in range call target. Call targets outside the range that no symbol table
// entry and no earlier segment covers are recorded as required labels.
func (s *Segment) collectLabels(data []byte) map[uint32]string {
	labels := map[uint32]string{}
	for address, name := range s.funcs.Names {
		if address >= s.desc.VramStart && address < s.desc.VramEnd() {
			labels[address] = name
		}
	}
	if _, ok := labels[s.desc.VramStart]; !ok {
		labels[s.desc.VramStart] = placeholderName(s.desc.VramStart)
	}

	required := set.New[string]()

	for i := 0; i+4 <= len(data); i += 4 {
		word := binary.BigEndian.Uint32(data[i:])
		if word>>opcodeShift != callOpcode {
			continue
		}
		target := s.desc.VramStart&regionMask | (word&callTargetMask)<<2

		if target >= s.desc.VramStart && target < s.desc.VramEnd() {
			if _, ok := labels[target]; !ok {
				labels[target] = placeholderName(target)
			}
			continue
		}

		name, known := s.funcs.Names[target]
		if known {
			// resolvable through the function table
			continue
		}
		name = placeholderName(target)
		if s.defined.Contains(name) || required.Contains(name) {
			continue
		}
		required.Add(name)
		s.requiredLabels = append(s.requiredLabels, name)
	}

	return labels
}

// collectVariablePointers scans for words whose value matches a known
// variable address, those are emitted as extern declarations.
func (s *Segment) collectVariablePointers(data []byte) []segment.SymbolAssignment {
	seen := set.New[uint32]()
	var externs []segment.SymbolAssignment

	for i := 0; i+4 <= len(data); i += 4 {
		word := binary.BigEndian.Uint32(data[i:])
		name, ok := s.vars.Names[word]
		if !ok || seen.Contains(word) {
			continue
		}
		seen.Add(word)
		externs = append(externs, segment.SymbolAssignment{Name: name, Address: word})
	}
	return externs
}

func (s *Segment) renderAssembly(labels map[uint32]string,
	externs []segment.SymbolAssignment) string {

	buf := &strings.Builder{}
	buf.WriteString(".include \"macro.inc\"\n\n")

	for _, extern := range externs {
		fmt.Fprintf(buf, ".extern %s, 0x%08X\n", extern.Name, extern.Address)
	}
	if len(externs) > 0 {
		buf.WriteString("\n")
	}

	buf.WriteString(".section .text\n")

	addresses := sortedAddresses(labels)
	for i, address := range addresses {
		name := labels[address]
		end := s.desc.VramEnd()
		if i+1 < len(addresses) {
			end = addresses[i+1]
		}

		buf.WriteString("\n")
		if s.funcs.ExplicitLabels.Contains(name) {
			fmt.Fprintf(buf, ".global %s\n", name)
		}
		fmt.Fprintf(buf, "glabel %s\n", name)
		offset := address - s.desc.VramStart
		fmt.Fprintf(buf, ".incbin \"asm/%s.bin\", 0x%X, 0x%X\n",
			s.desc.Name, offset, end-address)
	}

	return buf.String()
}

// PostSplit does nothing for code segments, cross segment references are
// reconciled by the undefined function report.
func (s *Segment) PostSplit(_ []segment.Segment) error {
	return nil
}

// LinkerSection returns the linker fragment mapping the segment to its vram
// range and publishes the text range of the segment.
func (s *Segment) LinkerSection() (string, []segment.SymbolAssignment) {
	section := fmt.Sprintf(".%s 0x%X : AT(0x%X)\n{\n    build/asm/%s.s.o(.text);\n}\n",
		s.desc.Name, s.desc.VramStart, s.desc.RomStart, s.desc.Name)

	symbols := []segment.SymbolAssignment{
		{Name: s.desc.Name + "_TEXT_START", Address: s.desc.VramStart},
		{Name: s.desc.Name + "_TEXT_END", Address: s.desc.VramEnd()},
	}
	return section, symbols
}

// DefinedLabels returns the global labels the segment emitted.
func (s *Segment) DefinedLabels() []string {
	return s.definedLabels
}

// RequiredLabels returns the referenced labels the segment could not resolve.
func (s *Segment) RequiredLabels() []string {
	return s.requiredLabels
}

// placeholderName generates the conventional name of a function only known
// by address, the report recovers the address from this shape.
func placeholderName(address uint32) string {
	return fmt.Sprintf("func_%08x", address)
}

func sortedAddresses(labels map[uint32]string) []uint32 {
	addresses := make([]uint32, 0, len(labels))
	for address := range labels {
		addresses = append(addresses, address)
	}
	sort.Slice(addresses, func(i, j int) bool {
		return addresses[i] < addresses[j]
	})
	return addresses
}
