// Package linker synthesizes the linker script and the optional symbol
// address header from the per segment fragments collected during a split.
package linker

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/retroenv/romsplit/internal/segment"
)

const includeGuard = "_ROMSPLIT_LD_ADDRS_H_"

// WriteScript writes all section fragments, in the order they were collected,
// as <basename>.ld into the output directory. The file uses line feed line
// endings only and indents continuation lines of every fragment.
func WriteScript(outDir, basename string, sections []string) error {
	buf := &strings.Builder{}
	buf.WriteString("SECTIONS\n{\n    ")

	indented := make([]string, 0, len(sections))
	for _, section := range sections {
		indented = append(indented, strings.ReplaceAll(section, "\n", "\n    "))
	}
	buf.WriteString(strings.Join(indented, "\n    "))
	buf.WriteString("\n}\n")

	fileName := filepath.Join(outDir, basename+".ld")
	if err := os.WriteFile(fileName, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("writing linker script %s: %w", fileName, err)
	}
	return nil
}

// WriteAddrsHeader writes one extern declaration and one address macro per
// published symbol, in first definition order, guarded by an include guard.
func WriteAddrsHeader(outDir, headerPath string, symbols *segment.SymbolMap) error {
	buf := &strings.Builder{}
	fmt.Fprintf(buf, "#ifndef %s\n#define %s\n\n", includeGuard, includeGuard)

	for _, name := range symbols.Names() {
		address, _ := symbols.Get(name)
		fmt.Fprintf(buf, "extern void* %s;\n", name)
		fmt.Fprintf(buf, "#define LD_%s 0x%X\n", name, address)
		buf.WriteString("\n")
	}

	buf.WriteString("#endif\n")

	fileName := filepath.Join(outDir, headerPath)
	if err := os.MkdirAll(filepath.Dir(fileName), 0o755); err != nil {
		return fmt.Errorf("creating header directory: %w", err)
	}
	if err := os.WriteFile(fileName, []byte(buf.String()), 0o644); err != nil {
		return fmt.Errorf("writing address header %s: %w", fileName, err)
	}
	return nil
}
