package symbols

import (
	"fmt"
	"path/filepath"
	"strings"
)

const (
	variablesHeaderFile = "include/variables.h"
	undefinedSymsFile   = "undefined_syms.txt"
)

// Variables contains the merged variable symbol table of a project.
// Variables live in their own namespace, separate from functions, and have
// no explicit label concept.
type Variables struct {
	Names map[uint32]string
}

// GatherVariables builds the variable symbol table of the project directory.
// Both source files are optional, a missing file contributes no entries.
func GatherVariables(projectDir string) (*Variables, error) {
	vars := &Variables{
		Names: map[uint32]string{},
	}

	fileName := filepath.Join(projectDir, variablesHeaderFile)
	if err := readLines(fileName, vars.parseDeclarationLine); err != nil {
		return nil, fmt.Errorf("reading variable declarations: %w", err)
	}

	fileName = filepath.Join(projectDir, undefinedSymsFile)
	if err := readLines(fileName, vars.parseOverrideLine); err != nil {
		return nil, fmt.Errorf("reading undefined symbols: %w", err)
	}

	return vars, nil
}

// parseDeclarationLine parses one auto harvested declaration of the form
// "/* 0x8009A650 */ extern s32 gGameState[2];", the variable name being the
// last token truncated at the array bracket or statement terminator.
func (v *Variables) parseDeclarationLine(line string) error {
	if !strings.HasPrefix(line, addressCommentPrefix) {
		return nil
	}

	fields := strings.Fields(line)
	if len(fields) < 3 {
		return fmt.Errorf("declaration has %d fields, expected at least 3", len(fields))
	}

	address, err := parseAddress(fields[1])
	if err != nil {
		return err
	}

	nameToken := fields[len(fields)-1]
	index := strings.IndexAny(nameToken, "[;")
	if index < 0 {
		return fmt.Errorf("declaration token '%s' misses a terminator", nameToken)
	}

	v.Names[address] = nameToken[:index]
	return nil
}

// parseOverrideLine parses one manual "name = 0xADDRESS;" entry.
// Comment lines are skipped.
func (v *Variables) parseOverrideLine(line string) error {
	if strings.HasPrefix(line, "//") {
		return nil
	}

	fields := strings.SplitN(line, "=", 2)
	if len(fields) != 2 {
		return fmt.Errorf("entry '%s' is not equals delimited", line)
	}

	name := strings.TrimSpace(fields[0])
	addrToken := strings.TrimSuffix(strings.TrimSpace(fields[1]), ";")

	address, err := parseAddress(addrToken)
	if err != nil {
		return err
	}

	v.Names[address] = name
	return nil
}
