// Package symbols gathers symbol name and address information for a split
// project from auto generated headers and manually curated override files.
package symbols

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/set"
)

const (
	functionsHeaderFile = "include/functions.h"
	symbolAddrsFile     = "tools/symbol_addrs.txt"

	// addressCommentPrefix marks auto harvested declaration lines.
	addressCommentPrefix = "/* 0x"
	// explicitLabelFlag marks functions whose global label has to be
	// emitted in the generated assembly even if it would normally be omitted.
	explicitLabelFlag = '!'

	addressCommentLen = 10 // "0x" followed by 8 hex digits
)

// Functions contains the merged function symbol table of a project.
type Functions struct {
	// Names maps a function address to its name. Manual overrides win
	// over auto harvested declarations at the same address.
	Names map[uint32]string

	// ExplicitLabels contains the names of all functions marked with the
	// explicit label flag in either source.
	ExplicitLabels set.Set[string]
}

// GatherFunctions builds the function symbol table of the project directory.
// Both source files are optional, a missing file contributes no entries.
func GatherFunctions(projectDir string) (*Functions, error) {
	funcs := &Functions{
		Names:          map[uint32]string{},
		ExplicitLabels: set.New[string](),
	}

	fileName := filepath.Join(projectDir, functionsHeaderFile)
	if err := readLines(fileName, funcs.parseDeclarationLine); err != nil {
		return nil, fmt.Errorf("reading function declarations: %w", err)
	}

	fileName = filepath.Join(projectDir, symbolAddrsFile)
	if err := readLines(fileName, funcs.parseOverrideLine); err != nil {
		return nil, fmt.Errorf("reading function address overrides: %w", err)
	}

	return funcs, nil
}

// parseDeclarationLine parses one auto harvested declaration of the form
// "/* 0x80025C00! */ void func(...);" where the optional flag character
// after the address requests an explicit label.
func (f *Functions) parseDeclarationLine(line string) error {
	if !strings.HasPrefix(line, addressCommentPrefix) {
		return nil
	}

	fields := strings.Fields(line)
	if len(fields) < 5 {
		return fmt.Errorf("declaration has %d fields, expected at least 5", len(fields))
	}

	addrComment := fields[1]
	if len(addrComment) < addressCommentLen {
		return fmt.Errorf("address comment '%s' is too short", addrComment)
	}
	address, err := parseAddress(addrComment[:addressCommentLen])
	if err != nil {
		return err
	}

	nameToken := fields[4]
	index := strings.IndexByte(nameToken, '(')
	if index < 0 {
		return fmt.Errorf("declaration token '%s' misses the parameter list", nameToken)
	}
	name := nameToken[:index]

	if len(addrComment) > addressCommentLen && addrComment[addressCommentLen] == explicitLabelFlag {
		f.ExplicitLabels.Add(name)
	}

	f.Names[address] = name
	return nil
}

// parseOverrideLine parses one manual "name;address;" override entry.
// Overrides are applied after the auto harvested source and win on
// address collision.
func (f *Functions) parseOverrideLine(line string) error {
	fields := strings.Split(line, ";")
	if len(fields) < 2 {
		return fmt.Errorf("override '%s' is not semicolon delimited", line)
	}

	name := fields[0]
	if strings.HasPrefix(name, string(explicitLabelFlag)) {
		name = name[1:]
		f.ExplicitLabels.Add(name)
	}

	address, err := parseAddress(fields[1])
	if err != nil {
		return err
	}

	f.Names[address] = name
	return nil
}

// KnownAddresses returns the set of all addresses present in the table.
func (f *Functions) KnownAddresses() set.Set[uint32] {
	known := set.New[uint32]()
	for address := range f.Names {
		known.Add(address)
	}
	return known
}

// readLines calls the parser for every line of the file. A missing file is
// not an error, a parser error aborts with file and line context.
func readLines(fileName string, parse func(line string) error) error {
	data, err := os.ReadFile(fileName)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading file %s: %w", fileName, err)
	}

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if err := parse(line); err != nil {
			return fmt.Errorf("parsing %s line %d: %w", fileName, i+1, err)
		}
	}
	return nil
}

// parseAddress parses a base aware address token, supporting the 0x prefix.
func parseAddress(token string) (uint32, error) {
	address, err := strconv.ParseUint(token, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("parsing address '%s': %w", token, err)
	}
	return uint32(address), nil
}
