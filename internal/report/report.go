// Package report reconciles function labels that were referenced but never
// defined by any segment and writes the undefined function report.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/set"
)

// ReportFile is the name of the undefined function report. The file is only
// created when there is something to report, its absence means that every
// referenced function was resolved.
const ReportFile = "undefined_funcs.txt"

const (
	placeholderPrefix = "func_"
	addressDigits     = 8
)

// Undefined returns one report line per referenced function that no segment
// defined and that the function table does not know by address, sorted by
// name for deterministic output. The address of each function is recovered
// from the hex digits embedded in its placeholder name.
func Undefined(required []string, defined set.Set[string],
	knownAddresses set.Set[uint32]) ([]string, error) {

	var names []string
	for _, name := range required {
		if defined.Contains(name) {
			continue
		}

		address, err := recoverAddress(name)
		if err != nil {
			return nil, err
		}
		if knownAddresses.Contains(address) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		address := strings.ToUpper(name[len(placeholderPrefix) : len(placeholderPrefix)+addressDigits])
		lines = append(lines, fmt.Sprintf("%s = 0x%s;", name, address))
	}
	return lines, nil
}

// Write writes the report lines to the output directory with line feed line
// endings. No file is created when there is nothing to report.
func Write(outDir string, lines []string) error {
	if len(lines) == 0 {
		return nil
	}

	fileName := filepath.Join(outDir, ReportFile)
	content := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(fileName, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing report %s: %w", fileName, err)
	}
	return nil
}

// recoverAddress extracts the address embedded in a placeholder name of the
// shape "func_" followed by 8 hex digits. The naming convention is produced
// by the code segment kind, any deviation is a parse error.
func recoverAddress(name string) (uint32, error) {
	if !strings.HasPrefix(name, placeholderPrefix) ||
		len(name) != len(placeholderPrefix)+addressDigits {
		return 0, fmt.Errorf("undefined function '%s' does not follow the placeholder naming convention", name)
	}

	address, err := strconv.ParseUint(name[len(placeholderPrefix):], 16, 32)
	if err != nil {
		return 0, fmt.Errorf("undefined function '%s' does not follow the placeholder naming convention", name)
	}
	return uint32(address), nil
}
