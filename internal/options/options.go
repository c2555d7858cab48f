// Package options contains the program options.
package options

import (
	"strings"

	"github.com/retroenv/retrogolib/set"
)

// Mode names selecting which output artifacts a run produces.
const (
	ModeAll = "all"
	ModeLd  = "ld"
)

// Program contains the command line options of the splitter.
type Program struct {
	Rom    string // path to the ROM image to split
	Config string // path to the split config file
	OutDir string // directory to extract the ROM into

	Modes string // comma separated list of output modes

	Debug bool
	Quiet bool
}

// ModeList returns the normalized list of output modes selected on the
// command line, defaulting to the umbrella "all" mode.
func (p Program) ModeList() []string {
	var modes []string
	for _, mode := range strings.Split(p.Modes, ",") {
		mode = strings.TrimSpace(mode)
		if mode != "" {
			modes = append(modes, strings.ToLower(mode))
		}
	}
	if len(modes) == 0 {
		modes = []string{ModeAll}
	}
	return modes
}

// Split contains the immutable per-run options shared by all components.
// It is constructed once and passed by reference, components do not mutate it.
type Split struct {
	Modes   set.Set[string]
	Verbose bool

	// LdAddrsHeader is the path of the symbol address header to generate,
	// relative to the output directory. Empty disables the header.
	LdAddrsHeader string
}

// NewSplit returns split options for the given modes.
func NewSplit(modes []string, verbose bool) *Split {
	s := &Split{
		Modes:   set.New[string](),
		Verbose: verbose,
	}
	for _, mode := range modes {
		s.Modes.Add(mode)
	}
	return s
}

// ModeEnabled returns whether the given output mode is active,
// either directly or through the umbrella "all" mode.
func (s *Split) ModeEnabled(mode string) bool {
	return s.Modes.Contains(mode) || s.Modes.Contains(ModeAll)
}
