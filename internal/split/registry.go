package split

import (
	"fmt"

	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
	"github.com/retroenv/romsplit/internal/segment/bin"
	"github.com/retroenv/romsplit/internal/segment/code"
	"github.com/retroenv/romsplit/internal/segment/header"
)

type constructor func(*segment.Descriptor, *options.Split) (segment.Segment, error)

// kind bundles the constructor of a segment kind with its metadata.
type kind struct {
	construct         constructor
	requireUniqueName bool
}

// kinds is the closed registry of all supported segment kinds, resolved
// before any segment processing begins so that an unknown tag fails the run
// up front instead of mid split.
var kinds = map[string]kind{
	"bin":    {construct: bin.New},
	"header": {construct: header.New, requireUniqueName: true},
	"code":   {construct: code.New, requireUniqueName: true},
}

func resolveKind(tag string) (kind, error) {
	k, ok := kinds[tag]
	if !ok {
		return kind{}, fmt.Errorf("unknown segment kind '%s'", tag)
	}
	return k, nil
}
