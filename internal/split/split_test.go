package split

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/retrogolib/log"
	"github.com/retroenv/romsplit/internal/config"
	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
)

func jal(target uint32) uint32 {
	return 0x03<<26 | target>>2&0x03FF_FFFF
}

func words(values ...uint32) []byte {
	data := make([]byte, len(values)*4)
	for i, value := range values {
		binary.BigEndian.PutUint32(data[i*4:], value)
	}
	return data
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	opts := options.NewSplit([]string{options.ModeAll}, false)
	return New(log.NewTestLogger(t), opts)
}

func TestEngineRun(t *testing.T) {
	t.Run("descriptor order determines segment ranges", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "bin", Name: "data1", RomStart: 0x1000, RomEnd: 0x2000},
				{Kind: "bin", Name: "data2", RomStart: 0x2000, RomEnd: 0x3000},
			},
		}
		rom := make([]byte, 0x3000)
		outDir := t.TempDir()

		result, err := newTestEngine(t).Run(rom, cfg, outDir)
		assert.NoError(t, err)
		assert.Equal(t, 2, len(result.Segments))
		assert.Equal(t, 2, len(result.LdSections))

		data1, err := os.ReadFile(filepath.Join(outDir, "bin", "data1.bin"))
		assert.NoError(t, err)
		assert.Equal(t, 0x1000, len(data1))

		data2, err := os.ReadFile(filepath.Join(outDir, "bin", "data2.bin"))
		assert.NoError(t, err)
		assert.Equal(t, 0x1000, len(data2))
	})

	t.Run("unknown kind fails before any side effect", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "bin", Name: "data1", RomStart: 0, RomEnd: 0x10},
				{Kind: "overlay", Name: "ovl1", RomStart: 0x10, RomEnd: 0x20},
			},
		}
		outDir := t.TempDir()

		_, err := newTestEngine(t).Run(make([]byte, 0x20), cfg, outDir)
		assert.Error(t, err)

		_, statErr := os.Stat(filepath.Join(outDir, "bin", "data1.bin"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("duplicate unique name aborts before splitting", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "code", Name: "main", RomStart: 0, RomEnd: 0x10, VramStart: 0x80001000},
				{Kind: "code", Name: "main", RomStart: 0x10, RomEnd: 0x20, VramStart: 0x80002000},
			},
		}
		outDir := t.TempDir()

		_, err := newTestEngine(t).Run(make([]byte, 0x20), cfg, outDir)
		assert.Error(t, err)
		assert.ErrorContains(t, err, "not unique")

		_, statErr := os.Stat(filepath.Join(outDir, "asm", "main.s"))
		assert.True(t, os.IsNotExist(statErr))
	})

	t.Run("duplicate names are allowed for bin segments", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "bin", Name: "data", RomStart: 0, RomEnd: 0x10},
				{Kind: "bin", Name: "data", RomStart: 0x10, RomEnd: 0x20},
			},
		}

		_, err := newTestEngine(t).Run(make([]byte, 0x20), cfg, t.TempDir())
		assert.NoError(t, err)
	})

	t.Run("label state threads across code segments", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "code", Name: "boot", RomStart: 0, RomEnd: 0x10, VramStart: 0x80001000},
				{Kind: "code", Name: "main", RomStart: 0x10, RomEnd: 0x20, VramStart: 0x80002000},
			},
		}
		rom := append(
			// boot discovers func_80001008 through an in range call
			words(jal(0x80001008), 0, 0, 0),
			// main resolves func_80001008 through the shared defined set,
			// the second target stays unresolved
			words(jal(0x80001008), jal(0x80003000), 0, 0)...)

		result, err := newTestEngine(t).Run(rom, cfg, t.TempDir())
		assert.NoError(t, err)

		assert.True(t, result.Defined.Contains("func_80001000"))
		assert.True(t, result.Defined.Contains("func_80001008"))
		assert.True(t, result.Defined.Contains("func_80002000"))
		assert.Equal(t, []string{"func_80003000"}, result.Required)
	})

	t.Run("linker fragments and symbols in config order", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "code", Name: "boot", RomStart: 0, RomEnd: 0x10, VramStart: 0x80001000},
				{Kind: "bin", Name: "data", RomStart: 0x10, RomEnd: 0x20},
			},
		}

		result, err := newTestEngine(t).Run(make([]byte, 0x20), cfg, t.TempDir())
		assert.NoError(t, err)

		assert.Equal(t, []string{
			"boot_TEXT_START", "boot_TEXT_END",
			"data_ROM_START", "data_ROM_END",
		}, result.LdSymbols.Names())

		// published symbol assignments are appended to the fragment
		assert.Contains(t, result.LdSections[0], "boot_TEXT_START = 0x80001000;\n")
		assert.Contains(t, result.LdSections[1], "data_ROM_START = 0x10;\n")
	})

	t.Run("failing check aborts the run", func(t *testing.T) {
		cfg := &config.Config{
			Basename: "game",
			Descriptors: []*segment.Descriptor{
				{Kind: "bin", Name: "data", RomStart: 0, RomEnd: 0x100},
			},
		}

		_, err := newTestEngine(t).Run(make([]byte, 0x20), cfg, t.TempDir())
		assert.Error(t, err)
	})
}
