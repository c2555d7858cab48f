package header

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
	"github.com/retroenv/romsplit/internal/options"
	"github.com/retroenv/romsplit/internal/segment"
)

func TestHeaderSegment(t *testing.T) {
	opts := options.NewSplit([]string{options.ModeAll}, false)

	t.Run("split emits word directives", func(t *testing.T) {
		desc := &segment.Descriptor{
			Kind:     "header",
			Name:     "rom_header",
			RomStart: 0,
			RomEnd:   8,
		}
		seg, err := New(desc, opts)
		assert.NoError(t, err)

		dir := t.TempDir()
		rom := []byte{0x80, 0x37, 0x12, 0x40, 0x00, 0x00, 0x00, 0x0F}

		assert.NoError(t, seg.Check(len(rom)))
		assert.NoError(t, seg.Split(rom, dir))

		data, err := os.ReadFile(filepath.Join(dir, "asm", "rom_header.s"))
		assert.NoError(t, err)

		expected := ".section .data\n\nglabel rom_header\n" +
			".word 0x80371240\n.word 0x0000000F\n"
		assert.Equal(t, expected, string(data))
	})

	t.Run("unaligned trailing bytes", func(t *testing.T) {
		desc := &segment.Descriptor{
			Kind:     "header",
			Name:     "tail",
			RomStart: 0,
			RomEnd:   6,
		}
		seg, err := New(desc, opts)
		assert.NoError(t, err)

		dir := t.TempDir()
		rom := []byte{1, 2, 3, 4, 5, 6}

		assert.NoError(t, seg.Split(rom, dir))

		data, err := os.ReadFile(filepath.Join(dir, "asm", "tail.s"))
		assert.NoError(t, err)

		expected := ".section .data\n\nglabel tail\n" +
			".word 0x01020304\n.byte 0x05\n.byte 0x06\n"
		assert.Equal(t, expected, string(data))
	})

	t.Run("linker section", func(t *testing.T) {
		desc := &segment.Descriptor{Kind: "header", Name: "rom_header"}
		seg, err := New(desc, opts)
		assert.NoError(t, err)

		section, published := seg.LinkerSection()
		assert.Equal(t, ".rom_header :\n{\n    build/asm/rom_header.s.o(.data);\n}\n", section)
		assert.Equal(t, 0, len(published))
	})
}
