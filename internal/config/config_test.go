package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/retroenv/retrogolib/assert"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	fileName := filepath.Join(t.TempDir(), "split.yaml")
	assert.NoError(t, os.WriteFile(fileName, []byte(content), 0o644))
	return fileName
}

func TestLoad(t *testing.T) {
	t.Run("descriptor ranges from config order", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x1000, bin, data1]
  - [0x2000, bin, data2]
  - [0x3000]
`))
		assert.NoError(t, err)
		assert.Equal(t, "game", cfg.Basename)
		assert.Equal(t, 2, len(cfg.Descriptors))

		assert.Equal(t, uint32(0x1000), cfg.Descriptors[0].RomStart)
		assert.Equal(t, uint32(0x2000), cfg.Descriptors[0].RomEnd)
		assert.Equal(t, uint32(0x2000), cfg.Descriptors[1].RomStart)
		assert.Equal(t, uint32(0x3000), cfg.Descriptors[1].RomEnd)
	})

	t.Run("sequence entry with vram address", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x1000, code, boot, 0x80025C00]
  - [0x2000]
`))
		assert.NoError(t, err)
		assert.Equal(t, 1, len(cfg.Descriptors))
		assert.Equal(t, "code", cfg.Descriptors[0].Kind)
		assert.Equal(t, "boot", cfg.Descriptors[0].Name)
		assert.Equal(t, uint32(0x80025C00), cfg.Descriptors[0].VramStart)
	})

	t.Run("mapping entry form", func(t *testing.T) {
		cfg, err := Load(writeConfig(t, `
basename: game
options:
  ld_addrs_header: include/ld_addrs.h
segments:
  - start: 0x1000
    type: header
    name: rom_header
  - start: 0x1040
`))
		assert.NoError(t, err)
		assert.Equal(t, "include/ld_addrs.h", cfg.Options.LdAddrsHeader)
		assert.Equal(t, 1, len(cfg.Descriptors))
		assert.Equal(t, "header", cfg.Descriptors[0].Kind)
		assert.Equal(t, uint32(0x1040), cfg.Descriptors[0].RomEnd)
	})

	t.Run("out of order starts are rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x2000, bin, data1]
  - [0x1000, bin, data2]
  - [0x3000]
`))
		assert.Error(t, err)
	})

	t.Run("zero length range is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x1000, bin, data1]
  - [0x1000]
`))
		assert.Error(t, err)
	})

	t.Run("missing basename is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
segments:
  - [0x1000, bin, data1]
  - [0x2000]
`))
		assert.Error(t, err)
	})

	t.Run("sentinel only config is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x1000]
`))
		assert.Error(t, err)
	})

	t.Run("missing kind or name is rejected", func(t *testing.T) {
		_, err := Load(writeConfig(t, `
basename: game
segments:
  - [0x1000, bin]
  - [0x2000]
`))
		assert.Error(t, err)
	})
}
