package main

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/secretimage-mcp/internal/config"
	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
)

func writeCover(t *testing.T, dir string, size int) string {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x*17 + y*5)})
		}
	}
	path := filepath.Join(dir, "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

func TestRun_PackUnpack(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir, 10)
	packed := filepath.Join(dir, "cover.packed")
	restored := filepath.Join(dir, "restored.png")
	cfg := config.Default()

	require.NoError(t, run([]string{"pack", "-input", cover, "-output", packed}, cfg, &bytes.Buffer{}))
	require.NoError(t, run([]string{"unpack", "-input", packed, "-output", restored}, cfg, &bytes.Buffer{}))

	want, err := imaging.LoadGrid(cover)
	require.NoError(t, err)
	got, err := imaging.LoadGrid(restored)
	require.NoError(t, err)
	assert.True(t, want.Equal(got))
}

func TestRun_EmbedExtract(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir, 12)
	packed := filepath.Join(dir, "secret.packed")
	cfg := config.Default()

	require.NoError(t, run([]string{"embed", "-input", cover, "-output", packed, "-text", "hello"}, cfg, &bytes.Buffer{}))

	var out bytes.Buffer
	require.NoError(t, run([]string{"extract", "-input", packed, "-length", "5"}, cfg, &out))
	assert.Equal(t, "hello\n", out.String())

	out.Reset()
	require.NoError(t, run([]string{"extract", "-input", packed, "-length", "1", "-bits"}, cfg, &out))
	assert.Equal(t, "1101111\n", out.String()) // 'o', the last character
}

func TestRun_FilterInPlace(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir, 9)
	packed := filepath.Join(dir, "cover.packed")
	cfg := config.Default()

	require.NoError(t, run([]string{"pack", "-input", cover, "-output", packed}, cfg, &bytes.Buffer{}))
	require.NoError(t, run([]string{"filter", "-input", packed, "-filter", "gaussian"}, cfg, &bytes.Buffer{}))

	p, err := secret.LoadFile(packed)
	require.NoError(t, err)
	assert.Equal(t, 9, p.Height())
}

func TestRun_Errors(t *testing.T) {
	dir := t.TempDir()
	cover := writeCover(t, dir, 4)
	cfg := config.Default()

	err := run(nil, cfg, &bytes.Buffer{})
	assert.EqualError(t, err, usage)

	err = run([]string{"resize"}, cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "unknown subcommand")

	err = run([]string{"pack", "-input", cover}, cfg, &bytes.Buffer{})
	assert.ErrorIs(t, err, errUsage)

	err = run([]string{"embed", "-input", cover, "-output", filepath.Join(dir, "x.packed"), "-text", "abc"}, cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "capacity")

	err = run([]string{"extract", "-input", cover, "-length", "9223372036854775807"}, cfg, &bytes.Buffer{})
	assert.ErrorContains(t, err, "capacity")

	err = run([]string{"filter", "-input", filepath.Join(dir, "missing.packed")}, cfg, &bytes.Buffer{})
	assert.Error(t, err)
}
