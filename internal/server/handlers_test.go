package server

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
)

// createTestImageFile writes a grayscale gradient PNG and returns its path.
func createTestImageFile(t *testing.T, width, height int) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*13 + y*29) % 256)})
		}
	}

	path := filepath.Join(t.TempDir(), "cover.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
	return path
}

// callTool sends a tools/call request through the request router.
func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	paramsJSON, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	require.NoError(t, err)

	resp := s.handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  paramsJSON,
	})
	require.NotNil(t, resp, "handleRequest returned nil")
	return resp
}

// decodeResult unpacks the JSON text content of a successful tool response into v.
func decodeResult(t *testing.T, resp *MCPResponse, v interface{}) {
	t.Helper()

	require.Nil(t, resp.Error, "unexpected error: %+v", resp.Error)
	result, ok := resp.Result.(map[string]interface{})
	require.True(t, ok, "Result should be a map")
	content, ok := result["content"].([]map[string]interface{})
	require.True(t, ok)
	require.Len(t, content, 1)
	text, _ := content[0]["text"].(string)
	require.NoError(t, json.Unmarshal([]byte(text), v), "tool result %q", text)
}

func requireToolError(t *testing.T, resp *MCPResponse, contains string) {
	t.Helper()

	require.NotNil(t, resp.Error, "expected error response")
	assert.Equal(t, -32000, resp.Error.Code)
	assert.Contains(t, fmt.Sprint(resp.Error.Data), contains)
}

func TestHandleToolsCall_ImageLoad(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 20, 20)

	var info imaging.GridInfo
	decodeResult(t, callTool(t, s, "image_load", map[string]interface{}{"path": imgPath}), &info)

	assert.Equal(t, 20, info.Width)
	assert.Equal(t, 20, info.Height)
	assert.True(t, info.Square)
	assert.Equal(t, 57, info.MessageCapacity)
	assert.Equal(t, "png", info.Format)
}

func TestHandleToolsCall_PackUnpackRoundTrip(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 16, 16)
	dir := t.TempDir()
	packedPath := filepath.Join(dir, "cover.packed")
	outPath := filepath.Join(dir, "restored.png")

	var packed PackedInfoResult
	decodeResult(t, callTool(t, s, "image_pack", map[string]interface{}{
		"path":   imgPath,
		"output": packedPath,
	}), &packed)
	assert.Equal(t, 136, packed.UpperSize)
	assert.Equal(t, 120, packed.LowerSize)

	var info PackedInfoResult
	decodeResult(t, callTool(t, s, "packed_info", map[string]interface{}{"path": packedPath}), &info)
	assert.Equal(t, packed, info)

	var unpacked UnpackResult
	decodeResult(t, callTool(t, s, "image_unpack", map[string]interface{}{
		"path":   packedPath,
		"output": outPath,
	}), &unpacked)
	assert.Equal(t, UnpackResult{Width: 16, Height: 16, Path: outPath}, unpacked)

	orig, err := imaging.LoadGrid(imgPath)
	require.NoError(t, err)
	restored, err := imaging.LoadGrid(outPath)
	require.NoError(t, err)
	assert.True(t, orig.Equal(restored), "unpacked image differs from original")

	var cmp CompareResult
	decodeResult(t, callTool(t, s, "image_compare", map[string]interface{}{
		"path1": imgPath,
		"path2": packedPath,
	}), &cmp)
	assert.True(t, cmp.Equal, "image and its packed form should compare equal: %+v", cmp)
}

func TestHandleToolsCall_PackErrors(t *testing.T) {
	s := New()
	square := createTestImageFile(t, 8, 8)
	wide := createTestImageFile(t, 20, 10)
	out := filepath.Join(t.TempDir(), "x.packed")

	requireToolError(t, callTool(t, s, "image_pack", map[string]interface{}{"path": wide, "output": out}), "dimension mismatch")
	requireToolError(t, callTool(t, s, "image_pack", map[string]interface{}{"path": square}), "output")

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "failed pack should not write output")
}

func TestHandleToolsCall_MessageEmbedExtract(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 24, 24)
	packedPath := filepath.Join(t.TempDir(), "secret.packed")

	var embed EmbedResult
	decodeResult(t, callTool(t, s, "message_embed", map[string]interface{}{
		"image_path": imgPath,
		"message":    "meet at noon",
		"output":     packedPath,
	}), &embed)

	// 576 - 84 = 492 = row 20, col 12
	assert.Equal(t, EmbedResult{Path: packedPath, Length: 12, Bits: 84, StartRow: 20, StartCol: 12}, embed)

	var extracted ExtractResult
	decodeResult(t, callTool(t, s, "message_extract", map[string]interface{}{
		"packed_path": packedPath,
		"length":      len("meet at noon"),
	}), &extracted)
	assert.Equal(t, "meet at noon", extracted.Message)
	assert.Len(t, extracted.Bits, 84)

	var cmp CompareResult
	decodeResult(t, callTool(t, s, "image_compare", map[string]interface{}{
		"path1": imgPath,
		"path2": packedPath,
	}), &cmp)
	assert.True(t, cmp.SameSize)
	assert.True(t, cmp.LSBOnly, "embedding should only touch LSBs")
	assert.LessOrEqual(t, cmp.DifferingPixels, 84)
}

func TestHandleToolsCall_MessageEmbedIntoPacked(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 12, 12)
	dir := t.TempDir()
	packedPath := filepath.Join(dir, "cover.packed")
	outPath := filepath.Join(dir, "secret.packed")

	decodeResult(t, callTool(t, s, "image_pack", map[string]interface{}{"path": imgPath, "output": packedPath}), &PackedInfoResult{})

	var embed EmbedResult
	decodeResult(t, callTool(t, s, "message_embed", map[string]interface{}{
		"packed_path": packedPath,
		"message":     "hi",
		"output":      outPath,
	}), &embed)

	p, err := secret.LoadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, 12, p.Height())

	var extracted ExtractResult
	decodeResult(t, callTool(t, s, "message_extract", map[string]interface{}{
		"packed_path": outPath,
		"length":      2,
	}), &extracted)
	assert.Equal(t, "hi", extracted.Message)
}

func TestHandleToolsCall_MessageErrors(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 4, 4)
	out := filepath.Join(t.TempDir(), "x.packed")

	tests := []struct {
		name     string
		tool     string
		args     map[string]interface{}
		contains string
	}{
		{"too long", "message_embed", map[string]interface{}{"image_path": imgPath, "message": "abc", "output": out}, "capacity"},
		{"not ascii", "message_embed", map[string]interface{}{"image_path": imgPath, "message": "é", "output": out}, "7-bit"},
		{"no source", "message_embed", map[string]interface{}{"message": "a", "output": out}, "missing required argument"},
		{"two sources", "message_extract", map[string]interface{}{"image_path": imgPath, "packed_path": out, "length": 1}, "only one"},
		{"extract too long", "message_extract", map[string]interface{}{"image_path": imgPath, "length": 3}, "capacity"},
		{"extract negative", "message_extract", map[string]interface{}{"image_path": imgPath, "length": -1}, "capacity"},
		{"extract length overflows", "message_extract", map[string]interface{}{"image_path": imgPath, "length": math.MaxInt/7 + 1}, "capacity"},
		{"extract max int", "message_extract", map[string]interface{}{"image_path": imgPath, "length": math.MaxInt}, "capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var resp *MCPResponse
			require.NotPanics(t, func() { resp = callTool(t, s, tt.tool, tt.args) })
			requireToolError(t, resp, tt.contains)
		})
	}

	_, err := os.Stat(out)
	assert.True(t, os.IsNotExist(err), "failed embed should not write output")
}

func TestHandleToolsCall_ImageFilter(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 16, 16)
	dir := t.TempDir()
	packedPath := filepath.Join(dir, "cover.packed")
	filteredPath := filepath.Join(dir, "filtered.packed")

	decodeResult(t, callTool(t, s, "image_pack", map[string]interface{}{"path": imgPath, "output": packedPath}), &PackedInfoResult{})

	for _, name := range []string{"mean", "gaussian", "unsharp"} {
		t.Run(name, func(t *testing.T) {
			var info PackedInfoResult
			decodeResult(t, callTool(t, s, "image_filter", map[string]interface{}{
				"path":   packedPath,
				"filter": name,
				"output": filteredPath,
			}), &info)
			assert.Equal(t, 16, info.Height)
			assert.Equal(t, filteredPath, info.Path)
		})
	}

	// Without an output the input record is overwritten
	before, err := os.ReadFile(packedPath)
	require.NoError(t, err)
	decodeResult(t, callTool(t, s, "image_filter", map[string]interface{}{
		"path":        packedPath,
		"filter":      "mean",
		"kernel_size": 5,
	}), &PackedInfoResult{})
	after, err := os.ReadFile(packedPath)
	require.NoError(t, err)
	assert.NotEqual(t, string(before), string(after))
}

func TestHandleToolsCall_ImageFilterInvalid(t *testing.T) {
	s := New()
	imgPath := createTestImageFile(t, 8, 8)
	packedPath := filepath.Join(t.TempDir(), "cover.packed")
	decodeResult(t, callTool(t, s, "image_pack", map[string]interface{}{"path": imgPath, "output": packedPath}), &PackedInfoResult{})

	requireToolError(t, callTool(t, s, "image_filter", map[string]interface{}{
		"path":   packedPath,
		"filter": "median",
	}), "unknown filter")

	requireToolError(t, callTool(t, s, "image_filter", map[string]interface{}{
		"path":        packedPath,
		"filter":      "mean",
		"kernel_size": 4,
	}), "odd")
}

func TestHandleToolsCall_PackedInfoMalformed(t *testing.T) {
	s := New()
	path := filepath.Join(t.TempDir(), "bad.packed")
	require.NoError(t, os.WriteFile(path, []byte("3 3\n1 2 3\n4\n"), 0o644))

	requireToolError(t, callTool(t, s, "packed_info", map[string]interface{}{"path": path}), "malformed")
}

func TestHandleToolsCall_UnknownTool(t *testing.T) {
	requireToolError(t, callTool(t, New(), "image_resize", map[string]interface{}{}), "unknown tool")
}

func TestHandleToolsCall_InvalidParams(t *testing.T) {
	resp := New().handleRequest(&MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  json.RawMessage(`"not an object"`),
	})
	require.NotNil(t, resp.Error)
	assert.Equal(t, -32602, resp.Error.Code)
}

func TestCompareGrids(t *testing.T) {
	a := imaging.NewGrid(2, 2)
	b := a.Clone()
	b.Set(0, 0, 1)
	c := a.Clone()
	c.Set(1, 1, 2)

	assert.Equal(t, &CompareResult{Equal: true, SameSize: true, LSBOnly: true}, compareGrids(a, a.Clone()))
	assert.Equal(t, &CompareResult{SameSize: true, DifferingPixels: 1, LSBOnly: true}, compareGrids(a, b))
	assert.Equal(t, &CompareResult{SameSize: true, DifferingPixels: 1}, compareGrids(a, c))
	assert.Equal(t, &CompareResult{}, compareGrids(a, imaging.NewGrid(3, 3)))
}

func TestIsImagePath(t *testing.T) {
	tests := map[string]bool{
		"a.png":    true,
		"a.PNG":    true,
		"a.jpeg":   true,
		"a.bmp":    true,
		"a.packed": false,
		"a.txt":    false,
		"a":        false,
	}
	for path, want := range tests {
		assert.Equal(t, want, isImagePath(path), path)
	}
}
