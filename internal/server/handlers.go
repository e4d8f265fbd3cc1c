package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ironsheep/secretimage-mcp/internal/filter"
	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/monitoring"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
	"github.com/ironsheep/secretimage-mcp/internal/stego"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "image_pack", "message_embed").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		monitoring.Logf("tool %s failed: %v", params.Name, err)
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Image Information
	case "image_load":
		return s.handleImageLoad(args)
	case "packed_info":
		return s.handlePackedInfo(args)

	// Packing Operations
	case "image_pack":
		return s.handleImagePack(args)
	case "image_unpack":
		return s.handleImageUnpack(args)

	// Message Operations
	case "message_embed":
		return s.handleMessageEmbed(args)
	case "message_extract":
		return s.handleMessageExtract(args)

	// Filter Operations
	case "image_filter":
		return s.handleImageFilter(args)

	// Analysis Helpers
	case "image_compare":
		return s.handleImageCompare(args)

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

var errMissingArgument = errors.New("missing required argument")

// imageExtensions are the file types loaded as images; anything else is read
// as a packed record.
var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
}

func isImagePath(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// loadAny loads path as an image or a packed record based on its extension.
func (s *Server) loadAny(path string) (*imaging.Grid, error) {
	if isImagePath(path) {
		return s.cache.Load(path)
	}
	p, err := secret.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return secret.Reconstruct(p), nil
}

// sourceArgs names the input of a message tool.
type sourceArgs struct {
	ImagePath  string `json:"image_path"`
	PackedPath string `json:"packed_path"`
}

func (s *Server) loadSource(a sourceArgs) (*imaging.Grid, error) {
	switch {
	case a.ImagePath != "" && a.PackedPath != "":
		return nil, fmt.Errorf("provide only one of image_path or packed_path")
	case a.ImagePath != "":
		return s.cache.Load(a.ImagePath)
	case a.PackedPath != "":
		p, err := secret.LoadFile(a.PackedPath)
		if err != nil {
			return nil, err
		}
		return secret.Reconstruct(p), nil
	default:
		return nil, fmt.Errorf("image_path or packed_path: %w", errMissingArgument)
	}
}

// === Image Information Handlers ===

type pathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageLoad(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadGridInfo(s.cache, a.Path)
}

// PackedInfoResult describes a packed image record.
type PackedInfoResult struct {
	Width           int    `json:"width"`
	Height          int    `json:"height"`
	UpperSize       int    `json:"upper_size"`
	LowerSize       int    `json:"lower_size"`
	MessageCapacity int    `json:"message_capacity"`
	Path            string `json:"path"`
}

func packedInfo(p *secret.PackedImage, path string) *PackedInfoResult {
	return &PackedInfoResult{
		Width:           p.Width(),
		Height:          p.Height(),
		UpperSize:       secret.UpperSize(p.Height()),
		LowerSize:       secret.LowerSize(p.Height()),
		MessageCapacity: p.Width() * p.Height() / stego.CharBits,
		Path:            path,
	}
}

func (s *Server) handlePackedInfo(args json.RawMessage) (interface{}, error) {
	var a pathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := secret.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	return packedInfo(p, a.Path), nil
}

// === Packing Operation Handlers ===

type convertArgs struct {
	Path   string `json:"path"`
	Output string `json:"output"`
}

func (a convertArgs) validate() error {
	if a.Path == "" {
		return fmt.Errorf("path: %w", errMissingArgument)
	}
	if a.Output == "" {
		return fmt.Errorf("output: %w", errMissingArgument)
	}
	return nil
}

func (s *Server) handleImagePack(args json.RawMessage) (interface{}, error) {
	var a convertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	g, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	p, err := secret.Split(g)
	if err != nil {
		return nil, err
	}
	if err := secret.SaveFile(a.Output, p); err != nil {
		return nil, err
	}
	return packedInfo(p, a.Output), nil
}

// UnpackResult describes an image reconstructed from a packed record.
type UnpackResult struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Path   string `json:"path"`
}

func (s *Server) handleImageUnpack(args json.RawMessage) (interface{}, error) {
	var a convertArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if err := a.validate(); err != nil {
		return nil, err
	}
	p, err := secret.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	g := secret.Reconstruct(p)
	if err := imaging.SaveGrid(g, a.Output); err != nil {
		return nil, err
	}
	s.cache.Evict(a.Output)
	return &UnpackResult{Width: g.Width(), Height: g.Height(), Path: a.Output}, nil
}

// === Message Operation Handlers ===

type messageEmbedArgs struct {
	sourceArgs
	Message string `json:"message"`
	Output  string `json:"output"`
}

// EmbedResult describes where a message was hidden.
type EmbedResult struct {
	Path     string `json:"path"`
	Length   int    `json:"length"`
	Bits     int    `json:"bits"`
	StartRow int    `json:"start_row"`
	StartCol int    `json:"start_col"`
}

func (s *Server) handleMessageEmbed(args json.RawMessage) (interface{}, error) {
	var a messageEmbedArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.Output == "" {
		return nil, fmt.Errorf("output: %w", errMissingArgument)
	}
	g, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	p, err := stego.HideMessage(g, a.Message)
	if err != nil {
		return nil, err
	}
	if err := secret.SaveFile(a.Output, p); err != nil {
		return nil, err
	}

	n := len(a.Message) * stego.CharBits
	res := &EmbedResult{Path: a.Output, Length: len(a.Message), Bits: n}
	res.StartRow, res.StartCol = stego.StartPixel(g, n)
	return res, nil
}

type messageExtractArgs struct {
	sourceArgs
	Length int `json:"length"`
}

// ExtractResult contains a recovered message.
type ExtractResult struct {
	Message string `json:"message"`
	Bits    string `json:"bits"`
}

func (s *Server) handleMessageExtract(args json.RawMessage) (interface{}, error) {
	var a messageExtractArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	g, err := s.loadSource(a.sourceArgs)
	if err != nil {
		return nil, err
	}
	bits, err := stego.Extract(g, a.Length)
	if err != nil {
		return nil, err
	}
	msg, err := stego.DecodeText(bits)
	if err != nil {
		return nil, err
	}
	return &ExtractResult{Message: msg, Bits: bits.String()}, nil
}

// === Filter Operation Handlers ===

type imageFilterArgs struct {
	Path       string  `json:"path"`
	Filter     string  `json:"filter"`
	KernelSize int     `json:"kernel_size"`
	Sigma      float64 `json:"sigma"`
	Amount     float64 `json:"amount"`
	Output     string  `json:"output"`
}

func (s *Server) handleImageFilter(args json.RawMessage) (interface{}, error) {
	var a imageFilterArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	if a.KernelSize == 0 {
		a.KernelSize = s.cfg.FilterKernel
	}
	if a.Sigma == 0 {
		a.Sigma = s.cfg.FilterSigma
	}
	if a.Amount == 0 {
		a.Amount = s.cfg.UnsharpAmount
	}
	if a.Output == "" {
		a.Output = a.Path
	}

	p, err := secret.LoadFile(a.Path)
	if err != nil {
		return nil, err
	}
	params := filter.Params{Name: a.Filter, KernelSize: a.KernelSize, Sigma: a.Sigma, Amount: a.Amount}
	if err := filter.ApplyPacked(p, params); err != nil {
		return nil, err
	}
	if err := secret.SaveFile(a.Output, p); err != nil {
		return nil, err
	}
	return packedInfo(p, a.Output), nil
}

// === Analysis Helper Handlers ===

type imageCompareArgs struct {
	Path1 string `json:"path1"`
	Path2 string `json:"path2"`
}

// CompareResult reports how two grids differ.
type CompareResult struct {
	Equal           bool `json:"equal"`
	SameSize        bool `json:"same_size"`
	DifferingPixels int  `json:"differing_pixels"`
	LSBOnly         bool `json:"lsb_only"`
}

func (s *Server) handleImageCompare(args json.RawMessage) (interface{}, error) {
	var a imageCompareArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	g1, err := s.loadAny(a.Path1)
	if err != nil {
		return nil, err
	}
	g2, err := s.loadAny(a.Path2)
	if err != nil {
		return nil, err
	}
	return compareGrids(g1, g2), nil
}

func compareGrids(g1, g2 *imaging.Grid) *CompareResult {
	if g1.Width() != g2.Width() || g1.Height() != g2.Height() {
		return &CompareResult{}
	}
	res := &CompareResult{SameSize: true, LSBOnly: true}
	p1, p2 := g1.Pixels(), g2.Pixels()
	for k := range p1 {
		if p1[k] != p2[k] {
			res.DifferingPixels++
			if p1[k]&^1 != p2[k]&^1 {
				res.LSBOnly = false
			}
		}
	}
	res.Equal = res.DifferingPixels == 0
	return res
}
