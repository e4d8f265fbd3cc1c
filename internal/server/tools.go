package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

// sourceProperties are the two mutually exclusive ways a tool can name its input.
func sourceProperties() map[string]interface{} {
	return map[string]interface{}{
		"image_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to a PNG/JPEG/GIF/BMP image (converted to grayscale)",
		},
		"packed_path": map[string]interface{}{
			"type":        "string",
			"description": "Absolute path to a packed image record",
		},
	}
}

func withSource(props map[string]interface{}) map[string]interface{} {
	for k, v := range sourceProperties() {
		props[k] = v
	}
	return props
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Image Information
		{
			Name:        "image_load",
			Description: "Load an image file and return its dimensions, whether it can be packed, and how many characters it can hide.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "packed_info",
			Description: "Read a packed image record and return its dimensions and triangular array sizes.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the packed image record",
					},
				},
				"required": []string{"path"},
			},
		},

		// Packing Operations
		{
			Name:        "image_pack",
			Description: "Convert a square image to grayscale, split it into upper and lower triangular arrays and write the packed record.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the square source image",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path to write the packed record to",
					},
				},
				"required": []string{"path", "output"},
			},
		},
		{
			Name:        "image_unpack",
			Description: "Reconstruct the full image from a packed record and save it as PNG.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the packed image record",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path to write the PNG image to",
					},
				},
				"required": []string{"path", "output"},
			},
		},

		// Message Operations
		{
			Name:        "message_embed",
			Description: "Hide a 7-bit ASCII message in the least significant bits of the last pixels of a square image, and write the result as a packed record. Provide exactly one of image_path or packed_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withSource(map[string]interface{}{
					"message": map[string]interface{}{
						"type":        "string",
						"description": "ASCII message to hide (7 pixels per character)",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path to write the packed record with the hidden message",
					},
				}),
				"required": []string{"message", "output"},
			},
		},
		{
			Name:        "message_extract",
			Description: "Recover a hidden message of known length from the last pixels of an image. Provide exactly one of image_path or packed_path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": withSource(map[string]interface{}{
					"length": map[string]interface{}{
						"type":        "integer",
						"description": "Message length in characters",
					},
				}),
				"required": []string{"length"},
			},
		},

		// Filter Operations
		{
			Name:        "image_filter",
			Description: "Apply a mean, gaussian or unsharp filter to a packed image and write the filtered values back into the record.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the packed image record",
					},
					"filter": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"mean", "gaussian", "unsharp"},
						"description": "Filter to apply",
					},
					"kernel_size": map[string]interface{}{
						"type":        "integer",
						"description": "Odd kernel size used by every filter (default from server config, 3)",
					},
					"sigma": map[string]interface{}{
						"type":        "number",
						"description": "Standard deviation for the gaussian filter (default from server config, 1.0)",
					},
					"amount": map[string]interface{}{
						"type":        "number",
						"description": "Sharpening amount for the unsharp filter (default from server config, 1.5)",
					},
					"output": map[string]interface{}{
						"type":        "string",
						"description": "Path for the filtered record. Defaults to overwriting the input.",
					},
				},
				"required": []string{"path", "filter"},
			},
		},

		// Analysis Helpers
		{
			Name:        "image_compare",
			Description: "Compare two images or packed records pixel by pixel. Each side accepts an image or a packed record path.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path1": map[string]interface{}{
						"type":        "string",
						"description": "First image or packed record",
					},
					"path2": map[string]interface{}{
						"type":        "string",
						"description": "Second image or packed record",
					},
				},
				"required": []string{"path1", "path2"},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
