// Package server implements the MCP (Model Context Protocol) server for the
// triangular packing and message hiding tools.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image Information:
//   - image_load: Dimensions, squareness and message capacity of an image
//   - packed_info: Dimensions and array sizes of a packed record
//
// Packing:
//   - image_pack: Image -> packed record
//   - image_unpack: Packed record -> PNG
//
// Messages:
//   - message_embed: Hide a 7-bit message at the end of the pixel stream
//   - message_extract: Recover a message of known length
//
// Filters:
//   - image_filter: Mean, gaussian or unsharp filter applied to a packed record
//
// Analysis Helpers:
//   - image_compare: Pixel comparison of two images or records
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: The Go error string
//
// # Usage
//
//	srv := server.NewWithConfig(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
