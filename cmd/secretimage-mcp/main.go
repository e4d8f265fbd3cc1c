package main

import (
	"fmt"
	"log"
	"os"

	"github.com/ironsheep/secretimage-mcp/internal/config"
	"github.com/ironsheep/secretimage-mcp/internal/monitoring"
	"github.com/ironsheep/secretimage-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version and -v flags
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("secretimage-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			fmt.Println("secretimage-mcp - MCP server for triangular image packing and hidden messages")
			fmt.Println()
			fmt.Println("Usage: secretimage-mcp [options]")
			fmt.Println()
			fmt.Println("Options:")
			fmt.Println("  --version, -v    Print version information")
			fmt.Println("  --help, -h       Print this help message")
			fmt.Println()
			fmt.Println("Environment variables:")
			fmt.Println("  SECRETIMAGE_CONFIG=path.json        JSON settings file")
			fmt.Println("  SECRETIMAGE_LOG_LEVEL=debug         Enable debug logging")
			fmt.Println("  SECRETIMAGE_MAX_REQUEST_BYTES=N     Largest accepted request line")
			fmt.Println("  SECRETIMAGE_FILTER_KERNEL=3         Default mean filter kernel")
			fmt.Println("  SECRETIMAGE_FILTER_SIGMA=1.0        Default gaussian sigma")
			fmt.Println("  SECRETIMAGE_UNSHARP_AMOUNT=1.5      Default unsharp amount")
			fmt.Println()
			fmt.Println("This server communicates via MCP protocol over stdin/stdout.")
			fmt.Println("Configure it in your MCP client (e.g., Claude Desktop).")
			return
		}
	}

	// Configure logging to stderr (stdout is for MCP protocol)
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	if cfg.Debug() {
		log.Printf("Secret Image MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	} else {
		monitoring.SetLogger(nil)
	}

	srv := server.NewWithConfig(cfg)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
