package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/ironsheep/secretimage-mcp/internal/config"
	"github.com/ironsheep/secretimage-mcp/internal/filter"
	"github.com/ironsheep/secretimage-mcp/internal/imaging"
	"github.com/ironsheep/secretimage-mcp/internal/monitoring"
	"github.com/ironsheep/secretimage-mcp/internal/secret"
	"github.com/ironsheep/secretimage-mcp/internal/stego"
)

const usage = "pack, unpack, embed, extract or filter subcommand is required"

// errUsage means a subcommand was missing required flags; its defaults have
// already been printed.
var errUsage = errors.New("missing required flags")

func main() {
	log.SetFlags(0)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if !cfg.Debug() {
		monitoring.SetLogger(nil)
	}

	if err := run(os.Args[1:], cfg, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(args []string, cfg *config.Config, stdout io.Writer) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	switch args[0] {
	case "pack":
		cmd := flag.NewFlagSet("pack", flag.ContinueOnError)
		input := cmd.String("input", "", "square image to pack (required)")
		output := cmd.String("output", "", "destination for the packed record (required)")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" || *output == "" {
			cmd.PrintDefaults()
			return errUsage
		}
		g, err := imaging.LoadGrid(*input)
		if err != nil {
			return err
		}
		p, err := secret.Split(g)
		if err != nil {
			return err
		}
		return secret.SaveFile(*output, p)

	case "unpack":
		cmd := flag.NewFlagSet("unpack", flag.ContinueOnError)
		input := cmd.String("input", "", "packed record to reconstruct (required)")
		output := cmd.String("output", "", "destination image, format chosen by extension (required)")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" || *output == "" {
			cmd.PrintDefaults()
			return errUsage
		}
		p, err := secret.LoadFile(*input)
		if err != nil {
			return err
		}
		return imaging.SaveGrid(secret.Reconstruct(p), *output)

	case "embed":
		cmd := flag.NewFlagSet("embed", flag.ContinueOnError)
		input := cmd.String("input", "", "image or packed record to hide the message in (required)")
		output := cmd.String("output", "", "destination for the packed record (required)")
		text := cmd.String("text", "", "7-bit ASCII message to hide")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" || *output == "" {
			cmd.PrintDefaults()
			return errUsage
		}
		g, err := loadGrid(*input)
		if err != nil {
			return err
		}
		p, err := stego.HideMessage(g, *text)
		if err != nil {
			return err
		}
		return secret.SaveFile(*output, p)

	case "extract":
		cmd := flag.NewFlagSet("extract", flag.ContinueOnError)
		input := cmd.String("input", "", "image or packed record holding the message (required)")
		length := cmd.Int("length", 0, "message length in characters")
		bits := cmd.Bool("bits", false, "print the raw bit string instead of text")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" {
			cmd.PrintDefaults()
			return errUsage
		}
		g, err := loadGrid(*input)
		if err != nil {
			return err
		}
		b, err := stego.Extract(g, *length)
		if err != nil {
			return err
		}
		if *bits {
			_, err = fmt.Fprintln(stdout, b.String())
			return err
		}
		msg, err := stego.DecodeText(b)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, msg)
		return err

	case "filter":
		cmd := flag.NewFlagSet("filter", flag.ContinueOnError)
		input := cmd.String("input", "", "packed record to filter (required)")
		output := cmd.String("output", "", "destination record, defaults to the input")
		name := cmd.String("filter", filter.Mean, "mean, gaussian or unsharp")
		kernel := cmd.Int("kernel", cfg.FilterKernel, "odd kernel size used by every filter")
		sigma := cmd.Float64("sigma", cfg.FilterSigma, "standard deviation for the gaussian filter")
		amount := cmd.Float64("amount", cfg.UnsharpAmount, "sharpening amount for the unsharp filter")
		if err := cmd.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" {
			cmd.PrintDefaults()
			return errUsage
		}
		if *output == "" {
			*output = *input
		}
		p, err := secret.LoadFile(*input)
		if err != nil {
			return err
		}
		params := filter.Params{Name: *name, KernelSize: *kernel, Sigma: *sigma, Amount: *amount}
		if err := filter.ApplyPacked(p, params); err != nil {
			return err
		}
		return secret.SaveFile(*output, p)

	default:
		return fmt.Errorf("unknown subcommand %q: %s", args[0], usage)
	}
}

// loadGrid reads path as an image when it has an image extension and as a
// packed record otherwise.
func loadGrid(path string) (*imaging.Grid, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".jpg", ".jpeg", ".gif", ".bmp":
		return imaging.LoadGrid(path)
	}
	p, err := secret.LoadFile(path)
	if err != nil {
		return nil, err
	}
	return secret.Reconstruct(p), nil
}
