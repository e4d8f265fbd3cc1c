package secret

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ironsheep/secretimage-mcp/internal/monitoring"
)

// maxRecordLine bounds a single line of a packed record. A 4096x4096 image
// has ~8.4M upper values of at most 4 bytes each.
const maxRecordLine = 64 * 1024 * 1024

// Save writes p as a three-line text record:
//
//	<width> <height>
//	<upper[0]> <upper[1]> ... <upper[n-1]>
//	<lower[0]> <lower[1]> ... <lower[m-1]>
func Save(w io.Writer, p *PackedImage) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%d %d\n", p.width, p.height)
	writeInts(bw, p.upper)
	writeInts(bw, p.lower)
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("failed to write packed image: %w", err)
	}
	return nil
}

func writeInts(bw *bufio.Writer, vals []int) {
	var buf []byte
	for k, v := range vals {
		if k > 0 {
			buf = append(buf, ' ')
		}
		buf = strconv.AppendInt(buf, int64(v), 10)
		if len(buf) >= 4096 {
			bw.Write(buf)
			buf = buf[:0]
		}
	}
	buf = append(buf, '\n')
	bw.Write(buf)
}

// Load parses a record written by Save. The first line is read as
// "width height"; array lengths are checked against the height before the
// image is returned.
func Load(r io.Reader) (*PackedImage, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxRecordLine)

	// Lines missing at EOF read as empty, which is only valid when the
	// corresponding array is empty (heights 0 and 1).
	var lines [3]string
	n := 0
	for n < len(lines) && sc.Scan() {
		lines[n] = sc.Text()
		n++
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read packed image: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("empty record: %w", ErrFormat)
	}

	header := strings.Fields(lines[0])
	if len(header) != 2 {
		return nil, fmt.Errorf("header %q: want \"width height\": %w", lines[0], ErrFormat)
	}
	width, err := strconv.Atoi(header[0])
	if err != nil {
		return nil, fmt.Errorf("width %q: %w", header[0], ErrFormat)
	}
	height, err := strconv.Atoi(header[1])
	if err != nil {
		return nil, fmt.Errorf("height %q: %w", header[1], ErrFormat)
	}
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("negative size %dx%d: %w", width, height, ErrFormat)
	}
	if width != height {
		return nil, fmt.Errorf("record is %dx%d, want a square: %w", width, height, ErrFormat)
	}

	upper, err := parseInts(lines[1], UpperSize(height))
	if err != nil {
		return nil, fmt.Errorf("upper array: %w", err)
	}
	lower, err := parseInts(lines[2], LowerSize(height))
	if err != nil {
		return nil, fmt.Errorf("lower array: %w", err)
	}

	if err := validate(width, height, upper, lower); err != nil {
		return nil, err
	}
	return &PackedImage{width: width, height: height, upper: upper, lower: lower}, nil
}

func parseInts(line string, want int) ([]int, error) {
	fields := strings.Fields(line)
	if len(fields) != want {
		return nil, fmt.Errorf("%d values, want %d: %w", len(fields), want, ErrFormat)
	}
	vals := make([]int, want)
	for k, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("value %d (%q): %w", k, f, ErrFormat)
		}
		vals[k] = v
	}
	return vals, nil
}

// SaveFile writes p to path. The record is written to a temporary file in the
// same directory and renamed into place, so readers never see a partial record.
func SaveFile(path string, p *PackedImage) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".packed-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			os.Remove(tmp.Name())
		}
	}()

	if err = tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err = Save(tmp, p); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to rename packed file: %w", err)
	}
	monitoring.Logf("saved packed image %dx%d to %s", p.width, p.height, path)
	return nil
}

// LoadFile reads a packed image record from path.
func LoadFile(path string) (*PackedImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open packed file: %w", err)
	}
	defer f.Close()

	p, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}
