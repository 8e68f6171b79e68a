package colortable

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ironsheep/blob-tools-mcp/internal/segment"
)

const (
	// Side is the number of cells per channel.
	Side = 128

	// Size is the number of cells in a table and the size of a .col file.
	Size = Side * Side * Side
)

// ErrShortTable is returned when a table file holds fewer than Size bytes.
var ErrShortTable = errors.New("color table truncated")

// Table maps quantized RGB colors to labels.
type Table struct {
	cells []segment.Label
}

// New returns a table with every cell Undefined.
func New() *Table {
	return &Table{cells: make([]segment.Label, Size)}
}

func index(r, g, b uint8) int {
	return int(r>>1)<<14 | int(g>>1)<<7 | int(b>>1)
}

// Lookup returns the label of an 8-bit RGB color.
func (t *Table) Lookup(r, g, b uint8) segment.Label {
	return t.cells[index(r, g, b)]
}

// Set assigns a label to the cell containing (r, g, b).
func (t *Table) Set(r, g, b uint8, l segment.Label) {
	t.cells[index(r, g, b)] = l
}

// Clone returns an independent copy of the table.
func (t *Table) Clone() *Table {
	c := New()
	copy(c.cells, t.cells)
	return c
}

// Reset sets every cell back to Undefined.
func (t *Table) Reset() {
	clear(t.cells)
}

// Histogram counts the cells assigned to each label, Undefined included.
func (t *Table) Histogram() map[segment.Label]int {
	h := make(map[segment.Label]int)
	for _, l := range t.cells {
		h[l]++
	}
	return h
}

// ReadFrom replaces the table contents with Size bytes from r.
//
// If r ends early the error wraps ErrShortTable and the table is left
// unchanged. Bytes after the first Size are not read.
func (t *Table) ReadFrom(r io.Reader) (int64, error) {
	buf := make([]byte, Size)
	n, err := io.ReadFull(r, buf)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return int64(n), fmt.Errorf("read %d of %d bytes: %w", n, Size, ErrShortTable)
		}
		return int64(n), fmt.Errorf("failed to read color table: %w", err)
	}
	for i, b := range buf {
		t.cells[i] = segment.Label(b)
	}
	return int64(n), nil
}

// WriteTo writes the raw Size-byte table to w.
func (t *Table) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriterSize(w, 64*1024)
	var n int64
	for _, l := range t.cells {
		if err := bw.WriteByte(byte(l)); err != nil {
			return n, fmt.Errorf("failed to write color table: %w", err)
		}
		n++
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("failed to write color table: %w", err)
	}
	return n, nil
}

// Load reads a .col file.
//
// Parameters:
//   - path: Path to a raw table file of exactly Size bytes.
//
// Returns:
//   - *Table: The loaded table.
//   - error: Non-nil if the file cannot be opened, is shorter than Size
//     (wraps ErrShortTable) or is longer than Size.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open color table: %w", err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat color table: %w", err)
	}
	if st.Size() > Size {
		return nil, fmt.Errorf("color table %s is %d bytes, want %d", path, st.Size(), Size)
	}

	t := New()
	if _, err := t.ReadFrom(bufio.NewReaderSize(f, 64*1024)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Save writes the table to path. The file is written next to the target and
// renamed into place so readers never see a partial table.
func (t *Table) Save(path string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".colortable-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := t.WriteTo(tmp); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to save color table: %w", err)
	}
	return nil
}
