package output

import (
	"fmt"
	"io"
	"strconv"

	"mandelbrot/task"
)

const (
	RowTerminator = '\n'
	ResetColor    = "\033[0m"
)

// RowWriter receives rows in the order they are meant to appear.
type RowWriter interface {
	WriteRow(row task.Row) error
	Close() error
}

// Aborter is a RowWriter that can be told the image will never be completed.
type Aborter interface {
	Abort(cause error) error
}

// WriteColoredChar switches the sink to the given xterm color and writes marker.
func WriteColoredChar(sink io.Writer, code int, marker byte) error {
	if code < 0 || code > 255 {
		return fmt.Errorf("color code %d is not an xterm color", code)
	}

	var buffer [16]byte
	cell := append(buffer[:0], "\033[38;5;"...)
	cell = strconv.AppendInt(cell, int64(code), 10)
	cell = append(cell, 'm', marker)

	return write(sink, cell)
}

func write(sink io.Writer, b []byte) error {
	n, err := sink.Write(b)
	if err != nil {
		return err
	}
	if n != len(b) {
		return io.ErrShortWrite
	}
	return nil
}

// Terminal writes rows to a 256 color terminal as one colored marker per cell.
type Terminal struct {
	marker byte
	sink   io.Writer
}

func NewTerminal(sink io.Writer, marker byte) *Terminal {
	return &Terminal{
		marker: marker,
		sink:   sink,
	}
}

func (t *Terminal) WriteRow(row task.Row) error {
	for column, code := range row.Codes {
		if err := WriteColoredChar(t.sink, code, t.marker); err != nil {
			return fmt.Errorf("writing row %d column %d: %w", row.Index, column, err)
		}
	}
	if err := write(t.sink, []byte{RowTerminator}); err != nil {
		return fmt.Errorf("writing row %d terminator: %w", row.Index, err)
	}
	return nil
}

// Close puts the terminal back to its default colors. It does not close the sink.
func (t *Terminal) Close() error {
	if err := write(t.sink, []byte(ResetColor)); err != nil {
		return fmt.Errorf("resetting terminal color: %w", err)
	}
	return nil
}
