// Package display prints a render on another machine. The renderer sends each row over rpc while it
// holds the turn, so rows arrive in order; the display still checks every index and refuses gaps.
package display

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/BrugadaSyndrome/bslogger"
	"github.com/BrugadaSyndrome/multirpc"

	"mandelbrot/misc"
	"mandelbrot/output"
	"mandelbrot/task"
)

const DefaultPort = 51000

var (
	ErrOutOfOrder = errors.New("row out of order")
	ErrFinished   = errors.New("display already finished")
	ErrAborted    = errors.New("render aborted")
)

// DefaultAddress is this machine's address on the default port.
func DefaultAddress() (string, error) {
	localAddress, err := misc.GetLocalAddress()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%d", localAddress, DefaultPort), nil
}

// Display is the rpc service. Only its WriteRow, Finish and Abort methods are callable remotely.
type Display struct {
	done     chan struct{}
	err      error
	finished bool
	logger   bslogger.Logger
	mutex    sync.Mutex
	nextRow  int
	terminal *output.Terminal
}

func NewDisplay(sink io.Writer, marker byte, logger bslogger.Logger) *Display {
	return &Display{
		done:     make(chan struct{}),
		logger:   logger,
		terminal: output.NewTerminal(sink, marker),
	}
}

func (d *Display) WriteRow(row task.Row, reply *misc.Nothing) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.finished {
		return ErrFinished
	}
	if row.Index != d.nextRow {
		return fmt.Errorf("%w: got row %d, expected row %d", ErrOutOfOrder, row.Index, d.nextRow)
	}
	if err := d.terminal.WriteRow(row); err != nil {
		return err
	}
	d.nextRow++
	return nil
}

// Finish ends the image once total rows have been written and releases anyone waiting on Done.
func (d *Display) Finish(total int, reply *misc.Nothing) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.finished {
		return ErrFinished
	}
	if total != d.nextRow {
		return fmt.Errorf("render sent %d rows but %d were displayed", total, d.nextRow)
	}
	err := d.terminal.Close()
	d.finished = true
	close(d.done)

	d.logger.Debugf("Displayed %d rows", total)
	return err
}

// Abort ends an image the renderer could not complete. The colors are reset and Done is released,
// after which Err reports the reason.
func (d *Display) Abort(reason string, reply *misc.Nothing) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	if d.finished {
		return ErrFinished
	}
	err := d.terminal.Close()
	d.err = fmt.Errorf("%w after %d rows: %s", ErrAborted, d.nextRow, reason)
	d.finished = true
	close(d.done)

	d.logger.Errorf("Render aborted after %d rows: %s", d.nextRow, reason)
	return err
}

func (d *Display) Done() <-chan struct{} {
	return d.done
}

// Err is nil until the display is aborted.
func (d *Display) Err() error {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.err
}

func (d *Display) RowsDisplayed() int {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.nextRow
}

// Server runs a Display behind a multirpc tcp server.
type Server struct {
	Display *Display

	server   multirpc.TcpServer
	stopErr  error
	stopOnce sync.Once
}

func NewServer(address string, sink io.Writer, marker byte, logger bslogger.Logger) *Server {
	display := NewDisplay(sink, marker, logger)
	return &Server{
		Display: display,
		server:  multirpc.NewTcpServer(display, address, "DisplayServer"),
	}
}

func (s *Server) Run() error {
	return s.server.Run()
}

// Wait blocks until the image is finished or aborted, or ctx is done, and then stops the server.
func (s *Server) Wait(ctx context.Context) error {
	select {
	case <-s.Display.Done():
		return errors.Join(s.Display.Err(), s.Stop())
	case <-ctx.Done():
		return errors.Join(ctx.Err(), s.Stop())
	}
}

// Stop may be called any number of times once Run has succeeded.
func (s *Server) Stop() error {
	s.stopOnce.Do(func() {
		s.stopErr = s.server.Stop()
	})
	return s.stopErr
}

// Client sends rows to a remote Display. It satisfies output.RowWriter and output.Aborter.
type Client struct {
	client multirpc.TcpClient
	rows   int
}

func NewClient(address string) (*Client, error) {
	c := &Client{
		client: multirpc.NewTcpClient(address, "DisplayClient"),
	}
	if err := c.client.Connect(); err != nil {
		return nil, fmt.Errorf("connecting to display at %s: %w", address, err)
	}
	return c, nil
}

func (c *Client) WriteRow(row task.Row) error {
	var nothing misc.Nothing
	if err := c.client.Call("Display.WriteRow", row, &nothing); err != nil {
		return err
	}
	c.rows++
	return nil
}

// Close tells the display the image is complete and disconnects.
func (c *Client) Close() error {
	var nothing misc.Nothing
	err := c.client.Call("Display.Finish", c.rows, &nothing)
	return errors.Join(err, c.client.Disconnect())
}

// Abort tells the display the image will never be completed and disconnects.
func (c *Client) Abort(cause error) error {
	var nothing misc.Nothing
	err := c.client.Call("Display.Abort", cause.Error(), &nothing)
	return errors.Join(err, c.client.Disconnect())
}
