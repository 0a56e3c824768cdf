// Package notify delivers user-visible notices. A transient notice is shown
// and forgotten; an alert blocks until the user acknowledges it.
package notify

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sync"
)

type Notifier interface {
	Success(message string)
	Error(message string)
	// Alert shows a blocking dialog and returns once it is acknowledged or
	// ctx is done.
	Alert(ctx context.Context, title, message string) error
}

// Console writes notices to a terminal and reads alert acknowledgements from in.
type Console struct {
	out   io.Writer
	in    *bufio.Reader
	color bool
	lock  sync.Mutex
}

var _ Notifier = (*Console)(nil)

// NewConsole returns a Console. in may be nil, in which case alerts do not wait.
func NewConsole(out io.Writer, in io.Reader, color bool) *Console {
	c := &Console{out: out, color: color}
	if in != nil {
		c.in = bufio.NewReader(in)
	}
	return c
}

func (c *Console) Success(message string) {
	c.print(Green, "✓ "+message)
}

func (c *Console) Error(message string) {
	c.print(Red, "✗ "+message)
}

func (c *Console) Alert(ctx context.Context, title, message string) error {
	c.print(RedInverse, " "+title+" ")
	c.print("", message)
	if c.in == nil {
		return nil
	}
	c.print(Gray, "Press Enter to acknowledge")

	done := make(chan error, 1)
	go func() {
		_, err := c.in.ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Console) print(color, line string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if c.color && color != "" {
		fmt.Fprintln(c.out, color+line+ResetColor)
		return
	}
	fmt.Fprintln(c.out, line)
}

// Nop discards every notice.
type Nop struct{}

var _ Notifier = Nop{}

func (Nop) Success(string) {}
func (Nop) Error(string) {}

func (Nop) Alert(context.Context, string, string) error { return nil }
