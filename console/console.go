// Package console implements the raw putc/getc I/O path the MMIO console
// register uses (§4.E), grounded on bassosimone-risc32's pkg/vm/tty.go
// getc/putc contract and adapted to a local terminal instead of a TCP
// control connection.
package console

import (
	"bufio"
	"io"
	"os"

	"golang.org/x/term"
)

// Terminal is a core.Console backed by the host terminal. PutChar writes
// straight through to stdout; GetChar reads one byte from stdin. NewTerminal
// puts the terminal into raw mode when it is constructed (not on the first
// GetChar), so the guest sees keystrokes unbuffered and unechoed, the same
// trade the reference tty makes for its control connection.
type Terminal struct {
	in    *bufio.Reader
	out   io.Writer
	state *term.State
	fd    int
}

// NewTerminal wires stdin/stdout as the guest console. If stdin is not a
// terminal (piped input, tests), raw mode is skipped and GetChar falls back
// to ordinary buffered reads.
func NewTerminal() *Terminal {
	fd := int(os.Stdin.Fd())
	t := newTerminal(os.Stdin, os.Stdout, fd)
	if term.IsTerminal(fd) {
		if state, err := term.MakeRaw(fd); err == nil {
			t.state = state
		}
	}
	return t
}

// newTerminal builds a Terminal over arbitrary reader/writer, letting tests
// exercise PutChar/GetChar without a real tty.
func newTerminal(r io.Reader, w io.Writer, fd int) *Terminal {
	return &Terminal{in: bufio.NewReader(r), out: w, fd: fd}
}

// Close restores the terminal's original mode, if it was changed.
func (t *Terminal) Close() error {
	if t.state == nil {
		return nil
	}
	return term.Restore(t.fd, t.state)
}

// PutChar implements core.Console.
func (t *Terminal) PutChar(b byte) {
	_, _ = t.out.Write([]byte{b}) // best-effort console output
}

// GetChar implements core.Console. It blocks until a byte is available or
// stdin is closed, in which case ok is false.
func (t *Terminal) GetChar() (byte, bool) {
	b, err := t.in.ReadByte()
	if err != nil {
		return 0, false
	}
	return b, true
}
