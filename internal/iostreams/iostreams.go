package iostreams

import (
	"bytes"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"golang.org/x/term"
)

var osStreams *IOStreams

type IOStreams struct {
	In     io.Reader
	Out    io.Writer
	ErrOut io.Writer
}

type Key struct{}

// StreamsKey stores the command's IOStreams in a context
var StreamsKey = Key{}

// GetOSIOStreams returns the process-wide stdin/stdout/stderr streams
func GetOSIOStreams() *IOStreams {
	if osStreams == nil {
		osStreams = &IOStreams{
			In:     os.Stdin,
			Out:    os.Stdout,
			ErrOut: os.Stderr,
		}
	}
	return osStreams
}

func NewTestIOStreamsOnly() IOStreams {
	return IOStreams{
		In:     &bytes.Buffer{},
		Out:    &bytes.Buffer{},
		ErrOut: &bytes.Buffer{},
	}
}

func NewTestIOStreams() (IOStreams, *bytes.Buffer, *bytes.Buffer, *bytes.Buffer) {
	in := &bytes.Buffer{}
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return IOStreams{
		In:     in,
		Out:    out,
		ErrOut: errOut,
	}, in, out, errOut
}

type fileDescriptor interface {
	Fd() uintptr
}

// IsTerminal reports whether stream is a file attached to a terminal.
func IsTerminal(stream any) bool {
	f, ok := stream.(fileDescriptor)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// IsInteractive reports whether both input and output are terminals, which
// is required to run the full screen view.
func (s *IOStreams) IsInteractive() bool {
	return IsTerminal(s.In) && IsTerminal(s.Out)
}

// TerminalWidth returns the width of the output terminal, or fallback when the
// output is not a terminal.
func (s *IOStreams) TerminalWidth(fallback int) int {
	f, ok := s.Out.(fileDescriptor)
	if !ok || !IsTerminal(s.Out) {
		return fallback
	}
	width, _, err := term.GetSize(int(f.Fd())) //nolint:gosec
	if err != nil || width <= 0 {
		return fallback
	}
	return width
}

// ReadPassword reads a line from In without echo when In is a terminal.
func (s *IOStreams) ReadPassword() (string, error) {
	if f, ok := s.In.(fileDescriptor); ok && IsTerminal(s.In) {
		b, err := term.ReadPassword(int(f.Fd())) //nolint:gosec
		return string(b), err
	}
	var buf []byte
	one := make([]byte, 1)
	for {
		n, err := s.In.Read(one)
		if n > 0 {
			if one[0] == '\n' {
				break
			}
			buf = append(buf, one[0])
		}
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
	}
	return string(bytes.TrimRight(buf, "\r")), nil
}
