package line

import (
	"io"
	"sync"
)

type nullLine struct {
	once   sync.Once
	closed chan struct{}
}

// Null returns a line that discards writes. Reads block until Close.
func Null() Line {
	return &nullLine{closed: make(chan struct{})}
}

func (l *nullLine) Read([]byte) (int, error) {
	<-l.closed
	return 0, io.EOF
}

func (l *nullLine) Write(b []byte) (int, error) {
	select {
	case <-l.closed:
		return 0, ErrClosed
	default:
		return len(b), nil
	}
}

func (l *nullLine) Close() error {
	l.once.Do(func() { close(l.closed) })
	return nil
}

type loopLine struct {
	r *io.PipeReader
	w *io.PipeWriter
}

// Loopback returns a line reading back what is written to it. A Write
// blocks until the bytes are read.
func Loopback() Line {
	r, w := io.Pipe()
	return &loopLine{r: r, w: w}
}

func (l *loopLine) Read(b []byte) (int, error)  { return l.r.Read(b) }
func (l *loopLine) Write(b []byte) (int, error) { return l.w.Write(b) }

func (l *loopLine) Close() error {
	l.w.Close()
	return l.r.Close()
}
