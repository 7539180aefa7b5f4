package hal

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"
)

// minPace is the shortest pause inserted between bytes on the wire. Below
// this the host scheduler cannot honour the delay anyway.
const minPace = 50 * time.Microsecond

// Run connects the UART to a line until ctx is done or the line fails.
// Bytes read from the line are delivered one character time apart and
// bytes loaded into the holding register are shifted out to the line.
func (u *UART) Run(ctx context.Context, line io.ReadWriter) error {
	errCh := make(chan error, 2)
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { errCh <- u.receiveLoop(subCtx, line) }()
	go func() { errCh <- u.transmitLoop(subCtx, line) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-errCh:
		return err
	}
}

func (u *UART) pace() time.Duration {
	if d := u.ByteTime(); d > minPace {
		return d
	}
	return minPace
}

func (u *UART) receiveLoop(ctx context.Context, line io.Reader) error {
	buf := make([]byte, 64)
	for {
		n, err := line.Read(buf)
		for _, b := range buf[:n] {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			u.Deliver(b, 0)
			time.Sleep(u.pace())
		}
		if err != nil {
			if err != io.EOF {
				glog.Warningf("%s: line read error: %v", u.Name, err)
			}
			return err
		}
	}
}

func (u *UART) transmitLoop(ctx context.Context, line io.Writer) error {
	for {
		b, ok := u.Shift()
		if !ok {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-u.txKick:
			}
			continue
		}
		if _, err := line.Write([]byte{b}); err != nil {
			glog.Warningf("%s: line write error: %v", u.Name, err)
			return err
		}
		time.Sleep(u.pace())
	}
}
