package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

var (
	ErrClosed     = errors.New("protocol: transport closed")
	ErrNoAck      = errors.New("protocol: command not acknowledged")
	ErrUnknownCmd = errors.New("protocol: unknown command")
)

// Retransmits after a nak before Send gives up
const maxRetries = 3

// Client is the host end of a bridge link. It sends one command block at
// a time and waits for the peer to acknowledge it. Frames carrying data
// are queued for Receive.
type Client struct {
	port io.ReadWriteCloser

	sendMu sync.Mutex
	seq    uint8
	buf    []byte

	acks      chan uint8
	responses chan Frame

	errMu   sync.Mutex
	readErr error

	stop      chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

// NewClient starts a client on port. The client owns port from now on.
func NewClient(port io.ReadWriteCloser) *Client {
	c := &Client{
		port:      port,
		seq:       DestBit,
		acks:      make(chan uint8, 4),
		responses: make(chan Frame, 16),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c
}

// Send transmits payload and waits for its ack. A nak (an ack for the
// wrong sequence) triggers a retransmit.
func (c *Client) Send(ctx context.Context, payload []byte) error {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()

	var err error
	c.buf, err = AppendFrame(c.buf[:0], c.seq, payload)
	if err != nil {
		return err
	}
	want := NextSeq(c.seq)

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.write(c.buf); err != nil {
			return err
		}
		got, err := c.waitAck(ctx)
		if err != nil {
			return err
		}
		if got == want {
			c.seq = want
			return nil
		}
	}
	return fmt.Errorf("%w: seq 0x%02x after %d attempts", ErrNoAck, c.seq, maxRetries+1)
}

func (c *Client) write(frame []byte) error {
	n, err := c.port.Write(frame)
	if err != nil {
		return err
	}
	if n != len(frame) {
		return fmt.Errorf("incomplete write: %d/%d bytes", n, len(frame))
	}
	return nil
}

func (c *Client) waitAck(ctx context.Context) (uint8, error) {
	select {
	case seq := <-c.acks:
		return seq, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-c.done:
		return 0, c.closedErr()
	}
}

// Receive returns the next frame carrying data
func (c *Client) Receive(ctx context.Context) (Frame, error) {
	select {
	case f := <-c.responses:
		return f, nil
	case <-ctx.Done():
		return Frame{}, ctx.Err()
	case <-c.done:
		// Drain anything that arrived before the link went down
		select {
		case f := <-c.responses:
			return f, nil
		default:
		}
		return Frame{}, c.closedErr()
	}
}

// Close shuts the port down and waits for the reader to exit
func (c *Client) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.stop)
		err = c.port.Close()
		<-c.done
	})
	return err
}

func (c *Client) closedErr() error {
	c.errMu.Lock()
	defer c.errMu.Unlock()
	if c.readErr != nil {
		return fmt.Errorf("%w: %v", ErrClosed, c.readErr)
	}
	return ErrClosed
}

func (c *Client) readLoop() {
	defer close(c.done)

	scan := NewScanner()
	buf := make([]byte, 256)
	for {
		select {
		case <-c.stop:
			return
		default:
		}

		n, err := c.port.Read(buf)
		if n > 0 {
			scan.Feed(buf[:n])
			for {
				f, ok := scan.Next()
				if !ok {
					break
				}
				c.dispatch(f)
			}
		}
		if err != nil {
			select {
			case <-c.stop:
				return
			default:
			}
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				c.errMu.Lock()
				c.readErr = err
				c.errMu.Unlock()
				return
			}
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (c *Client) dispatch(f Frame) {
	if f.IsAck() {
		select {
		case c.acks <- f.Seq:
		default:
			// Stale ack with nobody waiting
		}
		return
	}
	select {
	case c.responses <- f:
	case <-c.stop:
	}
}
