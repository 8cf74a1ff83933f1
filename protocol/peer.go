package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
)

// HandlerFunc runs one command. It must consume its arguments from args
// and may return a response payload to send back.
type HandlerFunc func(args *[]byte) ([]byte, error)

// Peer is the device end of a bridge link. It runs the commands carried
// by each in-order frame and acks it with the next expected sequence.
type Peer struct {
	port     io.ReadWriter
	handlers map[uint32]HandlerFunc
	expect   uint8
	out      []byte

	mu sync.Mutex

	// OnError is called for commands that fail. Remaining commands in the
	// same block are skipped.
	OnError func(error)
}

// NewPeer creates a peer writing acks and responses to port
func NewPeer(port io.ReadWriter) *Peer {
	return &Peer{
		port:     port,
		handlers: make(map[uint32]HandlerFunc),
		expect:   DestBit,
	}
}

// Handle registers fn for command id
func (p *Peer) Handle(id uint32, fn HandlerFunc) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.handlers[id] = fn
}

// Serve reads frames until ctx is done or the port reports EOF
func (p *Peer) Serve(ctx context.Context) error {
	scan := NewScanner()
	buf := make([]byte, 256)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		n, err := p.port.Read(buf)
		if n > 0 {
			scan.Feed(buf[:n])
			for {
				f, ok := scan.Next()
				if !ok {
					break
				}
				if werr := p.Process(f); werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
				return nil
			}
			return err
		}
	}
}

// Process handles one decoded frame. Only write failures are returned.
func (p *Peer) Process(f Frame) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if f.IsAck() {
		return nil
	}
	if f.Seq != p.expect {
		// Nak: repeat the sequence we are still waiting for
		return p.send(nil)
	}
	p.expect = NextSeq(p.expect)

	// Commands run before the ack goes out, so an acked block has taken
	// effect on the device.
	data := f.Payload
	for len(data) > 0 {
		id, err := ReadUint(&data)
		if err != nil {
			p.fail(err)
			break
		}
		fn, ok := p.handlers[id]
		if !ok {
			p.fail(fmt.Errorf("%w: %d", ErrUnknownCmd, id))
			break
		}
		resp, err := fn(&data)
		if err != nil {
			p.fail(err)
			break
		}
		if len(resp) > 0 {
			if err := p.send(resp); err != nil {
				return err
			}
		}
	}
	return p.send(nil)
}

func (p *Peer) send(payload []byte) error {
	var err error
	p.out, err = AppendFrame(p.out[:0], p.expect, payload)
	if err != nil {
		return err
	}
	_, err = p.port.Write(p.out)
	return err
}

func (p *Peer) fail(err error) {
	if p.OnError != nil {
		p.OnError(err)
	}
}
