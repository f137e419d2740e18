package relayclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/aion-proxy/aion-data-parser/internal/debug"
	"github.com/aion-proxy/aion-data-parser/internal/protocol"
	"github.com/aion-proxy/aion-data-parser/internal/registry"
	"github.com/phuslu/log"
)

var ErrTimeout = errors.New("relayclient: timeout reached")

// Packet is a decoded frame received from the relay.
type Packet struct {
	Name   string
	Opcode uint16
	Value  map[string]any
}

type Client struct {
	conn    *net.UDPConn
	readBuf []byte

	registry *registry.Registry
	versions protocol.VersionTable
	logger   *log.Logger

	recvCh chan Packet

	sendTimeout time.Duration
	recvTimeout time.Duration
}

func New(
	network, address string,
	reg *registry.Registry,
	versions protocol.VersionTable,
	logger *log.Logger,
) (*Client, error) {
	if reg == nil {
		return nil, errors.New("relayclient: no registry")
	}

	addr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, fmt.Errorf("could not resolve udp addr: %w", err)
	}

	conn, err := net.DialUDP(network, nil, addr)
	if err != nil {
		return nil, fmt.Errorf("could not dial udp: %w", err)
	}

	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	c := &Client{
		conn:    conn,
		readBuf: make([]byte, protocol.MaxFrameSize),

		registry: reg,
		versions: versions,
		logger:   logger,

		recvCh: make(chan Packet, 64),

		sendTimeout: time.Second,
		recvTimeout: time.Second,
	}

	return c, nil
}

func (c *Client) runRecv(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := c.conn.SetReadDeadline(time.Now().Add(c.recvTimeout))
			debug.Assert(err == nil)

			n, _, err := c.conn.ReadFromUDP(c.readBuf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}

				c.logger.Error().
					Msgf("could not read: %v", err)
				continue
			}

			pkt, err := c.decode(c.readBuf[:n])
			if err != nil {
				c.logger.Error().
					Str("bytes", fmt.Sprintf("%v", c.readBuf[:n])).
					Msgf("could not decode frame: %v", err)
				continue
			}

			c.logger.Debug().
				Str("packet", pkt.Name).
				Any("value", pkt.Value).
				Msg("recv")

			select {
			case c.recvCh <- pkt:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (c *Client) decode(frame []byte) (Packet, error) {
	opcode, ok := protocol.PeekOpcode(frame)
	if !ok {
		return Packet{}, protocol.ErrShortHeader
	}
	name, ok := c.registry.Opcodes().Name(int(opcode))
	if !ok {
		return Packet{}, fmt.Errorf("%w: opcode 0x%04x is not mapped", registry.ErrUnknownPacket, opcode)
	}

	value, err := c.registry.Read(protocol.Opcode(opcode), c.versions.For(name), frame)
	if err != nil {
		return Packet{}, err
	}
	return Packet{Name: name, Opcode: opcode, Value: value}, nil
}

func (c *Client) Run(ctx context.Context) error {
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		c.runRecv(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return c.conn.Close()
}

// Send encodes v as the named packet and writes the frame to the relay.
func (c *Client) Send(name string, v map[string]any) error {
	frame, err := c.registry.Write(protocol.Name(name), c.versions.For(name), v)
	if err != nil {
		return err
	}

	c.logger.Debug().
		Str("packet", name).
		Int("size", len(frame)).
		Msg("send")

	if err := c.conn.SetWriteDeadline(time.Now().Add(c.sendTimeout)); err != nil {
		return err
	}
	if _, err := c.conn.Write(frame); err != nil {
		return fmt.Errorf("could not write: %w", err)
	}
	return nil
}

// Recv blocks until the next decoded packet arrives or the receive timeout
// passes.
func (c *Client) Recv() (*Packet, error) {
	select {
	case <-time.After(c.recvTimeout):
		return nil, ErrTimeout
	case pkt := <-c.recvCh:
		return &pkt, nil
	}
}

// RecvPacket skips packets until one named name arrives.
func (c *Client) RecvPacket(name string) (*Packet, error) {
	for {
		pkt, err := c.Recv()
		if err != nil {
			return nil, fmt.Errorf("waiting for %s: %w", name, err)
		}
		if pkt.Name == name {
			return pkt, nil
		}
	}
}
