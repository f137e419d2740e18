// Package relay is a UDP relay for game frames. Every datagram is one frame;
// frames that decode cleanly through the registry are forwarded to every other
// peer, anything else is logged and dropped.
package relay

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
	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/phuslu/log"
)

const DefaultIdleTimeout = 10 * time.Second

type Options struct {
	// Versions pins definition versions per packet name.
	Versions protocol.VersionTable
	// IdleTimeout is how long a silent peer is kept. Zero means
	// DefaultIdleTimeout.
	IdleTimeout time.Duration
}

type addrKey uint64

func makeAddrKey(addr *net.UDPAddr) addrKey {
	return addrKey(xxhash.Sum64String(addr.String()))
}

type peer struct {
	addr     *net.UDPAddr
	lastSeen time.Time
}

type Relay struct {
	conn *net.UDPConn
	buf  []byte

	registry *registry.Registry
	logger   *log.Logger

	versions    protocol.VersionTable
	idleTimeout time.Duration

	mu    sync.Mutex
	peers map[addrKey]*peer
}

func New(
	network, address string,
	reg *registry.Registry,
	opts Options,
	logger *log.Logger,
) (*Relay, error) {
	if reg == nil {
		return nil, errors.New("relay: no registry")
	}

	addr, err := net.ResolveUDPAddr(network, address)
	if err != nil {
		return nil, fmt.Errorf("could not resolve udp addr: %w", err)
	}

	conn, err := net.ListenUDP(network, addr)
	if err != nil {
		return nil, fmt.Errorf("could not listen udp: %w", err)
	}

	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	idleTimeout := opts.IdleTimeout
	if idleTimeout <= 0 {
		idleTimeout = DefaultIdleTimeout
	}

	rl := &Relay{
		conn: conn,
		buf:  make([]byte, protocol.MaxFrameSize),

		registry: reg,
		logger:   logger,

		versions:    opts.Versions,
		idleTimeout: idleTimeout,

		peers: make(map[addrKey]*peer),
	}

	return rl, nil
}

// Addr can be useful to retreive the relay's address when it was constructed
// with ":0".
func (rl *Relay) Addr() *net.UDPAddr {
	return rl.conn.LocalAddr().(*net.UDPAddr)
}

// Peers returns the number of peers currently known to the relay.
func (rl *Relay) Peers() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.peers)
}

func (rl *Relay) runRecv(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			err := rl.conn.SetReadDeadline(time.Now().Add(time.Second))
			debug.Assert(err == nil)

			n, addr, err := rl.conn.ReadFromUDP(rl.buf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if errors.Is(err, net.ErrClosed) {
					return
				}

				rl.logger.Error().
					Msgf("could not read from udp: %v", err)
				continue
			}

			if err := rl.handleFrame(rl.buf[:n], addr); err != nil {
				rl.logger.Error().
					Str("addr", addr.String()).
					Str("bytes", fmt.Sprintf("%v", rl.buf[:n])).
					Msgf("dropped frame: %v", err)
			}
		}
	}
}

func (rl *Relay) runPeerEvictor(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(rl.idleTimeout / 2):
			rl.evictIdle(time.Now())
		}
	}
}

func (rl *Relay) evictIdle(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, p := range rl.peers {
		if now.Sub(p.lastSeen) > rl.idleTimeout {
			delete(rl.peers, key)
			rl.logger.Debug().
				Str("peer", p.addr.String()).
				Msg("evicted peer")
		}
	}
}

func (rl *Relay) Run(ctx context.Context) error {
	wg := &sync.WaitGroup{}

	wg.Add(1)
	go func() {
		defer wg.Done()
		rl.runRecv(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		rl.runPeerEvictor(ctx)
	}()

	<-ctx.Done()
	wg.Wait()
	return rl.conn.Close()
}

// handleFrame validates frame against the registry, remembers its sender and
// forwards it to every other peer.
func (rl *Relay) handleFrame(frame []byte, addr *net.UDPAddr) error {
	var h protocol.Header
	if err := h.UnmarshalBinary(frame); err != nil {
		return err
	}
	if int(h.Length) != len(frame) {
		return fmt.Errorf("header length %d does not match datagram size %d", h.Length, len(frame))
	}

	name, ok := rl.registry.Opcodes().Name(int(h.Opcode))
	if !ok {
		return fmt.Errorf("%w: opcode 0x%04x is not mapped", registry.ErrUnknownPacket, h.Opcode)
	}

	value, err := rl.registry.Read(protocol.Opcode(h.Opcode), rl.versions.For(name), frame)
	if err != nil {
		return err
	}

	rl.logger.Debug().
		Str("addr", addr.String()).
		Str("packet", name).
		Any("value", value).
		Msg("recv")

	return rl.broadcast(frame, addr)
}

func (rl *Relay) broadcast(frame []byte, from *net.UDPAddr) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	fromKey := makeAddrKey(from)
	if p, ok := rl.peers[fromKey]; ok {
		p.lastSeen = time.Now()
	} else {
		rl.peers[fromKey] = &peer{addr: from, lastSeen: time.Now()}
		rl.logger.Debug().
			Str("peer", from.String()).
			Msg("new peer")
	}

	var errs error
	for key, p := range rl.peers {
		// don't send to the sender
		if key == fromKey {
			continue
		}

		if _, err := rl.conn.WriteToUDP(frame, p.addr); err != nil {
			rl.logger.Error().
				Msgf("could not forward frame to %s: %v", p.addr, err)

			errs = multierror.Append(errs, err)
		}
	}
	return errs
}
