package registry

import (
	"fmt"
	"strconv"

	"github.com/aion-proxy/aion-data-parser/internal/compiler"
	"github.com/aion-proxy/aion-data-parser/internal/protocol"
)

// packet is an identity resolved against the opcode table and definitions.
type packet struct {
	name    string
	opcode  uint16
	mapped  bool
	version int
	codec   *compiler.Codec
}

// Codec resolves id and version to the cached codec, compiling it on first
// use. Resolving a mapped packet by name or by opcode yields the same codec.
func (r *Registry) Codec(id protocol.Identity, version protocol.Version) (*compiler.Codec, error) {
	p, err := r.resolve(id, version)
	if err != nil {
		return nil, err
	}
	return p.codec, nil
}

func (r *Registry) resolve(id protocol.Identity, version protocol.Version) (packet, error) {
	var p packet

	if code, ok := id.Opcode(); ok {
		name, ok := r.opcodes.Name(int(code))
		if !ok {
			return packet{}, fmt.Errorf("%w: %s is not mapped", ErrUnknownPacket, id)
		}
		p.name, p.opcode, p.mapped = name, code, true
	} else {
		p.name, _ = id.Name()
		if code, ok := r.opcodes.Code(p.name); ok {
			p.opcode, p.mapped = uint16(code), true
		}
	}

	switch {
	case version == protocol.Latest:
		latest, ok := r.defs.Latest(p.name)
		if !ok {
			return packet{}, fmt.Errorf("%w: no definitions for %s", ErrUnknownPacket, p.name)
		}
		p.version = latest
	case version < 0:
		return packet{}, fmt.Errorf("%w: invalid version %d of %s", ErrUnknownPacket, version, p.name)
	default:
		p.version = int(version)
	}

	codec, err := r.lookup(p)
	if err != nil {
		return packet{}, err
	}
	p.codec = codec

	return p, nil
}

func (r *Registry) cached(p packet) (*compiler.Codec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p.mapped {
		if key, ok := opcodeKey(p.opcode, p.version); ok {
			codec, ok := r.byOpcode[key]
			return codec, ok
		}
	}
	codec, ok := r.byName[nameKey{p.name, p.version}]
	return codec, ok
}

// lookup returns the cached codec for p or compiles it. Concurrent callers
// missing on the same packet share a single compilation.
func (r *Registry) lookup(p packet) (*compiler.Codec, error) {
	if codec, ok := r.cached(p); ok {
		r.metrics.hits.Inc()
		return codec, nil
	}
	r.metrics.misses.Inc()

	flightKey := p.name + "." + strconv.Itoa(p.version)
	v, err, _ := r.flight.Do(flightKey, func() (any, error) {
		// an earlier flight may have finished between cached() and Do
		if codec, ok := r.cached(p); ok {
			return codec, nil
		}
		return r.compile(p)
	})
	if err != nil {
		return nil, err
	}
	return v.(*compiler.Codec), nil
}

func (r *Registry) compile(p packet) (*compiler.Codec, error) {
	def, ok := r.defs.Lookup(p.name, p.version)
	if !ok {
		return nil, fmt.Errorf("%w: no definition for %s version %d", ErrUnknownPacket, p.name, p.version)
	}

	codec, err := compiler.Compile(def, r.types)
	if err != nil {
		return nil, err
	}
	r.compilations.Add(1)
	r.metrics.compilations.Inc()

	r.mu.Lock()
	defer r.mu.Unlock()

	// both indexes point at the same codec
	r.byName[nameKey{p.name, p.version}] = codec
	if p.mapped {
		if key, ok := opcodeKey(p.opcode, p.version); ok {
			r.byOpcode[key] = codec
		}
	}

	r.logger.Debug().
		Str("packet", p.name).
		Int("version", p.version).
		Bool("mapped", p.mapped).
		Msg("compiled definition")

	return codec, nil
}
