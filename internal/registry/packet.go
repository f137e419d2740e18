package registry

import (
	"fmt"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
	"github.com/aion-proxy/aion-data-parser/internal/protocol"
)

// Read decodes the payload of frame, which starts after the header. Errors
// name the packet found in the frame's opcode field.
func (r *Registry) Read(id protocol.Identity, version protocol.Version, frame []byte) (map[string]any, error) {
	v, err := r.read(id, version, frame)
	if err != nil {
		return nil, &protocol.PacketError{Op: "parsing", Packet: r.frameName(id, frame), Err: err}
	}
	return v, nil
}

func (r *Registry) read(id protocol.Identity, version protocol.Version, frame []byte) (map[string]any, error) {
	p, err := r.resolve(id, version)
	if err != nil {
		return nil, err
	}
	if len(frame) < protocol.HeaderSize {
		return nil, fmt.Errorf("%w: %w", protocol.ErrShortHeader, byteorder.ErrTruncated)
	}

	v, _, err := p.codec.Decode(frame, protocol.HeaderSize)
	return v, err
}

// Write encodes v and returns the complete frame, header included.
func (r *Registry) Write(id protocol.Identity, version protocol.Version, v map[string]any) ([]byte, error) {
	frame, err := r.write(id, version, v)
	if err != nil {
		return nil, &protocol.PacketError{Op: "writing", Packet: r.identityName(id), Err: err}
	}
	return frame, nil
}

func (r *Registry) write(id protocol.Identity, version protocol.Version, v map[string]any) ([]byte, error) {
	p, err := r.resolve(id, version)
	if err != nil {
		return nil, err
	}
	if !p.mapped {
		return nil, fmt.Errorf("%w: %s", ErrUnmapped, p.name)
	}

	frame, err := p.codec.Encode(v, protocol.HeaderSize)
	if err != nil {
		return nil, err
	}
	if err := protocol.Frame(frame, p.opcode); err != nil {
		return nil, err
	}
	return frame, nil
}

// Length returns the size of the frame Write would produce for v.
func (r *Registry) Length(id protocol.Identity, version protocol.Version, v map[string]any) (int, error) {
	p, err := r.resolve(id, version)
	if err == nil {
		var n int
		if n, err = p.codec.Measure(v); err == nil {
			return protocol.HeaderSize + n, nil
		}
	}
	return 0, &protocol.PacketError{Op: "measuring", Packet: r.identityName(id), Err: err}
}

// frameName names the packet carried by frame, falling back to id when the
// frame is too short or its opcode is not mapped.
func (r *Registry) frameName(id protocol.Identity, frame []byte) string {
	if code, ok := protocol.PeekOpcode(frame); ok {
		if name, ok := r.opcodes.Name(int(code)); ok {
			return name
		}
	}
	return r.identityName(id)
}

func (r *Registry) identityName(id protocol.Identity) string {
	if code, ok := id.Opcode(); ok {
		if name, ok := r.opcodes.Name(int(code)); ok {
			return name
		}
	}
	return id.String()
}
