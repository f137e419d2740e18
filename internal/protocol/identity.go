package protocol

import (
	"fmt"
	"strconv"
)

// Identity addresses a packet either by symbolic name or by opcode, never
// both. Build one with Name or Opcode.
type Identity struct {
	name     string
	opcode   uint16
	isOpcode bool
}

func Name(name string) Identity {
	return Identity{name: name}
}

func Opcode(opcode uint16) Identity {
	return Identity{opcode: opcode, isOpcode: true}
}

func (id Identity) IsOpcode() bool { return id.isOpcode }

// Name returns the packet name; ok is false for opcode identities.
func (id Identity) Name() (string, bool) {
	return id.name, !id.isOpcode
}

// Opcode returns the opcode; ok is false for name identities.
func (id Identity) Opcode() (uint16, bool) {
	return id.opcode, id.isOpcode
}

func (id Identity) String() string {
	if id.isOpcode {
		return fmt.Sprintf("opcode 0x%04x", id.opcode)
	}
	return id.name
}

// Version selects a definition version. Latest picks the highest version
// known for the packet.
type Version int

// Latest is kept for older callers; new code should pin a version.
const Latest Version = -1

func (v Version) String() string {
	if v == Latest {
		return "latest"
	}
	return strconv.Itoa(int(v))
}

// PacketError annotates a failure with the packet it happened on.
type PacketError struct {
	Op     string // "parsing", "writing" or "measuring"
	Packet string
	Err    error
}

func (e *PacketError) Error() string {
	return fmt.Sprintf("error %s %s: %v", e.Op, e.Packet, e.Err)
}

func (e *PacketError) Unwrap() error {
	return e.Err
}

// VersionTable pins the definition version used for each packet name.
// Packets without an entry use Latest.
type VersionTable map[string]int

func (t VersionTable) For(name string) Version {
	if v, ok := t[name]; ok {
		return Version(v)
	}
	return Latest
}
