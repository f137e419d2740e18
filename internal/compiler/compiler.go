// Package compiler turns a packet definition into a Codec. Every field's wire
// type is resolved once at compile time; decoding, encoding and measuring then
// walk the resolved layout.
package compiler

import (
	"fmt"
	"math"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
	"github.com/aion-proxy/aion-data-parser/internal/defs"
	"github.com/aion-proxy/aion-data-parser/internal/types"
)

// MaxArrayLen is the largest element count an array field can carry.
const MaxArrayLen = math.MaxUint16

type kind uint8

const (
	kindPrimitive kind = iota
	kindObject
	kindArray
)

type node struct {
	name     string
	kind     kind
	plugin   *types.Plugin
	children []node
}

// Codec decodes, encodes and measures one packet version. It is immutable and
// safe for concurrent use.
type Codec struct {
	def    *defs.Definition
	fields []node
}

// Compile resolves def against the primitive types in set.
func Compile(def *defs.Definition, set *types.Set) (*Codec, error) {
	if def == nil {
		return nil, &CompileError{Packet: "<nil>", Msg: "no definition"}
	}

	fields, err := compileFields(def, def.Fields, set)
	if err != nil {
		return nil, err
	}

	return &Codec{def: def, fields: fields}, nil
}

func compileFields(def *defs.Definition, fields []*defs.Field, set *types.Set) ([]node, error) {
	nodes := make([]node, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))

	for _, f := range fields {
		if f == nil {
			return nil, &CompileError{Packet: def.String(), Msg: "nil field"}
		}
		if f.Name == "" {
			return nil, &CompileError{Packet: def.String(), Line: f.Line, Msg: "field without a name"}
		}
		if _, dup := seen[f.Name]; dup {
			return nil, &CompileError{Packet: def.String(), Line: f.Line, Msg: fmt.Sprintf("duplicate field %q", f.Name)}
		}
		seen[f.Name] = struct{}{}

		n := node{name: f.Name}
		switch f.Type {
		case defs.TypeArray, defs.TypeObject:
			if len(f.Fields) == 0 {
				return nil, &CompileError{Packet: def.String(), Line: f.Line, Msg: fmt.Sprintf("%s %s has no fields", f.Type, f.Name)}
			}
			children, err := compileFields(def, f.Fields, set)
			if err != nil {
				return nil, err
			}
			n.children = children
			n.kind = kindObject
			if f.Type == defs.TypeArray {
				n.kind = kindArray
			}
		default:
			if len(f.Fields) != 0 {
				return nil, &CompileError{Packet: def.String(), Line: f.Line, Msg: fmt.Sprintf("%s %s can not have fields", f.Type, f.Name)}
			}
			p, ok := set.Lookup(f.Type)
			if !ok {
				return nil, &CompileError{Packet: def.String(), Line: f.Line, Msg: fmt.Sprintf("unknown type %q for field %s", f.Type, f.Name)}
			}
			n.plugin = p
			n.kind = kindPrimitive
		}

		nodes = append(nodes, n)
	}

	return nodes, nil
}

func (c *Codec) Definition() *defs.Definition { return c.def }

// Decode reads a packet starting at buf[off]. It returns the decoded value and
// the offset of the first byte past it.
func (c *Codec) Decode(buf []byte, off int) (map[string]any, int, error) {
	r := byteorder.NewReader(buf, off)
	v, err := decodeObject(r, c.fields)
	if err != nil {
		return nil, r.Pos(), err
	}
	return v, r.Pos(), nil
}

// Encode returns a buffer of off+Measure(v) bytes with the encoded packet
// starting at off. The first off bytes are left zeroed for the caller.
func (c *Codec) Encode(v map[string]any, off int) ([]byte, error) {
	n, err := c.Measure(v)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, off+n)
	w := byteorder.NewWriter(buf, off)
	if err := encodeObject(w, c.fields, v); err != nil {
		return nil, err
	}
	if w.Pos() != len(buf) {
		return nil, fmt.Errorf("%s: encoded %d bytes, measured %d", c.def, w.Pos()-off, n)
	}
	return buf, nil
}

// Measure returns the exact number of bytes Encode writes for v, validating v
// on the way.
func (c *Codec) Measure(v map[string]any) (int, error) {
	return measureObject(c.fields, v)
}

func decodeObject(r *byteorder.Reader, fields []node) (map[string]any, error) {
	obj := make(map[string]any, len(fields))
	for i := range fields {
		f := &fields[i]
		v, err := decodeField(r, f)
		if err != nil {
			return nil, fieldErr(f.name, err)
		}
		obj[f.name] = v
	}
	return obj, nil
}

func decodeField(r *byteorder.Reader, f *node) (any, error) {
	switch f.kind {
	case kindObject:
		return decodeObject(r, f.children)
	case kindArray:
		count, err := r.Uint16()
		if err != nil {
			return nil, err
		}
		items := make([]any, 0, min(int(count), r.Remaining()))
		for i := 0; i < int(count); i++ {
			item, err := decodeObject(r, f.children)
			if err != nil {
				return nil, indexErr(i, err)
			}
			items = append(items, item)
		}
		return items, nil
	default:
		return f.plugin.Read(r)
	}
}

func encodeObject(w *byteorder.Writer, fields []node, obj map[string]any) error {
	for i := range fields {
		f := &fields[i]
		if err := encodeField(w, f, obj[f.name]); err != nil {
			return fieldErr(f.name, err)
		}
	}
	return nil
}

func encodeField(w *byteorder.Writer, f *node, v any) error {
	switch f.kind {
	case kindObject:
		obj, err := asObject(v)
		if err != nil {
			return err
		}
		return encodeObject(w, f.children, obj)
	case kindArray:
		items, err := asArray(v)
		if err != nil {
			return err
		}
		w.Uint16(uint16(len(items)))
		for i, item := range items {
			if err := encodeObject(w, f.children, item); err != nil {
				return indexErr(i, err)
			}
		}
		return nil
	default:
		return f.plugin.Write(w, v)
	}
}

func measureObject(fields []node, obj map[string]any) (int, error) {
	total := 0
	for i := range fields {
		f := &fields[i]
		n, err := measureField(f, obj[f.name])
		if err != nil {
			return 0, fieldErr(f.name, err)
		}
		total += n
	}
	return total, nil
}

func measureField(f *node, v any) (int, error) {
	switch f.kind {
	case kindObject:
		obj, err := asObject(v)
		if err != nil {
			return 0, err
		}
		return measureObject(f.children, obj)
	case kindArray:
		items, err := asArray(v)
		if err != nil {
			return 0, err
		}
		total := 2
		for i, item := range items {
			n, err := measureObject(f.children, item)
			if err != nil {
				return 0, indexErr(i, err)
			}
			total += n
		}
		return total, nil
	default:
		return f.plugin.Measure(v)
	}
}
