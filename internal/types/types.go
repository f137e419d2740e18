// Package types holds the primitive wire types a packet definition is built
// from. Each Plugin knows how to read, write and measure one kind of value;
// compiling and caching whole packets is left to the compiler and registry.
package types

import (
	"sort"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
)

// Plugin describes one primitive wire type.
//
// Fixed is the constant encoded length for fixed-width types and 0 for
// variable-length ones. Length is only set when the encoded length depends on
// the value (string); for fixed types it is nil and Fixed is used instead.
// Validate reports whether a value is acceptable for Write without writing it.
type Plugin struct {
	Name     string
	Fixed    int
	Read     func(r *byteorder.Reader) (any, error)
	Write    func(w *byteorder.Writer, v any) error
	Length   func(v any) (int, error)
	Validate func(v any) error
}

// Measure returns the encoded length of v.
func (p *Plugin) Measure(v any) (int, error) {
	if p.Length != nil {
		return p.Length(v)
	}
	if err := p.Validate(v); err != nil {
		return 0, err
	}
	return p.Fixed, nil
}

// Set is the table of primitive types available to definitions of one game
// version. It is stateless and safe to share between codecs and goroutines.
type Set struct {
	gameVersion float64
	plugins     map[string]*Plugin
}

func NewSet(gameVersion float64) *Set {
	s := &Set{
		gameVersion: gameVersion,
		plugins:     make(map[string]*Plugin),
	}

	for _, p := range []*Plugin{
		boolPlugin(),
		unsignedPlugin("byte", 1),
		signedPlugin("int16", 2),
		unsignedPlugin("uint16", 2),
		signedPlugin("int32", 4),
		unsignedPlugin("uint32", 4),
		signedPlugin("int64", 8),
		unsignedPlugin("uint64", 8),
		floatPlugin(),
		doublePlugin(),
		stringPlugin(),
	} {
		s.plugins[p.Name] = p
	}

	return s
}

func (s *Set) GameVersion() float64 { return s.gameVersion }

func (s *Set) Lookup(name string) (*Plugin, bool) {
	p, ok := s.plugins[name]
	return p, ok
}

// Names returns the registered type names in sorted order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.plugins))
	for name := range s.plugins {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
