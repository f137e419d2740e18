// Package defs holds packet definitions: the field layout of one packet at one
// version, and the table of every definition found in a data directory.
//
// A definition file is line oriented:
//
//	# comment
//	uint16 id
//	string name
//	array items
//	- int32 count
//	- object pos
//	-- float x
//	-- float y
//
// The number of leading dashes is the nesting depth below the closest
// preceding array or object. Field types are resolved by the compiler, so an
// unknown type name parses fine and fails when the packet is compiled.
package defs

import (
	"strconv"
)

const (
	TypeArray  = "array"
	TypeObject = "object"
)

// Field is one entry of a definition. Fields is only set for arrays and
// objects.
type Field struct {
	Type   string
	Name   string
	Fields []*Field
	Line   int
}

func (f *Field) IsStruct() bool {
	return f.Type == TypeArray || f.Type == TypeObject
}

// Definition is the parsed layout of one packet version.
type Definition struct {
	Name     string
	Version  int
	Fields   []*Field
	Checksum uint64 // xxhash of the source text
}

func (d *Definition) String() string {
	return d.Name + "." + strconv.Itoa(d.Version)
}
