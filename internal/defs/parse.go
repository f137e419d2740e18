package defs

import (
	"bufio"
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/cespare/xxhash/v2"
)

var fieldNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type ParseError struct {
	Line int
	Msg  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Msg)
}

// Parse parses the source of a definition file.
func Parse(name string, version int, src []byte) (*Definition, error) {
	def := &Definition{
		Name:     name,
		Version:  version,
		Checksum: xxhash.Sum64(src),
	}

	root := &Field{Type: TypeObject, Name: name}
	stack := []*Field{root}

	scanner := bufio.NewScanner(bytes.NewReader(src))
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		depth := 0
		for depth < len(line) && line[depth] == '-' {
			depth++
		}

		parts := strings.Fields(line[depth:])
		if len(parts) != 2 {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("expected \"<type> <name>\", got %q", line)}
		}
		if !fieldNameRe.MatchString(parts[1]) {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("invalid field name %q", parts[1])}
		}

		if depth > len(stack)-1 {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("unexpected nesting depth %d", depth)}
		}
		stack = stack[:depth+1]

		parent := stack[depth]
		if !parent.IsStruct() {
			return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("%s %s can not have fields", parent.Type, parent.Name)}
		}
		for _, sibling := range parent.Fields {
			if sibling.Name == parts[1] {
				return nil, &ParseError{Line: lineNo, Msg: fmt.Sprintf("duplicate field %q", parts[1])}
			}
		}

		f := &Field{Type: parts[0], Name: parts[1], Line: lineNo}
		parent.Fields = append(parent.Fields, f)
		stack = append(stack, f)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if err := checkNotEmpty(root.Fields); err != nil {
		return nil, err
	}

	def.Fields = root.Fields
	return def, nil
}

func checkNotEmpty(fields []*Field) error {
	for _, f := range fields {
		if !f.IsStruct() {
			continue
		}
		if len(f.Fields) == 0 {
			return &ParseError{Line: f.Line, Msg: fmt.Sprintf("%s %s has no fields", f.Type, f.Name)}
		}
		if err := checkNotEmpty(f.Fields); err != nil {
			return err
		}
	}
	return nil
}
