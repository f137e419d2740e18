// Package enum reads the bidirectional code <-> name tables used for opcodes
// and system messages.
//
// A table file has one entry per line, either "NAME = CODE" or "NAME CODE".
// Codes may be decimal or 0x-prefixed hex. Blank lines and lines starting
// with # are ignored.
package enum

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

type Enum struct {
	byName map[string]int
	byCode map[int]string
}

// New builds an Enum from a name -> code map. Codes must be unique.
func New(entries map[string]int) (*Enum, error) {
	e := &Enum{
		byName: make(map[string]int, len(entries)),
		byCode: make(map[int]string, len(entries)),
	}

	names := make([]string, 0, len(entries))
	for name := range entries {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := e.add(name, entries[name]); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func (e *Enum) add(name string, code int) error {
	if _, ok := e.byName[name]; ok {
		return fmt.Errorf("duplicate name %s", name)
	}
	if other, ok := e.byCode[code]; ok {
		return fmt.Errorf("duplicate code %d (%s and %s)", code, other, name)
	}
	e.byName[name] = code
	e.byCode[code] = name
	return nil
}

func Parse(r io.Reader) (*Enum, error) {
	e := &Enum{
		byName: make(map[string]int),
		byCode: make(map[int]string),
	}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(strings.Replace(line, "=", " ", 1))
		if len(parts) != 2 {
			return nil, fmt.Errorf("line %d: expected \"NAME = CODE\", got %q", lineNo, line)
		}

		code, err := strconv.ParseInt(parts[1], 0, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid code %q: %w", lineNo, parts[1], err)
		}
		if err := e.add(parts[0], int(code)); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return e, nil
}

func Load(path string) (*Enum, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	e, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", path, err)
	}
	return e, nil
}

func (e *Enum) Code(name string) (int, bool) {
	code, ok := e.byName[name]
	return code, ok
}

func (e *Enum) Name(code int) (string, bool) {
	name, ok := e.byCode[code]
	return name, ok
}

func (e *Enum) Len() int { return len(e.byName) }

// MaxCode returns the largest code in the table, or -1 when it is empty.
func (e *Enum) MaxCode() int {
	hi := -1
	for code := range e.byCode {
		if code > hi {
			hi = code
		}
	}
	return hi
}

// MinCode returns the smallest code in the table, or 0 when it is empty.
func (e *Enum) MinCode() int {
	lo, found := 0, false
	for code := range e.byCode {
		if !found || code < lo {
			lo, found = code, true
		}
	}
	return lo
}

// Kind names a family of enum tables.
type Kind string

const (
	Opcodes Kind = "protocol"
	Sysmsgs Kind = "sysmsg"
)
