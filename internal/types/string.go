package types

import (
	"fmt"
	"strings"
	"unicode/utf16"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
	"golang.org/x/text/encoding/unicode"
)

// Strings are UTF-16LE code units terminated by a single zero code unit.
var wide = unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)

func stringPlugin() *Plugin {
	return &Plugin{
		Name:     "string",
		Read:     readString,
		Write:    writeString,
		Length:   stringLength,
		Validate: func(v any) error { _, err := toString(v); return err },
	}
}

// readString decodes up to the first zero code unit. An unpaired surrogate
// decodes as U+FFFD, so such strings do not survive a round trip.
func readString(r *byteorder.Reader) (any, error) {
	start := r.Pos()
	n := 0
	for {
		unit, err := r.Peek(n + 2)
		if err != nil {
			return nil, err
		}
		if unit[n] == 0 && unit[n+1] == 0 {
			break
		}
		n += 2
	}

	raw, _ := r.Next(n + 2)
	if n == 0 {
		return "", nil
	}

	s, err := wide.NewDecoder().Bytes(raw[:n])
	if err != nil {
		return nil, fmt.Errorf("could not decode string at %d: %w", start, err)
	}
	return string(s), nil
}

func writeString(w *byteorder.Writer, v any) error {
	s, err := toString(v)
	if err != nil {
		return err
	}

	if s != "" {
		encoded, err := wide.NewEncoder().Bytes([]byte(s))
		if err != nil {
			return invalid("string", v, err.Error())
		}
		w.Write(encoded)
	}
	w.Uint16(0)
	return nil
}

func stringLength(v any) (int, error) {
	s, err := toString(v)
	if err != nil {
		return 0, err
	}
	return 2 * (codeUnits(s) + 1), nil
}

// toString accepts a string or nil; nil is the empty string. NUL is the
// terminator on the wire, so a string can not contain one.
func toString(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		if strings.IndexByte(x, 0) >= 0 {
			return "", invalid("string", v, "must not contain NUL")
		}
		return x, nil
	}
	return "", invalid("string", v, "must be a string or nil")
}

func codeUnits(s string) int {
	n := 0
	for _, r := range s {
		if l := utf16.RuneLen(r); l > 0 {
			n += l
		} else {
			// surrogate halves never come out of a range loop, but the
			// encoder substitutes U+FFFD for anything it can not encode
			n++
		}
	}
	return n
}
