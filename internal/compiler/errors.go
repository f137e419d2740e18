package compiler

import (
	"errors"
	"fmt"
	"strconv"
)

var ErrCompilation = errors.New("compiler: invalid definition")

// CompileError reports a definition that can not be turned into a codec.
type CompileError struct {
	Packet string
	Line   int
	Msg    string
}

func (e *CompileError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("compile %s: line %d: %s", e.Packet, e.Line, e.Msg)
	}
	return fmt.Sprintf("compile %s: %s", e.Packet, e.Msg)
}

func (e *CompileError) Unwrap() error {
	return ErrCompilation
}

// FieldError attaches the path of the offending field (for example
// "items[2].name") to an encode, measure or decode failure.
type FieldError struct {
	Path string
	Err  error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s: %v", e.Path, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(name string, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		if fe.Path[0] == '[' {
			fe.Path = name + fe.Path
		} else {
			fe.Path = name + "." + fe.Path
		}
		return fe
	}
	return &FieldError{Path: name, Err: err}
}

func indexErr(i int, err error) error {
	var fe *FieldError
	if errors.As(err, &fe) {
		fe.Path = "[" + strconv.Itoa(i) + "]." + fe.Path
		return fe
	}
	return &FieldError{Path: "[" + strconv.Itoa(i) + "]", Err: err}
}
