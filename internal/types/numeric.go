package types

import (
	"math"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
)

func boolPlugin() *Plugin {
	validate := func(v any) error {
		_, err := toBool(v)
		return err
	}

	return &Plugin{
		Name:  "bool",
		Fixed: 1,
		Read: func(r *byteorder.Reader) (any, error) {
			b, err := r.Uint8()
			if err != nil {
				return nil, err
			}
			return b != 0, nil
		},
		Write: func(w *byteorder.Writer, v any) error {
			b, err := toBool(v)
			if err != nil {
				return err
			}
			if b {
				w.Uint8(1)
			} else {
				w.Uint8(0)
			}
			return nil
		},
		Validate: validate,
	}
}

// toBool accepts a bool, nil (false) or a number, which is true unless it is
// zero or NaN.
func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	}
	f, err := toFloat("bool", v)
	if err != nil {
		return false, invalid("bool", v, "must be a bool or a number")
	}
	return f != 0 && !math.IsNaN(f), nil
}

// signedPlugin builds int16, int32 and int64. Values decode to the Go type of
// the same width.
func signedPlugin(name string, size int) *Plugin {
	bits := size * 8
	validate := func(v any) error {
		_, err := toSigned(name, v, bits)
		return err
	}

	return &Plugin{
		Name:  name,
		Fixed: size,
		Read: func(r *byteorder.Reader) (any, error) {
			switch size {
			case 2:
				n, err := r.Uint16()
				return int16(n), err
			case 4:
				n, err := r.Uint32()
				return int32(n), err
			default:
				n, err := r.Uint64()
				return int64(n), err
			}
		},
		Write: func(w *byteorder.Writer, v any) error {
			n, err := toSigned(name, v, bits)
			if err != nil {
				return err
			}
			switch size {
			case 2:
				w.Uint16(uint16(n))
			case 4:
				w.Uint32(uint32(n))
			default:
				w.Uint64(uint64(n))
			}
			return nil
		},
		Validate: validate,
	}
}

// unsignedPlugin builds byte, uint16, uint32 and uint64.
func unsignedPlugin(name string, size int) *Plugin {
	bits := size * 8
	validate := func(v any) error {
		_, err := toUnsigned(name, v, bits)
		return err
	}

	return &Plugin{
		Name:  name,
		Fixed: size,
		Read: func(r *byteorder.Reader) (any, error) {
			switch size {
			case 1:
				return r.Uint8()
			case 2:
				return r.Uint16()
			case 4:
				return r.Uint32()
			default:
				return r.Uint64()
			}
		},
		Write: func(w *byteorder.Writer, v any) error {
			n, err := toUnsigned(name, v, bits)
			if err != nil {
				return err
			}
			switch size {
			case 1:
				w.Uint8(uint8(n))
			case 2:
				w.Uint16(uint16(n))
			case 4:
				w.Uint32(uint32(n))
			default:
				w.Uint64(n)
			}
			return nil
		},
		Validate: validate,
	}
}

func floatPlugin() *Plugin {
	validate := func(v any) error {
		_, err := toFloat("float", v)
		return err
	}

	return &Plugin{
		Name:  "float",
		Fixed: 4,
		Read: func(r *byteorder.Reader) (any, error) {
			f, err := r.Float32()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
		Write: func(w *byteorder.Writer, v any) error {
			f, err := toFloat("float", v)
			if err != nil {
				return err
			}
			w.Float32(float32(f))
			return nil
		},
		Validate: validate,
	}
}

func doublePlugin() *Plugin {
	validate := func(v any) error {
		_, err := toFloat("double", v)
		return err
	}

	return &Plugin{
		Name:  "double",
		Fixed: 8,
		Read: func(r *byteorder.Reader) (any, error) {
			f, err := r.Float64()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
		Write: func(w *byteorder.Writer, v any) error {
			f, err := toFloat("double", v)
			if err != nil {
				return err
			}
			w.Float64(f)
			return nil
		},
		Validate: validate,
	}
}

// toSigned accepts any Go integer that fits in bits. nil encodes as zero.
func toSigned(typ string, v any, bits int) (int64, error) {
	var n int64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		n = int64(x)
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case uint, uint8, uint16, uint32, uint64:
		u, _ := toUnsigned(typ, x, 64)
		if u > math.MaxInt64 {
			return 0, invalid(typ, v, "out of range")
		}
		n = int64(u)
	default:
		return 0, invalid(typ, v, "must be an integer")
	}

	if bits < 64 {
		lo, hi := -int64(1)<<(bits-1), int64(1)<<(bits-1)-1
		if n < lo || n > hi {
			return 0, invalid(typ, v, "out of range")
		}
	}
	return n, nil
}

// toUnsigned accepts any non-negative Go integer that fits in bits. nil
// encodes as zero.
func toUnsigned(typ string, v any, bits int) (uint64, error) {
	var n uint64
	switch x := v.(type) {
	case nil:
		return 0, nil
	case uint:
		n = uint64(x)
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case int, int8, int16, int32, int64:
		s, _ := toSigned(typ, x, 64)
		if s < 0 {
			return 0, invalid(typ, v, "out of range")
		}
		n = uint64(s)
	default:
		return 0, invalid(typ, v, "must be an integer")
	}

	if bits < 64 && n > uint64(1)<<bits-1 {
		return 0, invalid(typ, v, "out of range")
	}
	return n, nil
}

func toFloat(typ string, v any) (float64, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case int, int8, int16, int32, int64:
		n, _ := toSigned(typ, x, 64)
		return float64(n), nil
	case uint, uint8, uint16, uint32, uint64:
		n, _ := toUnsigned(typ, x, 64)
		return float64(n), nil
	}
	return 0, invalid(typ, v, "must be a number")
}
