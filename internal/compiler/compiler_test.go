package compiler_test

import (
	"errors"
	"testing"

	"github.com/aion-proxy/aion-data-parser/internal/byteorder"
	"github.com/aion-proxy/aion-data-parser/internal/compiler"
	"github.com/aion-proxy/aion-data-parser/internal/defs"
	"github.com/aion-proxy/aion-data-parser/internal/types"
	"github.com/matryer/is"
)

const chatDef = `uint16 channel
string author
array attachments
- int32 id
- object pos
-- float x
-- float y
bool whisper
string text
`

func compile(t *testing.T, src string) *compiler.Codec {
	t.Helper()
	is := is.New(t)

	def, err := defs.Parse("S_CHAT", 1, []byte(src))
	is.NoErr(err)

	codec, err := compiler.Compile(def, types.NewSet(4.0))
	is.NoErr(err)
	return codec
}

func TestRoundTrip(t *testing.T) {
	is := is.New(t)
	codec := compile(t, chatDef)

	in := map[string]any{
		"channel": uint16(3),
		"author":  "Daeva",
		"attachments": []any{
			map[string]any{"id": int32(1), "pos": map[string]any{"x": float32(1.5), "y": float32(-2)}},
			map[string]any{"id": int32(-7), "pos": map[string]any{"x": float32(0), "y": float32(0)}},
		},
		"whisper": true,
		"text":    "",
	}

	n, err := codec.Measure(in)
	is.NoErr(err)

	buf, err := codec.Encode(in, 7)
	is.NoErr(err)
	is.Equal(len(buf), 7+n)
	is.Equal(buf[:7], make([]byte, 7)) // prefix is left for the caller

	out, next, err := codec.Decode(buf, 7)
	is.NoErr(err)
	is.Equal(next, len(buf))
	is.Equal(out, in)
}

func TestDefaults(t *testing.T) {
	is := is.New(t)
	codec := compile(t, chatDef)

	// missing fields encode as zero values, strings as ""
	buf, err := codec.Encode(map[string]any{"author": nil}, 0)
	is.NoErr(err)

	out, _, err := codec.Decode(buf, 0)
	is.NoErr(err)
	is.Equal(out, map[string]any{
		"channel":     uint16(0),
		"author":      "",
		"attachments": []any{},
		"whisper":     false,
		"text":        "",
	})

	null, err := codec.Encode(nil, 0)
	is.NoErr(err)
	is.Equal(null, buf)
}

func TestTypedArray(t *testing.T) {
	is := is.New(t)
	codec := compile(t, "array items\n- byte v\n")

	a, err := codec.Encode(map[string]any{"items": []map[string]any{{"v": 1}, {"v": 2}}}, 0)
	is.NoErr(err)
	b, err := codec.Encode(map[string]any{"items": []any{map[string]any{"v": 1}, map[string]any{"v": 2}}}, 0)
	is.NoErr(err)

	is.Equal(a, b)
	is.Equal(a, []byte{2, 0, 1, 2})
}

func TestMeasureMatchesEncode(t *testing.T) {
	codec := compile(t, chatDef)

	for _, text := range []any{nil, "", "a", "hello world", "한국어 텍스트"} {
		is := is.New(t)
		v := map[string]any{"text": text, "author": text}

		n, err := codec.Measure(v)
		is.NoErr(err)

		buf, err := codec.Encode(v, 0)
		is.NoErr(err)
		is.Equal(len(buf), n)
	}
}

func TestCompileErrors(t *testing.T) {
	set := types.NewSet(4.0)

	testCases := []struct {
		name string
		def  *defs.Definition
	}{
		{"nil", nil},
		{"unknown type", &defs.Definition{Name: "P", Fields: []*defs.Field{{Type: "vector3", Name: "pos", Line: 1}}}},
		{"empty object", &defs.Definition{Name: "P", Fields: []*defs.Field{{Type: defs.TypeObject, Name: "o"}}}},
		{"primitive with children", &defs.Definition{Name: "P", Fields: []*defs.Field{
			{Type: "int32", Name: "a", Fields: []*defs.Field{{Type: "int32", Name: "b"}}},
		}}},
		{"duplicate", &defs.Definition{Name: "P", Fields: []*defs.Field{
			{Type: "int32", Name: "a"}, {Type: "byte", Name: "a"},
		}}},
		{"unnamed", &defs.Definition{Name: "P", Fields: []*defs.Field{{Type: "int32"}}}},
		{"nested unknown", &defs.Definition{Name: "P", Fields: []*defs.Field{
			{Type: defs.TypeArray, Name: "a", Fields: []*defs.Field{{Type: "int128", Name: "b"}}},
		}}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			_, err := compiler.Compile(tc.def, set)
			is.True(errors.Is(err, compiler.ErrCompilation))
		})
	}
}

func TestValidationNamesField(t *testing.T) {
	is := is.New(t)
	codec := compile(t, chatDef)

	_, err := codec.Measure(map[string]any{"text": 42})
	is.True(errors.Is(err, types.ErrTypeValidation))
	var fe *compiler.FieldError
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "text")

	_, err = codec.Encode(map[string]any{
		"attachments": []any{
			map[string]any{},
			map[string]any{"pos": map[string]any{"y": "up"}},
		},
	}, 0)
	is.True(errors.Is(err, types.ErrTypeValidation))
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "attachments[1].pos.y")

	_, err = codec.Measure(map[string]any{"attachments": []any{"nope"}})
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "attachments[0]")

	_, err = codec.Measure(map[string]any{"attachments": "nope"})
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "attachments")
}

func TestTruncated(t *testing.T) {
	is := is.New(t)
	codec := compile(t, "uint32 a\nint64 b\n")

	buf, err := codec.Encode(map[string]any{"a": 1, "b": 2}, 0)
	is.NoErr(err)

	for n := 0; n < len(buf); n++ {
		v, _, err := codec.Decode(buf[:n], 0)
		is.True(errors.Is(err, byteorder.ErrTruncated))
		is.Equal(v, nil)
	}

	var fe *compiler.FieldError
	_, _, err = codec.Decode(buf[:6], 0)
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "b")
}

func TestTruncatedArray(t *testing.T) {
	is := is.New(t)
	codec := compile(t, "array items\n- uint16 v\n")

	// claims three items, carries one
	_, _, err := codec.Decode([]byte{3, 0, 1, 0}, 0)
	is.True(errors.Is(err, byteorder.ErrTruncated))

	var fe *compiler.FieldError
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "items[1].v")
}

func TestStringWithNUL(t *testing.T) {
	is := is.New(t)
	codec := compile(t, "string a\nuint32 b\n")

	in := map[string]any{"a": "x\x00y", "b": 7}

	_, err := codec.Measure(in)
	is.True(errors.Is(err, types.ErrTypeValidation))

	buf, err := codec.Encode(in, 0)
	is.True(errors.Is(err, types.ErrTypeValidation))
	is.Equal(buf, nil)

	var fe *compiler.FieldError
	is.True(errors.As(err, &fe))
	is.Equal(fe.Path, "a")

	// without the NUL the trailing field is read back intact
	buf, err = codec.Encode(map[string]any{"a": "xy", "b": 7}, 0)
	is.NoErr(err)
	out, next, err := codec.Decode(buf, 0)
	is.NoErr(err)
	is.Equal(next, len(buf))
	is.Equal(out, map[string]any{"a": "xy", "b": uint32(7)})
}
