package defs_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aion-proxy/aion-data-parser/internal/defs"
	"github.com/hashicorp/go-multierror"
	"github.com/matryer/is"
)

const chatDef = `# chat message
uint16 channel
string author
array attachments
- int32 id
- object pos
-- float x
-- float y
string text
`

func TestParse(t *testing.T) {
	is := is.New(t)

	def, err := defs.Parse("S_CHAT", 3, []byte(chatDef))
	is.NoErr(err)
	is.Equal(def.String(), "S_CHAT.3")
	is.Equal(len(def.Fields), 4)

	is.Equal(def.Fields[0].Type, "uint16")
	is.Equal(def.Fields[0].Name, "channel")
	is.Equal(def.Fields[0].Line, 2)

	attachments := def.Fields[2]
	is.True(attachments.IsStruct())
	is.Equal(len(attachments.Fields), 2)
	is.Equal(attachments.Fields[1].Type, defs.TypeObject)
	is.Equal(attachments.Fields[1].Fields[1].Name, "y")

	is.Equal(def.Fields[3].Name, "text")
	is.True(def.Checksum != 0)
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		line int
	}{
		{"skipped level", "array a\n-- int32 b\n", 2},
		{"child of primitive", "int32 a\n- int32 b\n", 2},
		{"duplicate", "int32 a\nstring a\n", 2},
		{"missing name", "int32\n", 1},
		{"bad name", "int32 1a\n", 1},
		{"empty array", "array a\nint32 b\n", 1},
		{"too many parts", "int32 a b\n", 1},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			is := is.New(t)

			_, err := defs.Parse("P", 1, []byte(tc.src))
			var perr *defs.ParseError
			is.True(errors.As(err, &perr))
			is.Equal(perr.Line, tc.line)
		})
	}
}

func TestParseUnknownTypeIsNotAParseError(t *testing.T) {
	is := is.New(t)

	def, err := defs.Parse("P", 1, []byte("vector3 pos\n"))
	is.NoErr(err)
	is.Equal(def.Fields[0].Type, "vector3")
}

func TestTable(t *testing.T) {
	is := is.New(t)

	table := defs.NewTable()
	for _, v := range []int{1, 7, 3} {
		def, err := defs.Parse("C_MOVE", v, []byte("float x\n"))
		is.NoErr(err)
		table.Add(def)
	}

	is.Equal(table.Len(), 3)
	is.Equal(table.Names(), []string{"C_MOVE"})
	is.Equal(table.Versions("C_MOVE"), []int{1, 3, 7})

	latest, ok := table.Latest("C_MOVE")
	is.True(ok)
	is.Equal(latest, 7)

	_, ok = table.Latest("C_NOPE")
	is.True(!ok)

	def, ok := table.Lookup("C_MOVE", 3)
	is.True(ok)
	is.Equal(def.Version, 3)

	_, ok = table.Lookup("C_MOVE", 2)
	is.True(!ok)
}

func writeFile(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadDir(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	writeFile(t, dir, "S_CHAT.3.def", chatDef)
	writeFile(t, dir, "S_CHAT.4.def", chatDef+"bool whisper\n")
	writeFile(t, dir, "C_PING.1.def", "uint32 time\n")
	writeFile(t, dir, "C_BROKEN.1.def", "array a\n-- int32 b\n")
	writeFile(t, dir, "README.md", "not a definition")
	is.NoErr(os.Mkdir(filepath.Join(dir, "X.1.def"), 0o755))

	table, err := defs.LoadDir(dir, nil)
	is.NoErr(err)

	is.Equal(table.Names(), []string{"C_PING", "S_CHAT"})
	is.Equal(table.Versions("S_CHAT"), []int{3, 4})

	// the broken file is skipped, not fatal
	var merr *multierror.Error
	is.True(errors.As(table.Skipped, &merr))
	is.Equal(len(merr.Errors), 1)
	var perr *defs.ParseError
	is.True(errors.As(table.Skipped, &perr))
}

func TestLoadDirMissing(t *testing.T) {
	is := is.New(t)

	_, err := defs.LoadDir(filepath.Join(t.TempDir(), "nope"), nil)
	is.True(err != nil)
}

func TestFingerprint(t *testing.T) {
	is := is.New(t)

	dir := t.TempDir()
	writeFile(t, dir, "S_CHAT.3.def", chatDef)
	writeFile(t, dir, "C_PING.1.def", "uint32 time\n")

	a, err := defs.LoadDir(dir, nil)
	is.NoErr(err)
	b, err := defs.LoadDir(dir, nil)
	is.NoErr(err)
	is.Equal(a.Fingerprint(), b.Fingerprint())

	writeFile(t, dir, "C_PING.1.def", "uint32 time\nuint32 seq\n")
	c, err := defs.LoadDir(dir, nil)
	is.NoErr(err)
	is.True(a.Fingerprint() != c.Fingerprint())
}
