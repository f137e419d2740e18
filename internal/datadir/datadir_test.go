package datadir_test

import (
	"errors"
	"os"
	"testing"

	"github.com/aion-proxy/aion-data-parser/internal/datadir"
	"github.com/aion-proxy/aion-data-parser/internal/enum"
	"github.com/matryer/is"
)

func TestOpen(t *testing.T) {
	is := is.New(t)

	dir, err := datadir.Open("testdata")
	is.NoErr(err)
	is.Equal(dir.Identifiers(), []string{"100", "200", "300", "400"})

	rev, ok := dir.Revision("200")
	is.True(ok)
	is.Equal(rev, "EU-5.8/58")

	_, ok = dir.Revision("999")
	is.True(!ok)
}

func TestOpenMissing(t *testing.T) {
	is := is.New(t)

	_, err := datadir.Open(t.TempDir())
	is.True(errors.Is(err, os.ErrNotExist))
}

func TestEnum(t *testing.T) {
	is := is.New(t)

	dir, err := datadir.Open("testdata")
	is.NoErr(err)

	opcodes, err := dir.Enum(enum.Opcodes, "100")
	is.NoErr(err)
	code, ok := opcodes.Code("S_CHAT")
	is.True(ok)
	is.Equal(code, 0x112)

	sysmsgs, err := dir.Enum(enum.Sysmsgs, "58")
	is.NoErr(err)
	is.Equal(sysmsgs.Len(), 1)

	_, err = dir.Enum(enum.Sysmsgs, "7")
	is.True(errors.Is(err, os.ErrNotExist))
}

func TestLoadDefinitions(t *testing.T) {
	is := is.New(t)

	dir, err := datadir.Open("testdata")
	is.NoErr(err)

	table, err := dir.LoadDefinitions(nil)
	is.NoErr(err)
	is.Equal(table.Names(), []string{"C_CHAT", "C_MOVE", "C_PING", "S_CHAT", "S_LOGIN_ARBITER", "S_PONG"})
	is.Equal(table.Versions("C_CHAT"), []int{1, 2})

	// S_BROKEN is skipped
	is.True(table.Skipped != nil)
}
