package relaytest_test

import (
	"context"
	"testing"
	"time"

	"github.com/aion-proxy/aion-data-parser/internal/datadir"
	"github.com/aion-proxy/aion-data-parser/internal/protocol"
	"github.com/aion-proxy/aion-data-parser/internal/registry"
	"github.com/aion-proxy/aion-data-parser/internal/relay"
	"github.com/aion-proxy/aion-data-parser/internal/relayclient"
	"github.com/matryer/is"
	"github.com/phuslu/log"
)

func TestTwoClients(t *testing.T) {
	is := is.New(t)

	logger := log.DefaultLogger
	// https://github.com/phuslu/log?tab=readme-ov-file#pretty-console-writer
	logger.Caller = 1
	logger.TimeFormat = "15:04:05"
	logger.Writer = &log.ConsoleWriter{
		ColorOutput:    true,
		QuoteString:    true,
		EndWithMessage: true,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dir, err := datadir.Open("../datadir/testdata")
	is.NoErr(err)
	table, err := dir.LoadDefinitions(&logger)
	is.NoErr(err)

	reg, err := registry.New("100", table, dir, &logger)
	is.NoErr(err)

	// pin C_CHAT to the old layout on both ends
	versions := protocol.VersionTable{"C_CHAT": 1}

	rl, err := relay.New("udp4", "127.0.0.1:0", reg, relay.Options{Versions: versions}, &logger)
	is.NoErr(err)
	go rl.Run(ctx)

	// setup client one

	one, err := relayclient.New("udp4", rl.Addr().String(), reg, versions, &logger)
	is.NoErr(err)
	go one.Run(ctx)

	// setup client two

	two, err := relayclient.New("udp4", rl.Addr().String(), reg, versions, &logger)
	is.NoErr(err)
	go two.Run(ctx)

	// both ping; one sees two's ping once both are known

	t.Log("ping one")
	is.NoErr(one.Send("C_PING", map[string]any{"time": 1}))
	time.Sleep(50 * time.Millisecond)

	t.Log("ping two")
	is.NoErr(two.Send("C_PING", map[string]any{"time": 2}))

	ping, err := one.RecvPacket("C_PING")
	is.NoErr(err)
	is.Equal(ping.Opcode, uint16(0x0001))
	is.Equal(ping.Value["time"], uint32(2))

	// chat from one reaches two

	t.Log("chat")
	is.NoErr(one.Send("C_CHAT", map[string]any{"channel": 3, "text": "hello from one"}))

	chat, err := two.RecvPacket("C_CHAT")
	is.NoErr(err)
	is.Equal(chat.Value, map[string]any{"channel": uint8(3), "text": "hello from one"})

	// reg compiled C_PING.1 and C_CHAT.1 once each, however often they were
	// read and written
	is.Equal(reg.Compilations(), int64(2))
}
