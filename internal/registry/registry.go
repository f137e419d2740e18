// Package registry resolves packets by name or opcode and version to compiled
// codecs, caches them for the registry's lifetime, and frames payloads with
// the wire header.
//
// One Registry serves one protocol revision. The definition table is passed
// in, so registries for different revisions can share it.
package registry

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/aion-proxy/aion-data-parser/internal/compiler"
	"github.com/aion-proxy/aion-data-parser/internal/defs"
	"github.com/aion-proxy/aion-data-parser/internal/enum"
	"github.com/aion-proxy/aion-data-parser/internal/revision"
	"github.com/aion-proxy/aion-data-parser/internal/types"
	"github.com/phuslu/log"
	"golang.org/x/sync/singleflight"
)

var (
	ErrRevisionNotFound = errors.New("registry: revision not found")
	ErrResourceNotFound = errors.New("registry: resource not found")
	ErrUnknownPacket    = errors.New("registry: unknown packet")
	ErrUnmapped         = errors.New("registry: packet has no opcode")
)

// Resources supplies the revision table and enum tables a Registry is built
// from. datadir.Dir is the on-disk implementation.
type Resources interface {
	Revision(identifier string) (string, bool)
	Enum(kind enum.Kind, key string) (*enum.Enum, error)
}

type nameKey struct {
	name    string
	version int
}

// opcodeKey packs opcode and version the same way the client does:
// opcode | version << 16.
func opcodeKey(opcode uint16, version int) (uint32, bool) {
	if version < 0 || version > math.MaxUint16 {
		return 0, false
	}
	return uint32(opcode) | uint32(version)<<16, true
}

type Registry struct {
	identifier string
	revision   revision.Revision
	opcodes    *enum.Enum
	sysmsgs    *enum.Enum
	types      *types.Set
	defs       *defs.Table

	logger  *log.Logger
	metrics *metrics

	mu       sync.RWMutex
	byName   map[nameKey]*compiler.Codec
	byOpcode map[uint32]*compiler.Codec

	flight       singleflight.Group
	compilations atomic.Int64
}

// New builds the registry for the protocol revision identified by identifier.
func New(identifier string, table *defs.Table, res Resources, logger *log.Logger) (*Registry, error) {
	if table == nil {
		return nil, errors.New("registry: no definition table")
	}

	// if logger is nil (which might be true in tests) => use default, but
	// silenced logger
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	revString, ok := res.Revision(identifier)
	if !ok {
		return nil, fmt.Errorf("%w: entry for protocol %s not found", ErrRevisionNotFound, identifier)
	}

	rev, err := revision.Parse(revString)
	if err != nil {
		return nil, fmt.Errorf("could not parse revision of protocol %s: %w", identifier, err)
	}

	opcodes, err := res.Enum(enum.Opcodes, identifier)
	if err != nil {
		return nil, fmt.Errorf("%w: protocol.%s.map: %v", ErrResourceNotFound, identifier, err)
	}
	if opcodes.Len() > 0 && (opcodes.MinCode() < 0 || opcodes.MaxCode() > math.MaxUint16) {
		return nil, fmt.Errorf("protocol.%s.map: opcodes must fit in 16 bits", identifier)
	}

	sysmsgKey := strconv.Itoa(rev.SysmsgVersion())
	sysmsgs, err := res.Enum(enum.Sysmsgs, sysmsgKey)
	if err != nil {
		return nil, fmt.Errorf("%w: sysmsg.%s.map: %v", ErrResourceNotFound, sysmsgKey, err)
	}

	r := &Registry{
		identifier: identifier,
		revision:   rev,
		opcodes:    opcodes,
		sysmsgs:    sysmsgs,
		types:      types.NewSet(rev.GameVersion()),
		defs:       table,

		logger:  logger,
		metrics: newMetrics(identifier),

		byName:   make(map[nameKey]*compiler.Codec),
		byOpcode: make(map[uint32]*compiler.Codec),
	}

	logger.Info().
		Str("protocol", identifier).
		Str("revision", rev.String()).
		Float64("game_version", rev.GameVersion()).
		Int("opcodes", opcodes.Len()).
		Int("sysmsgs", sysmsgs.Len()).
		Msg("registry ready")

	return r, nil
}

func (r *Registry) Identifier() string { return r.identifier }
func (r *Registry) Revision() revision.Revision { return r.revision }
func (r *Registry) Opcodes() *enum.Enum { return r.opcodes }
func (r *Registry) Sysmsgs() *enum.Enum { return r.sysmsgs }
func (r *Registry) Types() *types.Set { return r.types }

// Compilations returns how many definitions this registry has compiled.
func (r *Registry) Compilations() int64 { return r.compilations.Load() }

// Compile compiles def against this registry's types without caching it.
func (r *Registry) Compile(def *defs.Definition) (*compiler.Codec, error) {
	return compiler.Compile(def, r.types)
}
