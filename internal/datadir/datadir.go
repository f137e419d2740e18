// Package datadir reads protocol data laid out on disk as:
//
//	revisions.toml                 protocol identifier -> revision string
//	map/protocol.<identifier>.map  opcode table
//	map/sysmsg.<version>.map       system message table
//	protocol/<NAME>.<VERSION>.def  packet definitions
package datadir

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/BurntSushi/toml"
	"github.com/aion-proxy/aion-data-parser/internal/defs"
	"github.com/aion-proxy/aion-data-parser/internal/enum"
	"github.com/phuslu/log"
)

const (
	RevisionsFile = "revisions.toml"
	MapDir        = "map"
	DefinitionDir = "protocol"
)

type revisionsFile struct {
	Revisions map[string]string `toml:"revisions"`
}

// Dir is a data directory. It implements registry.Resources.
type Dir struct {
	root      string
	revisions map[string]string
}

func Open(root string) (*Dir, error) {
	var f revisionsFile
	path := filepath.Join(root, RevisionsFile)
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("could not load %s: %w", path, err)
	}
	if f.Revisions == nil {
		f.Revisions = make(map[string]string)
	}

	return &Dir{root: root, revisions: f.Revisions}, nil
}

func (d *Dir) Revision(identifier string) (string, bool) {
	rev, ok := d.revisions[identifier]
	return rev, ok
}

// Identifiers returns every protocol identifier listed in revisions.toml.
func (d *Dir) Identifiers() []string {
	ids := make([]string, 0, len(d.revisions))
	for id := range d.revisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (d *Dir) EnumPath(kind enum.Kind, key string) string {
	return filepath.Join(d.root, MapDir, fmt.Sprintf("%s.%s.map", kind, key))
}

func (d *Dir) Enum(kind enum.Kind, key string) (*enum.Enum, error) {
	return enum.Load(d.EnumPath(kind, key))
}

// LoadDefinitions loads every definition under protocol/.
func (d *Dir) LoadDefinitions(logger *log.Logger) (*defs.Table, error) {
	return defs.LoadDir(filepath.Join(d.root, DefinitionDir), logger)
}
