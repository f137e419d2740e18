package defs

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
	"github.com/hashicorp/go-multierror"
	"github.com/phuslu/log"
)

var fileNameRe = regexp.MustCompile(`^(.+?)\.(\d+)\.def$`)

// Table maps packet name -> version -> definition. It is filled once by
// LoadDir (or Add in tests) and must be treated as read only afterwards; reads
// need no locking.
type Table struct {
	defs map[string]map[int]*Definition

	// Skipped holds one error per definition file that could not be loaded.
	Skipped error
}

func NewTable() *Table {
	return &Table{defs: make(map[string]map[int]*Definition)}
}

// Add inserts def, replacing any definition with the same name and version.
func (t *Table) Add(def *Definition) {
	versions, ok := t.defs[def.Name]
	if !ok {
		versions = make(map[int]*Definition)
		t.defs[def.Name] = versions
	}
	versions[def.Version] = def
}

func (t *Table) Lookup(name string, version int) (*Definition, bool) {
	def, ok := t.defs[name][version]
	return def, ok
}

// Versions returns the known versions of a packet in ascending order.
func (t *Table) Versions(name string) []int {
	versions := make([]int, 0, len(t.defs[name]))
	for v := range t.defs[name] {
		versions = append(versions, v)
	}
	sort.Ints(versions)
	return versions
}

// Latest returns the highest known version of a packet.
func (t *Table) Latest(name string) (int, bool) {
	latest, found := 0, false
	for v := range t.defs[name] {
		if !found || v > latest {
			latest, found = v, true
		}
	}
	return latest, found
}

func (t *Table) Names() []string {
	names := make([]string, 0, len(t.defs))
	for name := range t.defs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the number of definitions across all packets and versions.
func (t *Table) Len() int {
	n := 0
	for _, versions := range t.defs {
		n += len(versions)
	}
	return n
}

// Fingerprint identifies the table contents; two tables loaded from identical
// definition files have the same fingerprint.
func (t *Table) Fingerprint() uint64 {
	h := xxhash.New()
	for _, name := range t.Names() {
		for _, v := range t.Versions(name) {
			fmt.Fprintf(h, "%s.%d:%016x\n", name, v, t.defs[name][v].Checksum)
		}
	}
	return h.Sum64()
}

// LoadDir parses every <NAME>.<VERSION>.def file in dir. A file that fails to
// load is logged and skipped, and its error is collected in Table.Skipped; only
// an unreadable directory is returned as an error.
func LoadDir(dir string, logger *log.Logger) (*Table, error) {
	if logger == nil {
		tmp := log.DefaultLogger
		logger = &tmp
		logger.Writer = &log.IOWriter{Writer: io.Discard}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read definition dir: %w", err)
	}

	t := NewTable()
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := fileNameRe.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}

		name := m[1]
		def, err := loadFile(filepath.Join(dir, entry.Name()), name, m[2])
		if err != nil {
			logger.Error().
				Str("file", entry.Name()).
				Err(err).
				Msgf("could not load definition %s.%s", name, m[2])

			t.Skipped = multierror.Append(t.Skipped, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		t.Add(def)
	}

	logger.Debug().
		Int("definitions", t.Len()).
		Int("packets", len(t.defs)).
		Msgf("loaded definitions from %s", dir)

	return t, nil
}

func loadFile(path, name, version string) (*Definition, error) {
	v, err := strconv.Atoi(version)
	if err != nil {
		return nil, fmt.Errorf("invalid version: %w", err)
	}

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	return Parse(name, v, src)
}
