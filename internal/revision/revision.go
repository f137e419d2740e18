package revision

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

var ErrInvalidRevision = errors.New("revision: invalid revision")

// (region-)major(.minor)(/sysmsg)
var revisionRe = regexp.MustCompile(`^(?:([^-/\d][^/]*?)-)?(\d+)(?:\.(\d+))?(?:/(\d+))?$`)

// Revision describes one protocol revision of the game client.
type Revision struct {
	Region string // empty when the revision has no region prefix
	Major  int
	Minor  int

	// Sysmsg is the system message table version; HasSysmsg is false when the
	// revision string did not name one.
	Sysmsg    int
	HasSysmsg bool
}

// Parse parses a revision string such as "4.7", "EU-4/9" or "NA-5.8/58".
func Parse(s string) (Revision, error) {
	m := revisionRe.FindStringSubmatch(s)
	if m == nil {
		return Revision{}, fmt.Errorf("%w %q", ErrInvalidRevision, s)
	}

	rev := Revision{Region: m[1]}

	var err error
	if rev.Major, err = strconv.Atoi(m[2]); err != nil {
		return Revision{}, fmt.Errorf("%w %q: %v", ErrInvalidRevision, s, err)
	}
	if m[3] != "" {
		if rev.Minor, err = strconv.Atoi(m[3]); err != nil {
			return Revision{}, fmt.Errorf("%w %q: %v", ErrInvalidRevision, s, err)
		}
	}
	if m[4] != "" {
		if rev.Sysmsg, err = strconv.Atoi(m[4]); err != nil {
			return Revision{}, fmt.Errorf("%w %q: %v", ErrInvalidRevision, s, err)
		}
		rev.HasSysmsg = true
	}

	return rev, nil
}

// GameVersion is major + minor/100, e.g. 4.07 for "4.7".
func (r Revision) GameVersion() float64 {
	return float64(r.Major) + float64(r.Minor)/100
}

// SysmsgVersion returns the system message table version, falling back to the
// major patch version.
func (r Revision) SysmsgVersion() int {
	if r.HasSysmsg {
		return r.Sysmsg
	}
	return r.Major
}

func (r Revision) String() string {
	s := strconv.Itoa(r.Major)
	if r.Minor != 0 {
		s += "." + strconv.Itoa(r.Minor)
	}
	if r.Region != "" {
		s = r.Region + "-" + s
	}
	if r.HasSysmsg {
		s += "/" + strconv.Itoa(r.Sysmsg)
	}
	return s
}
