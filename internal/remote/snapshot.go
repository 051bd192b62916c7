// Package remote holds the read-only snapshot of a submission's state on the
// journal platform: its galleys and the files inside them. A snapshot is
// fetched once per run and never mutated; the executor owns all remote
// changes.
package remote

// GalleyType identifies the presentation type a galley groups files for.
type GalleyType string

const (
	GalleyPDF         GalleyType = "PDF"
	GalleyHTML        GalleyType = "HTML"
	GalleyReplication GalleyType = "Replication Files"
	GalleyAppendix    GalleyType = "Online Appendix"
)

// GalleyTypes lists all types in their fixed priority order. Plans create
// galleys in this order.
var GalleyTypes = []GalleyType{GalleyPDF, GalleyHTML, GalleyReplication, GalleyAppendix}

// Label returns the galley label as it appears on the platform.
func (t GalleyType) Label() string {
	return string(t)
}

// File is one file already present in a remote galley.
type File struct {
	// ID is the platform's file ID.
	ID int

	// Name is the filename as stored remotely.
	Name string

	// GalleyID is the owning galley.
	GalleyID int

	// Dependent marks files attached to a galley's main file (figures and
	// stylesheets under an HTML document).
	Dependent bool
}

// Galley is a remote container of files for one presentation type.
type Galley struct {
	// ID is the platform's galley (representation) ID.
	ID int

	// Type is the presentation type, derived from the galley's label.
	Type GalleyType

	// Files holds the galley's files in the platform's order, main file
	// first.
	Files []File
}

// MainFile returns the galley's main file, or nil when the galley is empty.
func (g *Galley) MainFile() *File {
	for i := range g.Files {
		if !g.Files[i].Dependent {
			return &g.Files[i]
		}
	}
	return nil
}

// Snapshot is the remote state of one submission at a point in time.
type Snapshot struct {
	SubmissionID  int
	PublicationID int
	Galleys       []Galley
}

// GalleysOf returns every galley of the given type. More than one galley of a
// type is possible on the platform and is what makes a slot ambiguous.
func (s *Snapshot) GalleysOf(t GalleyType) []Galley {
	var out []Galley
	for _, g := range s.Galleys {
		if g.Type == t {
			out = append(out, g)
		}
	}
	return out
}

// Galley returns the single galley of the given type, or nil when none
// exists. When several exist the first is returned; callers that care about
// ambiguity use GalleysOf.
func (s *Snapshot) Galley(t GalleyType) *Galley {
	for i := range s.Galleys {
		if s.Galleys[i].Type == t {
			return &s.Galleys[i]
		}
	}
	return nil
}

// HasContent reports whether any galley holds at least one file.
func (s *Snapshot) HasContent() bool {
	for _, g := range s.Galleys {
		if len(g.Files) > 0 {
			return true
		}
	}
	return false
}

// FileCount returns the total number of remote files across all galleys.
func (s *Snapshot) FileCount() int {
	n := 0
	for _, g := range s.Galleys {
		n += len(g.Files)
	}
	return n
}
