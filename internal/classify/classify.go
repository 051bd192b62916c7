// Package classify maps discovered submission files to their logical roles
// using the SRM naming conventions.
//
// Classification is a pure mapping: every entry gets exactly one role, rules
// are tried in a fixed priority order and the first match wins, and entries
// matching no rule are kept as Unrecognized rather than dropped. That keeps
// ambiguity (a name containing both "replication" and a .css extension)
// resolved the same way on every run.
package classify

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/srmjournal/oja/internal/source"
)

// Role is the logical role of a submission file.
type Role string

const (
	RolePDF          Role = "pdf"
	RoleHTML         Role = "html"
	RoleFigure       Role = "figure"
	RoleCSS          Role = "css"
	RoleReplication  Role = "replication"
	RoleAppendix     Role = "appendix"
	RoleUnrecognized Role = "unrecognized"
)

// ClassifiedFile is one source entry with its resolved role.
type ClassifiedFile struct {
	// Entry is the underlying discovered file.
	Entry source.Entry

	// Role is the logical role assigned by the first matching rule.
	Role Role

	// SubmissionID the file was classified against.
	SubmissionID int

	// FigureKey is the natural ordering key, set only for RoleFigure.
	FigureKey NaturalKey

	// Ordinal is the file's position in discovery order. CSS files keep this
	// order inside the HTML galley.
	Ordinal int
}

// Name returns the source filename.
func (f *ClassifiedFile) Name() string {
	return f.Entry.Name()
}

// Slot returns the logical slot identity used to match this file against
// remote state: the natural key for figures, the filename for roles that hold
// several files per galley, and the role itself for the single-document roles
// (PDF, HTML).
func (f *ClassifiedFile) Slot() string {
	switch f.Role {
	case RoleFigure:
		return "figure:" + f.FigureKey.String()
	case RoleCSS, RoleReplication, RoleAppendix:
		return string(f.Role) + ":" + strings.ToLower(f.Entry.Name())
	default:
		return string(f.Role)
	}
}

// rules holds the compiled patterns for one submission ID.
type rules struct {
	pdf      *regexp.Regexp
	appendix *regexp.Regexp
	html     *regexp.Regexp
	figure   *regexp.Regexp
}

func compileRules(submissionID int) *rules {
	id := regexp.QuoteMeta(fmt.Sprintf("%d", submissionID))
	return &rules{
		pdf:      regexp.MustCompile(`^srm_` + id + `_OnlinePDF\.pdf$`),
		appendix: regexp.MustCompile(`^800000_[0-9]+_` + id + `_MOESM[0-9]+_ESM\.pdf$`),
		html:     regexp.MustCompile(`^srm_` + id + `\.html$`),
		figure:   regexp.MustCompile(`^srm_` + id + `_Fig([0-9A-Za-z]+)_HTML\.[0-9A-Za-z]+$`),
	}
}

// classifyName runs the rule list against one filename. The returned key is
// non-nil only for figures.
func (r *rules) classifyName(name string) (Role, NaturalKey) {
	switch {
	case r.pdf.MatchString(name):
		return RolePDF, nil
	case r.appendix.MatchString(name):
		return RoleAppendix, nil
	case r.html.MatchString(name):
		return RoleHTML, nil
	}
	if m := r.figure.FindStringSubmatch(name); m != nil {
		return RoleFigure, NewNaturalKey(m[1])
	}
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".css"):
		return RoleCSS, nil
	case strings.Contains(lower, "replication"):
		return RoleReplication, nil
	}
	return RoleUnrecognized, nil
}

// Classify assigns a role to every entry. It never fails: unexpected files
// come back as RoleUnrecognized and stay in the result for reporting.
func Classify(entries []source.Entry, submissionID int) []ClassifiedFile {
	r := compileRules(submissionID)
	files := make([]ClassifiedFile, 0, len(entries))
	for i, e := range entries {
		role, key := r.classifyName(e.Name())
		files = append(files, ClassifiedFile{
			Entry:        e,
			Role:         role,
			SubmissionID: submissionID,
			FigureKey:    key,
			Ordinal:      i,
		})
	}
	return files
}

// FigureKeyOf applies the figure rule to a bare filename. It is how remote
// filenames are matched to local figure slots. ok is false when the name is
// not a figure of this submission.
func FigureKeyOf(name string, submissionID int) (key NaturalKey, ok bool) {
	r := compileRules(submissionID)
	if m := r.figure.FindStringSubmatch(name); m != nil {
		return NewNaturalKey(m[1]), true
	}
	return nil, false
}

// ByRole groups classified files per role, preserving discovery order within
// each group.
func ByRole(files []ClassifiedFile) map[Role][]ClassifiedFile {
	groups := make(map[Role][]ClassifiedFile)
	for _, f := range files {
		groups[f.Role] = append(groups[f.Role], f)
	}
	return groups
}

// SortFigures orders figure files by their natural key, ascending. Ordinal
// breaks ties so the order is total.
func SortFigures(figures []ClassifiedFile) {
	sort.SliceStable(figures, func(i, j int) bool {
		if c := figures[i].FigureKey.Compare(figures[j].FigureKey); c != 0 {
			return c < 0
		}
		return figures[i].Ordinal < figures[j].Ordinal
	})
}
