// Package analyze diffs the classified local files against the remote
// snapshot and assigns each file a verdict: new, identical, or conflicting.
// The analysis is read-only; it consults nothing but its two inputs, so the
// same inputs always produce the same report.
package analyze

import (
	"fmt"
	"strings"

	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/remote"
)

// Verdict is the outcome of comparing one local file's logical slot against
// the remote snapshot.
type Verdict int

const (
	// VerdictNew means the slot has no remote counterpart; the file uploads
	// without touching anything.
	VerdictNew Verdict = iota

	// VerdictIdentical means a remote file with a matching fingerprint
	// already occupies the slot; there is nothing to upload.
	VerdictIdentical

	// VerdictConflicting means the slot is occupied by a remote file with a
	// differing fingerprint, or the slot matched in more than one remote
	// galley and needs manual review.
	VerdictConflicting
)

// String returns the verdict name for display.
func (v Verdict) String() string {
	switch v {
	case VerdictNew:
		return "new"
	case VerdictIdentical:
		return "identical"
	case VerdictConflicting:
		return "conflicting"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Finding is the verdict for one classified file.
type Finding struct {
	// File is the local file the verdict applies to.
	File classify.ClassifiedFile

	// Verdict is the comparison outcome.
	Verdict Verdict

	// GalleyType is the galley the file belongs in.
	GalleyType remote.GalleyType

	// GalleyID is the existing remote galley for that type, 0 when none
	// exists yet.
	GalleyID int

	// RemoteName is the name of the matched remote file, empty for new
	// slots.
	RemoteName string

	// Reason explains the verdict in one line, for the conflict report.
	Reason string
}

// RoleCounts aggregates verdicts for one role.
type RoleCounts struct {
	New         int
	Identical   int
	Conflicting int
}

// Report is the full result of analyzing a submission.
type Report struct {
	// Findings holds one entry per classified file with a known role, in
	// input order.
	Findings []Finding

	// Counts aggregates verdicts per role.
	Counts map[classify.Role]RoleCounts

	// Unrecognized lists files that matched no naming rule. They carry no
	// verdict and never enter a plan.
	Unrecognized []classify.ClassifiedFile
}

// Conflicts returns the findings with a conflicting verdict.
func (r *Report) Conflicts() []Finding {
	var out []Finding
	for _, f := range r.Findings {
		if f.Verdict == VerdictConflicting {
			out = append(out, f)
		}
	}
	return out
}

// HasConflicts reports whether any slot conflicts.
func (r *Report) HasConflicts() bool {
	for _, f := range r.Findings {
		if f.Verdict == VerdictConflicting {
			return true
		}
	}
	return false
}

// UploadableCount returns how many files would upload under a
// non-conflicting-only policy.
func (r *Report) UploadableCount() int {
	n := 0
	for _, f := range r.Findings {
		if f.Verdict == VerdictNew {
			n++
		}
	}
	return n
}

// GalleyForRole maps a file role to the galley type it publishes into.
// Figures and stylesheets live in the HTML galley as dependent files.
func GalleyForRole(role classify.Role) (remote.GalleyType, bool) {
	switch role {
	case classify.RolePDF:
		return remote.GalleyPDF, true
	case classify.RoleHTML, classify.RoleFigure, classify.RoleCSS:
		return remote.GalleyHTML, true
	case classify.RoleReplication:
		return remote.GalleyReplication, true
	case classify.RoleAppendix:
		return remote.GalleyAppendix, true
	default:
		return "", false
	}
}

// Analyze compares classified files against the remote snapshot. An empty
// snapshot is the first-time-submission case and needs no special handling:
// every slot simply has no remote counterpart.
func Analyze(files []classify.ClassifiedFile, snap *remote.Snapshot) *Report {
	report := &Report{Counts: make(map[classify.Role]RoleCounts)}

	for _, f := range files {
		if f.Role == classify.RoleUnrecognized {
			report.Unrecognized = append(report.Unrecognized, f)
			continue
		}
		galleyType, _ := GalleyForRole(f.Role)
		finding := judge(f, galleyType, snap)
		report.Findings = append(report.Findings, finding)

		c := report.Counts[f.Role]
		switch finding.Verdict {
		case VerdictNew:
			c.New++
		case VerdictIdentical:
			c.Identical++
		case VerdictConflicting:
			c.Conflicting++
		}
		report.Counts[f.Role] = c
	}

	return report
}

// judge resolves the verdict for one file.
func judge(f classify.ClassifiedFile, galleyType remote.GalleyType, snap *remote.Snapshot) Finding {
	finding := Finding{File: f, GalleyType: galleyType}

	galleys := snap.GalleysOf(galleyType)
	if len(galleys) == 0 {
		finding.Verdict = VerdictNew
		finding.Reason = "no " + galleyType.Label() + " galley exists yet"
		return finding
	}
	finding.GalleyID = galleys[0].ID

	matches := matchSlot(f, galleys)
	if len(matches) == 0 {
		finding.Verdict = VerdictNew
		finding.Reason = "no remote file occupies this slot"
		return finding
	}

	// The same slot occupied in more than one galley of the type cannot be
	// resolved automatically; never guess which remote file to replace.
	if galleysOfMatches(matches) > 1 {
		finding.Verdict = VerdictConflicting
		finding.RemoteName = matches[0].Name
		finding.Reason = fmt.Sprintf("slot found in %d %s galleys, manual review required", galleysOfMatches(matches), galleyType.Label())
		return finding
	}

	m := matches[0]
	finding.RemoteName = m.Name
	finding.GalleyID = m.GalleyID
	if strings.EqualFold(m.Name, f.Name()) {
		finding.Verdict = VerdictIdentical
		finding.Reason = "remote file " + m.Name + " matches"
	} else {
		finding.Verdict = VerdictConflicting
		finding.Reason = "slot occupied by remote file " + m.Name
	}
	return finding
}

// matchSlot finds the remote files occupying the local file's logical slot.
//
//   - PDF and HTML documents own their galley's main slot: any main file
//     occupies it.
//   - Figures match a remote file whose name carries the same natural key.
//   - Stylesheets, replication and appendix files match per filename.
func matchSlot(f classify.ClassifiedFile, galleys []remote.Galley) []remote.File {
	var matches []remote.File
	for _, g := range galleys {
		for _, rf := range g.Files {
			if occupiesSlot(f, rf) {
				matches = append(matches, rf)
			}
		}
	}
	return matches
}

func occupiesSlot(f classify.ClassifiedFile, rf remote.File) bool {
	switch f.Role {
	case classify.RolePDF, classify.RoleHTML:
		return !rf.Dependent
	case classify.RoleFigure:
		key, ok := classify.FigureKeyOf(rf.Name, f.SubmissionID)
		return ok && key.String() == f.FigureKey.String()
	default:
		return strings.EqualFold(rf.Name, f.Name())
	}
}

func galleysOfMatches(matches []remote.File) int {
	seen := make(map[int]bool)
	for _, m := range matches {
		seen[m.GalleyID] = true
	}
	return len(seen)
}
