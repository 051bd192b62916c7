// Package planner turns classified files and their conflict verdicts into a
// deterministic, ordered action plan. Plan construction is a pure function of
// its inputs; identical inputs always yield an identical plan.
package planner

import (
	"sort"

	"github.com/srmjournal/oja/internal/analyze"
	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/remote"
)

// Build constructs the action plan for the given verdicts and policy.
//
// Inclusion per verdict: new files always upload; identical files never do;
// conflicting files upload (as overwrites) only under the overwrite policy.
// A cancel policy yields an empty, cancelled plan.
//
// Ordering: galley creations first, in the fixed type priority (PDF, HTML,
// Replication, Appendix), then each galley's uploads in the same priority.
// Inside the HTML galley the document goes first, then figures in natural
// order, then stylesheets in discovery order. Other galleys upload in natural
// name order.
func Build(report *analyze.Report, policy Policy) *Plan {
	if policy == PolicyCancel {
		return &Plan{Cancelled: true}
	}

	included := selectUploads(report, policy)

	// Group the included uploads per galley type, recording whether the
	// galley already exists remotely.
	byGalley := make(map[remote.GalleyType][]analyze.Finding)
	galleyIDs := make(map[remote.GalleyType]int)
	for _, f := range included {
		byGalley[f.GalleyType] = append(byGalley[f.GalleyType], f)
		if f.GalleyID != 0 {
			galleyIDs[f.GalleyType] = f.GalleyID
		}
	}

	plan := &Plan{}
	createRefs := make(map[remote.GalleyType]int)

	// Creations first, so every upload can reference its galley.
	for _, t := range remote.GalleyTypes {
		if len(byGalley[t]) == 0 {
			continue
		}
		if galleyIDs[t] == 0 {
			createRefs[t] = len(plan.Actions)
			plan.Actions = append(plan.Actions, Action{
				Type:       ActionCreateGalley,
				GalleyType: t,
			})
		}
	}

	for _, t := range remote.GalleyTypes {
		findings := byGalley[t]
		if len(findings) == 0 {
			continue
		}
		orderGalleyUploads(t, findings)

		createRef := -1
		if galleyIDs[t] == 0 {
			createRef = createRefs[t]
		}
		for _, f := range findings {
			plan.Actions = append(plan.Actions, Action{
				Type:         ActionUploadFile,
				GalleyType:   t,
				File:         f.File,
				GalleyID:     galleyIDs[t],
				CreateRef:    createRef,
				Dependent:    isDependent(f.File.Role),
				Overwrite:    f.Verdict == analyze.VerdictConflicting,
				ReplacesName: replacedName(f),
			})
		}
	}

	return plan
}

// selectUploads applies the policy to the verdicts and drops duplicate slots
// so the plan never carries two uploads for one logical slot.
func selectUploads(report *analyze.Report, policy Policy) []analyze.Finding {
	claimed := make(map[string]bool)
	var included []analyze.Finding
	for _, f := range report.Findings {
		switch f.Verdict {
		case analyze.VerdictIdentical:
			continue
		case analyze.VerdictConflicting:
			if policy != PolicyOverwriteConflicts {
				continue
			}
		}
		slot := f.File.Slot()
		if claimed[slot] {
			continue
		}
		claimed[slot] = true
		included = append(included, f)
	}
	return included
}

// orderGalleyUploads sorts one galley's findings into their required upload
// order.
func orderGalleyUploads(t remote.GalleyType, findings []analyze.Finding) {
	if t == remote.GalleyHTML {
		sort.SliceStable(findings, func(i, j int) bool {
			a, b := findings[i].File, findings[j].File
			if ra, rb := htmlRank(a.Role), htmlRank(b.Role); ra != rb {
				return ra < rb
			}
			if a.Role == classify.RoleFigure {
				if c := a.FigureKey.Compare(b.FigureKey); c != 0 {
					return c < 0
				}
			}
			// Stylesheets keep discovery order; Ordinal also breaks figure
			// key ties.
			return a.Ordinal < b.Ordinal
		})
		return
	}
	sort.SliceStable(findings, func(i, j int) bool {
		a := classify.NewNaturalKey(findings[i].File.Name())
		b := classify.NewNaturalKey(findings[j].File.Name())
		if c := a.Compare(b); c != 0 {
			return c < 0
		}
		return findings[i].File.Ordinal < findings[j].File.Ordinal
	})
}

// htmlRank fixes the intra-galley order for the HTML galley: document,
// figures, stylesheets.
func htmlRank(role classify.Role) int {
	switch role {
	case classify.RoleHTML:
		return 0
	case classify.RoleFigure:
		return 1
	default:
		return 2
	}
}

// isDependent reports whether uploads of this role attach to the galley's
// main file instead of being main files themselves.
func isDependent(role classify.Role) bool {
	return role == classify.RoleFigure || role == classify.RoleCSS
}

func replacedName(f analyze.Finding) string {
	if f.Verdict == analyze.VerdictConflicting {
		return f.RemoteName
	}
	return ""
}
