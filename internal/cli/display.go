package cli

import (
	"fmt"
	"path/filepath"

	"github.com/srmjournal/oja/internal/analyze"
	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/engine"
	"github.com/srmjournal/oja/internal/planner"
	"github.com/srmjournal/oja/internal/remote"
)

// roleLabels is the display order and naming for classified local files.
var roleLabels = []struct {
	role  classify.Role
	label string
}{
	{classify.RolePDF, "Article PDF"},
	{classify.RoleHTML, "HTML document"},
	{classify.RoleFigure, "Figures"},
	{classify.RoleCSS, "Stylesheets"},
	{classify.RoleReplication, "Replication files"},
	{classify.RoleAppendix, "Online appendices"},
	{classify.RoleUnrecognized, "Unrecognized"},
}

// showLocalFiles renders the classified folder contents as a tree.
func showLocalFiles(insp *engine.Inspection) {
	PrintSection("Local Files")
	byRole := classify.ByRole(insp.Files)

	var branches []TreeBranch
	for _, rl := range roleLabels {
		files := byRole[rl.role]
		if len(files) == 0 {
			continue
		}
		if rl.role == classify.RoleFigure {
			classify.SortFigures(files)
		}
		b := TreeBranch{Label: fmt.Sprintf("%s (%d)", rl.label, len(files))}
		for _, f := range files {
			b.Leaves = append(b.Leaves, f.Name())
		}
		branches = append(branches, b)
	}

	if len(branches) == 0 {
		PrintEmptyState("no files found")
		return
	}
	PrintTree(filepath.Base(insp.Target.Folder), branches)
}

// showRemoteState renders the submission's current galleys as a tree.
func showRemoteState(snap *remote.Snapshot) {
	PrintSection("Online Galleys")
	if !snap.HasContent() {
		PrintEmptyState("no galleys online yet")
		return
	}

	var branches []TreeBranch
	for _, g := range snap.Galleys {
		b := TreeBranch{Label: g.Type.Label()}
		for _, f := range g.Files {
			leaf := f.Name
			if f.Dependent {
				leaf += " (dependent)"
			}
			b.Leaves = append(b.Leaves, leaf)
		}
		if len(b.Leaves) == 0 {
			b.Leaves = []string{"(empty)"}
		}
		branches = append(branches, b)
	}
	PrintTree(fmt.Sprintf("submission %d", snap.SubmissionID), branches)
}

// showReport summarizes the comparison between local files and remote state.
func showReport(report *analyze.Report) {
	PrintSection("Analysis")

	for _, rl := range roleLabels {
		c, ok := report.Counts[rl.role]
		if !ok {
			continue
		}
		PrintLabelValue(rl.label, fmt.Sprintf("%d new, %d identical, %d conflicting",
			c.New, c.Identical, c.Conflicting))
	}
	if len(report.Unrecognized) > 0 {
		names := make([]string, 0, len(report.Unrecognized))
		for _, f := range report.Unrecognized {
			names = append(names, f.Name())
		}
		fmt.Println()
		PrintWarning(fmt.Sprintf("%s will be skipped:", PrintCount(len(names), "unrecognized file", "unrecognized files")))
		PrintList(names, 1)
	}

	if conflicts := report.Conflicts(); len(conflicts) > 0 {
		fmt.Println()
		PrintWarning(PrintCount(len(conflicts), "conflict detected:", "conflicts detected:"))
		for _, c := range conflicts {
			detail := c.Reason
			if c.RemoteName != "" {
				detail = fmt.Sprintf("online file %q %s", c.RemoteName, c.Reason)
			}
			PrintList([]string{fmt.Sprintf("%s: %s", c.File.Name(), detail)}, 1)
		}
	}
}

// showPlan lists the actions of a plan, creations first.
func showPlan(plan *planner.Plan) {
	items := make([]string, 0, len(plan.Actions))
	for _, a := range plan.Actions {
		switch a.Type {
		case planner.ActionCreateGalley:
			items = append(items, fmt.Sprintf("create %s galley", a.GalleyType.Label()))
		case planner.ActionUploadFile:
			desc := fmt.Sprintf("upload %s to %s", a.File.Name(), a.GalleyType.Label())
			if a.Overwrite {
				desc += fmt.Sprintf(" (replacing %s)", a.ReplacesName)
			}
			items = append(items, desc)
		}
	}
	PrintList(items, 1)
}

// showRunResult reports what a completed run did.
func showRunResult(result *engine.RunResult) {
	exec := result.Exec
	if exec == nil {
		return
	}

	PrintSection("Results")
	for _, t := range exec.Created {
		PrintSuccess(fmt.Sprintf("created %s galley", t.Label()))
	}
	for _, name := range exec.Deleted {
		PrintInfo(fmt.Sprintf("  removed online file %s", name))
	}
	for _, r := range exec.Results {
		if r.Action.Type != planner.ActionUploadFile {
			continue
		}
		if r.Err != nil {
			PrintError(fmt.Sprintf("%s: %v", r.Action.File.Name(), r.Err))
			continue
		}
		PrintSuccess(fmt.Sprintf("uploaded %s (file %d)", r.Action.File.Name(), r.RemoteID))
	}
	if result.PagesSet != "" {
		PrintSuccess(fmt.Sprintf("publication pages set to %s", result.PagesSet))
	}

	if result.Final != nil {
		showRemoteState(result.Final)
	}
}
