package engine

import (
	"github.com/srmjournal/oja/internal/ojs"
	"github.com/srmjournal/oja/internal/planner"
	"github.com/srmjournal/oja/internal/remote"
)

// InspectRequest identifies the submission to inspect.
type InspectRequest struct {
	// Target is a submission ID or a folder path whose name contains one.
	Target string

	// Root is the directory searched for the submission folder when Target
	// is a bare ID.
	Root string
}

// RunRequest asks for a plan to be built and executed.
type RunRequest struct {
	// Inspection is the result of a previous Inspect call.
	Inspection *Inspection

	// Policy decides how conflicting files are handled.
	Policy planner.Policy

	// DryRun builds the plan without executing it.
	DryRun bool
}

// RunResult is the outcome of a run.
type RunResult struct {
	// Plan is the plan that was built (and, unless DryRun, executed).
	Plan *planner.Plan

	// Exec holds per-action outcomes; nil for dry runs.
	Exec *ojs.ExecResult

	// PagesSet is the page range written to the publication, if any.
	PagesSet string

	// Final is the remote state after execution, when it could be re-read.
	Final *remote.Snapshot
}
