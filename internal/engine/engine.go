// Package engine provides the core business logic for oja runs.
//
// The engine package acts as the orchestration layer between CLI commands
// and lower-level operations. It coordinates file discovery, classification,
// remote inspection, conflict analysis, planning, and plan execution.
//
// Key components:
//   - Engine: Main orchestrator that coordinates all operations
//   - Inspect: Discovers and classifies local files and fetches remote state
//   - Run: Builds the action plan for a chosen policy and executes it
package engine

import (
	"context"
	"fmt"

	"github.com/srmjournal/oja/internal/analyze"
	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/ojs"
	"github.com/srmjournal/oja/internal/pdfinfo"
	"github.com/srmjournal/oja/internal/planner"
	"github.com/srmjournal/oja/internal/remote"
	"github.com/srmjournal/oja/internal/source"
)

// Engine orchestrates all oja operations.
// It is the main API surface called by the CLI.
type Engine struct {
	inspector ojs.Inspector
	executor  ojs.PlanExecutor
	publisher ojs.Publisher
	extractor pdfinfo.Extractor
}

// New creates a new Engine with the given dependencies.
func New(
	inspector ojs.Inspector,
	executor ojs.PlanExecutor,
	publisher ojs.Publisher,
	extractor pdfinfo.Extractor,
) *Engine {
	return &Engine{
		inspector: inspector,
		executor:  executor,
		publisher: publisher,
		extractor: extractor,
	}
}

// Inspect resolves the target, reads and classifies its files, fetches the
// remote submission state, and analyzes the two against each other. The
// returned inspection holds an open file source; the caller must Close it
// after the run.
func (e *Engine) Inspect(ctx context.Context, req InspectRequest) (*Inspection, error) {
	target, err := resolveTarget(req)
	if err != nil {
		return nil, err
	}

	sub, err := source.OpenSubmission(target.Folder, target.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", target.Folder, err)
	}

	entries, err := sub.Entries()
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	files := classify.Classify(entries, target.SubmissionID)

	snap, err := e.inspector.Snapshot(ctx, target.SubmissionID)
	if err != nil {
		sub.Close()
		return nil, fmt.Errorf("failed to fetch submission %d: %w", target.SubmissionID, err)
	}

	report := analyze.Analyze(files, snap)

	return &Inspection{
		Target:    target,
		Files:     files,
		Snapshot:  snap,
		Report:    report,
		PageRange: e.pageRange(files),
		sub:       sub,
	}, nil
}

// pageRange reads the printed page range from the article PDF, if one is
// present. Extraction failures are not fatal; pages just go unset.
func (e *Engine) pageRange(files []classify.ClassifiedFile) string {
	if e.extractor == nil {
		return ""
	}
	for _, f := range files {
		if f.Role != classify.RolePDF {
			continue
		}
		r, err := e.extractor.PageRange(f.Entry)
		if err != nil {
			return ""
		}
		return r
	}
	return ""
}

// Run builds the plan for the chosen policy and, unless this is a dry run,
// executes it. After a successful article PDF upload the publication's page
// range is updated from the PDF's front matter.
func (e *Engine) Run(ctx context.Context, req RunRequest) (*RunResult, error) {
	if req.Inspection == nil {
		return nil, fmt.Errorf("nothing to run: no inspection")
	}

	plan := planner.Build(req.Inspection.Report, req.Policy)
	result := &RunResult{Plan: plan}
	if plan.Cancelled {
		return result, ErrCancelled
	}
	if plan.IsEmpty() {
		return result, ErrNothingToUpload
	}
	if req.DryRun {
		return result, nil
	}

	exec, err := e.executor.Execute(ctx, plan, req.Inspection.Snapshot)
	result.Exec = exec
	if err != nil {
		return result, fmt.Errorf("execution failed: %w", err)
	}

	if e.uploadedPDF(exec) && req.Inspection.PageRange != "" {
		snap := req.Inspection.Snapshot
		err := e.publisher.UpdatePublicationPages(ctx, snap.SubmissionID, snap.PublicationID, req.Inspection.PageRange)
		if err == nil {
			result.PagesSet = req.Inspection.PageRange
		}
	}

	final, err := e.inspector.Snapshot(ctx, req.Inspection.Target.SubmissionID)
	if err == nil {
		result.Final = final
	}
	return result, nil
}

func (e *Engine) uploadedPDF(exec *ojs.ExecResult) bool {
	for _, r := range exec.Results {
		if r.Err == nil && r.Action.Type == planner.ActionUploadFile && r.Action.File.Role == classify.RolePDF {
			return true
		}
	}
	return false
}

// resolveTarget turns the request into a submission ID and folder. A
// numeric target is looked up under the root directory; anything else is
// treated as a folder path.
func resolveTarget(req InspectRequest) (*source.Target, error) {
	target, err := source.ParseTarget(req.Target)
	if err != nil {
		return nil, err
	}
	if target.Folder != "" {
		return target, nil
	}
	folder, _, err := source.FindFolder(req.Root, target.SubmissionID)
	if err != nil {
		return nil, err
	}
	target.Folder = folder
	return target, nil
}

// Inspection is everything learned about a submission before planning.
type Inspection struct {
	Target    *source.Target
	Files     []classify.ClassifiedFile
	Snapshot  *remote.Snapshot
	Report    *analyze.Report
	PageRange string

	sub *source.Submission
}

// Close releases the inspection's file handles.
func (i *Inspection) Close() error {
	if i.sub == nil {
		return nil
	}
	return i.sub.Close()
}
