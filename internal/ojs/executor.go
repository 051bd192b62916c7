package ojs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/planner"
	"github.com/srmjournal/oja/internal/remote"
)

// PlanExecutor dispatches an action plan against the platform. The engine
// takes the interface; *Executor is the real implementation.
type PlanExecutor interface {
	Execute(ctx context.Context, plan *planner.Plan, snap *remote.Snapshot) (*ExecResult, error)
}

// ActionResult is the outcome of one dispatched action.
type ActionResult struct {
	Action   planner.Action
	RemoteID int
	Err      error
}

// ExecResult summarizes a plan execution. A partially executed plan is a
// valid result, not an error: failed galley groups are recorded per action
// while other groups proceed.
type ExecResult struct {
	Results  []ActionResult
	Uploaded int
	Failed   int
	Created  []remote.GalleyType
	Deleted  []string
}

// Executor executes plans over a Client. Transient failures (5xx, network)
// are retried with a short backoff; the context is checked before every
// dispatch so a cancelled run stops between actions, never mid-upload.
type Executor struct {
	client  *Client
	retries int
	backoff time.Duration
}

// NewExecutor creates an Executor with default retry settings.
func NewExecutor(client *Client) *Executor {
	return &Executor{
		client:  client,
		retries: 3,
		backoff: 2 * time.Second,
	}
}

// Execute runs the plan. The snapshot must be the one the plan was built
// from; it supplies the publication ID and the remote file IDs for
// overwrites.
func (e *Executor) Execute(ctx context.Context, plan *planner.Plan, snap *remote.Snapshot) (*ExecResult, error) {
	result := &ExecResult{}
	if plan.Cancelled || plan.IsEmpty() {
		return result, nil
	}

	if err := e.deleteConflicting(ctx, plan, snap, result); err != nil {
		return result, err
	}

	if err := e.createGalleys(ctx, plan, snap, result); err != nil {
		return result, err
	}

	// Galley creation assigns IDs server-side, so the plan's forward
	// references are resolved by re-reading the submission.
	current := snap
	if len(result.Created) > 0 || len(result.Deleted) > 0 {
		refreshed, err := e.client.Snapshot(ctx, snap.SubmissionID)
		if err != nil {
			return result, fmt.Errorf("failed to refresh submission state: %w", err)
		}
		current = refreshed
	}

	var groupErrs []error
	for _, group := range plan.Groups() {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := e.executeGroup(ctx, group, current, result); err != nil {
			// A failed galley must not block independent galleys.
			groupErrs = append(groupErrs, fmt.Errorf("%s galley: %w", group.GalleyType.Label(), err))
		}
	}
	return result, errors.Join(groupErrs...)
}

// deleteConflicting removes the remote files that approved overwrites
// replace. Deleting a main file cascades to its dependent files server-side,
// so dependent deletions in the same galley are skipped afterwards.
func (e *Executor) deleteConflicting(ctx context.Context, plan *planner.Plan, snap *remote.Snapshot, result *ExecResult) error {
	mainDeleted := make(map[int]bool)
	for _, a := range plan.Uploads() {
		if !a.Overwrite || a.ReplacesName == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if a.Dependent && mainDeleted[a.GalleyID] {
			continue
		}
		fileID := findRemoteFileID(snap, a.GalleyID, a.ReplacesName)
		if fileID == 0 {
			// Already gone; nothing to delete.
			continue
		}
		err := e.withRetry(ctx, func() error {
			return e.client.DeleteFile(ctx, snap.SubmissionID, fileID)
		})
		if err != nil {
			return fmt.Errorf("failed to delete %s: %w", a.ReplacesName, err)
		}
		result.Deleted = append(result.Deleted, a.ReplacesName)
		if !a.Dependent {
			mainDeleted[a.GalleyID] = true
		}
	}
	return nil
}

// createGalleys creates every galley the plan introduces.
func (e *Executor) createGalleys(ctx context.Context, plan *planner.Plan, snap *remote.Snapshot, result *ExecResult) error {
	for _, a := range plan.Creations() {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := e.withRetry(ctx, func() error {
			return e.client.CreateGalley(ctx, snap.SubmissionID, snap.PublicationID, a.GalleyType.Label(), "")
		})
		result.Results = append(result.Results, ActionResult{Action: a, Err: err})
		if err != nil {
			return fmt.Errorf("failed to create %s galley: %w", a.GalleyType.Label(), err)
		}
		result.Created = append(result.Created, a.GalleyType)
	}
	return nil
}

// executeGroup uploads one galley's files in order. Later uploads in a group
// depend on earlier ones (the HTML document must exist before its figures),
// so the first failure aborts the rest of the group.
func (e *Executor) executeGroup(ctx context.Context, group planner.Group, snap *remote.Snapshot, result *ExecResult) error {
	galley := resolveGalley(snap, group)
	if galley == nil {
		err := fmt.Errorf("no %s galley available", group.GalleyType.Label())
		for _, a := range group.Uploads {
			result.Results = append(result.Results, ActionResult{Action: a, Err: err})
			result.Failed++
		}
		return err
	}

	// Dependent-only groups attach to the galley's existing main file.
	mainFileID := 0
	if main := galley.MainFile(); main != nil {
		mainFileID = main.ID
	}

	for _, a := range group.Uploads {
		if err := ctx.Err(); err != nil {
			return err
		}

		var fileID int
		err := e.withRetry(ctx, func() error {
			var uploadErr error
			if a.Dependent {
				if mainFileID == 0 {
					return fmt.Errorf("no main file to attach %s to", a.File.Name())
				}
				fileID, uploadErr = e.client.UploadDependentFile(ctx, snap.SubmissionID, a.File.Entry, genreFor(a.File.Role), mainFileID)
			} else {
				fileID, uploadErr = e.client.UploadMainFile(ctx, snap.SubmissionID, a.File.Entry, genreFor(a.File.Role), galley.ID)
			}
			return uploadErr
		})
		result.Results = append(result.Results, ActionResult{Action: a, RemoteID: fileID, Err: err})
		if err != nil {
			result.Failed++
			return fmt.Errorf("upload of %s failed: %w", a.File.Name(), err)
		}
		result.Uploaded++

		if !a.Dependent {
			mainFileID = fileID
			if group.GalleyType == remote.GalleyHTML && hasDependentUploads(group) {
				// Give the platform time to register the document before
				// figures reference it.
				if !e.client.VerifyFile(ctx, snap.SubmissionID, fileID, 3, e.backoff) {
					e.client.debug("main file %d not verified, dependent uploads may not link", fileID)
				}
			}
		}
	}
	return nil
}

// withRetry runs fn, retrying transient failures with backoff.
func (e *Executor) withRetry(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt < e.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(e.backoff):
			}
		}
		lastErr = fn()
		if lastErr == nil || !isTransient(lastErr) {
			return lastErr
		}
		e.client.debug("transient failure (attempt %d/%d): %v", attempt+1, e.retries, lastErr)
	}
	return lastErr
}

// isTransient reports whether an error is a server-side or network hiccup
// worth retrying. Client errors (4xx) and context cancellation are final.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Transient()
	}
	// Network-level failures surface as url.Error wrapping; treat anything
	// that is not an HTTP status as transient.
	return strings.Contains(err.Error(), "request failed")
}

// resolveGalley finds the galley a group uploads into, by ID for existing
// galleys or by type for ones the plan just created.
func resolveGalley(snap *remote.Snapshot, group planner.Group) *remote.Galley {
	if group.GalleyID != 0 {
		for i := range snap.Galleys {
			if snap.Galleys[i].ID == group.GalleyID {
				return &snap.Galleys[i]
			}
		}
	}
	return snap.Galley(group.GalleyType)
}

func findRemoteFileID(snap *remote.Snapshot, galleyID int, name string) int {
	for _, g := range snap.Galleys {
		if galleyID != 0 && g.ID != galleyID {
			continue
		}
		for _, f := range g.Files {
			if strings.EqualFold(f.Name, name) {
				return f.ID
			}
		}
	}
	return 0
}

func hasDependentUploads(group planner.Group) bool {
	for _, a := range group.Uploads {
		if a.Dependent {
			return true
		}
	}
	return false
}

// genreFor maps a file role to the platform's genre ID.
func genreFor(role classify.Role) int {
	switch role {
	case classify.RoleFigure:
		return GenreImage
	case classify.RoleCSS:
		return GenreStylesheet
	case classify.RoleReplication:
		return GenreResearchMaterials
	case classify.RoleAppendix:
		return GenreAppendix
	default:
		return GenreArticleText
	}
}
