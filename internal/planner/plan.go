package planner

import (
	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/remote"
)

// Policy is the user's chosen conflict resolution.
type Policy int

const (
	// PolicyUploadNonConflicting uploads only files with a new verdict.
	PolicyUploadNonConflicting Policy = iota

	// PolicyOverwriteConflicts additionally replaces conflicting remote
	// files.
	PolicyOverwriteConflicts

	// PolicyCancel aborts before any remote mutation.
	PolicyCancel
)

// String returns the policy name for display.
func (p Policy) String() string {
	switch p {
	case PolicyUploadNonConflicting:
		return "upload non-conflicting"
	case PolicyOverwriteConflicts:
		return "overwrite conflicts"
	case PolicyCancel:
		return "cancel"
	default:
		return "unknown"
	}
}

// Action type constants
const (
	ActionCreateGalley = "create_galley"
	ActionUploadFile   = "upload_file"
)

// Action is a single step of a plan: create a galley or upload one file.
type Action struct {
	// Type is the action type: "create_galley" or "upload_file"
	Type string

	// GalleyType is the galley this action targets
	GalleyType remote.GalleyType

	// File is the local file to upload (upload actions only)
	File classify.ClassifiedFile

	// GalleyID is the existing remote galley to upload into; 0 when the
	// galley is created by this plan
	GalleyID int

	// CreateRef is the index of the create_galley action this upload
	// depends on; -1 when GalleyID refers to an existing galley
	CreateRef int

	// Dependent marks uploads that attach to a galley's main file (figures
	// and stylesheets under the HTML document)
	Dependent bool

	// Overwrite marks uploads that replace a conflicting remote file
	Overwrite bool

	// ReplacesName is the remote filename being replaced (overwrite only)
	ReplacesName string
}

// Plan is the ordered action list for one submission run. All galley-creation
// actions come first, then each galley's uploads in their required order.
// Actions for different galleys carry no data dependency; actions within one
// galley must execute in plan order.
type Plan struct {
	// Actions is the ordered action list
	Actions []Action

	// Cancelled is set when the policy was cancel; nothing may be dispatched
	Cancelled bool
}

// IsEmpty reports whether the plan does nothing.
func (p *Plan) IsEmpty() bool {
	return len(p.Actions) == 0
}

// Uploads returns only the upload actions, in plan order.
func (p *Plan) Uploads() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == ActionUploadFile {
			out = append(out, a)
		}
	}
	return out
}

// Creations returns only the galley-creation actions, in plan order.
func (p *Plan) Creations() []Action {
	var out []Action
	for _, a := range p.Actions {
		if a.Type == ActionCreateGalley {
			out = append(out, a)
		}
	}
	return out
}

// Group holds the upload actions targeting one galley, plus the index of the
// creation action when the galley does not exist yet (-1 otherwise).
type Group struct {
	GalleyType remote.GalleyType
	GalleyID   int
	CreateRef  int
	Uploads    []Action
}

// Groups splits the plan per galley, preserving per-galley upload order.
// Groups have no ordering dependency between them; uploads inside a group
// must run in order.
func (p *Plan) Groups() []Group {
	index := make(map[remote.GalleyType]int)
	var groups []Group
	for i, a := range p.Actions {
		gi, ok := index[a.GalleyType]
		if !ok {
			gi = len(groups)
			index[a.GalleyType] = gi
			groups = append(groups, Group{GalleyType: a.GalleyType, CreateRef: -1})
		}
		switch a.Type {
		case ActionCreateGalley:
			groups[gi].CreateRef = i
		case ActionUploadFile:
			groups[gi].GalleyID = a.GalleyID
			groups[gi].Uploads = append(groups[gi].Uploads, a)
		}
	}
	return groups
}
