package engine

import "errors"

var (
	// ErrCancelled indicates the user chose to cancel the run.
	ErrCancelled = errors.New("run cancelled")

	// ErrNothingToUpload indicates the plan contains no actions.
	ErrNothingToUpload = errors.New("nothing to upload")
)
