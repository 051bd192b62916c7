package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// ErrMultipleFolders indicates more than one candidate folder matched a
// submission ID. Callers either prompt the user to choose or abort.
var ErrMultipleFolders = errors.New("multiple matching folders")

// submissionIDPattern matches a 4-5 digit run that is not part of a longer
// number, which is how submission IDs appear in folder names like
// "12-23_8661_author".
var submissionIDPattern = regexp.MustCompile(`(?:^|[^0-9])(\d{4,5})(?:[^0-9]|$)`)

// Target is a resolved invocation argument: the submission ID and, when the
// argument was a path, the folder it points at.
type Target struct {
	SubmissionID int
	Folder       string
}

// ParseTarget interprets the CLI argument as either a bare submission ID or a
// path to a submission folder whose name embeds the ID.
func ParseTarget(arg string) (*Target, error) {
	if id, err := strconv.Atoi(arg); err == nil {
		return &Target{SubmissionID: id}, nil
	}

	info, err := os.Stat(arg)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("path does not exist or is not a directory: %s", arg)
	}

	name := filepath.Base(filepath.Clean(arg))
	m := submissionIDPattern.FindStringSubmatch(name)
	if m == nil {
		return nil, fmt.Errorf("could not extract a submission ID from folder name %q (expected a 4 or 5 digit number)", name)
	}
	id, _ := strconv.Atoi(m[1])
	return &Target{SubmissionID: id, Folder: arg}, nil
}

// FindFolder locates the folder under root whose name contains the submission
// ID. With exactly one match it is returned; with several, ErrMultipleFolders
// is returned along with the candidates so the caller can prompt.
func FindFolder(root string, submissionID int) (string, []string, error) {
	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return "", nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	needle := strconv.Itoa(submissionID)
	var matches []string
	for _, d := range dirEntries {
		if d.IsDir() && strings.Contains(d.Name(), needle) {
			matches = append(matches, filepath.Join(root, d.Name()))
		}
	}

	switch len(matches) {
	case 0:
		return "", nil, fmt.Errorf("no folder found containing submission ID %d", submissionID)
	case 1:
		return matches[0], matches, nil
	default:
		return "", matches, fmt.Errorf("%w: submission ID %d matches %d folders", ErrMultipleFolders, submissionID, len(matches))
	}
}

// Submission is the opened file source for one submission folder. When the
// folder holds a submission archive (a zip whose name contains the ID), the
// archive members and the loose folder files are merged, archive side winning
// on duplicates. Close releases the archive, if any.
type Submission struct {
	Source
	zip *ZipSource
}

// Close releases the submission archive if one was opened.
func (s *Submission) Close() error {
	if s.zip != nil {
		return s.zip.Close()
	}
	return nil
}

// OpenSubmission builds the Source for a submission folder.
func OpenSubmission(folder string, submissionID int) (*Submission, error) {
	zipPath, err := findSubmissionZip(folder, submissionID)
	if err != nil {
		return nil, err
	}

	dir := NewDirSource(folder)
	if zipPath == "" {
		return &Submission{Source: dir}, nil
	}

	zs, err := OpenZip(zipPath)
	if err != nil {
		return nil, err
	}
	// The archive itself must not be classified alongside its own contents.
	filtered := &excludeName{Source: dir, name: filepath.Base(zipPath)}
	return &Submission{Source: Merge(zs, filtered), zip: zs}, nil
}

// findSubmissionZip returns the path of the first zip in folder whose name
// contains the submission ID, or "" when there is none.
func findSubmissionZip(folder string, submissionID int) (string, error) {
	dirEntries, err := os.ReadDir(folder)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", folder, err)
	}
	needle := strconv.Itoa(submissionID)
	for _, d := range dirEntries {
		if d.IsDir() {
			continue
		}
		name := d.Name()
		if strings.EqualFold(filepath.Ext(name), ".zip") && strings.Contains(name, needle) {
			return filepath.Join(folder, name), nil
		}
	}
	return "", nil
}

// excludeName filters a single filename out of a source.
type excludeName struct {
	Source
	name string
}

func (f *excludeName) Entries() ([]Entry, error) {
	entries, err := f.Source.Entries()
	if err != nil {
		return nil, err
	}
	kept := entries[:0]
	for _, e := range entries {
		if !strings.EqualFold(e.Name(), f.name) {
			kept = append(kept, e)
		}
	}
	return kept, nil
}
