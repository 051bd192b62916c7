package source

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestParseTarget(t *testing.T) {
	dir := t.TempDir()
	folder := filepath.Join(dir, "12-23_8661_author")
	if err := os.Mkdir(folder, 0755); err != nil {
		t.Fatal(err)
	}

	t.Run("bare id", func(t *testing.T) {
		target, err := ParseTarget("8661")
		if err != nil {
			t.Fatal(err)
		}
		if target.SubmissionID != 8661 || target.Folder != "" {
			t.Errorf("target = %+v", target)
		}
	})

	t.Run("folder path", func(t *testing.T) {
		target, err := ParseTarget(folder)
		if err != nil {
			t.Fatal(err)
		}
		if target.SubmissionID != 8661 {
			t.Errorf("submission ID = %d, want 8661", target.SubmissionID)
		}
		if target.Folder != folder {
			t.Errorf("folder = %s", target.Folder)
		}
	})

	t.Run("missing path", func(t *testing.T) {
		if _, err := ParseTarget(filepath.Join(dir, "nope")); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("no id in name", func(t *testing.T) {
		noID := filepath.Join(dir, "misc")
		if err := os.Mkdir(noID, 0755); err != nil {
			t.Fatal(err)
		}
		if _, err := ParseTarget(noID); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("id not split from longer number", func(t *testing.T) {
		long := filepath.Join(dir, "v1234567")
		if err := os.Mkdir(long, 0755); err != nil {
			t.Fatal(err)
		}
		if _, err := ParseTarget(long); err == nil {
			t.Error("a 7 digit run must not yield a submission ID")
		}
	})
}

func TestFindFolder(t *testing.T) {
	root := t.TempDir()
	for _, name := range []string{"12-23_8661_author", "archive_9000", "notes"} {
		if err := os.Mkdir(filepath.Join(root, name), 0755); err != nil {
			t.Fatal(err)
		}
	}

	t.Run("single match", func(t *testing.T) {
		folder, _, err := FindFolder(root, 8661)
		if err != nil {
			t.Fatal(err)
		}
		if filepath.Base(folder) != "12-23_8661_author" {
			t.Errorf("folder = %s", folder)
		}
	})

	t.Run("no match", func(t *testing.T) {
		if _, _, err := FindFolder(root, 1234); err == nil {
			t.Error("expected an error")
		}
	})

	t.Run("multiple matches", func(t *testing.T) {
		if err := os.Mkdir(filepath.Join(root, "old_8661_backup"), 0755); err != nil {
			t.Fatal(err)
		}
		_, candidates, err := FindFolder(root, 8661)
		if !errors.Is(err, ErrMultipleFolders) {
			t.Fatalf("err = %v, want ErrMultipleFolders", err)
		}
		if len(candidates) != 2 {
			t.Errorf("candidates = %v", candidates)
		}
	})
}

func TestOpenSubmissionMergesArchive(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "srm_8661.html", "loose copy")
	writeFile(t, folder, "style.css", "body{}")
	writeZip(t, filepath.Join(folder, "files_8661.zip"), map[string]string{
		"srm_8661.html":          "archive copy",
		"srm_8661_Fig1_HTML.png": "png",
	})

	sub, err := OpenSubmission(folder, 8661)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	entries, err := sub.Entries()
	if err != nil {
		t.Fatal(err)
	}

	byName := make(map[string]Entry)
	for _, e := range entries {
		byName[e.Name()] = e
	}

	if _, ok := byName["files_8661.zip"]; ok {
		t.Error("the archive itself must not be listed")
	}
	if _, ok := byName["srm_8661_Fig1_HTML.png"]; !ok {
		t.Error("archive member missing")
	}
	if _, ok := byName["style.css"]; !ok {
		t.Error("loose file missing")
	}

	html, ok := byName["srm_8661.html"]
	if !ok {
		t.Fatal("html document missing")
	}
	if html.Size() != int64(len("archive copy")) {
		t.Error("archive copy should win over the loose file")
	}
}

func TestOpenSubmissionWithoutArchive(t *testing.T) {
	folder := t.TempDir()
	writeFile(t, folder, "srm_8661.html", "<html>")

	sub, err := OpenSubmission(folder, 8661)
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	got := names(t, sub)
	if len(got) != 1 || got[0] != "srm_8661.html" {
		t.Errorf("entries = %v", got)
	}
}
