package source

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func writeZip(t *testing.T, path string, members map[string]string) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	w := zip.NewWriter(f)
	for name, content := range members {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
}

func names(t *testing.T, s Source) []string {
	t.Helper()
	entries, err := s.Entries()
	if err != nil {
		t.Fatal(err)
	}
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Name())
	}
	return out
}

func TestDirSource(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.txt", "bb")
	writeFile(t, dir, "a.txt", "a")
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatal(err)
	}
	writeFile(t, filepath.Join(dir, "sub"), "c.txt", "ccc")

	got := names(t, NewDirSource(dir))
	want := []string{"a.txt", "b.txt", "c.txt"}
	if len(got) != len(want) {
		t.Fatalf("entries = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("entry %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestZipSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "files.zip")
	writeZip(t, path, map[string]string{
		"folder/srm_8661.html": "<html>",
	})

	zs, err := OpenZip(path)
	if err != nil {
		t.Fatal(err)
	}
	defer zs.Close()

	entries, err := zs.Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.Name() != "srm_8661.html" {
		t.Errorf("name = %s, want base name without directories", e.Name())
	}
	if e.Size() != 6 {
		t.Errorf("size = %d, want 6", e.Size())
	}
	rc, err := e.Open()
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<html>" {
		t.Errorf("content = %q", data)
	}
}

func TestMergeEarlierSourceWins(t *testing.T) {
	a := sliceSource{NewMemEntry("SRM_8661.HTML", []byte("archive")), NewMemEntry("only-a.txt", nil)}
	b := sliceSource{NewMemEntry("srm_8661.html", []byte("loose")), NewMemEntry("only-b.txt", nil)}

	entries, err := Merge(a, b).Entries()
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}

	rc, _ := entries[0].Open()
	data, _ := io.ReadAll(rc)
	rc.Close()
	if string(data) != "archive" {
		t.Errorf("duplicate resolved to %q, want the earlier source", data)
	}
}

type sliceSource []Entry

func (s sliceSource) Entries() ([]Entry, error) { return s, nil }
