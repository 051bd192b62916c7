package ojs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/srmjournal/oja/internal/analyze"
	"github.com/srmjournal/oja/internal/classify"
	"github.com/srmjournal/oja/internal/planner"
	"github.com/srmjournal/oja/internal/remote"
	"github.com/srmjournal/oja/internal/source"
)

// fakeOJS is an in-memory platform: enough of the REST API and the galley
// grid to execute plans against.
type fakeOJS struct {
	t *testing.T

	galleys    []remote.Galley
	nextGalley int
	nextFile   int

	uploads []string // "name->fileStage" in arrival order
	deleted []int
}

func newFakeOJS(t *testing.T, galleys []remote.Galley) *fakeOJS {
	return &fakeOJS{t: t, galleys: galleys, nextGalley: 1000, nextFile: 5000}
}

func (f *fakeOJS) snapshotPayload() map[string]any {
	galleys := make([]map[string]any, 0, len(f.galleys))
	for _, g := range f.galleys {
		entry := map[string]any{"id": g.ID, "label": g.Type.Label()}
		if main := g.MainFile(); main != nil {
			file := map[string]any{
				"id":   main.ID,
				"name": map[string]string{"en_US": main.Name},
			}
			var deps []map[string]any
			for _, df := range g.Files {
				if df.Dependent {
					deps = append(deps, map[string]any{
						"id":   df.ID,
						"name": map[string]string{"en_US": df.Name},
					})
				}
			}
			if deps != nil {
				file["dependentFiles"] = deps
			}
			entry["file"] = file
		}
		galleys = append(galleys, entry)
	}
	return map[string]any{
		"currentPublicationId": 77,
		"publications": []map[string]any{
			{"id": 77, "galleys": galleys},
		},
	}
}

func (f *fakeOJS) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, loginPage)
	})
	mux.HandleFunc("/login/signIn", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/submissions", http.StatusFound)
	})
	mux.HandleFunc("/submissions", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "ok")
	})
	mux.HandleFunc("/$$$call$$$/grid/article-galleys/article-galley-grid/add-galley", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"content": `<form><input type="hidden" name="csrfToken" value="tok"/></form>`,
		})
	})
	mux.HandleFunc("/$$$call$$$/grid/article-galleys/article-galley-grid/update-galley", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseForm())
		f.nextGalley++
		f.galleys = append(f.galleys, remote.Galley{
			ID:   f.nextGalley,
			Type: galleyTypeForLabel(r.FormValue("label")),
		})
		json.NewEncoder(w).Encode(map[string]bool{"status": true})
	})

	mux.HandleFunc("/api/v1/submissions/8661", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(f.snapshotPayload())
	})
	mux.HandleFunc("/api/v1/submissions/8661/files", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(f.t, r.ParseMultipartForm(1<<20))
		_, header, err := r.FormFile("file")
		require.NoError(f.t, err)

		f.nextFile++
		f.uploads = append(f.uploads, header.Filename+"->"+r.FormValue("fileStage"))
		f.addFile(header.Filename, r.FormValue("fileStage"), r.FormValue("assocId"))
		json.NewEncoder(w).Encode(map[string]int{"id": f.nextFile})
	})
	mux.HandleFunc("/api/v1/submissions/8661/files/", func(w http.ResponseWriter, r *http.Request) {
		var fileID int
		fmt.Sscanf(strings.TrimPrefix(r.URL.Path, "/api/v1/submissions/8661/files/"), "%d", &fileID)
		switch r.Method {
		case http.MethodDelete:
			f.deleted = append(f.deleted, fileID)
			f.removeFile(fileID)
			w.Write([]byte("{}"))
		case http.MethodGet:
			w.Write([]byte("{}"))
		default:
			http.NotFound(w, r)
		}
	})

	return mux
}

func (f *fakeOJS) addFile(name, fileStage, assocID string) {
	dependent := fileStage == "17"
	for i := range f.galleys {
		g := &f.galleys[i]
		match := fmt.Sprint(g.ID) == assocID
		if dependent {
			// Dependent files attach to the main file ID instead.
			if main := g.MainFile(); main != nil && fmt.Sprint(main.ID) == assocID {
				match = true
			}
		}
		if match {
			g.Files = append(g.Files, remote.File{
				ID:        f.nextFile,
				Name:      name,
				GalleyID:  g.ID,
				Dependent: dependent,
			})
			return
		}
	}
}

func (f *fakeOJS) removeFile(fileID int) {
	for i := range f.galleys {
		g := &f.galleys[i]
		kept := g.Files[:0]
		for _, file := range g.Files {
			if file.ID != fileID {
				kept = append(kept, file)
			}
		}
		g.Files = kept
	}
}

func planFor(t *testing.T, names []string, snap *remote.Snapshot, policy planner.Policy) *planner.Plan {
	t.Helper()
	entries := make([]source.Entry, 0, len(names))
	for _, n := range names {
		entries = append(entries, source.NewMemEntry(n, []byte("content of "+n)))
	}
	files := classify.Classify(entries, 8661)
	report := analyze.Analyze(files, snap)
	return planner.Build(report, policy)
}

func newTestExecutor(t *testing.T, fake *fakeOJS) *Executor {
	t.Helper()
	client, _ := newTestClient(t, fake.handler())
	exec := NewExecutor(client)
	exec.backoff = time.Millisecond
	return exec
}

func TestExecuteFreshSubmission(t *testing.T) {
	fake := newFakeOJS(t, nil)
	exec := newTestExecutor(t, fake)

	snap := &remote.Snapshot{SubmissionID: 8661, PublicationID: 77}
	plan := planFor(t, []string{
		"srm_8661_OnlinePDF.pdf",
		"srm_8661.html",
		"srm_8661_Fig1_HTML.png",
		"style.css",
	}, snap, planner.PolicyUploadNonConflicting)

	result, err := exec.Execute(context.Background(), plan, snap)
	require.NoError(t, err)

	assert.Equal(t, []remote.GalleyType{remote.GalleyPDF, remote.GalleyHTML}, result.Created)
	assert.Equal(t, 4, result.Uploaded)
	assert.Zero(t, result.Failed)

	want := []string{
		"srm_8661_OnlinePDF.pdf->10",
		"srm_8661.html->10",
		"srm_8661_Fig1_HTML.png->17",
		"style.css->17",
	}
	assert.Equal(t, want, fake.uploads)
	assert.Empty(t, fake.deleted)
}

func TestExecuteIntoExistingGalley(t *testing.T) {
	fake := newFakeOJS(t, []remote.Galley{
		{ID: 7, Type: remote.GalleyHTML, Files: []remote.File{
			{ID: 200, Name: "srm_8661.html", GalleyID: 7},
		}},
	})
	exec := newTestExecutor(t, fake)

	snap := &remote.Snapshot{SubmissionID: 8661, PublicationID: 77, Galleys: fake.galleys}
	plan := planFor(t, []string{
		"srm_8661.html",
		"srm_8661_Fig1_HTML.png",
	}, snap, planner.PolicyUploadNonConflicting)

	result, err := exec.Execute(context.Background(), plan, snap)
	require.NoError(t, err)

	assert.Empty(t, result.Created)
	assert.Equal(t, 1, result.Uploaded)
	// The figure attaches to the galley's existing main file.
	assert.Equal(t, []string{"srm_8661_Fig1_HTML.png->17"}, fake.uploads)
}

func TestExecuteOverwriteDeletesFirst(t *testing.T) {
	fake := newFakeOJS(t, []remote.Galley{
		{ID: 7, Type: remote.GalleyHTML, Files: []remote.File{
			{ID: 200, Name: "srm_8661.html", GalleyID: 7},
			{ID: 201, Name: "srm_8661_Fig1_HTML.jpg", GalleyID: 7, Dependent: true},
		}},
	})
	exec := newTestExecutor(t, fake)

	snap := &remote.Snapshot{SubmissionID: 8661, PublicationID: 77, Galleys: fake.galleys}
	plan := planFor(t, []string{"srm_8661_Fig1_HTML.png"}, snap, planner.PolicyOverwriteConflicts)

	result, err := exec.Execute(context.Background(), plan, snap)
	require.NoError(t, err)

	assert.Equal(t, []int{201}, fake.deleted)
	assert.Equal(t, []string{"srm_8661_Fig1_HTML.png->17"}, fake.uploads)
	assert.Equal(t, []string{"srm_8661_Fig1_HTML.jpg"}, result.Deleted)
}

func TestExecuteCancelledPlan(t *testing.T) {
	fake := newFakeOJS(t, nil)
	exec := newTestExecutor(t, fake)

	result, err := exec.Execute(context.Background(), &planner.Plan{Cancelled: true}, &remote.Snapshot{SubmissionID: 8661})
	require.NoError(t, err)
	assert.Zero(t, result.Uploaded)
	assert.Empty(t, fake.uploads)
}

func TestExecuteContextCancelled(t *testing.T) {
	fake := newFakeOJS(t, nil)
	exec := newTestExecutor(t, fake)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap := &remote.Snapshot{SubmissionID: 8661, PublicationID: 77}
	plan := planFor(t, []string{"srm_8661_OnlinePDF.pdf"}, snap, planner.PolicyUploadNonConflicting)

	_, err := exec.Execute(ctx, plan, snap)
	require.Error(t, err)
	assert.Empty(t, fake.uploads)
}

func TestRetryTransient(t *testing.T) {
	var calls int
	srv := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]int{"id": 1})
	})
	client, _ := newTestClient(t, srv)
	exec := NewExecutor(client)
	exec.backoff = time.Millisecond

	err := exec.withRetry(context.Background(), func() error {
		_, err := client.UploadMainFile(context.Background(), 8661, source.NewMemEntry("a.pdf", nil), GenreArticleText, 1)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnPermanentError(t *testing.T) {
	var calls int
	srv := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusForbidden)
	})
	client, _ := newTestClient(t, srv)
	exec := NewExecutor(client)
	exec.backoff = time.Millisecond

	err := exec.withRetry(context.Background(), func() error {
		_, err := client.UploadMainFile(context.Background(), 8661, source.NewMemEntry("a.pdf", nil), GenreArticleText, 1)
		return err
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}
