package remote

import "testing"

func testSnapshot() *Snapshot {
	return &Snapshot{
		SubmissionID:  8661,
		PublicationID: 77,
		Galleys: []Galley{
			{ID: 5, Type: GalleyPDF, Files: []File{
				{ID: 100, Name: "srm_8661_OnlinePDF.pdf", GalleyID: 5},
			}},
			{ID: 6, Type: GalleyHTML, Files: []File{
				{ID: 201, Name: "style.css", GalleyID: 6, Dependent: true},
				{ID: 200, Name: "srm_8661.html", GalleyID: 6},
			}},
			{ID: 7, Type: GalleyHTML},
		},
	}
}

func TestGalleysOf(t *testing.T) {
	s := testSnapshot()
	if got := len(s.GalleysOf(GalleyHTML)); got != 2 {
		t.Errorf("GalleysOf(HTML) = %d galleys, want 2", got)
	}
	if got := len(s.GalleysOf(GalleyReplication)); got != 0 {
		t.Errorf("GalleysOf(Replication) = %d galleys, want 0", got)
	}
}

func TestGalleyReturnsFirstOfType(t *testing.T) {
	s := testSnapshot()
	g := s.Galley(GalleyHTML)
	if g == nil || g.ID != 6 {
		t.Errorf("Galley(HTML) = %+v, want galley 6", g)
	}
	if s.Galley(GalleyAppendix) != nil {
		t.Error("Galley(Appendix) should be nil")
	}
}

func TestMainFile(t *testing.T) {
	s := testSnapshot()
	main := s.Galley(GalleyHTML).MainFile()
	if main == nil || main.ID != 200 {
		t.Errorf("MainFile = %+v, want the non-dependent file", main)
	}
	if s.Galleys[2].MainFile() != nil {
		t.Error("empty galley has no main file")
	}
}

func TestSnapshotCounts(t *testing.T) {
	s := testSnapshot()
	if !s.HasContent() {
		t.Error("snapshot with files reports no content")
	}
	if got := s.FileCount(); got != 3 {
		t.Errorf("FileCount = %d, want 3", got)
	}

	empty := &Snapshot{SubmissionID: 8661, Galleys: []Galley{{ID: 1, Type: GalleyPDF}}}
	if empty.HasContent() {
		t.Error("empty galleys must not count as content")
	}
}
