package ojs

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/srmjournal/oja/internal/remote"
)

// Inspector fetches the remote state of a submission. The real
// implementation is *Client; the engine takes the interface so the pipeline
// can be tested without a server.
type Inspector interface {
	Snapshot(ctx context.Context, submissionID int) (*remote.Snapshot, error)
}

// Publisher updates publication metadata. Satisfied by *Client.
type Publisher interface {
	UpdatePublicationPages(ctx context.Context, submissionID, publicationID int, pages string) error
}

// localized is OJS's locale-keyed string map (e.g. {"en_US": "name"}).
type localized map[string]string

// value returns the en_US entry or, failing that, any entry.
func (l localized) value() string {
	if v, ok := l["en_US"]; ok && v != "" {
		return v
	}
	for _, v := range l {
		if v != "" {
			return v
		}
	}
	return ""
}

// Wire shapes of the submission payload, reduced to the fields the snapshot
// needs.
type submissionPayload struct {
	CurrentPublicationID int                  `json:"currentPublicationId"`
	Publications         []publicationPayload `json:"publications"`
}

type publicationPayload struct {
	ID      int             `json:"id"`
	Galleys []galleyPayload `json:"galleys"`
}

type galleyPayload struct {
	ID    int          `json:"id"`
	Label string       `json:"label"`
	File  *filePayload `json:"file"`
}

type filePayload struct {
	ID             int           `json:"id"`
	Name           localized     `json:"name"`
	DependentFiles []filePayload `json:"dependentFiles"`
}

// Snapshot fetches the submission's current publication and converts its
// galleys into the read-only snapshot the analyzer consumes.
func (c *Client) Snapshot(ctx context.Context, submissionID int) (*remote.Snapshot, error) {
	var payload submissionPayload
	u := c.apiURL("submissions", strconv.Itoa(submissionID))
	if err := c.doREST(ctx, http.MethodGet, u, nil, "", &payload); err != nil {
		return nil, fmt.Errorf("failed to fetch submission %d: %w", submissionID, err)
	}

	pub := payload.currentPublication()
	if pub == nil {
		return nil, fmt.Errorf("submission %d has no publication", submissionID)
	}

	snap := &remote.Snapshot{
		SubmissionID:  submissionID,
		PublicationID: pub.ID,
	}
	for _, g := range pub.Galleys {
		galley := remote.Galley{
			ID:   g.ID,
			Type: galleyTypeForLabel(g.Label),
		}
		if g.File != nil {
			galley.Files = append(galley.Files, remote.File{
				ID:       g.File.ID,
				Name:     g.File.Name.value(),
				GalleyID: g.ID,
			})
			for _, dep := range g.File.DependentFiles {
				galley.Files = append(galley.Files, remote.File{
					ID:        dep.ID,
					Name:      dep.Name.value(),
					GalleyID:  g.ID,
					Dependent: true,
				})
			}
		}
		snap.Galleys = append(snap.Galleys, galley)
	}
	return snap, nil
}

// currentPublication resolves the publication the galleys belong to,
// preferring currentPublicationId and falling back to the first one.
func (p *submissionPayload) currentPublication() *publicationPayload {
	for i := range p.Publications {
		if p.Publications[i].ID == p.CurrentPublicationID {
			return &p.Publications[i]
		}
	}
	if len(p.Publications) > 0 {
		return &p.Publications[0]
	}
	return nil
}

// galleyTypeForLabel maps a galley label to its type. Labels are matched
// case-insensitively; unknown labels keep their literal text so they still
// show up in displays without ever matching a local role.
func galleyTypeForLabel(label string) remote.GalleyType {
	for _, t := range remote.GalleyTypes {
		if strings.EqualFold(label, t.Label()) {
			return t
		}
	}
	return remote.GalleyType(label)
}
