// Package ojs talks to an Open Journal Systems instance. Uploads, deletions
// and publication updates go through the REST API with a bearer token; galley
// creation is only exposed through the web interface, so the package also
// drives a form login and the article-galley grid endpoints.
package ojs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/srmjournal/oja/internal/source"
)

// OJS file stage, genre and association constants. These are the platform's
// wire values, not ours.
const (
	fileStageProof     = 10 // main galley files
	fileStageDependent = 17 // files attached to a main file

	GenreArticleText       = 1
	GenreResearchMaterials = 3
	GenreImage             = 10
	GenreStylesheet        = 11
	GenreAppendix          = 12

	assocTypeRepresentation = 521 // galley
	assocTypeSubmissionFile = 515 // dependent file parent

	stageProduction = 5
)

// DebugFunc receives debug lines when debug output is enabled.
type DebugFunc func(format string, args ...any)

// Config carries the connection settings for one OJS instance.
type Config struct {
	// BaseURL is the instance root, without a trailing slash.
	BaseURL string

	// APIToken authenticates REST calls.
	APIToken string

	// Username and Password authenticate the web session for galley
	// creation.
	Username string
	Password string

	// HTTPClient overrides the default client, mainly for tests.
	HTTPClient *http.Client

	// Debug, when non-nil, receives request/response traces.
	Debug DebugFunc
}

// Client is an authenticated connection to one OJS instance. The zero value
// is not usable; use NewClient.
type Client struct {
	baseURL  string
	token    string
	username string
	password string

	rest *http.Client
	web  *http.Client

	loggedIn bool
	debug    DebugFunc
}

// NewClient creates a client from the given settings.
func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")

	restClient := cfg.HTTPClient
	if restClient == nil {
		restClient = &http.Client{Timeout: 60 * time.Second}
	}

	// The web session needs cookies for the login state. Share the transport
	// with the REST client but keep a separate jar-backed client.
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	webClient := &http.Client{
		Transport: restClient.Transport,
		Timeout:   restClient.Timeout,
		Jar:       jar,
	}

	debug := cfg.Debug
	if debug == nil {
		debug = func(string, ...any) {}
	}

	return &Client{
		baseURL:  base,
		token:    cfg.APIToken,
		username: cfg.Username,
		password: cfg.Password,
		rest:     restClient,
		web:      webClient,
		debug:    debug,
	}, nil
}

// apiURL builds a REST endpoint URL.
func (c *Client) apiURL(parts ...string) string {
	return c.baseURL + "/api/v1/" + strings.Join(parts, "/")
}

// doREST performs an authenticated REST request and decodes a JSON response
// into out (when out is non-nil). Non-2xx responses become errors carrying
// the status and a response excerpt.
func (c *Client) doREST(ctx context.Context, method, rawURL string, body io.Reader, contentType string, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, rawURL, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	c.debug("%s %s", method, rawURL)
	resp, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// StatusError is a non-2xx REST response.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Transient reports whether the failure is worth retrying.
func (e *StatusError) Transient() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

func newStatusError(resp *http.Response) error {
	excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	msg := ""
	var payload struct {
		Error        string `json:"error"`
		ErrorMessage string `json:"errorMessage"`
		Message      string `json:"message"`
	}
	if json.Unmarshal(excerpt, &payload) == nil {
		switch {
		case payload.Error != "":
			msg = payload.Error
		case payload.ErrorMessage != "":
			msg = payload.ErrorMessage
		case payload.Message != "":
			msg = payload.Message
		}
	}
	if msg == "" {
		msg = strings.TrimSpace(string(excerpt))
	}
	return &StatusError{StatusCode: resp.StatusCode, Message: msg}
}

// uploadOptions parameterize one file upload.
type uploadOptions struct {
	fileStage    int
	genreID      int
	assocType    int
	assocID      int
	sourceFileID int
}

// uploadedFile is the REST response for a created submission file.
type uploadedFile struct {
	ID int `json:"id"`
}

// uploadFile posts one multipart file upload and returns the new file ID.
func (c *Client) uploadFile(ctx context.Context, submissionID int, entry source.Entry, opts uploadOptions) (int, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	part, err := w.CreateFormFile("file", entry.Name())
	if err != nil {
		return 0, fmt.Errorf("failed to build multipart body: %w", err)
	}
	rc, err := entry.Open()
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", entry.Name(), err)
	}
	if _, err := io.Copy(part, rc); err != nil {
		rc.Close()
		return 0, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
	}
	rc.Close()

	fields := map[string]int{
		"fileStage": opts.fileStage,
		"genreId":   opts.genreID,
	}
	if opts.assocID != 0 {
		fields["assocType"] = opts.assocType
		fields["assocId"] = opts.assocID
	}
	if opts.sourceFileID != 0 {
		fields["sourceSubmissionFileId"] = opts.sourceFileID
	}
	for k, v := range fields {
		if err := w.WriteField(k, strconv.Itoa(v)); err != nil {
			return 0, fmt.Errorf("failed to write field %s: %w", k, err)
		}
	}
	if err := w.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var created uploadedFile
	err = c.doREST(ctx, http.MethodPost, c.apiURL("submissions", strconv.Itoa(submissionID), "files"), &buf, w.FormDataContentType(), &created)
	if err != nil {
		return 0, fmt.Errorf("upload of %s failed: %w", entry.Name(), err)
	}
	c.debug("uploaded %s as file %d", entry.Name(), created.ID)
	return created.ID, nil
}

// UploadMainFile uploads a galley's main file.
func (c *Client) UploadMainFile(ctx context.Context, submissionID int, entry source.Entry, genreID, galleyID int) (int, error) {
	return c.uploadFile(ctx, submissionID, entry, uploadOptions{
		fileStage: fileStageProof,
		genreID:   genreID,
		assocType: assocTypeRepresentation,
		assocID:   galleyID,
	})
}

// UploadDependentFile uploads a file attached to a main file (figures and
// stylesheets under an HTML document).
func (c *Client) UploadDependentFile(ctx context.Context, submissionID int, entry source.Entry, genreID, mainFileID int) (int, error) {
	return c.uploadFile(ctx, submissionID, entry, uploadOptions{
		fileStage:    fileStageDependent,
		genreID:      genreID,
		assocType:    assocTypeSubmissionFile,
		assocID:      mainFileID,
		sourceFileID: mainFileID,
	})
}

// DeleteFile removes a submission file.
func (c *Client) DeleteFile(ctx context.Context, submissionID, fileID int) error {
	u := c.apiURL("submissions", strconv.Itoa(submissionID), "files", strconv.Itoa(fileID)) +
		"?stageId=" + strconv.Itoa(stageProduction)
	if err := c.doREST(ctx, http.MethodDelete, u, nil, "", nil); err != nil {
		return fmt.Errorf("failed to delete file %d: %w", fileID, err)
	}
	c.debug("deleted file %d", fileID)
	return nil
}

// VerifyFile polls the file endpoint until the file is visible, so dependent
// uploads are not sent before the platform has finished processing the main
// file.
func (c *Client) VerifyFile(ctx context.Context, submissionID, fileID, attempts int, delay time.Duration) bool {
	u := c.apiURL("submissions", strconv.Itoa(submissionID), "files", strconv.Itoa(fileID)) +
		"?stageId=" + strconv.Itoa(stageProduction)
	for i := 0; i < attempts; i++ {
		if err := c.doREST(ctx, http.MethodGet, u, nil, "", nil); err == nil {
			return true
		} else {
			c.debug("file %d not yet visible (attempt %d/%d): %v", fileID, i+1, attempts, err)
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				return false
			case <-time.After(delay):
			}
		}
	}
	return false
}

// UpdatePublicationPages sets only the pages field of a publication.
func (c *Client) UpdatePublicationPages(ctx context.Context, submissionID, publicationID int, pages string) error {
	body, err := json.Marshal(map[string]string{"pages": pages})
	if err != nil {
		return err
	}
	u := c.apiURL("submissions", strconv.Itoa(submissionID), "publications", strconv.Itoa(publicationID))
	if err := c.doREST(ctx, http.MethodPut, u, bytes.NewReader(body), "application/json", nil); err != nil {
		return fmt.Errorf("failed to update publication pages: %w", err)
	}
	return nil
}

// Ping checks that the REST API is reachable with the configured token. A 401
// still proves the endpoint exists, which is all a connection test needs.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL("submissions"), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	resp, err := c.rest.Do(req)
	if err != nil {
		return fmt.Errorf("REST API unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusUnauthorized {
		return fmt.Errorf("REST API responded with HTTP %d", resp.StatusCode)
	}
	return nil
}

// webValues builds url.Values from a string map.
func webValues(m map[string]string) url.Values {
	v := url.Values{}
	for k, val := range m {
		v.Set(k, val)
	}
	return v
}
