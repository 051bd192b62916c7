package ojs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Login authenticates the web session. The login form's hidden fields are
// scraped and sent back along with the credentials, mirroring what a browser
// would submit. Calling Login on an already logged-in client is a no-op.
func (c *Client) Login(ctx context.Context) error {
	if c.loggedIn {
		return nil
	}

	loginURL := c.baseURL + "/login"
	resp, err := c.webGet(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("failed to load login page: %w", err)
	}
	doc, err := html.Parse(resp.Body)
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to parse login page: %w", err)
	}

	form := findForm(doc, "login")
	if form == nil {
		return fmt.Errorf("no login form found at %s", loginURL)
	}

	fields := hiddenInputs(form)
	fields["username"] = c.username
	fields["password"] = c.password
	fields["remember"] = "0"

	action := attr(form, "action")
	if action == "" {
		action = "/login"
	}
	if !strings.HasPrefix(action, "http") {
		action = c.baseURL + action
	}

	resp, err = c.webPostForm(ctx, action, fields)
	if err != nil {
		return fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	// A successful login redirects away from the login page.
	final := resp.Request.URL.String()
	if strings.Contains(strings.ToLower(final), "login") {
		return fmt.Errorf("web login rejected for user %s", c.username)
	}
	c.loggedIn = true
	return nil
}

// galleyGridURL builds a component-handler URL of the article-galley grid.
func (c *Client) galleyGridURL(op string, params map[string]string) string {
	u := c.baseURL + "/$$$call$$$/grid/article-galleys/article-galley-grid/" + op
	if len(params) > 0 {
		u += "?" + webValues(params).Encode()
	}
	return u
}

// CreateGalley creates an empty galley with the given label via the web
// interface; the REST API has no endpoint for this. The caller is expected to
// re-fetch the submission afterwards to learn the new galley's ID.
func (c *Client) CreateGalley(ctx context.Context, submissionID, publicationID int, label, locale string) error {
	if err := c.Login(ctx); err != nil {
		return err
	}
	if locale == "" {
		locale = "en_US"
	}

	params := map[string]string{
		"submissionId":  strconv.Itoa(submissionID),
		"publicationId": strconv.Itoa(publicationID),
	}

	// The add-galley form carries the CSRF token the update call requires.
	resp, err := c.webGet(ctx, c.galleyGridURL("add-galley", params))
	if err != nil {
		return fmt.Errorf("failed to load galley form: %w", err)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	resp.Body.Close()
	if err != nil {
		return fmt.Errorf("failed to read galley form: %w", err)
	}

	token, err := csrfToken(raw)
	if err != nil {
		return fmt.Errorf("galley form for %q: %w", label, err)
	}

	createParams := map[string]string{
		"submissionId":     strconv.Itoa(submissionID),
		"publicationId":    strconv.Itoa(publicationID),
		"representationId": "",
	}
	fields := map[string]string{
		"csrfToken":    token,
		"label":        label,
		"galleyLocale": locale,
	}

	resp, err = c.webPostForm(ctx, c.galleyGridURL("update-galley", createParams), fields)
	if err != nil {
		return fmt.Errorf("galley creation request failed: %w", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("galley creation for %q failed: HTTP %d", label, resp.StatusCode)
	}
	var status struct {
		Status bool `json:"status"`
	}
	if json.Unmarshal(body, &status) == nil && !status.Status {
		return fmt.Errorf("galley creation for %q rejected by server", label)
	}
	c.debug("created galley %q", label)
	return nil
}

// csrfToken extracts the csrfToken input from a grid form response. Grid
// responses wrap the form HTML in a JSON envelope; plain HTML also occurs.
func csrfToken(raw []byte) (string, error) {
	content := raw
	var envelope struct {
		Content string `json:"content"`
	}
	if json.Unmarshal(raw, &envelope) == nil && envelope.Content != "" {
		content = []byte(envelope.Content)
	}

	doc, err := html.Parse(strings.NewReader(string(content)))
	if err != nil {
		return "", fmt.Errorf("failed to parse form HTML: %w", err)
	}
	var token string
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "name") == "csrfToken" {
			token = attr(n, "value")
		}
	})
	if token == "" {
		return "", fmt.Errorf("no CSRF token in form")
	}
	return token, nil
}

func (c *Client) webGet(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	resp, err := c.web.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}
	return resp, nil
}

func (c *Client) webPostForm(ctx context.Context, rawURL string, fields map[string]string) (*http.Response, error) {
	body := webValues(fields).Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.web.Do(req)
}

const userAgent = "oja/1.0"

// walk visits every node of an HTML tree.
func walk(n *html.Node, fn func(*html.Node)) {
	fn(n)
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		walk(child, fn)
	}
}

// attr returns the value of a node attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// findForm returns the form with the given id, falling back to the first
// form in the document.
func findForm(doc *html.Node, id string) *html.Node {
	var withID, first *html.Node
	walk(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "form" {
			if first == nil {
				first = n
			}
			if attr(n, "id") == id && withID == nil {
				withID = n
			}
		}
	})
	if withID != nil {
		return withID
	}
	return first
}

// hiddenInputs collects a form's hidden input fields.
func hiddenInputs(form *html.Node) map[string]string {
	fields := make(map[string]string)
	walk(form, func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "input" && attr(n, "type") == "hidden" {
			if name := attr(n, "name"); name != "" {
				fields[name] = attr(n, "value")
			}
		}
	})
	return fields
}
