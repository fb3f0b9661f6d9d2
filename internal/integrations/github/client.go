// Package github reads repositories and issues from the GitHub REST API.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultBaseURL = "https://api.github.com"
	perPage        = 100
	maxPages       = 20
)

// APIError is a non-2xx answer from GitHub.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("github api status=%d body=%s", e.Status, e.Body)
}

type Repository struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	FullName    string `json:"full_name"`
	Description string `json:"description"`
	Private     bool   `json:"private"`
	HTMLURL     string `json:"html_url"`
}

type Label struct {
	Name string `json:"name"`
}

type Milestone struct {
	DueOn *time.Time `json:"due_on"`
}

type Issue struct {
	ID          int64      `json:"id"`
	Number      int        `json:"number"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	State       string     `json:"state"`
	HTMLURL     string     `json:"html_url"`
	Labels      []Label    `json:"labels"`
	Milestone   *Milestone `json:"milestone"`
	PullRequest *struct{}  `json:"pull_request"`
}

// IsPullRequest reports whether the issues endpoint returned a pull request.
func (i Issue) IsPullRequest() bool {
	return i.PullRequest != nil
}

type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client authenticating every request with token.
func New(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	hc := oauth2.NewClient(context.Background(), oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token}))
	hc.Timeout = timeout
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// paginate fetches pages of up to perPage items until a short page comes back.
func paginate[T any](ctx context.Context, c *Client, path string, q url.Values) ([]T, error) {
	var all []T
	for page := 1; page <= maxPages; page++ {
		q.Set("per_page", fmt.Sprint(perPage))
		q.Set("page", fmt.Sprint(page))

		var batch []T
		if err := c.getJSON(ctx, path, q, &batch); err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) < perPage {
			break
		}
	}
	return all, nil
}

// ListRepositories returns the repositories the token can access, recently updated first.
func (c *Client) ListRepositories(ctx context.Context) ([]Repository, error) {
	return paginate[Repository](ctx, c, "/user/repos", url.Values{"sort": {"updated"}})
}

// ListIssues returns open and closed issues of owner/repo. Pull requests are included and
// flagged by IsPullRequest.
func (c *Client) ListIssues(ctx context.Context, fullName string) ([]Issue, error) {
	owner, repo, ok := strings.Cut(fullName, "/")
	if !ok || owner == "" || repo == "" {
		return nil, fmt.Errorf("github: invalid repository %q", fullName)
	}
	path := "/repos/" + url.PathEscape(owner) + "/" + url.PathEscape(repo) + "/issues"
	return paginate[Issue](ctx, c, path, url.Values{"state": {"all"}})
}
