// Package jira reads projects and issues from the Jira Cloud REST API v3.
package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const pageSize = 50

// APIError is a non-2xx answer from Jira.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("jira api status=%d body=%s", e.Status, e.Body)
}

type Project struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type Issue struct {
	ID             string
	Key            string
	Summary        string
	Description    string
	StatusName     string
	StatusCategory string
	Priority       string
	DueDate        *time.Time
	Labels         []string
	URL            string
}

type Client struct {
	baseURL string
	email   string
	token   string
	http    *http.Client
	backoff time.Duration
}

// New returns a client for baseURL. With an email the token is sent as basic auth (Jira
// Cloud API tokens), otherwise as a bearer personal access token.
func New(baseURL, email, token string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		email:   email,
		token:   token,
		http:    &http.Client{Timeout: timeout},
		backoff: 300 * time.Millisecond,
	}
}

func (c *Client) apiURL(path string, q url.Values) string {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	return u
}

// doJSON retries 429 and 5xx answers up to three attempts with exponential backoff.
func (c *Client) doJSON(ctx context.Context, method, u string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("jira: empty base url")
	}

	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(c.backoff << (attempt - 1)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(payload))
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.email != "" {
			req.SetBasicAuth(c.email, c.token)
		} else {
			req.Header.Set("Authorization", "Bearer "+c.token)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode >= 300 {
			b, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			_ = resp.Body.Close()
			apiErr := &APIError{Status: resp.StatusCode, Body: strings.TrimSpace(string(b))}
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				lastErr = apiErr
				continue
			}
			return apiErr
		}

		err = json.NewDecoder(resp.Body).Decode(out)
		_ = resp.Body.Close()
		return err
	}
	return lastErr
}

// ListProjects returns every project visible to the credentials.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var all []Project
	for startAt := 0; ; {
		var page struct {
			Values []Project `json:"values"`
			IsLast bool      `json:"isLast"`
		}
		q := url.Values{"startAt": {fmt.Sprint(startAt)}, "maxResults": {fmt.Sprint(pageSize)}}
		if err := c.doJSON(ctx, http.MethodGet, c.apiURL("/rest/api/3/project/search", q), nil, &page); err != nil {
			return nil, err
		}
		all = append(all, page.Values...)
		if page.IsLast || len(page.Values) == 0 {
			return all, nil
		}
		startAt += len(page.Values)
	}
}

type searchResponse struct {
	StartAt    int `json:"startAt"`
	MaxResults int `json:"maxResults"`
	Total      int `json:"total"`
	Issues     []struct {
		ID     string `json:"id"`
		Key    string `json:"key"`
		Fields struct {
			Summary     string          `json:"summary"`
			Description json.RawMessage `json:"description"`
			Status      struct {
				Name           string `json:"name"`
				StatusCategory struct {
					Key string `json:"key"`
				} `json:"statusCategory"`
			} `json:"status"`
			Priority *struct {
				Name string `json:"name"`
			} `json:"priority"`
			DueDate string   `json:"duedate"`
			Labels  []string `json:"labels"`
		} `json:"fields"`
	} `json:"issues"`
}

// SearchIssues returns every issue of the project with the given key.
func (c *Client) SearchIssues(ctx context.Context, projectKey string) ([]Issue, error) {
	if strings.TrimSpace(projectKey) == "" {
		return nil, fmt.Errorf("jira: empty project key")
	}
	jql := fmt.Sprintf(`project = "%s" ORDER BY created ASC`, strings.ReplaceAll(projectKey, `"`, ""))

	var all []Issue
	for startAt := 0; ; {
		body := map[string]any{
			"jql":        jql,
			"startAt":    startAt,
			"maxResults": pageSize,
			"fields":     []string{"summary", "description", "status", "priority", "duedate", "labels"},
		}
		var page searchResponse
		if err := c.doJSON(ctx, http.MethodPost, c.apiURL("/rest/api/3/search", nil), body, &page); err != nil {
			return nil, err
		}

		for _, raw := range page.Issues {
			issue := Issue{
				ID:             raw.ID,
				Key:            raw.Key,
				Summary:        raw.Fields.Summary,
				Description:    DescriptionText(raw.Fields.Description),
				StatusName:     raw.Fields.Status.Name,
				StatusCategory: raw.Fields.Status.StatusCategory.Key,
				Labels:         raw.Fields.Labels,
				URL:            c.baseURL + "/browse/" + raw.Key,
			}
			if raw.Fields.Priority != nil {
				issue.Priority = raw.Fields.Priority.Name
			}
			if d, err := time.Parse("2006-01-02", raw.Fields.DueDate); err == nil {
				issue.DueDate = &d
			}
			all = append(all, issue)
		}

		startAt += len(page.Issues)
		if len(page.Issues) == 0 || startAt >= page.Total {
			return all, nil
		}
	}
}

type adfNode struct {
	Type    string    `json:"type"`
	Text    string    `json:"text"`
	Content []adfNode `json:"content"`
}

// DescriptionText flattens a description that is either plain text (API v2) or an
// Atlassian Document Format tree (API v3). Block nodes end with a newline.
func DescriptionText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var doc adfNode
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ""
	}

	var b strings.Builder
	var walk func(n adfNode)
	walk = func(n adfNode) {
		switch n.Type {
		case "text":
			b.WriteString(n.Text)
		case "hardBreak":
			b.WriteString("\n")
		}
		for _, child := range n.Content {
			walk(child)
		}
		switch n.Type {
		case "paragraph", "heading", "listItem", "codeBlock", "blockquote":
			b.WriteString("\n")
		}
	}
	walk(doc)
	return strings.TrimSpace(b.String())
}
