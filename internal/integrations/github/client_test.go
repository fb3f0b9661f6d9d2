package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListRepositories_Paginates(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/user/repos", r.URL.Path)
		assert.Equal(t, "Bearer gh-token", r.Header.Get("Authorization"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		w.Header().Set("Content-Type", "application/json")
		if page == "1" {
			fmt.Fprint(w, "[")
			for i := 0; i < perPage; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"id":%d,"full_name":"acme/repo-%d"}`, i, i)
			}
			fmt.Fprint(w, "]")
			return
		}
		fmt.Fprint(w, `[{"id":1000,"full_name":"acme/last","private":true}]`)
	}))
	defer server.Close()

	repos, err := New(server.URL, "gh-token", time.Second).ListRepositories(context.Background())

	require.NoError(t, err)
	assert.Len(t, repos, perPage+1)
	assert.Equal(t, "acme/last", repos[perPage].FullName)
	assert.True(t, repos[perPage].Private)
	assert.Equal(t, []string{"1", "2"}, pages)
}

func TestClient_ListIssues(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/api/issues", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("state"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `[
			{"id":1,"number":7,"title":"Bug","body":"broken","state":"open","html_url":"https://github.com/acme/api/issues/7",
			 "labels":[{"name":"bug"}],"milestone":{"due_on":"2024-07-01T00:00:00Z"}},
			{"id":2,"number":8,"title":"PR","state":"open","pull_request":{"url":"x"}}
		]`)
	}))
	defer server.Close()

	issues, err := New(server.URL, "t", time.Second).ListIssues(context.Background(), "acme/api")

	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.False(t, issues[0].IsPullRequest())
	assert.Equal(t, "bug", issues[0].Labels[0].Name)
	require.NotNil(t, issues[0].Milestone.DueOn)
	assert.True(t, issues[1].IsPullRequest())
}

func TestClient_ListIssues_InvalidName(t *testing.T) {
	_, err := New("http://unused", "t", time.Second).ListIssues(context.Background(), "no-slash")
	assert.Error(t, err)
}

func TestClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Bad credentials"}`)
	}))
	defer server.Close()

	_, err := New(server.URL, "bad", time.Second).ListRepositories(context.Background())

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Body, "Bad credentials")
}
