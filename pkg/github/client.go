// Package github talks to the GitHub REST API and maintains the
// background-refreshed issue cache for the default repository.
package github

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/entry"
)

const (
	apiBaseURL = "https://api.github.com"
	userAgent  = "GitHub: roolsbot"

	// listPageSize is the per_page value for issue listing; a full page
	// means more pages may follow.
	listPageSize = 100
)

var (
	// ErrNotFound means no issue or commit exists for the identifier.
	ErrNotFound = errors.New("github: not found")
	// ErrTransient marks network or rate-limit failures that the poll
	// machine retries and never surfaces to users.
	ErrTransient = errors.New("github: transient error")
)

// Provider is the issue/commit data provider the cache is built on.
type Provider interface {
	FetchIssue(ctx context.Context, owner, repo string, number int) (*entry.Issue, error)
	FetchCommit(ctx context.Context, owner, repo, sha string) (*entry.Commit, error)
	// ListIssues returns one page of issues (PRs included, they share the
	// number space) and whether more pages follow. Pages start at 1.
	ListIssues(ctx context.Context, owner, repo string, page int) ([]*entry.Issue, bool, error)
	// ListDirectory returns the names of entries in a repository
	// directory, dirs only when dirsOnly is set. Path "" means the root.
	ListDirectory(ctx context.Context, owner, repo, path string, dirsOnly bool) ([]string, error)
}

// Client implements Provider against the REST v3 API.
type Client struct {
	http    *retryablehttp.Client
	token   string
	baseURL string
	log     *logrus.Logger
}

func NewClient(token string, log *logrus.Logger) *Client {
	if log == nil {
		log = utils.Log
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Client{
		http:    rc,
		token:   token,
		baseURL: apiBaseURL,
		log:     log,
	}
}

func (c *Client) get(ctx context.Context, path string) (string, int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusUnprocessableEntity:
		return "", resp.StatusCode, ErrNotFound
	case resp.StatusCode >= 400:
		// 403 is how GitHub reports a spent rate limit.
		return "", resp.StatusCode, fmt.Errorf("%w: status %d for %s", ErrTransient, resp.StatusCode, path)
	}
	return string(body), resp.StatusCode, nil
}

func (c *Client) FetchIssue(ctx context.Context, owner, repo string, number int) (*entry.Issue, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/issues/%d", owner, repo, number))
	if err != nil {
		return nil, err
	}
	data := gjson.Parse(body)
	return &entry.Issue{
		Owner:  owner,
		Repo:   repo,
		Number: int(data.Get("number").Int()),
		Title:  data.Get("title").String(),
		URL:    data.Get("html_url").String(),
		Author: data.Get("user.login").String(),
	}, nil
}

func (c *Client) FetchCommit(ctx context.Context, owner, repo, sha string) (*entry.Commit, error) {
	body, _, err := c.get(ctx, fmt.Sprintf("/repos/%s/%s/commits/%s", owner, repo, sha))
	if err != nil {
		return nil, err
	}
	data := gjson.Parse(body)
	title, _, _ := strings.Cut(data.Get("commit.message").String(), "\n")
	author := data.Get("author.login").String()
	if author == "" {
		author = data.Get("commit.author.name").String()
	}
	return &entry.Commit{
		Owner:  owner,
		Repo:   repo,
		SHA:    data.Get("sha").String(),
		URL:    data.Get("html_url").String(),
		Title:  title,
		Author: author,
	}, nil
}

func (c *Client) ListIssues(ctx context.Context, owner, repo string, page int) ([]*entry.Issue, bool, error) {
	path := fmt.Sprintf(
		"/repos/%s/%s/issues?state=all&per_page=%d&page=%d",
		owner, repo, listPageSize, page,
	)
	body, _, err := c.get(ctx, path)
	if err != nil {
		return nil, false, err
	}

	items := gjson.Parse(body).Array()
	issues := make([]*entry.Issue, 0, len(items))
	for _, item := range items {
		issues = append(issues, &entry.Issue{
			Owner:  owner,
			Repo:   repo,
			Number: int(item.Get("number").Int()),
			Title:  item.Get("title").String(),
			URL:    item.Get("html_url").String(),
			Author: item.Get("user.login").String(),
		})
	}
	return issues, len(items) == listPageSize, nil
}

func (c *Client) ListDirectory(ctx context.Context, owner, repo, path string, dirsOnly bool) ([]string, error) {
	apiPath := fmt.Sprintf("/repos/%s/%s/contents/%s", owner, repo, path)
	body, _, err := c.get(ctx, apiPath)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, item := range gjson.Parse(body).Array() {
		kind := item.Get("type").String()
		if dirsOnly && kind != "dir" {
			continue
		}
		if !dirsOnly && kind != "file" {
			continue
		}
		names = append(names, item.Get("name").String())
	}
	return names, nil
}
