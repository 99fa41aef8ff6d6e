package github

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roolsbot/roolsbot/internal/sched"
	"github.com/roolsbot/roolsbot/pkg/entry"
)

type fakeProvider struct {
	mu sync.Mutex

	pages    [][]*entry.Issue
	listErrs int // number of ListIssues calls to fail before succeeding

	issues  map[int]*entry.Issue
	commits map[string]*entry.Commit

	fetchIssueCalls  int
	fetchCommitCalls int
	listCalls        int
}

func (f *fakeProvider) FetchIssue(_ context.Context, owner, repo string, number int) (*entry.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchIssueCalls++
	issue, ok := f.issues[number]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *issue
	copied.Owner = owner
	copied.Repo = repo
	return &copied, nil
}

func (f *fakeProvider) FetchCommit(_ context.Context, owner, repo, sha string) (*entry.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCommitCalls++
	commit, ok := f.commits[sha]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *commit
	copied.Owner = owner
	copied.Repo = repo
	return &copied, nil
}

func (f *fakeProvider) ListIssues(_ context.Context, _, _ string, page int) ([]*entry.Issue, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErrs > 0 {
		f.listErrs--
		return nil, false, fmt.Errorf("%w: boom", ErrTransient)
	}
	if page < 1 || page > len(f.pages) {
		return nil, false, nil
	}
	return f.pages[page-1], page < len(f.pages), nil
}

func (f *fakeProvider) ListDirectory(context.Context, string, string, string, bool) ([]string, error) {
	return nil, nil
}

func issuesPage(numbers ...int) []*entry.Issue {
	page := make([]*entry.Issue, 0, len(numbers))
	for _, n := range numbers {
		page = append(page, &entry.Issue{
			Owner:  entry.DefaultRepoOwner,
			Repo:   entry.DefaultRepoName,
			Number: n,
			Title:  fmt.Sprintf("issue %d", n),
		})
	}
	return page
}

func TestCachePollPagination(t *testing.T) {
	provider := &fakeProvider{pages: [][]*entry.Issue{issuesPage(1, 2), issuesPage(3)}}
	manual := &sched.Manual{}
	cache := NewCache(provider, manual, nil)

	cache.Start(context.Background())
	require.True(t, manual.RunNext()) // page 1

	state, page := cache.PollState()
	assert.Equal(t, StateFetching, state)
	assert.Equal(t, 2, page)
	assert.Equal(t, 5*time.Second, manual.NextDelay())
	assert.Equal(t, 2, cache.CachedIssueCount())

	require.True(t, manual.RunNext()) // page 2, last one

	state, page = cache.PollState()
	assert.Equal(t, StateIdle, state)
	assert.Equal(t, 0, page)
	assert.Equal(t, 12*time.Hour, manual.NextDelay())
	assert.Equal(t, 3, cache.CachedIssueCount())
}

func TestCachePollRetryBackoff(t *testing.T) {
	provider := &fakeProvider{
		pages:    [][]*entry.Issue{issuesPage(1)},
		listErrs: 3,
	}
	manual := &sched.Manual{}
	cache := NewCache(provider, manual, nil)

	cache.Start(context.Background())
	require.True(t, manual.RunNext()) // fails
	assert.Equal(t, 10*time.Second, manual.NextDelay())
	require.True(t, manual.RunNext()) // fails
	assert.Equal(t, 20*time.Second, manual.NextDelay())
	require.True(t, manual.RunNext()) // fails
	assert.Equal(t, 40*time.Second, manual.NextDelay())

	require.True(t, manual.RunNext()) // succeeds
	assert.Equal(t, 1, cache.CachedIssueCount())
	assert.Equal(t, 12*time.Hour, manual.NextDelay())

	// A later failure starts from the base delay again.
	provider.mu.Lock()
	provider.listErrs = 1
	provider.mu.Unlock()
	require.True(t, manual.RunNext())
	assert.Equal(t, 10*time.Second, manual.NextDelay())
}

func TestGetIssueServedFromCache(t *testing.T) {
	provider := &fakeProvider{pages: [][]*entry.Issue{issuesPage(5)}}
	manual := &sched.Manual{}
	cache := NewCache(provider, manual, nil)

	cache.Start(context.Background())
	require.True(t, manual.RunNext())

	issue, err := cache.GetIssue(context.Background(), 5, "", "")
	require.NoError(t, err)
	assert.Equal(t, 5, issue.Number)
	assert.Zero(t, provider.fetchIssueCalls)
}

func TestGetIssueMissFetchedAndInserted(t *testing.T) {
	provider := &fakeProvider{
		issues: map[int]*entry.Issue{42: {Number: 42, Title: "late arrival"}},
	}
	cache := NewCache(provider, &sched.Manual{}, nil)

	issue, err := cache.GetIssue(context.Background(), 42, "", "")
	require.NoError(t, err)
	assert.Equal(t, 42, issue.Number)
	assert.Equal(t, 1, provider.fetchIssueCalls)
	assert.Equal(t, 1, cache.CachedIssueCount())

	// Second lookup is a cache hit.
	_, err = cache.GetIssue(context.Background(), 42, "", "")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.fetchIssueCalls)
}

func TestGetIssueOtherRepoNeverCached(t *testing.T) {
	provider := &fakeProvider{
		issues: map[int]*entry.Issue{7: {Number: 7, Title: "elsewhere"}},
	}
	cache := NewCache(provider, &sched.Manual{}, nil)

	for i := 0; i < 2; i++ {
		issue, err := cache.GetIssue(context.Background(), 7, "octocat", "hello")
		require.NoError(t, err)
		assert.Equal(t, "octocat", issue.Owner)
	}
	assert.Equal(t, 2, provider.fetchIssueCalls)
	assert.Zero(t, cache.CachedIssueCount())
}

func TestGetIssueNotFound(t *testing.T) {
	cache := NewCache(&fakeProvider{}, &sched.Manual{}, nil)

	_, err := cache.GetIssue(context.Background(), 999, "", "")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestGetCommitAlwaysLive(t *testing.T) {
	provider := &fakeProvider{
		commits: map[string]*entry.Commit{"abcdef0": {SHA: "abcdef0", Title: "fix"}},
	}
	cache := NewCache(provider, &sched.Manual{}, nil)

	for i := 0; i < 2; i++ {
		commit, err := cache.GetCommit(context.Background(), "abcdef0", "", "")
		require.NoError(t, err)
		assert.Equal(t, "abcdef0", commit.SHA)
	}
	assert.Equal(t, 2, provider.fetchCommitCalls)
}

func TestSearchIssues(t *testing.T) {
	pages := [][]*entry.Issue{{
		{Owner: entry.DefaultRepoOwner, Repo: entry.DefaultRepoName, Number: 1, Title: "Webhook timeout on restart"},
		{Owner: entry.DefaultRepoOwner, Repo: entry.DefaultRepoName, Number: 2, Title: "Conversation handler loses state"},
		{Owner: entry.DefaultRepoOwner, Repo: entry.DefaultRepoName, Number: 3, Title: "Docs typo"},
	}}
	provider := &fakeProvider{pages: pages}
	manual := &sched.Manual{}
	cache := NewCache(provider, manual, nil)
	cache.Start(context.Background())
	require.True(t, manual.RunNext())

	results := cache.SearchIssues("conversation handler state")
	require.NotEmpty(t, results)
	assert.Equal(t, 2, results[0].Number)

	// An exact number outranks every fuzzy title match.
	results = cache.SearchIssues("#3")
	require.NotEmpty(t, results)
	assert.Equal(t, 3, results[0].Number)
}

func TestSearchIssuesCapped(t *testing.T) {
	var page []*entry.Issue
	for i := 1; i <= 15; i++ {
		page = append(page, &entry.Issue{
			Owner: entry.DefaultRepoOwner, Repo: entry.DefaultRepoName,
			Number: i, Title: "identical title",
		})
	}
	provider := &fakeProvider{pages: [][]*entry.Issue{page}}
	manual := &sched.Manual{}
	cache := NewCache(provider, manual, nil)
	cache.Start(context.Background())
	require.True(t, manual.RunNext())

	results := cache.SearchIssues("identical title")
	require.Len(t, results, 10)
	// Equal scores order by number.
	for i := 0; i < len(results)-1; i++ {
		assert.Less(t, results[i].Number, results[i+1].Number)
	}
}
