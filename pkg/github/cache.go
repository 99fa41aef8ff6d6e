package github

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/roolsbot/roolsbot/internal/sched"
	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/entry"
)

const (
	// pageDelay spaces successive page fetches to respect rate limits.
	pageDelay = 5 * time.Second
	// idleDelay is how long the poller sleeps after a full re-scan.
	// Updates to old issues are only discoverable by re-listing.
	idleDelay = 12 * time.Hour
	// Transient failures retry the same page with capped exponential
	// backoff instead of a fixed short delay, so a long outage cannot
	// hammer the API.
	retryBaseDelay = 10 * time.Second
	retryMaxDelay  = 10 * time.Minute

	searchResultLimit = 10
)

// State is the poll machine's state.
type State int

const (
	StateIdle State = iota
	StateFetching
)

// Cache is the background-refreshed issue cache for the default repository.
// Lookups against other repositories bypass it entirely.
type Cache struct {
	provider Provider
	sched    sched.Scheduler
	log      *logrus.Logger
	owner    string
	repo     string

	mu     sync.Mutex
	issues map[int]*entry.Issue

	state      State
	page       int
	retryDelay time.Duration
}

func NewCache(provider Provider, scheduler sched.Scheduler, log *logrus.Logger) *Cache {
	if log == nil {
		log = utils.Log
	}
	return &Cache{
		provider: provider,
		sched:    scheduler,
		log:      log,
		owner:    entry.DefaultRepoOwner,
		repo:     entry.DefaultRepoName,
		issues:   make(map[int]*entry.Issue),
		state:    StateIdle,
	}
}

// SetRepository overrides the repository the cache polls and serves from.
// Empty strings keep the defaults. Must be called before Start.
func (c *Cache) SetRepository(owner, repo string) {
	if owner != "" {
		c.owner = owner
	}
	if repo != "" {
		c.repo = repo
	}
}

// Start kicks off the background poll cycle.
func (c *Cache) Start(ctx context.Context) {
	c.sched.ScheduleOnce(time.Second, func() { c.poll(ctx, 1) })
}

// poll fetches one page of the default repository's issues and schedules the
// next step of the state machine. The cache lock is only held around the
// insert loop, never across the network call.
func (c *Cache) poll(ctx context.Context, page int) {
	c.mu.Lock()
	c.state = StateFetching
	c.page = page
	c.mu.Unlock()

	issues, hasMore, err := c.provider.ListIssues(ctx, c.owner, c.repo, page)
	if err != nil {
		delay := c.nextRetryDelay()
		c.log.Warnf("Polling page %d of %s/%s failed: %v. Retrying in %s",
			page, c.owner, c.repo, err, delay)
		c.sched.ScheduleOnce(delay, func() { c.poll(ctx, page) })
		return
	}

	c.mu.Lock()
	for _, issue := range issues {
		c.issues[issue.Number] = issue
	}
	c.resetRetryDelay()
	if hasMore {
		c.state = StateFetching
		c.page = page + 1
	} else {
		c.state = StateIdle
		c.page = 0
	}
	cached := len(c.issues)
	c.mu.Unlock()

	if hasMore {
		c.sched.ScheduleOnce(pageDelay, func() { c.poll(ctx, page+1) })
		return
	}
	c.log.Infof("Issue scan of %s/%s complete, %d issues cached", c.owner, c.repo, cached)
	c.sched.ScheduleOnce(idleDelay, func() { c.poll(ctx, 1) })
}

func (c *Cache) nextRetryDelay() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.retryDelay == 0 {
		c.retryDelay = retryBaseDelay
	} else {
		c.retryDelay *= 2
		if c.retryDelay > retryMaxDelay {
			c.retryDelay = retryMaxDelay
		}
	}
	return c.retryDelay
}

func (c *Cache) resetRetryDelay() {
	c.retryDelay = 0
}

// PollState returns the machine's current state and page, for inspection.
func (c *Cache) PollState() (State, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.page
}

// GetIssue returns the issue with the given number. Empty owner/repo mean
// the default repository, which is served from the cache; other
// repositories are fetched live and never cached. A default-repo cache miss
// is fetched live and inserted.
func (c *Cache) GetIssue(ctx context.Context, number int, owner, repo string) (*entry.Issue, error) {
	if owner == "" {
		owner = c.owner
	}
	if repo == "" {
		repo = c.repo
	}

	if owner != c.owner || repo != c.repo {
		c.log.Infof("Getting issue %d for %s/%s", number, owner, repo)
		return c.provider.FetchIssue(ctx, owner, repo, number)
	}

	c.mu.Lock()
	issue, ok := c.issues[number]
	c.mu.Unlock()
	if ok {
		return issue, nil
	}

	issue, err := c.provider.FetchIssue(ctx, owner, repo, number)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.issues[issue.Number] = issue
	c.mu.Unlock()
	return issue, nil
}

// GetCommit looks up a commit. Commits are never cached.
func (c *Cache) GetCommit(ctx context.Context, sha, owner, repo string) (*entry.Commit, error) {
	if owner == "" {
		owner = c.owner
	}
	if repo == "" {
		repo = c.repo
	}
	if owner != c.owner || repo != c.repo {
		c.log.Infof("Getting commit %.7s for %s/%s", sha, owner, repo)
	}
	return c.provider.FetchCommit(ctx, owner, repo, sha)
}

// SearchIssues fuzzy-matches text against all cached issue titles and
// returns the best matches in descending score order, capped at a fixed
// count. It never consults live repositories. Equal scores order by issue
// number for determinism.
func (c *Cache) SearchIssues(text string) []*entry.Issue {
	text = strings.TrimSpace(text)

	c.mu.Lock()
	scored := make([]scoredIssue, 0, len(c.issues))
	for _, issue := range c.issues {
		if score := issue.CompareToQuery(text); score > 0 {
			scored = append(scored, scoredIssue{issue: issue, score: score})
		}
	}
	c.mu.Unlock()

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].issue.Number < scored[j].issue.Number
	})
	if len(scored) > searchResultLimit {
		scored = scored[:searchResultLimit]
	}

	results := make([]*entry.Issue, len(scored))
	for i, s := range scored {
		results[i] = s.issue
	}
	return results
}

type scoredIssue struct {
	issue *entry.Issue
	score float64
}

// CachedIssueCount reports the current cache size.
func (c *Cache) CachedIssueCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.issues)
}

// IsNotFound reports whether err means a missing issue or commit rather
// than a failure.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
