// Package search is the aggregator: it owns the daily-refreshed source
// collections, classifies queries, dispatches them to the right collection
// and ranks the results.
package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/entry"
	"github.com/roolsbot/roolsbot/pkg/github"
	"github.com/roolsbot/roolsbot/pkg/reference"
	"github.com/roolsbot/roolsbot/pkg/taghints"
)

const (
	// memoSize bounds the search and combine memo caches.
	memoSize = 64
	// DefaultCombineResults is how many results each sub-query of a
	// combination search contributes.
	DefaultCombineResults = 3
)

// Sources provides the scraped collections. *scrape.Fetcher satisfies it.
type Sources interface {
	WikiPages(ctx context.Context) ([]*entry.WikiPage, error)
	CodeSnippets(ctx context.Context) ([]*entry.WikiPage, error)
	FAQ(ctx context.Context) ([]*entry.WikiPage, error)
	DesignPatterns(ctx context.Context) ([]*entry.WikiPage, error)
	DocEntries(ctx context.Context) ([]entry.Entry, error)
	Examples(ctx context.Context) ([]*entry.Example, error)
	Contributions(ctx context.Context) ([]*entry.Contribution, error)
}

// SourceError reports which source collection a refresh died on.
type SourceError struct {
	Source string
	Err    error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("refreshing %s: %v", e.Source, e.Err)
}

func (e *SourceError) Unwrap() error { return e.Err }

// Combination maps each sub-query of a combination search to the entry
// chosen for it.
type Combination map[string]entry.Entry

type searchKey struct {
	query  string
	amount int
}

// Service is the search engine. All collection snapshots live behind one
// mutex; the GitHub cache locks for itself, so the two never nest.
type Service struct {
	sources Sources
	cache   *github.Cache
	log     *logrus.Logger
	now     func() time.Time

	mu            sync.Mutex
	general       []entry.Entry // union of all collections, in collection order
	contribs      []entry.Entry
	contribByName map[string]entry.Entry
	lastRefresh   time.Time

	searchMemo  *lru.Cache[searchKey, []entry.Entry]
	combineMemo *lru.Cache[string, []Combination]
}

func NewService(sources Sources, cache *github.Cache, log *logrus.Logger) *Service {
	if log == nil {
		log = utils.Log
	}
	searchMemo, _ := lru.New[searchKey, []entry.Entry](memoSize)
	combineMemo, _ := lru.New[string, []Combination](memoSize)
	return &Service{
		sources:     sources,
		cache:       cache,
		log:         log,
		now:         time.Now,
		searchMemo:  searchMemo,
		combineMemo: combineMemo,
	}
}

// Refresh re-fetches every source collection and atomically swaps the
// snapshot. Any fetch failure aborts the whole refresh and leaves the
// previous snapshot in place.
func (s *Service) Refresh(ctx context.Context) error {
	wiki, err := s.sources.WikiPages(ctx)
	if err != nil {
		return &SourceError{Source: "wiki pages", Err: err}
	}
	examples, err := s.sources.Examples(ctx)
	if err != nil {
		return &SourceError{Source: "examples", Err: err}
	}
	faq, err := s.sources.FAQ(ctx)
	if err != nil {
		return &SourceError{Source: "faq", Err: err}
	}
	patterns, err := s.sources.DesignPatterns(ctx)
	if err != nil {
		return &SourceError{Source: "design patterns", Err: err}
	}
	snippets, err := s.sources.CodeSnippets(ctx)
	if err != nil {
		return &SourceError{Source: "code snippets", Err: err}
	}
	contribs, err := s.sources.Contributions(ctx)
	if err != nil {
		return &SourceError{Source: "contributions", Err: err}
	}
	docs, err := s.sources.DocEntries(ctx)
	if err != nil {
		return &SourceError{Source: "documentation", Err: err}
	}

	contribEntries := make([]entry.Entry, 0, len(contribs))
	contribByName := make(map[string]entry.Entry, len(contribs))
	for _, c := range contribs {
		contribEntries = append(contribEntries, c)
		contribByName[c.Name] = c
	}

	general := make([]entry.Entry, 0,
		len(wiki)+len(examples)+len(faq)+len(patterns)+len(snippets)+
			len(contribEntries)+len(docs)+len(taghints.All()))
	for _, p := range wiki {
		general = append(general, p)
	}
	for _, e := range examples {
		general = append(general, e)
	}
	for _, p := range faq {
		general = append(general, p)
	}
	for _, p := range patterns {
		general = append(general, p)
	}
	for _, p := range snippets {
		general = append(general, p)
	}
	general = append(general, contribEntries...)
	general = append(general, docs...)
	general = append(general, taghints.Entries()...)

	s.mu.Lock()
	s.general = general
	s.contribs = contribEntries
	s.contribByName = contribByName
	s.lastRefresh = s.now()
	s.mu.Unlock()

	s.searchMemo.Purge()
	s.combineMemo.Purge()

	s.log.Infof("Refreshed source collections, %d entries total", len(general))
	return nil
}

// maybeRefresh runs Refresh when a new calendar day has started since the
// last successful one. A failed refresh is logged and the previous snapshot
// keeps serving.
func (s *Service) maybeRefresh(ctx context.Context) {
	s.mu.Lock()
	last := s.lastRefresh
	s.mu.Unlock()

	now := s.now()
	if !last.IsZero() && last.Year() == now.Year() && last.YearDay() == now.YearDay() {
		return
	}
	if err := s.Refresh(ctx); err != nil {
		s.log.Errorf("Source refresh failed, serving previous snapshot: %v", err)
	}
}

// Search classifies the query and returns ranked results from the matching
// collection. amount caps the result count; 0 means all. The empty query
// returns the full unordered union. Results are memoized per (query, amount)
// until the next refresh.
func (s *Service) Search(ctx context.Context, query string, amount int) []entry.Entry {
	s.maybeRefresh(ctx)

	key := searchKey{query: query, amount: amount}
	if cached, ok := s.searchMemo.Get(key); ok {
		return cached
	}
	results := s.dispatch(ctx, query, amount)
	s.searchMemo.Add(key, results)
	return results
}

func (s *Service) dispatch(ctx context.Context, query string, amount int) []entry.Entry {
	if query == "" {
		s.mu.Lock()
		all := make([]entry.Entry, len(s.general))
		copy(all, s.general)
		s.mu.Unlock()
		if amount > 0 && len(all) > amount {
			all = all[:amount]
		}
		return all
	}

	if c, ok := reference.Classify(query); ok {
		switch c.Kind {
		case reference.KindIssue:
			issue, err := s.cache.GetIssue(ctx, c.Number, c.Owner, c.Repo)
			if err != nil {
				if !github.IsNotFound(err) {
					s.log.Warnf("Issue lookup for %q failed: %v", query, err)
				}
				return nil
			}
			return []entry.Entry{issue}
		case reference.KindCommit:
			commit, err := s.cache.GetCommit(ctx, c.SHA, c.Owner, c.Repo)
			if err != nil {
				if !github.IsNotFound(err) {
					s.log.Warnf("Commit lookup for %q failed: %v", query, err)
				}
				return nil
			}
			return []entry.Entry{commit}
		case reference.KindKeywordSearch:
			issues := s.cache.SearchIssues(c.Query)
			results := make([]entry.Entry, 0, len(issues))
			for _, issue := range issues {
				results = append(results, issue)
			}
			if amount > 0 && len(results) > amount {
				results = results[:amount]
			}
			return results
		case reference.KindContribution:
			s.mu.Lock()
			pool := make([]entry.Entry, len(s.contribs))
			copy(pool, s.contribs)
			s.mu.Unlock()
			return rank(pool, query, amount)
		}
	}

	if strings.HasPrefix(query, "/") {
		return rank(taghints.Entries(), query, amount)
	}

	s.mu.Lock()
	pool := make([]entry.Entry, len(s.general))
	copy(pool, s.general)
	s.mu.Unlock()
	return rank(pool, query, amount)
}

// rank sorts entries by descending query score. The sort is stable, so
// equal scores keep collection order.
func rank(entries []entry.Entry, query string, amount int) []entry.Entry {
	scores := make([]float64, len(entries))
	for i, e := range entries {
		scores[i] = e.CompareToQuery(query)
	}
	indices := make([]int, len(entries))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return scores[indices[i]] > scores[indices[j]]
	})

	ranked := make([]entry.Entry, len(entries))
	for i, idx := range indices {
		ranked[i] = entries[idx]
	}
	if amount > 0 && len(ranked) > amount {
		ranked = ranked[:amount]
	}
	return ranked
}

// Combine runs a search per distinct query and returns the cartesian
// product of the per-query top-N lists, each element mapping query to the
// chosen entry. Queries without results are dropped; duplicates keep their
// first occurrence.
func (s *Service) Combine(ctx context.Context, queries []string, perQuery int) []Combination {
	if perQuery <= 0 {
		perQuery = DefaultCombineResults
	}
	s.maybeRefresh(ctx)

	key := fmt.Sprintf("%d\x00%s", perQuery, strings.Join(queries, "\x00"))
	if cached, ok := s.combineMemo.Get(key); ok {
		return cached
	}

	var (
		retained []string
		lists    [][]entry.Entry
		seen     = make(map[string]bool)
	)
	for _, q := range queries {
		if seen[q] {
			continue
		}
		seen[q] = true
		if results := s.Search(ctx, q, perQuery); len(results) > 0 {
			retained = append(retained, q)
			lists = append(lists, results)
		}
	}

	combos := product(retained, lists)
	s.combineMemo.Add(key, combos)
	return combos
}

func product(queries []string, lists [][]entry.Entry) []Combination {
	if len(lists) == 0 {
		return nil
	}
	total := 1
	for _, l := range lists {
		total *= len(l)
	}

	combos := make([]Combination, 0, total)
	indices := make([]int, len(lists))
	for {
		combo := make(Combination, len(queries))
		for i, q := range queries {
			combo[q] = lists[i][indices[i]]
		}
		combos = append(combos, combo)

		pos := len(indices) - 1
		for ; pos >= 0; pos-- {
			indices[pos]++
			if indices[pos] < len(lists[pos]) {
				break
			}
			indices[pos] = 0
		}
		if pos < 0 {
			return combos
		}
	}
}

// ContributionByName returns the contribution with that exact name, nil
// when unknown.
func (s *Service) ContributionByName(name string) entry.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.contribByName[name]
}

// LastRefresh reports when the snapshot was last swapped, zero before the
// first successful refresh.
func (s *Service) LastRefresh() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}
