// Package bot implements the transport-agnostic handler layer: free-text
// reference enrichment, tag-hint and search commands, and inline queries.
package bot

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/entry"
	"github.com/roolsbot/roolsbot/pkg/github"
	"github.com/roolsbot/roolsbot/pkg/reference"
	"github.com/roolsbot/roolsbot/pkg/search"
	"github.com/roolsbot/roolsbot/pkg/taghints"
)

// enclosedPattern matches "+sub query+" spans in inline and free-text
// search requests. Group 1 is the span without the enclosing characters.
var enclosedPattern = regexp.MustCompile(`\+([^+]*)\+`)

// ErrUnknownCommand is returned for commands no handler claims.
var ErrUnknownCommand = errors.New("bot: unknown command")

// InlineResult is one answer to an inline query, ready for the transport
// to wrap into its own result type.
type InlineResult struct {
	Title       string
	Description string
	MessageText string
	Keyboard    *entry.Keyboard
}

// Bot wires the search service and the issue cache into handlers.
type Bot struct {
	search  *search.Service
	cache   *github.Cache
	log     *logrus.Logger
	name    string
	command *regexp.Regexp
}

func New(service *search.Service, cache *github.Cache, botName string, log *logrus.Logger) *Bot {
	if log == nil {
		log = utils.Log
	}
	return &Bot{
		search:  service,
		cache:   cache,
		log:     log,
		name:    botName,
		command: taghints.CommandPattern(botName),
	}
}

// MatchCommand splits "/tag rest" into tag and trailing text when the text
// is one of the known hint commands.
func (b *Bot) MatchCommand(text string) (tag, query string, ok bool) {
	match := b.command.FindStringSubmatch(text)
	if match == nil {
		return "", "", false
	}
	for i, name := range b.command.SubexpNames() {
		switch name {
		case "tag":
			tag = match[i]
		case "query":
			query = match[i]
		}
	}
	return tag, query, true
}

// HandleFreeText scans a chat message for structural references, resolves
// them and returns one rendered reply link per unique reference, in order
// of appearance. Messages marked with "!search" additionally resolve
// "+enclosed+" spans through a top-1 fuzzy search.
func (b *Bot) HandleFreeText(ctx context.Context, text string) []string {
	type located struct {
		start  int
		markup string
	}
	var found []located

	for _, ref := range reference.FindAll(text) {
		switch {
		case ref.Number != 0:
			issue, err := b.cache.GetIssue(ctx, ref.Number, ref.Owner, ref.Repo)
			if err != nil {
				if !github.IsNotFound(err) {
					b.log.Warnf("Resolving issue reference #%d failed: %v", ref.Number, err)
				}
				continue
			}
			found = append(found, located{ref.Start, issue.HTMLReplyMarkup("")})
		case ref.SHA != "":
			commit, err := b.cache.GetCommit(ctx, ref.SHA, ref.Owner, ref.Repo)
			if err != nil {
				if !github.IsNotFound(err) {
					b.log.Warnf("Resolving commit reference %.7s failed: %v", ref.SHA, err)
				}
				continue
			}
			found = append(found, located{ref.Start, commit.HTMLReplyMarkup("")})
		case ref.Contribution != "":
			if contrib := b.search.ContributionByName(ref.Contribution); contrib != nil {
				found = append(found, located{ref.Start, contrib.HTMLReplyMarkup("")})
			}
		}
	}

	if strings.HasPrefix(text, "!search") || strings.HasSuffix(text, "!search") {
		for _, match := range enclosedPattern.FindAllStringIndex(text, -1) {
			results := b.search.Search(ctx, text[match[0]:match[1]], 1)
			if len(results) > 0 {
				found = append(found, located{match[0], results[0].HTMLReplyMarkup("")})
			}
		}
		sort.SliceStable(found, func(i, j int) bool { return found[i].start < found[j].start })
	}

	// Unique links only, preserving order of appearance.
	seen := make(map[string]bool, len(found))
	var replies []string
	for _, f := range found {
		if seen[f.markup] {
			continue
		}
		seen[f.markup] = true
		replies = append(replies, f.markup)
	}
	return replies
}

// HandleCommand answers "/name query". Tag hints render their template with
// the trailing text (or their default); docs and wiki run a top-1 search or,
// without a query, link their landing page.
func (b *Bot) HandleCommand(ctx context.Context, name, query string) (string, *entry.Keyboard, error) {
	if hint := taghints.Get(name); hint != nil {
		full := "/" + name
		if query != "" {
			full += " " + query
		}
		return hint.HTMLMarkup(full), hint.InlineKeyboard(), nil
	}

	switch name {
	case "docs":
		if query == "" {
			return fmt.Sprintf(`<a href="%s">python-telegram-bot documentation</a>`,
				entry.DocsURL), nil, nil
		}
	case "wiki":
		if query == "" {
			return fmt.Sprintf(`<a href="%s">python-telegram-bot wiki</a>`,
				entry.WikiURL), nil, nil
		}
	default:
		return "", nil, fmt.Errorf("%w: /%s", ErrUnknownCommand, name)
	}

	results := b.search.Search(ctx, query, 1)
	if len(results) == 0 {
		return fmt.Sprintf("Sorry, your search for %q returned no results 👀", query), nil, nil
	}
	best := results[0]
	return best.HTMLMarkup(query), best.InlineKeyboard(), nil
}

// HandleInlineQuery answers an inline search. Queries containing
// "+enclosed+" spans yield one result per combination of sub-query
// interpretations; plain queries yield the ranked results directly.
func (b *Bot) HandleInlineQuery(ctx context.Context, query string) []InlineResult {
	if enclosedPattern.MatchString(query) {
		return b.combinationResults(ctx, query)
	}

	entries := b.search.Search(ctx, query, 0)
	results := make([]InlineResult, 0, len(entries))
	for _, e := range entries {
		results = append(results, InlineResult{
			Title:       e.DisplayName(),
			Description: e.Description(),
			MessageText: e.HTMLMarkup(query),
			Keyboard:    e.InlineKeyboard(),
		})
	}
	return results
}

func (b *Bot) combinationResults(ctx context.Context, query string) []InlineResult {
	var symbols []string
	for _, match := range enclosedPattern.FindAllStringSubmatch(query, -1) {
		symbols = append(symbols, match[1])
	}

	// Iterate symbols in first-occurrence order; the combination maps have
	// no order of their own.
	ordered := symbols[:0:0]
	seen := make(map[string]bool, len(symbols))
	for _, s := range symbols {
		if !seen[s] {
			seen[s] = true
			ordered = append(ordered, s)
		}
	}

	var results []InlineResult
	for _, combo := range b.search.Combine(ctx, symbols, search.DefaultCombineResults) {
		var (
			descriptions []string
			index        []string
			keyboard     *entry.Keyboard
		)
		messageText := query

		for _, symbol := range ordered {
			e, ok := combo[symbol]
			if !ok {
				continue
			}
			descriptions = append(descriptions, e.ShortDescription())
			messageText = strings.ReplaceAll(
				messageText, "+"+symbol+"+", e.HTMLInsertionMarkup(symbol))
			if issue, isIssue := e.(*entry.Issue); isIssue {
				index = append(index, issue.HTMLMarkup(symbol))
			}
			keyboard = keyboard.Merge(e.InlineKeyboard())
		}

		if len(index) > 0 {
			messageText += "\n\n" + strings.Join(index, "\n")
		}
		results = append(results, InlineResult{
			Title:       "Insert links into message",
			Description: strings.Join(descriptions, ", "),
			MessageText: messageText,
			Keyboard:    keyboard,
		})
	}
	return results
}
