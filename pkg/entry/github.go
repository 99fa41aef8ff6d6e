package entry

import (
	"fmt"
	"strconv"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"

	"github.com/roolsbot/roolsbot/internal/utils"
)

// Issue is an issue or pull request on GitHub.
type Issue struct {
	Owner  string
	Repo   string
	Number int
	Title  string
	URL    string
	Author string
}

// ShortName omits owner and repo when they equal the configured defaults.
func (i *Issue) ShortName() string {
	var b strings.Builder
	if i.Owner != DefaultRepoOwner {
		b.WriteString(i.Owner + "/")
	}
	if i.Repo != DefaultRepoName {
		b.WriteString(i.Repo)
	}
	b.WriteString("#" + strconv.Itoa(i.Number))
	return b.String()
}

func (i *Issue) DisplayName() string {
	if i.Author != "" {
		return fmt.Sprintf("Issue %s: %s by %s", i.ShortName(), i.Title, i.Author)
	}
	return fmt.Sprintf("Issue %s: %s", i.ShortName(), i.Title)
}

func (i *Issue) Description() string { return "Search on GitHub" }

func (i *Issue) ShortDescription() string {
	return utils.TruncateString(fmt.Sprintf("Issue %s: %s", i.ShortName(), i.Title), 25)
}

func (i *Issue) HTMLMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, i.URL, i.DisplayName())
}

func (i *Issue) HTMLInsertionMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, i.URL, i.ShortName())
}

func (i *Issue) HTMLReplyMarkup(query string) string {
	return i.HTMLMarkup(query)
}

// CompareToQuery returns 100 for an exact number match and falls back to
// fuzzy title similarity otherwise.
func (i *Issue) CompareToQuery(query string) float64 {
	query = strings.TrimLeft(query, "# ")
	if strconv.Itoa(i.Number) == query {
		return 100
	}
	return float64(fuzzy.TokenSetRatio(i.Title, query))
}

func (i *Issue) InlineKeyboard() *Keyboard { return nil }

// Commit is a commit on GitHub.
type Commit struct {
	Owner  string
	Repo   string
	SHA    string
	URL    string
	Title  string
	Author string
}

func (c *Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// ShortName omits owner and repo when they equal the configured defaults.
func (c *Commit) ShortName() string {
	var b strings.Builder
	if c.Owner != DefaultRepoOwner {
		b.WriteString(c.Owner + "/")
	}
	if c.Repo != DefaultRepoName {
		b.WriteString(c.Repo)
	}
	b.WriteString("@" + c.ShortSHA())
	return b.String()
}

func (c *Commit) DisplayName() string {
	return fmt.Sprintf("Commit %s: %s by %s", c.ShortName(), c.Title, c.Author)
}

func (c *Commit) Description() string      { return "Search on GitHub" }
func (c *Commit) ShortDescription() string { return c.ShortName() }

func (c *Commit) HTMLMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, c.URL, c.DisplayName())
}

func (c *Commit) HTMLInsertionMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, c.URL, c.ShortName())
}

func (c *Commit) HTMLReplyMarkup(query string) string {
	return c.HTMLMarkup(query)
}

// CompareToQuery returns 100 when the query is a prefix of the sha, 0
// otherwise. There is no meaningful fuzzy distance between shas.
func (c *Commit) CompareToQuery(query string) float64 {
	query = strings.TrimLeft(query, "@ ")
	if query != "" && strings.HasPrefix(c.SHA, query) {
		return 100
	}
	return 0
}

func (c *Commit) InlineKeyboard() *Keyboard { return nil }

// Contribution is a community-contributed extension in the ptbcontrib repo.
type Contribution struct {
	Name string
	URL  string
}

func (c *Contribution) DisplayName() string      { return "ptbcontrib/" + c.Name }
func (c *Contribution) ShortName() string        { return c.DisplayName() }
func (c *Contribution) ShortDescription() string { return c.ShortName() }

func (c *Contribution) Description() string {
	return "Community base extensions for python-telegram-bot"
}

func (c *Contribution) HTMLMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, c.URL, c.DisplayName())
}

func (c *Contribution) HTMLInsertionMarkup(query string) string {
	return c.HTMLMarkup(query)
}

func (c *Contribution) HTMLReplyMarkup(query string) string {
	return c.HTMLInsertionMarkup(query)
}

// CompareToQuery assumes everything before the first slash is "ptbcontrib"
// (modulo typos) and compares against the remainder.
func (c *Contribution) CompareToQuery(query string) float64 {
	if _, rest, found := strings.Cut(query, "/"); found {
		query = rest
	}
	return float64(fuzzy.Ratio(c.Name, query))
}

func (c *Contribution) InlineKeyboard() *Keyboard { return nil }
