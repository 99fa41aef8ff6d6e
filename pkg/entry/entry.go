// Package entry defines the searchable content types the bot can answer
// with: wiki pages, documentation symbols, GitHub issues and commits,
// community contributions and canned tag hints. Every type satisfies Entry,
// so the search engine can rank and render them uniformly.
package entry

// Project-wide constants of the community this bot serves.
const (
	DefaultRepoOwner = "python-telegram-bot"
	DefaultRepoName  = "python-telegram-bot"
	GitHubURL        = "https://github.com/"
	ProjectURL       = GitHubURL + DefaultRepoOwner + "/" + DefaultRepoName + "/"
	WikiURL          = ProjectURL + "wiki/"
	DocsURL          = "https://docs.python-telegram-bot.org/"
	OfficialURL      = "https://core.telegram.org/bots/api"
	ExamplesURL      = DocsURL + "examples.html"
	ContribURL       = GitHubURL + DefaultRepoOwner + "/ptbcontrib/"

	arrowCharacter      = "➜"
	telegramSuperscript = "ᵀᴱᴸᴱᴳᴿᴬᴹ"
)

// Button is a single inline keyboard button. Exactly one of URL and
// SwitchInlineQuery should be set; the chat transport renders it.
type Button struct {
	Text              string
	URL               string
	SwitchInlineQuery string
}

// Keyboard is an inline keyboard attached to a search result.
type Keyboard struct {
	Rows [][]Button
}

// Merge appends the rows of other to k. Either side may be nil. The rows of
// other are copied, so merging never aliases its row slice.
func (k *Keyboard) Merge(other *Keyboard) *Keyboard {
	if other == nil {
		return k
	}
	if k == nil {
		return &Keyboard{Rows: append([][]Button(nil), other.Rows...)}
	}
	k.Rows = append(k.Rows, other.Rows...)
	return k
}

// Entry is a unit of searchable, renderable content.
//
// CompareToQuery must be a pure function of the entry and the query: it
// returns a score in [0,100], never mutates the entry and is safe to call
// concurrently once a collection snapshot has been taken. 100 is reserved
// for exact structural matches (issue number, sha prefix, exact tag).
type Entry interface {
	// DisplayName is the name shown in search results.
	DisplayName() string
	// ShortName is a potentially shorter name, defaulting to DisplayName.
	ShortName() string
	// Description describes the entry in search results.
	Description() string
	// ShortDescription is used when several results share one line.
	ShortDescription() string
	// HTMLMarkup renders the entry when it is selected in a search.
	HTMLMarkup(query string) string
	// HTMLInsertionMarkup renders the entry for insertion into a message.
	HTMLInsertionMarkup(query string) string
	// HTMLReplyMarkup renders the entry for a direct reply.
	HTMLReplyMarkup(query string) string
	// CompareToQuery scores how well the query matches this entry.
	CompareToQuery(query string) float64
	// InlineKeyboard returns an optional keyboard, nil for most entries.
	InlineKeyboard() *Keyboard
}
