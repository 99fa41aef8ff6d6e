package entry

import (
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// TagHint is a canned response template keyed by a short moderator-defined
// tag. The message may contain a "{query}" placeholder which is filled with
// the free text following the tag, or with the default query if none is
// given.
type TagHint struct {
	Tag          string
	Message      string
	Help         string
	DefaultQuery string
	Keyboard     *Keyboard
}

func (t *TagHint) DisplayName() string      { return "Tag hint: " + t.ShortName() }
func (t *TagHint) ShortName() string        { return "/" + t.Tag }
func (t *TagHint) Description() string      { return t.Help }
func (t *TagHint) ShortDescription() string { return t.ShortName() }

// HTMLMarkup substitutes the text following the tag into the message
// template. The query is expected to start with the tag itself, e.g.
// "/askright how do I frobnicate". An empty substitution may leave a
// dangling blank line, so trailing whitespace is trimmed.
func (t *TagHint) HTMLMarkup(query string) string {
	insert := t.DefaultQuery
	if _, rest, found := strings.Cut(query, " "); found && strings.TrimSpace(rest) != "" {
		insert = strings.TrimSpace(rest)
	}
	return strings.TrimRight(strings.ReplaceAll(t.Message, "{query}", insert), " \n")
}

func (t *TagHint) HTMLInsertionMarkup(query string) string {
	return t.HTMLMarkup(query)
}

func (t *TagHint) HTMLReplyMarkup(query string) string {
	return t.HTMLMarkup(query)
}

// CompareToQuery compares the tag against the first whitespace-delimited
// token of the query, so an exact tag scores 100.
func (t *TagHint) CompareToQuery(query string) float64 {
	query = strings.TrimLeft(query, "/# ")
	token, _, _ := strings.Cut(query, " ")
	if token == "" {
		return 0
	}
	return float64(fuzzy.Ratio(strings.ToLower(t.Tag), strings.ToLower(token)))
}

func (t *TagHint) InlineKeyboard() *Keyboard { return t.Keyboard }
