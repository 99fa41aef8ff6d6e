package entry

import (
	"fmt"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// WikiPage is a page of the project wiki, identified by the sidebar category
// it is listed under and its name.
type WikiPage struct {
	Category string
	Name     string
	URL      string

	compareName string
}

func NewWikiPage(category, name, url string) *WikiPage {
	return &WikiPage{
		Category:    category,
		Name:        name,
		URL:         url,
		compareName: category + " " + name,
	}
}

// NewCodeSnippet is a wiki page on the fixed "Code Snippets" page.
func NewCodeSnippet(name, url string) *WikiPage {
	return NewWikiPage("Code Snippets", name, url)
}

// NewFAQEntry is a wiki page on the fixed FAQ page.
func NewFAQEntry(name, url string) *WikiPage {
	return NewWikiPage("FAQ", name, url)
}

// NewDesignPatternEntry is a wiki page on the frequently-requested design
// patterns page.
func NewDesignPatternEntry(name, url string) *WikiPage {
	return NewWikiPage("Design Pattern", name, url)
}

func (w *WikiPage) DisplayName() string {
	return fmt.Sprintf("%s %s %s", w.Category, arrowCharacter, w.Name)
}

func (w *WikiPage) ShortName() string        { return w.Name }
func (w *WikiPage) Description() string      { return "Wiki of python-telegram-bot" }
func (w *WikiPage) ShortDescription() string { return w.ShortName() }

func (w *WikiPage) HTMLMarkup(query string) string {
	return fmt.Sprintf(
		"Wiki of <i>python-telegram-bot</i> - Category <i>%s</i>\n%s",
		w.Category, w.HTMLInsertionMarkup(query),
	)
}

func (w *WikiPage) HTMLInsertionMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, w.URL, w.ShortName())
}

func (w *WikiPage) HTMLReplyMarkup(string) string {
	return fmt.Sprintf(
		`<a href="%s">Wiki Category <i>%s</i>: %s</a>`,
		w.URL, w.Category, w.ShortName(),
	)
}

func (w *WikiPage) CompareToQuery(query string) float64 {
	return float64(fuzzy.TokenSetRatio(w.compareName, query))
}

func (w *WikiPage) InlineKeyboard() *Keyboard { return nil }

// Example is a file in the examples directory, addressed by its file name.
type Example struct {
	Name string
	URL  string

	searchName string
}

func NewExample(name string) *Example {
	href := strings.TrimSuffix(name, ".py")
	return &Example{
		Name:       name,
		URL:        DocsURL + "examples.html#examples-" + href,
		searchName: "example " + name,
	}
}

func (e *Example) DisplayName() string {
	return fmt.Sprintf("Examples %s %s", arrowCharacter, e.Name)
}

func (e *Example) ShortName() string        { return e.Name }
func (e *Example) Description() string      { return "Examples directory of python-telegram-bot" }
func (e *Example) ShortDescription() string { return e.ShortName() }

func (e *Example) HTMLMarkup(query string) string {
	return "Examples directory of <i>python-telegram-bot</i>:\n" + e.HTMLInsertionMarkup(query)
}

func (e *Example) HTMLInsertionMarkup(string) string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, e.URL, e.ShortName())
}

func (e *Example) HTMLReplyMarkup(query string) string {
	return e.HTMLInsertionMarkup(query)
}

func (e *Example) CompareToQuery(query string) float64 {
	query = strings.TrimSuffix(query, ".py")
	return float64(fuzzy.PartialTokenSetRatio(e.searchName, query))
}

func (e *Example) InlineKeyboard() *Keyboard { return nil }
