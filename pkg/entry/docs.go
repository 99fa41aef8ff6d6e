package entry

import (
	"fmt"
	"regexp"
	"strings"

	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

var docNameSplit = regexp.MustCompile(`\.|/|-`)

// ParseDocQuery splits a symbol name or query on ".", "/" and "-" and
// reverses the parts, so that the most specific component is compared first
// ("class" should match the "class" part of "module.class" instead of
// missing the "module" part).
func ParseDocQuery(query string) []string {
	parts := docNameSplit.Split(strings.TrimSpace(query), -1)
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return parts
}

// DocEntry is a symbol in the generated library documentation, optionally
// cross-linked to the official Bot API documentation.
type DocEntry struct {
	Name         string
	URL          string
	EntryType    string // e.g. "py:class", "py:method", "std:label"
	TelegramName string
	TelegramURL  string

	displayName   string
	effectiveType string
	parsedName    []string
}

func NewDocEntry(name, url, entryType, displayName, telegramName, telegramURL string) *DocEntry {
	bits := strings.Split(entryType, ":")
	return &DocEntry{
		Name:          name,
		URL:           url,
		EntryType:     entryType,
		TelegramName:  telegramName,
		TelegramURL:   telegramURL,
		displayName:   displayName,
		effectiveType: bits[len(bits)-1],
		parsedName:    ParseDocQuery(name),
	}
}

func (d *DocEntry) DisplayName() string {
	if d.displayName != "" {
		return d.displayName
	}
	return d.Name
}

func (d *DocEntry) ShortName() string {
	return strings.TrimPrefix(d.DisplayName(), "telegram.")
}

func (d *DocEntry) Description() string      { return "Documentation of python-telegram-bot" }
func (d *DocEntry) ShortDescription() string { return d.ShortName() }

func (d *DocEntry) markupNoTelegram() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, d.URL, d.Name)
}

func (d *DocEntry) HTMLMarkup(string) string {
	base := fmt.Sprintf(
		"<code>%s</code>\n<i>python-telegram-bot</i> documentation for this %s:\n%s",
		d.ShortName(), d.effectiveType, d.markupNoTelegram(),
	)
	if d.TelegramURL == "" && d.TelegramName == "" {
		return base
	}
	return base + fmt.Sprintf(
		"\n\nTelegram's official Bot API documentation has more info about <a href=\"%s\">%s</a>.",
		d.TelegramURL, d.TelegramName,
	)
}

func (d *DocEntry) HTMLInsertionMarkup(string) string {
	if d.TelegramURL == "" && d.TelegramName == "" {
		return d.markupNoTelegram()
	}
	return fmt.Sprintf(`%s <a href="%s">%s</a>`, d.markupNoTelegram(), d.TelegramURL, telegramSuperscript)
}

func (d *DocEntry) HTMLReplyMarkup(query string) string {
	return d.HTMLInsertionMarkup(query)
}

func (d *DocEntry) CompareToQuery(query string) float64 {
	score := 0.0
	processed := ParseDocQuery(query)

	// Compare the single components of the query ...
	comparisons := 0
	for i, target := range processed {
		if i >= len(d.parsedName) {
			break
		}
		score += float64(fuzzy.Ratio(target, d.parsedName[i]))
		comparisons++
	}
	// ... and the full name because we're generous
	score += float64(fuzzy.Ratio(query, d.Name))
	comparisons++
	// Averaged to stay <= 100 as not to overrule other results
	score /= float64(comparisons)

	// std: is the domain for general stuff like headlines and chapters,
	// those get a little less weight
	if strings.HasPrefix(d.EntryType, "std:") {
		score *= 0.8
	}
	return score
}

func (d *DocEntry) InlineKeyboard() *Keyboard { return nil }

// ParamDocEntry is a documentation entry for a single parameter of a
// function or method, i.e. a symbol of the form "base.params.name".
type ParamDocEntry struct {
	DocEntry

	baseName           string
	paramName          string
	baseURL            string
	parsedNameWoParams []string
}

func NewParamDocEntry(name, url, entryType, telegramName, telegramURL string) (*ParamDocEntry, error) {
	base, param, found := strings.Cut(name, ".params.")
	if !found {
		return nil, fmt.Errorf("name %q does not match a parameter name", name)
	}
	inner := NewDocEntry(
		name, url, entryType,
		fmt.Sprintf("Parameter %s of %s", param, base),
		telegramName, telegramURL,
	)
	return &ParamDocEntry{
		DocEntry:           *inner,
		baseName:           base,
		paramName:          param,
		baseURL:            strings.SplitN(url, ".params.", 2)[0],
		parsedNameWoParams: ParseDocQuery(strings.ReplaceAll(name, ".params.", "")),
	}, nil
}

func (p *ParamDocEntry) markupNoTelegram() string {
	return fmt.Sprintf(`<a href="%s">%s</a>`, p.URL, p.paramName)
}

func (p *ParamDocEntry) HTMLMarkup(string) string {
	base := fmt.Sprintf(
		"<code>%s(..., %s=...)</code>\n<i>python-telegram-bot</i> documentation for this %s "+
			"of <a href=\"%s\">%s</a>:\n%s",
		p.baseName, p.paramName, p.effectiveType, p.baseURL, p.baseName, p.markupNoTelegram(),
	)
	if p.TelegramURL == "" && p.TelegramName == "" {
		return base
	}
	return base + fmt.Sprintf(
		"\n\nTelegram's official Bot API documentation has more info about <a href=\"%s\">%s</a>.",
		p.TelegramURL, p.TelegramName,
	)
}

func (p *ParamDocEntry) HTMLInsertionMarkup(string) string {
	base := fmt.Sprintf(
		`Parameter <a href="%s">%s</a> of <a href="%s">%s</a>`,
		p.URL, p.paramName, p.baseURL, p.baseName,
	)
	if p.TelegramURL == "" && p.TelegramName == "" {
		return base
	}
	return fmt.Sprintf(`%s <a href="%s">%s</a>`, base, p.TelegramURL, telegramSuperscript)
}

func (p *ParamDocEntry) HTMLReplyMarkup(query string) string {
	return p.HTMLInsertionMarkup(query)
}

func (p *ParamDocEntry) CompareToQuery(query string) float64 {
	score := 0.0
	processed := ParseDocQuery(query)

	// Compare the single components of the query, with and without ".params."
	comparisons := 0
	for i, target := range processed {
		if i < len(p.parsedName) {
			score += float64(fuzzy.Ratio(target, p.parsedName[i]))
			comparisons++
		}
		if i < len(p.parsedNameWoParams) {
			score += float64(fuzzy.Ratio(target, p.parsedNameWoParams[i]))
			comparisons++
		}
	}
	// ... and the full name, with and without a leading "parameter"
	score += float64(fuzzy.Ratio(query, p.Name))
	score += float64(fuzzy.Ratio(query, "parameter "+p.Name))
	comparisons += 2

	return score / float64(comparisons)
}
