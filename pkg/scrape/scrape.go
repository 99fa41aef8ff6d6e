// Package scrape fetches the searchable source collections: wiki pages,
// code snippets, FAQ and design-pattern entries, documentation symbols and
// the GitHub-hosted example and contribution listings.
package scrape

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"

	"github.com/roolsbot/roolsbot/internal/utils"
	"github.com/roolsbot/roolsbot/pkg/entry"
	"github.com/roolsbot/roolsbot/pkg/github"
)

const (
	userAgent = "GitHub: roolsbot"

	wikiCodeSnippetsPage   = "Code-snippets"
	wikiFAQPage            = "Frequently-Asked-Questions"
	wikiDesignPatternsPage = "Frequently-requested-design-patterns"
)

// Fetcher loads all source collections. GitHub-backed listings (examples,
// contributions) go through the API provider, everything else is scraped.
type Fetcher struct {
	http     *retryablehttp.Client
	provider github.Provider
	log      *logrus.Logger

	wikiURL     string
	docsURL     string
	officialURL string
}

func NewFetcher(provider github.Provider, log *logrus.Logger) *Fetcher {
	if log == nil {
		log = utils.Log
	}
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.Logger = nil
	return &Fetcher{
		http:        rc,
		provider:    provider,
		log:         log,
		wikiURL:     entry.WikiURL,
		docsURL:     entry.DocsURL,
		officialURL: entry.OfficialURL,
	}
}

func (f *Fetcher) document(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching %s: status %d", pageURL, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func joinURL(base, ref string) string {
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return base
	}
	return baseURL.ResolveReference(refURL).String()
}

// WikiPages scrapes the main wiki pages from the custom sidebar, grouped by
// the h2 heading preceding each list.
func (f *Fetcher) WikiPages(ctx context.Context) ([]*entry.WikiPage, error) {
	doc, err := f.document(ctx, f.wikiURL)
	if err != nil {
		return nil, err
	}

	var pages []*entry.WikiPage
	doc.Find("div.wiki-custom-sidebar > ol, div.wiki-custom-sidebar > ul").Each(
		func(_ int, list *goquery.Selection) {
			category := strings.TrimSpace(list.PrevAllFiltered("h2").First().Text())
			list.Find("li").Each(func(_ int, item *goquery.Selection) {
				link := item.Find("a").First()
				href, _ := link.Attr("href")
				if href == "" || href == "#" {
					return
				}
				pages = append(pages, entry.NewWikiPage(
					category,
					strings.TrimSpace(link.Text()),
					joinURL(f.wikiURL, href),
				))
			})
		})

	pages = append(pages, entry.NewWikiPage("Code Resources", "Examples", entry.ExamplesURL))
	return pages, nil
}

func (f *Fetcher) headlines(ctx context.Context, pageURL, selector string,
	build func(name, url string) *entry.WikiPage) ([]*entry.WikiPage, error) {
	doc, err := f.document(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	var pages []*entry.WikiPage
	doc.Find(selector).Each(func(_ int, headline *goquery.Selection) {
		href, _ := headline.Find("a").First().Attr("href")
		pages = append(pages, build(
			strings.TrimSpace(headline.Text()),
			joinURL(pageURL, href),
		))
	})
	return pages, nil
}

// CodeSnippets scrapes the headlines of the wiki's code snippets page.
func (f *Fetcher) CodeSnippets(ctx context.Context) ([]*entry.WikiPage, error) {
	return f.headlines(ctx, f.wikiURL+wikiCodeSnippetsPage,
		"div#wiki-body h4, div#wiki-body h3, div#wiki-body h2", entry.NewCodeSnippet)
}

// FAQ scrapes the headlines of the wiki's FAQ page.
func (f *Fetcher) FAQ(ctx context.Context) ([]*entry.WikiPage, error) {
	return f.headlines(ctx, f.wikiURL+wikiFAQPage, "div#wiki-body h3", entry.NewFAQEntry)
}

// DesignPatterns scrapes the frequently-requested design patterns page.
func (f *Fetcher) DesignPatterns(ctx context.Context) ([]*entry.WikiPage, error) {
	return f.headlines(ctx, f.wikiURL+wikiDesignPatternsPage,
		"div#wiki-body h3, div#wiki-body h2", entry.NewDesignPatternEntry)
}

// officialDocs scrapes the anchors of the official Bot API documentation,
// mapping a normalized anchor to its heading text. Doc entries use it to
// cross-link library symbols to the official documentation.
func (f *Fetcher) officialDocs(ctx context.Context) (map[string]string, error) {
	doc, err := f.document(ctx, f.officialURL)
	if err != nil {
		return nil, err
	}

	official := make(map[string]string)
	doc.Find("a.anchor").Each(func(_ int, anchor *goquery.Selection) {
		href, ok := anchor.Attr("href")
		if !ok || strings.Contains(href, "-") {
			return
		}
		node := anchor.Nodes[0].NextSibling
		if node == nil || node.Type != html.TextNode {
			return
		}
		official[strings.TrimPrefix(href, "#")] = node.Data
	})
	return official, nil
}

// Examples lists the example files on the default branch.
func (f *Fetcher) Examples(ctx context.Context) ([]*entry.Example, error) {
	names, err := f.provider.ListDirectory(
		ctx, entry.DefaultRepoOwner, entry.DefaultRepoName, "examples", false)
	if err != nil {
		return nil, err
	}

	var examples []*entry.Example
	for _, name := range names {
		if strings.HasSuffix(name, ".py") {
			examples = append(examples, entry.NewExample(name))
		}
	}
	return examples, nil
}

// Contributions lists the community extensions in the ptbcontrib repo.
func (f *Fetcher) Contributions(ctx context.Context) ([]*entry.Contribution, error) {
	names, err := f.provider.ListDirectory(ctx, entry.DefaultRepoOwner, "ptbcontrib", "", true)
	if err != nil {
		return nil, err
	}

	var contribs []*entry.Contribution
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		contribs = append(contribs, &entry.Contribution{
			Name: name,
			URL:  entry.ContribURL + "tree/main/" + name,
		})
	}
	return contribs, nil
}
