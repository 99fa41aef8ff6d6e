package scrape

import (
	"bytes"
	"compress/zlib"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roolsbot/roolsbot/pkg/entry"
)

type fakeProvider struct {
	dirs map[string][]string
}

func (f *fakeProvider) FetchIssue(context.Context, string, string, int) (*entry.Issue, error) {
	return nil, nil
}

func (f *fakeProvider) FetchCommit(context.Context, string, string, string) (*entry.Commit, error) {
	return nil, nil
}

func (f *fakeProvider) ListIssues(context.Context, string, string, int) ([]*entry.Issue, bool, error) {
	return nil, false, nil
}

func (f *fakeProvider) ListDirectory(_ context.Context, _, repo, path string, _ bool) ([]string, error) {
	return f.dirs[repo+"/"+path], nil
}

func newTestFetcher(t *testing.T, mux *http.ServeMux, provider *fakeProvider) *Fetcher {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	f := NewFetcher(provider, nil)
	f.wikiURL = server.URL + "/wiki/"
	f.docsURL = server.URL + "/docs/"
	f.officialURL = server.URL + "/official"
	return f
}

const sidebarHTML = `<html><body>
<div class="wiki-custom-sidebar">
<h2>Guides</h2>
<ol>
  <li><a href="/wiki/Extensions">Extensions</a></li>
  <li><a href="#">placeholder</a></li>
</ol>
<h2>Advanced</h2>
<ul>
  <li><a href="/wiki/Webhooks">Webhooks</a></li>
</ul>
</div>
</body></html>`

func TestWikiPages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(sidebarHTML))
	})
	f := newTestFetcher(t, mux, &fakeProvider{})

	pages, err := f.WikiPages(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 3)

	assert.Equal(t, "Guides", pages[0].Category)
	assert.Equal(t, "Extensions", pages[0].Name)
	assert.Contains(t, pages[0].URL, "/wiki/Extensions")

	assert.Equal(t, "Advanced", pages[1].Category)
	assert.Equal(t, "Webhooks", pages[1].Name)

	// The examples page is always appended.
	assert.Equal(t, "Code Resources", pages[2].Category)
	assert.Equal(t, entry.ExamplesURL, pages[2].URL)
}

func TestCodeSnippets(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Code-snippets", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="wiki-body">
<h2><a href="#sending"></a>Sending</h2>
<h4><a href="#post-a-file"></a>Post a file</h4>
<p>some prose with <a href="#nope">a link</a> that is no headline</p>
</div></body></html>`))
	})
	f := newTestFetcher(t, mux, &fakeProvider{})

	pages, err := f.CodeSnippets(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 2)

	for _, page := range pages {
		assert.Equal(t, "Code Snippets", page.Category)
	}
	names := []string{pages[0].Name, pages[1].Name}
	assert.Contains(t, names, "Sending")
	assert.Contains(t, names, "Post a file")
	assert.Contains(t, pages[1].URL, "#")
}

func TestFAQ(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/wiki/Frequently-Asked-Questions", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><div id="wiki-body">
<h3><a href="#why-polling"></a>Why polling?</h3>
</div></body></html>`))
	})
	f := newTestFetcher(t, mux, &fakeProvider{})

	pages, err := f.FAQ(context.Background())
	require.NoError(t, err)
	require.Len(t, pages, 1)
	assert.Equal(t, "FAQ", pages[0].Category)
	assert.Equal(t, "Why polling?", pages[0].Name)
}

func TestOfficialDocs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/official", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body>
<h4><a class="anchor" href="#sendmessage"></a>sendMessage</h4>
<h4><a class="anchor" href="#recent-changes"></a>Recent Changes</h4>
</body></html>`))
	})
	f := newTestFetcher(t, mux, &fakeProvider{})

	official, err := f.officialDocs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sendMessage", official["sendmessage"])
	// Anchors with hyphens are section headings, not API symbols.
	_, ok := official["recent-changes"]
	assert.False(t, ok)
}

func inventoryFixture(t *testing.T, records string) []byte {
	t.Helper()
	var buf bytes.Buffer
	buf.WriteString("# Sphinx inventory version 2\n")
	buf.WriteString("# Project: python-telegram-bot\n")
	buf.WriteString("# Version: 21.0\n")
	buf.WriteString("# The remainder of this file is compressed using zlib.\n")
	zw := zlib.NewWriter(&buf)
	_, err := zw.Write([]byte(records))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseInventory(t *testing.T) {
	data := inventoryFixture(t,
		"telegram.Bot py:class 1 telegram.bot.html#$ -\n"+
			"telegram.Bot.send_message py:method 1 telegram.bot.html#telegram.Bot.send_message Bot.send_message\n")

	entries, err := parseInventory(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// "$" expands to the entry name, "-" means no display name.
	assert.Equal(t, "telegram.Bot", entries[0].name)
	assert.Equal(t, "py:class", entries[0].entryType)
	assert.Equal(t, "telegram.bot.html#telegram.Bot", entries[0].uri)
	assert.Empty(t, entries[0].displayName)

	assert.Equal(t, "Bot.send_message", entries[1].displayName)
}

func TestParseInventoryRejectsUnknownHeader(t *testing.T) {
	_, err := parseInventory(bytes.NewReader([]byte("# Sphinx inventory version 1\nx\ny\nz\n")))
	require.Error(t, err)
}

func TestDocEntries(t *testing.T) {
	records := "telegram.Bot.send_message py:method 1 telegram.bot.html#$ -\n" +
		"telegram.Bot.send_message.params.chat_id py:parameter 1 telegram.bot.html#telegram.Bot.send_message.params.chat_id -\n" +
		"telegram.ext._application.Application py:class 1 hidden.html -\n"

	mux := http.NewServeMux()
	mux.HandleFunc("/official", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><h4><a class="anchor" href="#sendmessage"></a>sendMessage</h4></body></html>`))
	})
	mux.HandleFunc("/docs/objects.inv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(inventoryFixture(t, records))
	})
	f := newTestFetcher(t, mux, &fakeProvider{})

	docs, err := f.DocEntries(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, 2) // the private spelling is skipped

	method, ok := docs[0].(*entry.DocEntry)
	require.True(t, ok)
	assert.Equal(t, "telegram.Bot.send_message", method.Name)
	assert.Equal(t, "sendMessage", method.TelegramName)
	assert.Equal(t, entry.OfficialURL+"#sendmessage", method.TelegramURL)
	assert.Contains(t, method.URL, "/docs/telegram.bot.html#telegram.Bot.send_message")

	param, ok := docs[1].(*entry.ParamDocEntry)
	require.True(t, ok)
	assert.Equal(t, "Parameter chat_id of telegram.Bot.send_message", param.DisplayName())
}

func TestExamples(t *testing.T) {
	provider := &fakeProvider{dirs: map[string][]string{
		entry.DefaultRepoName + "/examples": {"echobot.py", "README.md", "timerbot.py"},
	}}
	f := newTestFetcher(t, http.NewServeMux(), provider)

	examples, err := f.Examples(context.Background())
	require.NoError(t, err)
	require.Len(t, examples, 2)
	assert.Equal(t, "echobot.py", examples[0].Name)
	assert.Equal(t, "timerbot.py", examples[1].Name)
}

func TestContributions(t *testing.T) {
	provider := &fakeProvider{dirs: map[string][]string{
		"ptbcontrib/": {".github", "roles", "username_to_chat_api"},
	}}
	f := newTestFetcher(t, http.NewServeMux(), provider)

	contribs, err := f.Contributions(context.Background())
	require.NoError(t, err)
	require.Len(t, contribs, 2)
	assert.Equal(t, "roles", contribs[0].Name)
	assert.Equal(t, entry.ContribURL+"tree/main/roles", contribs[0].URL)
}
