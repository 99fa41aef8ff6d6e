package scrape

import (
	"bufio"
	"compress/zlib"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/roolsbot/roolsbot/pkg/entry"
)

// inventoryLine matches one record of a sphinx v2 inventory:
// "name domain:role priority uri dispname". Names and display names may
// contain spaces, the uri may not.
var inventoryLine = regexp.MustCompile(`^(.+?)\s+(\S+)\s+(-?\d+)\s+(\S*)\s+(.*)$`)

type inventoryEntry struct {
	name        string
	entryType   string // "domain:role", e.g. "py:class"
	uri         string
	displayName string // "" when the inventory lists "-"
}

// fetchInventory downloads and decodes DOCS_URL/objects.inv. The file has
// four plain-text header lines; the rest is one zlib stream of records.
func (f *Fetcher) fetchInventory(ctx context.Context) ([]inventoryEntry, error) {
	invURL := f.docsURL + "objects.inv"
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, invURL, nil)
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
		return nil, fmt.Errorf("fetching %s: status %d", invURL, resp.StatusCode)
	}

	return parseInventory(resp.Body)
}

func parseInventory(r io.Reader) ([]inventoryEntry, error) {
	buffered := bufio.NewReader(r)

	header, err := buffered.ReadString('\n')
	if err != nil {
		return nil, fmt.Errorf("reading inventory header: %w", err)
	}
	if !strings.Contains(header, "Sphinx inventory version 2") {
		return nil, fmt.Errorf("unsupported inventory header %q", strings.TrimSpace(header))
	}
	// Project, version and compression notice lines.
	for i := 0; i < 3; i++ {
		if _, err := buffered.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("reading inventory header: %w", err)
		}
	}

	inflated, err := zlib.NewReader(buffered)
	if err != nil {
		return nil, fmt.Errorf("decompressing inventory: %w", err)
	}
	defer inflated.Close()

	var entries []inventoryEntry
	scanner := bufio.NewScanner(inflated)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		match := inventoryLine.FindStringSubmatch(scanner.Text())
		if match == nil {
			continue
		}
		name, entryType, uri, dispName := match[1], match[2], match[4], match[5]
		// "$" abbreviates "uri ends with the entry name".
		if strings.HasSuffix(uri, "$") {
			uri = strings.TrimSuffix(uri, "$") + name
		}
		if strings.TrimSpace(dispName) == "-" {
			dispName = ""
		}
		entries = append(entries, inventoryEntry{
			name:        name,
			entryType:   entryType,
			uri:         uri,
			displayName: dispName,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading inventory records: %w", err)
	}
	return entries, nil
}

// DocEntries builds the documentation collection: the sphinx inventory of
// the generated docs, cross-linked against the official Bot API docs where
// a matching anchor exists.
func (f *Fetcher) DocEntries(ctx context.Context) ([]entry.Entry, error) {
	official, err := f.officialDocs(ctx)
	if err != nil {
		return nil, err
	}
	records, err := f.fetchInventory(ctx)
	if err != nil {
		return nil, err
	}

	var docs []entry.Entry
	for _, rec := range records {
		// Both ext._application.Application and ext.Application are
		// present; skip the private spelling.
		if strings.Contains(rec.name, "._") {
			continue
		}

		bits := strings.Split(rec.name, ".")
		tgTest := ""
		if rec.entryType == "py:method" &&
			(strings.Contains(rec.name, "telegram.Bot") || strings.Contains(rec.name, "telegram.ext.ExtBot")) {
			tgTest = bits[len(bits)-1]
		}
		if rec.entryType == "py:attribute" && len(bits) >= 2 {
			tgTest = bits[len(bits)-2]
		}
		if rec.entryType == "py:class" {
			tgTest = bits[len(bits)-1]
		} else if rec.entryType == "py:parameter" && len(bits) >= 4 {
			tgTest = bits[len(bits)-4]
		}
		tgTest = strings.ToLower(strings.ReplaceAll(tgTest, "_", ""))

		tgName, tgURL := "", ""
		if name, ok := official[tgTest]; ok {
			tgName = name
			tgURL = entry.OfficialURL + "#" + strings.ToLower(tgName)
		}

		docURL := joinURL(f.docsURL, rec.uri)
		if rec.entryType == "py:parameter" {
			param, err := entry.NewParamDocEntry(rec.name, docURL, rec.entryType, tgName, tgURL)
			if err != nil {
				f.log.Debugf("Skipping malformed parameter entry %q: %v", rec.name, err)
				continue
			}
			docs = append(docs, param)
			continue
		}
		docs = append(docs, entry.NewDocEntry(
			rec.name, docURL, rec.entryType, rec.displayName, tgName, tgURL))
	}
	return docs, nil
}
