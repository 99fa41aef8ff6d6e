// Package reference recognizes structural references to GitHub things in
// chat text: issue/PR numbers, commit shas, keyword searches and ptbcontrib
// contributions, optionally qualified by owner/repo.
package reference

import (
	"regexp"
	"strconv"
	"strings"
)

// The grammar, mirrored by both scanning and classification:
//
//	ptbcontrib/<name>
//	(owner/)?(repo)?(#|GH-|PR-|/issues/|/pull/)(<digits>|<free text>)
//	(owner/)?(repo)?(/commit/|@)?<7-40 lowercase hex sha>
//
// Per https://github.com/join a username may only contain alphanumeric
// characters or single interior hyphens and is at most 39 characters long.
// The no-trailing-hyphen and no-double-hyphen rules need lookahead, which
// RE2 lacks, so they are enforced by validOwner after the match.
// Repo names allow alphanumeric, "-", "." and "_" with a max of 100 chars.
// The repo group is lazy so that a bare sha is consumed by the sha group
// instead of being split into a fake repo plus a shorter sha.
const pattern = `(?i)(?:` +
	`ptbcontrib/(?P<ptbcontrib>\w+)` +
	`|` +
	`(?:(?:(?P<owner>[a-z\d][a-z\d-]{0,38})/)?(?P<repo>[a-z\d\-._]{0,100}?)?)?` +
	`(?:` +
	`(?P<numbertype>#|GH-|PR-|/issues/|/pull/)(?:(?P<number>\d+)|(?P<query>.+))` +
	`|` +
	`(?:/commit/|@)?(?P<sha>(?-i:[0-9a-f]{7,40}))` +
	`)` +
	`)`

var (
	scanPattern = regexp.MustCompile(pattern)
	// Leading junk is tolerated in full-match mode, like the scanning
	// mode's implicit prefix; the dot of the query group itself must not
	// cross newlines.
	fullPattern = regexp.MustCompile(`\A[\s\S]*?` + pattern + `\z`)

	groupIndex = func() map[string]int {
		idx := make(map[string]int)
		for i, name := range scanPattern.SubexpNames() {
			if name != "" {
				idx[name] = i
			}
		}
		return idx
	}()
)

// Reference is one structural reference found in free text.
type Reference struct {
	Owner        string // empty means the default owner
	Repo         string // empty means the default repo
	Number       int    // issue or PR number, 0 if absent
	SHA          string
	Contribution string
	Start        int // byte offset of the match in the scanned text
}

// Kind discriminates the classification of a full query string.
type Kind int

const (
	KindIssue Kind = iota
	KindCommit
	KindKeywordSearch
	KindContribution
)

// Classification is the structural interpretation of a full query string.
type Classification struct {
	Kind   Kind
	Owner  string // empty means the default owner
	Repo   string // empty means the default repo
	Number int
	SHA    string
	Query  string // keyword search text
	Name   string // contribution name
}

// validOwner enforces the hosting-platform username rules the regexp cannot
// express: no trailing hyphen and no consecutive hyphens.
func validOwner(owner string) bool {
	return !strings.HasSuffix(owner, "-") && !strings.Contains(owner, "--")
}

type groups struct {
	owner, repo, numberType, number, query, sha, contrib string
}

func extract(text string, match []int) groups {
	get := func(name string) string {
		i := groupIndex[name]
		if match[2*i] < 0 {
			return ""
		}
		return text[match[2*i]:match[2*i+1]]
	}
	return groups{
		owner:      get("owner"),
		repo:       get("repo"),
		numberType: get("numbertype"),
		number:     get("number"),
		query:      get("query"),
		sha:        get("sha"),
		contrib:    get("ptbcontrib"),
	}
}

// FindAll returns every non-overlapping structural reference in text, in
// order of appearance. Matches that carry neither a number, a sha nor a
// contribution name (i.e. bare owner/repo mentions) are skipped as noise.
func FindAll(text string) []Reference {
	var refs []Reference
	for _, match := range scanPattern.FindAllStringSubmatchIndex(text, -1) {
		g := extract(text, match)
		if g.number == "" && g.sha == "" && g.contrib == "" {
			continue
		}
		if g.owner != "" && !validOwner(g.owner) {
			continue
		}
		ref := Reference{
			Owner:        g.owner,
			Repo:         g.repo,
			SHA:          g.sha,
			Contribution: g.contrib,
			Start:        match[0],
		}
		if g.number != "" {
			n, err := strconv.Atoi(g.number)
			if err != nil {
				continue
			}
			ref.Number = n
		}
		refs = append(refs, ref)
	}
	return refs
}

// Classify interprets query as exactly one structural request. The reported
// bool is false when the query matches no grammar alternative and should
// fall through to general fuzzy search.
func Classify(query string) (Classification, bool) {
	match := fullPattern.FindStringSubmatchIndex(query)
	if match == nil {
		return Classification{}, false
	}
	g := extract(query, match)
	if g.owner != "" && !validOwner(g.owner) {
		return Classification{}, false
	}

	switch {
	case g.number != "":
		n, err := strconv.Atoi(g.number)
		if err != nil {
			return Classification{}, false
		}
		return Classification{Kind: KindIssue, Owner: g.owner, Repo: g.repo, Number: n}, true
	case g.sha != "":
		return Classification{Kind: KindCommit, Owner: g.owner, Repo: g.repo, SHA: g.sha}, true
	case g.query != "":
		// The number-type marker matched but no digits followed, e.g.
		// "#conversation handler": a keyword search on the default repo.
		return Classification{Kind: KindKeywordSearch, Query: g.query}, true
	case g.contrib != "":
		return Classification{Kind: KindContribution, Name: g.contrib}, true
	}
	return Classification{}, false
}
