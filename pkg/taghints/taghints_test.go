package taghints

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGet(t *testing.T) {
	hint := Get("askright")
	require.NotNil(t, hint)
	assert.Equal(t, "askright", hint.Tag)

	assert.Nil(t, Get("nosuchtag"))
}

func TestAllStableOrder(t *testing.T) {
	first := All()
	second := All()
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Tag, second[i].Tag)
	}

	// Callers must not be able to reorder the canonical table.
	first[0], first[1] = first[1], first[0]
	third := All()
	assert.Equal(t, second[0].Tag, third[0].Tag)
}

func TestEntries(t *testing.T) {
	entries := Entries()
	require.Equal(t, len(All()), len(entries))
	for i, h := range All() {
		assert.Equal(t, "/"+h.Tag, entries[i].ShortName())
	}
}

func TestAskRightBareCommandHasNoTrailingBlank(t *testing.T) {
	hint := Get("askright")
	require.NotNil(t, hint)

	bare := hint.HTMLMarkup("/askright")
	assert.False(t, strings.HasSuffix(bare, "\n"), "bare command rendered a dangling blank line")

	full := hint.HTMLMarkup("/askright and post the traceback")
	assert.True(t, strings.HasSuffix(full, "and post the traceback"))
}

func TestInlineHintKeyboard(t *testing.T) {
	hint := Get("inline")
	require.NotNil(t, hint)
	require.NotNil(t, hint.Keyboard)
	require.Len(t, hint.Keyboard.Rows, 1)
	assert.NotEmpty(t, hint.Keyboard.Rows[0][0].SwitchInlineQuery)
}

func TestCommandPattern(t *testing.T) {
	pattern := CommandPattern("roolsbot")

	tests := []struct {
		text      string
		wantTag   string
		wantQuery string
	}{
		{"/askright", "askright", ""},
		{"/askright@roolsbot", "askright", ""},
		{"/askright be precise", "askright", "be precise"},
		{"/mwe@roolsbot with reply", "mwe", "with reply"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			match := pattern.FindStringSubmatch(tt.text)
			require.NotNil(t, match)
			var tag, query string
			for i, name := range pattern.SubexpNames() {
				switch name {
				case "tag":
					tag = match[i]
				case "query":
					query = match[i]
				}
			}
			assert.Equal(t, tt.wantTag, tag)
			assert.Equal(t, tt.wantQuery, query)
		})
	}

	for _, text := range []string{"/unknown", "askright", "text with /askright inside", "/askright@otherbot"} {
		t.Run("reject "+text, func(t *testing.T) {
			assert.Nil(t, pattern.FindStringSubmatch(text))
		})
	}
}
