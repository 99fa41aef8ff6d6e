// Package taghints holds the static table of canned response templates
// moderators use to guide group members. The table feeds both the command
// layer (as "/tag" commands) and the search engine (as a fuzzy corpus).
package taghints

import (
	"fmt"
	"regexp"

	"github.com/roolsbot/roolsbot/pkg/entry"
)

const selfBotName = "roolsbot"

// hints is the canonical table, in the order hints are listed to admins.
var hints = []*entry.TagHint{
	{
		Tag: "inline",
		Message: "Consider using me in inline-mode 😎\n" +
			"<code>@" + selfBotName + " {query}</code>",
		DefaultQuery: "Your search terms",
		Help:         "Give a query that will be used for a switch_to_inline-button",
		Keyboard: &entry.Keyboard{Rows: [][]entry.Button{{
			{Text: "🔎 Try it out", SwitchInlineQuery: "{query}"},
		}}},
	},
	{
		Tag: "private",
		Message: "Please don't spam the group with {query}, and go to a private chat " +
			"with me instead. Thanks a lot, the other members will appreciate it 😊",
		DefaultQuery: "searches or commands",
		Help:         "Tell a member to stop spamming and switch to a private chat",
		Keyboard: &entry.Keyboard{Rows: [][]entry.Button{{
			{Text: "🤖 Go to private chat", URL: "https://t.me/" + selfBotName},
		}}},
	},
	{
		Tag: "userbot",
		Message: `Refer to <a href="http://telegra.ph/How-a-Userbot-superacharges-your-Telegram-Bot-07-09">` +
			"this article</a> to learn more about <b>Userbots</b>.",
		Help: "@JosXa's article about Userbots",
	},
	{
		Tag: "meta",
		Message: "No need for meta questions. Just ask! 🤗\n" +
			`<i>"Has anyone done .. before?"</i>` + "\n" +
			"Probably. <b>Just ask your question and somebody will help!</b>",
		Help: "Show our stance on meta-questions",
	},
	{
		Tag: "tutorial",
		Message: "Oh, hey! There's someone new joining our awesome community of Python developers ❤️ " +
			"We have compiled a list of learning resources <i>just for you</i>:\n" +
			`• <a href="https://wiki.python.org/moin/BeginnersGuide/NonProgrammers">As Beginner</a>` + "\n" +
			`• <a href="https://wiki.python.org/moin/BeginnersGuide/Programmers">As Programmer</a>` + "\n" +
			`• <a href="https://docs.python.org/3/tutorial/">Official Tutorial</a>` + "\n" +
			`• <a href="https://www.learnpython.org/">Learn Python</a>` + "\n" +
			`• <a href="https://docs.python-guide.org/">Hitchhiker’s Guide to Python</a>` + "\n" +
			"• The @PythonRes Telegram Channel.",
		Help: "How to find a Python tutorial",
	},
	{
		Tag: "wronglib",
		Message: "Hey, I think you're wrong 🧐\n" +
			"It looks like you're not using the python-telegram-bot library. If you insist on " +
			"using that other one, please go where you belong:\n" +
			`<a href="https://telegram.me/joinchat/Bn4ixj84FIZVkwhk2jag6A">pyTelegramBotApi</a>` + "\n" +
			`<a href="https://github.com/nickoala/telepot">Telepot</a>`,
		Help: "Other Python wrappers for Telegram",
	},
	{
		Tag: "xy",
		Message: `Hey. This seems like an <a href="https://xyproblem.info/">XY problem</a>. ` +
			"Please tell us what you actually want to achieve, not just the step you are " +
			"currently stuck on.",
		Help: "Explain the XY problem",
	},
	{
		Tag: "askright",
		Message: "Hey. In order for someone to be able to help you, you must ask a " +
			"<b>good technical question</b>. Please read " +
			`<a href="http://telegra.ph/How-not-to-ask-technical-questions-05-10">this short article</a>` +
			" and try again ;)\n{query}",
		Help: "@d_Rickyy_b's article about asking technical questions",
	},
	{
		Tag: "broadcast",
		Message: "Hey. Broadcasting to users is a common use case. This " +
			`<a href="https://telegra.ph/Sending-notifications-to-all-users-07-17">short article</a>` +
			" summarizes the most important tips for that.",
		Help: "@BiboJoshi's article about broadcasting to users.",
	},
	{
		Tag: "mwe",
		Message: "Hey. Please provide a minimal working example (MWE). Have a look at " +
			`<a href="https://telegra.ph/Minimal-Working-Example-for-PTB-07-18">this short article</a>` +
			" for information on what a MWE is.",
		Help: "@BiboJoshi's article about MWEs.",
	},
	{
		Tag: "pastebin",
		Message: "Hey. Please post code using a pastebin rather than as plain text or " +
			"screenshots. https://pastebin.com/ is the most popular, but there are many " +
			"alternatives out there. Of course, for very short snippets, text is fine. " +
			"Please at least format it as monospace in that case.",
		Help: "Ask users not to post code as text or images.",
	},
	{
		Tag: "snippets",
		Message: `<a href="` + entry.WikiURL + `Code-snippets">Here</a> you can find many ` +
			"useful code snippets for the work with python-telegram-bot",
		Help: "Link to the wiki's snippets section",
	},
}

var byTag = func() map[string]*entry.TagHint {
	m := make(map[string]*entry.TagHint, len(hints))
	for _, h := range hints {
		m[h.Tag] = h
	}
	return m
}()

// Get returns the hint for an exact tag, nil when unknown.
func Get(tag string) *entry.TagHint {
	return byTag[tag]
}

// All returns the hints in their canonical order.
func All() []*entry.TagHint {
	out := make([]*entry.TagHint, len(hints))
	copy(out, hints)
	return out
}

// Entries returns the hints as generic entries for the search engine.
func Entries() []entry.Entry {
	out := make([]entry.Entry, len(hints))
	for i, h := range hints {
		out[i] = h
	}
	return out
}

// CommandPattern compiles a pattern recognizing "/tag", "/tag@botname" and
// "/tag free text" for every known tag. The command layer additionally
// restricts matches to spans the chat platform itself marked as commands,
// so ordinary text containing a tag-like substring does not trigger.
func CommandPattern(botName string) *regexp.Regexp {
	alternatives := ""
	for i, h := range hints {
		if i > 0 {
			alternatives += "|"
		}
		alternatives += regexp.QuoteMeta(h.Tag)
	}
	return regexp.MustCompile(fmt.Sprintf(
		`^/(?P<tag>%s)(?:@%s)?(?:\s+(?P<query>.*))?$`,
		alternatives, regexp.QuoteMeta(botName),
	))
}
