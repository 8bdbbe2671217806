package workflow

import "regexp"

// mentionRegex matches @everyone, @here and raw user/role mentions.
var mentionRegex = regexp.MustCompile(`@(everyone|here|[!&]?[0-9]{17,20})`)

// EscapeMentions neutralises mentions in text by inserting a zero-width
// space after the @, so relayed content cannot ping anyone.
func EscapeMentions(text string) string {
	return mentionRegex.ReplaceAllString(text, "@\u200b$1")
}
