// Package postproc cleans decoded model output before it is returned.
package postproc

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// AssistantLabel is the role marker chat replies are generated after.
const AssistantLabel = "Assistant:"

// TrimEcho removes prompt from the start of out when the model repeated it.
// The continuation keeps its leading space so prompt+result reads as text.
func TrimEcho(out, prompt string) string {
	return strings.TrimPrefix(out, prompt)
}

// NormalizeSingleWord title-cases a one-word answer (first letter upper, the
// rest lower) and terminates it with a period unless it already ends in '.',
// '!' or '?'. Longer answers are returned unchanged.
func NormalizeSingleWord(s string) string {
	if len(strings.Fields(s)) != 1 {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToTitle(r)) + strings.ToLower(s[size:])
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}

// NormalizeAll applies NormalizeSingleWord to every element in place and
// returns the slice.
func NormalizeAll(outs []string) []string {
	for i, s := range outs {
		outs[i] = NormalizeSingleWord(s)
	}
	return outs
}

// CleanChatReply strips a leading "Assistant:" marker and surrounding space.
func CleanChatReply(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, AssistantLabel))
}

// StripQuotes removes one leading and one trailing double quote.
func StripQuotes(s string) string {
	s = strings.TrimPrefix(s, `"`)
	return strings.TrimSuffix(s, `"`)
}
