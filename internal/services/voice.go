package services

import "regexp"

var (
	markdownBoldRe   = regexp.MustCompile(`\*\*(.*?)\*\*`)
	markdownItalicRe = regexp.MustCompile(`\*(.*?)\*`)
	markdownCodeRe   = regexp.MustCompile("`(.*?)`")
)

// Ordered slice rather than a map so replacement order is deterministic.
var voiceExpansions = []struct {
	re   *regexp.Regexp
	full string
}{
	{regexp.MustCompile(`(?i)\bAI\b`), "artificial intelligence"},
	{regexp.MustCompile(`(?i)\bAPI\b`), "A P I"},
	{regexp.MustCompile(`(?i)\bURL\b`), "U R L"},
	{regexp.MustCompile(`(?i)\bHTTP\b`), "H T T P"},
	{regexp.MustCompile(`(?i)\bCSS\b`), "C S S"},
	{regexp.MustCompile(`(?i)\bHTML\b`), "H T M L"},
	{regexp.MustCompile(`(?i)\bJS\b`), "JavaScript"},
	{regexp.MustCompile(`(?i)\bDB\b`), "database"},
}

// OptimizeForVoice prepares a reply for speech synthesis: markdown emphasis
// and inline-code markers are stripped, and abbreviations that read badly
// aloud are expanded to speakable words.
func OptimizeForVoice(text string) string {
	text = markdownBoldRe.ReplaceAllString(text, "$1")
	text = markdownItalicRe.ReplaceAllString(text, "$1")
	text = markdownCodeRe.ReplaceAllString(text, "$1")

	for _, e := range voiceExpansions {
		text = e.re.ReplaceAllString(text, e.full)
	}
	return text
}
