package render

import "regexp"

var plainRules = []struct {
	re   *regexp.Regexp
	repl string
}{
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "$1"},
	{regexp.MustCompile(`\*(.*?)\*`), "$1"},
	{regexp.MustCompile(`(?m)^#{1,6}\s+(.*)$`), "$1"},
	{regexp.MustCompile(`(?m)^=+$`), ""},
	{regexp.MustCompile(`(?m)^-+$`), ""},
	{regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+(.*)$`), "• $1"},
	{regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+(.*)$`), "$1"},
}

// Plain is a lightweight markdown flattening for output that is not a
// terminal: emphasis markers and heading hashes are dropped, bullets become
// "•" and numbered prefixes and rule lines are removed.
func Plain(text string) string {
	for _, rule := range plainRules {
		text = rule.re.ReplaceAllString(text, rule.repl)
	}
	return text
}
