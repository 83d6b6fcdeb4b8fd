package render

import (
	"regexp"
	"strings"

	markdown "github.com/MichaelMure/go-term-markdown"
	gomarkdown "github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/parser"
)

// Pre-compiled regex patterns for better performance
var (
	inlineCodeRegex = regexp.MustCompile(`(?s)\x1b\[44;3m(.*?)\x1b\[0m`)
	mdLinkRegex     = regexp.MustCompile(`\[([^\]]+)\]\((https?://[^\)]+)\)`)
	urlRegex        = regexp.MustCompile(`(https?://[^\s\x1b]+)`)
	ansiRegex       = regexp.MustCompile(`\x1b\[[0-9;]*m`)
)

const (
	codeBar  = "┃"
	codeRule = "━"
	darkGray = "\x1b[90m"
	red      = "\x1b[31m"
	reset    = "\x1b[0m"

	minWidth = 20
)

// Markdown renders assistant markdown for a terminal of the given width.
func Markdown(content string, width int) string {
	if width < minWidth {
		width = minWidth
	}

	// Links become bare URLs so the terminal can make them clickable.
	content = preprocessLinks(content)

	// Autolink stays off so URLs are left as plain text.
	ext := markdown.Extensions() &^ parser.Autolink
	p := parser.NewWithExtensions(ext)
	r := markdown.NewRenderer(width-4, 0)
	rendered := gomarkdown.Render(p.Parse([]byte(content)), r)

	return postProcess(string(rendered), width)
}

func postProcess(rendered string, width int) string {
	// Inline code: blue background -> red text
	rendered = inlineCodeRegex.ReplaceAllString(rendered, red+"$1"+reset)
	rendered = colorURLs(rendered)
	rendered = frameCodeBlocks(rendered, width)
	return strings.TrimRight(rendered, "\n")
}

func preprocessLinks(content string) string {
	return mdLinkRegex.ReplaceAllString(content, "$2")
}

func colorURLs(s string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		// Code block lines keep their own highlighting
		if !strings.Contains(line, codeBar) {
			lines[i] = urlRegex.ReplaceAllString(line, red+"$1"+reset)
		}
	}
	return strings.Join(lines, "\n")
}

// frameCodeBlocks swaps the renderer's left bar for top and bottom rules with
// a [code] label.
func frameCodeBlocks(s string, width int) string {
	lines := strings.Split(s, "\n")
	var result []string
	var block []string
	inBlock := false

	ruleLen := width - 4
	closeBlock := func() {
		result = append(result, block...)
		result = append(result, "", darkGray+strings.Repeat(codeRule, ruleLen)+reset, "")
		block = nil
		inBlock = false
	}

	for _, line := range lines {
		if strings.Contains(line, codeBar) {
			if !inBlock {
				inBlock = true
				label := "[code]"
				left := (ruleLen - len(label)) / 2
				right := ruleLen - len(label) - left
				border := darkGray + strings.Repeat(codeRule, left) + reset + label + darkGray + strings.Repeat(codeRule, right) + reset
				result = append(result, "", border, "")
			}
			block = append(block, stripCodeBlockPrefix(line))
			continue
		}
		if inBlock {
			closeBlock()
		}
		result = append(result, line)
	}
	if inBlock {
		closeBlock()
	}

	return strings.Join(result, "\n")
}

func stripCodeBlockPrefix(line string) string {
	idx := strings.Index(line, codeBar)
	if idx < 0 {
		return line
	}
	after := idx + len(codeBar)
	if after < len(line) && line[after] == ' ' {
		after++
	}
	return line[after:]
}

// StripANSI removes ANSI escape codes
func StripANSI(s string) string {
	return ansiRegex.ReplaceAllString(s, "")
}
