package extract

import (
	"regexp"
	"strings"
)

var (
	bulletReplacer = strings.NewReplacer(
		"•", "-", "·", "-", "▪", "-", "◦", "-", "●", "-", "‣", "-", "∙", "-", "\uf0b7", "-",
		"\r\n", "\n", "\r", "\n",
	)
	horizontalSpace = regexp.MustCompile(`[\t\f\v\p{Zs}]+`)
	spaceAroundLine = regexp.MustCompile(` ?\n ?`)
	blankLines      = regexp.MustCompile(`\n{2,}`)
)

// Clean normalizes extracted CV text: bullet glyphs become "-", runs of
// horizontal whitespace (tabs, NBSP and other Unicode spaces) become one space, blank lines are dropped and the result is
// trimmed. Clean(Clean(s)) == Clean(s).
func Clean(text string) string {
	text = bulletReplacer.Replace(text)
	text = horizontalSpace.ReplaceAllString(text, " ")
	text = spaceAroundLine.ReplaceAllString(text, "\n")
	text = blankLines.ReplaceAllString(text, "\n")
	return strings.TrimSpace(text)
}
