// Package extract turns raw sources into plain text for ingestion.
// Heavier formats (PDF, DOCX) are extracted by the surrounding
// application layer; this package covers plain text and fetched URLs.
package extract

import (
	"strings"
	"unicode"
)

// Normalize cleans extracted plain text: line endings are unified,
// trailing whitespace is stripped per line, and runs of three or more
// blank lines collapse to one blank line.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blanks := 0
	for _, line := range lines {
		line = strings.TrimRightFunc(line, unicode.IsSpace)
		if line == "" {
			blanks++
			if blanks > 1 {
				continue
			}
		} else {
			blanks = 0
		}
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
