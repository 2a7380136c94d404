package search

import (
	"bufio"
	"regexp"
	"strings"
)

var (
	mdLinkRE     = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	mdEmphasisRE = regexp.MustCompile("[*_~`]+")
	mdHeadingRE  = regexp.MustCompile(`^#{1,6}\s+`)
	mdListRE     = regexp.MustCompile(`^(?:[-*+]|\d+[.)])\s+(?:\[[ xX]\]\s+)?`)
)

// PlainText flattens markdown into indexable text: table rows become one
// line of cell text, separator rows and code fences are dropped, and link,
// emphasis, heading, list and quote markers are removed. The result has one
// fact per line.
func PlainText(src string) string {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var b strings.Builder
	sc := bufio.NewScanner(strings.NewReader(src))
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	write := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(s)
	}

	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "```") || strings.HasPrefix(line, "~~~") {
			continue
		}

		// table row: "| ... |"
		if strings.HasPrefix(line, "|") && strings.HasSuffix(line, "|") {
			cols := strings.Split(strings.Trim(line, "|"), "|")
			allSep := true
			cells := make([]string, 0, len(cols))
			for _, c := range cols {
				cell := strings.TrimSpace(c)
				if cell != "" {
					cells = append(cells, inline(cell))
				}
				if strings.Trim(cell, ":- ") != "" {
					allSep = false
				}
			}
			if !allSep {
				write(strings.Join(cells, " "))
			}
			continue
		}

		line = strings.TrimLeft(line, "> ")
		line = mdHeadingRE.ReplaceAllString(line, "")
		line = mdListRE.ReplaceAllString(line, "")
		write(inline(line))
	}
	if sc.Err() != nil {
		// Oversized line: index the raw text rather than nothing.
		return src
	}
	return b.String()
}

func inline(s string) string {
	s = mdLinkRE.ReplaceAllString(s, "$1")
	return mdEmphasisRE.ReplaceAllString(s, "")
}
