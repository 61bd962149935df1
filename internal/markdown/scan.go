package markdown

import (
	"strings"
)

// LinkToken is an inline link or image found by ScanLinks. Start and End delimit the
// destination inside the scanned body (End exclusive), so callers can build Edits
// without re-parsing.
type LinkToken struct {
	Kind        LinkKind
	Text        string
	Destination string
	Start       int
	End         int
	Line        int
}

// HeadingToken is an ATX heading found by ScanHeadings.
type HeadingToken struct {
	Level int
	Text  string
	Line  int
}

// ScanLinks finds inline links and images outside of code and frontmatter.
//
// Unlike ExtractLinks this is a line-oriented matcher, not a CommonMark parser: it is
// tolerant of destinations CommonMark would reject and reports byte offsets.
func ScanLinks(body []byte) []LinkToken {
	out := make([]LinkToken, 0)
	eachProseLine(body, func(l proseLine) {
		out = append(out, matchInlineLinks(l)...)
	})
	return out
}

// ScanHeadings finds ATX headings (`# Title`) outside of code and frontmatter.
func ScanHeadings(body []byte) []HeadingToken {
	out := make([]HeadingToken, 0)
	eachProseLine(body, func(l proseLine) {
		if h, ok := matchATXHeading(l.raw); ok {
			h.Line = l.number
			out = append(out, h)
		}
	})
	return out
}

// FirstHeading returns the text of the first heading at the given level.
func FirstHeading(body []byte, level int) (string, bool) {
	for _, h := range ScanHeadings(body) {
		if h.Level == level {
			return h.Text, true
		}
	}
	return "", false
}

type proseLine struct {
	raw    string // original line text
	masked string // raw with inline code spans blanked, same length
	offset int    // byte offset of the line in the body
	number int    // 1-based
}

// eachProseLine calls fn for every line that is not inside a fenced block, an indented
// code block or a leading YAML frontmatter block.
func eachProseLine(body []byte, fn func(proseLine)) {
	lines := strings.SplitAfter(string(body), "\n")

	offset := 0
	inFence := false
	fence := ""
	inFrontmatter := false
	prevBlank := true
	inIndented := false

	for i, full := range lines {
		line := strings.TrimRight(full, "\r\n")
		lineOffset := offset
		offset += len(full)

		if i == 0 && line == "---" {
			inFrontmatter = true
			continue
		}
		if inFrontmatter {
			if line == "---" || line == "..." {
				inFrontmatter = false
			}
			continue
		}

		trimmed := strings.TrimLeft(line, " ")
		indent := len(line) - len(trimmed)
		if indent < 4 {
			if marker := fenceMarker(trimmed); marker != "" {
				switch {
				case !inFence:
					inFence, fence = true, marker
				case strings.HasPrefix(marker, fence) && strings.TrimSpace(trimmed[len(marker):]) == "":
					inFence, fence = false, ""
				}
				prevBlank = false
				continue
			}
		}
		if inFence {
			continue
		}

		blank := strings.TrimSpace(line) == ""
		isIndented := !blank && (indent >= 4 || strings.HasPrefix(line, "\t"))
		if isIndented && (prevBlank || inIndented) {
			inIndented = true
			continue
		}
		if !blank {
			inIndented = false
		}
		prevBlank = blank

		fn(proseLine{raw: line, masked: maskCodeSpans(line), offset: lineOffset, number: i + 1})
	}
}

func fenceMarker(trimmed string) string {
	for _, ch := range []byte{'`', '~'} {
		n := 0
		for n < len(trimmed) && trimmed[n] == ch {
			n++
		}
		if n >= 3 {
			return trimmed[:n]
		}
	}
	return ""
}

// maskCodeSpans replaces inline code spans (delimiters included) with spaces.
func maskCodeSpans(s string) string {
	if !strings.Contains(s, "`") {
		return s
	}
	b := []byte(s)
	for i := 0; i < len(b); {
		if b[i] != '`' {
			i++
			continue
		}
		run := 1
		for i+run < len(b) && b[i+run] == '`' {
			run++
		}
		marker := strings.Repeat("`", run)
		closeRel := strings.Index(string(b[i+run:]), marker)
		if closeRel == -1 {
			i += run
			continue
		}
		end := i + run + closeRel + run
		for k := i; k < end; k++ {
			b[k] = ' '
		}
		i = end
	}
	return string(b)
}

func matchInlineLinks(l proseLine) []LinkToken {
	s := l.masked
	out := make([]LinkToken, 0)
	for j := 0; j+1 < len(s); j++ {
		if s[j] != ']' || s[j+1] != '(' || escaped(s, j) {
			continue
		}
		open := openingBracket(s, j)
		if open == -1 {
			continue
		}
		destStart, destEnd, ok := parseDestination(s, j+2)
		if !ok || destEnd == destStart {
			continue
		}
		kind := LinkKindInline
		if open > 0 && s[open-1] == '!' {
			kind = LinkKindImage
		}
		out = append(out, LinkToken{
			Kind:        kind,
			Text:        l.raw[open+1 : j],
			Destination: l.raw[destStart:destEnd],
			Start:       l.offset + destStart,
			End:         l.offset + destEnd,
			Line:        l.number,
		})
	}
	return out
}

func escaped(s string, i int) bool {
	n := 0
	for k := i - 1; k >= 0 && s[k] == '\\'; k-- {
		n++
	}
	return n%2 == 1
}

// openingBracket walks back from the closing bracket at close to its matching '['.
func openingBracket(s string, closePos int) int {
	depth := 0
	for k := closePos - 1; k >= 0; k-- {
		if escaped(s, k) {
			continue
		}
		switch s[k] {
		case ']':
			depth++
		case '[':
			if depth == 0 {
				return k
			}
			depth--
		}
	}
	return -1
}

// parseDestination reads `dest`, `<dest>` and an optional quoted title starting right
// after the opening parenthesis. It returns the destination byte range.
func parseDestination(s string, start int) (int, int, bool) {
	i := start
	for i < len(s) && s[i] == ' ' {
		i++
	}
	var destStart, destEnd int
	if i < len(s) && s[i] == '<' {
		end := strings.IndexByte(s[i+1:], '>')
		if end == -1 {
			return 0, 0, false
		}
		destStart, destEnd = i+1, i+1+end
		i = destEnd + 1
	} else {
		destStart = i
		depth := 0
	loop:
		for ; i < len(s); i++ {
			switch s[i] {
			case '(':
				depth++
			case ')':
				if depth == 0 {
					break loop
				}
				depth--
			case ' ', '\t':
				break loop
			}
		}
		destEnd = i
	}

	for i < len(s) && s[i] == ' ' {
		i++
	}
	if i < len(s) && (s[i] == '"' || s[i] == '\'') {
		q := s[i]
		end := strings.IndexByte(s[i+1:], q)
		if end == -1 {
			return 0, 0, false
		}
		i += end + 2
		for i < len(s) && s[i] == ' ' {
			i++
		}
	}
	if i >= len(s) || s[i] != ')' {
		return 0, 0, false
	}
	return destStart, destEnd, true
}

func matchATXHeading(line string) (HeadingToken, bool) {
	trimmed := strings.TrimLeft(line, " ")
	if len(line)-len(trimmed) > 3 {
		return HeadingToken{}, false
	}
	level := 0
	for level < len(trimmed) && trimmed[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return HeadingToken{}, false
	}
	rest := trimmed[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return HeadingToken{}, false
	}
	text := strings.TrimSpace(rest)
	// Optional closing sequence: "## Title ##".
	if stripped := strings.TrimRight(text, "#"); stripped != text {
		if stripped == "" || strings.HasSuffix(stripped, " ") {
			text = strings.TrimSpace(stripped)
		}
	}
	if text == "" {
		return HeadingToken{}, false
	}
	return HeadingToken{Level: level, Text: text}, true
}
