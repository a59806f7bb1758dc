package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"ai-tutor-be/pkg/store"
)

var headingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^#{1,6}\s+\S`),
	regexp.MustCompile(`^(?i:chapter)\s+\d+`),
	regexp.MustCompile(`^(?i:section)\s+\d+`),
	regexp.MustCompile(`^\d+(\.\d+)*\.?\s+[A-Z]`),
	regexp.MustCompile(`^[A-Z][A-Z\s]{3,}$`),
}

const (
	maxHeadingLen      = 80
	minHeadingLen      = 4
	followingLines     = 3
	followingMinLength = 100
)

type line struct {
	start int
	text  string
}

// sections partitions text into contiguous sections. Heading detection runs
// first; documents without usable structure are split evenly.
func (c *Chunker) sections(text string) []store.Section {
	if c.opts.ForceSections > 0 {
		return evenSplit(text, c.opts.ForceSections)
	}
	if len(text) <= c.opts.ChunkSize {
		return single(text)
	}

	if secs := headingSplit(text); len(secs) >= 2 {
		return secs
	}

	n := c.opts.TargetSections
	// keep fallback sections at least about one chunk long
	if maxN := (len(text) + c.opts.ChunkSize - 1) / c.opts.ChunkSize; n > maxN {
		n = maxN
	}
	return evenSplit(text, n)
}

func single(text string) []store.Section {
	title := "Introduction"
	for _, l := range splitLines(text) {
		if t := strings.TrimSpace(l.text); t != "" {
			if isPatternHeading(t) {
				title = cleanTitle(t)
			}
			break
		}
	}
	return []store.Section{{Index: 0, Title: title, Text: text, StartOffset: 0}}
}

func headingSplit(text string) []store.Section {
	lines := splitLines(text)

	type cut struct {
		offset int
		title  string
	}
	var cuts []cut
	for i, l := range lines {
		t := strings.TrimSpace(l.text)
		if !isHeading(lines, i, t) {
			continue
		}
		cuts = append(cuts, cut{offset: l.start, title: cleanTitle(t)})
	}
	if len(cuts) == 0 {
		return nil
	}

	// untitled leading text becomes its own section, leading whitespace joins the first heading
	if strings.TrimSpace(text[:cuts[0].offset]) != "" {
		cuts = append([]cut{{offset: 0, title: "Introduction"}}, cuts...)
	} else {
		cuts[0].offset = 0
	}

	var secs []store.Section
	bare := false
	for i, ct := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1].offset
		}
		body := text[ct.offset:end]
		// a heading with no body of its own is folded into the next section
		if bare {
			prev := &secs[len(secs)-1]
			prev.Text += body
			bare = singleLine(prev.Text)
			continue
		}
		bare = ct.title != "Introduction" && singleLine(body)
		secs = append(secs, store.Section{
			Index:       len(secs),
			Title:       ct.title,
			Text:        body,
			StartOffset: ct.offset,
		})
	}
	return secs
}

func isHeading(lines []line, i int, t string) bool {
	if t == "" || len(t) > maxHeadingLen {
		return false
	}
	if isPatternHeading(t) {
		return true
	}
	if len(t) < minHeadingLen || strings.ContainsAny(t[len(t)-1:], ".,;:!?") {
		return false
	}
	// short standalone line followed by substantial content
	if i > 0 && strings.TrimSpace(lines[i-1].text) != "" {
		return false
	}
	var following strings.Builder
	for j := i + 1; j < len(lines) && j <= i+followingLines; j++ {
		following.WriteString(strings.TrimSpace(lines[j].text))
		following.WriteByte(' ')
	}
	return len(strings.TrimSpace(following.String())) > followingMinLength
}

func isPatternHeading(t string) bool {
	for _, p := range headingPatterns {
		if p.MatchString(t) {
			return true
		}
	}
	return false
}

func singleLine(sectionText string) bool {
	t := strings.TrimSpace(sectionText)
	return t != "" && !strings.Contains(t, "\n")
}

func cleanTitle(t string) string {
	t = strings.TrimSpace(strings.TrimLeft(t, "#"))
	return strings.TrimRight(t, ":")
}

func splitLines(text string) []line {
	var lines []line
	start := 0
	for start <= len(text) {
		i := strings.IndexByte(text[start:], '\n')
		if i < 0 {
			lines = append(lines, line{start: start, text: text[start:]})
			break
		}
		lines = append(lines, line{start: start, text: text[start : start+i]})
		start += i + 1
	}
	return lines
}

// evenSplit cuts text into n parts of roughly equal length. Cut points prefer
// paragraph starts, then word starts. A rune boundary is only used inside a
// run with no whitespace at all. Fewer than n parts come back when the text
// has no room for them.
func evenSplit(text string, n int) []store.Section {
	if n <= 1 {
		return []store.Section{{Index: 0, Title: "Part 1", Text: text}}
	}

	paragraphs := paragraphStarts(text)
	cuts := []int{0}
	for i := 1; i < n; i++ {
		target := len(text) * i / n
		prev := cuts[len(cuts)-1]
		at := nearestAfter(paragraphs, target, prev, len(text)/(2*n))
		if at < 0 {
			at = whitespaceCut(text, target, prev)
		}
		if at <= prev || at >= len(text) || strings.TrimSpace(text[prev:at]) == "" || strings.TrimSpace(text[at:]) == "" {
			continue
		}
		cuts = append(cuts, at)
	}

	secs := make([]store.Section, 0, len(cuts))
	for i, at := range cuts {
		end := len(text)
		if i+1 < len(cuts) {
			end = cuts[i+1]
		}
		secs = append(secs, store.Section{
			Index:       i,
			Title:       fmt.Sprintf("Part %d", i+1),
			Text:        text[at:end],
			StartOffset: at,
		})
	}
	return secs
}

// paragraphStarts lists offsets of the first non-space rune after each blank-line run.
func paragraphStarts(text string) []int {
	var starts []int
	i := 0
	for {
		j := strings.Index(text[i:], "\n\n")
		if j < 0 {
			break
		}
		k := i + j
		for k < len(text) && isSpace(text[k]) {
			k++
		}
		if k < len(text) && strings.TrimSpace(text[:k]) != "" {
			starts = append(starts, k)
		}
		if k <= i+j {
			k = i + j + 2
		}
		i = k
		if i >= len(text) {
			break
		}
	}
	return starts
}

// nearestAfter returns the candidate closest to target that is strictly after
// prev and within maxDist of it, or -1.
func nearestAfter(candidates []int, target, prev, maxDist int) int {
	best, bestDist := -1, 0
	for _, c := range candidates {
		if c <= prev {
			continue
		}
		d := c - target
		if d < 0 {
			d = -d
		}
		if best < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	if bestDist > maxDist {
		return -1
	}
	return best
}

func whitespaceCut(text string, target, prev int) int {
	target = runeFloor(text, target)
	for i := target; i < len(text); i++ {
		if isSpace(text[i]) && i > prev {
			for i < len(text) && isSpace(text[i]) {
				i++
			}
			if i < len(text) {
				return i
			}
			break
		}
	}
	for i := target; i > prev; i-- {
		if isSpace(text[i-1]) && !isSpace(text[i]) {
			return i
		}
	}
	if target > prev && !strings.ContainsAny(text[prev:], " \t\n\v\f\r") {
		return target
	}
	return -1
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
