package markdown

import (
	"regexp"
	"strings"
)

// segment is a window into the source text. Matchers receive segments and
// return sub-segments so that no substring copies happen until node
// construction.
type segment struct {
	src        string
	start, end int
}

func (s segment) text() string { return s.src[s.start:s.end] }

func (s segment) slice(relStart, relEnd int) segment {
	return segment{src: s.src, start: s.start + relStart, end: s.start + relEnd}
}

// match is a successful matcher application: the covered sub-segment and
// the node built from it.
type match struct {
	seg  segment
	node Node
}

// matcher recognizes one construct inside a segment. tryMatch returns nil
// when the construct does not occur.
type matcher interface {
	tryMatch(p *parseRun, s segment) *match
}

// stringMatcher finds the first occurrence of a literal and maps it to a
// node.
type stringMatcher struct {
	needle string
	build  func(lit string) Node
}

func (m *stringMatcher) tryMatch(_ *parseRun, s segment) *match {
	i := strings.Index(s.text(), m.needle)
	if i < 0 {
		return nil
	}
	seg := s.slice(i, i+len(m.needle))
	return &match{seg: seg, node: m.build(m.needle)}
}

// regexMatcher finds the earliest regexp match and builds a node from the
// submatches. groups receives the absolute submatch index pairs relative
// to the matched segment's text.
type regexMatcher struct {
	re    *regexp.Regexp
	build func(p *parseRun, whole segment, groups []segment) Node
}

func (m *regexMatcher) tryMatch(p *parseRun, s segment) *match {
	loc := m.re.FindStringSubmatchIndex(s.text())
	if loc == nil {
		return nil
	}
	whole := s.slice(loc[0], loc[1])
	groups := make([]segment, 0, len(loc)/2-1)
	for g := 1; g < len(loc)/2; g++ {
		a, b := loc[2*g], loc[2*g+1]
		if a < 0 {
			groups = append(groups, segment{})
		} else {
			groups = append(groups, s.slice(a, b))
		}
	}
	node := m.build(p, whole, groups)
	if node == nil {
		return nil
	}
	return &match{seg: whole, node: node}
}

// delimiterMatcher matches a symmetric two-character delimiter pair (bold,
// underline). When the closing pair is immediately followed by more of the
// same delimiter character the match is extended rightwards, so that
// "**bold *it***" closes on the outermost pair and keeps "*it*" inside,
// the behavior a negative lookahead would give.
type delimiterMatcher struct {
	re       *regexp.Regexp
	delim    byte
	kind     FormattingKind
	children func() *aggregateMatcher
}

func (m *delimiterMatcher) tryMatch(p *parseRun, s segment) *match {
	loc := m.re.FindStringSubmatchIndex(s.text())
	if loc == nil {
		return nil
	}
	txt := s.text()
	start, end := loc[0], loc[1]
	cs, ce := loc[2], loc[3]
	for end < len(txt) && txt[end] == m.delim {
		end++
		ce++
	}
	node := FormattingNode{Kind: m.kind, Children: p.parseWith(m.children(), s.slice(cs, ce))}
	return &match{seg: s.slice(start, end), node: node}
}

// aggregateMatcher tries every registered matcher and keeps the match with
// the smallest start index; on a tie the earliest-registered matcher wins.
// Registration order therefore encodes construct priority.
type aggregateMatcher struct {
	matchers []matcher
}

func (m *aggregateMatcher) tryMatch(p *parseRun, s segment) *match {
	var best *match
	for _, sub := range m.matchers {
		got := sub.tryMatch(p, s)
		if got == nil {
			continue
		}
		if best == nil || got.seg.start < best.seg.start {
			best = got
			if best.seg.start == s.start {
				break
			}
		}
	}
	return best
}

// matchAll walks the segment emitting matched nodes and fallback text for
// the gaps, covering the input exactly once.
func matchAll(p *parseRun, m matcher, s segment) []Node {
	var nodes []Node
	cur := s
	for cur.start < cur.end {
		got := m.tryMatch(p, cur)
		if got == nil {
			break
		}
		if got.seg.start > cur.start {
			nodes = append(nodes, TextNode{Content: cur.src[cur.start:got.seg.start]})
		}
		nodes = append(nodes, got.node)
		cur = segment{src: cur.src, start: got.seg.end, end: cur.end}
	}
	if cur.start < cur.end {
		nodes = append(nodes, TextNode{Content: cur.text()})
	}
	return nodes
}
