package quote

import (
	"bytes"
	"regexp"
	"strings"
	"sync"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// outlookHeaderWindow is how many lines after an Outlook "From:" line we look
// for the matching "Sent:"/"Date:" line.
const outlookHeaderWindow = 4

// Heuristic finds the first quotation boundary in a body using markers common
// to the major mail clients and cuts everything from there on.
type Heuristic struct {
	once sync.Once

	attribution *regexp.Regexp
	original    *regexp.Regexp
	forwarded   *regexp.Regexp
	separator   *regexp.Regexp
	outlookFrom *regexp.Regexp
	outlookSent *regexp.Regexp
	sentFrom    *regexp.Regexp
	spaces      *regexp.Regexp
}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Init() error {
	h.once.Do(func() {
		h.attribution = regexp.MustCompile(
			`(?i)^(on|le|am|el|op|il)\s.{0,200}(wrote|a écrit|schrieb|escribió|schreef|ha scritto).{0,100}:\s*$`)
		h.original = regexp.MustCompile(`(?i)^-{3,}\s*original message\s*-{3,}$`)
		h.forwarded = regexp.MustCompile(`(?i)^-{3,}\s*forwarded message\s*-{3,}$`)
		h.separator = regexp.MustCompile(`^_{5,}$`)
		h.outlookFrom = regexp.MustCompile(`(?i)^\*?from:\*?\s`)
		h.outlookSent = regexp.MustCompile(`(?i)^\*?(sent|date):\*?\s`)
		h.sentFrom = regexp.MustCompile(`(?i)^sent from my \S`)
		h.spaces = regexp.MustCompile(`\s+`)
	})
	return nil
}

func (h *Heuristic) ExtractReply(body string, isHTML bool) string {
	_ = h.Init()
	if isHTML {
		return h.fromHTML(body)
	}
	return h.fromPlain(body)
}

func (h *Heuristic) fromPlain(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	cut := len(lines)
	for i := range lines {
		if h.boundaryAt(lines, i) {
			cut = i
			break
		}
	}
	reply := strings.TrimRight(strings.Join(lines[:cut], "\n"), " \t\n")
	if strings.TrimSpace(reply) == "" {
		return text
	}
	return reply
}

func (h *Heuristic) boundaryAt(lines []string, i int) bool {
	trimmed := strings.TrimSpace(lines[i])
	switch {
	case trimmed == "--":
		return true
	case strings.HasPrefix(trimmed, ">"):
		return true
	case h.attribution.MatchString(trimmed):
		return true
	case h.original.MatchString(trimmed), h.forwarded.MatchString(trimmed):
		return true
	case h.separator.MatchString(trimmed):
		return true
	case h.sentFrom.MatchString(trimmed):
		return true
	}
	// attribution wrapped over two lines
	if i+1 < len(lines) && trimmed != "" {
		next := strings.TrimSpace(lines[i+1])
		if !h.attribution.MatchString(next) && h.attribution.MatchString(trimmed+" "+next) {
			return true
		}
	}
	if h.outlookFrom.MatchString(trimmed) {
		for j := i + 1; j < len(lines) && j <= i+outlookHeaderWindow; j++ {
			if h.outlookSent.MatchString(strings.TrimSpace(lines[j])) {
				return true
			}
		}
	}
	return false
}

func (h *Heuristic) fromHTML(body string) string {
	doc, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return body
	}
	if !h.strip(doc) {
		return body
	}
	if strings.TrimSpace(textOf(doc)) == "" {
		return body
	}
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return body
	}
	return buf.String()
}

// strip removes quote containers below n and reports whether anything went.
func (h *Heuristic) strip(n *html.Node) bool {
	removed := false
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type != html.ElementNode {
			c = next
			continue
		}
		if cutsRest(c) {
			for x := c; x != nil; {
				nx := x.NextSibling
				n.RemoveChild(x)
				x = nx
			}
			return true
		}
		if isQuoteContainer(c) {
			if p := prevSignificant(c); p != nil && h.isAttribution(textOf(p)) {
				n.RemoveChild(p)
			}
			n.RemoveChild(c)
			removed = true
			c = next
			continue
		}
		if h.strip(c) {
			removed = true
		}
		c = next
	}
	return removed
}

func (h *Heuristic) isAttribution(text string) bool {
	text = strings.TrimSpace(h.spaces.ReplaceAllString(text, " "))
	return text != "" && h.attribution.MatchString(text)
}

func isQuoteContainer(n *html.Node) bool {
	if n.DataAtom == atom.Blockquote {
		return true
	}
	if n.DataAtom != atom.Div {
		return false
	}
	return hasClass(n, "gmail_quote") ||
		hasClass(n, "gmail_extra") ||
		hasClass(n, "moz-cite-prefix") ||
		hasClass(n, "yahoo_quoted")
}

// cutsRest reports markers after which every sibling is quoted history.
func cutsRest(n *html.Node) bool {
	id := attr(n, "id")
	switch {
	case n.DataAtom == atom.Div && (id == "divRplyFwdMsg" || id == "appendonsend"):
		return true
	case n.DataAtom == atom.Hr && id == "stopSpelling":
		return true
	}
	return false
}

func prevSignificant(n *html.Node) *html.Node {
	for p := n.PrevSibling; p != nil; p = p.PrevSibling {
		switch {
		case p.Type == html.CommentNode:
			continue
		case p.Type == html.TextNode && strings.TrimSpace(p.Data) == "":
			continue
		}
		return p
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}
