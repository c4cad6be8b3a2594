// Package segment turns one fully-rendered bulletin page into labeled
// text regions. It is the first stage of the extraction pipeline and the
// only component that looks at HTML structure.
package segment

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
)

// ReportURLPrefix is the link prefix that identifies a cross-reference to
// another bulletin.
const ReportURLPrefix = "https://www.astronomerstelegram.org/?read="

// referredByMarker identifies the citation footer paragraph, which is not
// part of the body text.
const referredByMarker = "Referred to by ATel #:"

// notFoundText is what the source renders in place of a bulletin that
// does not exist.
const notFoundText = "This ATel does not appear to exist."

var digitRun = regexp.MustCompile(`\d+`)

// Segments holds the labeled text regions of one bulletin page.
type Segments struct {
	Title             string
	Authors           string
	RawSubmissionDate string
	Body              string
	Subjects          string
	ReferenceIDs      []int
	ReferencedByIDs   []int
}

// Parse extracts the labeled regions from a rendered bulletin page.
// It fails with a *internalerr.MissingElementError when the title, the
// authors element or the submission-date element cannot be located; every
// other region is optional.
func Parse(page string) (Segments, error) {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return Segments{}, err
	}

	var seg Segments

	titleNode := findFirst(root, func(n *html.Node) bool {
		return n.Data == "h1" && hasClass(n, "title")
	})
	if titleNode == nil || strippedText(titleNode) == "" {
		return Segments{}, &internalerr.MissingElementError{Element: "title"}
	}
	seg.Title = strippedText(titleNode)

	strongs := findAll(root, func(n *html.Node) bool { return n.Data == "strong" })
	if len(strongs) < 1 || strippedText(strongs[0]) == "" {
		return Segments{}, &internalerr.MissingElementError{Element: "authors"}
	}
	seg.Authors = strippedText(strongs[0])
	if len(strongs) < 2 || strippedText(strongs[1]) == "" {
		return Segments{}, &internalerr.MissingElementError{Element: "submission date"}
	}
	seg.RawSubmissionDate = strippedText(strongs[1])

	seg.Body = bodyText(root)

	if subjects := findFirst(root, func(n *html.Node) bool {
		return n.Data == "p" && hasClass(n, "subjects")
	}); subjects != nil {
		seg.Subjects = text(subjects)
	}

	seg.ReferencedByIDs = referencedByIDs(root)
	seg.ReferenceIDs = referenceIDs(root, seg.ReferencedByIDs)

	return seg, nil
}

// DeclaresMissing reports whether the page is the source's placeholder
// for a bulletin number that does not exist.
func DeclaresMissing(page string) bool {
	root, err := html.Parse(strings.NewReader(page))
	if err != nil {
		return false
	}
	paras := findAll(root, isPlainParagraph)
	return len(paras) > 1 && strippedText(paras[1]) == notFoundText
}

// bodyText concatenates every plain body paragraph using the exact join
// rule the rest of the system depends on: a paragraph whose raw text
// already contains a line break is appended verbatim, any other paragraph
// gets a single trailing newline, and the result is trimmed.
func bodyText(root *html.Node) string {
	var b strings.Builder
	for _, p := range findAll(root, isPlainParagraph) {
		if findFirst(p, func(n *html.Node) bool { return n.Data == "iframe" }) != nil {
			continue
		}
		stripped := strippedText(p)
		if stripped == "" || strings.Contains(stripped, referredByMarker) {
			continue
		}
		raw := text(p)
		if strings.Contains(raw, "\n") {
			b.WriteString(raw)
		} else {
			b.WriteString(raw)
			b.WriteString("\n")
		}
	}
	return strings.TrimSpace(b.String())
}

// referencedByIDs scans the citation container for integer tokens,
// de-duplicated preserving first occurrence.
func referencedByIDs(root *html.Node) []int {
	container := findFirst(root, func(n *html.Node) bool {
		return n.Data == "div" && attr(n, "id") == "references"
	})
	if container == nil {
		return nil
	}

	var ids []int
	seen := make(map[int]struct{})
	for _, tok := range digitRun.FindAllString(text(container), -1) {
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

// referenceIDs collects bulletin numbers from report links inside the
// main container, excluding navigation anchors, then removes every id
// already present in referencedBy. Removal of an absent id is a no-op.
func referenceIDs(root *html.Node, referencedBy []int) []int {
	container := findFirst(root, func(n *html.Node) bool {
		return n.Data == "div" && attr(n, "id") == "telegram"
	})
	if container == nil {
		return nil
	}

	exclude := make(map[int]struct{}, len(referencedBy))
	for _, id := range referencedBy {
		exclude[id] = struct{}{}
	}

	var ids []int
	seen := make(map[int]struct{})
	for _, a := range findAll(container, func(n *html.Node) bool {
		return n.Data == "a" && attr(n, "href") != ""
	}) {
		href := attr(a, "href")
		if !strings.Contains(href, ReportURLPrefix) || href == ReportURLPrefix {
			continue
		}
		label := text(a)
		if label == "Previous" || label == "Next" {
			continue
		}
		tok := digitRun.FindString(href)
		if tok == "" {
			continue
		}
		id, err := strconv.Atoi(tok)
		if err != nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := exclude[id]; ok {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

func isPlainParagraph(n *html.Node) bool {
	if n.Data != "p" {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" || a.Key == "align" {
			return false
		}
	}
	return true
}

// text returns the concatenation of every descendant text node, verbatim.
func text(n *html.Node) string {
	var b strings.Builder
	walkText(n, func(data string) { b.WriteString(data) })
	return b.String()
}

// strippedText returns the concatenation of every descendant text node
// with each fragment trimmed of surrounding whitespace.
func strippedText(n *html.Node) string {
	var b strings.Builder
	walkText(n, func(data string) { b.WriteString(strings.TrimSpace(data)) })
	return b.String()
}

func walkText(n *html.Node, emit func(string)) {
	if n.Type == html.TextNode {
		emit(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, emit)
	}
}

// findFirst returns the first element node in document order matching the
// predicate, or nil.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findAll returns every element node in document order matching the
// predicate.
func findAll(n *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
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
