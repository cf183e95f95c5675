// Package anchor projects diagnostics onto a rendered HTML view of the
// document. The renderer works in the same rune coordinate space as the
// document model, so when the rendered text flattens to the text buffer
// exactly, offsets translate one to one. When it does not, the projector
// falls back to matching paragraph text block by block.
package anchor

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/hazyhaar/doclint/docmodel"
	"github.com/hazyhaar/doclint/issue"
)

// ErrEmptyRender is returned when no render HTML was supplied.
var ErrEmptyRender = errors.New("anchor: empty render html")

// Projection is the annotated HTML plus placement accounting.
type Projection struct {
	HTML    string
	Located int // diagnostics anchored into the markup
	Dropped int // diagnostics that could not be placed
}

// blockTags are elements whose close contributes a paragraph
// terminator when the rendered DOM is flattened to a rune stream.
var blockTags = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true,
	atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Td: true, atom.Th: true, atom.Blockquote: true,
	atom.Pre: true,
}

// paragraphSelector lists the block elements the fallback strategy
// matches paragraph text against.
const paragraphSelector = "p, li, h1, h2, h3, h4, h5, h6, td, blockquote"

// segment is one text node of the rendered DOM and its position in the
// flattened rune stream.
type segment struct {
	node  *html.Node
	start int // stream rune offset, inclusive
	runes []rune
}

func (s *segment) end() int { return s.start + len(s.runes) }

type flattened struct {
	stream []rune
	segs   []*segment
}

// flatten walks the DOM in document order, collecting text node
// segments and emitting one '\n' per closed block element, mirroring
// how the text buffer is assembled from paragraphs.
func flatten(n *html.Node, f *flattened) {
	switch n.Type {
	case html.TextNode:
		r := []rune(n.Data)
		if len(r) > 0 {
			f.segs = append(f.segs, &segment{node: n, start: len(f.stream), runes: r})
			f.stream = append(f.stream, r...)
		}
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			f.stream = append(f.stream, '\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		flatten(c, f)
	}
	if n.Type == html.ElementNode && blockTags[n.DataAtom] {
		f.stream = append(f.stream, '\n')
	}
}

// sanitizePolicy keeps the structural markup a renderer emits while
// stripping scripts and event handlers. class, id and style survive so
// the render's own styling is not lost.
func sanitizePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class", "id", "style").Globally()
	p.AllowElements("mark", "span")
	return p
}

// Render is a sanitized, parsed and flattened render tree, ready to
// receive annotations. Preparing it needs no document model, so it can
// run concurrently with model building.
type Render struct {
	root *html.Node
	f    *flattened
}

// Prepare sanitizes and parses renderHTML and flattens it to a rune
// stream with leaf segments.
func Prepare(renderHTML string) (*Render, error) {
	if strings.TrimSpace(renderHTML) == "" {
		return nil, ErrEmptyRender
	}

	clean := sanitizePolicy().Sanitize(renderHTML)
	root, err := html.Parse(strings.NewReader(clean))
	if err != nil {
		return nil, fmt.Errorf("parse render html: %w", err)
	}

	f := &flattened{}
	flatten(root, f)
	return &Render{root: root, f: f}, nil
}

// Project prepares renderHTML and applies the diagnostics in one call.
func Project(renderHTML string, m *docmodel.Model, diags []issue.Diagnostic, logger *slog.Logger) (*Projection, error) {
	rend, err := Prepare(renderHTML)
	if err != nil {
		return nil, err
	}
	return rend.Apply(m, diags, logger)
}

// Apply anchors each diagnostic as a <mark class="doclint-anchor">
// element and returns the annotated markup. Diagnostics that cannot be
// placed are counted and logged, never invented a position. The render
// is consumed: Apply mutates the parsed tree and must be called once.
func (rend *Render) Apply(m *docmodel.Model, diags []issue.Diagnostic, logger *slog.Logger) (*Projection, error) {
	if logger == nil {
		logger = slog.Default()
	}
	root, f := rend.root, rend.f

	// When the render flattens to the buffer exactly, every offset
	// translates directly. Otherwise each diagnostic is matched
	// against block elements by paragraph text.
	exact := string(f.stream) == m.Buffer.String()
	var blocks []*blockInfo
	if !exact {
		blocks = collectBlocks(root, f)
	}

	// Descending start order keeps earlier stream offsets valid while
	// later segments are split by mark insertion.
	ordered := make([]issue.Diagnostic, len(diags))
	copy(ordered, diags)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Start > ordered[j].Start })

	proj := &Projection{}
	for _, d := range ordered {
		start, end, strategy, ok := locate(f, m, d, exact, blocks)
		if ok {
			ok = insertMark(f, start, end, d)
		}
		if !ok {
			proj.Dropped++
			logger.Warn("diagnostic not anchored in render",
				"id", d.ID, "rule", d.RuleID, "start", d.Start, "end", d.End)
			continue
		}
		logger.Debug("diagnostic anchored", "id", d.ID, "strategy", strategy)
		proj.Located++
	}

	var b strings.Builder
	if err := html.Render(&b, root); err != nil {
		return nil, fmt.Errorf("render annotated html: %w", err)
	}
	proj.HTML = b.String()
	return proj, nil
}

// blockInfo pairs a block element with the stream range its text
// occupies and the flattened text itself.
type blockInfo struct {
	text  string
	start int
}

func collectBlocks(root *html.Node, f *flattened) []*blockInfo {
	var blocks []*blockInfo
	doc := goquery.NewDocumentFromNode(root)
	doc.Find(paragraphSelector).Each(func(_ int, sel *goquery.Selection) {
		n := sel.Get(0)
		first := -1
		var b strings.Builder
		for _, seg := range f.segs {
			if !isDescendant(seg.node, n) {
				continue
			}
			if first < 0 {
				first = seg.start
			}
			b.WriteString(string(seg.runes))
		}
		if first >= 0 {
			blocks = append(blocks, &blockInfo{text: b.String(), start: first})
		}
	})
	return blocks
}

func isDescendant(n, ancestor *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// locate maps a diagnostic's buffer range to a stream range. In exact
// mode the range is used as is. In fallback mode the containing
// paragraph's text is matched against block elements and the offset is
// rebased into the matching block.
func locate(f *flattened, m *docmodel.Model, d issue.Diagnostic, exact bool, blocks []*blockInfo) (int, int, string, bool) {
	if exact {
		if d.End > len(f.stream) {
			return 0, 0, "", false
		}
		return d.Start, d.End, "global", true
	}
	para := m.ParagraphAt(d.Start)
	if para == nil || d.End > para.End {
		return 0, 0, "", false
	}
	local := d.Start - para.Start
	length := d.End - d.Start
	if d.End > para.TextEnd() {
		// The range reaches into the terminator; clamp to text.
		length = para.TextEnd() - d.Start
		if length <= 0 {
			return 0, 0, "", false
		}
	}
	for _, blk := range blocks {
		if blk.text != para.Text {
			continue
		}
		return blk.start + local, blk.start + local + length, "paragraph", true
	}
	return 0, 0, "", false
}

// insertMark wraps the stream range [start, end) in a mark element.
// A range inside a single text node is wrapped whole; a range spanning
// several nodes annotates only its intersection with the first one.
func insertMark(f *flattened, start, end int, d issue.Diagnostic) bool {
	for _, seg := range f.segs {
		if start >= seg.end() || end <= seg.start {
			continue
		}
		ls := start - seg.start
		if ls < 0 {
			ls = 0
		}
		le := end - seg.start
		if le > len(seg.runes) {
			le = len(seg.runes)
		}
		splitSegment(seg, ls, le, d)
		return true
	}
	return false
}

// splitSegment replaces the segment's text node with pre-text, the
// mark element and post-text, then shrinks the segment to the pre-text
// so earlier offsets in the same node stay mappable.
func splitSegment(seg *segment, ls, le int, d issue.Diagnostic) {
	parent := seg.node.Parent

	pre := &html.Node{Type: html.TextNode, Data: string(seg.runes[:ls])}
	mark := &html.Node{
		Type: html.ElementNode, DataAtom: atom.Mark, Data: "mark",
		Attr: []html.Attribute{
			{Key: "class", Val: "doclint-anchor"},
			{Key: "data-issue-id", Val: d.ID},
			{Key: "data-category", Val: string(d.Category)},
			{Key: "data-severity", Val: d.Severity.String()},
			{Key: "data-badge", Val: severityBadge(d.Severity)},
		},
	}
	mark.AppendChild(&html.Node{Type: html.TextNode, Data: string(seg.runes[ls:le])})
	post := &html.Node{Type: html.TextNode, Data: string(seg.runes[le:])}

	parent.InsertBefore(pre, seg.node)
	parent.InsertBefore(mark, seg.node)
	parent.InsertBefore(post, seg.node)
	parent.RemoveChild(seg.node)

	seg.node = pre
	seg.runes = seg.runes[:ls]
}

func severityBadge(s issue.Severity) string {
	switch s {
	case issue.SevError:
		return "错误"
	case issue.SevWarning:
		return "警告"
	}
	return "提示"
}
