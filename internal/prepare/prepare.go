// Package prepare validates and rewrites an SVG document into the canonical
// translatable shape: every <text> lives inside a <switch>, every piece of
// raw text is wrapped in a <tspan>, every translatable node carries a unique
// id, and switch children are deterministically ordered with the untagged
// fallback last.
package prepare

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"svgtranslate/internal/langtag"
	"svgtranslate/internal/svg"
	"svgtranslate/internal/textutil"
)

var (
	// Reserved auto-allocated id form.
	reservedIDRe = regexp.MustCompile(`^trsvg([0-9]+)$`)
	// Numeric portion of a reserved id anywhere in an id string, e.g. the
	// "2" in "trsvg2-fr".
	reservedNumRe = regexp.MustCompile(`trsvg([0-9]+)`)

	dollarRe   = regexp.MustCompile(`\$[0-9]+`)
	entityRefs = regexp.MustCompile(`^(&[^;]+;)+$`)

	// A "simple" stylesheet: alternating selector{declarations} blocks with
	// a trailing non-block segment. Anything else containing '#' is too
	// complex to rewrite safely.
	cssSimpleRe = regexp.MustCompile(`^([^{]+\{[^}]*\})*[^{]+$`)
	cssBlockRe  = regexp.MustCompile(`\{[^}]*\}`)
)

const orderSentinel = 1 << 30

// Normalize validates doc and returns a canonical copy suitable for
// extraction or injection. The input document is never mutated; on error the
// returned document is nil. A document without any <text> element is not an
// error and is returned as-is (after namespace repair).
func Normalize(doc *svg.Document) (*svg.Document, error) {
	work := doc.Clone()
	root := work.Root()
	if root == nil {
		return nil, structErr(ErrNoDocElement, nil, "")
	}

	ensureNamespace(root)

	if len(work.Find("text")) == 0 {
		// Nothing to translate.
		return work, nil
	}

	if err := rejectTrefs(work); err != nil {
		return nil, err
	}
	if err := checkStyles(work); err != nil {
		return nil, err
	}
	if err := checkNestedSpans(work); err != nil {
		return nil, err
	}
	wrapRawText(work)
	pruneEmptyNodes(work)
	if err := allocateIDs(work); err != nil {
		return nil, err
	}
	if err := checkContent(work); err != nil {
		return nil, err
	}
	canonicalizeLangs(work)
	if err := wrapInSwitches(work); err != nil {
		return nil, err
	}
	hoistStyles(work)
	if err := normalizeSwitches(work); err != nil {
		return nil, err
	}
	for _, sw := range work.Find("switch") {
		ReorderSwitch(sw)
	}
	return work, nil
}

// ensureNamespace declares the SVG default namespace on the root when it is
// absent or holds an unresolved entity chain.
func ensureNamespace(root *xmlquery.Node) {
	ns := svg.Attr(root, "xmlns")
	if ns == "" || entityRefs.MatchString(ns) {
		svg.SetAttr(root, "xmlns", svg.Namespace)
		root.NamespaceURI = svg.Namespace
	}
}

func rejectTrefs(doc *svg.Document) error {
	if trefs := doc.Find("tref"); len(trefs) > 0 {
		return structErr(ErrContainsTref, trefs[0], "")
	}
	return nil
}

// checkStyles rejects inline stylesheets whose id selectors would break when
// translation rewrites ids. Stylesheets without '#' are left alone.
func checkStyles(doc *svg.Document) error {
	for _, style := range doc.Find("style") {
		css := svg.Text(style)
		if !strings.Contains(css, "#") {
			continue
		}
		if !cssSimpleRe.MatchString(css) {
			return structErr(ErrCSSTooComplex, style, "")
		}
		for _, selector := range cssBlockRe.Split(css, -1) {
			if strings.Contains(selector, "#") {
				return structErr(ErrCSSHasIDs, style, "")
			}
		}
	}
	return nil
}

func checkNestedSpans(doc *svg.Document) error {
	for _, tspan := range doc.Find("tspan") {
		if len(svg.ChildElements(tspan, "")) > 0 {
			return structErr(ErrNestedTspans, tspan, svg.Attr(tspan, "id"))
		}
	}
	return nil
}

// wrapRawText wraps any non-whitespace raw text directly inside a <text>
// into a synthetic <tspan> at the same position, so that afterwards a
// <text>'s content is exclusively <tspan> children.
func wrapRawText(doc *svg.Document) {
	for _, text := range doc.Find("text") {
		for _, c := range svg.Children(text) {
			if c.Type != xmlquery.TextNode || strings.TrimSpace(c.Data) == "" {
				continue
			}
			tspan := svg.NewElement("tspan")
			svg.AppendChild(tspan, svg.NewText(c.Data))
			svg.InsertBefore(c, tspan)
			svg.RemoveNode(c)
		}
	}
}

// pruneEmptyNodes drops <tspan> and <text> elements with no element children
// and no non-whitespace text. Spans first, so a <text> holding only empty
// spans is itself pruned.
func pruneEmptyNodes(doc *svg.Document) {
	for _, tspan := range doc.Find("tspan") {
		if len(svg.ChildElements(tspan, "")) == 0 && strings.TrimSpace(svg.Text(tspan)) == "" {
			svg.RemoveNode(tspan)
		}
	}
	for _, text := range doc.Find("text") {
		if len(svg.ChildElements(text, "")) == 0 && strings.TrimSpace(svg.Text(text)) == "" {
			svg.RemoveNode(text)
		}
	}
}

// idAllocator tracks reserved trsvg<N> ids for one document pass and hands
// out fresh ids beyond the maximum in use.
type idAllocator struct {
	max int
}

func (a *idAllocator) reserve(n int) {
	if n > a.max {
		a.max = n
	}
}

func (a *idAllocator) next() string {
	a.max++
	return "trsvg" + strconv.Itoa(a.max)
}

// allocateIDs trims and validates existing ids, strips purely numeric ids
// (the numeric namespace is reserved for auto-allocation), and assigns a
// fresh trsvg<N> id to every translatable node without one. Spans are
// numbered before text blocks, in document order.
func allocateIDs(doc *svg.Document) error {
	nodes := append(doc.Find("tspan"), doc.Find("text")...)

	alloc := &idAllocator{}
	for _, n := range nodes {
		if !svg.HasAttr(n, "id") {
			continue
		}
		id := strings.TrimSpace(svg.Attr(n, "id"))
		svg.SetAttr(n, "id", id)
		if strings.ContainsAny(id, "|/") {
			return structErr(ErrInvalidNodeID, n, id)
		}
		if m := reservedIDRe.FindStringSubmatch(id); m != nil {
			alloc.reserve(atoi(m[1]))
		}
		if textutil.IsDigits(id) {
			svg.RemoveAttr(n, "id")
		}
	}

	for _, n := range nodes {
		if !svg.HasAttr(n, "id") {
			svg.SetAttr(n, "id", alloc.next())
		}
	}
	return nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// checkContent rejects text blocks holding $<digits> placeholders; those
// belong to an external substitution mechanism and must not be translated.
func checkContent(doc *svg.Document) error {
	for _, text := range doc.Find("text") {
		if content := svg.Text(text); dollarRe.MatchString(content) {
			return structErr(ErrTextContainsDollar, text, content)
		}
	}
	return nil
}

func canonicalizeLangs(doc *svg.Document) {
	for _, text := range doc.Find("text") {
		if lang := svg.Attr(text, "systemLanguage"); lang != "" {
			svg.SetAttr(text, "systemLanguage", langtag.NormalizeList(lang))
		}
	}
}

// wrapInSwitches guarantees every <text> lives inside a conditional group,
// synthesizing a <switch> at the text's position when needed.
func wrapInSwitches(doc *svg.Document) error {
	for _, text := range doc.Find("text") {
		parent := text.Parent
		if parent == nil || parent.Type != xmlquery.ElementNode {
			return structErr(ErrNoParentForText, text, "")
		}
		if parent.Data == "switch" {
			continue
		}
		sw := svg.NewElement("switch")
		svg.InsertBefore(text, sw)
		svg.RemoveNode(text)
		svg.AppendChild(sw, text)
	}
	return nil
}

// hoistStyles moves an inline style from a <text> to its parent <switch>.
// The generated language variants share the switch style; when several texts
// hoist conflicting styles the last write wins.
func hoistStyles(doc *svg.Document) {
	for _, text := range doc.Find("text") {
		style := svg.Attr(text, "style")
		if style == "" {
			continue
		}
		if parent := text.Parent; parent != nil && svg.IsElement(parent, "switch") {
			svg.SetAttr(parent, "style", style)
			svg.RemoveAttr(text, "style")
		}
	}
}

// normalizeSwitches validates switch children, verifies <text> children hold
// only <tspan> elements, expands comma-separated systemLanguage lists by
// cloning, and rejects duplicate tags among siblings.
func normalizeSwitches(doc *svg.Document) error {
	for _, sw := range doc.Find("switch") {
		for _, c := range svg.Children(sw) {
			switch c.Type {
			case xmlquery.ElementNode:
				if c.Data != "text" {
					return structErr(ErrSwitchChildNotText, c, c.Data)
				}
			case xmlquery.TextNode, xmlquery.CharDataNode:
				if strings.TrimSpace(c.Data) != "" {
					return structErr(ErrSwitchTextOutside, c, "")
				}
			}
		}

		for _, text := range svg.ChildElements(sw, "text") {
			for _, c := range svg.ChildElements(text, "") {
				if c.Data != "tspan" {
					return structErr(ErrNonTspanInsideText, c, c.Data)
				}
			}
		}

		// Expand multi-tag lists into one clone per tag.
		for _, text := range svg.ChildElements(sw, "text") {
			lang := svg.Attr(text, "systemLanguage")
			if lang == "" {
				continue
			}
			tags := langtag.SplitList(lang)
			seen := make(map[string]bool, len(tags))
			for _, tag := range tags {
				if seen[tag] {
					return structErr(ErrMultipleLangInText, text, tag)
				}
				seen[tag] = true
			}
			if len(tags) == 1 {
				continue
			}
			for _, tag := range tags {
				clone := svg.CloneNode(text)
				svg.SetAttr(clone, "systemLanguage", tag)
				svg.AppendChild(sw, clone)
			}
			svg.RemoveNode(text)
		}

		// After expansion every sibling must carry a distinct tag; the
		// untagged fallback counts as one distinct pseudo-tag.
		seen := make(map[string]bool)
		for _, text := range svg.ChildElements(sw, "text") {
			tag := svg.Attr(text, "systemLanguage")
			if tag == "" {
				tag = "fallback"
			}
			if seen[tag] {
				return structErr(ErrMultipleTextSameLang, sw, tag)
			}
			seen[tag] = true
		}
	}
	return nil
}

// ReorderSwitch sorts a switch's <text> children deterministically: tagged
// variants first, ordered by the numeric part of their reserved id (absent
// ids sort last) with the tag string as tiebreak, and the untagged fallback
// always last. The injector re-applies this after adding variants.
func ReorderSwitch(sw *xmlquery.Node) {
	texts := svg.ChildElements(sw, "text")
	if len(texts) < 2 {
		return
	}
	type entry struct {
		node     *xmlquery.Node
		fallback bool
		num      int
		tag      string
	}
	entries := make([]entry, len(texts))
	for i, t := range texts {
		tag := svg.Attr(t, "systemLanguage")
		num := orderSentinel
		if m := reservedNumRe.FindStringSubmatch(svg.Attr(t, "id")); m != nil {
			num = atoi(m[1])
		}
		entries[i] = entry{node: t, fallback: tag == "", num: num, tag: tag}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.fallback != b.fallback {
			return !a.fallback
		}
		if a.num != b.num {
			return a.num < b.num
		}
		return a.tag < b.tag
	})
	for _, e := range entries {
		svg.RemoveNode(e.node)
	}
	for _, e := range entries {
		svg.AppendChild(sw, e.node)
	}
}
