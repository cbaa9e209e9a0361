package prepare

import (
	"github.com/antchfx/xmlquery"
)

// ErrorCode identifies a class of structural violation that makes a document
// unsuitable for translation.
type ErrorCode string

const (
	// ErrNoDocElement means the document has no root element.
	ErrNoDocElement ErrorCode = "no-doc-element"
	// ErrContainsTref means a legacy <tref> reference element is present.
	ErrContainsTref ErrorCode = "contains-tref"
	// ErrCSSTooComplex means an inline stylesheet referencing ids does not
	// match the narrow selector{declarations} grammar.
	ErrCSSTooComplex ErrorCode = "css-too-complex"
	// ErrCSSHasIDs means a syntactically simple stylesheet still uses an id
	// selector. Translation rewrites change and clone ids, so id-scoped
	// styling cannot be kept stable.
	ErrCSSHasIDs ErrorCode = "css-has-ids"
	// ErrNestedTspans means a <tspan> has element children.
	ErrNestedTspans ErrorCode = "nested-tspans-not-supported"
	// ErrInvalidNodeID means an id contains '|' or '/'.
	ErrInvalidNodeID ErrorCode = "invalid-node-id"
	// ErrTextContainsDollar means a text holds a $<digits> placeholder,
	// which is owned by an external substitution mechanism.
	ErrTextContainsDollar ErrorCode = "text-contains-dollar"
	// ErrNoParentForText means a <text> has no parent element to hold a
	// synthesized <switch>.
	ErrNoParentForText ErrorCode = "no-parent-for-text"
	// ErrNonTspanInsideText means a <text> has an element child that is not
	// a <tspan>.
	ErrNonTspanInsideText ErrorCode = "non-tspan-inside-text"
	// ErrSwitchChildNotText means a <switch> has a direct element child that
	// is not a <text>.
	ErrSwitchChildNotText ErrorCode = "switch-child-not-text"
	// ErrSwitchTextOutside means a <switch> holds raw text outside any
	// <text> child.
	ErrSwitchTextOutside ErrorCode = "switch-text-content-outside-text"
	// ErrMultipleLangInText means one systemLanguage list names the same
	// tag twice.
	ErrMultipleLangInText ErrorCode = "multiple-lang-in-text"
	// ErrMultipleTextSameLang means two sibling <text> elements carry the
	// same tag (the untagged fallback counts as one tag).
	ErrMultipleTextSameLang ErrorCode = "multiple-text-same-lang"
)

// StructureError reports a structural violation. Code is machine-readable,
// Node points at the offending node for diagnostics, and Extra carries
// optional context such as the duplicate tag or the invalid id.
type StructureError struct {
	Code  ErrorCode
	Node  *xmlquery.Node
	Extra string
}

func (e *StructureError) Error() string {
	if e.Extra != "" {
		return string(e.Code) + ": " + e.Extra
	}
	return string(e.Code)
}

func structErr(code ErrorCode, node *xmlquery.Node, extra string) error {
	return &StructureError{Code: code, Node: node, Extra: extra}
}
