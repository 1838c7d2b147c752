// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tei

import (
	"regexp"
	"strings"

	"github.com/esukhia/derge-tei/pkg/types"
)

var (
	// markupChars are removed outright; they are never escaped.
	markupChars = strings.NewReplacer("&", "", "#", "")

	errorBrackets = strings.NewReplacer("[", "", "]", "")

	crossRefRE = regexp.MustCompile(`\{D([^}]+)\}`)

	// errorPairRE matches a flat "(reading,correction)" pair. Nested or
	// comma-bearing groups are deliberately not handled.
	errorPairRE = regexp.MustCompile(`\(([^),]*),([^),]*)\)`)
)

// CrossRefFunc renders the token of a {D<token>} cross-reference marker.
type CrossRefFunc func(token string) string

// SuppressCrossRef drops the marker from the output text.
func SuppressCrossRef(string) string {
	return ""
}

// MilestoneCrossRef renders the marker as a text-unit milestone.
func MilestoneCrossRef(token string) string {
	return `<tei:milestone unit="text" toh="` + token + `"/>`
}

// CrossRefFor returns the renderer for mode. Unknown modes suppress.
func CrossRefFor(mode types.CrossRefMode) CrossRefFunc {
	if mode == types.CrossRefMilestone {
		return MilestoneCrossRef
	}
	return SuppressCrossRef
}

// Normalizer applies the inline cleanup rules to the text of a source line.
type Normalizer struct {
	// FixErrors keeps the correction of an (A,B) pair instead of the reading.
	FixErrors bool

	// KeepErrorIndications leaves [ and ] in the text.
	KeepErrorIndications bool

	// CrossRef renders {D...} markers; nil suppresses them.
	CrossRef CrossRefFunc
}

// NewNormalizer builds a Normalizer from run options.
func NewNormalizer(opts types.TextOptions) *Normalizer {
	return &Normalizer{
		FixErrors:            opts.FixErrors,
		KeepErrorIndications: opts.KeepErrorIndications,
		CrossRef:             CrossRefFor(opts.CrossRefMode),
	}
}

// Normalize returns text with markup characters stripped, cross-references
// rendered, uncertainty brackets optionally removed and error pairs resolved,
// in that order.
func (n *Normalizer) Normalize(text string) string {
	text = StripMarkupChars(text)

	if strings.Contains(text, "{D") {
		render := n.CrossRef
		if render == nil {
			render = SuppressCrossRef
		}
		text = crossRefRE.ReplaceAllStringFunc(text, func(m string) string {
			return render(crossRefRE.FindStringSubmatch(m)[1])
		})
	}

	if !n.KeepErrorIndications {
		text = errorBrackets.Replace(text)
	}

	return n.ResolveErrorPairs(text)
}

// ResolveErrorPairs rewrites every flat "(A,B)" to A, or to B when FixErrors is set.
func (n *Normalizer) ResolveErrorPairs(text string) string {
	if !strings.Contains(text, "(") {
		return text
	}
	if n.FixErrors {
		return errorPairRE.ReplaceAllString(text, "${2}")
	}
	return errorPairRE.ReplaceAllString(text, "${1}")
}

// StripMarkupChars removes '&' and '#'.
func StripMarkupChars(text string) string {
	return markupChars.Replace(text)
}
