package sync

import "strings"

// TitleExtractor derives the comparable core of an event summary.
//
// Reference-feed summaries embed the lecture name between a long
// administrative preamble and a trailing signature block, e.g.
//
//	"Program: ... Laboratoriemedicin vår T3 [BMA401 VT25] sign: abc"
//
// The anchor keyword marks the start of the stable core and the delimiter
// tokens mark where the signature/annotation tail begins.
type TitleExtractor struct {
	// Anchor is the keyword that starts the core title, matched
	// case-insensitively as a substring of the normalized summary.
	Anchor string
	// Delimiters are tokens that terminate the core title ("sign:", "moment:").
	Delimiters []string
}

// DefaultDelimiters are the delimiter tokens used when none are configured.
var DefaultDelimiters = []string{"sign:", "moment:"}

// CoreTitle extracts the core lecture title from a raw summary.
//
// The summary is normalized first; if the anchor is found, the window from
// the anchor to the earliest delimiter (or end of string) is returned.
// Without an anchor hit the summary is returned merely trimmed, so that
// feeds without the administrative wrapping still compare on full titles.
func (x TitleExtractor) CoreTitle(summary string) string {
	clean := Normalize(summary)
	anchor := strings.ToLower(x.Anchor)

	idx := -1
	if anchor != "" {
		idx = strings.Index(clean, anchor)
	}
	if idx == -1 {
		return strings.TrimSpace(summary)
	}

	sub := clean[idx:]

	delims := x.Delimiters
	if len(delims) == 0 {
		delims = DefaultDelimiters
	}
	cut := -1
	for _, d := range delims {
		if i := strings.Index(sub, strings.ToLower(d)); i != -1 && (cut == -1 || i < cut) {
			cut = i
		}
	}
	if cut != -1 {
		sub = sub[:cut]
	}
	return strings.TrimSpace(sub)
}
