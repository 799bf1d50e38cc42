package canvas

import (
	"regexp"
	"strings"
)

// PasteMaxIdeaLength caps how much pasted plain text becomes an idea
// card without asking.
const PasteMaxIdeaLength = 500

var urlPattern = regexp.MustCompile(`^https?://`)

// PasteAction says what a clipboard paste should do.
type PasteAction int

const (
	// PasteIgnore: nothing useful in the clipboard.
	PasteIgnore PasteAction = iota
	// PasteCreateIdea: auto-create an idea item at a spiral-placed
	// position, no confirmation needed.
	PasteCreateIdea
	// PastePrefillLink: open the creation modal prefilled as a link and
	// wait for explicit confirmation. URLs are never persisted silently.
	PastePrefillLink
)

// ClassifyPaste decides how pasted text is handled. URL-shaped text
// always takes the prefill path regardless of length.
func ClassifyPaste(text string) (PasteAction, string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return PasteIgnore, ""
	}
	if urlPattern.MatchString(text) {
		return PastePrefillLink, text
	}
	if len(text) < PasteMaxIdeaLength {
		return PasteCreateIdea, text
	}
	return PasteIgnore, ""
}
