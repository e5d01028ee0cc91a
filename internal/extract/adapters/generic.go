package adapters

import (
	"github.com/ckwokli/pws/internal/extract"
	"golang.org/x/net/html"
)

// maxGenericRunes caps text taken from an ordinary page
const maxGenericRunes = 20000

// GenericAdapter is the fallback adapter for unknown domains
type GenericAdapter struct {
	BaseAdapter
}

// NewGenericAdapter creates a new generic adapter
func NewGenericAdapter() *GenericAdapter {
	return &GenericAdapter{}
}

// Name returns the adapter name
func (a *GenericAdapter) Name() string {
	return "generic"
}

// CanHandle always returns true (fallback adapter)
func (a *GenericAdapter) CanHandle(url string, contentType string) bool {
	return true
}

// ExtractText returns the visible text of the first main, article or body
// element, with scripts and page chrome removed.
func (a *GenericAdapter) ExtractText(doc *html.Node, url string) string {
	for _, tag := range []string{"main", "article", "body"} {
		node := a.FindFirst(doc, isElement(tag))
		if node == nil {
			continue
		}
		if text := extract.VisibleText(node); text != "" {
			return truncateRunes(text, maxGenericRunes)
		}
	}
	return ""
}
