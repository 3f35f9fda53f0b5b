// Package extract locates content items in scraped markup.
//
// A page is queried with a Cascade: an ordered list of strategies where the
// first one returning a non-empty selection wins. Each candidate node is then
// turned into an Outcome, either an accepted item or a skip reason.
package extract

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
)

// ReadabilityStrategy is the selector list entry that enables the readability fallback.
const ReadabilityStrategy = "@readability"

// Strategy finds candidate item nodes in a document. Find may return nil.
type Strategy struct {
	Name string
	Find func(doc *goquery.Document) *goquery.Selection
}

// Selector builds a strategy from a CSS selector.
func Selector(css string) Strategy {
	return Strategy{
		Name: css,
		Find: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(css)
		},
	}
}

// Readability runs the document through go-readability and returns the
// linked headings of the main content. It serves pages whose markup has no
// recognisable cards.
func Readability() Strategy {
	return Strategy{
		Name: ReadabilityStrategy,
		Find: func(doc *goquery.Document) *goquery.Selection {
			html, err := doc.Html()
			if err != nil {
				return nil
			}
			pageURL := doc.Url
			if pageURL == nil {
				pageURL = &url.URL{}
			}
			article, err := readability.FromReader(strings.NewReader(html), pageURL)
			if err != nil || article.Content == "" {
				return nil
			}
			content, err := goquery.NewDocumentFromReader(strings.NewReader(article.Content))
			if err != nil {
				return nil
			}
			return content.Find("h2 a[href], h3 a[href]")
		},
	}
}

type Cascade []Strategy

// BuildCascade maps configured selector strings to strategies, in order.
func BuildCascade(selectors []string) Cascade {
	c := make(Cascade, 0, len(selectors))
	for _, s := range selectors {
		s = strings.TrimSpace(s)
		switch s {
		case "":
			continue
		case ReadabilityStrategy:
			c = append(c, Readability())
		default:
			c = append(c, Selector(s))
		}
	}
	return c
}

// Run returns the first non-empty selection and the name of the strategy
// that produced it. It returns nil and "" when every strategy comes up empty.
func (c Cascade) Run(doc *goquery.Document) (*goquery.Selection, string) {
	for _, s := range c {
		sel := s.Find(doc)
		if sel != nil && sel.Length() > 0 {
			return sel, s.Name
		}
	}
	return nil, ""
}
