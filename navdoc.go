package epub

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// resolveNavDoc falls back to the ePub 3 navigation document when the spine
// references no NCX. Failures on this path degrade to warnings; the book
// simply has no table of contents.
func (b *Book) resolveNavDoc() {
	navItem := b.findNavItem()
	if navItem == nil {
		return
	}

	data, err := b.readEntry(navItem.Href)
	if err != nil {
		b.warn(fmt.Sprintf("cannot read nav document %s: %v", navItem.Href, err))
		return
	}

	doc, err := html.Parse(bytes.NewReader(stripBOM(data)))
	if err != nil {
		b.warn(fmt.Sprintf("cannot parse nav document %s: %v", navItem.Href, err))
		return
	}

	navDir := dirOf(navItem.Href)
	next := 1
	for _, nav := range findNavElements(doc) {
		switch {
		case hasEpubType(nav, "toc") && b.toc == nil:
			if ol := findFirstElement(nav, atom.Ol); ol != nil {
				b.toc = b.walkNavList(ol, navDir, 0, &next)
			}
		case hasEpubType(nav, "landmarks") && b.landmarks == nil:
			if ol := findFirstElement(nav, atom.Ol); ol != nil {
				b.landmarks = b.walkNavList(ol, navDir, 0, &next)
			}
		}
	}
}

// findNavItem returns the first manifest item carrying the "nav" property,
// in manifest document order.
func (b *Book) findNavItem() *ManifestItem {
	for _, id := range b.manifestOrder {
		if item := b.manifest[id]; item.HasProperty("nav") {
			return item
		}
	}
	return nil
}

// walkNavList flattens an <ol> into entries with the same merge semantics
// and depth cap as the NCX walk. Play order is assigned positionally via
// next, since nav documents carry no playOrder attribute. List items
// without a link produce no entry, but nested lists are still visited.
func (b *Book) walkNavList(ol *html.Node, navDir string, level int, next *int) []*ManifestItem {
	if level > maxTOCDepth {
		return nil
	}

	var entries []*ManifestItem
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.DataAtom != atom.Li {
			continue
		}

		title, href := "", ""
		var nested *html.Node
		for c := li.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			switch c.DataAtom {
			case atom.A:
				// Per the nav document model each li has at most one <a>.
				if href == "" {
					if raw := strings.TrimSpace(htmlAttr(c, "href")); raw != "" {
						href = joinRelative(navDir, raw)
					}
					title = strings.TrimSpace(nodeText(c))
				}
			case atom.Span:
				if title == "" {
					title = strings.TrimSpace(nodeText(c))
				}
			case atom.Ol:
				if nested == nil {
					nested = c
				}
			}
		}

		if href != "" {
			order := *next
			*next++
			if item, ok := b.byHref[href]; ok {
				item.Title = title
				item.Order = order
				item.Level = level
				entries = append(entries, item)
			} else {
				entries = append(entries, &ManifestItem{
					ID:    strings.TrimSpace(htmlAttr(li, "id")),
					Href:  href,
					Title: title,
					Order: order,
					Level: level,
				})
			}
		}

		if nested != nil {
			entries = append(entries, b.walkNavList(nested, navDir, level+1, next)...)
		}
	}
	return entries
}

// findNavElements collects every <nav> element in document order.
func findNavElements(doc *html.Node) []*html.Node {
	var navs []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Nav {
			navs = append(navs, n)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return navs
}

// hasEpubType checks whether n has an epub:type attribute containing the
// given space-separated token.
func hasEpubType(n *html.Node, typeName string) bool {
	for _, t := range strings.Fields(htmlAttr(n, "epub:type")) {
		if t == typeName {
			return true
		}
	}
	return false
}

// htmlAttr returns the value of the attribute with the given key on n.
func htmlAttr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// findFirstElement performs a depth-first search for the first descendant
// element with the given tag.
func findFirstElement(n *html.Node, a atom.Atom) *html.Node {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == a {
			return c
		}
		if found := findFirstElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

// nodeText recursively collects the text content of a node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(nodeText(c))
	}
	return sb.String()
}
