package epub

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// maxTOCDepth caps navigation nesting. Nav points deeper than this
// contribute no entries.
const maxTOCDepth = 7

// resolveTOC flattens the navigation tree referenced by the spine. Books
// whose spine names no NCX fall back to the ePub 3 nav document; books with
// neither simply end up with an empty table of contents.
func (b *Book) resolveTOC() error {
	if b.spine.TOCItem == nil {
		b.resolveNavDoc()
		return nil
	}

	data, err := b.readEntry(b.spine.TOCItem.Href)
	if err != nil {
		return fmt.Errorf("epub: read navigation document %s: %w", b.spine.TOCItem.Href, err)
	}

	doc, err := decodeXML(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedNav, err)
	}

	navMap := childNamed(doc.Root(), "navMap")
	if navMap == nil {
		b.log.Debug("navigation document has no navMap")
		return nil
	}

	b.toc = b.walkNavMap(childrenNamed(navMap, "navPoint"), dirOf(b.spine.TOCItem.Href), 0)
	return nil
}

// walkNavMap converts navPoint elements into flat table-of-contents
// entries, each parent directly before its children. Entries whose resolved
// src matches a manifest href reuse the shared manifest item, which
// receives the navigation title, order and level; other entries become
// standalone items. Nav points without a label produce no entry, but their
// children are still visited.
func (b *Book) walkNavMap(points []*etree.Element, ncxDir string, level int) []*ManifestItem {
	if level > maxTOCDepth {
		return nil
	}

	var entries []*ManifestItem
	for _, np := range points {
		if label := childNamed(np, "navLabel"); label != nil {
			title := ""
			if textEl := childNamed(label, "text"); textEl != nil {
				title = strings.TrimSpace(textEl.Text())
			}

			order := 0
			if po := strings.TrimSpace(attrValue(np, "playOrder")); po != "" {
				if n, err := strconv.Atoi(po); err == nil {
					order = n
				}
			}

			href := ""
			if content := childNamed(np, "content"); content != nil {
				if src := strings.TrimSpace(attrValue(content, "src")); src != "" {
					href = joinRelative(ncxDir, src)
				}
			}

			if href != "" {
				if item, ok := b.byHref[href]; ok {
					item.Title = title
					item.Order = order
					item.Level = level
					entries = append(entries, item)
				} else {
					entries = append(entries, &ManifestItem{
						ID:    strings.TrimSpace(attrValue(np, "id")),
						Href:  href,
						Title: title,
						Order: order,
						Level: level,
					})
				}
			}
		}

		if children := childrenNamed(np, "navPoint"); len(children) > 0 {
			entries = append(entries, b.walkNavMap(children, ncxDir, level+1)...)
		}
	}
	return entries
}
