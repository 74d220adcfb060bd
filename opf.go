package epub

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// defaultVersion is assumed when the package element declares no version.
const defaultVersion = "2.0"

// parsePackage reads and decodes the package document, populating the
// metadata, manifest and spine.
func (b *Book) parsePackage() error {
	data, err := b.arc.Read(b.opfPath)
	if err != nil {
		return fmt.Errorf("epub: read package document %s: %w", b.opfPath, err)
	}

	doc, err := decodeXML(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPackage, err)
	}
	root := doc.Root()

	b.metadata.Version = defaultVersion
	if v := strings.TrimSpace(attrValue(root, "version")); v != "" {
		b.metadata.Version = v
	}

	b.manifest = make(map[string]*ManifestItem)

	// The spine may precede the manifest in document order, so spine
	// resolution only happens after the whole tree has been visited.
	var metadataEl, spineEl *etree.Element

	for _, child := range root.ChildElements() {
		switch strings.ToLower(child.Tag) {
		case "metadata":
			metadataEl = child
		case "manifest":
			b.parseManifest(child)
		case "spine":
			spineEl = child
		case "guide":
			// Recognised but not modelled.
		default:
			b.log.Debug("skipping unknown package element", zap.String("tag", child.Tag))
		}
	}

	b.buildHrefIndex()

	if metadataEl != nil {
		b.extractMetadata(metadataEl)
	}
	if b.metadata.Extra == nil {
		b.metadata.Extra = map[string]string{}
	}

	if spineEl != nil {
		b.buildSpine(spineEl)
	}

	return nil
}

// parseManifest collects the manifest items. Every attribute of an <item>
// is retained in its Properties map; hrefs are normalised to be relative to
// the archive root. Duplicate ids keep their first document position while
// the last declaration wins.
func (b *Book) parseManifest(manifestEl *etree.Element) {
	for _, child := range manifestEl.ChildElements() {
		if !strings.EqualFold(child.Tag, "item") {
			b.log.Debug("skipping unknown manifest element", zap.String("tag", child.Tag))
			continue
		}

		props := attrMap(child)
		id := strings.TrimSpace(props["id"])
		href := strings.TrimSpace(props["href"])
		if id == "" || href == "" {
			b.log.Debug("skipping manifest item without id or href")
			continue
		}
		props["href"] = b.normalizeHref(href)

		item := &ManifestItem{
			ID:         id,
			Href:       props["href"],
			MediaType:  strings.TrimSpace(props["media-type"]),
			Properties: props,
		}
		if _, exists := b.manifest[id]; !exists {
			b.manifestOrder = append(b.manifestOrder, id)
		}
		b.manifest[id] = item
	}
}

// normalizeHref prepends the package document directory to href unless the
// href already begins with it. The operation is idempotent and collapses no
// path segments.
func (b *Book) normalizeHref(href string) string {
	if b.opfDir == "" || href == "" {
		return href
	}
	if strings.HasPrefix(href, b.opfDir+"/") {
		return href
	}
	return b.opfDir + "/" + href
}

// buildHrefIndex builds the href lookups used by navigation merging and
// reference rewriting. Navigation merging matches hrefs exactly; the link
// rewriter ignores any fragment a manifest href itself carries, so it gets
// a second index keyed by the href's path component. Iterating in manifest
// document order keeps duplicate resolution deterministic: the last
// declaration wins.
func (b *Book) buildHrefIndex() {
	b.byHref = make(map[string]*ManifestItem, len(b.manifest))
	b.byHrefPath = make(map[string]*ManifestItem, len(b.manifest))
	for _, id := range b.manifestOrder {
		item := b.manifest[id]
		b.byHref[item.Href] = item
		// "" marks an unresolvable reference at lookup time, so it must
		// never be a key.
		if path, _, _ := strings.Cut(item.Href, "#"); path != "" {
			b.byHrefPath[path] = item
		}
	}
}

// buildSpine resolves the spine element against the completed manifest.
// Itemrefs without a manifest entry are skipped; duplicates are kept.
func (b *Book) buildSpine(spineEl *etree.Element) {
	if tocID := strings.TrimSpace(attrValue(spineEl, "toc")); tocID != "" {
		if item, ok := b.manifest[tocID]; ok {
			b.spine.TOCItem = item
		} else {
			b.warn(fmt.Sprintf("spine toc attribute %q has no manifest entry", tocID))
		}
	}

	for _, ref := range childrenNamed(spineEl, "itemref") {
		idref := strings.TrimSpace(attrValue(ref, "idref"))
		item, ok := b.manifest[idref]
		if !ok {
			b.log.Debug("skipping spine itemref without manifest entry", zap.String("idref", idref))
			continue
		}
		b.spine.Contents = append(b.spine.Contents, item)
	}
}
