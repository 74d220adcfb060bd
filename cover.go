package epub

import (
	"bytes"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// GetCover detects and returns the cover image using multiple strategies.
// Strategies are tried in priority order:
//  1. ePub 3 manifest item with a "cover-image" property
//  2. ePub 2 <meta name="cover" content="ID"/> → manifest lookup
//  3. Manifest item whose ID or href contains "cover" with image/* media type
//  4. First spine document → first <img>
//
// Returns ErrNoCover if no strategy succeeds.
func (b *Book) GetCover() (CoverImage, error) {
	if item := b.coverFromProperties(); item != nil {
		return b.loadCoverImage(item)
	}
	if item := b.coverFromMeta(); item != nil {
		return b.loadCoverImage(item)
	}
	if item := b.coverFromHeuristic(); item != nil {
		return b.loadCoverImage(item)
	}
	if item := b.coverFromFirstSpine(); item != nil {
		return b.loadCoverImage(item)
	}
	return CoverImage{}, ErrNoCover
}

// coverFromProperties searches the manifest in document order for an item
// carrying the "cover-image" property (ePub 3).
func (b *Book) coverFromProperties() *ManifestItem {
	for _, id := range b.manifestOrder {
		if item := b.manifest[id]; item.HasProperty("cover-image") {
			return item
		}
	}
	return nil
}

// coverFromMeta resolves the <meta name="cover" content="ID"/> reference
// (ePub 2). An image item is returned directly; a non-image item is treated
// as an XHTML cover page whose first image is looked up in the manifest.
func (b *Book) coverFromMeta() *ManifestItem {
	coverID := strings.TrimSpace(b.metadata.Extra["cover"])
	if coverID == "" {
		return nil
	}
	item, ok := b.manifest[coverID]
	if !ok {
		return nil
	}
	if isImageMediaType(item.MediaType) {
		return item
	}
	return b.imageFromPage(item.Href)
}

// coverFromHeuristic searches the manifest in document order for an item
// whose ID or href contains "cover" (case-insensitive) with an image media
// type.
func (b *Book) coverFromHeuristic() *ManifestItem {
	for _, id := range b.manifestOrder {
		item := b.manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if containsFold(item.ID, "cover") || containsFold(item.Href, "cover") {
			return item
		}
	}
	return nil
}

// coverFromFirstSpine extracts the first image from the first spine
// document.
func (b *Book) coverFromFirstSpine() *ManifestItem {
	if len(b.spine.Contents) == 0 {
		return nil
	}
	return b.imageFromPage(b.spine.Contents[0].Href)
}

// imageFromPage reads an XHTML page and resolves its first image reference
// against the manifest.
func (b *Book) imageFromPage(href string) *ManifestItem {
	data, err := b.readEntry(href)
	if err != nil {
		return nil
	}
	imgPath := findFirstImage(data, dirOf(href))
	if imgPath == "" {
		return nil
	}
	return b.imageByHref(imgPath)
}

// imageByHref resolves an archive path to an image manifest item, falling
// back to a case-insensitive scan.
func (b *Book) imageByHref(p string) *ManifestItem {
	if item, ok := b.byHref[p]; ok && isImageMediaType(item.MediaType) {
		return item
	}
	lower := strings.ToLower(p)
	for _, id := range b.manifestOrder {
		item := b.manifest[id]
		if isImageMediaType(item.MediaType) && strings.ToLower(item.Href) == lower {
			return item
		}
	}
	return nil
}

// loadCoverImage reads the image data from the archive and constructs a
// CoverImage.
func (b *Book) loadCoverImage(item *ManifestItem) (CoverImage, error) {
	data, err := b.readEntry(item.Href)
	if err != nil {
		return CoverImage{}, err
	}
	return CoverImage{
		Path:      item.Href,
		MediaType: item.MediaType,
		Data:      data,
	}, nil
}

// findFirstImage scans HTML data and returns the resolved archive path of
// the first <img> src (or SVG <image> href). Empty when the page has no
// image. baseDir is the containing directory of the HTML file, used to
// resolve relative references.
func findFirstImage(htmlData []byte, baseDir string) string {
	tokenizer := html.NewTokenizer(bytes.NewReader(htmlData))
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return ""
		case html.StartTagToken, html.SelfClosingTagToken:
			tn, hasAttr := tokenizer.TagName()
			a := atom.Lookup(tn)
			if !hasAttr || (a != atom.Img && a != atom.Image) {
				continue
			}
			for {
				key, val, more := tokenizer.TagAttr()
				k := string(key)
				isRef := (a == atom.Img && k == "src") ||
					(a == atom.Image && (k == "href" || k == "xlink:href"))
				if isRef && len(val) > 0 {
					return joinRelative(baseDir, string(val))
				}
				if !more {
					break
				}
			}
		}
	}
}

// isImageMediaType returns true if the media type starts with "image/".
func isImageMediaType(mediaType string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "image/")
}

// containsFold reports whether s contains substr, case-insensitively.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
