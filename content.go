package epub

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

// Media types accepted by the document operations.
const (
	mediaTypeXHTML = "application/xhtml+xml"
	mediaTypeSVG   = "image/svg+xml"
)

// lineSentinel temporarily replaces line breaks so the rewriting patterns
// below see a document as one logical line. It is restored afterwards.
const lineSentinel = "\x00"

// Rewriting patterns. They run on sentinel-folded text, so "." never has to
// cross a real line break.
var (
	bodyPattern    = regexp.MustCompile(`(?i)<body[^>]*?>(.*)</body[^>]*?>`)
	scriptPattern  = regexp.MustCompile(`(?i)<script[^>]*?>(.*?)</script[^>]*?>`)
	stylePattern   = regexp.MustCompile(`(?i)<style[^>]*?>(.*?)</style[^>]*?>`)
	handlerPattern = regexp.MustCompile(`(?i)(\s)(on\w+)(\s*=)`)
	srcPattern     = regexp.MustCompile(`(?i)(\ssrc\s*=\s*["']?)([^"'\s>]*?)(["'\s>])`)
	hrefPattern    = regexp.MustCompile(`(?i)(\shref\s*=\s*["']?)([^"'\s>]*?)(["'\s>])`)
)

// GetDocument returns the rewritten markup of a content document: the body
// contents with script and style blocks removed, inline event handlers
// defused, and image and link references rebased onto the configured
// virtual roots.
func (b *Book) GetDocument(id string) (string, error) {
	item, data, err := b.documentData(id)
	if err != nil {
		return "", err
	}
	return b.rewriteDocument(string(data), dirOf(item.Href)), nil
}

// GetDocumentRaw returns a content document's text without any rewriting,
// beyond stripping a UTF-8 BOM. The same media-type restriction as
// GetDocument applies.
func (b *Book) GetDocumentRaw(id string) (string, error) {
	_, data, err := b.documentData(id)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetRaw returns the raw bytes and media type of any manifest item.
func (b *Book) GetRaw(id string) ([]byte, string, error) {
	item, ok := b.manifest[id]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	data, err := b.itemData(item)
	if err != nil {
		return nil, "", err
	}
	return data, item.MediaType, nil
}

// GetImage returns the bytes and media type of an image manifest item.
// Non-image items are rejected with ErrUnsupportedMediaType.
func (b *Book) GetImage(id string) ([]byte, string, error) {
	item, ok := b.manifest[id]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	if !isImageMediaType(item.MediaType) {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedMediaType, item.MediaType)
	}
	data, err := b.itemData(item)
	if err != nil {
		return nil, "", err
	}
	return data, item.MediaType, nil
}

// GetText extracts the plain text of a content document. Block-level
// elements produce line breaks; script and style content is skipped.
func (b *Book) GetText(id string) (string, error) {
	_, data, err := b.documentData(id)
	if err != nil {
		return "", err
	}
	return extractText(data)
}

// GetMarkdown converts the rewritten markup of a content document (see
// GetDocument) to Markdown.
func (b *Book) GetMarkdown(id string) (string, error) {
	doc, err := b.GetDocument(id)
	if err != nil {
		return "", err
	}
	md, err := htmltomarkdown.ConvertString(doc)
	if err != nil {
		return "", fmt.Errorf("epub: convert %s to markdown: %w", id, err)
	}
	return md, nil
}

// documentData fetches the BOM-stripped bytes of a document-typed manifest
// item. Only XHTML and SVG resources qualify.
func (b *Book) documentData(id string) (*ManifestItem, []byte, error) {
	item, ok := b.manifest[id]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %q", ErrUnknownID, id)
	}
	if item.MediaType != mediaTypeXHTML && item.MediaType != mediaTypeSVG {
		return nil, nil, fmt.Errorf("%w: %s", ErrUnsupportedMediaType, item.MediaType)
	}
	data, err := b.itemData(item)
	if err != nil {
		return nil, nil, err
	}
	return item, stripBOM(data), nil
}

// itemData reads a manifest item's archive entry.
func (b *Book) itemData(item *ManifestItem) ([]byte, error) {
	data, err := b.readEntry(item.Href)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, item.Href)
		}
		return nil, fmt.Errorf("epub: read %s: %w", item.Href, err)
	}
	return data, nil
}

// rewriteDocument runs the sanitising pipeline over document text. docDir
// is the document's containing directory, used to resolve relative
// references before matching them against the manifest.
func (b *Book) rewriteDocument(text, docDir string) string {
	// Fold line breaks so the patterns below see one logical line.
	text = strings.ReplaceAll(text, "\r\n", lineSentinel)
	text = strings.ReplaceAll(text, "\n", lineSentinel)

	// Keep only the body contents. Documents without a body pass whole.
	if m := bodyPattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	}

	text = scriptPattern.ReplaceAllString(text, "")
	text = stylePattern.ReplaceAllString(text, "")

	// Defuse inline event handlers: onclick= becomes skip-onclick=.
	text = handlerPattern.ReplaceAllString(text, "${1}skip-${2}${3}")

	// Image references must match a manifest href exactly.
	text = srcPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := srcPattern.FindStringSubmatch(match)
		resolved := joinRelative(docDir, m[2])
		if item, ok := b.byHref[resolved]; ok {
			return m[1] + b.imageRoot + item.ID + "/" + resolved + m[3]
		}
		// References outside the manifest lose their value.
		return m[1] + m[3]
	})

	// Link references match by href path component: a fragment on the
	// manifest href itself never blocks the match, and the rewritten
	// target carries the resolved document-side path.
	text = hrefPattern.ReplaceAllStringFunc(text, func(match string) string {
		m := hrefPattern.FindStringSubmatch(match)
		rawPath, fragment, hasFragment := strings.Cut(m[2], "#")
		resolved := joinRelative(docDir, rawPath)
		item, ok := b.byHrefPath[resolved]
		if !ok {
			// References outside the manifest stay untouched.
			return match
		}
		target := b.linkRoot + item.ID + "/" + resolved
		if hasFragment {
			target += "#" + fragment
		}
		return m[1] + target + m[3]
	})

	text = strings.ReplaceAll(text, lineSentinel, "\n")
	return strings.TrimSpace(text)
}
