package epub

import (
	"strings"

	"golang.org/x/text/language"
)

// Metadata holds the Dublin Core and other metadata extracted from the
// package document. It is populated while the book is opened and never
// modified afterwards.
type Metadata struct {
	// Version is the ePub specification version (e.g., "2.0", "3.0").
	// Defaults to "2.0" when the package document declares none.
	Version string

	// Title is the first non-empty dc:title value.
	Title string

	// Creator is the first non-empty dc:creator value.
	Creator string

	// CreatorFileAs is the opf:file-as attribute of the creator
	// (e.g., "Dickens, Charles"). Defaults to the creator text.
	CreatorFileAs string

	// Publisher is the dc:publisher value.
	Publisher string

	// Language is the dc:language value (BCP 47 tag, e.g., "en", "zh-CN").
	Language string

	// Subject is the first non-empty dc:subject value.
	Subject string

	// Description is the dc:description value.
	Description string

	// Date is the dc:date value (publication date as raw string).
	Date string

	// Rights is the dc:rights value.
	Rights string

	// Source is the dc:source value.
	Source string

	// ISBN is the dc:identifier carrying an ISBN scheme attribute.
	ISBN string

	// UUID is the dc:identifier whose id attribute mentions "uuid", with any
	// "urn:uuid:" prefix stripped and the remainder uppercased.
	UUID string

	// Extra collects <meta> pairs (name/content attributes or property
	// attribute plus element text) and unrecognised metadata elements.
	// For repeated keys the last value wins.
	Extra map[string]string
}

// LanguageTag parses Language as a BCP 47 tag. It returns language.Und when
// Language is empty or does not parse.
func (m Metadata) LanguageTag() language.Tag {
	tag, err := language.Parse(strings.TrimSpace(m.Language))
	if err != nil {
		return language.Und
	}
	return tag
}

// ManifestItem describes a single resource declared in the package manifest.
//
// Spine entries and merged table-of-contents entries share the *ManifestItem
// values stored in the manifest, so a title attached during navigation
// parsing is visible through every view of the item.
type ManifestItem struct {
	// ID is the unique identifier of this manifest item.
	ID string

	// Href is the resource path inside the archive. During parsing it is
	// normalised to be relative to the archive root rather than the package
	// document directory.
	Href string

	// MediaType is the MIME type of the resource.
	MediaType string

	// Properties holds every attribute of the manifest <item> element keyed
	// by attribute name; namespaced attributes use "prefix:name" keys.
	Properties map[string]string

	// Title is the navigation label for this item. Populated only when a
	// table-of-contents entry references the item.
	Title string

	// Order is the play order of the navigation entry referencing this item.
	Order int

	// Level is the nesting depth of the navigation entry (0 for top level).
	Level int
}

// HasProperty reports whether the item's properties attribute contains the
// given space-separated token (e.g., "nav", "cover-image").
func (m *ManifestItem) HasProperty(name string) bool {
	if m == nil {
		return false
	}
	for _, tok := range strings.Fields(m.Properties["properties"]) {
		if tok == name {
			return true
		}
	}
	return false
}

// Spine is the linear reading order of the book.
type Spine struct {
	// TOCItem points at the manifest item holding the NCX navigation
	// document, resolved from the spine's toc attribute. Nil when the spine
	// declares no resolvable toc reference.
	TOCItem *ManifestItem

	// Contents lists the spine itemrefs in document order. Each element is
	// the corresponding manifest item; itemrefs whose idref has no manifest
	// entry are skipped. Duplicates are preserved.
	Contents []*ManifestItem
}

// Chapter is a lightweight view of one spine entry with methods for content
// access. Content is read from the archive on demand.
type Chapter struct {
	// ManifestItem is the manifest entry backing this chapter. It is the
	// same pointer stored in the manifest, spine and table of contents.
	*ManifestItem

	// book is the parent Book used for content access.
	book *Book
}

// CoverImage holds the detected cover image data.
type CoverImage struct {
	// Path is the archive-internal path to the cover image file.
	Path string

	// MediaType is the MIME type of the cover image (e.g., "image/jpeg").
	MediaType string

	// Data is the raw image bytes.
	Data []byte
}
