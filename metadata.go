package epub

import (
	"strings"

	"github.com/beevik/etree"
)

// extractMetadata populates b.metadata from the metadata element, keyed on
// lowercased local element names so that dc: and opf: prefixes never
// matter. Fixed Dublin Core fields keep the first non-empty value; the open
// Extra map keeps the last.
func (b *Book) extractMetadata(metadataEl *etree.Element) {
	md := &b.metadata
	md.Extra = map[string]string{}

	for _, child := range metadataEl.ChildElements() {
		text := strings.TrimSpace(child.Text())
		switch strings.ToLower(child.Tag) {
		case "title":
			setFirst(&md.Title, text)
		case "creator":
			if md.Creator == "" && text != "" {
				md.Creator = text
				md.CreatorFileAs = text
				if fileAs := strings.TrimSpace(attrValue(child, "file-as")); fileAs != "" {
					md.CreatorFileAs = fileAs
				}
			}
		case "publisher":
			setFirst(&md.Publisher, text)
		case "language":
			setFirst(&md.Language, text)
		case "subject":
			setFirst(&md.Subject, text)
		case "description":
			setFirst(&md.Description, text)
		case "date":
			setFirst(&md.Date, text)
		case "rights":
			setFirst(&md.Rights, text)
		case "source":
			setFirst(&md.Source, text)
		case "identifier":
			b.extractIdentifier(child, text)
		case "meta":
			b.extractMeta(child, text)
		default:
			if key := strings.ToLower(child.Tag); key != "" && text != "" {
				if _, exists := md.Extra[key]; !exists {
					md.Extra[key] = text
				}
			}
		}
	}
}

// extractIdentifier maps dc:identifier elements onto ISBN and UUID. An
// identifier with an ISBN scheme attribute wins the ISBN field; one whose
// id attribute mentions "uuid" wins the UUID field, with any urn:uuid:
// prefix stripped and the remainder uppercased.
func (b *Book) extractIdentifier(el *etree.Element, text string) {
	md := &b.metadata

	if scheme := strings.TrimSpace(attrValue(el, "scheme")); strings.EqualFold(scheme, "isbn") {
		setFirst(&md.ISBN, text)
		return
	}

	if id := attrValue(el, "id"); strings.Contains(strings.ToLower(id), "uuid") {
		if md.UUID == "" && text != "" {
			md.UUID = strings.ToUpper(strings.TrimPrefix(text, "urn:uuid:"))
		}
	}
}

// extractMeta records <meta> pairs into the Extra map: a name/content
// attribute pair, or a property attribute combined with the element text.
// The last value for a key wins.
func (b *Book) extractMeta(el *etree.Element, text string) {
	if name := strings.TrimSpace(attrValue(el, "name")); name != "" {
		b.metadata.Extra[name] = strings.TrimSpace(attrValue(el, "content"))
		return
	}
	if prop := strings.TrimSpace(attrValue(el, "property")); prop != "" && text != "" {
		b.metadata.Extra[prop] = text
	}
}

// setFirst assigns value to dst only when dst is still empty and value is
// not.
func setFirst(dst *string, value string) {
	if *dst == "" && value != "" {
		*dst = value
	}
}
