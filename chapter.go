package epub

// Chapters returns the spine entries as Chapter handles in reading order.
// Each handle shares its manifest item with the manifest, spine and table
// of contents, so navigation titles merged during parsing show through.
func (b *Book) Chapters() []Chapter {
	chapters := make([]Chapter, 0, len(b.spine.Contents))
	for _, item := range b.spine.Contents {
		chapters = append(chapters, Chapter{ManifestItem: item, book: b})
	}
	return chapters
}

// Content returns the chapter's rewritten markup (see Book.GetDocument).
func (c Chapter) Content() (string, error) {
	if err := c.valid(); err != nil {
		return "", err
	}
	return c.book.GetDocument(c.ID)
}

// Raw returns the chapter's text without rewriting (see Book.GetDocumentRaw).
func (c Chapter) Raw() (string, error) {
	if err := c.valid(); err != nil {
		return "", err
	}
	return c.book.GetDocumentRaw(c.ID)
}

// Text extracts the chapter's plain text (see Book.GetText).
func (c Chapter) Text() (string, error) {
	if err := c.valid(); err != nil {
		return "", err
	}
	return c.book.GetText(c.ID)
}

// Markdown converts the chapter's rewritten markup to Markdown
// (see Book.GetMarkdown).
func (c Chapter) Markdown() (string, error) {
	if err := c.valid(); err != nil {
		return "", err
	}
	return c.book.GetMarkdown(c.ID)
}

// valid guards against zero-value handles.
func (c Chapter) valid() error {
	if c.book == nil || c.ManifestItem == nil {
		return ErrInvalidChapter
	}
	return nil
}
