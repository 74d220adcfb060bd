// Package epub provides a pure-Go library for reading ePub 2 and ePub 3 files.
//
// It validates the container structure, extracts metadata (Dublin Core plus
// an open meta map), builds the manifest and spine, flattens the navigation
// tree into a level-annotated table of contents, and serves content
// documents through a sanitising rewrite pass. DRM-protected files are
// detected and rejected with [ErrDRMProtected].
//
// # Opening an ePub
//
// Use [Open] to open a file by path, [NewReader] to read from an
// [io.ReaderAt], or [NewFromArchive] for any other entry source:
//
//	book, err := epub.Open("book.epub")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer book.Close()
//
// All parsing happens up front. The returned [Book] is immutable and safe
// for concurrent use by multiple goroutines.
//
// # Metadata
//
// The [Book.Metadata] method returns a [Metadata] struct with title,
// creator, language, ISBN/UUID identifiers, publisher, date, description
// and more; unrecognised <meta> pairs land in the Extra map:
//
//	md := book.Metadata()
//	fmt.Println(md.Title, md.Creator)
//
// # Manifest, Spine and Table of Contents
//
// [Book.Manifest] returns the declared resources keyed by id, [Book.Spine]
// the linear reading order, and [Book.TOC] a flat slice of entries whose
// Level field expresses nesting. The three views share their
// [ManifestItem] values: a title attached while the navigation document is
// parsed is visible through every view of the same item.
//
//	for _, item := range book.TOC() {
//	    fmt.Println(strings.Repeat("  ", item.Level), item.Title, item.Href)
//	}
//
// # Content Documents
//
// [Book.GetDocument] returns a chapter's markup ready for embedding: the
// body contents with scripts and styles removed, inline event handlers
// renamed with a "skip-" prefix, image references rebased under the image
// root ("/images/<id>/<path>" by default) and internal links under the link
// root ("/links/<id>/<path>"). The roots are configurable via
// [WithImageRoot] and [WithLinkRoot]. [Book.GetDocumentRaw],
// [Book.GetText] and [Book.GetMarkdown] return the unmodified text, the
// plain text and a Markdown rendering; [Book.GetImage] and [Book.GetRaw]
// fetch resource bytes. [Book.Chapters] wraps the spine in lightweight
// handles over the same operations.
//
// # Cover Image
//
// [Book.GetCover] attempts multiple strategies (ePub 3 cover-image
// property, ePub 2 meta reference, manifest heuristic, first spine
// document) to locate the cover:
//
//	cover, err := book.GetCover()
//	if err == nil {
//	    os.WriteFile("cover.jpg", cover.Data, 0644)
//	}
//
// # Error Handling
//
// The package defines sentinel errors for each failure class, all
// matchable with errors.Is: container problems ([ErrMissingMimetype],
// [ErrUnsupportedMimetype], [ErrMissingContainer], [ErrMalformedContainer],
// [ErrNoRootfile], [ErrRootfileNotFound]), decode failures
// ([ErrMalformedPackage], [ErrMalformedNav]), lookup failures
// ([ErrUnknownID], [ErrFileNotFound]), type gates
// ([ErrUnsupportedMediaType]) and rights management ([ErrDRMProtected]).
//
// If no table of contents is present, [Book.TOC] returns an empty slice
// and [Book.HasTOC] returns false.
package epub
