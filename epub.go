package epub

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
)

// Default virtual roots prepended to rewritten resource references.
const (
	defaultImageRoot = "/images/"
	defaultLinkRoot  = "/links/"
)

// Book is the main public API type for reading ePub files.
// Use Open, NewReader or NewFromArchive to create a Book instance.
//
// All parsing happens sequentially while the Book is constructed. The
// returned Book is read-only and safe for concurrent use by multiple
// goroutines.
type Book struct {
	arc    Archive
	closer io.Closer // non-nil only when created via Open()
	log    *zap.Logger

	imageRoot string
	linkRoot  string

	entryExact map[string]string // exact entry-name index
	entryLower map[string]string // lowercase entry-name index

	opfPath string
	opfDir  string // "" when the package document sits at the archive root

	metadata      Metadata
	manifest      map[string]*ManifestItem
	manifestOrder []string // manifest ids in document order
	byHref        map[string]*ManifestItem
	byHrefPath    map[string]*ManifestItem // fragment-stripped hrefs, for reference rewriting
	spine         Spine
	toc           []*ManifestItem
	landmarks     []*ManifestItem
	warnings      []string
}

// Option configures a Book before parsing starts.
type Option func(*Book)

// WithImageRoot sets the virtual root prepended to rewritten image
// references. The default is "/images/". A missing trailing slash is added;
// an empty value keeps the default.
func WithImageRoot(root string) Option {
	return func(b *Book) {
		b.imageRoot = normalizeRoot(root, defaultImageRoot)
	}
}

// WithLinkRoot sets the virtual root prepended to rewritten link
// references. The default is "/links/". A missing trailing slash is added;
// an empty value keeps the default.
func WithLinkRoot(root string) Option {
	return func(b *Book) {
		b.linkRoot = normalizeRoot(root, defaultLinkRoot)
	}
}

// WithLogger sets the logger used for parse diagnostics. The default
// discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(b *Book) {
		if l != nil {
			b.log = l
		}
	}
}

func normalizeRoot(root, def string) string {
	root = strings.TrimSpace(root)
	if root == "" {
		return def
	}
	if !strings.HasSuffix(root, "/") {
		root += "/"
	}
	return root
}

// Open opens an ePub file at the given path.
// The caller must call Close when done reading from the book.
func Open(path string, opts ...Option) (*Book, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("epub: open %s: %w", path, err)
	}

	b, err := initBook(newZipArchive(&zrc.Reader), zrc, opts)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return b, nil
}

// NewReader creates a Book from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r; Close only cleans
// up internal state.
func NewReader(r io.ReaderAt, size int64, opts ...Option) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("epub: open zip: %w", err)
	}

	return initBook(newZipArchive(zr), nil, opts)
}

// NewFromArchive creates a Book from an arbitrary Archive implementation,
// such as an exploded directory tree or an in-memory entry set.
func NewFromArchive(arc Archive, opts ...Option) (*Book, error) {
	if arc == nil {
		return nil, fmt.Errorf("%w: nil archive", ErrInvalidArgument)
	}
	return initBook(arc, nil, opts)
}

// initBook performs the sequential parse: entry indexing, mimetype
// validation, container resolution, DRM detection, package document
// parsing and navigation resolution. After it returns the Book is never
// mutated again.
func initBook(arc Archive, closer io.Closer, opts []Option) (*Book, error) {
	b := &Book{
		arc:       arc,
		closer:    closer,
		log:       zap.NewNop(),
		imageRoot: defaultImageRoot,
		linkRoot:  defaultLinkRoot,
	}
	for _, opt := range opts {
		opt(b)
	}

	b.buildEntryIndex()

	if err := b.validateMimetype(); err != nil {
		return nil, err
	}

	if err := b.locateRootfile(); err != nil {
		return nil, err
	}

	if err := b.checkDRM(); err != nil {
		return nil, err
	}

	if err := b.parsePackage(); err != nil {
		return nil, err
	}

	if err := b.resolveTOC(); err != nil {
		return nil, err
	}

	return b, nil
}

// Close releases resources held by the Book. When the Book was created via
// Open, Close closes the underlying file. Close is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// buildEntryIndex builds exact and lowercase entry-name indexes for O(1)
// lookups. The first occurrence wins on duplicates.
func (b *Book) buildEntryIndex() {
	names := b.arc.Names()
	b.entryExact = make(map[string]string, len(names))
	b.entryLower = make(map[string]string, len(names))
	for _, name := range names {
		if _, exists := b.entryExact[name]; !exists {
			b.entryExact[name] = name
		}
		lower := strings.ToLower(name)
		if _, exists := b.entryLower[lower]; !exists {
			b.entryLower[lower] = name
		}
	}
}

// findEntry resolves name to an actual archive entry name, trying an exact
// match first and then a case-insensitive match.
func (b *Book) findEntry(name string) (string, bool) {
	if n, ok := b.entryExact[name]; ok {
		return n, true
	}
	if n, ok := b.entryLower[strings.ToLower(name)]; ok {
		return n, true
	}
	return "", false
}

// readEntry reads an archive entry by name with case-insensitive fallback.
func (b *Book) readEntry(name string) ([]byte, error) {
	n, ok := b.findEntry(name)
	if !ok {
		return nil, ErrFileNotFound
	}
	return b.arc.Read(n)
}

// ReadFile reads a file from the ePub archive by its internal path.
// The lookup falls back to a case-insensitive match.
func (b *Book) ReadFile(name string) ([]byte, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty file name", ErrInvalidArgument)
	}
	data, err := b.readEntry(name)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// Version returns the package version, e.g. "2.0" or "3.0".
func (b *Book) Version() string {
	return b.metadata.Version
}

// HasTOC reports whether the ePub yielded at least one table-of-contents
// entry.
func (b *Book) HasTOC() bool {
	return len(b.toc) > 0
}

// Metadata returns the extracted metadata.
func (b *Book) Metadata() Metadata {
	out := b.metadata
	if b.metadata.Extra != nil {
		out.Extra = make(map[string]string, len(b.metadata.Extra))
		for k, v := range b.metadata.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Manifest returns the manifest keyed by item id. The map is a fresh copy;
// the items are the shared instances, so titles merged from the navigation
// documents are visible on them.
func (b *Book) Manifest() map[string]*ManifestItem {
	out := make(map[string]*ManifestItem, len(b.manifest))
	for id, item := range b.manifest {
		out[id] = item
	}
	return out
}

// Spine returns the linear reading order. The contents slice is a fresh
// copy; its elements are the shared manifest items.
func (b *Book) Spine() Spine {
	return Spine{
		TOCItem:  b.spine.TOCItem,
		Contents: append([]*ManifestItem(nil), b.spine.Contents...),
	}
}

// TOC returns the table of contents as a flat slice, parents before
// children, nesting expressed through each item's Level. Entries that
// resolve to manifest resources are the shared manifest items; the rest are
// standalone.
func (b *Book) TOC() []*ManifestItem {
	return append([]*ManifestItem(nil), b.toc...)
}

// Landmarks returns the landmarks from an ePub 3 nav document. Nil for
// books without one.
func (b *Book) Landmarks() []*ManifestItem {
	return append([]*ManifestItem(nil), b.landmarks...)
}

// Warnings returns the non-fatal notices accumulated during parsing.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// warn records a non-fatal notice and logs it.
func (b *Book) warn(msg string) {
	b.warnings = append(b.warnings, msg)
	b.log.Warn(msg)
}
