package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
)

// maxDecompressSize is the maximum allowed decompressed size for a single
// archive entry. This guards against zip bomb attacks. Defaults to 256 MB.
const maxDecompressSize int64 = 256 * 1024 * 1024

// Archive is the minimal view of a ZIP-style container the parser needs.
// Open and NewReader wrap the standard archive/zip reader; NewFromArchive
// accepts any other implementation, such as an exploded directory tree.
//
// Implementations must support concurrent calls to Read once handed to the
// package; the built-in zip implementation does.
type Archive interface {
	// Names returns every entry path in archive order.
	Names() []string

	// Read returns the full contents of the named entry. The name must be
	// one of the values returned by Names.
	Read(name string) ([]byte, error)
}

// zipArchive adapts an archive/zip reader to the Archive interface.
// Entries are indexed by exact name; duplicates keep the first occurrence.
type zipArchive struct {
	names []string
	files map[string]*zip.File
}

func newZipArchive(zr *zip.Reader) *zipArchive {
	a := &zipArchive{
		names: make([]string, 0, len(zr.File)),
		files: make(map[string]*zip.File, len(zr.File)),
	}
	for _, f := range zr.File {
		if _, exists := a.files[f.Name]; exists {
			continue // first entry wins
		}
		a.files[f.Name] = f
		a.names = append(a.names, f.Name)
	}
	return a
}

func (a *zipArchive) Names() []string {
	return a.names
}

func (a *zipArchive) Read(name string) ([]byte, error) {
	f, ok := a.files[name]
	if !ok {
		return nil, ErrFileNotFound
	}
	return readZipEntry(f, maxDecompressSize)
}

// readZipEntry reads the full contents of a ZIP entry. It rejects unsafe
// entry paths and enforces the given decompressed size limit to guard
// against zip bombs. The limit is a parameter so tests can use a small one.
func readZipEntry(f *zip.File, limit int64) ([]byte, error) {
	if !isSafePath(f.Name) {
		return nil, fmt.Errorf("epub: unsafe zip entry path: %s", f.Name)
	}

	if f.UncompressedSize64 > uint64(limit) {
		return nil, fmt.Errorf("epub: zip entry %s too large: %d bytes (max %d)", f.Name, f.UncompressedSize64, limit)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("epub: open zip entry %s: %w", f.Name, err)
	}
	defer rc.Close()

	// Read up to limit+1 to detect if the actual decompressed data
	// exceeds the limit (the declared size might be wrong/forged).
	lr := io.LimitReader(rc, limit+1)
	data, err := io.ReadAll(lr)
	if err != nil {
		return nil, fmt.Errorf("epub: read zip entry %s: %w", f.Name, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("epub: zip entry %s decompressed size exceeds limit (%d bytes)", f.Name, limit)
	}

	return data, nil
}

// dirOf returns the containing directory of an archive path. Entries at the
// archive root report "".
func dirOf(p string) string {
	d := path.Dir(p)
	if d == "." {
		return ""
	}
	return d
}

// joinRelative resolves ref against the directory dir. Both are
// archive-internal forward-slash paths. The ref is URL-unescaped and "."
// and ".." segments are collapsed. Absolute refs and refs escaping the
// archive root resolve to "".
func joinRelative(dir, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" || strings.HasPrefix(ref, "/") {
		return ""
	}
	if decoded, err := url.PathUnescape(ref); err == nil {
		ref = decoded
	}
	joined := path.Join(dir, ref)
	if !isSafePath(joined) {
		return ""
	}
	return joined
}

// isSafePath checks whether p is a safe archive-internal path that does not
// escape the archive root via path traversal (e.g., "../../../etc/passwd").
func isSafePath(p string) bool {
	cleaned := path.Clean(p)
	if strings.HasPrefix(cleaned, "/") {
		return false
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return false
	}
	return true
}

// stripBOM removes a leading UTF-8 BOM (0xEF 0xBB 0xBF) from data, if present.
func stripBOM(data []byte) []byte {
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		return data[3:]
	}
	return data
}
