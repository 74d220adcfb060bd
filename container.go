package epub

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Well-known archive locations, resolved case-insensitively.
const (
	mimetypePath  = "mimetype"
	containerPath = "META-INF/container.xml"
)

// expectedMimetype is the required content of the mimetype entry.
const expectedMimetype = "application/epub+zip"

// packageMediaType identifies the package document rootfile inside
// container.xml.
const packageMediaType = "application/oebps-package+xml"

// validateMimetype checks that the archive carries a mimetype entry
// declaring application/epub+zip. The entry may sit at any position in the
// archive; its content is compared after trimming and lowercasing.
func (b *Book) validateMimetype() error {
	data, err := b.readEntry(mimetypePath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return ErrMissingMimetype
		}
		return fmt.Errorf("epub: read mimetype: %w", err)
	}

	if content := strings.ToLower(strings.TrimSpace(string(data))); content != expectedMimetype {
		return fmt.Errorf("%w: %q", ErrUnsupportedMimetype, content)
	}
	return nil
}

// locateRootfile reads META-INF/container.xml and resolves the package
// document location. On success b.opfPath holds the actual archive entry
// name and b.opfDir its containing directory.
func (b *Book) locateRootfile() error {
	data, err := b.readEntry(containerPath)
	if err != nil {
		if errors.Is(err, ErrFileNotFound) {
			return ErrMissingContainer
		}
		return fmt.Errorf("epub: read container.xml: %w", err)
	}

	doc, err := decodeXML(data)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedContainer, err)
	}

	declared := findRootfilePath(doc.Root())
	if declared == "" {
		return ErrNoRootfile
	}

	name, ok := b.findEntry(declared)
	if !ok {
		return fmt.Errorf("%w: %s", ErrRootfileNotFound, declared)
	}

	b.opfPath = name
	b.opfDir = dirOf(name)
	return nil
}

// findRootfilePath scans the container tree for the first rootfile whose
// media-type declares a package document and whose full-path is non-empty.
// Returns "" when no declaration qualifies.
func findRootfilePath(root *etree.Element) string {
	rootfiles := childNamed(root, "rootfiles")
	if rootfiles == nil {
		return ""
	}
	for _, rf := range childrenNamed(rootfiles, "rootfile") {
		if !strings.EqualFold(strings.TrimSpace(attrValue(rf, "media-type")), packageMediaType) {
			continue
		}
		if fullPath := strings.TrimSpace(attrValue(rf, "full-path")); fullPath != "" {
			return fullPath
		}
	}
	return ""
}
