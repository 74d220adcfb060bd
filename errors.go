package epub

import "errors"

// Sentinel errors returned by the epub package. Errors returned from parsing
// and content operations either are one of these values or wrap one, so
// callers can branch with errors.Is.
var (
	// ErrMissingMimetype indicates the archive contains no mimetype entry.
	ErrMissingMimetype = errors.New("epub: missing mimetype entry")

	// ErrUnsupportedMimetype indicates the mimetype entry does not declare
	// application/epub+zip.
	ErrUnsupportedMimetype = errors.New("epub: unsupported mimetype")

	// ErrMissingContainer indicates META-INF/container.xml is absent
	// from the archive.
	ErrMissingContainer = errors.New("epub: missing META-INF/container.xml")

	// ErrMalformedContainer indicates container.xml could not be decoded.
	ErrMalformedContainer = errors.New("epub: malformed container.xml")

	// ErrNoRootfile indicates container.xml declares no rootfile with the
	// package media type and a usable full-path.
	ErrNoRootfile = errors.New("epub: no usable rootfile declaration")

	// ErrRootfileNotFound indicates the package document path declared in
	// container.xml does not exist in the archive.
	ErrRootfileNotFound = errors.New("epub: rootfile not found in archive")

	// ErrMalformedPackage indicates the package document could not be decoded.
	ErrMalformedPackage = errors.New("epub: malformed package document")

	// ErrMalformedNav indicates the NCX navigation document could not be decoded.
	ErrMalformedNav = errors.New("epub: malformed navigation document")

	// ErrUnknownID indicates the requested id has no manifest entry.
	ErrUnknownID = errors.New("epub: id not found in manifest")

	// ErrUnsupportedMediaType indicates the manifest item's media type is not
	// accepted by the operation (for example, requesting a stylesheet through
	// GetDocument).
	ErrUnsupportedMediaType = errors.New("epub: unsupported media type")

	// ErrFileNotFound indicates the requested file does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")

	// ErrDRMProtected indicates the ePub file is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP) and cannot be read.
	ErrDRMProtected = errors.New("epub: file is DRM protected")

	// ErrInvalidArgument indicates a caller-supplied argument is empty or
	// otherwise unusable.
	ErrInvalidArgument = errors.New("epub: invalid argument")

	// ErrInvalidChapter indicates a Chapter handle is invalid
	// (for example, a zero-value Chapter without an associated Book).
	ErrInvalidChapter = errors.New("epub: invalid chapter handle")

	// ErrNoCover indicates no cover image could be detected
	// using any of the supported strategies.
	ErrNoCover = errors.New("epub: no cover image found")
)
