package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// buildEPubBytes creates an in-memory ZIP archive from the provided files map
// (path → content) and returns the raw bytes. The mimetype entry, if present,
// is written first, matching how real ePub files are packaged.
func buildEPubBytes(t *testing.T, files map[string]string) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	if mt, ok := files["mimetype"]; ok {
		fw, err := zw.Create("mimetype")
		if err != nil {
			t.Fatalf("buildEPubBytes: create mimetype: %v", err)
		}
		if _, err := io.WriteString(fw, mt); err != nil {
			t.Fatalf("buildEPubBytes: write mimetype: %v", err)
		}
	}
	for name, content := range files {
		if name == "mimetype" {
			continue
		}
		fw, err := zw.Create(name)
		if err != nil {
			t.Fatalf("buildEPubBytes: create %s: %v", name, err)
		}
		if _, err := io.WriteString(fw, content); err != nil {
			t.Fatalf("buildEPubBytes: write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildEPubBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// buildTestZip creates an in-memory ZIP archive and returns a *zip.Reader
// over the resulting bytes. It calls t.Fatal on any error.
func buildTestZip(t *testing.T, files map[string]string) *zip.Reader {
	t.Helper()
	data := buildEPubBytes(t, files)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// buildTestEPubFile writes an ePub (ZIP) archive to a temporary file and returns
// the file path. This variant is useful for testing Open() which requires a file path.
func buildTestEPubFile(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	fp := filepath.Join(dir, "test.epub")
	if err := os.WriteFile(fp, buildEPubBytes(t, files), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

// openTestBook builds an in-memory ePub from files and opens it via NewReader.
// It fails the test on any error and closes the book when the test ends.
func openTestBook(t *testing.T, files map[string]string, opts ...Option) *Book {
	t.Helper()
	book, err := openTestBookErr(t, files, opts...)
	if err != nil {
		t.Fatalf("open test book: %v", err)
	}
	return book
}

// openTestBookErr is like openTestBook but returns the error instead of
// failing, for tests that assert on open failures.
func openTestBookErr(t *testing.T, files map[string]string, opts ...Option) (*Book, error) {
	t.Helper()
	data := buildEPubBytes(t, files)
	book, err := NewReader(bytes.NewReader(data), int64(len(data)), opts...)
	if err != nil {
		return nil, err
	}
	t.Cleanup(func() { book.Close() })
	return book, nil
}

const testContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testPackageOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" unique-identifier="uuid_id" version="2.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:opf="http://www.idpf.org/2007/opf">
    <dc:title>The Voyage Out</dc:title>
    <dc:creator opf:file-as="Woolf, Virginia">Virginia Woolf</dc:creator>
    <dc:language>en</dc:language>
    <dc:publisher>Hogarth Press</dc:publisher>
    <dc:date>1915-03-26</dc:date>
    <dc:identifier opf:scheme="ISBN">9780156028059</dc:identifier>
    <dc:identifier id="uuid_id">urn:uuid:550e8400-e29b-41d4-a716-446655440000</dc:identifier>
  </metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="ch1" href="ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="img1" href="images/sea.jpg" media-type="image/jpeg"/>
  </manifest>
  <spine toc="ncx">
    <itemref idref="ch1"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

const testTocNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Chapter One</text></navLabel>
      <content src="ch1.xhtml"/>
    </navPoint>
    <navPoint id="np2" playOrder="2">
      <navLabel><text>Chapter Two</text></navLabel>
      <content src="ch2.xhtml"/>
    </navPoint>
  </navMap>
</ncx>`

const testChapterOne = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter One</title></head>
<body>
<h1>Chapter One</h1>
<p>The ship moved <b>slowly</b> down the river.</p>
<img src="images/sea.jpg"/>
<a href="ch2.xhtml#start">Continue</a>
</body>
</html>`

const testChapterTwo = `<?xml version="1.0" encoding="utf-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>Chapter Two</title></head>
<body>
<h2 id="start">Chapter Two</h2>
<p>The harbour fell away behind them.</p>
</body>
</html>`

// minimalEPubFiles returns a fresh copy of a small but complete two-chapter
// ePub. Tests that need variations copy and mutate the returned map.
func minimalEPubFiles() map[string]string {
	return map[string]string{
		"mimetype":               "application/epub+zip",
		"META-INF/container.xml": testContainerXML,
		"OEBPS/content.opf":      testPackageOPF,
		"OEBPS/toc.ncx":          testTocNCX,
		"OEBPS/ch1.xhtml":        testChapterOne,
		"OEBPS/ch2.xhtml":        testChapterTwo,
		"OEBPS/style.css":        "body { margin: 0; }",
		"OEBPS/images/sea.jpg":   "\xff\xd8\xff\xe0 not a real jpeg",
	}
}
