package epub

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// Standard locations of rights-management descriptors.
const (
	encryptionPath = "META-INF/encryption.xml"
	sinfPath       = "META-INF/sinf.xml"
)

// Font obfuscation algorithm URIs. These do NOT constitute DRM.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true, // IDPF font obfuscation
	"http://ns.adobe.com/pdf/enc#RC":     true, // Adobe font obfuscation
}

// Known DRM namespaces found in algorithm URIs or KeyInfo children.
var drmSignatures = map[string]string{
	"http://ns.adobe.com/adept":      "Adobe ADEPT",
	"http://readium.org/2014/01/lcp": "Readium LCP",
}

// encryptionDoc is the fixed subset of encryption.xml the check needs.
// The schema is closed, so a typed unmarshal is enough here.
type encryptionDoc struct {
	XMLName       xml.Name        `xml:"encryption"`
	EncryptedData []encryptedData `xml:"EncryptedData"`
}

type encryptedData struct {
	EncryptionMethod struct {
		Algorithm string `xml:"Algorithm,attr"`
	} `xml:"EncryptionMethod"`
	KeyInfo struct {
		InnerXML string `xml:",innerxml"`
	} `xml:"KeyInfo"`
}

// checkDRM inspects the rights-management descriptors and fails with
// ErrDRMProtected when the archive declares encrypted resources. Font
// obfuscation alone is tolerated with a warning.
func (b *Book) checkDRM() error {
	// Apple FairPlay ships a sinf.xml instead of encryption entries.
	if _, ok := b.findEntry(sinfPath); ok {
		return fmt.Errorf("%w: Apple FairPlay", ErrDRMProtected)
	}

	name, ok := b.findEntry(encryptionPath)
	if !ok {
		// No descriptor is the normal case.
		return nil
	}

	data, err := b.arc.Read(name)
	if err != nil {
		// A present but unreadable descriptor is treated conservatively as
		// protection.
		return fmt.Errorf("%w: reading encryption.xml: %v", ErrDRMProtected, err)
	}

	var enc encryptionDoc
	if err := xml.Unmarshal(preprocessHTMLEntities(stripBOM(data)), &enc); err != nil {
		// An undecodable descriptor is treated conservatively as protection.
		return fmt.Errorf("%w: unreadable encryption.xml", ErrDRMProtected)
	}

	fontObfuscation := false
	for _, ed := range enc.EncryptedData {
		if fontObfuscationAlgorithms[ed.EncryptionMethod.Algorithm] {
			fontObfuscation = true
			continue
		}
		return fmt.Errorf("%w: %s", ErrDRMProtected, drmScheme(ed))
	}

	if fontObfuscation {
		b.warn("font obfuscation detected; obfuscated fonts may not render correctly")
	}
	return nil
}

// drmScheme names the protection scheme for error messages when one of the
// known signatures matches the entry.
func drmScheme(ed encryptedData) string {
	haystack := ed.EncryptionMethod.Algorithm + " " + ed.KeyInfo.InnerXML
	for ns, name := range drmSignatures {
		if strings.Contains(haystack, ns) {
			return name
		}
	}
	return "unidentified scheme"
}

// IsDRMProtected reports whether the ePub file at path is rights-managed.
func IsDRMProtected(path string) bool {
	book, err := Open(path)
	if err != nil {
		return errors.Is(err, ErrDRMProtected)
	}
	book.Close()
	return false
}
