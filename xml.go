package epub

import (
	"errors"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// entityNameToNumeric maps lowercase HTML entity names to their XML numeric
// character references. The strict XML decoder rejects HTML named entities,
// which real-world package and navigation documents embed freely, so they
// are converted before decoding.
var entityNameToNumeric = map[string][]byte{
	"nbsp": []byte("&#160;"), "mdash": []byte("&#8212;"), "ndash": []byte("&#8211;"),
	"hellip": []byte("&#8230;"),
	"lsquo": []byte("&#8216;"), "rsquo": []byte("&#8217;"),
	"ldquo": []byte("&#8220;"), "rdquo": []byte("&#8221;"),
	"copy": []byte("&#169;"), "reg": []byte("&#174;"), "trade": []byte("&#8482;"),
	"bull": []byte("&#8226;"), "middot": []byte("&#183;"),
	"eacute": []byte("&#233;"), "egrave": []byte("&#232;"),
	"ecirc": []byte("&#234;"), "euml": []byte("&#235;"),
	"aacute": []byte("&#225;"), "agrave": []byte("&#224;"),
	"acirc": []byte("&#226;"), "auml": []byte("&#228;"),
	"iacute": []byte("&#237;"), "igrave": []byte("&#236;"),
	"icirc": []byte("&#238;"), "iuml": []byte("&#239;"),
	"oacute": []byte("&#243;"), "ograve": []byte("&#242;"),
	"ocirc": []byte("&#244;"), "ouml": []byte("&#246;"),
	"uacute": []byte("&#250;"), "ugrave": []byte("&#249;"),
	"ucirc": []byte("&#251;"), "uuml": []byte("&#252;"),
	"ntilde": []byte("&#241;"), "ccedil": []byte("&#231;"),
	"times": []byte("&#215;"), "divide": []byte("&#247;"),
	"deg": []byte("&#176;"), "para": []byte("&#182;"), "sect": []byte("&#167;"),
	"laquo": []byte("&#171;"), "raquo": []byte("&#187;"),
	"iexcl": []byte("&#161;"), "iquest": []byte("&#191;"),
}

// htmlEntityPattern matches common HTML named entities case-insensitively.
var htmlEntityPattern = regexp.MustCompile(
	`(?i)&(nbsp|mdash|ndash|hellip|lsquo|rsquo|ldquo|rdquo|copy|reg|trade|bull|middot|` +
		`eacute|egrave|ecirc|euml|aacute|agrave|acirc|auml|iacute|igrave|icirc|iuml|` +
		`oacute|ograve|ocirc|ouml|uacute|ugrave|ucirc|uuml|ntilde|ccedil|` +
		`times|divide|deg|para|sect|laquo|raquo|iexcl|iquest);`)

// preprocessHTMLEntities replaces common HTML named entities with their
// numeric character references so the XML decoder can parse the data.
// The matching is case-insensitive to handle non-standard ePub content.
func preprocessHTMLEntities(data []byte) []byte {
	return htmlEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := strings.ToLower(string(match[1 : len(match)-1]))
		if replacement, ok := entityNameToNumeric[name]; ok {
			return replacement
		}
		return match
	})
}

// decodeXML parses data into an element tree. A UTF-8 BOM is stripped and
// HTML named entities are rewritten first; documents declaring a legacy
// encoding are converted through the charset reader.
func decodeXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(preprocessHTMLEntities(stripBOM(data))); err != nil {
		return nil, err
	}
	if doc.Root() == nil {
		return nil, errors.New("missing root element")
	}
	return doc, nil
}

// childNamed returns the first child element of el whose local name matches
// name case-insensitively, ignoring any namespace prefix. Nil when absent.
func childNamed(el *etree.Element, name string) *etree.Element {
	if el == nil {
		return nil
	}
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, name) {
			return child
		}
	}
	return nil
}

// childrenNamed returns the child elements of el whose local name matches
// name case-insensitively, in document order.
func childrenNamed(el *etree.Element, name string) []*etree.Element {
	if el == nil {
		return nil
	}
	var out []*etree.Element
	for _, child := range el.ChildElements() {
		if strings.EqualFold(child.Tag, name) {
			out = append(out, child)
		}
	}
	return out
}

// attrValue returns the value of the attribute with the given local name
// (case-insensitive), ignoring any namespace prefix. Empty when absent.
func attrValue(el *etree.Element, name string) string {
	for _, a := range el.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Value
		}
	}
	return ""
}

// attrMap collects every attribute of el into a map. Namespaced attributes
// are keyed "prefix:name".
func attrMap(el *etree.Element) map[string]string {
	m := make(map[string]string, len(el.Attr))
	for _, a := range el.Attr {
		if a.Space != "" {
			m[a.Space+":"+a.Key] = a.Value
		} else {
			m[a.Key] = a.Value
		}
	}
	return m
}
