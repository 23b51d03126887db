package networkjobs

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// Namespaces used in request bodies
const (
	NamespaceDAV      = "DAV:"
	NamespaceOwnCloud = "http://owncloud.org/ns"
)

// splitProperty splits "namespace:name" on the last ':'.  A property
// without a ':' has an empty namespace.
func splitProperty(prop string) (ns, name string) {
	i := strings.LastIndex(prop, ":")
	if i < 0 {
		return "", prop
	}
	return prop[:i], prop[i+1:]
}

// writeProperty writes the empty element asking for prop.
//
// With abbreviateOC set the owncloud namespace is written with the oc
// prefix, which the envelope must then declare.
func writeProperty(b *strings.Builder, prop string, abbreviateOC bool) {
	ns, name := splitProperty(prop)
	b.WriteString("    ")
	switch {
	case ns == "":
		b.WriteString("<d:" + name + " />")
	case ns == NamespaceOwnCloud && abbreviateOC:
		b.WriteString("<oc:" + name + " />")
	default:
		b.WriteString("<" + name + " xmlns=\"" + xmlEscape(ns) + "\" />")
	}
	b.WriteString("\n")
}

// xmlEscape escapes s for use in XML text or attribute values
func xmlEscape(s string) string {
	var b bytes.Buffer
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// newDecoder returns an XML decoder which understands the charsets
// servers declare
func newDecoder(r io.Reader) *xml.Decoder {
	d := xml.NewDecoder(r)
	d.CharsetReader = charset.NewReaderLabel
	return d
}

// isDAV returns true if name is in the DAV: namespace.  Servers which
// forget to declare the d: prefix are accepted too.
func isDAV(name xml.Name, local string) bool {
	return name.Local == local && (name.Space == NamespaceDAV || name.Space == "d")
}

// readText returns the character data up to the end of the current
// element, skipping any child elements
func readText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	level := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			level++
		case xml.EndElement:
			if level == 0 {
				return b.String(), nil
			}
			level--
		case xml.CharData:
			if level == 0 {
				b.Write(t)
			}
		}
	}
}

// innerContent returns the content of the current element up to its
// end.  Child elements are rebuilt as <name>...</name> without
// namespaces or attributes.
func innerContent(d *xml.Decoder) (string, error) {
	var b strings.Builder
	level := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			level++
			b.WriteString("<" + t.Name.Local + ">")
		case xml.EndElement:
			if level == 0 {
				return b.String(), nil
			}
			level--
			b.WriteString("</" + t.Name.Local + ">")
		case xml.CharData:
			b.Write(t)
		}
	}
}
