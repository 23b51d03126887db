package networkjobs

import (
	"encoding/xml"
	"io"
	"net/url"
	"strconv"
	"strings"
)

// DirectoryEntry is one response of a multistatus listing
type DirectoryEntry struct {
	Href         string // decoded, one trailing "/" removed
	IsCollection bool
	Size         int64
	HasSize      bool
	Properties   map[string]string // local name to content, from the last propstat with status 200
}

// Listing is what is known once a multistatus document has been read
// to the end
type Listing struct {
	Subfolders []string         // hrefs of the collections, as sent
	Sizes      map[string]int64 // size by href, as sent
}

// Lister reads a multistatus document one response at a time.
//
// Use it like a bufio.Scanner:
//
//	l := NewLister(body, "/remote.php/webdav/dir/")
//	for {
//		entry, ok := l.Next()
//		if !ok {
//			break
//		}
//		...
//	}
//	if err := l.Err(); err != nil {
//		...
//	}
//
// It can't be restarted.
type Lister struct {
	d            *xml.Decoder
	expectedPath string

	insideMultistatus bool
	insidePropstat    bool
	insideProp        bool
	propstatOK        bool
	href              string
	isCollection      bool
	size              int64
	hasSize           bool
	scratch           map[string]string
	committed         map[string]string

	subfolders []string
	sizes      map[string]int64
	done       bool
	err        error
}

// NewLister returns a Lister reading r.  Every href in the document
// must start with expectedPath once percent decoded.
func NewLister(r io.Reader, expectedPath string) *Lister {
	return &Lister{
		d:            newDecoder(r),
		expectedPath: expectedPath,
		scratch:      map[string]string{},
		sizes:        map[string]int64{},
	}
}

// fail stops the Lister with a protocol error
func (l *Lister) fail(reason string, err error) {
	l.err = &ProtocolError{Reason: reason, Err: err}
	l.done = true
}

// Next returns the next entry.  It returns false at the end of the
// document or on error, after which Err says which it was.
func (l *Lister) Next() (DirectoryEntry, bool) {
	for !l.done {
		tok, err := l.d.Token()
		if err == io.EOF {
			l.done = true
			if !l.insideMultistatus {
				l.fail("no multistatus element in response", nil)
				return DirectoryEntry{}, false
			}
			if l.subfolders == nil {
				l.subfolders = []string{}
			}
			return DirectoryEntry{}, false
		}
		if err != nil {
			l.fail("invalid XML", err)
			return DirectoryEntry{}, false
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if err := l.start(t); err != nil {
				if l.err == nil {
					l.fail("invalid XML", err)
				}
				return DirectoryEntry{}, false
			}
		case xml.EndElement:
			if entry, ok := l.end(t); ok {
				return entry, true
			}
		}
	}
	return DirectoryEntry{}, false
}

// start handles a start element
func (l *Lister) start(t xml.StartElement) error {
	switch {
	case isDAV(t.Name, "href"):
		text, err := readText(l.d)
		if err != nil {
			return err
		}
		href, err := url.PathUnescape(text)
		if err != nil {
			href = text
		}
		if !strings.HasPrefix(href, l.expectedPath) {
			l.fail("href "+strconv.Quote(href)+" is not inside "+strconv.Quote(l.expectedPath), nil)
			return l.err
		}
		l.href = href
		return nil
	case isDAV(t.Name, "propstat"):
		l.insidePropstat = true
		l.propstatOK = false
		return nil
	case isDAV(t.Name, "status") && l.insidePropstat && !l.insideProp:
		text, err := readText(l.d)
		if err != nil {
			return err
		}
		l.propstatOK = strings.HasPrefix(text, "HTTP/1.1 200")
		return nil
	case isDAV(t.Name, "prop"):
		l.insideProp = true
		return nil
	case isDAV(t.Name, "multistatus"):
		l.insideMultistatus = true
		return nil
	}
	if !l.insidePropstat || !l.insideProp {
		return nil
	}
	// everything inside propstat/prop is a property
	content, err := innerContent(l.d)
	if err != nil {
		return err
	}
	switch t.Name.Local {
	case "resourcetype":
		if strings.Contains(content, "collection") {
			l.subfolders = append(l.subfolders, l.href)
			l.isCollection = true
		}
	case "size":
		if size, err := strconv.ParseInt(strings.TrimSpace(content), 10, 64); err == nil {
			l.sizes[l.href] = size
			l.size = size
			l.hasSize = true
		}
	}
	l.scratch[t.Name.Local] = content
	return nil
}

// end handles an end element returning an entry at the end of a
// response
func (l *Lister) end(t xml.EndElement) (DirectoryEntry, bool) {
	switch {
	case isDAV(t.Name, "response"):
		entry := DirectoryEntry{
			Href:         strings.TrimSuffix(l.href, "/"),
			IsCollection: l.isCollection,
			Size:         l.size,
			HasSize:      l.hasSize,
			Properties:   l.committed,
		}
		if entry.Properties == nil {
			entry.Properties = map[string]string{}
		}
		l.href = ""
		l.isCollection = false
		l.size = 0
		l.hasSize = false
		l.committed = nil
		return entry, true
	case isDAV(t.Name, "propstat"):
		l.insidePropstat = false
		if l.propstatOK {
			l.committed = l.scratch
		}
		l.scratch = map[string]string{}
		l.propstatOK = false
	case isDAV(t.Name, "prop"):
		l.insideProp = false
	}
	return DirectoryEntry{}, false
}

// Err returns the error which stopped the Lister, if any
func (l *Lister) Err() error {
	return l.err
}

// Subfolders returns the hrefs of the collections seen.  It is nil
// until the whole document has been read without error.
func (l *Lister) Subfolders() []string {
	if !l.done || l.err != nil {
		return nil
	}
	return l.subfolders
}

// Sizes returns the sizes seen by href
func (l *Lister) Sizes() map[string]int64 {
	return l.sizes
}

// Listing returns the Subfolders and Sizes or nil if the document was
// not read to the end without error
func (l *Lister) Listing() *Listing {
	if l.Subfolders() == nil {
		return nil
	}
	return &Listing{Subfolders: l.subfolders, Sizes: l.sizes}
}

// ReadAll reads the remaining entries
func (l *Lister) ReadAll() ([]DirectoryEntry, error) {
	var entries []DirectoryEntry
	for {
		entry, ok := l.Next()
		if !ok {
			return entries, l.Err()
		}
		entries = append(entries, entry)
	}
}
