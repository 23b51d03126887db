package networkjobs

import (
	"context"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/davsync/davsync/lib/rest"
)

// LsColJob lists a collection with a depth 1 PROPFIND
type LsColJob struct {
	job

	// Properties to ask for, as "name" for DAV: properties or
	// "namespace:name"
	Properties []string

	// OnEntry is called for every response in the listing, in
	// document order, before the result is delivered
	OnEntry func(DirectoryEntry)
}

// NewLsColJob returns a job listing remotePath inside the WebDAV tree
func NewLsColJob(acc *Account, remotePath string) *LsColJob {
	j := &LsColJob{}
	j.init(acc, "lscol", acc.davURL(remotePath))
	return j
}

// NewLsColJobURL returns a job listing the collection at u
func NewLsColJobURL(acc *Account, u *url.URL) *LsColJob {
	j := &LsColJob{}
	j.init(acc, "lscol", u.String())
	return j
}

// body returns the PROPFIND request body
func (j *LsColJob) body() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" ?>\n")
	b.WriteString("<d:propfind xmlns:d=\"DAV:\" xmlns:oc=\"http://owncloud.org/ns\">\n")
	b.WriteString("  <d:prop>\n")
	for _, prop := range j.Properties {
		writeProperty(&b, prop, true)
	}
	b.WriteString("  </d:prop>\n")
	b.WriteString("</d:propfind>\n")
	return b.String()
}

// isXMLContentType returns true for the content types a multistatus
// response may have
func isXMLContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mediaType == "application/xml" || mediaType == "text/xml"
}

func (j *LsColJob) run(ctx context.Context) (*Listing, error) {
	if len(j.Properties) == 0 {
		j.log().Warn("Propfind with no properties")
	}
	expected, err := url.Parse(j.url)
	if err != nil {
		return nil, &ProtocolError{Reason: "invalid listing URL", Err: err}
	}
	opts := rest.Opts{
		Method:       "PROPFIND",
		RootURL:      j.url,
		Body:         strings.NewReader(j.body()),
		ContentType:  "application/xml; charset=utf-8",
		ExtraHeaders: map[string]string{"Depth": "1"},
		IgnoreStatus: true,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return nil, err
	}
	j.log().WithField("status", resp.Status).Info("Listing finished")
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, errorHandler(resp)
	}
	defer discardBody(resp)
	if contentType := resp.Header.Get("Content-Type"); !isXMLContentType(contentType) {
		return nil, &ProtocolError{Reason: "unexpected content type " + contentType}
	}
	lister := NewLister(resp.Body, expected.Path)
	for {
		entry, ok := lister.Next()
		if !ok {
			break
		}
		if j.OnEntry != nil && !j.emit(func() { j.OnEntry(entry) }) {
			// result already delivered
			return nil, newTransportError(context.Canceled)
		}
	}
	if err := lister.Err(); err != nil {
		if ctx.Err() != nil {
			return nil, newTransportError(ctx.Err())
		}
		return nil, err
	}
	return lister.Listing(), nil
}

// Start the listing.  The entries are passed to OnEntry as they are
// read and the Listing is delivered at the end.
func (j *LsColJob) Start(ctx context.Context) <-chan Result[*Listing] {
	return start(ctx, &j.job, j.run)
}

// Run the listing and wait for the result
func (j *LsColJob) Run(ctx context.Context) (*Listing, error) {
	return Wait(ctx, j.Start(ctx))
}
