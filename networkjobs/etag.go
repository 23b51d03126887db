package networkjobs

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/davsync/davsync/lib/rest"
)

// ParseETag normalises an ETag as sent by a server.
//
// The weak marker "W/", which servers add when compressing, is
// removed, as is any "-gzip" and one pair of surrounding quotes.
func ParseETag(header string) string {
	if header == "" {
		return ""
	}
	etag := strings.TrimPrefix(header, "W/")
	etag = strings.ReplaceAll(etag, "-gzip", "")
	if len(etag) >= 2 && etag[0] == '"' && etag[len(etag)-1] == '"' {
		etag = etag[1 : len(etag)-1]
	}
	return etag
}

// Etag is the result of an EtagJob
type Etag struct {
	ETag      string
	Timestamp time.Time // from the Date header, zero if missing
}

const etagRequestBody = `<?xml version="1.0" ?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <d:getetag/>
  </d:prop>
</d:propfind>
`

// EtagJob reads the ETag of a remote path
type EtagJob struct {
	job
}

// NewEtagJob returns a job reading the ETag of remotePath inside the
// WebDAV tree
func NewEtagJob(acc *Account, remotePath string) *EtagJob {
	j := &EtagJob{}
	j.init(acc, "etag", acc.davURL(remotePath))
	return j
}

// parseEtags concatenates the normalised text of every DAV: getetag
// element in r
func parseEtags(r io.Reader) (string, error) {
	d := newDecoder(r)
	var etag strings.Builder
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return etag.String(), nil
		}
		if err != nil {
			return "", err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !isDAV(start.Name, "getetag") {
			continue
		}
		text, err := readText(d)
		if err != nil {
			return "", err
		}
		if parsed := ParseETag(text); parsed != "" {
			etag.WriteString(parsed)
		} else {
			etag.WriteString(text)
		}
	}
}

func (j *EtagJob) run(ctx context.Context) (*Etag, error) {
	opts := rest.Opts{
		Method:       "PROPFIND",
		RootURL:      j.url,
		Body:         strings.NewReader(etagRequestBody),
		ContentType:  "application/xml; charset=utf-8",
		ExtraHeaders: map[string]string{"Depth": "0"},
		IgnoreStatus: true,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return nil, err
	}
	j.log().WithField("status", resp.Status).Info("Request etag finished")
	if resp.StatusCode != http.StatusMultiStatus {
		return nil, errorHandler(resp)
	}
	defer discardBody(resp)
	etag, err := parseEtags(resp.Body)
	if err != nil {
		return nil, &ProtocolError{Reason: "invalid XML in etag response", Err: err}
	}
	result := &Etag{ETag: etag}
	if date := resp.Header.Get("Date"); date != "" {
		if t, err := http.ParseTime(date); err == nil {
			result.Timestamp = t
		}
	}
	return result, nil
}

// Start reading the ETag
func (j *EtagJob) Start(ctx context.Context) <-chan Result[*Etag] {
	return start(ctx, &j.job, j.run)
}

// Run reads the ETag and waits for the result
func (j *EtagJob) Run(ctx context.Context) (*Etag, error) {
	return Wait(ctx, j.Start(ctx))
}
