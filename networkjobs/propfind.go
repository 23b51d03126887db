package networkjobs

import (
	"context"
	"encoding/xml"
	"io"
	"net/http"
	"strings"

	"github.com/davsync/davsync/lib/rest"
)

// PropfindJob reads properties of a single resource with a depth 0
// PROPFIND
type PropfindJob struct {
	job

	// Properties to ask for, as "name" for DAV: properties or
	// "namespace:name"
	Properties []string
}

// NewPropfindJob returns a job reading properties of remotePath inside
// the WebDAV tree
func NewPropfindJob(acc *Account, remotePath string) *PropfindJob {
	j := &PropfindJob{}
	j.init(acc, "propfind", acc.davURL(remotePath))
	return j
}

// body returns the PROPFIND request body
func (j *PropfindJob) body() string {
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" ?>\n")
	b.WriteString("<d:propfind xmlns:d=\"DAV:\">\n")
	b.WriteString("  <d:prop>\n")
	for _, prop := range j.Properties {
		writeProperty(&b, prop, false)
	}
	b.WriteString("  </d:prop>\n")
	b.WriteString("</d:propfind>\n")
	return b.String()
}

// parseProperties returns the text of every element found directly
// inside a prop element, by local name.  Nesting below that is
// ignored.
func parseProperties(r io.Reader) (map[string]string, error) {
	d := newDecoder(r)
	items := map[string]string{}
	var stack []string
	for {
		tok, err := d.Token()
		if err == io.EOF {
			return items, nil
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if len(stack) > 0 && stack[len(stack)-1] == "prop" {
				text, err := readText(d)
				if err != nil {
					return nil, err
				}
				items[t.Name.Local] = text
			} else {
				stack = append(stack, t.Name.Local)
			}
		case xml.EndElement:
			if len(stack) > 0 && stack[len(stack)-1] == t.Name.Local {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func (j *PropfindJob) run(ctx context.Context) (map[string]string, error) {
	if len(j.Properties) == 0 {
		j.log().Warn("Propfind with no properties")
	}
	opts := rest.Opts{
		Method:         "PROPFIND",
		RootURL:        j.url,
		Body:           strings.NewReader(j.body()),
		ContentType:    "application/xml; charset=utf-8",
		ExtraHeaders:   map[string]string{"Depth": "0"},
		IgnoreStatus:   true,
		RedirectPolicy: rest.RedirectNone,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return nil, err
	}
	j.log().WithField("status", resp.Status).Info("PROPFIND finished")
	if resp.StatusCode != http.StatusMultiStatus {
		if resp.StatusCode == http.StatusFound {
			j.log().WithField("location", resp.Header.Get("Location")).Warn("PROPFIND was redirected")
		}
		return nil, errorHandler(resp)
	}
	defer discardBody(resp)
	items, err := parseProperties(resp.Body)
	if err != nil {
		return nil, &ProtocolError{Reason: "invalid XML in PROPFIND response", Err: err}
	}
	return items, nil
}

// Start reading the properties
func (j *PropfindJob) Start(ctx context.Context) <-chan Result[map[string]string] {
	return start(ctx, &j.job, j.run)
}

// Run reads the properties and waits for the result
func (j *PropfindJob) Run(ctx context.Context) (map[string]string, error) {
	return Wait(ctx, j.Start(ctx))
}
