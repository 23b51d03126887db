package networkjobs

import (
	"context"
	"net/http"
	"sort"
	"strings"

	"github.com/davsync/davsync/lib/rest"
)

// ProppatchJob sets properties of a resource
type ProppatchJob struct {
	job

	// Properties maps "name" or "namespace:name" to the value to
	// set.  Values are escaped.
	Properties map[string]string
}

// NewProppatchJob returns a job setting properties of remotePath
// inside the WebDAV tree
func NewProppatchJob(acc *Account, remotePath string) *ProppatchJob {
	j := &ProppatchJob{}
	j.init(acc, "proppatch", acc.davURL(remotePath))
	return j
}

// body returns the PROPPATCH request body with the properties in key
// order
func (j *ProppatchJob) body() string {
	keys := make([]string, 0, len(j.Properties))
	for k := range j.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" ?>\n")
	b.WriteString("<d:propertyupdate xmlns:d=\"DAV:\">\n")
	b.WriteString("  <d:set><d:prop>\n")
	for _, key := range keys {
		ns, name := splitProperty(key)
		value := xmlEscape(j.Properties[key])
		if ns == "" {
			name = "d:" + name
			b.WriteString("    <" + name + ">")
		} else {
			b.WriteString("    <" + name + " xmlns=\"" + xmlEscape(ns) + "\">")
		}
		b.WriteString(value + "</" + name + ">\n")
	}
	b.WriteString("  </d:prop></d:set>\n")
	b.WriteString("</d:propertyupdate>\n")
	return b.String()
}

func (j *ProppatchJob) run(ctx context.Context) (struct{}, error) {
	if len(j.Properties) == 0 {
		j.log().Warn("Proppatch with no properties")
	}
	opts := rest.Opts{
		Method:         "PROPPATCH",
		RootURL:        j.url,
		Body:           strings.NewReader(j.body()),
		ContentType:    "application/xml; charset=utf-8",
		IgnoreStatus:   true,
		RedirectPolicy: rest.RedirectNone,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return struct{}{}, err
	}
	j.log().WithField("status", resp.Status).Info("PROPPATCH finished")
	if resp.StatusCode != http.StatusMultiStatus {
		if resp.StatusCode == http.StatusFound {
			j.log().WithField("location", resp.Header.Get("Location")).Warn("PROPPATCH was redirected")
		}
		return struct{}{}, errorHandler(resp)
	}
	discardBody(resp)
	return struct{}{}, nil
}

// Start setting the properties
func (j *ProppatchJob) Start(ctx context.Context) <-chan Result[struct{}] {
	return start(ctx, &j.job, j.run)
}

// Run sets the properties and waits for the result
func (j *ProppatchJob) Run(ctx context.Context) error {
	_, err := Wait(ctx, j.Start(ctx))
	return err
}
