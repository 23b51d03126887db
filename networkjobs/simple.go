package networkjobs

import (
	"bytes"
	"context"
	"net/http"
	"strings"

	"github.com/davsync/davsync/lib/rest"
)

// Reply is the result of a SimpleJob
type Reply struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	URL        string // final URL after redirects
}

// SimpleJob sends one request and returns whatever the server replies
type SimpleJob struct {
	job
	method string

	Header        http.Header
	Body          []byte
	NoCredentials bool
}

// NewSimpleJob returns a job sending method to rawURL
func NewSimpleJob(acc *Account, method, rawURL string) *SimpleJob {
	j := &SimpleJob{method: method, Header: http.Header{}}
	j.init(acc, "simple", rawURL)
	return j
}

func (j *SimpleJob) run(ctx context.Context) (*Reply, error) {
	opts := rest.Opts{
		Method:        j.method,
		RootURL:       j.url,
		ExtraHeaders:  map[string]string{},
		NoCredentials: j.NoCredentials,
		IgnoreStatus:  true,
	}
	for k, v := range j.Header {
		if len(v) > 0 {
			opts.ExtraHeaders[k] = strings.Join(v, ", ")
		}
	}
	if j.Body != nil {
		opts.Body = bytes.NewReader(j.Body)
		length := int64(len(j.Body))
		opts.ContentLength = &length
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return nil, err
	}
	reply := &Reply{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		URL:        resp.Request.URL.String(),
	}
	reply.Body, err = rest.ReadBody(resp)
	if err != nil {
		return nil, newTransportError(err)
	}
	return reply, nil
}

// Start sending the request
func (j *SimpleJob) Start(ctx context.Context) <-chan Result[*Reply] {
	return start(ctx, &j.job, j.run)
}

// Run sends the request and waits for the reply
func (j *SimpleJob) Run(ctx context.Context) (*Reply, error) {
	return Wait(ctx, j.Start(ctx))
}
