package networkjobs

import (
	"context"
	"net/url"

	"github.com/davsync/davsync/lib/rest"
)

// MkColJob creates a collection
type MkColJob struct {
	job
	extraHeaders map[string]string
}

// NewMkColJob returns a job creating remotePath inside the WebDAV tree
func NewMkColJob(acc *Account, remotePath string) *MkColJob {
	j := &MkColJob{}
	j.init(acc, "mkcol", acc.davURL(remotePath))
	return j
}

// NewMkColJobURL returns a job creating the collection at u sending
// extraHeaders with the request
func NewMkColJobURL(acc *Account, u *url.URL, extraHeaders map[string]string) *MkColJob {
	j := &MkColJob{extraHeaders: extraHeaders}
	j.init(acc, "mkcol", u.String())
	return j
}

func (j *MkColJob) run(ctx context.Context) (struct{}, error) {
	var zero int64
	opts := rest.Opts{
		Method:           "MKCOL",
		RootURL:          j.url,
		ContentLength:    &zero,
		TransferEncoding: []string{"identity"},
		ExtraHeaders:     j.extraHeaders,
		NoResponse:       true,
	}
	resp, err := j.send(ctx, &opts)
	if resp != nil {
		j.log().WithField("status", resp.Status).Info("MKCOL finished")
	}
	return struct{}{}, err
}

// Start creating the collection
func (j *MkColJob) Start(ctx context.Context) <-chan Result[struct{}] {
	return start(ctx, &j.job, j.run)
}

// Run creates the collection and waits for the result
func (j *MkColJob) Run(ctx context.Context) error {
	_, err := Wait(ctx, j.Start(ctx))
	return err
}
