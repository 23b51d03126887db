package networkjobs

import (
	"context"
	"net/http"

	"github.com/davsync/davsync/lib/rest"
)

// EntityExistsJob checks with HEAD whether a path relative to the
// account URL exists
type EntityExistsJob struct {
	job
}

// NewEntityExistsJob returns a job checking path relative to the
// account URL
func NewEntityExistsJob(acc *Account, path string) *EntityExistsJob {
	j := &EntityExistsJob{}
	j.init(acc, "exists", acc.accountURL(path))
	return j
}

func (j *EntityExistsJob) run(ctx context.Context) (bool, error) {
	opts := rest.Opts{
		Method:       "HEAD",
		RootURL:      j.url,
		IgnoreStatus: true,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return false, err
	}
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		discardBody(resp)
		return true, nil
	case resp.StatusCode == http.StatusNotFound:
		discardBody(resp)
		return false, nil
	}
	return false, errorHandler(resp)
}

// Start the check
func (j *EntityExistsJob) Start(ctx context.Context) <-chan Result[bool] {
	return start(ctx, &j.job, j.run)
}

// Run the check and wait for the result
func (j *EntityExistsJob) Run(ctx context.Context) (bool, error) {
	return Wait(ctx, j.Start(ctx))
}
