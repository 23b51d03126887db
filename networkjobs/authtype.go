package networkjobs

import (
	"context"
	"strings"
	"time"

	"github.com/davsync/davsync/lib/rest"
	"github.com/davsync/davsync/networkjobs/api"
)

// authTypeTimeout is the fixed timeout of a DetermineAuthTypeJob
const authTypeTimeout = 30 * time.Second

// DetermineAuthTypeJob finds out which authentication the server
// wants by sending a PROPFIND without credentials and reading the
// challenge
type DetermineAuthTypeJob struct {
	job
}

// NewDetermineAuthTypeJob returns a job probing the WebDAV URL of acc
func NewDetermineAuthTypeJob(acc *Account) *DetermineAuthTypeJob {
	j := &DetermineAuthTypeJob{}
	j.init(acc, "authtype", acc.DavURL())
	j.timeout = authTypeTimeout
	return j
}

// authTypeFromChallenge classifies the WWW-Authenticate values
func authTypeFromChallenge(values []string) api.AuthType {
	challenge := strings.ToLower(strings.Join(values, ", "))
	if strings.Contains(challenge, "bearer ") {
		return api.AuthOAuth
	}
	return api.AuthBasic
}

func (j *DetermineAuthTypeJob) run(ctx context.Context) (api.AuthType, error) {
	j.log().Info("Determining auth type")
	opts := rest.Opts{
		Method:        "PROPFIND",
		RootURL:       j.url,
		NoCredentials: true,
		IgnoreStatus:  true,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return api.AuthBasic, err
	}
	discardBody(resp)
	values := resp.Header.Values("WWW-Authenticate")
	if len(values) == 0 {
		j.log().Warn("Did not receive WWW-Authenticate reply to auth-test PROPFIND")
	}
	authType := authTypeFromChallenge(values)
	j.log().WithField("auth", authType).Info("Auth type determined")
	return authType, nil
}

// Start the probe
func (j *DetermineAuthTypeJob) Start(ctx context.Context) <-chan Result[api.AuthType] {
	return start(ctx, &j.job, j.run)
}

// Run the probe and wait for the result
func (j *DetermineAuthTypeJob) Run(ctx context.Context) (api.AuthType, error) {
	return Wait(ctx, j.Start(ctx))
}
