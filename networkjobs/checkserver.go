package networkjobs

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/davsync/davsync/fs/fserrors"
	"github.com/davsync/davsync/lib/rest"
	"github.com/davsync/davsync/networkjobs/api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Paths of the status document
const (
	statusPath         = "status.php"
	fallbackStatusPath = "owncloud/status.php"
	statusBodyLimit    = 4 * 1024
)

// ServerInfo describes a server found by a CheckServerJob
type ServerInfo struct {
	URL    *url.URL // where the server really lives, after redirects
	Status *api.ServerStatus
}

// probeState is where a CheckServerJob is in its protocol
type probeState int

const (
	probeInitial  probeState = iota // asking <base>/status.php
	probeRetrying                   // asking <base>/owncloud/status.php
	probeTerminal                   // finished, no more requests
)

// CheckServerJob finds out whether a server lives at a URL by reading
// its status.php.
//
// Credentials are never sent and redirects from https to http are
// refused.  If status.php isn't found the job tries once more under
// owncloud/.
type CheckServerJob struct {
	job

	// MaxRedirects is the number of redirects followed
	MaxRedirects int

	// OnRedirect is called when the server turns out to live at
	// another URL than base
	OnRedirect func(base, target *url.URL)

	base  *url.URL
	state probeState
}

// NewCheckServerJob returns a job probing the URL of acc
func NewCheckServerJob(acc *Account) *CheckServerJob {
	return NewCheckServerJobURL(acc, acc.URL())
}

// NewCheckServerJobURL returns a job probing base with the client of
// acc
func NewCheckServerJobURL(acc *Account, base *url.URL) *CheckServerJob {
	j := &CheckServerJob{
		MaxRedirects: acc.opt.MaxRedirects,
		base:         base,
	}
	j.init(acc, "checkserver", rest.ConcatPath(base.String(), statusPath))
	return j
}

// targetURL works out where the server answered from.  The response
// URL is resolved against the base and a trailing /status.php removed.
func (j *CheckServerJob) targetURL(resp *http.Response, requestURL string) *url.URL {
	var u *url.URL
	if resp != nil && resp.Request != nil && resp.Request.URL != nil {
		u = resp.Request.URL
	} else if parsed, err := url.Parse(requestURL); err == nil {
		u = parsed
	} else {
		u = &url.URL{}
	}
	target := j.base.ResolveReference(u)
	target.Path = strings.TrimSuffix(target.Path, "/"+statusPath)
	target.RawPath = ""
	return target
}

// sameURL compares URLs ignoring a trailing slash
func sameURL(a, b *url.URL) bool {
	return strings.TrimSuffix(a.String(), "/") == strings.TrimSuffix(b.String(), "/")
}

// attempt makes one request for the status document.  It returns
// retry set if the fallback location should be tried.
func (j *CheckServerJob) attempt(ctx context.Context) (info *ServerInfo, retry bool, err error) {
	path := statusPath
	if j.state == probeRetrying {
		path = fallbackStatusPath
	}
	requestURL := rest.ConcatPath(j.base.String(), path)
	log := j.log().WithField("request", requestURL)
	opts := rest.Opts{
		Method:         "GET",
		RootURL:        requestURL,
		ExtraHeaders:   map[string]string{"OC-Connection-Validator": "desktop"},
		NoCredentials:  true,
		RedirectPolicy: rest.RedirectNoLessSafe,
		MaxRedirects:   j.MaxRedirects,
		IgnoreStatus:   true,
	}
	resp, err := j.send(ctx, &opts)

	target := j.targetURL(resp, requestURL)
	if target.Scheme == "https" && err == nil && !j.acc.sessions.HasTicket(target.Host) {
		log.Warn("No TLS session ticket is used, this might impact sync performance negatively")
	}
	if !sameURL(j.base, target) && j.OnRedirect != nil {
		j.emit(func() { j.OnRedirect(j.base, target) })
	}

	if err != nil {
		var transportErr *TransportError
		if errors.As(err, &transportErr) && transportErr.Kind == fserrors.TransportCanceled {
			return nil, false, err
		}
		log.WithError(err).Warn("Server probe failed")
		return nil, false, j.notFound(requestURL, resp, err)
	}

	if resp.StatusCode == http.StatusNotFound && j.state == probeInitial {
		discardBody(resp)
		j.state = probeRetrying
		log.Info("status.php not found, retrying under owncloud/")
		return nil, true, nil
	}

	body, err := rest.ReadBodyLimit(resp, statusBodyLimit)
	if err != nil {
		return nil, false, j.notFound(requestURL, resp, newTransportError(err))
	}
	if len(body) == 0 || resp.StatusCode != http.StatusOK {
		log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("status.php gave no usable reply")
		if resp.StatusCode != http.StatusOK {
			return nil, false, j.notFound(requestURL, resp, newHTTPError(resp, nil))
		}
		return nil, false, j.notFound(requestURL, resp, &ProtocolError{Reason: "empty status.php"})
	}

	status, parseErr := api.ParseServerStatus(body)
	if parseErr != nil {
		log.WithError(parseErr).WithField("body", string(body)).Warn("status.php from server is not valid JSON")
	}
	if !status.HasInstalled {
		log.Warn("No proper answer from status.php")
		reason := &ProtocolError{Reason: "status.php has no installed key", Err: parseErr}
		return nil, false, j.notFound(requestURL, resp, reason)
	}
	if status.Version != "" {
		if err := j.acc.SetServerVersion(status.Version); err != nil {
			log.WithError(err).Debug("Couldn't parse server version")
		}
	}
	log.WithField("version", status.DisplayVersion()).Info("Server found")
	return &ServerInfo{URL: target, Status: status}, false, nil
}

// notFound makes the error for a server which wasn't found
func (j *CheckServerJob) notFound(requestURL string, resp *http.Response, err error) error {
	e := &InstanceNotFoundError{URL: requestURL, Err: err}
	if resp != nil {
		e.StatusCode = resp.StatusCode
	}
	return e
}

func (j *CheckServerJob) run(ctx context.Context) (*ServerInfo, error) {
	for {
		if j.state == probeTerminal {
			return nil, errors.New("server probe already finished")
		}
		info, retry, err := j.attempt(ctx)
		if !retry {
			j.state = probeTerminal
			return info, err
		}
	}
}

// Start the probe
func (j *CheckServerJob) Start(ctx context.Context) <-chan Result[*ServerInfo] {
	return start(ctx, &j.job, j.run)
}

// Run the probe and wait for the result
func (j *CheckServerJob) Run(ctx context.Context) (*ServerInfo, error) {
	return Wait(ctx, j.Start(ctx))
}
