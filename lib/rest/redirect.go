package rest

import (
	"net/http"

	"github.com/pkg/errors"
)

// DefaultMaxRedirects is the redirect limit used when Opts.MaxRedirects
// is 0.  It matches net/http.
const DefaultMaxRedirects = 10

// Errors returned through http.Client.Do when the redirect policy
// refuses to follow a redirect.
var (
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrInsecureRedirect = errors.New("refusing to follow redirect from https to http")
)

// RedirectPolicy says how Call follows redirects
type RedirectPolicy int

// Redirect policies
const (
	// RedirectFollow follows redirects up to the limit
	RedirectFollow RedirectPolicy = iota
	// RedirectNone returns the redirect response itself
	RedirectNone
	// RedirectNoLessSafe follows redirects up to the limit but
	// refuses to go from https to http
	RedirectNoLessSafe
)

// ClientWithNoRedirects makes a new http client which won't follow redirects
func ClientWithNoRedirects(c *http.Client) *http.Client {
	clientCopy := *c
	clientCopy.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		return http.ErrUseLastResponse
	}
	return &clientCopy
}

// ClientWithRedirectPolicy makes a new http client which follows
// redirects according to policy, stopping with ErrTooManyRedirects
// after maxRedirects.
//
// c is returned unchanged for RedirectFollow with the default limit.
func ClientWithRedirectPolicy(c *http.Client, policy RedirectPolicy, maxRedirects int) *http.Client {
	if policy == RedirectNone {
		return ClientWithNoRedirects(c)
	}
	if maxRedirects <= 0 {
		maxRedirects = DefaultMaxRedirects
	}
	if policy == RedirectFollow && maxRedirects == DefaultMaxRedirects && c.CheckRedirect == nil {
		return c
	}
	clientCopy := *c
	clientCopy.CheckRedirect = func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return ErrTooManyRedirects
		}
		if policy == RedirectNoLessSafe && len(via) > 0 {
			prev := via[len(via)-1].URL
			if prev.Scheme == "https" && req.URL.Scheme == "http" {
				return ErrInsecureRedirect
			}
		}
		return nil
	}
	return &clientCopy
}
