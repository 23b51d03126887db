// Package rest implements a simple HTTP request wrapper used as the
// transport primitive of the network jobs.
//
// All methods are safe for concurrent calling.
package rest

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/davsync/davsync/fs"
	"github.com/pkg/errors"
)

// Client contains the info to sustain the API
type Client struct {
	mu           sync.RWMutex
	c            *http.Client
	rootURL      string
	errorHandler func(resp *http.Response) error
	headers      map[string]string
	signer       SignerFn
}

// NewClient takes an http.Client and makes a new api instance
func NewClient(c *http.Client) *Client {
	api := &Client{
		c:            c,
		errorHandler: defaultErrorHandler,
		headers:      make(map[string]string),
	}
	return api
}

// ReadBody reads resp.Body into result, closing the body
func ReadBody(resp *http.Response) (result []byte, err error) {
	defer fs.CheckClose(resp.Body, &err)
	return io.ReadAll(resp.Body)
}

// ReadBodyLimit reads at most limit bytes of resp.Body, closing the
// body
func ReadBodyLimit(resp *http.Response, limit int64) (result []byte, err error) {
	defer fs.CheckClose(resp.Body, &err)
	return io.ReadAll(io.LimitReader(resp.Body, limit))
}

// defaultErrorHandler doesn't attempt to parse the http body, just
// returns it in the error message closing resp.Body
func defaultErrorHandler(resp *http.Response) (err error) {
	body, err := ReadBody(resp)
	if err != nil {
		return errors.Wrap(err, "error reading error out of body")
	}
	return errors.Errorf("HTTP error %v (%v) returned body: %q", resp.StatusCode, resp.Status, body)
}

// SetErrorHandler sets the handler to decode an error response when
// the HTTP status code is not 2xx.  The handler should close resp.Body.
func (api *Client) SetErrorHandler(fn func(resp *http.Response) error) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.errorHandler = fn
	return api
}

// SetRoot sets the default RootURL.  You can override this on a per
// call basis using the RootURL field in Opts.
func (api *Client) SetRoot(RootURL string) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.rootURL = RootURL
	return api
}

// SetHeader sets a header for all requests
// Start the key with "*" for don't canonicalise
func (api *Client) SetHeader(key, value string) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.headers[key] = value
	return api
}

// SignerFn is used to sign an outgoing request
type SignerFn func(*http.Request) error

// SetSigner sets a signer for all requests
func (api *Client) SetSigner(signer SignerFn) *Client {
	api.mu.Lock()
	defer api.mu.Unlock()
	api.signer = signer
	return api
}

// HTTPClient returns the underlying http.Client
func (api *Client) HTTPClient() *http.Client {
	api.mu.RLock()
	defer api.mu.RUnlock()
	return api.c
}

// Opts contains parameters for Call
type Opts struct {
	Method           string // GET, POST, etc.
	Path             string // relative to RootURL
	RootURL          string // override RootURL passed into SetRoot()
	Body             io.Reader
	NoResponse       bool // set to close Body
	ContentType      string
	ContentLength    *int64
	ExtraHeaders     map[string]string // extra headers, start them with "*" for don't canonicalise
	UserName         string            // username for Basic Auth
	Password         string            // password for Basic Auth
	IgnoreStatus     bool              // if set then we don't check error status or parse error body
	Parameters       url.Values        // any parameters for the final URL
	TransferEncoding []string          // transfer encoding, set to "identity" to force "Content-Length: 0"
	Close            bool              // set to close the connection after this transaction
	NoCredentials    bool              // don't sign the request, send Authorization or use the cookie jar
	RedirectPolicy   RedirectPolicy    // how redirects are followed
	MaxRedirects     int               // maximum redirects followed, 0 for DefaultMaxRedirects
}

// Copy creates a copy of the options
func (o *Opts) Copy() *Opts {
	newOpts := *o
	return &newOpts
}

// URL works out the full URL the options will be sent to
func (api *Client) URL(opts *Opts) (string, error) {
	api.mu.RLock()
	defer api.mu.RUnlock()
	return api.url(opts)
}

func (api *Client) url(opts *Opts) (string, error) {
	u := api.rootURL
	if opts.RootURL != "" {
		u = opts.RootURL
	}
	if u == "" {
		return "", errors.New("RootURL not set")
	}
	u += opts.Path
	if len(opts.Parameters) > 0 {
		u += "?" + opts.Parameters.Encode()
	}
	return u, nil
}

// Call makes the call and returns the http.Response
//
// if err == nil then resp.Body will need to be closed unless
// opt.NoResponse is set
//
// if err != nil then resp.Body will have been closed
//
// it will return resp if at all possible, even if err is set.  In
// particular a redirect refused by the redirect policy returns the
// last response received along with the error.
func (api *Client) Call(ctx context.Context, opts *Opts) (resp *http.Response, err error) {
	api.mu.RLock()
	defer api.mu.RUnlock()
	if opts == nil {
		return nil, errors.New("call() called with nil opts")
	}
	url, err := api.url(opts)
	if err != nil {
		return nil, err
	}
	body := opts.Body
	// If length is set and zero then nil out the body to stop use
	// use of chunked encoding and insert a "Content-Length: 0"
	// header.
	if opts.ContentLength != nil && *opts.ContentLength == 0 {
		body = nil
	}
	req, err := http.NewRequestWithContext(ctx, opts.Method, url, body)
	if err != nil {
		return nil, err
	}
	headers := make(map[string]string)
	// Set default headers
	for k, v := range api.headers {
		if opts.NoCredentials && http.CanonicalHeaderKey(k) == "Authorization" {
			continue
		}
		headers[k] = v
	}
	if opts.ContentType != "" {
		headers["Content-Type"] = opts.ContentType
	}
	if opts.ContentLength != nil {
		req.ContentLength = *opts.ContentLength
	}
	if len(opts.TransferEncoding) != 0 {
		req.TransferEncoding = opts.TransferEncoding
	}
	if opts.Close {
		req.Close = true
	}
	// Set any extra headers
	for k, v := range opts.ExtraHeaders {
		headers[k] = v
	}
	// Now set the headers
	for k, v := range headers {
		if k != "" && v != "" {
			if k[0] == '*' {
				// Add non-canonical version if header starts with *
				k = k[1:]
				req.Header[k] = append(req.Header[k], v)
			} else {
				req.Header.Add(k, v)
			}
		}
	}

	if !opts.NoCredentials && (opts.UserName != "" || opts.Password != "") {
		req.SetBasicAuth(opts.UserName, opts.Password)
	}
	c := ClientWithRedirectPolicy(api.c, opts.RedirectPolicy, opts.MaxRedirects)
	if opts.NoCredentials && c.Jar != nil {
		if c == api.c {
			clientCopy := *c
			c = &clientCopy
		}
		c.Jar = nil
	}
	if api.signer != nil && !opts.NoCredentials {
		api.mu.RUnlock()
		err = api.signer(req)
		api.mu.RLock()
		if err != nil {
			return nil, errors.Wrap(err, "signer failed")
		}
	}
	api.mu.RUnlock()
	resp, err = c.Do(req)
	api.mu.RLock()
	if err != nil {
		// A refused redirect still returns the last response
		// with its body already closed
		return resp, err
	}
	if !opts.IgnoreStatus {
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			err = api.errorHandler(resp)
			if err == nil || err.Error() == "" {
				// replace empty errors with something
				err = errors.Errorf("http error %d: %v", resp.StatusCode, resp.Status)
			}
			return resp, err
		}
	}
	if opts.NoResponse {
		return resp, resp.Body.Close()
	}
	return resp, nil
}
