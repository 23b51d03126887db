// Package networkjobs implements the WebDAV and OCS requests a sync
// client makes against an ownCloud style server.
//
// Every job runs its transfer on its own goroutine and delivers
// exactly one Result on the channel returned by Start.
package networkjobs

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/coreos/go-semver/semver"
	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/configmap"
	"github.com/davsync/davsync/fs/config/configstruct"
	"github.com/davsync/davsync/fs/fshttp"
	"github.com/davsync/davsync/lib/pacer"
	"github.com/davsync/davsync/lib/rest"
	"github.com/davsync/davsync/networkjobs/api"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options defines the configuration for an account
type Options struct {
	URL            string      `config:"url,required"`
	User           string      `config:"user"`
	Pass           string      `config:"pass"`
	BearerToken    string      `config:"bearer_token"`
	DavPath        string      `config:"dav_path"`
	MaxRedirects   int         `config:"max_redirects"`
	Timeout        fs.Duration `config:"timeout"`
	MaxConnections int         `config:"max_connections"`
}

// Defaults for Options
const (
	DefaultDavPath      = "remote.php/webdav/"
	DefaultMaxRedirects = 10
	DefaultTimeout      = fs.Duration(300 * time.Second)
)

// DefaultOptions returns the options an account uses when nothing is
// configured
func DefaultOptions() Options {
	return Options{
		DavPath:      DefaultDavPath,
		MaxRedirects: DefaultMaxRedirects,
		Timeout:      DefaultTimeout,
	}
}

// NewOptions reads the account options from m on top of the defaults
func NewOptions(m configmap.Getter) (*Options, error) {
	opt := DefaultOptions()
	if err := configstruct.Set(m, &opt); err != nil {
		return nil, errors.Wrap(err, "account config")
	}
	return &opt, nil
}

// Account is a server plus the credentials and HTTP plumbing the jobs
// share: the client, the TLS session cache, the pacer and the list of
// running jobs.
type Account struct {
	opt      Options
	base     *url.URL
	srv      *rest.Client
	pacer    *pacer.Pacer
	sessions *fshttp.SessionTracker
	log      logrus.FieldLogger
	jobs     *registry
	metrics  *Metrics

	mu            sync.Mutex
	serverVersion *semver.Version
}

// NewAccount creates an account from opt.
//
// creds may be nil in which case they are chosen from opt.  logger
// may be nil in which case the standard logger is used.
func NewAccount(ctx context.Context, opt *Options, creds Credentials, logger logrus.FieldLogger) (*Account, error) {
	if opt.URL == "" {
		return nil, errors.New("account URL is not set")
	}
	base, err := url.Parse(opt.URL)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse account URL %q", opt.URL)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, errors.Errorf("account URL %q must be http or https", opt.URL)
	}
	if base.Host == "" {
		return nil, errors.Errorf("account URL %q has no host", opt.URL)
	}
	if creds == nil {
		creds = credentialsFromOptions(opt)
	}
	if logger == nil {
		logger = fs.NewLogger(base.Redacted())
	}
	ci := fs.GetConfig(ctx)
	sessions := fshttp.NewSessionTracker(ci.SessionCacheSize)
	client := fshttp.NewClientCustom(ctx, sessions.Customize)
	srv := rest.NewClient(client).SetRoot(base.String()).SetErrorHandler(errorHandler)
	if creds != nil {
		srv.SetSigner(creds.Sign)
	}
	maxConnections := opt.MaxConnections
	if maxConnections == 0 {
		maxConnections = ci.MaxConnections
	}
	a := &Account{
		opt:      *opt,
		base:     base,
		srv:      srv,
		pacer:    pacer.New().SetMaxConnections(maxConnections),
		sessions: sessions,
		log:      logger,
		jobs:     newRegistry(),
	}
	if a.opt.DavPath == "" {
		a.opt.DavPath = DefaultDavPath
	}
	if a.opt.MaxRedirects <= 0 {
		a.opt.MaxRedirects = DefaultMaxRedirects
	}
	return a, nil
}

// URL returns a copy of the account base URL
func (a *Account) URL() *url.URL {
	u := *a.base
	return &u
}

// String describes the account for logging
func (a *Account) String() string {
	return a.base.Redacted()
}

// DavURL returns the URL of the root WebDAV collection
func (a *Account) DavURL() string {
	return rest.ConcatPath(a.base.String(), a.opt.DavPath)
}

// davURL returns the URL of remotePath inside the WebDAV tree.
// remotePath is not escaped.
func (a *Account) davURL(remotePath string) string {
	return rest.ConcatPath(a.DavURL(), rest.URLPathEscape(strings.TrimPrefix(remotePath, "/")))
}

// accountURL returns the URL of p relative to the base URL.  p is not
// escaped.
func (a *Account) accountURL(p string) string {
	return rest.ConcatPath(a.base.String(), rest.URLPathEscape(strings.TrimPrefix(p, "/")))
}

// Logger returns the log sink the jobs of this account use
func (a *Account) Logger() logrus.FieldLogger {
	return a.log
}

// Sessions returns the TLS session cache of the account
func (a *Account) Sessions() *fshttp.SessionTracker {
	return a.sessions
}

// HTTPClient returns the client the jobs use
func (a *Account) HTTPClient() *http.Client {
	return a.srv.HTTPClient()
}

// SetMetrics makes the jobs of this account count their outcomes in m
func (a *Account) SetMetrics(m *Metrics) {
	a.metrics = m
}

// SetServerVersion records the version reported by the server
func (a *Account) SetServerVersion(version string) error {
	v, err := api.ParseVersion(version)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.serverVersion = v
	a.mu.Unlock()
	return nil
}

// ServerVersion returns the server version or nil if not known yet
func (a *Account) ServerVersion() *semver.Version {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.serverVersion
}

// ServerVersionAtLeast returns true if the server version is known
// and is at least major.minor.patch
func (a *Account) ServerVersionAtLeast(major, minor, patch int64) bool {
	v := a.ServerVersion()
	if v == nil {
		return false
	}
	return !v.LessThan(semver.Version{Major: major, Minor: minor, Patch: patch})
}

// Running returns the jobs of this account which are in flight
func (a *Account) Running() []JobInfo {
	return a.jobs.running()
}

// AbortAll cancels every job in flight.  Each of them still delivers
// one result, a *TransportError of kind TransportCanceled.
func (a *Account) AbortAll() int {
	n := a.jobs.abortAll()
	if n > 0 {
		a.log.WithField("jobs", n).Info("Aborting running jobs")
	}
	return n
}

// jobTimeout is the timeout new jobs start with
func (a *Account) jobTimeout() time.Duration {
	return time.Duration(a.opt.Timeout)
}
