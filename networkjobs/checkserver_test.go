package networkjobs

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/fserrors"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const statusJSON = `{"installed":true,"maintenance":false,"needsDbUpgrade":false,"version":"10.11.0.6","versionstring":"10.11.0","edition":"Community","productname":"ownCloud"}`

// statusServer records the paths asked for and answers from routes.
// Paths without a route get a 404.
type statusServer struct {
	mu     sync.Mutex
	paths  []string
	routes map[string]http.HandlerFunc
}

func (p *statusServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	p.paths = append(p.paths, r.URL.Path)
	p.mu.Unlock()
	if fn, ok := p.routes[r.URL.Path]; ok {
		fn(w, r)
		return
	}
	http.NotFound(w, r)
}

func (p *statusServer) requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.paths...)
}

func serveStatus(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	}
}

func TestCheckServerJobFound(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{
		"/status.php": func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "desktop", r.Header.Get("OC-Connection-Validator"))
			assert.Empty(t, r.Header.Get("Authorization"), "credentials must not be sent")
			serveStatus(statusJSON)(w, r)
		},
	}}
	acc, srv := newTestAccount(t, status)

	redirected := false
	j := NewCheckServerJob(acc)
	j.OnRedirect = func(base, target *url.URL) { redirected = true }
	info, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL, info.URL.String())
	assert.True(t, info.Status.Installed)
	assert.Equal(t, "10.11.0", info.Status.VersionString)
	assert.Equal(t, "10.11.0.6-ownCloud", info.Status.DisplayVersion())
	assert.False(t, redirected)
	assert.Equal(t, []string{"/status.php"}, status.requests())
	require.NotNil(t, acc.ServerVersion())
	assert.Equal(t, "10.11.0", acc.ServerVersion().String())
}

func TestCheckServerJobFallback(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{
		"/owncloud/status.php": serveStatus(statusJSON),
	}}
	acc, srv := newTestAccount(t, status)

	var targets []string
	j := NewCheckServerJob(acc)
	j.OnRedirect = func(base, target *url.URL) {
		assert.Equal(t, srv.URL, base.String())
		targets = append(targets, target.String())
	}
	info, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/owncloud", info.URL.String())
	assert.Equal(t, []string{srv.URL + "/owncloud"}, targets)
	assert.Equal(t, []string{"/status.php", "/owncloud/status.php"}, status.requests())
}

func TestCheckServerJobNoThirdAttempt(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{}}
	acc, _ := newTestAccount(t, status)

	_, err := NewCheckServerJob(acc).Run(context.Background())
	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, http.StatusNotFound, notFound.StatusCode)
	var httpErr *HTTPError
	assert.True(t, errors.As(err, &httpErr))
	assert.Equal(t, []string{"/status.php", "/owncloud/status.php"}, status.requests())
}

func TestCheckServerJobNotInstalled(t *testing.T) {
	for _, test := range []struct {
		name string
		body string
	}{
		{"missing installed", `{"version":"10.0.0"}`},
		{"invalid json", `<html>hello</html>`},
		{"json array", `[1,2,3]`},
		{"empty", ``},
	} {
		t.Run(test.name, func(t *testing.T) {
			status := &statusServer{routes: map[string]http.HandlerFunc{
				"/status.php": serveStatus(test.body),
			}}
			acc, _ := newTestAccount(t, status)
			info, err := NewCheckServerJob(acc).Run(context.Background())
			assert.Nil(t, info)
			var notFound *InstanceNotFoundError
			require.True(t, errors.As(err, &notFound), "%v", err)
			assert.Equal(t, http.StatusOK, notFound.StatusCode)
			assert.Nil(t, acc.ServerVersion())
		})
	}
}

func TestCheckServerJobInstalledFalseIsFound(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{
		"/status.php": serveStatus(`{"installed":false}`),
	}}
	acc, _ := newTestAccount(t, status)
	info, err := NewCheckServerJob(acc).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, info.Status.Installed)
}

func TestCheckServerJobServerError(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{
		"/status.php": func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	}}
	acc, _ := newTestAccount(t, status)
	_, err := NewCheckServerJob(acc).Run(context.Background())
	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, http.StatusInternalServerError, notFound.StatusCode)
	assert.Equal(t, []string{"/status.php"}, status.requests(), "only a 404 is retried")
}

func TestCheckServerJobRedirectLoop(t *testing.T) {
	status := &statusServer{}
	status.routes = map[string]http.HandlerFunc{
		"/status.php": func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/loop", http.StatusFound)
		},
		"/loop": func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/status.php", http.StatusFound)
		},
	}
	acc, _ := newTestAccount(t, status)

	j := NewCheckServerJob(acc)
	j.MaxRedirects = 4
	_, err := j.Run(context.Background())
	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound), "%v", err)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, fserrors.TransportTooManyRedirects, transportErr.Kind)
	assert.Len(t, status.requests(), 4)
}

func TestCheckServerJobRedirected(t *testing.T) {
	status := &statusServer{routes: map[string]http.HandlerFunc{
		"/status.php": func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/new/status.php", http.StatusMovedPermanently)
		},
		"/new/status.php": serveStatus(statusJSON),
	}}
	acc, srv := newTestAccount(t, status)

	var from, to *url.URL
	j := NewCheckServerJob(acc)
	j.OnRedirect = func(base, target *url.URL) {
		from, to = base, target
	}
	info, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/new", info.URL.String())
	require.NotNil(t, to)
	assert.Equal(t, srv.URL, from.String())
	assert.Equal(t, srv.URL+"/new", to.String())
}

func TestCheckServerJobInsecureRedirect(t *testing.T) {
	plain := httptest.NewServer(serveStatus(statusJSON))
	defer plain.Close()
	secure := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, plain.URL+"/status.php", http.StatusFound)
	}))
	defer secure.Close()

	ctx, ci := fs.AddConfig(context.Background())
	ci.InsecureSkipVerify = true
	opt := DefaultOptions()
	opt.URL = secure.URL
	acc, err := NewAccount(ctx, &opt, nil, nil)
	require.NoError(t, err)

	_, err = NewCheckServerJob(acc).Run(ctx)
	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound), "%v", err)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, fserrors.TransportInsecureRedirect, transportErr.Kind)
}

func TestCheckServerJobTLS(t *testing.T) {
	secure := httptest.NewTLSServer(serveStatus(statusJSON))
	defer secure.Close()

	ctx, ci := fs.AddConfig(context.Background())
	ci.InsecureSkipVerify = true
	opt := DefaultOptions()
	opt.URL = secure.URL
	acc, err := NewAccount(ctx, &opt, nil, nil)
	require.NoError(t, err)

	info, err := NewCheckServerJob(acc).Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, "https", info.URL.Scheme)
}

func TestCheckServerJobUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	rawURL := srv.URL
	srv.Close()

	opt := DefaultOptions()
	opt.URL = rawURL
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)
	_, err = NewCheckServerJob(acc).Run(context.Background())
	var notFound *InstanceNotFoundError
	require.True(t, errors.As(err, &notFound), "%v", err)
	var transportErr *TransportError
	assert.True(t, errors.As(err, &transportErr))
	assert.Equal(t, 0, notFound.StatusCode)
}
