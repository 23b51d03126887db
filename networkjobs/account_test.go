package networkjobs

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/configmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestAccount starts a server running handler and returns an
// account pointing at it with basic credentials
func newTestAccount(t *testing.T, handler http.Handler) (*Account, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	opt := DefaultOptions()
	opt.URL = srv.URL
	opt.User = "user"
	opt.Pass = "pass"
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)
	return acc, srv
}

func TestNewOptions(t *testing.T) {
	m := configmap.Simple{
		"url":           "https://cloud.example.com/",
		"user":          "alice",
		"max_redirects": "3",
		"timeout":       "30s",
	}
	opt, err := NewOptions(m)
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.example.com/", opt.URL)
	assert.Equal(t, "alice", opt.User)
	assert.Equal(t, 3, opt.MaxRedirects)
	assert.Equal(t, fs.Duration(30*time.Second), opt.Timeout)
	assert.Equal(t, DefaultDavPath, opt.DavPath)

	_, err = NewOptions(configmap.Simple{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "url")
}

func TestNewAccountValidation(t *testing.T) {
	ctx := context.Background()
	for _, test := range []struct {
		url string
		ok  bool
	}{
		{"https://cloud.example.com", true},
		{"http://localhost:8080/owncloud/", true},
		{"", false},
		{"ftp://cloud.example.com", false},
		{"https://", false},
		{"://bad", false},
	} {
		opt := DefaultOptions()
		opt.URL = test.url
		_, err := NewAccount(ctx, &opt, nil, nil)
		if test.ok {
			assert.NoError(t, err, test.url)
		} else {
			assert.Error(t, err, test.url)
		}
	}
}

func TestAccountURLs(t *testing.T) {
	opt := DefaultOptions()
	opt.URL = "https://cloud.example.com/owncloud/"
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, "https://cloud.example.com/owncloud/remote.php/webdav/", acc.DavURL())
	assert.Equal(t, "https://cloud.example.com/owncloud/remote.php/webdav/dir/a%20file", acc.davURL("/dir/a file"))
	assert.Equal(t, "https://cloud.example.com/owncloud/remote.php/webdav/12:30%20notes/", acc.davURL("12:30 notes/"))
	assert.Equal(t, "https://cloud.example.com/owncloud/ocs/v1.php/cloud/user", acc.accountURL("ocs/v1.php/cloud/user"))

	u := acc.URL()
	u.Path = "/changed"
	assert.Equal(t, "/owncloud/", acc.URL().Path, "URL must return a copy")
}

func TestAccountServerVersion(t *testing.T) {
	opt := DefaultOptions()
	opt.URL = "https://cloud.example.com"
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)

	assert.Nil(t, acc.ServerVersion())
	assert.False(t, acc.ServerVersionAtLeast(10, 0, 0))

	require.NoError(t, acc.SetServerVersion("10.11.0.6"))
	assert.Equal(t, "10.11.0", acc.ServerVersion().String())
	assert.True(t, acc.ServerVersionAtLeast(10, 0, 0))
	assert.False(t, acc.ServerVersionAtLeast(10, 12, 0))

	require.NoError(t, acc.SetServerVersion("9.1.4"))
	assert.False(t, acc.ServerVersionAtLeast(10, 0, 0))
}

func TestCredentialsFromOptions(t *testing.T) {
	assert.Nil(t, credentialsFromOptions(&Options{}))

	creds := credentialsFromOptions(&Options{User: "u", Pass: "p", BearerToken: "tok"})
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	require.NoError(t, creds.Sign(req))
	assert.Equal(t, "Bearer tok", req.Header.Get("Authorization"))

	creds = credentialsFromOptions(&Options{User: "u", Pass: "p"})
	req = httptest.NewRequest("GET", "http://example.com/", nil)
	require.NoError(t, creds.Sign(req))
	user, pass, ok := req.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "u", user)
	assert.Equal(t, "p", pass)
}
