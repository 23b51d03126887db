package networkjobs

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitProperty(t *testing.T) {
	for _, test := range []struct {
		in, ns, name string
	}{
		{"getetag", "", "getetag"},
		{"http://owncloud.org/ns:fileid", "http://owncloud.org/ns", "fileid"},
		{"DAV::odd", "DAV:", "odd"},
	} {
		ns, name := splitProperty(test.in)
		assert.Equal(t, test.ns, ns, test.in)
		assert.Equal(t, test.name, name, test.in)
	}
}

func TestPropfindJob(t *testing.T) {
	var gotBody string
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPFIND", r.Method)
		assert.Equal(t, "0", r.Header.Get("Depth"))
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.Header().Set("Content-Type", "application/xml; charset=utf-8")
		w.WriteHeader(http.StatusMultiStatus)
		_, _ = io.WriteString(w, `<?xml version="1.0"?>
<d:multistatus xmlns:d="DAV:" xmlns:oc="http://owncloud.org/ns">
 <d:response>
  <d:href>/remote.php/webdav/file</d:href>
  <d:propstat>
   <d:prop>
    <oc:fileid>00000123ocabcdef</oc:fileid>
    <d:resourcetype><d:collection/></d:resourcetype>
    <oc:privatelink>https://cloud.example.com/f/123</oc:privatelink>
   </d:prop>
   <d:status>HTTP/1.1 200 OK</d:status>
  </d:propstat>
 </d:response>
</d:multistatus>`)
	}))

	j := NewPropfindJob(acc, "file")
	j.Properties = []string{"http://owncloud.org/ns:fileid", "resourcetype"}
	props, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"fileid":       "00000123ocabcdef",
		"resourcetype": "",
		"privatelink":  "https://cloud.example.com/f/123",
	}, props)
	assert.Equal(t, `<?xml version="1.0" ?>
<d:propfind xmlns:d="DAV:">
  <d:prop>
    <fileid xmlns="http://owncloud.org/ns" />
    <d:resourcetype />
  </d:prop>
</d:propfind>
`, gotBody)
}

func TestPropfindJobRedirect(t *testing.T) {
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/login", http.StatusFound)
	}))
	j := NewPropfindJob(acc, "file")
	j.Properties = []string{"getetag"}
	_, err := j.Run(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusFound, httpErr.Code)
}

func TestProppatchJobBody(t *testing.T) {
	opt := DefaultOptions()
	opt.URL = "https://cloud.example.com"
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)
	j := NewProppatchJob(acc, "file")
	j.Properties = map[string]string{
		"http://owncloud.org/ns:favorite": "1",
		"displayname":                     "a <b> & c",
	}
	assert.Equal(t, `<?xml version="1.0" ?>
<d:propertyupdate xmlns:d="DAV:">
  <d:set><d:prop>
    <d:displayname>a &lt;b&gt; &amp; c</d:displayname>
    <favorite xmlns="http://owncloud.org/ns">1</favorite>
  </d:prop></d:set>
</d:propertyupdate>
`, j.body())
}

func TestProppatchJob(t *testing.T) {
	status := http.StatusMultiStatus
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "PROPPATCH", r.Method)
		body, _ := io.ReadAll(r.Body)
		assert.True(t, strings.Contains(string(body), "<favorite xmlns=\"http://owncloud.org/ns\">1</favorite>"))
		w.WriteHeader(status)
	}))
	j := NewProppatchJob(acc, "file")
	j.Properties = map[string]string{"http://owncloud.org/ns:favorite": "1"}
	require.NoError(t, j.Run(context.Background()))

	status = http.StatusForbidden
	j = NewProppatchJob(acc, "file")
	j.Properties = map[string]string{"http://owncloud.org/ns:favorite": "1"}
	err := j.Run(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusForbidden, httpErr.Code)
}

func TestMkColJob(t *testing.T) {
	acc, srv := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MKCOL", r.Method)
		assert.Equal(t, "0", r.Header.Get("Content-Length"))
		assert.Equal(t, int64(0), r.ContentLength)
		if r.Header.Get("X-Extra") != "" {
			assert.Equal(t, "/other/new", r.URL.Path)
			w.WriteHeader(http.StatusCreated)
			return
		}
		switch r.URL.Path {
		case "/remote.php/webdav/new dir":
			w.WriteHeader(http.StatusCreated)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	require.NoError(t, NewMkColJob(acc, "new dir").Run(context.Background()))

	err := NewMkColJob(acc, "exists").Run(context.Background())
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusMethodNotAllowed, httpErr.Code)

	u, err := url.Parse(srv.URL + "/other/new")
	require.NoError(t, err)
	require.NoError(t, NewMkColJobURL(acc, u, map[string]string{"X-Extra": "yes"}).Run(context.Background()))
}
