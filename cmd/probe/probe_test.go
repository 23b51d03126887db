package probe

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/davsync/davsync/networkjobs"
	"github.com/davsync/davsync/networkjobs/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const status = `{"installed":true,"maintenance":false,"needsDbUpgrade":false,"version":"10.11.0.6","versionstring":"10.11.0","edition":"Community","productname":"ownCloud"}`

func TestProbe(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status.php" {
			http.NotFound(w, r)
			return
		}
		assert.Empty(t, r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, status)
	}))
	defer good.Close()
	bad := httptest.NewServer(http.NotFoundHandler())
	defer bad.Close()

	opt := networkjobs.DefaultOptions()
	opt.URL = good.URL
	opt.User = "alice"
	opt.Pass = "secret"
	acc, err := networkjobs.NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)

	goodURL, err := url.Parse(good.URL)
	require.NoError(t, err)
	badURL, err := url.Parse(bad.URL)
	require.NoError(t, err)

	results, err := Probe(context.Background(), acc, []*url.URL{badURL, goodURL, goodURL}, 2)
	var notFound *networkjobs.InstanceNotFoundError
	require.ErrorAs(t, err, &notFound)
	require.Len(t, results, 3)
	assert.Nil(t, results[0])
	require.NotNil(t, results[1])
	require.NotNil(t, results[2])
	assert.Equal(t, "10.11.0.6", results[1].Status.Version)

	results, err = Probe(context.Background(), acc, []*url.URL{goodURL}, 0)
	require.NoError(t, err)
	assert.Equal(t, good.URL+"\townCloud 10.11.0.6 (Community)", Format(results[0]))
}

func TestFormat(t *testing.T) {
	u, err := url.Parse("https://cloud.example.com/owncloud")
	require.NoError(t, err)
	info := &networkjobs.ServerInfo{
		URL: u,
		Status: &api.ServerStatus{
			Version:        "9.1.2",
			ProductName:    "ownCloud",
			Maintenance:    true,
			NeedsDBUpgrade: true,
		},
	}
	assert.Equal(t, "https://cloud.example.com/owncloud\townCloud 9.1.2 [maintenance] [needs db upgrade]", Format(info))
}
