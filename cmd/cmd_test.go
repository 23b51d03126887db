package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/lib/exitcode"
	"github.com/davsync/davsync/networkjobs"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	for _, test := range []struct {
		err  error
		want int
	}{
		{nil, exitcode.Success},
		{errorNotEnoughArguments, exitcode.UsageError},
		{ErrNotFound, exitcode.FileNotFound},
		{networkjobs.ErrNoPrivateLink, exitcode.FileNotFound},
		{&networkjobs.InstanceNotFoundError{URL: "https://x"}, exitcode.DirNotFound},
		{&networkjobs.HTTPError{Code: 404}, exitcode.FileNotFound},
		{&networkjobs.HTTPError{Code: 403}, exitcode.NoRetryError},
		{&networkjobs.HTTPError{Code: 503}, exitcode.RetryError},
		{errors.Wrap(&networkjobs.HTTPError{Code: 503}, "listing"), exitcode.RetryError},
		{&networkjobs.TimeoutError{URL: "https://x", After: time.Second}, exitcode.RetryError},
		{&networkjobs.TransportError{Err: context.Canceled}, exitcode.RetryError},
		{&networkjobs.ProtocolError{Reason: "invalid XML"}, exitcode.FatalError},
		{errors.Wrap(context.DeadlineExceeded, "waiting for jobs"), exitcode.RetryError},
		{context.Canceled, exitcode.UncategorizedError},
		{errors.New("potato"), exitcode.UncategorizedError},
	} {
		assert.Equal(t, test.want, ExitCode(test.err), "%v", test.err)
	}
}

func TestParseKeyValues(t *testing.T) {
	got, err := ParseKeyValues([]string{"a=1", "http://owncloud.org/ns:favorite=1", "empty="})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"a":                               "1",
		"http://owncloud.org/ns:favorite": "1",
		"empty":                           "",
	}, got)

	for _, bad := range []string{"novalue", "=1"} {
		_, err = ParseKeyValues([]string{bad})
		assert.Error(t, err, bad)
	}
}

func newAccountFlags(t *testing.T, args ...string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	AddAccountFlags(flagSet)
	require.NoError(t, flagSet.Parse(args))
	return flagSet
}

func TestAccountConfigFlags(t *testing.T) {
	flagSet := newAccountFlags(t,
		"--url", "https://cloud.example.com/",
		"--user", "alice",
		"--pass", "secret",
		"--dav-path", "dav/files/alice/",
		"--job-timeout", "30s",
	)
	opt, err := networkjobs.NewOptions(accountConfig(flagSet))
	require.NoError(t, err)
	assert.Equal(t, "https://cloud.example.com/", opt.URL)
	assert.Equal(t, "alice", opt.User)
	assert.Equal(t, "secret", opt.Pass)
	assert.Equal(t, "dav/files/alice/", opt.DavPath)
	assert.Equal(t, fs.Duration(30*time.Second), opt.Timeout)
	assert.Equal(t, networkjobs.DefaultMaxRedirects, opt.MaxRedirects)
}

func TestAccountConfigEnv(t *testing.T) {
	t.Setenv("DAVSYNC_ACCOUNT_URL", "https://env.example.com/")
	t.Setenv("DAVSYNC_ACCOUNT_BEARER_TOKEN", "token")
	t.Setenv("DAVSYNC_ACCOUNT_MAX_REDIRECTS", "3")

	flagSet := newAccountFlags(t, "--max-redirects", "5")
	opt, err := networkjobs.NewOptions(accountConfig(flagSet))
	require.NoError(t, err)
	assert.Equal(t, "https://env.example.com/", opt.URL)
	assert.Equal(t, "token", opt.BearerToken)
	assert.Equal(t, 5, opt.MaxRedirects, "flag beats environment")
	assert.Equal(t, networkjobs.DefaultTimeout, opt.Timeout)
}

func TestAccountConfigMissingURL(t *testing.T) {
	flagSet := newAccountFlags(t, "--user", "alice")
	_, err := networkjobs.NewOptions(accountConfig(flagSet))
	assert.Error(t, err)
}
