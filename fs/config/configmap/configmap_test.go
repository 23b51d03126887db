package configmap

import (
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Mapper = Simple(nil)
	_ Getter = (*Map)(nil)
	_ Setter = (*Map)(nil)
	_ Getter = Env{}
	_ Getter = Flags{}
)

func TestConfigMapGet(t *testing.T) {
	m := New()

	value, found := m.Get("config1")
	assert.Equal(t, "", value)
	assert.Equal(t, false, found)

	m1 := Simple{
		"config1": "one",
	}

	m.AddGetter(m1)

	value, found = m.Get("config1")
	assert.Equal(t, "one", value)
	assert.Equal(t, true, found)

	m2 := Simple{
		"config1": "one2",
		"config2": "two2",
	}

	m.AddGetter(m2)

	value, found = m.Get("config1")
	assert.Equal(t, "one", value)
	assert.Equal(t, true, found)

	value, found = m.Get("config2")
	assert.Equal(t, "two2", value)
	assert.Equal(t, true, found)
}

func TestConfigMapSet(t *testing.T) {
	m := New()

	m1 := Simple{
		"config1": "one",
	}
	m2 := Simple{
		"config1": "one2",
		"config2": "two2",
	}

	m.AddSetter(m1).AddSetter(m2)

	m.Set("config2", "potato")

	assert.Equal(t, Simple{
		"config1": "one",
		"config2": "potato",
	}, m1)
	assert.Equal(t, Simple{
		"config1": "one2",
		"config2": "potato",
	}, m2)
}

func TestSimpleString(t *testing.T) {
	assert.Equal(t, "", Simple(nil).String())
	assert.Equal(t, "", Simple{}.String())
	assert.Equal(t, "config1='one'", Simple{
		"config1": "one",
	}.String())
	assert.Equal(t, "config1='one',config2='two'", Simple{
		"config2": "two",
		"config1": "one",
	}.String())
	assert.Equal(t, "pass='it''s'", Simple{
		"pass": "it's",
	}.String())
}

func TestEnv(t *testing.T) {
	t.Setenv("DAVSYNC_ACCOUNT_DAV_PATH", "remote.php/webdav/")
	e := Env{Prefix: "DAVSYNC_ACCOUNT"}

	value, found := e.Get("dav_path")
	assert.True(t, found)
	assert.Equal(t, "remote.php/webdav/", value)

	_, found = e.Get("davsync_not_set")
	assert.False(t, found)
}

func TestFlags(t *testing.T) {
	fl := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fl.String("account-user", "", "")
	fl.String("account-dav-path", "remote.php/dav", "")
	require.NoError(t, fl.Parse([]string{"--account-user", "alice"}))

	f := Flags{Prefix: "account", Set: fl}
	value, found := f.Get("user")
	assert.True(t, found)
	assert.Equal(t, "alice", value)

	// defaults don't count as set
	_, found = f.Get("dav_path")
	assert.False(t, found)

	_, found = f.Get("missing")
	assert.False(t, found)
}

func TestLayering(t *testing.T) {
	t.Setenv("DAVSYNC_ACCOUNT_USER", "from-env")
	t.Setenv("DAVSYNC_ACCOUNT_PASS", "secret")
	fl := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fl.String("account-user", "", "")
	require.NoError(t, fl.Parse([]string{"--account-user", "from-flag"}))

	m := New().
		AddGetter(Flags{Prefix: "account", Set: fl}).
		AddGetter(Env{Prefix: "DAVSYNC_ACCOUNT"})

	value, _ := m.Get("user")
	assert.Equal(t, "from-flag", value)
	value, _ = m.Get("pass")
	assert.Equal(t, "secret", value)
}
