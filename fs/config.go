package fs

import (
	"context"
	"strings"
	"time"
)

// Global
var (
	// globalConfig is the config used when no config is attached to
	// a context
	globalConfig = NewConfig()

	// EnvPrefix is the prefix used for all environment variables
	EnvPrefix = "DAVSYNC"
)

// ConfigInfo is the global config for the network jobs and the
// transport underneath them
type ConfigInfo struct {
	LogLevel           LogLevel
	UseJSONLog         bool
	ConnectTimeout     time.Duration // Connect timeout
	Timeout            time.Duration // Data channel timeout
	Dump               DumpFlags
	InsecureSkipVerify bool // Skip server certificate verification
	NoGzip             bool // Disable compression
	TPSLimit           float64
	TPSLimitBurst      int
	MaxConnections     int // Maximum number of transfers in flight per account
	UserAgent          string
	Cookie             bool
	CaCert             string // Client Side CA
	ClientCert         string // Client Side Cert
	ClientKey          string // Client Side Key
	SessionCacheSize   int    // number of TLS sessions kept for resumption
}

// NewConfig creates a new config with everything set to the default
// value.  These are the ultimate defaults and are overridden by the
// config module.
func NewConfig() *ConfigInfo {
	c := new(ConfigInfo)

	// Set any values which aren't the zero for the type
	c.LogLevel = LogLevelNotice
	c.ConnectTimeout = 60 * time.Second
	c.Timeout = 5 * 60 * time.Second
	c.TPSLimitBurst = 1
	c.MaxConnections = 6
	c.UserAgent = "davsync/" + Version
	c.SessionCacheSize = 64

	return c
}

type configContextKeyType struct{}

// Context key for config
var configContextKey = configContextKeyType{}

// GetConfig returns the global or context sensitive context
func GetConfig(ctx context.Context) *ConfigInfo {
	if ctx == nil {
		return globalConfig
	}
	c := ctx.Value(configContextKey)
	if c == nil {
		return globalConfig
	}
	return c.(*ConfigInfo)
}

// AddConfig returns a mutable config structure based on a shallow
// copy of that found in ctx and returns a new context with that added
// to it.
func AddConfig(ctx context.Context) (context.Context, *ConfigInfo) {
	c := GetConfig(ctx)
	cCopy := new(ConfigInfo)
	*cCopy = *c
	newCtx := context.WithValue(ctx, configContextKey, cCopy)
	return newCtx, cCopy
}

// OptionToEnv converts an option name, e.g. "ignore-size" into an
// environment name "DAVSYNC_IGNORE_SIZE"
func OptionToEnv(name string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

// ConfigToEnv converts a config section and name, e.g. ("account",
// "dav_path") into an environment name "DAVSYNC_ACCOUNT_DAV_PATH"
func ConfigToEnv(section, name string) string {
	return EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(section+"_"+name, "-", "_"))
}
