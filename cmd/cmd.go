// Package cmd implements the davsync command
//
// It is in a sub package so it's internals can be re-used elsewhere
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"runtime"
	"strings"

	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/configflags"
	"github.com/davsync/davsync/fs/config/configmap"
	"github.com/davsync/davsync/fs/config/flags"
	"github.com/davsync/davsync/fs/fserrors"
	"github.com/davsync/davsync/fs/fshttp"
	fslog "github.com/davsync/davsync/fs/log"
	"github.com/davsync/davsync/fs/log/logflags"
	"github.com/davsync/davsync/lib/buildinfo"
	"github.com/davsync/davsync/lib/exitcode"
	"github.com/davsync/davsync/networkjobs"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Globals
var (
	// Flags
	version         bool
	metricsTextfile string
	jobTimeout      fs.Duration

	// accountFlags holds the flags read by NewAccount.  They are
	// added to the persistent flags of Root too.
	accountFlags = pflag.NewFlagSet("account", pflag.ContinueOnError)

	// Metrics are only collected when --metrics-textfile is set
	jobMetrics *networkjobs.Metrics

	// Errors
	errorNotEnoughArguments = errors.New("not enough arguments")
	errorTooManyArguments   = errors.New("too many arguments")

	// ErrNotFound is returned by commands which looked for something
	// on the server and didn't find it
	ErrNotFound = errors.New("not found")
)

// Root is the main davsync command
var Root = &cobra.Command{
	Use:   "davsync",
	Short: "Talk WebDAV and OCS to an ownCloud style server",
	Long: `
davsync runs the network jobs of a desktop sync client from the
command line: it probes servers, lists collections, reads and writes
properties and calls the OCS API.

The account is given with --url plus either --user/--pass or
--bearer-token.  Every account flag can also be set in the
environment, e.g. DAVSYNC_ACCOUNT_URL.
`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		initConfig()
	},
	Run: func(cmd *cobra.Command, args []string) {
		if version {
			ShowVersion()
			resolveExitCode(nil)
		}
		_ = cmd.Usage()
		resolveExitCode(errorNotEnoughArguments)
	},
	SilenceUsage: true,
}

func init() {
	ci := fs.GetConfig(context.Background())
	flagSet := Root.PersistentFlags()
	configflags.AddFlags(ci, flagSet)
	logflags.AddFlags(flagSet)
	AddAccountFlags(accountFlags)
	flagSet.AddFlagSet(accountFlags)
	flags.StringVarP(flagSet, &metricsTextfile, "metrics-textfile", "", "", "Write prometheus metrics to this file on exit")
	flags.BoolVarP(Root.Flags(), &version, "version", "V", false, "Print the version number")
}

// AddAccountFlags adds the flags which make up the account to flagSet
func AddAccountFlags(flagSet *pflag.FlagSet) {
	def := networkjobs.DefaultOptions()
	jobTimeout = def.Timeout
	flagSet.StringP("url", "", "", "URL of the server, e.g. https://cloud.example.com/")
	flagSet.StringP("user", "u", "", "User name for basic authentication")
	flagSet.StringP("pass", "", "", "Password for basic authentication")
	flagSet.StringP("bearer-token", "", "", "OAuth2 access token, used instead of --user")
	flagSet.StringP("dav-path", "", def.DavPath, "Path of the WebDAV tree below the server URL")
	flagSet.IntP("max-redirects", "", def.MaxRedirects, "Number of redirects the server probe follows")
	flags.FVarP(flagSet, &jobTimeout, "job-timeout", "", "Time a network job may take before it is aborted")
}

// accountConfig returns the config the account options are read
// from: the explicitly set flags first, then the environment
func accountConfig(flagSet *pflag.FlagSet) configmap.Getter {
	m := configmap.New()
	m.AddGetter(configmap.Flags{Set: flagSet})
	if flag := flagSet.Lookup("job-timeout"); flag != nil && flag.Changed {
		// --timeout is the IO idle timeout of the transport
		m.AddGetter(configmap.Simple{"timeout": flag.Value.String()})
	}
	m.AddGetter(configmap.Env{Prefix: fs.EnvPrefix + "_ACCOUNT"})
	return m
}

// NewAccount makes the account described by the command line
func NewAccount(ctx context.Context) (*networkjobs.Account, error) {
	opt, err := networkjobs.NewOptions(accountConfig(accountFlags))
	if err != nil {
		return nil, err
	}
	acc, err := networkjobs.NewAccount(ctx, opt, nil, nil)
	if err != nil {
		return nil, err
	}
	acc.SetMetrics(jobMetrics)
	return acc, nil
}

// ShowVersion prints the version to stdout
func ShowVersion() {
	osVersion, osKernel := buildinfo.GetOSVersion()
	if osVersion == "" {
		osVersion = "unknown"
	}
	if osKernel == "" {
		osKernel = "unknown"
	}

	linking, tagString := buildinfo.GetLinkingAndTags()

	fmt.Printf("davsync %s\n", fs.Version)
	fmt.Printf("- os/version: %s\n", osVersion)
	fmt.Printf("- os/kernel: %s\n", osKernel)
	fmt.Printf("- os/type: %s\n", runtime.GOOS)
	fmt.Printf("- os/arch: %s\n", runtime.GOARCH)
	fmt.Printf("- go/version: %s\n", runtime.Version())
	fmt.Printf("- go/linking: %s\n", linking)
	fmt.Printf("- go/tags: %s\n", tagString)
}

// Run the function with the account described on the command line
// and exit with a code describing the error it returns
func Run(cmd *cobra.Command, f func(ctx context.Context, acc *networkjobs.Account) error) {
	ctx := context.Background()
	acc, err := NewAccount(ctx)
	if err != nil {
		UsageError(cmd, err)
	}
	cmdErr := f(ctx, acc)
	if cmdErr != nil && !errors.Is(cmdErr, ErrNotFound) {
		log.Printf("Failed to %s: %v", cmd.Name(), cmdErr)
	}
	fs.Debugf(nil, "%d go routines active", runtime.NumGoroutine())
	if err := writeMetrics(); err != nil {
		fs.Errorf(nil, "Failed to write metrics: %v", err)
	}
	resolveExitCode(cmdErr)
}

// CheckArgs checks there are enough arguments and prints a message if not
func CheckArgs(MinArgs, MaxArgs int, cmd *cobra.Command, args []string) {
	if len(args) < MinArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments minimum: you provided %d non flag arguments: %q\n", cmd.Name(), MinArgs, len(args), args)
		resolveExitCode(errorNotEnoughArguments)
	} else if len(args) > MaxArgs {
		_ = cmd.Usage()
		_, _ = fmt.Fprintf(os.Stderr, "Command %s needs %d arguments maximum: you provided %d non flag arguments: %q\n", cmd.Name(), MaxArgs, len(args), args)
		resolveExitCode(errorTooManyArguments)
	}
}

// UsageError prints the usage of cmd and err, then exits
func UsageError(cmd *cobra.Command, err error) {
	_ = cmd.Usage()
	_, _ = fmt.Fprintf(os.Stderr, "Command %s: %v\n", cmd.Name(), err)
	os.Exit(exitcode.UsageError)
}

// ParseKeyValues parses arguments of the form KEY=VALUE
func ParseKeyValues(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, errors.Errorf("%q is not of the form KEY=VALUE", arg)
		}
		out[key] = value
	}
	return out, nil
}

// initConfig is run by cobra after initialising the flags
func initConfig() {
	ctx := context.Background()
	ci := fs.GetConfig(ctx)

	// Finish parsing any command line flags
	configflags.SetFlags(ci)

	// Start the logger
	if err := fslog.InitLogging(ctx); err != nil {
		log.Fatalf("Failed to start logging: %v", err)
	}

	// Write the args for debug purposes
	fs.Debugf("davsync", "Version %q starting with parameters %q", fs.Version, os.Args)

	fshttp.StartHTTPTokenBucket(ctx)

	if metricsTextfile != "" {
		fshttp.DefaultMetrics = fshttp.NewMetrics("davsync")
		jobMetrics = networkjobs.NewMetrics("davsync")
	}
}

// writeMetrics writes the collected metrics in the text exposition
// format if --metrics-textfile was given
func writeMetrics() error {
	if metricsTextfile == "" {
		return nil
	}
	registry := prometheus.NewRegistry()
	collectors := append(fshttp.DefaultMetrics.Collectors(), jobMetrics.Collectors()...)
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return err
		}
	}
	return prometheus.WriteToTextfile(metricsTextfile, registry)
}

// ExitCode returns the process exit code for err
func ExitCode(err error) int {
	var (
		httpErr      *networkjobs.HTTPError
		transportErr *networkjobs.TransportError
		protocolErr  *networkjobs.ProtocolError
		timeoutErr   *networkjobs.TimeoutError
		notFoundErr  *networkjobs.InstanceNotFoundError
	)
	switch {
	case err == nil:
		return exitcode.Success
	case errors.Is(err, errorNotEnoughArguments), errors.Is(err, errorTooManyArguments):
		return exitcode.UsageError
	case errors.Is(err, ErrNotFound), errors.Is(err, networkjobs.ErrNoPrivateLink):
		return exitcode.FileNotFound
	case errors.As(err, &notFoundErr):
		return exitcode.DirNotFound
	case errors.As(err, &httpErr):
		if httpErr.Code == 404 {
			return exitcode.FileNotFound
		}
		if httpErr.Code >= 500 {
			return exitcode.RetryError
		}
		return exitcode.NoRetryError
	case errors.As(err, &timeoutErr), errors.As(err, &transportErr):
		return exitcode.RetryError
	case errors.As(err, &protocolErr):
		return exitcode.FatalError
	case fserrors.IsTimeout(err):
		return exitcode.RetryError
	}
	return exitcode.UncategorizedError
}

func resolveExitCode(err error) {
	os.Exit(ExitCode(err))
}

// Main runs davsync interpreting flags and commands out of os.Args
func Main() {
	if err := Root.Execute(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}
