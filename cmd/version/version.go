// Package version provides the version command.
package version

import (
	"context"
	"fmt"

	"github.com/coreos/go-semver/semver"
	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/flags"
	"github.com/davsync/davsync/networkjobs"
	"github.com/davsync/davsync/networkjobs/api"
	"github.com/spf13/cobra"
)

var (
	check = false
)

// minServerVersion is the oldest server the avatar and private link
// endpoints are known to work with
var minServerVersion = semver.Version{Major: 10}

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &check, "check", "", false, "Probe the server of the account and show its version too")
}

var commandDefinition = &cobra.Command{
	Use:   "version",
	Short: `Show the version number.`,
	Long: `Show the davsync version number, the go version, the build target
OS and architecture, the runtime OS and kernel version and bitness,
build tags and the type of executable (static or dynamic).

For example:

    $ davsync version
    davsync v0.3.0
    - os/version: ubuntu 22.04 (64 bit)
    - os/kernel: 5.15.0-91-generic (x86_64)
    - os/type: linux
    - os/arch: amd64
    - go/version: go1.22.1
    - go/linking: static
    - go/tags: none

If you supply the --check flag, then the server of the account is
probed and its version is shown as well.

    $ davsync version --check --url https://cloud.example.com
    yours:  0.3.0
    server: 10.11.0.6-ownCloud    (Community)
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		if !check {
			cmd.ShowVersion()
			return
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			return CheckVersion(ctx, acc)
		})
	},
}

// strip a leading v off the string
func stripV(s string) string {
	if len(s) > 0 && s[0] == 'v' {
		return s[1:]
	}
	return s
}

// CheckVersion probes the server of acc and prints both versions
func CheckVersion(ctx context.Context, acc *networkjobs.Account) error {
	vCurrent, err := semver.NewVersion(stripV(fs.Version))
	if err != nil {
		fs.Errorf(nil, "Failed to parse version: %v", err)
	} else {
		fmt.Printf("yours:  %-13s\n", vCurrent)
	}
	info, err := networkjobs.NewCheckServerJob(acc).Run(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("server: %-20s (%s)\n", info.Status.DisplayVersion(), info.Status.Edition)
	if !supported(info.Status) {
		fmt.Printf("  warning: servers older than %v are not fully supported\n", minServerVersion)
	}
	return nil
}

// supported returns false if the server reports a version older than
// minServerVersion.  Versions which can't be parsed are let through.
func supported(status *api.ServerStatus) bool {
	v, err := status.SemVer()
	if err != nil {
		return true
	}
	return !v.LessThan(minServerVersion)
}
