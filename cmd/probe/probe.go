// Package probe provides the probe command.
package probe

import (
	"context"
	"fmt"
	"net/url"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/fs/config/flags"
	"github.com/davsync/davsync/networkjobs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	checkers = 4
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.IntVarP(cmdFlags, &checkers, "checkers", "", checkers, "Number of servers to probe in parallel")
}

var commandDefinition = &cobra.Command{
	Use:   "probe [url...]",
	Short: `Check whether an ownCloud style server lives at a URL.`,
	Long: `
Reads status.php from the URL of the account, or from each URL given,
without sending credentials.  If status.php isn't found it is tried
again below owncloud/.

For every server found it prints where the server really lives, after
redirects, followed by its product name, version and edition.

    $ davsync probe --url https://cloud.example.com
    https://cloud.example.com	ownCloud 10.11.0.6 (Community)

Redirects from https to http are refused.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1<<16, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			bases := []*url.URL{acc.URL()}
			if len(args) > 0 {
				bases = bases[:0]
				for _, arg := range args {
					u, err := url.Parse(arg)
					if err != nil {
						return errors.Wrapf(err, "bad url %q", arg)
					}
					bases = append(bases, u)
				}
			}
			results, err := Probe(ctx, acc, bases, checkers)
			for _, info := range results {
				if info != nil {
					fmt.Println(Format(info))
				}
			}
			return err
		})
	},
}

// Probe checks each of bases with up to parallel probes at once.
//
// The results are in the same order as bases, with nil for the
// servers not found.  The first error is returned.
func Probe(ctx context.Context, acc *networkjobs.Account, bases []*url.URL, parallel int) ([]*networkjobs.ServerInfo, error) {
	results := make([]*networkjobs.ServerInfo, len(bases))
	// Not errgroup.WithContext: one failed server must not cancel
	// the others.
	g := new(errgroup.Group)
	if parallel > 0 {
		g.SetLimit(parallel)
	}
	for i, base := range bases {
		i, base := i, base
		g.Go(func() error {
			job := networkjobs.NewCheckServerJobURL(acc, base)
			job.OnRedirect = func(from, to *url.URL) {
				fs.Infof(nil, "%s: redirected to %s", from.Redacted(), to.Redacted())
			}
			info, err := job.Run(ctx)
			if err != nil {
				fs.Errorf(nil, "%s: %v", base.Redacted(), err)
				return err
			}
			results[i] = info
			return nil
		})
	}
	err := g.Wait()
	return results, err
}

// Format describes info on one line
func Format(info *networkjobs.ServerInfo) string {
	s := info.Status
	out := fmt.Sprintf("%s\t%s %s", info.URL.Redacted(), s.ProductName, s.Version)
	if s.Edition != "" {
		out += " (" + s.Edition + ")"
	}
	if s.Maintenance {
		out += " [maintenance]"
	}
	if s.NeedsDBUpgrade {
		out += " [needs db upgrade]"
	}
	return out
}
