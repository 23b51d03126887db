// Package props provides the props command.
package props

import (
	"context"
	"fmt"
	"sort"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/networkjobs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "props path property...",
	Short: `Read properties of a resource.`,
	Long: `
Reads the properties named with a depth 0 PROPFIND and prints those
the server returned as name=value, sorted by name.  Properties are
given as name for DAV: properties or as namespace:name.

    $ davsync props Documents getetag http://owncloud.org/ns:fileid
    fileid=00000042ocabcdef
    getetag="5f3c8a1b2"
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 1<<16, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			job := networkjobs.NewPropfindJob(acc, args[0])
			job.Properties = args[1:]
			props, err := job.Run(ctx)
			if err != nil {
				return err
			}
			names := make([]string, 0, len(props))
			for name := range props {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("%s=%s\n", name, props[name])
			}
			return nil
		})
	},
}
