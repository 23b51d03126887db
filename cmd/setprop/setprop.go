// Package setprop provides the setprop command.
package setprop

import (
	"context"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/networkjobs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "setprop path NAME=VALUE...",
	Short: `Set properties of a resource.`,
	Long: `
Sets the properties given with a PROPPATCH.  NAME is a DAV: property
name or namespace:name, the namespace being everything up to the
last colon.

    $ davsync setprop Documents http://owncloud.org/ns:favorite=1
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(2, 1<<16, command, args)
		props, err := cmd.ParseKeyValues(args[1:])
		if err != nil {
			cmd.UsageError(command, err)
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			job := networkjobs.NewProppatchJob(acc, args[0])
			job.Properties = props
			if err := job.Run(ctx); err != nil {
				return err
			}
			fs.Infof(args[0], "Set %d properties", len(props))
			return nil
		})
	},
}
