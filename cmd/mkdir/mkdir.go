// Package mkdir provides the mkdir command.
package mkdir

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
	Use:   "mkdir path",
	Short: `Make a collection.`,
	Long: `
Makes the collection path in the WebDAV tree with MKCOL.  The parent
must exist already.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			if err := networkjobs.NewMkColJob(acc, args[0]).Run(ctx); err != nil {
				return err
			}
			fs.Infof(args[0], "Made collection")
			return nil
		})
	},
}
