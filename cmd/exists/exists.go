// Package exists provides the exists command.
package exists

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
	Use:   "exists path",
	Short: `Check whether a path exists on the server.`,
	Long: `
Sends HEAD to path, relative to the server URL, and exits with 0 if
it exists or with the "file not found" exit code (4) if the server
answered 404.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			found, err := networkjobs.NewEntityExistsJob(acc, args[0]).Run(ctx)
			if err != nil {
				return err
			}
			if !found {
				fs.Logf(args[0], "Not found")
				return cmd.ErrNotFound
			}
			fs.Infof(args[0], "Exists")
			return nil
		})
	},
}
