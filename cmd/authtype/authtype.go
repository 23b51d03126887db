// Package authtype provides the authtype command.
package authtype

import (
	"context"
	"fmt"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/networkjobs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "authtype",
	Short: `Print which authentication the server asks for.`,
	Long: `
Sends an unauthenticated PROPFIND to the WebDAV tree and prints
"oauth" if the server offers a Bearer challenge, otherwise "basic".
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 0, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			authType, err := networkjobs.NewDetermineAuthTypeJob(acc).Run(ctx)
			if err != nil {
				return err
			}
			fmt.Println(authType)
			return nil
		})
	},
}
