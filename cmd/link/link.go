// Package link provides the link command.
package link

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
	Use:   "link path",
	Short: `Print the private link of a file or folder.`,
	Long: `
davsync link asks the server for the private link of the given file
or folder in the WebDAV tree.

    davsync link Documents/report.odt

If the server only returns the file id the link is made from it as
<url>/f/<fileid>.  The link only works for users who can already
access the file.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1, command, args)
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			link, err := networkjobs.FetchPrivateLinkURL(ctx, acc, args[0])
			if err != nil {
				return err
			}
			fmt.Println(link)
			return nil
		})
	},
}
