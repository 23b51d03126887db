// Package etag provides the etag command.
package etag

import (
	"context"
	"fmt"
	"time"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/networkjobs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "etag [path]",
	Short: `Print the ETag of a resource.`,
	Long: `
Prints the ETag of path in the WebDAV tree, with quotes and any -gzip
suffix removed, followed by the server time of the reply if the
server sent a Date header.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		remote := ""
		if len(args) > 0 {
			remote = args[0]
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			etag, err := networkjobs.NewEtagJob(acc, remote).Run(ctx)
			if err != nil {
				return err
			}
			if etag.Timestamp.IsZero() {
				fmt.Println(etag.ETag)
			} else {
				fmt.Printf("%s\t%s\n", etag.ETag, etag.Timestamp.Format(time.RFC3339))
			}
			return nil
		})
	},
}
