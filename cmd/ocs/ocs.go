// Package ocs provides the ocs command.
package ocs

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/networkjobs"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "ocs endpoint [KEY=VALUE...]",
	Short: `Call an OCS API endpoint.`,
	Long: `
Calls endpoint, relative to the server URL, asking for JSON.  Any
KEY=VALUE arguments are added to the query string.  The decoded reply
is printed indented, and the OCS status code is printed to stderr.

    $ davsync ocs ocs/v1.php/cloud/capabilities
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(1, 1<<16, command, args)
		params, err := cmd.ParseKeyValues(args[1:])
		if err != nil {
			cmd.UsageError(command, err)
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			job := networkjobs.NewJSONAPIJob(acc, args[0])
			job.Params = url.Values{}
			for key, value := range params {
				job.Params.Set(key, value)
			}
			reply, err := job.Run(ctx)
			if reply != nil {
				_, _ = fmt.Fprintf(os.Stderr, "OCS status code %d (HTTP %d)\n", reply.StatusCode, reply.HTTPStatus)
				if reply.Data != nil {
					out, jsonErr := json.MarshalIndent(reply.Data, "", "  ")
					if jsonErr != nil {
						return jsonErr
					}
					fmt.Println(string(out))
				}
			}
			return err
		})
	},
}
