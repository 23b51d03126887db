// Package avatar provides the avatar command.
package avatar

import (
	"context"
	"os"
	"strconv"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/fs"
	"github.com/davsync/davsync/networkjobs"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
}

var commandDefinition = &cobra.Command{
	Use:   "avatar user size file",
	Short: `Download the avatar of a user.`,
	Long: `
Probes the server to learn its version, then downloads the avatar of
user at size pixels into file.  If the server has no avatar image for
the user nothing is written and the exit code is 4.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(3, 3, command, args)
		size, err := strconv.Atoi(args[1])
		if err != nil || size <= 0 {
			cmd.UsageError(command, errors.Errorf("bad size %q", args[1]))
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			return Fetch(ctx, acc, args[0], size, args[2])
		})
	},
}

// Fetch probes the server and writes the avatar of user to file
func Fetch(ctx context.Context, acc *networkjobs.Account, user string, size int, file string) error {
	if _, err := networkjobs.NewCheckServerJob(acc).Run(ctx); err != nil {
		return err
	}
	image, err := networkjobs.NewAvatarJob(acc, user, size).Run(ctx)
	if err != nil {
		return err
	}
	if image == nil {
		fs.Logf(user, "No avatar image")
		return cmd.ErrNotFound
	}
	if err := os.WriteFile(file, image, 0644); err != nil {
		return err
	}
	fs.Infof(user, "Wrote %d bytes of avatar to %q", len(image), file)
	return nil
}
