// Package ls provides the ls command.
package ls

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/davsync/davsync/cmd"
	"github.com/davsync/davsync/fs/config/flags"
	"github.com/davsync/davsync/networkjobs"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	humanReadable = false
	properties    []string
)

func init() {
	cmd.Root.AddCommand(commandDefinition)
	cmdFlags := commandDefinition.Flags()
	flags.BoolVarP(cmdFlags, &humanReadable, "human-readable", "", humanReadable, "Print sizes in human readable format")
	flags.StringArrayVarP(cmdFlags, &properties, "prop", "p", nil, "Extra property to ask for, as name or namespace:name (repeat for more)")
}

var commandDefinition = &cobra.Command{
	Use:   "ls [path]",
	Short: `List the contents of a collection.`,
	Long: `
Lists the collection at path in the WebDAV tree with a depth 1
PROPFIND.  Entries are printed as they are parsed, one per line:
the size, then the href with a trailing "/" for collections.

    $ davsync ls --url https://cloud.example.com -u me Photos
           -1 /remote.php/webdav/Photos/
          -1 /remote.php/webdav/Photos/2023/
      1234567 /remote.php/webdav/Photos/cat.jpg

The collection itself is the first entry.  Collections without a
size are printed with -1.  Any extra properties asked for with --prop
are printed after the href as name=value.
`,
	Run: func(command *cobra.Command, args []string) {
		cmd.CheckArgs(0, 1, command, args)
		remote := ""
		if len(args) > 0 {
			remote = args[0]
		}
		cmd.Run(command, func(ctx context.Context, acc *networkjobs.Account) error {
			_, err := List(ctx, acc, remote, os.Stdout)
			return err
		})
	},
}

// List lists remote writing each entry to out as it is parsed
func List(ctx context.Context, acc *networkjobs.Account, remote string, out io.Writer) (*networkjobs.Listing, error) {
	job := networkjobs.NewLsColJob(acc, remote)
	job.Properties = append([]string{"resourcetype", "getcontentlength", networkjobs.NamespaceOwnCloud + ":size"}, properties...)
	job.OnEntry = func(entry networkjobs.DirectoryEntry) {
		_, _ = fmt.Fprintln(out, formatEntry(entry))
	}
	return job.Run(ctx)
}

func parseSize(s string) (int64, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n, err == nil && n >= 0
}

// formatEntry turns entry into a line of output
func formatEntry(entry networkjobs.DirectoryEntry) string {
	size := "-1"
	n, ok := entry.Size, entry.HasSize
	if !ok {
		// plain WebDAV servers only know getcontentlength
		n, ok = parseSize(entry.Properties["getcontentlength"])
	}
	if ok {
		size = strconv.FormatInt(n, 10)
		if humanReadable {
			size = humanize.IBytes(uint64(n))
		}
	}
	name := entry.Href
	if entry.IsCollection {
		name += "/"
	}
	line := fmt.Sprintf("%12s %s", size, name)
	var extra []string
	for _, prop := range properties {
		local := prop[strings.LastIndex(prop, ":")+1:]
		if value, ok := entry.Properties[local]; ok {
			extra = append(extra, local+"="+value)
		}
	}
	sort.Strings(extra)
	if len(extra) > 0 {
		line += " " + strings.Join(extra, " ")
	}
	return line
}
