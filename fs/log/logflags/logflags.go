// Package logflags implements command line flags to set up the log
package logflags

import (
	"github.com/davsync/davsync/fs/config/flags"
	"github.com/davsync/davsync/fs/log"
	"github.com/spf13/pflag"
)

// AddFlags adds the log flags to the flagSet
func AddFlags(flagSet *pflag.FlagSet) {
	flags.StringVarP(flagSet, &log.Opt.File, "log-file", "", log.Opt.File, "Log everything to this file")
	flags.IntVarP(flagSet, &log.Opt.MaxSize, "log-file-max-size", "", log.Opt.MaxSize, "Maximum size in MiB of the log file before it's rotated (0 to disable)")
	flags.IntVarP(flagSet, &log.Opt.MaxBackups, "log-file-max-backups", "", log.Opt.MaxBackups, "Maximum number of old log files to retain")
	flags.FVarP(flagSet, &log.Opt.MaxAge, "log-file-max-age", "", "Maximum duration to retain old log files (e.g. 7d)")
	flags.BoolVarP(flagSet, &log.Opt.Compress, "log-file-compress", "", log.Opt.Compress, "If set, compress rotated log files using gzip")
	flags.BoolVarP(flagSet, &log.Opt.NoColor, "log-no-color", "", log.Opt.NoColor, "Don't use colours in the text log format")
}
