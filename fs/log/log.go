// Package log provides logging for davsync
package log

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/davsync/davsync/fs"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options contains options for controlling the logging
type Options struct {
	File       string      `config:"log_file"`             // Log everything to this file
	MaxSize    int         `config:"log_file_max_size"`    // Max size of log file in MiB, 0 for no rotation
	MaxBackups int         `config:"log_file_max_backups"` // Max backups of log file
	MaxAge     fs.Duration `config:"log_file_max_age"`     // Max age of of log file
	Compress   bool        `config:"log_file_compress"`    // Set to compress log file
	NoColor    bool        `config:"log_no_color"`         // Disable colours in the text format
}

// Opt is the options for the logger
var Opt Options

// formatter returns the logrus formatter for the config passed in
func formatter(ci *fs.ConfigInfo) logrus.Formatter {
	if ci.UseJSONLog {
		return &logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
		}
	}
	return &logrus.TextFormatter{
		FullTimestamp:    true,
		TimestampFormat:  "2006/01/02 15:04:05",
		DisableColors:    Opt.NoColor || Opt.File != "",
		QuoteEmptyFields: true,
	}
}

// openLogFile opens the log file, rotating it if a max size is set
func openLogFile() (io.Writer, error) {
	if Opt.MaxSize <= 0 {
		return os.OpenFile(Opt.File, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0640)
	}
	days := int(time.Duration(Opt.MaxAge).Hours()/24 + 0.5)
	if Opt.MaxAge > 0 && days == 0 {
		days = 1
	}
	return &lumberjack.Logger{
		Filename:   Opt.File,
		MaxSize:    Opt.MaxSize, // MiB
		MaxBackups: Opt.MaxBackups,
		MaxAge:     days,
		Compress:   Opt.Compress,
		LocalTime:  true, // format log file names in localtime
	}, nil
}

// InitLogging starts the logging as per the command line flags
func InitLogging(ctx context.Context) error {
	ci := fs.GetConfig(ctx)
	logger := logrus.StandardLogger()

	if Opt.File != "" {
		w, err := openLogFile()
		if err != nil {
			return err
		}
		logger.SetOutput(w)
	} else {
		logger.SetOutput(os.Stderr)
	}
	logger.SetFormatter(formatter(ci))
	logger.SetLevel(ci.LogLevel.Logrus())
	fs.Debugf(nil, "Logging at level %v to %q", ci.LogLevel, Opt.File)
	return nil
}
