package cli

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/zlobste/ip6target/target"
)

const (
	logMaxSizeMB  = 100
	logMaxBackups = 3
	logMaxAgeDays = 28
)

func newLogger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, nil)).With("component", target.ComponentName)
}

// setupLog points the logger at the rotated log file when one is configured,
// otherwise at stderr.
func (a *app) setupLog(stderr io.Writer) {
	if a.logFile == "" {
		a.logger = newLogger(stderr)
		return
	}
	lj := &lumberjack.Logger{
		Filename:   a.logFile,
		MaxSize:    logMaxSizeMB,
		MaxBackups: logMaxBackups,
		MaxAge:     logMaxAgeDays,
	}
	a.logger = newLogger(lj)
	a.logOut = lj
}

func (a *app) log() *slog.Logger {
	if a.logger == nil {
		a.logger = newLogger(os.Stderr)
	}
	return a.logger
}

func (a *app) closeLog() {
	if a.logOut != nil {
		_ = a.logOut.Close()
		a.logOut = nil
	}
}
