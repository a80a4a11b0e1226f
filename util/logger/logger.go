package logger

import (
	"fmt"
	"io"
	stdlog "log"
	"os"
	"path"
	"path/filepath"

	"github.com/op/go-logging"
)

/*
InitLogger creates and returns a logger suitable for logging
human-readable message. Also returns the path to the log file.
If logDir is empty, this logs to stderr and returns an empty path.
*/
func InitLogger(logDir string, logLevel logging.Level) (*logging.Logger, string) {
	processName := path.Base(os.Args[0])
	var writer io.Writer = os.Stderr
	filename := ""
	if logDir != "" {
		filename = filepath.Join(logDir, fmt.Sprintf("%s.log", processName))
		err := os.MkdirAll(logDir, 0755)
		if err == nil {
			writer, err = os.OpenFile(filename, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0644)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Cannot open log file '%s': %v\n", filename, err)
			os.Exit(1)
		}
	}
	log := logging.MustGetLogger(processName)
	format := logging.MustStringFormatter("[%{level}] %{message}")
	logging.SetFormatter(format)
	logBackend := logging.NewLogBackend(writer, "", stdlog.LstdFlags|stdlog.LUTC)
	leveled := logging.AddModuleLevel(logBackend)
	leveled.SetLevel(logLevel, "")
	logging.SetBackend(leveled)
	return log, filename
}
