// Package rotlog builds the Supervisor's append-only, size-capped log,
// grounded on shlaunch.c's log_it (rename-to-.1-then-reopen at a size
// cap) but implemented atop lumberjack rather than reimplementing the
// rotation by hand. See spec §4.5.
package rotlog

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

// maxLogFileSizeMiB mirrors shlaunch.c's MAX_LOG_FILE_SIZE (1 MiB),
// expressed in the megabytes lumberjack.Logger.MaxSize wants rather
// than bytes.
const maxLogFileSizeMiB = 1

// timestampFormat renders "YYYY-MM-DD HH:MM:SS,mmm" per spec §4.5. Go's
// time layout supports a comma as the fractional-seconds separator, so
// this produces the comma-millis form directly without post-processing.
const timestampFormat = "2006-01-02 15:04:05,000"

// New builds a logger that writes "<dataDir>/logs/<name>.log", falling
// back to a file in the system temp directory if the logs directory
// can't be created. Whether the file itself is writable is not checked.
// lumberjack opens the file on the first write and keeps it open until
// it rotates; the file is not reopened per write, so lines written after
// an external rename or deletion go to the old file.
func New(dataDir, name string) logrus.FieldLogger {
	path := resolvePath(dataDir, name)

	l := logrus.New()
	l.SetFormatter(&lineFormatter{})
	l.SetOutput(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxLogFileSizeMiB,
		MaxBackups: 1, // keep exactly one generation, spec §4.5
		Compress:   false,
	})
	l.SetLevel(logrus.InfoLevel)
	return l.WithField("pid", os.Getpid())
}

func resolvePath(dataDir, name string) string {
	if dataDir != "" {
		logsDir := filepath.Join(dataDir, "logs")
		if err := os.MkdirAll(logsDir, 0755); err == nil {
			return filepath.Join(logsDir, name+".log")
		}
	}
	return filepath.Join(os.TempDir(), name+".log")
}

// lineFormatter renders "YYYY-MM-DD HH:MM:SS,mmm - LEVEL - pid - message",
// the exact shape required by spec §4.5, with only INFO and ERROR used.
type lineFormatter struct{}

func (f *lineFormatter) Format(e *logrus.Entry) ([]byte, error) {
	level := "INFO"
	if e.Level <= logrus.ErrorLevel {
		level = "ERROR"
	}
	pid := e.Data["pid"]
	line := fmt.Sprintf("%s - %s - %v - %s\n", e.Time.Format(timestampFormat), level, pid, e.Message)
	return []byte(line), nil
}
