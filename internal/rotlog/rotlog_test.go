package rotlog

import (
	"regexp"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var lineRE = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3} - (INFO|ERROR) - \d+ - .+\n$`)

func TestLineFormatterShape(t *testing.T) {
	f := &lineFormatter{}
	entry := &logrus.Entry{
		Level:   logrus.InfoLevel,
		Message: "exchange created",
		Data:    logrus.Fields{"pid": 4242},
		Time:    time.Now(),
	}

	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Regexp(t, lineRE, string(out))
}

func TestLineFormatterErrorLevel(t *testing.T) {
	f := &lineFormatter{}
	entry := &logrus.Entry{
		Level:   logrus.ErrorLevel,
		Message: "shmget failed",
		Data:    logrus.Fields{"pid": 1},
		Time:    time.Now(),
	}
	out, err := f.Format(entry)
	require.NoError(t, err)
	assert.Contains(t, string(out), " - ERROR - ")
}

func TestResolvePathFallsBackToTempDir(t *testing.T) {
	path := resolvePath("", "launchsupervisor")
	assert.Contains(t, path, "launchsupervisor.log")
}

func TestResolvePathUsesDataDirLogsSubdir(t *testing.T) {
	dir := t.TempDir()
	path := resolvePath(dir, "launchsupervisor")
	assert.Contains(t, path, "logs")
	assert.Contains(t, path, dir)
}
