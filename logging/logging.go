package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	logger  = newLogger(os.Stderr, logrus.WarnLevel)
	logFile *os.File
	mu      sync.Mutex
	isSetup bool
)

func newLogger(out io.Writer, level logrus.Level) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return l
}

// SetupLogger sends debug output to the specified log file.
// Warnings and errors keep going to stderr as well.
func SetupLogger(logFilePath string) error {
	mu.Lock()
	defer mu.Unlock()

	// Check if logger is already set up
	if isSetup {
		return nil
	}

	var err error
	logFile, err = os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}

	logger.SetOutput(logFile)
	logger.SetLevel(logrus.DebugLevel)
	logger.AddHook(stderrHook{})
	logger.Debugf("--- ImageCompare Debug Log Started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetOutput redirects all log records, mainly for tests
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()

	logger.SetOutput(w)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}
}

// CloseLogger closes the log file
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Debugf("--- ImageCompare Debug Log Closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		isSetup = false
		logger.ReplaceHooks(make(logrus.LevelHooks))
		logger.SetOutput(os.Stderr)
		logger.SetLevel(logrus.WarnLevel)
	}
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogImageProcessed logs when an image is loaded
func LogImageProcessed(path string, success bool, errMsg string) {
	if success {
		logger.WithField("path", path).Debug("PROCESSED")
	} else {
		logger.WithField("path", path).Warnf("FAILED: %s", errMsg)
	}
}

// LogPairFailed logs a comparison that could not be scored
func LogPairFailed(a, b string, err error) {
	logger.WithFields(logrus.Fields{"a": a, "b": b}).Warnf("comparison failed: %v", err)
}

// stderrHook echoes warnings and errors to stderr while debug output goes to the log file
type stderrHook struct{}

func (stderrHook) Levels() []logrus.Level {
	return []logrus.Level{logrus.PanicLevel, logrus.FatalLevel, logrus.ErrorLevel, logrus.WarnLevel}
}

func (stderrHook) Fire(entry *logrus.Entry) error {
	line, err := entry.String()
	if err != nil {
		return err
	}
	_, err = io.WriteString(os.Stderr, line)
	return err
}
