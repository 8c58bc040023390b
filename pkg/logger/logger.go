package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Logger is the process-wide logrus instance.
	Logger *logrus.Logger
	// currentLogFile is the active log file path, empty when console-only.
	currentLogFile string
	logMu          sync.Mutex
)

// Config controls log level and file output.
type Config struct {
	Level      string // debug, info, warn, error
	OutputFile string // empty means console only
	MaxSize    int    // MB per file before rotation
	MaxBackups int    // rotated files to keep
	MaxAge     int    // days to keep rotated files
	Compress   bool
}

// Init sets up the global logger. Output goes to stdout and, when
// OutputFile is set, to a lumberjack-rotated file as well.
func Init(config Config) error {
	logMu.Lock()
	defer logMu.Unlock()

	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	formatter := &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "06-01-02 15:04:05",
	}
	log.SetFormatter(formatter)

	writers := []io.Writer{os.Stdout}
	if config.OutputFile != "" {
		logDir := filepath.Dir(config.OutputFile)
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return err
		}
		writers = append(writers, &lumberjack.Logger{
			Filename:   config.OutputFile,
			MaxSize:    config.MaxSize,
			MaxBackups: config.MaxBackups,
			MaxAge:     config.MaxAge,
			Compress:   config.Compress,
		})
		currentLogFile = config.OutputFile
	}

	multiWriter := io.MultiWriter(writers...)
	log.SetOutput(multiWriter)

	// Mirror onto the global logrus logger so logrus.WithField callers
	// outside this package land in the same file.
	logrus.SetOutput(multiWriter)
	logrus.SetLevel(level)
	logrus.SetFormatter(formatter)

	Logger = log
	return nil
}

// InitDefault initializes the logger with console-only info output.
func InitDefault() error {
	return Init(Config{Level: "info"})
}

func Debug(args ...interface{}) {
	if Logger != nil {
		Logger.Debug(args...)
	}
}

func Debugf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Debugf(format, args...)
	}
}

func Info(args ...interface{}) {
	if Logger != nil {
		Logger.Info(args...)
	}
}

func Infof(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Infof(format, args...)
	}
}

func Warn(args ...interface{}) {
	if Logger != nil {
		Logger.Warn(args...)
	}
}

func Warnf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Warnf(format, args...)
	}
}

func Error(args ...interface{}) {
	if Logger != nil {
		Logger.Error(args...)
	}
}

func Errorf(format string, args ...interface{}) {
	if Logger != nil {
		Logger.Errorf(format, args...)
	}
}

// WithField returns an entry carrying one structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	if Logger != nil {
		return Logger.WithField(key, value)
	}
	return logrus.NewEntry(logrus.New())
}

// WithFields returns an entry carrying multiple structured fields.
func WithFields(fields logrus.Fields) *logrus.Entry {
	if Logger != nil {
		return Logger.WithFields(fields)
	}
	return logrus.NewEntry(logrus.New())
}

// GetCurrentLogFile returns the active log file path, if any.
func GetCurrentLogFile() string {
	logMu.Lock()
	defer logMu.Unlock()
	return currentLogFile
}
