package logging

import (
	"os"
	"strings"
	"time"

	"github.com/2beens/workoutlog/pkg"

	"github.com/getsentry/sentry-go"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	ComponentCLI    = "cli"
	ComponentServer = "server"

	sentryFlushTimeout = 2 * time.Second
)

type LoggerSetupParams struct {
	// Component ends up in the "component" field of every entry and, unless
	// SentryServerName is set, in the sentry server name
	Component        string
	LogFileName      string
	LogToStdout      bool
	LogLevel         string
	LogFormatJSON    bool
	Environment      string
	SentryEnabled    bool
	SentryDSN        string
	SentryServerName string
	MaxBackups       int // rotated files to keep, 0 keeps all
}

// Setup configures the global logrus logger for the cli or the server.
// Without a log file name logs go to stdout only.
//
// The returned func flushes buffered sentry events. The cli calls it before
// exiting, since os.Exit skips deferred calls.
func Setup(params LoggerSetupParams) (flush func()) {
	flush = func() {}

	if params.LogFormatJSON {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	logrus.SetLevel(GetLevel(params.LogLevel))

	if params.Component != "" {
		logrus.AddHook(&componentHook{component: params.Component})
	}

	if params.SentryEnabled {
		serverName := params.SentryServerName
		if serverName == "" && params.Component != "" {
			serverName = "workoutlog-" + params.Component
		}
		err := sentry.Init(sentry.ClientOptions{
			Environment:      params.Environment,
			Dsn:              params.SentryDSN,
			TracesSampleRate: 1.0,
			ServerName:       serverName,
		})
		if err != nil {
			logrus.Errorf("sentry.Init: %s", err)
		} else {
			logrus.AddHook(NewSentryHook([]logrus.Level{
				logrus.PanicLevel,
				logrus.FatalLevel,
				logrus.ErrorLevel,
			}))
			flush = func() {
				sentry.Flush(sentryFlushTimeout)
			}
			logrus.Infof("sentry set up for %s", serverName)
		}
	}

	if params.LogFileName == "" {
		logrus.SetOutput(os.Stdout)
		logrus.Debugln("writing logs only to STDOUT")
		return flush
	}

	if !strings.HasSuffix(params.LogFileName, ".log") {
		params.LogFileName += ".log"
	}

	fileLogger := &lumberjack.Logger{
		Filename:   params.LogFileName,
		MaxSize:    50,    // megabytes
		LocalTime:  false, // false -> use UTC
		Compress:   true,
		MaxBackups: params.MaxBackups,
	}

	if params.LogToStdout {
		logrus.SetOutput(pkg.NewCombinedWriter(os.Stdout, fileLogger))
		logrus.Debugf("writing logs to [%s] and STDOUT", params.LogFileName)
	} else {
		logrus.SetOutput(fileLogger)
	}

	return flush
}

// GetLevel parses a config log level. Unknown or empty levels fall back to
// info.
func GetLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

type componentHook struct {
	component string
}

func (h *componentHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *componentHook) Fire(entry *logrus.Entry) error {
	if _, ok := entry.Data["component"]; !ok {
		entry.Data["component"] = h.component
	}
	return nil
}
