package log

import (
	"github.com/TheZeroSlave/zapsentry"
	"github.com/mattn/go-colorable"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"os"
	"path/filepath"
)

type Options struct {
	Dir       string
	App       string
	Network   string
	Debug     bool
	SentryDsn string
}

func (o Options) level() zapcore.Level {
	if o.Debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// NewLogger installs the global zap logger and returns it so the caller can
// Sync before exit. Records are written as JSON lines to <dir>/<app>.log and
// in colour to stdout; the console keeps working when the file cannot be
// opened. Errors are forwarded to Sentry when a DSN is set.
func NewLogger(opts Options) *zap.Logger {
	cores := []zapcore.Core{consoleCore(opts.level())}
	file, fileErr := fileCore(opts.Dir, opts.App, opts.level())
	if fileErr == nil {
		cores = append(cores, file)
	}

	logger := zap.New(zapcore.NewTee(cores...)).With(
		zap.String("app", opts.App),
		zap.String("network", opts.Network),
	)
	if fileErr != nil {
		logger.With(zap.String("dir", opts.Dir), zap.Error(fileErr)).Warn("Logger: Logging to console only")
	}

	if opts.SentryDsn != "" {
		logger = withSentry(logger, opts)
	}

	zap.ReplaceGlobals(logger)

	return logger
}

func encoderConfig() zapcore.EncoderConfig {
	ec := zap.NewProductionEncoderConfig()
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.MessageKey = "message"
	ec.TimeKey = "time"

	return ec
}

func fileCore(dir, app string, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(filepath.Join(dir, app+".log"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig()), zapcore.AddSync(f), level), nil
}

func consoleCore(level zapcore.Level) zapcore.Core {
	ec := encoderConfig()
	ec.EncodeLevel = zapcore.CapitalColorLevelEncoder

	return zapcore.NewCore(zapcore.NewConsoleEncoder(ec), zapcore.AddSync(colorable.NewColorableStdout()), level)
}

// withSentry reports errors with the trades logged at info level before them
// as breadcrumbs.
func withSentry(logger *zap.Logger, opts Options) *zap.Logger {
	cfg := zapsentry.Configuration{
		Level:             zapcore.ErrorLevel,
		EnableBreadcrumbs: true,
		BreadcrumbLevel:   zapcore.InfoLevel,
		Tags: map[string]string{
			"component": "marketplace",
			"app":       opts.App,
			"network":   opts.Network,
		},
	}
	core, err := zapsentry.NewCore(cfg, zapsentry.NewSentryClientFromDSN(opts.SentryDsn))

	logger = logger.With(zapsentry.NewScope())

	// A failed client yields a noop core, which is safe to attach.
	if err != nil {
		logger.With(zap.Error(err)).Warn("Logger: Unable to init sentry")
	}
	return zapsentry.AttachCoreToLogger(core, logger)
}
