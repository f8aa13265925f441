package pathwise

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// zapLogger adapts a zap sugared logger to the Logger interface used
// throughout the package.
type zapLogger struct {
	log *zap.SugaredLogger
}

var _ Logger = (*zapLogger)(nil)

// NewZapLogger builds a production logger for the given component. Pass
// debug to lower the level and switch to console encoding.
func NewZapLogger(component string, debug bool) (Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg = zap.NewDevelopmentConfig()
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &zapLogger{
		log: base.Sugar().Named(component),
	}, nil
}

func (l *zapLogger) Debug(format string, args ...any) {
	l.log.Debugf(format, args...)
}

func (l *zapLogger) Info(format string, args ...any) {
	l.log.Infof(format, args...)
}

func (l *zapLogger) Warn(format string, args ...any) {
	l.log.Warnf(format, args...)
}

func (l *zapLogger) Error(format string, args ...any) {
	l.log.Errorf(format, args...)
}
