package parse

// Logger is the diagnostic capability the pipeline needs. It is satisfied by
// *logrus.Logger and *logrus.Entry; components default to a no-op so parsing
// outcomes never depend on a logging sink being configured.
type Logger interface {
	Debugf(format string, args ...interface{})
	Warnf(format string, args ...interface{})
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}

func (nopLogger) Warnf(string, ...interface{}) {}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger { return nopLogger{} }
