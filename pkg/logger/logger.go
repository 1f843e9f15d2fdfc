// Package logger defines the logging contract shared by every figma-sync
// package. A *zap.SugaredLogger satisfies it as-is.
package logger

// Logger receives progress messages. A nil Logger means silent operation.
type Logger interface {
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

type nop struct{}

func (nop) Infof(string, ...any)  {}
func (nop) Warnf(string, ...any)  {}
func (nop) Errorf(string, ...any) {}

// Nop discards everything.
var Nop Logger = nop{}

// OrNop returns l, or Nop when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return Nop
	}
	return l
}
