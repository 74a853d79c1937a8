package transientdb

import (
	"log"

	"github.com/dgraph-io/badger/v4"
)

// badgerLogger adapts Badger's chatty Logger interface onto a single
// stdlib *log.Logger. Debug/Info are always dropped; Badger's
// compaction and value-log GC chatter is not useful at the engine's log
// level.
type badgerLogger struct {
	out *log.Logger
}

var _ badger.Logger = (*badgerLogger)(nil)

func newBadgerLogger(out *log.Logger) *badgerLogger {
	return &badgerLogger{out: out}
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.out.Printf("badger error: "+format, args...)
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.out.Printf("badger warning: "+format, args...)
}

func (l *badgerLogger) Infof(format string, args ...interface{})  {}
func (l *badgerLogger) Debugf(format string, args ...interface{}) {}
