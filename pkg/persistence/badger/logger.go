package badger

import (
	badgerdb "github.com/dgraph-io/badger/v3"
	"go.uber.org/zap"
)

// badgerLogger routes badger's printf-style logging into zap
type badgerLogger struct {
	sugar *zap.SugaredLogger
}

var _ badgerdb.Logger = (*badgerLogger)(nil)

func newBadgerLogger(logger *zap.Logger) *badgerLogger {
	return &badgerLogger{sugar: logger.Named("badger").Sugar()}
}

func (b *badgerLogger) Errorf(format string, args ...interface{}) { b.sugar.Errorf(format, args...) }

func (b *badgerLogger) Warningf(format string, args ...interface{}) { b.sugar.Warnf(format, args...) }

// Badger is chatty at info level, demote it
func (b *badgerLogger) Infof(format string, args ...interface{}) { b.sugar.Debugf(format, args...) }

func (b *badgerLogger) Debugf(format string, args ...interface{}) { b.sugar.Debugf(format, args...) }
