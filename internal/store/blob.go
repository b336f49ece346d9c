package store

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
)

const (
	LogsKey    = "rehab360/daily_logs"
	SessionKey = "rehab360/session"
)

var ErrBlobNotFound = errors.New("blob not found")

// BlobStore is the local durable key/value area the store persists into.
type BlobStore interface {
	Get(key string) ([]byte, error)
	Put(key string, value []byte) error
	Delete(key string) error
	Close() error
}

type BadgerBlobConfig struct {
	Dir      string
	InMemory bool
	Logger   *zap.Logger
}

type BadgerBlob struct {
	db *badger.DB
}

func OpenBadgerBlob(cfg BadgerBlobConfig) (*BadgerBlob, error) {
	var options badger.Options
	if cfg.InMemory {
		options = badger.DefaultOptions("").WithInMemory(true)
	} else {
		dir := strings.TrimSpace(cfg.Dir)
		if dir == "" {
			return nil, errors.New("blob directory is required")
		}
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("create blob directory %s: %w", dir, err)
		}
		options = badger.DefaultOptions(dir).WithSyncWrites(true)
	}
	options = options.WithNumVersionsToKeep(1)

	if cfg.Logger != nil {
		options = options.WithLogger(badgerLogger{logger: cfg.Logger.Named("badger").Sugar()})
	} else {
		options = options.WithLogger(nil)
	}

	db, err := badger.Open(options)
	if err != nil {
		return nil, fmt.Errorf("open badger blob: %w", err)
	}
	return &BadgerBlob{db: db}, nil
}

func (blob *BadgerBlob) Get(key string) ([]byte, error) {
	var value []byte
	err := blob.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return value, nil
}

func (blob *BadgerBlob) Put(key string, value []byte) error {
	if err := blob.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), value)
	}); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	return nil
}

func (blob *BadgerBlob) Delete(key string) error {
	if err := blob.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

func (blob *BadgerBlob) Close() error {
	return blob.db.Close()
}

type badgerLogger struct {
	logger *zap.SugaredLogger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Errorf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warnf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debugf(strings.TrimSpace(format), args...)
}
