package store

import (
	"context"
	"github.com/dgraph-io/badger/v4"
	"go.uber.org/zap"
	"time"
)

type BadgerStore struct {
	db *badger.DB
}

func OpenBadger(ctx context.Context, path string) (*BadgerStore, error) {
	opts := badger.DefaultOptions(path).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			lsm, vlog := db.Size()
			zap.L().With(zap.Int64("lsm", lsm), zap.Int64("vlog", vlog)).Debug("Badger: Size")
			if lsm > 1024*1024*8 || vlog > 1024*1024*32 {
				err := db.RunValueLogGC(0.5)
				zap.L().With(zap.Error(err)).Debug("Badger: RunValueLogGC")
			}
		}
	}()

	return &BadgerStore{db: db}, nil
}

// OpenInMemory opens a store that lives only as long as the process.
func OpenInMemory() (*BadgerStore, error) {
	opts := badger.DefaultOptions("").WithInMemory(true).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &BadgerStore{db: db}, nil
}

func (bs *BadgerStore) Close() error {
	return bs.db.Close()
}

func (bs *BadgerStore) Badger() *badger.DB {
	return bs.db
}

func (bs *BadgerStore) WriteProperty(key, val []byte) error {
	return bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, val)
	})
}

func (bs *BadgerStore) ReadProperty(key []byte) ([]byte, error) {
	txn := bs.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, nil
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, v ...interface{}) {
	zap.S().Errorf("Badger: "+format, v...)
}

func (badgerLogger) Warningf(format string, v ...interface{}) {
	zap.S().Warnf("Badger: "+format, v...)
}

func (badgerLogger) Infof(format string, v ...interface{}) {
	zap.S().Debugf("Badger: "+format, v...)
}

func (badgerLogger) Debugf(format string, v ...interface{}) {
	zap.S().Debugf("Badger: "+format, v...)
}
