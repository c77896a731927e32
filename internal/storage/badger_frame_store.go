package storage

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/dgraph-io/badger/v3"
)

// BadgerFrameStore хранит кадры в BadgerDB. Ключ: "frame:<session>:" и
// номер тика в big-endian, поэтому обход по префиксу идёт по возрастанию тиков.
type BadgerFrameStore struct {
	db      *badger.DB
	dbPath  string
	mutex   sync.RWMutex
	isReady bool
}

// NewBadgerFrameStore открывает хранилище в каталоге dataPath/frames
func NewBadgerFrameStore(dataPath string) (*BadgerFrameStore, error) {
	dbPath := filepath.Join(dataPath, "frames")
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Отключаем логирование BadgerDB

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть BadgerDB: %w", err)
	}

	return &BadgerFrameStore{
		db:      db,
		dbPath:  dbPath,
		isReady: true,
	}, nil
}

func sessionPrefix(sessionID string) []byte {
	return []byte("frame:" + sessionID + ":")
}

func frameKey(sessionID string, tick uint64) []byte {
	return binary.BigEndian.AppendUint64(sessionPrefix(sessionID), tick)
}

func tickFromKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}

// ready вызывается под RLock
func (bs *BadgerFrameStore) ready() error {
	if !bs.isReady {
		return ErrClosed
	}
	return nil
}

func (bs *BadgerFrameStore) Save(ctx context.Context, sessionID string, tick uint64, data []byte) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if err := bs.ready(); err != nil {
		return err
	}

	err := bs.db.Update(func(txn *badger.Txn) error {
		return txn.Set(frameKey(sessionID, tick), data)
	})
	if err != nil {
		return fmt.Errorf("ошибка сохранения в BadgerDB: %w", err)
	}
	return nil
}

func (bs *BadgerFrameStore) Load(ctx context.Context, sessionID string, tick uint64) ([]byte, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if err := bs.ready(); err != nil {
		return nil, err
	}

	var data []byte
	err := bs.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(frameKey(sessionID, tick))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return data, nil
}

func (bs *BadgerFrameStore) Latest(ctx context.Context, sessionID string) (uint64, []byte, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if err := bs.ready(); err != nil {
		return 0, nil, err
	}

	var (
		tick  uint64
		data  []byte
		found bool
	)
	prefix := sessionPrefix(sessionID)
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		// Обратный обход начинается с ключа, большего любого тика сессии
		seek := append(append([]byte(nil), prefix...), 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF)
		it.Seek(seek)
		if !it.ValidForPrefix(prefix) {
			return nil
		}
		item := it.Item()
		tick = tickFromKey(item.Key())
		found = true
		var err error
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return 0, nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	if !found {
		return 0, nil, ErrNotFound
	}
	return tick, data, nil
}

func (bs *BadgerFrameStore) Ticks(ctx context.Context, sessionID string) ([]uint64, error) {
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if err := bs.ready(); err != nil {
		return nil, err
	}

	var ticks []uint64
	prefix := sessionPrefix(sessionID)
	err := bs.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			ticks = append(ticks, tickFromKey(it.Item().Key()))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("ошибка чтения из BadgerDB: %w", err)
	}
	return ticks, nil
}

func (bs *BadgerFrameStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := validSession(sessionID); err != nil {
		return err
	}
	bs.mutex.RLock()
	defer bs.mutex.RUnlock()
	if err := bs.ready(); err != nil {
		return err
	}
	if err := bs.db.DropPrefix(sessionPrefix(sessionID)); err != nil {
		return fmt.Errorf("ошибка удаления сессии %s: %w", sessionID, err)
	}
	return nil
}

// Close закрывает хранилище данных
func (bs *BadgerFrameStore) Close() error {
	bs.mutex.Lock()
	defer bs.mutex.Unlock()

	if !bs.isReady {
		return nil
	}

	bs.isReady = false
	return bs.db.Close()
}
