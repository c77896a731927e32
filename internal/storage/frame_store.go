package storage

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound возвращается, когда кадра нет в хранилище
var ErrNotFound = errors.New("storage: frame not found")

// ErrClosed возвращается при обращении к закрытому хранилищу
var ErrClosed = errors.New("storage: closed")

// FrameStore хранит сжатые кадры симуляции. Кадры привязаны к сессии и
// номеру тика; номера тиков внутри сессии упорядочены.
type FrameStore interface {
	// Save сохраняет кадр, перезаписывая существующий с тем же тиком
	Save(ctx context.Context, sessionID string, tick uint64, data []byte) error

	// Load возвращает кадр или ErrNotFound
	Load(ctx context.Context, sessionID string, tick uint64) ([]byte, error)

	// Latest возвращает последний кадр сессии или ErrNotFound
	Latest(ctx context.Context, sessionID string) (uint64, []byte, error)

	// Ticks возвращает номера сохранённых тиков по возрастанию
	Ticks(ctx context.Context, sessionID string) ([]uint64, error)

	// DeleteSession удаляет все кадры сессии
	DeleteSession(ctx context.Context, sessionID string) error

	Close() error
}

func validSession(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("недействительный sessionID: пустая строка")
	}
	return nil
}
