package repository

import (
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

// dateKey приводит дату к ключу календарного дня для SQL-сравнений
func dateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateOnly обрезает время до календарного дня (UTC)
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// isDuplicateKey распознает нарушение уникального индекса.
// Драйвер SQLite не всегда транслирует ошибку в gorm.ErrDuplicatedKey,
// поэтому дополнительно проверяем текст.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
