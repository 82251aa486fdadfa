package database

import "errors"

var (
	// ErrSlotTaken — внутри транзакции найдено пересечение с существующей записью.
	ErrSlotTaken = errors.New("slot overlaps an existing appointment")

	// ErrNotFound возвращается для отсутствующих строк.
	ErrNotFound = errors.New("not found")

	// ErrVersionConflict — оптимистическая блокировка: версия устарела.
	ErrVersionConflict = errors.New("version conflict")
)
