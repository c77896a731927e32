package util

import "math/rand"

// NewRand создаёт детерминированный генератор для сессии
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// Range возвращает случайное число в [min, max)
func Range(rng *rand.Rand, min, max float64) float64 {
	return min + rng.Float64()*(max-min)
}

// Index возвращает случайный индекс для коллекции длины n (0 для пустой)
func Index(rng *rand.Rand, n int) int {
	if n <= 0 {
		return 0
	}
	return rng.Intn(n)
}

// Choice возвращает случайный элемент среза
func Choice[T any](rng *rand.Rand, items []T) T {
	return items[Index(rng, len(items))]
}
