package utils

func Map[T any, U any](src []T, mapper func(T) U) []U {
	dst := make([]U, 0, len(src))
	for _, item := range src {
		dst = append(dst, mapper(item))
	}
	return dst
}

func Sum[T any](src []T, value func(T) float64) float64 {
	var total float64
	for _, item := range src {
		total += value(item)
	}
	return total
}
