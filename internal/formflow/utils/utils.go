// Общие вспомогательные функции formflow: преобразования срезов и множеств, работа с URL.
package utils

import "net/url"

// SliceToSet преобразует срез в множество.
func SliceToSet[T comparable](ids []T) map[T]struct{} {
	set := make(map[T]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}

// CheckInSlice проверяет вхождение всех элементов в срез.
func CheckInSlice[T comparable](in []T, all ...T) bool {
	set := SliceToSet(in)
	for _, v := range all {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

// SliceToSlice преобразует срез одного типа в срез другого через функцию-конвертер. Для nil возвращает пустой срез.
func SliceToSlice[T any, U any](in *[]T, f func(*T) U) []U {
	if in == nil {
		return make([]U, 0)
	}
	out := make([]U, len(*in))
	for i, v := range *in {
		out[i] = f(&v)
	}
	return out
}

// SliceToMap индексирует срез по ключу, вычисляемому функцией f.
func SliceToMap[K comparable, V any](in *[]V, f func(*V) K) map[K]V {
	if in == nil {
		return map[K]V{}
	}
	out := make(map[K]V, len(*in))
	for _, v := range *in {
		out[f(&v)] = v
	}
	return out
}

// CheckHttps переводит схему URL в https, если порт не явно http.
func CheckHttps(u *url.URL) *url.URL {
	if u == nil {
		return nil
	}
	if u.Port() == "80" {
		u.Scheme = "http"
	} else if u.Scheme == "" {
		u.Scheme = "https"
	}
	return u
}
