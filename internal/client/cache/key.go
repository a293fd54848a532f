package cache

import (
	"net/url"
	"sort"
	"strings"
)

// BuildKey строит канонический ключ кэша вида
// METHOD:path?k1=v1&k2=v2 из метода, пути и параметров запроса.
// Логически одинаковые запросы обязаны давать одинаковый ключ
// независимо от порядка параметров и того, пришли ли параметры
// в составе URL или отдельным набором.
func BuildKey(method, rawPath string, params map[string]string) string {
	path := rawPath

	// Отбрасываем хост, если пришел абсолютный URL
	if u, err := url.Parse(rawPath); err == nil && u.Host != "" {
		path = u.Path
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
	}

	// Разделяем путь и встроенный query
	merged := map[string]string{}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if values, err := url.ParseQuery(path[i+1:]); err == nil {
			for name := range values {
				merged[name] = values.Get(name)
			}
		}
		path = path[:i]
	}

	// Явные параметры выигрывают у встроенных при совпадении имен
	for name, value := range params {
		merged[name] = value
	}

	key := strings.ToUpper(method) + ":" + path
	if len(merged) == 0 {
		return key
	}

	// Сортируем имена параметров лексикографически
	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	sb.WriteString(key)
	sb.WriteByte('?')
	for i, name := range names {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(name)
		sb.WriteByte('=')
		sb.WriteString(merged[name])
	}

	return sb.String()
}

// PathOnly возвращает путь без хоста и query-параметров.
func PathOnly(rawPath string) string {
	path := rawPath
	if u, err := url.Parse(rawPath); err == nil && u.Host != "" {
		path = u.Path
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	return path
}
