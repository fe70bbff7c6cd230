package cache

import "strings"

const (
	GlobalKeyPrefix = "ragquiz"
)

// GenerateCacheKey builds "ragquiz:<service>:<type>:<id>" and appends
// paramsKey joined by "_" when present.
func GenerateCacheKey(serviceName, objectType, identifier string, paramsKey ...string) string {
	baseKey := strings.Join([]string{GlobalKeyPrefix, serviceName, objectType, identifier}, ":")
	if len(paramsKey) > 0 {
		return strings.Join([]string{baseKey, strings.Join(paramsKey, "_")}, ":")
	}
	return baseKey
}
