package config

// ResetCache clears all cached configurations. Subsequent Load calls will
// re-parse the environment. Primarily useful in tests that mutate env vars.
func ResetCache() {
	globalCache.mu.Lock()
	defer globalCache.mu.Unlock()
	clear(globalCache.values)
	clear(globalCache.onces)
}

// ForceReloadConfig drops the cached value for T and loads it again from the
// current environment. Use when env vars changed after the first Load.
func ForceReloadConfig[T any](v *T) error {
	typeName := getTypeName[T]()

	globalCache.mu.Lock()
	delete(globalCache.values, typeName)
	delete(globalCache.onces, typeName)
	globalCache.mu.Unlock()

	return Load(v)
}
