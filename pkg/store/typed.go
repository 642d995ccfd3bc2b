package store

import (
	"encoding/json"
	"fmt"
	"time"
)

// PutTyped serializes value as JSON and stores it under key.
func PutTyped[T any](s *Store, key string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: marshal typed value for %q: %w", key, err)
	}
	return s.Put(key, data)
}

// GetTyped deserializes the document under key into T. Returns the zero value
// and false if the key is missing or the stored payload does not decode.
func GetTyped[T any](s *Store, key string) (T, time.Time, bool) {
	var zero T
	data, savedAt, ok := s.Get(key)
	if !ok {
		return zero, time.Time{}, false
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return zero, time.Time{}, false
	}
	return v, savedAt, true
}

// GetFresh is GetTyped restricted to documents saved within maxAge. A maxAge
// of 0 accepts any age.
func GetFresh[T any](s *Store, key string, maxAge time.Duration) (T, bool) {
	v, savedAt, ok := GetTyped[T](s, key)
	if !ok {
		var zero T
		return zero, false
	}
	if maxAge > 0 && time.Since(savedAt) > maxAge {
		var zero T
		return zero, false
	}
	return v, true
}
