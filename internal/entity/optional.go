package entity

import "encoding/json"

// Optional holds a value that may be absent. The zero value is absent.
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](value T) Optional[T] {
	return Optional[T]{value: value, set: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (that Optional[T]) Get() (T, bool) {
	return that.value, that.set
}

func (that Optional[T]) IsSet() bool {
	return that.set
}

func (that Optional[T]) OrElse(fallback T) T {
	if !that.set {
		return fallback
	}
	return that.value
}

func (that Optional[T]) MarshalJSON() ([]byte, error) {
	if !that.set {
		return []byte("null"), nil
	}
	return json.Marshal(that.value)
}

func (that *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*that = Optional[T]{}
		return nil
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return err
	}

	*that = Some(value)

	return nil
}
