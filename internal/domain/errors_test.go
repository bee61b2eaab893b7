package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestStorageError(t *testing.T) {
	t.Run("nil error stays nil", func(t *testing.T) {
		if err := NewStorageError("find mapping", nil); err != nil {
			t.Errorf("expected nil, got %v", err)
		}
	})

	t.Run("wraps and unwraps cause", func(t *testing.T) {
		cause := errors.New("disk I/O error")
		err := NewStorageError("upsert mapping", cause)

		if !errors.Is(err, cause) {
			t.Error("expected errors.Is to find the cause")
		}
		if !IsStorageError(err) {
			t.Error("expected IsStorageError to be true")
		}
		if err.Error() != "storage: failed to upsert mapping: disk I/O error" {
			t.Errorf("unexpected message: %s", err.Error())
		}
	})

	t.Run("detected through further wrapping", func(t *testing.T) {
		err := fmt.Errorf("set competency: %w", NewStorageError("remove mapping", errors.New("locked")))
		if !IsStorageError(err) {
			t.Error("expected wrapped StorageError to be detected")
		}
	})

	t.Run("sentinels are not storage errors", func(t *testing.T) {
		if IsStorageError(ErrNotFound) {
			t.Error("ErrNotFound must not be a StorageError")
		}
	})
}
