package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStepWrapper(t *testing.T) {
	wrapper := NewWrapper("store", "category")

	t.Run("nil error stays nil", func(t *testing.T) {
		assert.NoError(t, wrapper.Wrap(nil, "create category"))
	})

	t.Run("wrap keeps the cause", func(t *testing.T) {
		base := errors.New("database is locked")
		err := wrapper.Wrap(base, "create category")

		require.Error(t, err)
		assert.ErrorIs(t, err, base)
		assert.Equal(t, "store/category: create category: database is locked", err.Error())

		step, ok := StepOf(err)
		require.True(t, ok)
		assert.Equal(t, "store", step.Module)
		assert.Equal(t, "category", step.Entity)
		assert.Equal(t, "create category", step.Action)
	})

	t.Run("found through outer wrapping", func(t *testing.T) {
		err := fmt.Errorf("turn: %w", wrapper.Wrap(ErrNotFound, "find category"))

		step, ok := StepOf(err)
		require.True(t, ok)
		assert.Equal(t, "find category", step.Action)
		assert.True(t, IsNotFound(err))
	})

	t.Run("plain errors have no step", func(t *testing.T) {
		_, ok := StepOf(errors.New("boom"))
		assert.False(t, ok)
	})
}

func TestTags(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want map[string]string
	}{
		{
			name: "plain error",
			err:  errors.New("boom"),
			want: map[string]string{},
		},
		{
			name: "step with duplicate",
			err:  NewWrapper("store", "category").Wrap(fmt.Errorf("name %q: %w", "Mugs", ErrDuplicate), "create category"),
			want: map[string]string{"module": "store", "entity": "category", "kind": "duplicate"},
		},
		{
			name: "conflict without step",
			err:  fmt.Errorf("save: %w", ErrConflict),
			want: map[string]string{"kind": "conflict"},
		},
		{
			name: "step with not found",
			err:  NewWrapper("product_manage", "product").Wrap(ErrNotFound, "find product"),
			want: map[string]string{"module": "product_manage", "entity": "product", "kind": "not_found"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tags(tt.err))
		})
	}
}
