package biz

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/utils/errors"
)

func TestGenerator_Generate(t *testing.T) {
	ctx := context.Background()

	t.Run("trims answer", func(t *testing.T) {
		chat := &fakeChat{answer: "  Aspirin reduces fever.\n"}
		resp, err := NewGenerator(chat, nil).Generate(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, "Aspirin reduces fever.", resp.Content)
		assert.Equal(t, 1, chat.calls())
	})

	t.Run("empty answer", func(t *testing.T) {
		chat := &fakeChat{answer: " \n "}
		_, err := NewGenerator(chat, nil).Generate(ctx, "prompt")
		assert.ErrorIs(t, err, errors.ErrEmptyAnswer)
		assert.True(t, errors.IsProviderError(err))
	})

	t.Run("provider failure is not retried", func(t *testing.T) {
		chat := &fakeChat{err: fmt.Errorf("429 too many requests")}
		_, err := NewGenerator(chat, nil).Generate(ctx, "prompt")
		assert.ErrorIs(t, err, errors.ErrGenerationFailed)
		assert.Equal(t, 1, chat.calls())
	})

	t.Run("canceled context", func(t *testing.T) {
		canceled, cancel := context.WithCancel(ctx)
		cancel()

		chat := &fakeChat{answer: "x"}
		_, err := NewGenerator(chat, nil).Generate(canceled, "prompt")
		assert.ErrorIs(t, err, errors.ErrProviderTimeout)
		assert.Equal(t, 0, chat.calls())
	})
}
