package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestMakeCode(t *testing.T) {
	tests := []struct {
		service  int
		category int
		sequence int
		expected int
	}{
		{0, 0, 0, 0},
		{0, 7, 1, 7001},
		{20, 1, 2, 2001002},
		{20, 12, 3, 2012003},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d_%d_%d", tt.service, tt.category, tt.sequence), func(t *testing.T) {
			got := MakeCode(tt.service, tt.category, tt.sequence)
			assert.Equal(t, tt.expected, got)

			service, category, sequence := ParseCode(got)
			assert.Equal(t, tt.service, service)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.sequence, sequence)
		})
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"语料不存在", ErrCorpusNotFound, KindInput},
		{"空问题", ErrEmptyQuestion.WithMessage("question is blank"), KindInput},
		{"嵌入失败", ErrEmbeddingFailed.WithCause(stderrors.New("dial tcp")), KindProvider},
		{"超时", ErrProviderTimeout, KindProvider},
		{"存储不可用", ErrStoreUnavailable, KindStore},
		{"分块参数", ErrInvalidChunkParams, KindConfig},
		{"模型不一致", ErrEmbedderMismatch, KindConfig},
		{"无上下文", ErrNoContext, KindNoContext},
		{"包装后的 Errno", fmt.Errorf("ask: %w", ErrIndexFailed), KindStore},
		{"普通错误", stderrors.New("boom"), KindInternal},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestErrnoDerivedCopies(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := ErrStoreUnavailable.WithCause(cause).WithMessagef("store %s unavailable", "chromem")

	assert.True(t, stderrors.Is(err, ErrStoreUnavailable))
	assert.False(t, stderrors.Is(err, ErrStoreWrite))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "store chromem unavailable", err.MessageEN)
	assert.Equal(t, "Vector store unavailable", ErrStoreUnavailable.MessageEN, "原始错误不应被修改")
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, http.StatusServiceUnavailable, err.HTTPStatus())
	assert.Equal(t, codes.Unavailable, err.GRPCStatus())
	assert.Equal(t, "向量存储不可用", err.Message("zh"))
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	wrapped := fmt.Errorf("ingest: %w", ErrNoDocuments)
	assert.Equal(t, ErrNoDocuments.Code, FromError(wrapped).Code)
	code, ok := CodeOf(wrapped)
	assert.True(t, ok)
	assert.Equal(t, ErrNoDocuments.Code, code)

	plain := stderrors.New("plain")
	assert.Equal(t, ErrInternal.Code, FromError(plain).Code)
	_, ok = CodeOf(plain)
	assert.False(t, ok)
}

func TestDescribe(t *testing.T) {
	assert.Empty(t, Describe(nil))

	err := ErrEmbeddingFailed.WithCause(stderrors.New("connection refused"))
	assert.Equal(t,
		fmt.Sprintf("ProviderError (%d): Embedding provider failed: connection refused", ErrEmbeddingFailed.Code),
		Describe(fmt.Errorf("ask: %w", err)),
	)
	assert.Equal(t,
		fmt.Sprintf("InputError (%d): no documents found in /tmp/x", ErrNoDocuments.Code),
		Describe(ErrNoDocuments.WithMessage("no documents found in /tmp/x")),
	)
	assert.Contains(t, Describe(stderrors.New("boom")), "InternalError")
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(New(ErrNoContext.Code, 404, codes.NotFound, "dup", "重复"))
	})

	e, ok := Lookup(ErrNoContext.Code)
	assert.True(t, ok)
	assert.Equal(t, ErrNoContext, e)
}

func TestRegistered(t *testing.T) {
	all := Registered()
	require.NotEmpty(t, all)
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].Code, all[i].Code)
	}
	// 每个错误码都能映射到一个明确的类别
	for _, e := range all {
		assert.NotEmpty(t, e.Kind(), "errno %d", e.Code)
		assert.NotEmpty(t, e.MessageEN, "errno %d", e.Code)
	}
}
