package response

import (
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/docqa/pkg/infra/middleware/common"
	"github.com/kart-io/docqa/pkg/utils/errors"
	"github.com/kart-io/docqa/pkg/utils/json"
)

func TestErr(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		kind    string
		message string
		status  int
	}{
		{
			name:    "nil 表示成功",
			err:     nil,
			code:    0,
			message: "success",
			status:  http.StatusOK,
		},
		{
			name:    "input error",
			err:     errors.ErrEmptyQuestion,
			code:    errors.ErrEmptyQuestion.Code,
			kind:    "InputError",
			message: "Question is empty",
			status:  http.StatusBadRequest,
		},
		{
			name:    "带底层原因",
			err:     errors.ErrStoreUnavailable.WithCause(stderrors.New("dial tcp: refused")),
			code:    errors.ErrStoreUnavailable.Code,
			kind:    "StoreError",
			message: "Vector store unavailable: dial tcp: refused",
			status:  http.StatusServiceUnavailable,
		},
		{
			name:    "非 Errno 按内部错误处理",
			err:     stderrors.New("boom"),
			code:    errors.ErrInternal.Code,
			kind:    "InternalError",
			message: "Internal server error: boom",
			status:  http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Err(tt.err)
			assert.Equal(t, tt.code, r.Code)
			assert.Equal(t, tt.kind, r.Kind)
			assert.Equal(t, tt.message, r.Message)
			assert.Equal(t, tt.status, HTTPStatus(tt.err))
		})
	}
}

func TestWriters(t *testing.T) {
	gin.SetMode(gin.TestMode)

	engine := gin.New()
	engine.Use(func(c *gin.Context) {
		c.Request = c.Request.WithContext(common.WithRequestID(c.Request.Context(), "req-1"))
	})
	engine.GET("/ok", func(c *gin.Context) { OK(c, map[string]int{"n": 1}) })
	engine.GET("/fail", func(c *gin.Context) { Fail(c, errors.ErrNoContext) })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var ok Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ok))
	assert.Equal(t, 0, ok.Code)
	assert.Equal(t, "req-1", ok.RequestID)

	w = httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	require.Equal(t, http.StatusNotFound, w.Code)

	var fail Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fail))
	assert.Equal(t, errors.ErrNoContext.Code, fail.Code)
	assert.Equal(t, "NoContext", fail.Kind)
	assert.Nil(t, fail.Data)
}
