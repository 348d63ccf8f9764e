package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode(t *testing.T) {
	t.Run("matches the direct code", func(t *testing.T) {
		err := New(CodeUnauthorized, "caller is not the record owner")
		assert.True(t, HasCode(err, CodeUnauthorized))
		assert.False(t, HasCode(err, CodeInvalidInput))
	})

	t.Run("matches a code buried in a wrap chain", func(t *testing.T) {
		cause := New(CodeInvalidState, "permission not granted")
		err := Wrap(cause, CodeInternal, "revoke failed")
		assert.True(t, HasCode(err, CodeInvalidState))
		assert.True(t, HasCode(err, CodeInternal))
	})

	t.Run("rejects uncoded errors", func(t *testing.T) {
		assert.False(t, HasCode(errors.New("plain"), CodeInternal))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestWrap_PreservesChain(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeInternal, "append audit event")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "append audit event: connection refused", err.Error())
	assert.Equal(t, CodeInternal, CodeOf(err))
}

func TestWrap_WorksWithFmtErrorf(t *testing.T) {
	inner := New(CodePolicyRejected, "policy evaluator rejected grant")
	err := fmt.Errorf("gated grant: %w", inner)
	assert.True(t, HasCode(err, CodePolicyRejected))
}

func TestCodeOf_UncodedDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeInvalidInput:   http.StatusBadRequest,
		CodeUnauthorized:   http.StatusUnauthorized,
		CodePolicyRejected: http.StatusForbidden,
		CodeInvalidState:   http.StatusConflict,
		CodePaused:         http.StatusServiceUnavailable,
		CodeNotFound:       http.StatusNotFound,
		CodeInternal:       http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, ToHTTPStatus(code), "code %s", code)
	}
}
