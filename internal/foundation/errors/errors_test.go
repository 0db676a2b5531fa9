package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifiedError_ErrorString(t *testing.T) {
	err := StageError("css optimizer failed").Build()
	assert.Equal(t, "[stage:error] css optimizer failed", err.Error())

	wrapped := WrapError(fmt.Errorf("bad selector"), CategoryStage, "css optimizer failed").Build()
	assert.Equal(t, "[stage:error] css optimizer failed: bad selector", wrapped.Error())
}

func TestClassifiedError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("underlying")
	err := WrapError(cause, CategoryFileSystem, "write failed").Build()

	require.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Cause())
}

func TestProtocolError_IsFatal(t *testing.T) {
	err := ProtocolError("write after close").Build()
	assert.Equal(t, SeverityFatal, err.Severity())
	assert.True(t, err.IsCategory(CategoryProtocol))
}

func TestWithContext_DoesNotMutateOriginal(t *testing.T) {
	base := StageError("failed").WithContext("path", "a.html").Build()
	derived := base.WithContext("branch", "bundled")

	assert.NotContains(t, base.Context(), "branch")
	assert.Equal(t, "bundled", derived.Context()["branch"])
	assert.Equal(t, "a.html", derived.Context()["path"])
}

func TestHasCategory(t *testing.T) {
	err := fmt.Errorf("outer: %w", PrecacheError("parse failed").Build())
	assert.True(t, HasCategory(err, CategoryPrecache))
	assert.False(t, HasCategory(err, CategoryStage))
	assert.False(t, HasCategory(stderrors.New("plain"), CategoryStage))
}

func TestCLIAdapter_ExitCodes(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	tests := []struct {
		name string
		err  error
		code int
	}{
		{"nil error", nil, 0},
		{"plain error", fmt.Errorf("boom"), 1},
		{"validation", ValidationError("bad flag").Build(), 2},
		{"config", ConfigError("missing file").Build(), 7},
		{"precache", PrecacheError("malformed").Build(), 7},
		{"stage", StageError("transform failed").Build(), 11},
		{"worker", WorkerError("generation failed").Build(), 11},
		{"protocol", ProtocolError("write after close").Build(), 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIAdapter_FormatIncludesBranch(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)
	err := WorkerError("worker generation failed").WithContext("branch", "unbundled").Build()

	msg := adapter.FormatError(err)
	assert.Contains(t, msg, "unbundled branch")
	assert.Contains(t, msg, "worker generation failed")
}
