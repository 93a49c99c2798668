package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("subject is required")))
	assert.Equal(t, KindNotFound, KindOf(NotFound("message not found")))
	assert.Equal(t, KindUpload, KindOf(Upload("file too large")))
	assert.Equal(t, KindNetwork, KindOf(Network("request failed", errors.New("dial tcp"))))

	// 非本包错误一律视为内部错误
	assert.Equal(t, KindInternal, KindOf(errors.New("plain")))
	assert.Equal(t, KindInternal, KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("send failed: %w", Validation("receiver is required"))
	assert.True(t, IsValidation(err))
	assert.False(t, IsNotFound(err))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "subject is required", Validation("subject is required").Error())

	wrapped := Network("request failed", errors.New("connection refused"))
	assert.Equal(t, "request failed: connection refused", wrapped.Error())
	assert.EqualError(t, errors.Unwrap(wrapped), "connection refused")
}
