package models

import (
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func Test_ErrorKind_Codes(t *testing.T) {
	assert.Equal(t, 100, ErrTempDir.Code())
	assert.Equal(t, 105, ErrSecurity.Code())
	assert.Equal(t, 111, ErrorKind(42).Code())
	assert.Equal(t, "File type not allowed.", ErrType.Message())
	assert.Equal(t, "Failed due to unknown error.", ErrorKind(42).Message())
}

func Test_Error_IsAndUnwrap(t *testing.T) {
	err := fmt.Errorf("handle: %w", NewError(ErrMove, "commit", "/srv/a.bin", io.ErrUnexpectedEOF))

	assert.True(t, errors.Is(err, ErrMove))
	assert.False(t, errors.Is(err, ErrInput))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))
	assert.Equal(t, ErrMove, KindOf(err))
	assert.Equal(t, "handle: commit: Failed to move uploaded file. (/srv/a.bin): unexpected EOF", err.Error())
}

func Test_KindOf(t *testing.T) {
	assert.Equal(t, ErrorKind(0), KindOf(nil))
	assert.Equal(t, ErrUnknown, KindOf(errors.New("boom")))
	assert.Equal(t, ErrType, KindOf(fmt.Errorf("wrap: %w", ErrType)))
}
