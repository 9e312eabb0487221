package errors

import (
	"fmt"
	"testing"

	pkgerrors "github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestError_Format(t *testing.T) {
	err := PersistenceFailure("write calendar", fmt.Errorf("disk full"))
	assert.Equal(t, "[PERSISTENCE_FAILURE] write calendar: disk full", err.Error())

	plain := ParseFailure("no time found")
	assert.Equal(t, "[PARSE_FAILURE] no time found", plain.Error())
}

func TestIsCode_ThroughWrapping(t *testing.T) {
	base := MalformedRecord("42", fmt.Errorf("unexpected EOF"))
	wrapped := pkgerrors.Wrap(base, "load calendar")

	assert.True(t, IsCode(wrapped, ErrCodeMalformedRecord))
	assert.False(t, IsCode(wrapped, ErrCodeNotFound))
	assert.Equal(t, "42", base.Context["user_id"])
}

func TestGetCodeFromError(t *testing.T) {
	assert.Equal(t, ErrCodeNotFound, GetCodeFromError(NotFound("event"), ErrCodeInvalidArgument))
	assert.Equal(t, ErrCodeInvalidArgument, GetCodeFromError(fmt.Errorf("plain"), ErrCodeInvalidArgument))
}
