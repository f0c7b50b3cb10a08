package logger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWithTag(t *testing.T) {
	assert.Nil(t, WithTag("dsn", nil))

	base := errors.New("boom")
	err := fmt.Errorf("startup: %w", WithTag("dsn", base))

	assert.Equal(t, "dsn", ErrorTag(err))
	assert.ErrorIs(t, err, base)
	assert.Equal(t, "startup: boom", err.Error())
}

func TestErrorf(t *testing.T) {
	err := Errorf("auth", "token file %s is empty", "/run/token")
	assert.Equal(t, "auth", ErrorTag(err))
	assert.Equal(t, "token file /run/token is empty", err.Error())
	assert.Equal(t, "", ErrorTag(errors.New("untagged")))
}
