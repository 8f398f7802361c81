package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClientErrorCode(t *testing.T) {
	code, ok := ClientErrorCode(fmt.Errorf("resolve route: %w", ErrIncomingConfigNotFound))
	assert.True(t, ok)
	assert.Equal(t, "INCOMING-NOTFOUND-CONFIGURATION", code)

	code, ok = ClientErrorCode(fmt.Errorf("validate: %w", &RequiredFieldError{Field: "SHORTCODE"}))
	assert.True(t, ok)
	assert.Equal(t, "INCOMING-REQUIRED-SHORTCODE", code)

	_, ok = ClientErrorCode(errors.New("connection refused"))
	assert.False(t, ok)
	_, ok = ClientErrorCode(ErrGroupConsumed)
	assert.False(t, ok)
}
