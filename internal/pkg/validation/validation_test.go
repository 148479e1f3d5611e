package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidEmail(t *testing.T) {
	assert.True(t, IsValidEmail("jordan@example.com"))
	assert.True(t, IsValidEmail("j.blake+team@club.co.uk"))
	assert.False(t, IsValidEmail("jordan@"))
	assert.False(t, IsValidEmail("jordan example@x.com"))
	assert.False(t, IsValidEmail(""))
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("hunter2!A"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("nosymbols1A"))
	assert.False(t, IsValidPassword("nodigits!!A"))
	assert.False(t, IsValidPassword("12345678!"))
}

func TestPhoneNormalization(t *testing.T) {
	assert.Equal(t, "4155550123", NormalizePhone("(415) 555-0123"))
	assert.Equal(t, "4155550123", NormalizePhone("415.555.0123"))
	assert.True(t, IsValidPhone("(415) 555-0123"))
	assert.False(t, IsValidPhone("555-0123"))
	assert.False(t, IsValidPhone("+1 415 555 0123 99"))
}
