package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidatePhone(t *testing.T) {
	cases := map[string]bool{
		"+14155552671":       true,
		"415 555 2671":       true,
		"+44 (20) 7946-0958": true,
		"0123456":            false,
		"abc":                false,
		"":                   false,
		"+1234567890123456":  false,
	}

	for phone, expected := range cases {
		t.Run(phone, func(t *testing.T) {
			assert.Equal(t, expected, ValidatePhone(phone))
		})
	}
}

func TestRegisterValidators(t *testing.T) {
	assert.NoError(t, RegisterValidators())
}
