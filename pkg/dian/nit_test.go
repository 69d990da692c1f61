package dian

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeNITVerificationDigit(t *testing.T) {
	cases := map[string]byte{
		"900123456":   '8',
		"800.987.654": '4',
		"860002964":   '4',
	}
	for nit, want := range cases {
		got, err := ComputeNITVerificationDigit(nit)
		require.NoError(t, err, nit)
		assert.Equal(t, want, got, nit)
	}
}

func TestValidateNITVerificationDigit(t *testing.T) {
	assert.NoError(t, ValidateNITVerificationDigit("900.123.456-8"))
	assert.NoError(t, ValidateNITVerificationDigit("8009876544"))
	assert.Error(t, ValidateNITVerificationDigit("900123456-1"))
	assert.Error(t, ValidateNITVerificationDigit("900123456"))
	assert.Error(t, ValidateNITVerificationDigit("12345"))
}

func TestNITBase(t *testing.T) {
	assert.Equal(t, "900123456", NITBase("900.123.456-8"))
	assert.Equal(t, "1234", NITBase("1234"))
}
