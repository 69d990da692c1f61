package jwt_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/invorya-erp/pkg/jwt"
)

func TestGenerateParse_IdaYVuelta(t *testing.T) {
	tok, err := jwt.Generate("s3cr3t", "u-1", "c-1", jwt.RoleOperador, "invorya-erp", 5)
	require.NoError(t, err)

	claims, err := jwt.Parse("s3cr3t", tok)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, "c-1", claims.CompanyID)
	assert.Equal(t, jwt.RoleOperador, claims.Role)
	assert.Equal(t, "invorya-erp", claims.Issuer)
}

func TestParse_SecretIncorrecto(t *testing.T) {
	tok, err := jwt.Generate("uno", "u-1", "c-1", jwt.RoleAdmin, "x", 5)
	require.NoError(t, err)

	_, err = jwt.Parse("otro", tok)
	assert.Error(t, err)
}

func TestParse_Expirado(t *testing.T) {
	tok, err := jwt.Generate("s", "u-1", "c-1", jwt.RoleAdmin, "x", -1)
	require.NoError(t, err)

	_, err = jwt.Parse("s", tok)
	assert.Error(t, err)
}

func TestGenerate_SecretVacio(t *testing.T) {
	_, err := jwt.Generate("", "u", "c", jwt.RoleAdmin, "x", 5)
	assert.Error(t, err)
}

func TestValidRole(t *testing.T) {
	assert.True(t, jwt.ValidRole(jwt.RoleCartera))
	assert.False(t, jwt.ValidRole("root"))
}
