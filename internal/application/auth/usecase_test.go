package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jhoicas/stock-ledger-api/internal/application/auth"
	"github.com/jhoicas/stock-ledger-api/internal/application/dto"
	"github.com/jhoicas/stock-ledger-api/internal/domain"
	"github.com/jhoicas/stock-ledger-api/pkg/jwt"
)

const secret = "test-secret"

func newAuth(t *testing.T) *auth.AuthUseCase {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3creto"), bcrypt.MinCost)
	require.NoError(t, err)
	return auth.NewAuthUseCase(
		auth.Credentials{Username: "admin", PasswordHash: string(hash)},
		auth.JWTConfig{Secret: secret, ExpMinutes: 30, Issuer: "stock-ledger"},
	)
}

func TestLogin_OK(t *testing.T) {
	out, err := newAuth(t).Login(dto.LoginRequest{Username: "admin", Password: "s3creto"})
	require.NoError(t, err)
	assert.Equal(t, auth.RoleAdmin, out.Role)
	assert.Equal(t, 1800, out.ExpiresIn)

	userID, role, err := jwt.Parse(secret, out.Token)
	require.NoError(t, err)
	assert.Equal(t, "admin", userID)
	assert.Equal(t, auth.RoleAdmin, role)
}

func TestLogin_CredencialesInvalidas(t *testing.T) {
	uc := newAuth(t)
	_, err := uc.Login(dto.LoginRequest{Username: "admin", Password: "otra"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	_, err = uc.Login(dto.LoginRequest{Username: "root", Password: "s3creto"})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}

func TestLogin_SinHashDeshabilitado(t *testing.T) {
	uc := auth.NewAuthUseCase(auth.Credentials{Username: "admin"}, auth.JWTConfig{Secret: secret})
	_, err := uc.Login(dto.LoginRequest{Username: "admin", Password: ""})
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
