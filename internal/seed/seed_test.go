package seed

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	authdomain "github.com/smallbiznis/invoicer/internal/auth/domain"
	"github.com/smallbiznis/invoicer/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type authMock struct {
	mock.Mock
	authdomain.Service
}

func (m *authMock) EnsureUser(ctx context.Context, email, password string) (*authdomain.User, error) {
	args := m.Called(email, password)
	user, _ := args.Get(0).(*authdomain.User)
	return user, args.Error(1)
}

func TestEnsureAdmin(t *testing.T) {
	auth := &authMock{}
	auth.On("EnsureUser", "admin@example.com", "s3cret").
		Return(&authdomain.User{ID: snowflake.ID(7), Email: "admin@example.com"}, nil).
		Once()

	err := EnsureAdmin(context.Background(), auth, config.Config{
		AdminEmail:    " admin@example.com ",
		AdminPassword: "s3cret",
	}, zap.NewNop())
	require.NoError(t, err)
	auth.AssertExpectations(t)
}

func TestEnsureAdminSkipsWithoutCredentials(t *testing.T) {
	auth := &authMock{}

	require.NoError(t, EnsureAdmin(context.Background(), auth, config.Config{AdminEmail: "admin@example.com"}, zap.NewNop()))
	require.NoError(t, EnsureAdmin(context.Background(), auth, config.Config{AdminPassword: "x"}, zap.NewNop()))

	assert.Len(t, auth.Calls, 0)
}
