package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"socialhub/internal/server/auth"
	"socialhub/internal/server/models"
)

const testSecret = "test-secret-that-is-long-enough!"

func TestAuthRegister_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	mockUserRepo.On("FindByUsername", "alice").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil)

	user, token, err := svc.Register("alice", "password123")

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.NotEmpty(t, user.ID)
	assert.NotEmpty(t, token)
	// the stored hash verifies against the original password
	assert.NoError(t, auth.VerifyPassword(user.PasswordHash, "password123"))
	mockUserRepo.AssertExpectations(t)
}

func TestAuthRegister_UsernameExists(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	mockUserRepo.On("FindByUsername", "alice").Return(&models.User{ID: "existing", Username: "alice"}, nil)

	_, _, err := svc.Register("alice", "password123")

	assert.ErrorIs(t, err, ErrNameInUse)
	mockUserRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthLogin_Success(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	hashed, err := auth.HashPassword("password123")
	assert.NoError(t, err)
	mockUserRepo.On("FindByUsername", "alice").Return(&models.User{
		ID:           "user-id",
		Username:     "alice",
		PasswordHash: hashed,
	}, nil)

	user, token, err := svc.Login("alice", "password123")

	assert.NoError(t, err)
	assert.Equal(t, "user-id", user.ID)
	assert.NotEmpty(t, token)
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	hashed, err := auth.HashPassword("password123")
	assert.NoError(t, err)
	mockUserRepo.On("FindByUsername", "alice").Return(&models.User{
		ID:           "user-id",
		PasswordHash: hashed,
	}, nil)

	_, _, err = svc.Login("alice", "wrong")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthLogin_UnknownUser(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	mockUserRepo.On("FindByUsername", "ghost").Return(nil, gorm.ErrRecordNotFound)

	_, _, err := svc.Login("ghost", "password123")

	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestValidateToken_RoundTrip(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	svc := NewAuthService(mockUserRepo, testSecret, 15*time.Minute)

	hashed, err := auth.HashPassword("password123")
	assert.NoError(t, err)
	mockUserRepo.On("FindByUsername", "alice").Return(&models.User{
		ID:           "user-id",
		Username:     "alice",
		PasswordHash: hashed,
	}, nil)

	_, token, err := svc.Login("alice", "password123")
	assert.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "user-id", claims.UserID)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), testSecret, 15*time.Minute)
	other := NewAuthService(new(MockUserRepository), "another-secret-also-long-enough!", 15*time.Minute)

	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("FindByUsername", "alice").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything).Return(nil)
	issuer := NewAuthService(mockUserRepo, "another-secret-also-long-enough!", 15*time.Minute)
	_, token, err := issuer.Register("alice", "password123")
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := other.ValidateToken(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", claims.Username)
}

func TestValidateToken_Expired(t *testing.T) {
	mockUserRepo := new(MockUserRepository)
	mockUserRepo.On("FindByUsername", "alice").Return(nil, gorm.ErrRecordNotFound)
	mockUserRepo.On("Create", mock.Anything).Return(nil)
	svc := NewAuthService(mockUserRepo, testSecret, -time.Minute)

	_, token, err := svc.Register("alice", "password123")
	assert.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_Garbage(t *testing.T) {
	svc := NewAuthService(new(MockUserRepository), testSecret, 15*time.Minute)

	_, err := svc.ValidateToken("not-a-jwt")

	assert.ErrorIs(t, err, ErrInvalidToken)
}
