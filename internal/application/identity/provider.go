package identity

import (
	"context"
	"errors"
	"strings"

	"teamhub-backend/internal/domain"
	"teamhub-backend/internal/pkg/validation"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SignUpMetadata carries optional profile fields captured at registration.
type SignUpMetadata struct {
	Fullname string
	Phone    string
}

// AuthProvider abstracts account creation and sign-in so the resolver can be
// tested against doubles. SignUp must fail with ErrEmailTaken on a duplicate
// email, never silently overwrite.
type AuthProvider interface {
	SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*domain.User, error)
	SignIn(ctx context.Context, email, password string) (*domain.User, error)
}

// GormAuthProvider implements AuthProvider with GORM and bcrypt.
type GormAuthProvider struct {
	DB *gorm.DB
}

func (g *GormAuthProvider) SignUp(ctx context.Context, email, password string, meta SignUpMetadata) (*domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Fullname:     meta.Fullname,
		Email:        email,
		PasswordHash: string(hash),
	}
	if meta.Phone != "" {
		phone := validation.NormalizePhone(meta.Phone)
		u.Phone = &phone
	}
	if err := g.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return u, nil
}

func (g *GormAuthProvider) SignIn(ctx context.Context, email, password string) (*domain.User, error) {
	// Accounts are stored with lowercased emails; match whatever casing the
	// login form sends.
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	var u domain.User
	if err := g.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return &u, nil
}

// EmailAvailable reports whether no account uses the email. Used by the
// debounced availability checker.
func EmailAvailable(ctx context.Context, db *gorm.DB, email string) (bool, error) {
	var count int64
	if err := db.WithContext(ctx).Model(&domain.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count == 0, nil
}
