package identity

import (
	"context"
	"testing"

	"teamhub-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type codeCapture struct {
	lastTo   string
	lastCode string
}

func (c *codeCapture) SendWelcome(ctx context.Context, toEmail, firstName, entityName, role string) error {
	return nil
}

func (c *codeCapture) SendInvite(ctx context.Context, toEmail, inviteLink, entityName, role string) error {
	return nil
}

func (c *codeCapture) SendVerificationCode(ctx context.Context, toEmail, code string) error {
	c.lastTo = toEmail
	c.lastCode = code
	return nil
}

func setupVerificationTest(t *testing.T) (*RedisVerification, *gorm.DB, *miniredis.Miniredis, *codeCapture) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	capture := &codeCapture{}
	return &RedisVerification{DB: db, Rdb: rdb, Emails: capture}, db, mr, capture
}

func TestVerification_SendAndConfirm(t *testing.T) {
	v, db, _, capture := setupVerificationTest(t)
	user := &domain.User{Fullname: "Casey Reed", Email: "casey@example.com", PasswordHash: "x"}
	require.NoError(t, db.Create(user).Error)

	ctx := context.Background()
	require.NoError(t, v.Send(ctx, "flow-1", "Casey@Example.com"))
	assert.Equal(t, "casey@example.com", capture.lastTo)
	require.Len(t, capture.lastCode, 6)

	got, err := v.Confirm(ctx, "flow-1", capture.lastCode)
	require.NoError(t, err)
	assert.Equal(t, user.UserID, got.UserID)
	assert.Equal(t, "casey@example.com", got.Email)
	assert.Equal(t, "Casey Reed", got.Fullname)
}

func TestVerification_NoSuchAccount(t *testing.T) {
	v, _, _, _ := setupVerificationTest(t)

	err := v.Send(context.Background(), "flow-1", "ghost@example.com")
	require.ErrorIs(t, err, ErrNoSuchAccount)
}

func TestVerification_Mismatch(t *testing.T) {
	v, db, _, capture := setupVerificationTest(t)
	require.NoError(t, db.Create(&domain.User{Fullname: "Casey Reed", Email: "casey@example.com", PasswordHash: "x"}).Error)

	ctx := context.Background()
	require.NoError(t, v.Send(ctx, "flow-1", "casey@example.com"))

	_, err := v.Confirm(ctx, "flow-1", "000000")
	if capture.lastCode == "000000" {
		t.Skip("generated code collided with the probe value")
	}
	require.ErrorIs(t, err, ErrVerificationMismatch)

	// A mismatch does not burn the pending code.
	_, err = v.Confirm(ctx, "flow-1", capture.lastCode)
	require.NoError(t, err)
}

func TestVerification_ExpiredOrNeverSent(t *testing.T) {
	v, _, _, _ := setupVerificationTest(t)

	_, err := v.Confirm(context.Background(), "flow-1", "123456")
	require.ErrorIs(t, err, ErrVerificationExpired)
}

func TestVerification_TTLExpiry(t *testing.T) {
	v, db, mr, capture := setupVerificationTest(t)
	require.NoError(t, db.Create(&domain.User{Fullname: "Casey Reed", Email: "casey@example.com", PasswordHash: "x"}).Error)

	ctx := context.Background()
	require.NoError(t, v.Send(ctx, "flow-1", "casey@example.com"))

	mr.FastForward(verifyTTL + 1)

	_, err := v.Confirm(ctx, "flow-1", capture.lastCode)
	require.ErrorIs(t, err, ErrVerificationExpired)
}

func TestVerification_ConfirmIsSingleUse(t *testing.T) {
	v, db, _, capture := setupVerificationTest(t)
	require.NoError(t, db.Create(&domain.User{Fullname: "Casey Reed", Email: "casey@example.com", PasswordHash: "x"}).Error)

	ctx := context.Background()
	require.NoError(t, v.Send(ctx, "flow-1", "casey@example.com"))

	_, err := v.Confirm(ctx, "flow-1", capture.lastCode)
	require.NoError(t, err)

	_, err = v.Confirm(ctx, "flow-1", capture.lastCode)
	require.ErrorIs(t, err, ErrVerificationExpired)
}

func TestVerification_ResendReplacesCode(t *testing.T) {
	v, db, _, capture := setupVerificationTest(t)
	require.NoError(t, db.Create(&domain.User{Fullname: "Casey Reed", Email: "casey@example.com", PasswordHash: "x"}).Error)

	ctx := context.Background()
	require.NoError(t, v.Send(ctx, "flow-1", "casey@example.com"))
	first := capture.lastCode
	require.NoError(t, v.Send(ctx, "flow-1", "casey@example.com"))

	if first != capture.lastCode {
		_, err := v.Confirm(ctx, "flow-1", first)
		require.ErrorIs(t, err, ErrVerificationMismatch)
	}
	_, err := v.Confirm(ctx, "flow-1", capture.lastCode)
	require.NoError(t, err)
}

func TestGenerateDigits(t *testing.T) {
	for _, n := range []int{1, 6, 12} {
		code := generateDigits(n)
		require.Len(t, code, n)
		for _, r := range code {
			assert.True(t, r >= '0' && r <= '9', "non-digit %q in %q", r, code)
		}
	}
}
