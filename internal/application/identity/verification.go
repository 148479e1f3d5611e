package identity

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"teamhub-backend/internal/application/emails"
	"teamhub-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	verifyPrefix = "verify:"
	verifyTTL    = 10 * time.Minute
)

// VerificationChannel confirms an existing identity out-of-band: a code is
// delivered to the account's known contact channel and echoed back by the user.
type VerificationChannel interface {
	Send(ctx context.Context, flowID, email string) error
	Confirm(ctx context.Context, flowID, code string) (*VerifiedIdentity, error)
}

// RedisVerification stores pending codes in Redis under "verify:<flow>" with
// a 10 minute TTL and delivers them through the email sender.
type RedisVerification struct {
	DB     *gorm.DB
	Rdb    *redis.Client
	Emails emails.Sender
}

type pendingVerification struct {
	Code     string `json:"code"`
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Fullname string `json:"fullname"`
}

// Send looks up the account behind the email, generates a 6-digit code, and
// emails it. Replaces any earlier pending code for the same flow.
func (v *RedisVerification) Send(ctx context.Context, flowID, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	var u domain.User
	if err := v.DB.WithContext(ctx).Where("email = ?", email).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoSuchAccount
		}
		return err
	}

	code := generateDigits(6)
	pending := pendingVerification{
		Code:     code,
		UserID:   u.UserID.String(),
		Email:    u.Email,
		Fullname: u.Fullname,
	}
	b, err := json.Marshal(pending)
	if err != nil {
		return err
	}
	if err := v.Rdb.Set(ctx, verifyPrefix+flowID, b, verifyTTL).Err(); err != nil {
		return err
	}

	if v.Emails != nil {
		if err := v.Emails.SendVerificationCode(ctx, u.Email, code); err != nil {
			return err
		}
	}
	return nil
}

// Confirm checks the code against the pending entry and, on match, deletes it
// and returns the confirmed identity.
func (v *RedisVerification) Confirm(ctx context.Context, flowID, code string) (*VerifiedIdentity, error) {
	b, err := v.Rdb.Get(ctx, verifyPrefix+flowID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrVerificationExpired
	}
	if err != nil {
		return nil, err
	}

	var pending pendingVerification
	if err := json.Unmarshal(b, &pending); err != nil {
		return nil, err
	}
	if strings.TrimSpace(code) != pending.Code {
		return nil, ErrVerificationMismatch
	}

	v.Rdb.Del(ctx, verifyPrefix+flowID)

	id, err := uuid.Parse(pending.UserID)
	if err != nil {
		return nil, fmt.Errorf("corrupt verification entry: %w", err)
	}
	return &VerifiedIdentity{UserID: id, Email: pending.Email, Fullname: pending.Fullname}, nil
}

func generateDigits(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		// A dead entropy source must never degrade to a guessable code.
		panic("crypto/rand unavailable: " + err.Error())
	}
	out := make([]byte, n)
	for i, c := range b {
		out[i] = '0' + c%10
	}
	return string(out)
}
