package identity

import "errors"

var (
	// ErrEmailTaken means the email already belongs to an account. Creation is
	// never attempted; the user should switch to existing-account mode.
	ErrEmailTaken = errors.New("Email already registered")

	// ErrPostCreateSignInFailed means the account was created but the session
	// could not be established. The account exists: redirect to manual sign-in,
	// do not ask the user to re-register.
	ErrPostCreateSignInFailed = errors.New("Account created but sign-in failed")

	// ErrVerificationRequired means existing-account mode was chosen with no
	// active session and no completed verification.
	ErrVerificationRequired = errors.New("Identity verification required")

	// ErrVerificationMismatch means the submitted code does not match.
	ErrVerificationMismatch = errors.New("Verification code is incorrect")

	// ErrVerificationExpired means no code is pending (expired or never sent).
	ErrVerificationExpired = errors.New("Verification code expired, request a new one")

	// ErrNoSuchAccount means existing-account verification was requested for
	// an email with no account behind it.
	ErrNoSuchAccount = errors.New("No account found for this email")

	// ErrInvalidCredentials covers bad email/password on sign-in.
	ErrInvalidCredentials = errors.New("Invalid email or password")
)

// ValidationError maps form fields to messages. It blocks submission but
// leaves the flow on the registration form.
type ValidationError map[string]string

func (v ValidationError) Error() string {
	return "Invalid form input"
}
