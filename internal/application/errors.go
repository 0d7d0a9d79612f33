package application

import (
	"errors"
	"fmt"
)

var (
	ErrValidation               = errors.New("validation failed")
	ErrDuplicateAccount         = errors.New("account already exists")
	ErrNotFound                 = errors.New("account not found")
	ErrInvalidCredentials       = errors.New("invalid credentials")
	ErrNotVerified              = errors.New("email not verified")
	ErrInvalidPassword          = errors.New("invalid password")
	ErrCurrentPasswordIncorrect = errors.New("current password incorrect")
	ErrStorage                  = errors.New("storage failure")
	ErrDispatch                 = errors.New("dispatch failure")
	ErrHashing                  = errors.New("hashing failure")
)

// ValidationKind names the rule a request broke.
type ValidationKind string

const (
	EmptyFields      ValidationKind = "empty_fields"
	InvalidName      ValidationKind = "invalid_name"
	InvalidEmail     ValidationKind = "invalid_email"
	InvalidBirthDate ValidationKind = "invalid_birth_date"
	PasswordTooShort ValidationKind = "password_too_short"
)

// ValidationError is returned before any storage access.
type ValidationError struct {
	Kind  ValidationKind
	Field string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Field)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Stage identifies the step of a multi-step operation that failed.
type Stage string

const (
	StageLookupAccount     Stage = "lookup_account"
	StageHashPassword      Stage = "hash_password"
	StageSaveAccount       Stage = "save_account"
	StageIssueChallenge    Stage = "issue_challenge"
	StageRenderMail        Stage = "render_mail"
	StageDispatchMail      Stage = "dispatch_mail"
	StageLookupChallenge   Stage = "lookup_challenge"
	StageClearExpired      Stage = "clear_expired"
	StageCompareToken      Stage = "compare_token"
	StageMarkVerified      Stage = "mark_verified"
	StageComparePassword   Stage = "compare_password"
	StageGeneratePassword  Stage = "generate_password"
	StageUpdatePassword    Stage = "update_password"
	StageAcquireSignupLock Stage = "acquire_signup_lock"
)

// StageError is a storage, hashing or dispatch failure at a specific stage.
// errors.Is matches both Kind and the underlying error.
type StageError struct {
	Stage Stage
	Kind  error
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v: %v", e.Stage, e.Kind, e.Err)
}

func (e *StageError) Unwrap() []error { return []error{e.Kind, e.Err} }

func stageErr(stage Stage, kind, err error) error {
	return &StageError{Stage: stage, Kind: kind, Err: err}
}

// StageOf returns the failing stage, or "" when err carries none.
func StageOf(err error) Stage {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage
	}
	return ""
}
