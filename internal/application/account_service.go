package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/helpers"
	"github.com/oksasatya/account-service/pkg/mailer"
	"github.com/oksasatya/account-service/pkg/mailer/templates"
	"github.com/oksasatya/account-service/pkg/validation"
)

// SignupInput is the registration form. Field order decides which rule is reported first.
type SignupInput struct {
	LastName    string `json:"lastname" validate:"required,personname"`
	FirstName   string `json:"firstname" validate:"required,personname"`
	Email       string `json:"email" validate:"required,simpleemail"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,birthdate"`
	Password    string `json:"password" validate:"required,pwd"`
}

func (in *SignupInput) trim() {
	in.LastName = strings.TrimSpace(in.LastName)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.Email = strings.TrimSpace(in.Email)
	in.DateOfBirth = strings.TrimSpace(in.DateOfBirth)
	in.Password = strings.TrimSpace(in.Password)
}

// AccountService orchestrates signup, verification, signin and password management.
type AccountService struct {
	Accounts repo.AccountRepository
	Verifier *VerificationService
	Tx       repo.Transactor
	Locker   repo.SignupLocker // optional
	Codec    Hasher
	Mail     mailer.Sender
	Cfg      *config.Config
	Logger   *logrus.Logger

	validate    *validator.Validate
	now         Clock
	genPassword func() (string, error)
}

type AccountOption func(*AccountService)

// WithClock overrides time.Now.
func WithClock(c Clock) AccountOption {
	return func(s *AccountService) { s.now = c }
}

// WithSignupLocker serialises signups per email.
func WithSignupLocker(l repo.SignupLocker) AccountOption {
	return func(s *AccountService) { s.Locker = l }
}

// WithPasswordGenerator replaces the temporary password source.
func WithPasswordGenerator(fn func() (string, error)) AccountOption {
	return func(s *AccountService) { s.genPassword = fn }
}

func NewAccountService(accounts repo.AccountRepository, verifier *VerificationService, tx repo.Transactor, codec Hasher, mail mailer.Sender, cfg *config.Config, logger *logrus.Logger, opts ...AccountOption) *AccountService {
	if tx == nil {
		tx = repo.NoTx
	}
	s := &AccountService{
		Accounts: accounts,
		Verifier: verifier,
		Tx:       tx,
		Codec:    codec,
		Mail:     mail,
		Cfg:      cfg,
		Logger:   logger,
		validate: validation.New(),
		now:      time.Now,
		genPassword: func() (string, error) {
			return helpers.GenTemporaryPassword(helpers.TemporaryPasswordLength)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var fieldKinds = map[string]ValidationKind{
	"lastname":    InvalidName,
	"firstname":   InvalidName,
	"email":       InvalidEmail,
	"dateOfBirth": InvalidBirthDate,
	"password":    PasswordTooShort,
}

func (s *AccountService) validateSignup(in SignupInput) error {
	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}
	fes := validation.FieldErrors(err)
	if len(fes) == 0 {
		return err
	}
	for _, fe := range fes {
		if fe.Tag() == "required" {
			return &ValidationError{Kind: EmptyFields, Field: fe.Field()}
		}
	}
	fe := fes[0]
	return &ValidationError{Kind: fieldKinds[fe.Field()], Field: fe.Field()}
}

// Signup registers an unverified account and mails a verification link.
// A nil error means the account is pending verification.
func (s *AccountService) Signup(ctx context.Context, in SignupInput) (err error) {
	defer func() { recordSignup(err) }()
	in.trim()
	if err = s.validateSignup(in); err != nil {
		return err
	}
	log := logrus.Fields{"email": in.Email}

	if s.Locker != nil {
		unlock, err := s.Locker.Lock(ctx, "signup:"+in.Email)
		switch {
		case errors.Is(err, repo.ErrLocked):
			return ErrDuplicateAccount
		case err != nil:
			// fail-open: the unique index still rejects duplicates
			helpers.LogWarn(s.Logger, "signup lock unavailable", err, logrus.Fields{
				"stage": string(StageAcquireSignupLock), "email": in.Email,
			})
		default:
			defer unlock()
		}
	}

	if _, err := s.Accounts.GetByEmail(ctx, in.Email); err == nil {
		return ErrDuplicateAccount
	} else if !errors.Is(err, repo.ErrNotFound) {
		return s.fail(StageLookupAccount, ErrStorage, err, log)
	}

	dob, err := validation.ParseBirthDate(in.DateOfBirth)
	if err != nil {
		return &ValidationError{Kind: InvalidBirthDate, Field: "dateOfBirth"}
	}
	hash, err := s.Codec.Hash(in.Password)
	if err != nil {
		return s.fail(StageHashPassword, ErrHashing, err, log)
	}

	now := s.now().UTC()
	account := &entity.Account{
		LastName:     in.LastName,
		FirstName:    in.FirstName,
		Email:        in.Email,
		PasswordHash: hash,
		DateOfBirth:  dob,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	var (
		raw       string
		challenge *entity.Verification
	)
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.Accounts.Create(ctx, account); err != nil {
			if errors.Is(err, repo.ErrDuplicate) {
				return ErrDuplicateAccount
			}
			return s.fail(StageSaveAccount, ErrStorage, err, log)
		}
		var err error
		raw, challenge, err = s.Verifier.Issue(ctx, account.ID)
		return err
	})
	if err != nil {
		s.compensate(ctx, account.ID)
		return err
	}

	link := s.Cfg.VerifyLinkBase() + "/" + account.ID + "/" + raw
	data := templates.NewVerifyEmailData(s.Cfg, account.FirstName, account.Email, link,
		templates.WithTime(now),
		templates.WithExpiresIn(challenge.ExpiresAt.Sub(now)),
	)
	if err := s.send(ctx, templates.VerifyEmail, account.Email, data, log); err != nil {
		return err
	}
	helpers.LogInfo(s.Logger, "verification email sent", logrus.Fields{"account_id": account.ID})
	return nil
}

// compensate removes an account left behind when the signup unit of work
// failed on a backend without transactions.
func (s *AccountService) compensate(ctx context.Context, accountID string) {
	if accountID == "" {
		return
	}
	ctx = context.WithoutCancel(ctx)
	if _, err := s.Verifier.Verifications.DeleteByAccountID(ctx, accountID); err != nil {
		helpers.LogError(s.Logger, "compensating challenge delete failed", err, logrus.Fields{"account_id": accountID})
	}
	if err := s.Accounts.Delete(ctx, accountID); err != nil && !errors.Is(err, repo.ErrNotFound) {
		helpers.LogError(s.Logger, "compensating account delete failed", err, logrus.Fields{"account_id": accountID})
	}
}

// RedeemVerification consumes the verification token for accountID.
func (s *AccountService) RedeemVerification(ctx context.Context, accountID, rawToken string) (RedemptionResult, error) {
	res, err := s.Verifier.Redeem(ctx, accountID, rawToken)
	if err == nil {
		recordRedemption(res)
	}
	return res, err
}

// Signin checks credentials of a verified account. The returned view never carries the hash.
func (s *AccountService) Signin(ctx context.Context, email, password string) (*entity.AccountView, error) {
	email = strings.TrimSpace(email)
	password = strings.TrimSpace(password)
	if email == "" || password == "" {
		return nil, &ValidationError{Kind: EmptyFields}
	}
	log := logrus.Fields{"email": email}

	a, err := s.Accounts.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, s.fail(StageLookupAccount, ErrStorage, err, log)
	}
	if !a.Verified {
		return nil, ErrNotVerified
	}
	ok, err := s.Codec.Verify(password, a.PasswordHash)
	if err != nil {
		return nil, s.fail(StageComparePassword, ErrHashing, err, log)
	}
	if !ok {
		return nil, ErrInvalidPassword
	}
	view := a.View()
	return &view, nil
}

// ForgotPassword replaces the password with a freshly generated one and mails it.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return &ValidationError{Kind: EmptyFields, Field: "email"}
	}
	log := logrus.Fields{"email": email}

	a, err := s.Accounts.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail(StageLookupAccount, ErrStorage, err, log)
	}

	temp, err := s.genPassword()
	if err != nil {
		return s.fail(StageGeneratePassword, ErrHashing, err, log)
	}
	hash, err := s.Codec.Hash(temp)
	if err != nil {
		return s.fail(StageHashPassword, ErrHashing, err, log)
	}
	if err := s.Accounts.UpdatePassword(ctx, a.Email, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return s.fail(StageUpdatePassword, ErrStorage, err, log)
	}

	data := templates.NewTemporaryPasswordData(s.Cfg, a.FirstName, a.Email, temp, templates.WithTime(s.now()))
	return s.send(ctx, templates.TemporaryPassword, a.Email, data, log)
}

// ChangePassword sets a new password after checking the current one.
func (s *AccountService) ChangePassword(ctx context.Context, email, current, next string) error {
	email = strings.TrimSpace(email)
	current = strings.TrimSpace(current)
	next = strings.TrimSpace(next)
	if email == "" || current == "" || next == "" {
		return &ValidationError{Kind: EmptyFields}
	}
	log := logrus.Fields{"email": email}

	a, err := s.Accounts.GetByEmail(ctx, email)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return s.fail(StageLookupAccount, ErrStorage, err, log)
	}
	ok, err := s.Codec.Verify(current, a.PasswordHash)
	if err != nil {
		return s.fail(StageComparePassword, ErrHashing, err, log)
	}
	if !ok {
		return ErrCurrentPasswordIncorrect
	}
	hash, err := s.Codec.Hash(next)
	if err != nil {
		return s.fail(StageHashPassword, ErrHashing, err, log)
	}
	if err := s.Accounts.UpdatePassword(ctx, a.Email, hash); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return s.fail(StageUpdatePassword, ErrStorage, err, log)
	}
	return nil
}

func (s *AccountService) send(ctx context.Context, template, to string, data map[string]any, log logrus.Fields) error {
	subject, text, html, err := templates.Render(template, data)
	if err != nil {
		return s.fail(StageRenderMail, ErrDispatch, err, log)
	}
	msg := mailer.Message{To: to, Subject: subject, Text: text, HTML: html}
	if err := s.Mail.Send(ctx, msg); err != nil {
		return s.fail(StageDispatchMail, ErrDispatch, err, log)
	}
	return nil
}

func (s *AccountService) fail(stage Stage, kind, err error, fields logrus.Fields) error {
	f := logrus.Fields{"stage": string(stage)}
	for k, v := range fields {
		f[k] = v
	}
	helpers.LogError(s.Logger, "account operation failed", err, f)
	return stageErr(stage, kind, err)
}
