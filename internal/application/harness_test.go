package application

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/domain/entity"
	repo "github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/internal/infrastructure/memory"
	"github.com/oksasatya/account-service/pkg/helpers"
	"github.com/oksasatya/account-service/pkg/mailer"
)

type fakeSender struct {
	mu   sync.Mutex
	msgs []mailer.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, msg mailer.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msg)
	return nil
}

func (f *fakeSender) last(t *testing.T) mailer.Message {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.msgs, "no mail sent")
	return f.msgs[len(f.msgs)-1]
}

type fakeLocker struct {
	err      error
	unlocked int
}

func (l *fakeLocker) Lock(context.Context, string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	return func() { l.unlocked++ }, nil
}

// failingVerifications rejects every Create.
type failingVerifications struct {
	repo.VerificationRepository
}

func (failingVerifications) Create(context.Context, *entity.Verification) error {
	return errors.New("disk full")
}

type harness struct {
	store    *memory.Store
	accounts repo.AccountRepository
	verifier *VerificationService
	svc      *AccountService
	sender   *fakeSender
	now      time.Time
}

func (h *harness) clock() time.Time { return h.now }

type harnessOpt func(*harnessConfig)

type harnessConfig struct {
	tx            repo.Transactor
	verifications repo.VerificationRepository
	opts          []AccountOption
}

func newHarness(t *testing.T, opts ...harnessOpt) *harness {
	t.Helper()
	store := memory.NewStore()
	hc := &harnessConfig{tx: store, verifications: store.Verifications()}
	for _, o := range opts {
		o(hc)
	}
	h := &harness{
		store:    store,
		accounts: store.Accounts(),
		sender:   &fakeSender{},
		now:      time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	codec := helpers.NewPasswordCodec(bcrypt.MinCost)
	cfg := &config.Config{AppName: "accounts", BaseURL: "http://localhost:3026", RoutePrefix: "/user"}
	h.verifier = NewVerificationService(h.accounts, hc.verifications, hc.tx, codec, nil,
		WithVerificationClock(h.clock))
	h.svc = NewAccountService(h.accounts, h.verifier, hc.tx, codec, h.sender, cfg, nil,
		append([]AccountOption{WithClock(h.clock)}, hc.opts...)...)
	return h
}

func validSignup() SignupInput {
	return SignupInput{
		LastName:    "Lovelace",
		FirstName:   "Ada",
		Email:       "ada@example.com",
		DateOfBirth: "1990-12-10",
		Password:    "correct horse",
	}
}

var linkRe = regexp.MustCompile(`/user/verify/([^/\s]+)/(\S+)`)

// signup registers in and returns the account id and raw token from the mailed link.
func (h *harness) signup(t *testing.T, in SignupInput) (string, string) {
	t.Helper()
	require.NoError(t, h.svc.Signup(context.Background(), in))
	m := linkRe.FindStringSubmatch(h.sender.last(t).Text)
	require.Len(t, m, 3, "verification link not found in mail")
	return m[1], m[2]
}
