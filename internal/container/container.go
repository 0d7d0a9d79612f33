package container

import (
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/domain/repository"
	"github.com/oksasatya/account-service/pkg/mailer"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

// Store is the account storage backend selected by STORE_DRIVER.
type Store struct {
	Accounts      repository.AccountRepository
	Verifications repository.VerificationRepository
	Tx            repository.Transactor
}

var (
	cfg         *config.Config
	logger      *logrus.Logger
	store       Store
	redisClient *redis.Client
	locker      repository.SignupLocker
	sender      mailer.Sender
)

func SetConfig(c *config.Config) { cfg = c }
func GetConfig() *config.Config  { return cfg }
func SetLogger(l *logrus.Logger) { logger = l }
func GetLogger() *logrus.Logger  { return logger }
func SetStore(s Store)           { store = s }
func GetStore() Store            { return store }
func SetRedis(r *redis.Client)   { redisClient = r }
func GetRedis() *redis.Client    { return redisClient }

func SetSignupLocker(l repository.SignupLocker) { locker = l }
func GetSignupLocker() repository.SignupLocker  { return locker }
func SetSender(s mailer.Sender)                 { sender = s }
func GetSender() mailer.Sender                  { return sender }
