package router

import (
	"strings"

	"github.com/oksasatya/account-service/internal/application"
	"github.com/oksasatya/account-service/internal/container"
	handlers "github.com/oksasatya/account-service/internal/interface/http"
	"github.com/oksasatya/account-service/internal/router/modules"
	"github.com/oksasatya/account-service/pkg/helpers"
)

type AccountModuleDeps struct {
	Service *application.AccountService
	Handler *handlers.AccountHandler
}

func buildAccountDeps() AccountModuleDeps {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	store := container.GetStore()
	codec := helpers.NewPasswordCodec(cfg.BcryptCost)

	verifier := application.NewVerificationService(store.Accounts, store.Verifications, store.Tx, codec, logger)

	var opts []application.AccountOption
	if locker := container.GetSignupLocker(); locker != nil {
		opts = append(opts, application.WithSignupLocker(locker))
	}
	service := application.NewAccountService(store.Accounts, verifier, store.Tx, codec, container.GetSender(), cfg, logger, opts...)

	handler := handlers.NewAccountHandler(service, logger, VerifiedPath(cfg.RoutePrefix))

	return AccountModuleDeps{Service: service, Handler: handler}
}

// VerifiedPath is the path of the verification result page under prefix.
func VerifiedPath(prefix string) string {
	return strings.TrimRight(prefix, "/") + "/verified"
}

// InitModules initializes all application modules and registers them with the router registry
// This function should be called once during application startup to wire up all modules
func InitModules(r *Registry) {
	deps := buildAccountDeps()
	r.Add(modules.NewAccountModule(deps.Handler))
}
