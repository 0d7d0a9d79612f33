package modules

import (
	"github.com/gin-gonic/gin"

	handlers "github.com/oksasatya/account-service/internal/interface/http"
)

// AccountModule wires the account lifecycle routes:
// POST /signup, GET /verify/:accountId/:rawToken, GET /verified,
// POST /signin, POST /forgot-password, POST /change-password

type AccountModule struct {
	Handler *handlers.AccountHandler
}

func NewAccountModule(h *handlers.AccountHandler) *AccountModule {
	return &AccountModule{Handler: h}
}

func (m *AccountModule) Name() string { return "account" }

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	rg.POST("/signup", m.Handler.Signup)
	rg.GET("/verify/:accountId/:rawToken", m.Handler.Verify)
	rg.GET("/verified", m.Handler.Verified)
	rg.POST("/signin", m.Handler.Signin)
	rg.POST("/forgot-password", m.Handler.ForgotPassword)
	rg.POST("/change-password", m.Handler.ChangePassword)
}
