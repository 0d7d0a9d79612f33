package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/oksasatya/account-service/config"
	"github.com/oksasatya/account-service/internal/container"
	"github.com/oksasatya/account-service/internal/infrastructure/memory"
	"github.com/oksasatya/account-service/pkg/mailer"
)

type nopSender struct{}

func (nopSender) Send(context.Context, mailer.Message) error { return nil }

func TestInitModules_RegistersAccountRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	store := memory.NewStore()
	container.SetConfig(&config.Config{BaseURL: "http://localhost:3026", RoutePrefix: "/user", BcryptCost: 4})
	container.SetStore(container.Store{Accounts: store.Accounts(), Verifications: store.Verifications(), Tx: store})
	container.SetSender(nopSender{})

	r := gin.New()
	reg := NewRegistry(r, "/user")
	InitModules(reg)
	reg.RegisterAll()

	routes := map[string]bool{}
	for _, ri := range r.Routes() {
		routes[ri.Method+" "+ri.Path] = true
	}
	for _, want := range []string{
		"POST /user/signup",
		"GET /user/verify/:accountId/:rawToken",
		"GET /user/verified",
		"POST /user/signin",
		"POST /user/forgot-password",
		"POST /user/change-password",
	} {
		assert.True(t, routes[want], "missing route %s", want)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/user/signin", strings.NewReader(`{"email":"a@b.co","password":"x"}`)))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerifiedPath(t *testing.T) {
	assert.Equal(t, "/user/verified", VerifiedPath("/user"))
	assert.Equal(t, "/user/verified", VerifiedPath("/user/"))
	assert.Equal(t, "/verified", VerifiedPath(""))
}

type stubModule struct{ name string }

func (m stubModule) Name() string { return m.name }

func (m stubModule) Register(rg *gin.RouterGroup) {
	rg.GET("/"+m.name, func(c *gin.Context) { c.Status(http.StatusNoContent) })
}

func TestRegistry_MiddlewareAndDuplicates(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	reg := NewRegistry(r, "/api")
	reg.Use(func(c *gin.Context) { c.Header("X-Mounted", "yes") })
	reg.Add(stubModule{name: "ping"})
	assert.Panics(t, func() { reg.Add(stubModule{name: "ping"}) })
	reg.RegisterAll()

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "yes", rec.Header().Get("X-Mounted"))
}
