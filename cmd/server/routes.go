package main

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/handlers"
	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
)

type services struct {
	imports   service.ImportService
	pedidos   service.TableService
	consulta  service.TableService
	sla       service.TableService
	entrada   service.TableService
	slaReport service.SLAService
	joiner    service.JoinerService
	phones    service.PhoneService
	auth      service.AuthService
}

func newGuards(cfg *config.Config, tokens *auth.TokenManager, limiter *middleware.RateLimiter) handlers.Guards {
	return handlers.Guards{
		Auth:        middleware.Auth(tokens),
		Table:       middleware.TableID(),
		Upload:      middleware.UploadLimit(cfg.Upload.MaxUploadMB),
		Limiter:     limiter,
		MaxUploadMB: cfg.Upload.MaxUploadMB,
	}
}

// setupRoutes registers every resource under the /api group.
func setupRoutes(router *gin.RouterGroup, g handlers.Guards, svc services) {
	maxMB := g.MaxUploadMB
	handlers.NewAuthHandler(svc.auth).RegisterRoutes(router, g)
	handlers.NewPedidosHandler(svc.imports, svc.pedidos, maxMB).RegisterRoutes(router, g)
	handlers.NewConsultaBipagensHandler(svc.imports, svc.consulta, maxMB).RegisterRoutes(router, g)
	handlers.NewPedidosStatusHandler(svc.consulta).RegisterRoutes(router, g)
	handlers.NewSLAHandler(svc.imports, svc.sla, svc.entrada, svc.slaReport, maxMB).RegisterRoutes(router, g)
	handlers.NewResultadosHandler(svc.joiner, maxMB).RegisterRoutes(router, g)
	handlers.NewTelefonesHandler(svc.imports, svc.phones, maxMB).RegisterRoutes(router, g)
}

func printRoutes(router *gin.Engine) {
	fmt.Println("\n=== Registered Routes ===")
	for _, route := range router.Routes() {
		fmt.Printf("%s\t%s\t-> %s\n", route.Method, route.Path, route.Handler)
	}
	fmt.Println("========================")
}
