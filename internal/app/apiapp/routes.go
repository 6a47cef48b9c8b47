package apiapp

import (
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/havihaviplants/gnom-backend/internal/config"
	analyzesvc "github.com/havihaviplants/gnom-backend/internal/services/analyze"
	iapsvc "github.com/havihaviplants/gnom-backend/internal/services/iap"
	licensesvc "github.com/havihaviplants/gnom-backend/internal/services/license"
	rewardsvc "github.com/havihaviplants/gnom-backend/internal/services/reward"
	"github.com/havihaviplants/gnom-backend/internal/transport/http/handlers"
)

type Dependencies struct {
	AnalyzeService *analyzesvc.Service
	LicenseService *licensesvc.Service
	RewardService  *rewardsvc.Service
	IAPService     *iapsvc.Service
	Logger         *zap.Logger
	Config         config.Config
}

func RegisterRoutes(r chi.Router, deps Dependencies) {
	healthHandler := handlers.NewHealthHandler()
	analyzeHandler := handlers.NewAnalyzeHandler(deps.AnalyzeService)
	licenseHandler := handlers.NewLicenseHandler(deps.LicenseService)
	iapHandler := handlers.NewIAPHandler(deps.IAPService)
	shareHandler := handlers.NewShareHandler(deps.RewardService)

	r.Get("/healthz", healthHandler.Get)

	r.Post("/analyze", analyzeHandler.Analyze)
	r.Post("/unlock", analyzeHandler.Unlock)

	r.Route("/license", func(r chi.Router) {
		r.Post("/bootstrap", licenseHandler.Bootstrap)
		r.Post("/status", licenseHandler.Status)
		r.Post("/consume", licenseHandler.Consume)
	})

	r.Post("/iap/verify", iapHandler.Verify)

	// Some app builds post to /share with a trailing slash, some without.
	r.Post("/share", shareHandler.Create)
	r.Post("/share/", shareHandler.Create)
	r.Post("/share/claim", shareHandler.Claim)
	r.Get("/share/{shareID}", shareHandler.Get)
}
