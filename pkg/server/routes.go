package server

import (
	"fmt"
	"net/http"
	"time"

	httpLogger "github.com/chi-middleware/logrus-logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/riandyrn/otelchi"

	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/metrics"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/server/apihandlers"
)

var log = internal.GetLogger()

const (
	ReadHeaderTimeout = 5 * time.Second
	defaultPort       = 5001
	tracerServerName  = "townrec"
)

// Create creates a new HTTP server with the given app state
func Create(appState *models.AppState) *http.Server {
	serverPort := defaultPort
	if appState.Config != nil && appState.Config.Server.Port != 0 {
		serverPort = appState.Config.Server.Port
	}
	router := setupRouter(appState)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", serverPort),
		Handler:           router,
		ReadHeaderTimeout: ReadHeaderTimeout,
	}
}

// @title			townrec REST API
// @version		0.x
// @BasePath		/api/v1
// @schemes		http https
func setupRouter(appState *models.AppState) *chi.Mux {
	router := chi.NewRouter()
	router.Use(httpLogger.Logger("router", log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(SendVersion)
	router.Use(middleware.Heartbeat("/healthz"))
	router.Use(otelchi.Middleware(
		tracerServerName,
		otelchi.WithChiRoutes(router),
		otelchi.WithRequestMethodInSpanName(true),
	))

	router.Method(http.MethodGet, "/metrics", metrics.Handler())

	router.Route("/api/v1", func(r chi.Router) {
		r.Post("/sessions", apihandlers.CreateSessionHandler(appState))
		r.Route("/sessions/{sessionId}", func(r chi.Router) {
			r.Post("/recommendations", apihandlers.PostSessionRecommendationHandler(appState))
			r.Get("/memory", apihandlers.GetMemoryHandler(appState))
		})
		r.Post("/recommendations", apihandlers.PostRecommendationHandler(appState))

		if appState.PlaceFinder != nil {
			r.Post("/places/analyze", apihandlers.AnalyzeImageHandler(appState))
		}
	})

	// Legacy routes
	router.Post("/api/recommend-neighborhoods", apihandlers.PostLegacyRecommendationHandler(appState))
	if appState.PlaceFinder != nil {
		router.Post("/analyze", apihandlers.AnalyzeImageHandler(appState))
	} else {
		log.Info("Vision is disabled, image analysis routes are not registered")
	}

	return router
}
