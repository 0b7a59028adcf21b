package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/carepoint/backend/internal/service"
)

// Services bundles what the handlers depend on.
type Services struct {
	Recommendations *service.RecommendationService
	Analysis        *service.AnalysisService
	Thresholds      *service.ThresholdService
	Accounts        *service.AccountService
	Requests        *service.RequestService
	Repo            service.DataRepository
	Version         string
}

// SetupRoutes configures all HTTP routes
func SetupRoutes(app *fiber.App, svcs Services) {
	handler := NewHandler(svcs)

	// Health check and metrics
	app.Get("/health", handler.HealthCheck)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 routes
	api := app.Group("/api/v1")
	{
		// Symptom matching
		api.Post("/recommendations", handler.Recommend)
		api.Get("/specialties", handler.GetSpecialties)

		// Image analysis
		api.Post("/detections/:mode", handler.Detect)
		api.Get("/detections", handler.ListDetections)
		api.Post("/analyze", handler.Analyze)
		api.Post("/classify/:mode", handler.Classify)

		// Threshold management
		api.Get("/thresholds", handler.GetThresholds)
		api.Put("/thresholds", handler.SetThresholds)
		api.Delete("/thresholds", handler.ResetThresholds)

		// Accounts
		api.Post("/accounts", handler.Register)
		api.Post("/accounts/login", handler.Login)
		api.Get("/doctors", handler.ListDoctors)

		// Service requests
		api.Post("/requests", handler.CreateRequest)
		api.Get("/users/:id/requests", handler.ListUserRequests)
		api.Get("/doctors/:id/requests", handler.ListDoctorRequests)
		api.Get("/doctors/:id/notifications", handler.ListNotifications)
		api.Post("/doctors/:id/notifications/:nid/read", handler.MarkNotificationRead)
	}
}
