// Package router initializes the HTTP router (using Echo).
//
// It registers the middlewares and defines the API route groups,
// mapping specific paths to their corresponding handlers.
package router

import (
	"net/http"

	"github.com/deppfellow/vacq/internal/handler"
	"github.com/deppfellow/vacq/internal/middleware"
	"github.com/deppfellow/vacq/internal/server"
	"github.com/labstack/echo/v4"
)

// NewRouter builds the Echo instance with global middleware, system routes
// and the /api/v1 routes.
//
// Global middleware order: request id, New Relic transaction and
// attributes, request logger context, access log, panic recovery, security
// headers, CORS, body limit, rate limit.
func NewRouter(s *server.Server, h *handler.Handlers) *echo.Echo {
	middlewares := middleware.NewMiddlewares(s)

	router := echo.New()
	router.HideBanner = true
	router.HidePort = true
	router.HTTPErrorHandler = middlewares.Global.GlobalErrorHandler

	router.Use(
		middleware.RequestID(),
		middlewares.Tracing.NewRelicMiddleware(),
		middlewares.Tracing.EnhanceTracing(),
		middlewares.ContextEnhancer.EnhanceContext(),
		middlewares.Global.RequestLogger(),
		middlewares.Global.Recover(),
		middlewares.Global.Secure(),
		middlewares.Global.CORS(),
		middlewares.Global.BodyLimit(),
		middlewares.RateLimit.Limit(),
	)

	registerSystemRoutes(router, h)

	v1 := router.Group("/api/v1")
	registerHospitalRoutes(v1, h, middlewares)
	registerAppointmentRoutes(v1, h, middlewares)

	return router
}

// authenticated runs RequireAuth and then rebuilds the request logger so it
// carries the user.
func authenticated(m *middleware.Middlewares) []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		m.Auth.RequireAuth,
		m.ContextEnhancer.EnhanceContext(),
	}
}

func registerHospitalRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	hospitals := v1.Group("/hospitals")
	hh := h.Hospitals
	ah := h.Appointments

	admin := append(authenticated(m), m.Auth.RequireAdmin())

	hospitals.GET("", handler.Handle(hh.Handler, hh.ListHospitals, http.StatusOK))
	hospitals.POST("", handler.Handle(hh.Handler, hh.CreateHospital, http.StatusCreated), admin...)

	// Registered before /:id so it is not taken for a hospital id.
	hospitals.GET("/vacCenters", handler.Handle(h.VacCenters.Handler, h.VacCenters.ListVacCenters, http.StatusOK))

	hospitals.GET("/:id", handler.Handle(hh.Handler, hh.GetHospital, http.StatusOK))
	hospitals.PUT("/:id", handler.Handle(hh.Handler, hh.UpdateHospital, http.StatusOK), admin...)
	hospitals.DELETE("/:id", handler.Handle(hh.Handler, hh.DeleteHospital, http.StatusOK), admin...)

	hospitals.GET("/:hospitalId/appointments", handler.Handle(ah.Handler, ah.ListAppointments, http.StatusOK), authenticated(m)...)
	hospitals.POST("/:hospitalId/appointments", handler.Handle(ah.Handler, ah.CreateAppointment, http.StatusOK), authenticated(m)...)
}

func registerAppointmentRoutes(v1 *echo.Group, h *handler.Handlers, m *middleware.Middlewares) {
	appointments := v1.Group("/appointments", authenticated(m)...)
	ah := h.Appointments

	appointments.GET("", handler.Handle(ah.Handler, ah.ListAppointments, http.StatusOK))
	appointments.GET("/:id", handler.Handle(ah.Handler, ah.GetAppointment, http.StatusOK))
	appointments.PUT("/:id", handler.Handle(ah.Handler, ah.UpdateAppointment, http.StatusOK))
	appointments.DELETE("/:id", handler.Handle(ah.Handler, ah.DeleteAppointment, http.StatusOK))
}
