package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/ArielDRighi/TarotFlavia-sub004/internal/observability"
)

// ReadyCheck reports whether a dependency can serve traffic.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Options struct {
	Service        schedulingService
	Verifier       *TokenVerifier
	Logger         *slog.Logger
	Metrics        *observability.Metrics
	BookingLimiter Limiter
	ReadyChecks    []ReadyCheck
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// NewHandler builds the public HTTP surface: the gin router wrapped in CORS and
// OpenTelemetry instrumentation.
func NewHandler(opts Options) http.Handler {
	router := NewRouter(opts)
	c := cors.New(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Idempotency-Key", headerRequestID},
		ExposedHeaders:   []string{headerRequestID},
		AllowCredentials: false,
		MaxAge:           600,
	})
	return otelhttp.NewHandler(c.Handler(router), "tarot-http",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}

func NewRouter(opts Options) *gin.Engine {
	registerBindingValidators()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "http"))

	r := gin.New()
	r.Use(gin.Recovery(), requestID(), accessLog(logger), metricsMiddleware(opts.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/readyz", readyHandler(opts.ReadyChecks))
	r.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))

	h := &handlers{svc: opts.Service}
	api := r.Group("/api/v1", requestTimeout(opts.RequestTimeout), authenticate(opts.Verifier))

	providers := api.Group("/providers/:providerID")
	providers.GET("/slots", h.listSlots)
	providers.GET("/availability/weekly", h.listWeekly)
	providers.GET("/availability/exceptions", h.listExceptions)

	me := api.Group("/me/availability", requireRole(RoleProvider))
	me.PUT("/weekly", h.setWeekly)
	me.DELETE("/weekly/:id", h.removeWeekly)
	me.POST("/exceptions", h.addException)
	me.DELETE("/exceptions/:id", h.removeException)

	reservations := api.Group("/reservations")
	reservations.POST("", requireRole(RoleClient), rateLimit(opts.BookingLimiter, logger), h.book)
	reservations.GET("", h.listReservations)
	reservations.GET("/:id", h.getReservation)
	reservations.POST("/:id/confirm", requireRole(RoleProvider), h.confirm)
	reservations.POST("/:id/cancel", requireRole(RoleClient), h.cancel)
	reservations.POST("/:id/provider-cancel", requireRole(RoleProvider), h.providerCancel)
	reservations.POST("/:id/complete", requireRole(RoleProvider), h.complete)

	return r
}

func readyHandler(checks []ReadyCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		failed := gin.H{}
		for _, rc := range checks {
			if err := rc.Check(ctx); err != nil {
				failed[rc.Name] = err.Error()
			}
		}
		if len(failed) > 0 {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "failed": failed})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}
