package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shiplogix/logistics-backend/api/controllers"
	"github.com/shiplogix/logistics-backend/api/middleware"
	"github.com/shiplogix/logistics-backend/internal/capacity"
	"github.com/shiplogix/logistics-backend/internal/forecast"
	"github.com/shiplogix/logistics-backend/internal/shipments"
	"github.com/shiplogix/logistics-backend/pkg/config"
	"github.com/shiplogix/logistics-backend/pkg/enums"
	"github.com/shiplogix/logistics-backend/pkg/logger"
	pkgredis "github.com/shiplogix/logistics-backend/pkg/redis"
)

// privilegedOperations need an admin or operator behind them.
var privilegedOperations = map[shipments.Operation]bool{
	shipments.OpReject:    true,
	shipments.OpArchive:   true,
	shipments.OpUnarchive: true,
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbPinger controllers.Pinger,
	redisPinger controllers.Pinger,
	idempotencyStore pkgredis.IdempotencyStore,
	gatherer prometheus.Gatherer,
	shipmentService shipments.Service,
	capacityService capacity.Service,
	forecastService forecast.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"database": dbPinger,
			"redis":    redisPinger,
		}))
	})

	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	idempotent := middleware.Idempotency(idempotencyStore, logg)
	if idempotencyStore == nil {
		idempotent = func(next http.Handler) http.Handler { return next }
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identify(cfg.JWT, logg))

		r.Route("/shipments", func(r chi.Router) {
			r.Get("/", controllers.ListShipments(shipmentService, logg))
			r.Get("/{shipmentId}", controllers.GetShipment(shipmentService, logg))
			r.With(
				middleware.RequireAuth(logg),
				guardPrivilegedOperations(logg),
				idempotent,
			).Post("/{shipmentId}/{operation}", controllers.ApplyShipmentOperation(shipmentService, logg))
		})

		r.Route("/warehouse-capacity", func(r chi.Router) {
			r.Get("/", controllers.ListCapacity(capacityService, logg))
			r.Get("/history", controllers.CapacityHistory(capacityService, logg))
			r.With(idempotent).Put("/{warehouse}/{field}", controllers.SetCapacityField(capacityService, logg))
		})

		r.Get("/capacity-forecast", controllers.CapacityForecast(forecastService, logg))
	})

	return r
}

func guardPrivilegedOperations(logg *logger.Logger) func(http.Handler) http.Handler {
	requireRole := middleware.RequireRole(logg, enums.MemberRoleAdmin, enums.MemberRoleOperator)
	return func(next http.Handler) http.Handler {
		guarded := requireRole(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if op, ok := shipments.ParseOperation(chi.URLParam(r, "operation")); ok && privilegedOperations[op] {
				guarded.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
