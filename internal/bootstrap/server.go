package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/api"
	"github.com/Domenick1991/flightbooking/config"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/customers"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the server fails.
func Run(ctx context.Context, cfg *config.Config, log zerolog.Logger, flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, customerSvc customers.CustomerUseCase) error {
	router := newRouter(flightSvc, bookingSvc, customerSvc)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	log.Info().Str("address", cfg.HTTP.Address).Msg("http server started")

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	}
}

func newRouter(flightSvc flights.FlightUseCase, bookingSvc booking.BookingUseCase, customerSvc customers.CustomerUseCase) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	api.NewFlightHandler(flightSvc).Register(router.Group("/flights"))
	api.NewBookingHandler(bookingSvc).Register(router.Group("/bookings"))
	api.NewCustomerHandler(customerSvc).Register(router.Group("/customers"))

	return router
}
