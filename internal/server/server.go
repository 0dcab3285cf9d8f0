package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/makerloop/commerce-backend/internal/clock"
	"github.com/makerloop/commerce-backend/internal/handler"
	"github.com/makerloop/commerce-backend/internal/notify"
	"github.com/makerloop/commerce-backend/internal/payment"
	"github.com/makerloop/commerce-backend/internal/repository"
	"github.com/makerloop/commerce-backend/internal/service"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Server struct {
	e       *echo.Echo
	Sweeper *service.Sweeper
}

func New(db *gorm.DB, gw payment.Gateway, n notify.Notifier, clk clock.Clock, log zerolog.Logger, cartTTL, sweepInterval time.Duration, sha, buildTime string) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		AllowOriginFunc: func(origin string) (bool, error) {
			low := strings.ToLower(origin)
			return strings.HasPrefix(low, "http://localhost:") || strings.HasPrefix(low, "http://127.0.0.1:") ||
				strings.HasPrefix(low, "https://localhost:") || strings.HasPrefix(low, "https://127.0.0.1:"), nil
		},
	}))

	store := repository.NewStore(db)

	reservationSvc := service.NewReservationService(store, clk, log)
	cartSvc := service.NewCartService(store, reservationSvc, clk)
	lifecycleSvc := service.NewLifecycleService(store)
	settlementSvc := service.NewSettlementService(store, gw, n, clk, log)
	stockSvc := service.NewStockService(store, clk, log)
	orderReader := service.NewOrderReader(store)

	cartHandler := handler.NewCartHandler(cartSvc)
	orderHandler := handler.NewOrderHandler(settlementSvc, lifecycleSvc, orderReader)
	stockHandler := handler.NewStockHandler(stockSvc)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"ok":         "true",
			"git_sha":    sha,
			"build_time": buildTime,
		})
	})

	api := e.Group("/api")
	api.POST("/carts", cartHandler.Create)
	api.GET("/carts/:id", cartHandler.Get)
	api.POST("/carts/:id/items", cartHandler.AddItem)
	api.POST("/carts/:id/refresh", cartHandler.Refresh)
	api.POST("/carts/:id/checkout", orderHandler.Checkout)

	api.GET("/orders/:id", orderHandler.Get)
	api.POST("/orders/:id/capture", orderHandler.Capture)
	api.POST("/orders/:id/cancel", orderHandler.Cancel)
	api.POST("/orders/:id/ship", orderHandler.Ship)
	api.POST("/orders/:id/abandon", orderHandler.Abandon)

	api.POST("/items/:id/status", orderHandler.UpdateItemStatus)
	api.POST("/items/:id/payment-status", orderHandler.UpdateItemPaymentStatus)

	api.POST("/projects/:id/outcome", orderHandler.ProjectOutcome)
	api.POST("/skus/:id/adjust", stockHandler.Adjust)

	sweeper := service.NewSweeper(store, reservationSvc, clk, cartTTL, sweepInterval, log)

	return &Server{e: e, Sweeper: sweeper}
}

func (s *Server) Start(addr string) error {
	return s.e.Start(addr)
}
