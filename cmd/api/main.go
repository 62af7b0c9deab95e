package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mhargick-backend/config"
	"mhargick-backend/internal/delivery/http/middleware"
	v1 "mhargick-backend/internal/delivery/http/v1"
	"mhargick-backend/internal/infrastructure/cache"
	"mhargick-backend/internal/infrastructure/mail"
	"mhargick-backend/internal/infrastructure/paystack"
	"mhargick-backend/internal/repository/postgres"
	"mhargick-backend/internal/usecase"
	"mhargick-backend/pkg/logger"
	"mhargick-backend/pkg/storage"
	"mhargick-backend/pkg/utils"

	"github.com/NYTimes/gziphandler"
)

func main() {
	cfg := config.LoadConfig()
	utils.SetSecret(cfg.JWTSecret)

	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	log.Info().Msg("Connected to PostgreSQL")

	// Repositories
	userRepo := postgres.NewUserRepository(pgxPool)
	productRepo := postgres.NewProductRepository(pgxPool)
	orderRepo := postgres.NewOrderRepository(pgxPool)
	txManager := postgres.NewTransactionManager(pgxPool)

	// In-memory cache: default expiration 30m, cleanup every 60m
	memCache := cache.NewMemoryCache(30*time.Minute, 60*time.Minute)

	// Payment gateway + transactional mail
	paystackClient := paystack.NewClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL)
	mailer := mail.NewSendGridMailer(cfg.SendGridAPIKey, cfg.MailFrom)
	if mailer == nil {
		log.Warn().Msg("SENDGRID_API_KEY not set, order confirmation mail disabled")
	}

	mux := http.NewServeMux()

	// --- Modules ---

	// Auth Module
	authUC := usecase.NewAuthUsecase(userRepo, cfg)
	authHandler := v1.NewAuthHandler(authUC, cfg)

	// Storage Module (R2). Optional: the upload endpoint reports unavailable
	// when R2 is not configured.
	var r2Storage *storage.R2Storage
	if cfg.R2AccountID != "" {
		r2Storage, err = storage.NewR2Storage(
			context.Background(),
			cfg.R2AccountID,
			cfg.R2AccessKeyID,
			cfg.R2AccessKeySecret,
			cfg.R2BucketName,
			cfg.R2PublicURL,
			cfg.R2UploadTimeout,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize R2 storage")
		}
	} else {
		log.Warn().Msg("R2 not configured, media uploads disabled")
	}
	uploadHandler := v1.NewUploadHandler(r2Storage, cfg.MaxUploadSizeMB)

	// Catalog Module
	catalogUC := usecase.NewCatalogUsecase(productRepo, memCache, cfg)
	catalogHandler := v1.NewCatalogHandler(catalogUC)
	adminCatalogHandler := v1.NewAdminCatalogHandler(catalogUC)

	// Order Module
	orderUC := usecase.NewOrderUsecase(orderRepo, productRepo, userRepo, txManager, paystackClient, cfg)
	orderHandler := v1.NewOrderHandler(orderUC)
	adminOrderHandler := v1.NewAdminOrderHandler(orderUC)

	// Payment Module
	paymentUC := usecase.NewPaymentUsecase(orderRepo, txManager, paystackClient)
	paymentHandler := v1.NewPaymentHandler(paymentUC, mailer, cfg.PaystackSecretKey)

	// --- Routes ---

	authed := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(h)
	}
	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.AuthMiddleware(middleware.AdminMiddleware(h))
	}

	// Auth
	mux.HandleFunc("POST /api/v1/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/v1/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/v1/auth/refresh", authHandler.Refresh)
	mux.HandleFunc("POST /api/v1/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/v1/auth/me", authed(authHandler.Me))
	mux.Handle("PUT /api/v1/user/profile", authed(authHandler.UpdateProfile))

	// Catalog (Public)
	mux.HandleFunc("GET /api/v1/products", catalogHandler.ListProducts)
	mux.HandleFunc("GET /api/v1/products/{slug}", catalogHandler.GetProduct)
	mux.HandleFunc("GET /api/v1/categories", catalogHandler.ListCategories)
	mux.HandleFunc("GET /api/v1/products/{id}/reviews", catalogHandler.GetReviews)
	mux.Handle("POST /api/v1/products/{id}/reviews", authed(catalogHandler.CreateReview))

	// Cart & Checkout (Protected)
	mux.Handle("GET /api/v1/cart", authed(orderHandler.GetCart))
	mux.Handle("POST /api/v1/cart", authed(orderHandler.AddToCart))
	mux.Handle("PUT /api/v1/cart", authed(orderHandler.AddToCart))
	mux.Handle("DELETE /api/v1/cart/{productId}", authed(orderHandler.RemoveFromCart))
	mux.Handle("POST /api/v1/checkout", authed(orderHandler.Checkout))

	// Orders (Protected)
	mux.Handle("GET /api/v1/orders", authed(orderHandler.GetMyOrders))
	mux.Handle("GET /api/v1/orders/{id}", authed(orderHandler.GetOrder))
	mux.Handle("GET /api/v1/orders/{id}/history", authed(orderHandler.GetOrderHistory))
	mux.Handle("POST /api/v1/orders/{id}/cancel", authed(orderHandler.CancelOrder))

	// Payments. The webhook is authenticated by its HMAC signature, not a
	// session, so it bypasses the auth middleware.
	mux.HandleFunc("POST /api/v1/webhooks/paystack", paymentHandler.Webhook)
	mux.Handle("GET /api/v1/payments/verify/{reference}", authed(paymentHandler.Verify))

	// Uploads
	mux.Handle("POST /api/v1/upload", admin(uploadHandler.UploadFile))

	// Admin
	mux.Handle("GET /api/v1/admin/orders", admin(adminOrderHandler.ListOrders))
	mux.Handle("GET /api/v1/admin/orders/{id}", admin(orderHandler.GetOrder))
	mux.Handle("GET /api/v1/admin/orders/{id}/history", admin(orderHandler.GetOrderHistory))
	mux.Handle("PATCH /api/v1/admin/orders/{id}/status", admin(adminOrderHandler.UpdateStatus))
	mux.HandleFunc("GET /api/v1/config/statuses", adminOrderHandler.Statuses)
	mux.Handle("POST /api/v1/admin/products", admin(adminCatalogHandler.CreateProduct))
	mux.Handle("PUT /api/v1/admin/products/{id}", admin(adminCatalogHandler.UpdateProduct))
	mux.Handle("DELETE /api/v1/admin/products/{id}", admin(adminCatalogHandler.DeleteProduct))

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok"}`))
	}
	mux.HandleFunc("GET /api/v1/health", healthHandler)
	mux.HandleFunc("GET /health", healthHandler)

	addr := fmt.Sprintf(":%s", cfg.Port)

	// 50 req/s, burst 100, cleanup every minute, TTL 3 minutes
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		50,
		100,
		time.Minute,
		3*time.Minute,
	)

	handler := middleware.NewCORSMiddleware(cfg)(mux)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	log.Info().Msgf("Server starting on %s", addr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	pgxPool.Close()
	log.Info().Msg("Server exited properly")
}
