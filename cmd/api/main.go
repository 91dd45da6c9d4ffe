package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/rentloop/rentloop-backend/internal/config"
	"github.com/rentloop/rentloop-backend/internal/handler"
	"github.com/rentloop/rentloop-backend/internal/middleware"
	"github.com/rentloop/rentloop-backend/internal/repository"
	"github.com/rentloop/rentloop-backend/internal/service"
	"github.com/rentloop/rentloop-backend/pkg/database"
	"github.com/rentloop/rentloop-backend/pkg/email"
	"github.com/rentloop/rentloop-backend/pkg/payment"
	"github.com/rentloop/rentloop-backend/pkg/storage"
	"github.com/rentloop/rentloop-backend/pkg/utils"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}

	cfg := config.LoadConfig()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("failed to connect database", zap.Error(err))
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	listingRepo := repository.NewListingRepository(db)
	imageRepo := repository.NewImageRepository(db)
	requestRepo := repository.NewChangeRequestRepository(db)
	projectionRepo := repository.NewProjectionRepository(db)
	planRepo := repository.NewPlanRepository(db)
	purchaseRepo := repository.NewPlanPurchaseRepository(db)

	// Storage
	r2Storage, err := storage.NewR2Storage(cfg)
	if err != nil {
		logger.Fatal("failed to initialize R2 storage", zap.Error(err))
	}

	// Email service
	emailService := email.NewEmailService(userRepo, logger)

	// Media engine
	propagator := service.NewPropagator(db, r2Storage, logger)
	cleaner := service.NewCleaner(r2Storage, logger)

	// Services
	authService := service.NewAuthService(userRepo, emailService)
	listingService := service.NewListingService(listingRepo, imageRepo, userRepo, r2Storage, propagator, logger)
	changeRequestService := service.NewChangeRequestService(requestRepo, listingRepo, imageRepo, logger)
	approvalService := service.NewApprovalService(requestRepo, listingRepo, imageRepo, propagator, cleaner, emailService, logger)
	publicService := service.NewPublicService(listingRepo, projectionRepo)

	// Stripe service
	stripeService := payment.NewStripeService(os.Getenv("STRIPE_SECRET_KEY"))
	billingService := service.NewBillingService(stripeService, userRepo, planRepo, purchaseRepo)

	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	listingHandler := handler.NewListingHandler(listingService, validator)
	changeRequestHandler := handler.NewChangeRequestHandler(changeRequestService, approvalService)
	publicHandler := handler.NewPublicHandler(publicService)
	billingHandler := handler.NewBillingHandler(billingService)

	// Router
	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberLogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)

	api.Get("/public/listings", publicHandler.BrowseListings)
	api.Get("/public/listings/:url/media", publicHandler.GetListingMedia)

	// Stripe webhook (public)
	api.Post("/billing/webhook", billingHandler.HandleStripeWebhook)
	api.Get("/plans", billingHandler.GetPlans)
	api.Get("/plans/:id", billingHandler.GetPlan)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		listings := api.Group("/listings")
		listings.Post("/", listingHandler.CreateListing)
		listings.Get("/", listingHandler.GetMyListings)
		listings.Get("/:id", listingHandler.GetListing)
		listings.Put("/:id", listingHandler.UpdateListing)
		listings.Delete("/:id", listingHandler.DeleteListing)
		listings.Post("/:id/publish", listingHandler.PublishListing)
		listings.Post("/:id/unpublish", listingHandler.UnpublishListing)
		listings.Post("/:id/images", listingHandler.UploadImage)
		listings.Get("/:id/images", listingHandler.GetListingImages)
		listings.Post("/:id/image-requests", changeRequestHandler.Submit)

		requests := api.Group("/image-requests")
		requests.Get("/", changeRequestHandler.ListMyRequests)
		requests.Get("/:id", changeRequestHandler.GetMyRequest)

		billing := api.Group("/billing")
		billing.Post("/checkout/:planId", billingHandler.CreateCheckoutSession)
		billing.Get("/history", billingHandler.GetPurchaseHistory)

		// Admin review queue
		admin := api.Group("/admin", middleware.RequireAdmin())
		admin.Get("/image-requests", changeRequestHandler.ListReviewable)
		admin.Post("/image-requests/:id/approve", changeRequestHandler.Approve)
		admin.Post("/image-requests/:id/reject", changeRequestHandler.Reject)
	}

	logger.Info("starting server", zap.String("port", cfg.Port))
	log.Fatal(app.Listen(":" + cfg.Port))
}
