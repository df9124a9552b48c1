package main

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"medsafe_app/internal/handlers"
	appMiddleware "medsafe_app/internal/middleware"
	"medsafe_app/internal/services"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment")
	}

	// Initialize Firebase (back-office auth)
	credPath := os.Getenv("FIREBASE_CREDENTIALS_PATH")
	if credPath == "" {
		credPath = "./firebase-service-account.json"
	}

	authClient, err := services.InitFirebase(credPath)
	if err != nil {
		log.Printf("Warning: Firebase initialization failed: %v", err)
		log.Println("Authenticated routes will reject requests until valid credentials are provided")
	}

	// Initialize Database
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL not set")
	}
	db, err := services.InitDB(databaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := services.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}

	// Initialize Redis (plan-catalog cache and payment locks). The API
	// still works without it; locks fall back to storage constraints.
	var cache *services.RedisCache
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cache, err = services.NewRedisCache(redisURL)
		if err != nil {
			log.Printf("Warning: Redis initialization failed: %v", err)
			cache = nil
		}
	} else {
		log.Println("Warning: REDIS_URL not set, caching disabled")
	}

	// Services
	billingClient := services.NewBillingClient()
	emailService := services.NewEmailService()
	paymentService := services.NewPaymentService(db, billingClient, cache)
	webhookService := services.NewWebhookService(db)
	approvalService := services.NewApprovalService(db, emailService)

	// Create Echo instance
	e := echo.New()
	e.HTTPErrorHandler = appMiddleware.CustomErrorHandler

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Handlers
	userHandler := handlers.NewUserHandler(db)
	planHandler := handlers.NewPlanHandler(db, cache)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	webhookHandler := handlers.NewWebhookHandler(webhookService)
	approvalHandler := handlers.NewApprovalHandler(approvalService)
	contentHandler := handlers.NewContentHandler(db)

	// Public routes
	e.POST("/users", userHandler.Register)
	e.GET("/plans", planHandler.ListPlans)
	e.GET("/slides", contentHandler.ListSlides)
	e.GET("/service-boxes", contentHandler.ListServiceBoxes)
	e.POST("/payments", paymentHandler.CreatePayment)
	e.POST("/webhooks/billing", webhookHandler.BillingCallback)
	e.POST("/upload-contract", approvalHandler.UploadContract)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	// Authenticated routes
	protected := e.Group("")
	protected.Use(appMiddleware.RequireAuth(authClient))
	protected.GET("/me", userHandler.Me)
	protected.PUT("/me", userHandler.UpdateMe)

	// Back-office routes
	admin := e.Group("/admin")
	admin.Use(appMiddleware.RequireAuth(authClient))
	admin.Use(appMiddleware.RequireAdmin(db))

	admin.GET("/pending-approvals", approvalHandler.ListPendingApprovals)
	admin.POST("/update-approval", approvalHandler.UpdateApproval)

	admin.POST("/plans", planHandler.StorePlan)
	admin.PUT("/plans/:id", planHandler.UpdatePlan)
	admin.DELETE("/plans/:id", planHandler.DeletePlan)

	admin.POST("/slides", contentHandler.StoreSlide)
	admin.PUT("/slides/:id", contentHandler.UpdateSlide)
	admin.DELETE("/slides/:id", contentHandler.DeleteSlide)

	admin.POST("/service-boxes", contentHandler.StoreServiceBox)
	admin.PUT("/service-boxes/:id", contentHandler.UpdateServiceBox)
	admin.DELETE("/service-boxes/:id", contentHandler.DeleteServiceBox)

	admin.GET("/users", userHandler.ListUsers)
	admin.DELETE("/users/:id", userHandler.DeleteUser)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	e.Logger.Fatal(e.Start(":" + port))
}
