package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "debtflow/api/swagger" // swagger docs
	"debtflow/internal/config"
	"debtflow/internal/database"
	"debtflow/internal/handler"
	"debtflow/internal/lark"
	"debtflow/internal/middleware"
	"debtflow/internal/notify"
	"debtflow/internal/repository"
	"debtflow/internal/service"
	"debtflow/internal/websocket"
	"debtflow/internal/worker"
	"debtflow/pkg/logger"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
)

// @title           Debt Report Approval API
// @version         1.0
// @description     Approval workflow engine for branch debt reports: cashier, operator, supervisor and leader steps with locking, reminders and realtime notifications.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := godotenv.Load("configs/.env"); err != nil {
		log.Println("No configs/.env file found or error loading it")
	}

	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(logger.Config{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer zapLogger.Sync()

	db, err := database.NewConnection(cfg.Database.DSN())
	if err != nil {
		zapLogger.Fatal("Database connection failed", zap.Error(err))
	}
	zapLogger.Info("Connected to PostgreSQL")

	middleware.Init(cfg.JWT.Secret)

	// WebSocket hub
	wsHub := websocket.NewHub(zapLogger)
	go wsHub.Run()

	// Repositories
	txManager := repository.NewTransactionManager(db)
	userRepo := repository.NewUserRepository(db)
	requestRepo := repository.NewRequestRepository(db)
	recordRepo := repository.NewApprovalRecordRepository(db)
	reminderRepo := repository.NewReminderRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	orgRepo := repository.NewOrgRepository(db)
	renameRepo := repository.NewRenameRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	// Chat surface
	var messenger notify.Messenger
	if cfg.Lark.Enabled {
		larkClient := lark.NewClient(lark.Config{AppID: cfg.Lark.AppID, AppSecret: cfg.Lark.AppSecret}, zapLogger)
		messenger = lark.NewMessenger(larkClient, zapLogger)
	}
	dispatcher := notify.NewDispatcher(wsHub, messenger, requestRepo, zapLogger)

	// Services
	userService := service.NewUserService(userRepo, cfg.JWT)
	assignmentService := service.NewAssignmentService(assignmentRepo, userRepo)
	workflowService := service.NewWorkflowService(
		requestRepo, recordRepo, reminderRepo, auditRepo, orgRepo,
		txManager, assignmentService, dispatcher, cfg.Workflow, zapLogger,
	)
	lockService := service.NewLockService(
		requestRepo, auditRepo, assignmentService, txManager, dispatcher, cfg.Workflow, zapLogger,
	)
	reminderService := service.NewReminderService(
		reminderRepo, requestRepo, auditRepo, txManager, dispatcher, cfg.Workflow, cfg.Lark, zapLogger,
	)
	auditService := service.NewAuditService(auditRepo, renameRepo)
	orgService := service.NewOrgService(orgRepo, renameRepo, auditRepo, txManager)
	exportService := service.NewExportService(requestRepo)

	// Background workers
	workers := worker.NewManager(zapLogger)
	workers.Register(dispatcher)
	workers.Register(worker.NewReminderWorker(reminderService, 0, zapLogger))
	workers.Register(worker.NewLockSweeper(lockService, cfg.Workflow.LockSweepEvery, zapLogger))

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	if err := workers.StartAll(workerCtx); err != nil {
		zapLogger.Fatal("Failed to start workers", zap.Error(err))
	}

	// Handlers
	userHandler := handler.NewUserHandler(userService)
	requestHandler := handler.NewRequestHandler(workflowService, lockService, exportService)
	assignmentHandler := handler.NewAssignmentHandler(assignmentService)
	auditHandler := handler.NewAuditHandler(auditService)
	orgHandler := handler.NewOrgHandler(orgService)

	// Set up Gin Router
	router := gin.Default()

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Server.AllowedOrigins
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK"})
	})

	// WebSocket endpoint
	router.GET("/ws", func(c *gin.Context) {
		websocket.ServeWs(wsHub, c, []byte(cfg.JWT.Secret))
	})

	// Register API routes
	userHandler.RegisterRoutes(router.Group(""))
	requestHandler.RegisterRoutes(router.Group(""))
	assignmentHandler.RegisterRoutes(router.Group(""))
	auditHandler.RegisterRoutes(router.Group(""))
	orgHandler.RegisterRoutes(router.Group(""))

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		zapLogger.Info("Server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Graceful shutdown: stop accepting requests, then drain workers.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLogger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server shutdown failed", zap.Error(err))
	}

	workers.StopAll()
	stopWorkers()
	zapLogger.Info("Shutdown complete")
}
