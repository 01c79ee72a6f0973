// @title           WorkMate API
// @version         1.0
// @description     WorkMate Backend API - project tracking for installation contractors.
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// @schemes http https
package main

import (
	_ "backend/docs"
	"backend/handlers"
	"backend/storage"
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"https://workmate.app",
		"http://localhost:5173",
		"http://localhost:8080",
		"http://localhost:3000",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding", "X-XSRF-TOKEN",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
		"Accept-Language", "Accept-Charset", "DNT", "Connection",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

// runStockSnapshotJob records the current state of every stock row into
// stock_history so attic levels can be charted over time.
func runStockSnapshotJob(db *sql.DB) error {
	res, err := db.Exec(`
		INSERT INTO stock_history (stock_id, project_id, system, item_name, action,
		                           boq, supplied_qty, installed_qty, attic_stock, changed_by, created_at)
		SELECT id, project_id, system, item_name, 'snapshot',
		       boq, supplied_qty, installed_qty, attic_stock, 'system', NOW()
		FROM stocks
	`)
	if err != nil {
		return fmt.Errorf("failed to snapshot stocks: %w", err)
	}
	rowsAffected, _ := res.RowsAffected()
	log.Printf("Snapshotted %d stock rows.", rowsAffected)
	return nil
}

// runPasswordResetPurgeJob drops reset tokens that expired over a day ago.
func runPasswordResetPurgeJob(db *sql.DB) error {
	res, err := db.Exec(`DELETE FROM password_resets WHERE expires_at < NOW() - INTERVAL '24 hours'`)
	if err != nil {
		return fmt.Errorf("failed to purge password resets: %w", err)
	}
	rowsAffected, _ := res.RowsAffected()
	log.Printf("Purged %d expired password reset tokens.", rowsAffected)
	return nil
}

func safeGo(
	ctx context.Context,
	wg *sync.WaitGroup,
	name string,
	fn func(context.Context) error,
	cronLogger *log.Logger,
) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				if cronLogger != nil {
					cronLogger.Printf("PANIC in %s: %v\n%s", name, r, debug.Stack())
				}
			}
		}()

		if err := fn(ctx); err != nil {
			log.Printf("%s failed: %v", name, err)
			if cronLogger != nil {
				cronLogger.Printf("%s failed: %v", name, err)
			}
		} else {
			log.Printf("%s completed successfully", name)
			if cronLogger != nil {
				cronLogger.Printf("%s completed successfully", name)
			}
		}
	}()
}

func main() {
	db := storage.InitDB()
	_ = storage.InitGormDB()

	// Setup cron job to run maintenance daily shortly after midnight
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)

	// Open a file for cron error logging
	cronLogFile, err := os.OpenFile("cron_errors.log", os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		log.Printf("Failed to open cron error log file: %v", err)
	}
	cronLogger := log.New(cronLogFile, "CRON_ERROR: ", log.LstdFlags)

	_, err = c.AddFunc("30 0 * * *", func() {
		// ------------------ CRON LOCK ------------------
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous cron still running. Skipping this run.")
			if cronLogger != nil {
				cronLogger.Println("Previous cron still running. Skipping this run.")
			}
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		log.Println("Starting daily maintenance cron job")
		if cronLogger != nil {
			cronLogger.Println("Starting daily maintenance cron job")
		}

		// ------------------ TIMEOUT CONTEXT ------------------
		ctx, cancel := context.WithTimeout(context.Background(), 25*time.Minute)
		defer cancel()

		var wg sync.WaitGroup

		safeGo(ctx, &wg, "CleanupExpiredSessions", func(ctx context.Context) error {
			return storage.CleanupExpiredSessions(db)
		}, cronLogger)

		safeGo(ctx, &wg, "StockSnapshotJob", func(ctx context.Context) error {
			return runStockSnapshotJob(db)
		}, cronLogger)

		safeGo(ctx, &wg, "PasswordResetPurgeJob", func(ctx context.Context) error {
			return runPasswordResetPurgeJob(db)
		}, cronLogger)

		// ------------------ WAIT WITH CANCELLATION ------------------

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			log.Println("All cron jobs finished")
			if cronLogger != nil {
				cronLogger.Println("All cron jobs finished")
			}
		case <-ctx.Done():
			log.Println("Cron timeout reached, jobs cancelled")
			if cronLogger != nil {
				cronLogger.Println("Cron timeout reached, jobs cancelled")
			}
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule daily maintenance cron job: %v", err)
	}

	c.Start()

	r := gin.Default()
	r.MaxMultipartMemory = 8 << 20

	r.Use(cors.New(CORSConfig()))

	// ==================== 1. AUTH & SESSIONS ====================
	r.POST("/api/signup", handlers.SignupHandler(db))
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/google-login", handlers.GoogleLoginHandler(db))
	r.POST("/api/refresh-token", handlers.RefreshTokenHandler(db))
	r.POST("/api/validate-session", handlers.ValidateSession(db))
	r.DELETE("/api/session/:user_id", handlers.DeleteSessionHandler(db))
	r.GET("/api/active-devices", handlers.GetActiveDevicesHandler(db))
	r.POST("/api/logout-device", handlers.LogoutDeviceHandler(db))
	r.POST("/api/auth/forgot-password", handlers.ForgetPasswordHandler(db))
	r.POST("/api/auth/reset-password/:token", handlers.ResetPasswordHandler(db))

	// ==================== 2. PROFILE ====================
	r.GET("/api/profile", handlers.GetProfileHandler(db))
	r.PUT("/api/profile", handlers.UpdateProfileHandler(db))
	r.PUT("/api/profile/password", handlers.ChangePasswordHandler(db))

	// ==================== 3. PROJECTS ====================
	r.POST("/api/projects", handlers.CreateProjectHandler(db))
	r.GET("/api/projects", handlers.GetProjectsHandler(db))
	r.GET("/api/projects/:id", handlers.GetProjectHandler(db))
	r.PUT("/api/projects/:id", handlers.UpdateProjectHandler(db))
	r.DELETE("/api/projects/:id", handlers.DeleteProjectHandler(db))
	r.GET("/api/projects/:id/stats", handlers.GetProjectStatsHandler(db))

	// ==================== 4. STOCK ====================
	r.POST("/api/projects/:id/stocks", handlers.CreateStockHandler(db))
	r.GET("/api/projects/:id/stocks", handlers.GetStocksHandler(db))
	r.PUT("/api/projects/:id/stocks/:stock_id", handlers.UpdateStockHandler(db))
	r.DELETE("/api/projects/:id/stocks/:stock_id", handlers.DeleteStockHandler(db))
	r.GET("/api/projects/:id/stock-history", handlers.GetStockHistoryHandler(db))

	// ==================== 5. STOCK IMPORT / EXPORT ====================
	r.GET("/api/stock-template", handlers.DownloadStockTemplate)
	r.GET("/api/projects/:id/stocks/export", handlers.ExportStockCSV(db))
	r.GET("/api/projects/:id/stocks/export-xlsx", handlers.ExportStockXLSX(db))
	r.POST("/api/projects/:id/stocks/import", handlers.ImportStockCSV(db))

	// ==================== 6. CHECKLISTS ====================
	r.GET("/api/projects/:id/checklist/:system", handlers.GetChecklistHandler(db))
	r.POST("/api/projects/:id/checklist/:system/floors", handlers.CreateFloorHandler(db))
	r.DELETE("/api/projects/:id/checklist/:system/floors/:floor_id", handlers.DeleteFloorHandler(db))
	r.POST("/api/projects/:id/checklist/:system/floors/:floor_id/doors", handlers.CreateDoorHandler(db))
	r.DELETE("/api/projects/:id/checklist/:system/floors/:floor_id/doors/:door_id", handlers.DeleteDoorHandler(db))
	r.PATCH("/api/projects/:id/checklist/:system/floors/:floor_id/doors/:door_id/checkpoints", handlers.ToggleCheckpointHandler(db))
	r.POST("/api/projects/:id/checklist/:system/floors/:floor_id/doors/:door_id/checkpoints/photo", handlers.AttachCheckpointPhotoHandler(db))
	r.GET("/api/doors/:id/qr", handlers.GenerateDoorQRCodeJPEG(db))

	// ==================== 7. FILES ====================
	r.POST("/api/upload", handlers.UploadFile)
	r.GET("/api/get-file", handlers.ServeFile)
	r.DELETE("/api/delete-file", handlers.DeleteUploadedFile)

	// ==================== 8. REPORTS ====================
	r.GET("/api/projects/:id/report", handlers.GetInstallationReportHandler(db))
	r.GET("/api/projects/:id/report/pdf", handlers.GenerateInstallationReportPDF(db))
	r.GET("/api/projects/:id/stock-report", handlers.GetStockReportHandler(db))
	r.GET("/api/projects/:id/stock-report/pdf", handlers.GenerateStockReportPDF(db))
	r.GET("/api/projects/:id/proof-report", handlers.GetProofReportHandler(db))
	r.GET("/api/projects/:id/proof-report/pdf", handlers.GenerateProofReportPDF(db))

	// ==================== 9. DASHBOARD & LOGS ====================
	r.GET("/api/dashboard/project-status", handlers.GetProjectStatusCounts(db))
	r.GET("/api/dashboard/summary", handlers.GetDashboardSummary(db))
	r.GET("/api/activity-logs", handlers.GetActivityLogsHandler(db))

	// ==================== 10. SWAGGER ====================
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	// Get port from environment variable or use default
	port := os.Getenv("PORT")
	if port == "" {
		port = "9000"
	}

	portInt, err := strconv.Atoi(port)
	if err != nil {
		log.Fatalf("Invalid PORT environment variable: %s. Must be a number.", port)
	}
	if portInt < 0 || portInt > 65535 {
		log.Fatalf("Invalid PORT: %d. Must be between 0 and 65535.", portInt)
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cronCtx := c.Stop()
	select {
	case <-cronCtx.Done():
	case <-time.After(10 * time.Second):
		log.Println("Timed out waiting for cron jobs to stop")
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
