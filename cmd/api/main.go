package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"faceattend/internal/attendance"
	"faceattend/internal/audit"
	"faceattend/internal/auth"
	"faceattend/internal/config"
	"faceattend/internal/faceclient"
	"faceattend/internal/handler"
	"faceattend/internal/httpmiddleware"
	"faceattend/internal/queue"
	"faceattend/internal/recognition"
	"faceattend/internal/store"
	"faceattend/internal/user"
)

func main() {
	cfg := config.Load()

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg); err != nil {
		log.Fatalf("http server failed: %v", err)
	}
}

func runHTTP(cfg config.App) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(cfg.RedisAddr, cfg.RedisTimeout)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "faceattend:audit")
	}

	face := faceclient.New(cfg.FaceServiceURL, cfg.FaceTimeout, cfg.FaceSkip)
	log.Printf("Face service: %s (timeout %s)", cfg.FaceServiceURL, cfg.FaceTimeout)

	window, err := attendance.ParseWindow(cfg.AttendanceWindow)
	if err != nil {
		return err
	}
	go watchWindow(ctx, window)

	userRepo := user.NewRepository(db.Client)
	users := user.NewService(userRepo, cfg.BcryptCost)
	attRepo := attendance.NewRepository(db.Client)
	att := attendance.NewService(attRepo)
	rec := recognition.NewService(face, att)
	denylist := auth.NewRedisDenylist(redisClient.Client)
	auditRec := audit.NewRecorder(q)

	h := handler.New(users, userRepo, att, rec, face, denylist, auditRec, window, handler.TokenConfig{
		Issuer:     cfg.JWTIssuer,
		SigningKey: cfg.JWTSigningKey,
		AccessTTL:  cfg.AccessTTL,
		RefreshTTL: cfg.RefreshTTL,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
		MaxAge:           24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewSimpleTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		hctx, hcancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer hcancel()

		redisHealthy := redisClient.Healthy(hctx)
		dbHealthy := db.Client.PingContext(hctx) == nil
		faceHealthy := face.Health(hctx) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{
			"status": "ok", "redis": redisHealthy, "db": dbHealthy, "face_service": faceHealthy,
		})
	})

	api := r.Group("/api")
	{
		api.POST("/register", h.Register)
		api.POST("/login", h.Login)
		api.POST("/refresh", h.Refresh)

		authed := api.Group("", auth.UserAuth(cfg.JWTSigningKey, cfg.JWTIssuer, denylist))
		{
			authed.POST("/logout", h.Logout)
			authed.POST("/face-register", h.FaceRegister)
			authed.POST("/face-recognize", h.FaceRecognize)
			authed.GET("/users", h.ListUsers)
			authed.GET("/attendance", h.ListAttendance)
			authed.GET("/attendance-window", h.AttendanceWindow)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 90 * time.Second, // recognize blocks on the face service
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced shutdown: %v", err)
	}

	log.Println("Server exited")
	return nil
}

// watchWindow logs attendance-window transitions once a minute.
func watchWindow(ctx context.Context, w attendance.Window) {
	for open := range w.Watch(ctx, time.Minute) {
		if open {
			log.Printf("attendance window %s is open", w)
		} else {
			log.Printf("attendance window %s is closed", w)
		}
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("X-XSS-Protection", "1; mode=block")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		// Only add HSTS in production
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
