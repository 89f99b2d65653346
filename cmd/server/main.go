package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ayush/microblog/internal/auth"
	"github.com/ayush/microblog/internal/blog"
	"github.com/ayush/microblog/internal/config"
	"github.com/ayush/microblog/internal/middleware"
	"github.com/ayush/microblog/internal/store"
	"github.com/ayush/microblog/internal/web"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	// ── PostgreSQL ────────────────────────────────────────────
	pgPool, err := pgxpool.New(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("postgres connect: %v", err)
	}
	defer pgPool.Close()
	pgStore := store.NewPostgresStore(pgPool)
	if err := pgStore.Migrate(ctx); err != nil {
		log.Fatalf("postgres migrate: %v", err)
	}

	// ── MongoDB ──────────────────────────────────────────────
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("mongo connect: %v", err)
	}
	defer mongoClient.Disconnect(ctx)
	mongoStore := store.NewMongoStore(mongoClient.Database(cfg.MongoDB))

	// ── Sessions (Redis) ─────────────────────────────────────
	sessions, err := auth.NewSessionStore(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.Fatalf("redis connect: %v", err)
	}
	defer sessions.Close()

	// ── Attachments (MinIO) ──────────────────────────────────
	attachments, err := store.NewAttachmentStore(
		ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
		cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
	)
	if err != nil {
		log.Fatalf("minio connect: %v", err)
	}

	// ── Handlers ─────────────────────────────────────────────
	view := web.NewRenderer()
	authHandler := auth.NewHandler(pgStore, sessions, view)
	blogHandler := blog.NewHandler(mongoStore, attachments, pgStore, view)
	requireAuth := middleware.RequireAuth(sessions)

	// ── Router ───────────────────────────────────────────────
	r := chi.NewRouter()
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(chimw.RealIP)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"ok"}`))
	})

	// Auth entry points stay outside the gate: an anonymous user has
	// to be able to reach the login and sign-up forms.
	r.Get("/signup", authHandler.SignupForm)
	r.Post("/users", authHandler.Signup)
	r.Get("/login", authHandler.LoginForm)
	r.Post("/login", authHandler.Login)
	r.Get("/logout", authHandler.Logout)
	r.Post("/logout", authHandler.Logout)
	r.Delete("/logout", authHandler.Logout)

	// Home page (protected)
	r.With(requireAuth).Get("/", blogHandler.Home)

	// Blog API (protected)
	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/auth/me", authHandler.Me)
		r.Route("/posts", func(r chi.Router) {
			r.Post("/", blogHandler.CreatePost)
			r.Get("/", blogHandler.ListPosts)
			r.Get("/{id}", blogHandler.GetPost)
			r.Put("/{id}", blogHandler.UpdatePost)
			r.Delete("/{id}", blogHandler.DeletePost)
			r.Post("/{id}/comments", blogHandler.CreateComment)
			r.Get("/{id}/comments", blogHandler.ListComments)
			r.Delete("/{id}/comments/{commentID}", blogHandler.DeleteComment)
			r.Post("/{id}/attachment", blogHandler.UploadAttachment)
			r.Get("/{id}/attachment", blogHandler.DownloadAttachment)
		})
		r.Route("/tags", func(r chi.Router) {
			r.Get("/", blogHandler.ListTags)
			r.Post("/", blogHandler.CreateTag)
			r.Delete("/{name}", blogHandler.DeleteTag)
		})
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  time.Minute,
		WriteTimeout: time.Minute,
	}

	go func() {
		log.Printf("microblog listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	srv.Shutdown(shutCtx)
}
