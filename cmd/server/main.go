package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community-backend/backplane"
	"community-backend/config"
	"community-backend/handlers"
	"community-backend/repository"
	"community-backend/services"
	"community-backend/utils"
	"community-backend/ws"
)

// loggingMiddleware adds request logging
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		log.Printf("Started %s %s", r.Method, r.URL.Path)

		next.ServeHTTP(w, r)

		log.Printf("Completed %s %s in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS, PUT, DELETE")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Sec-WebSocket-Protocol, Sec-WebSocket-Extensions, Sec-WebSocket-Key, Sec-WebSocket-Version, Upgrade, Connection")
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	// --- config/env ---
	cfg := config.Load()

	log.Printf("Starting relay server on port %s", cfg.Port)

	// --- repositories: Mongo when configured, in-memory otherwise ---
	var (
		userRepo repository.UserRepository
		convRepo repository.ConversationRepository
		msgRepo  repository.MessageRepository
	)
	if cfg.MongoURI != "" {
		db, err := repository.ConnectMongo(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.Fatalf("MongoDB connection failed: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			db.Close(ctx)
		}()
		userRepo = repository.NewMongoUserRepo(db)
		convRepo = repository.NewMongoConversationRepo(db)
		msgRepo = repository.NewMongoMessageRepo(db)
	} else {
		log.Println("MONGO_URI not set, using in-memory store")
		userRepo = repository.NewInMemoryUserRepo()
		convRepo = repository.NewInMemoryConversationRepo()
		msgRepo = repository.NewInMemoryMessageRepo()
	}

	// --- optional backplane ---
	var bp ws.Backplane
	if cfg.NATSURL != "" {
		bus, err := backplane.ConnectNATS(cfg.NATSURL)
		if err != nil {
			log.Fatalf("NATS connection failed: %v", err)
		}
		defer bus.Close()
		bp = bus
	}

	// --- relay hub ---
	verifier := ws.TokenVerifierFunc(func(token string) (string, error) {
		uid, _, err := utils.ParseJWT(cfg.JWTSecret, token)
		return uid, err
	})
	hub := ws.NewHub(ws.NewRegistry(), ws.NewRouter(), verifier, bp)
	go hub.Run()

	// --- services ---
	authSvc := services.NewAuthService(userRepo, &cfg)
	convSvc := services.NewConversationService(convRepo, userRepo)
	msgSvc := services.NewMessageService(msgRepo, convRepo, &cfg)

	// --- handlers ---
	authH := handlers.NewAuthHandler(authSvc)
	convH := handlers.NewConversationHandler(convSvc)
	msgH := handlers.NewMessageHandler(msgSvc)

	// --- mux and routes ---
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","timestamp":"` + time.Now().Format(time.RFC3339) + `"}`))
	})

	mux.HandleFunc("/api/register", authH.Register)
	mux.HandleFunc("/api/login", authH.Login)
	mux.HandleFunc("/api/conversations", handlers.WithAuth(authSvc, convH.Conversations))
	mux.HandleFunc("/api/conversations/get", handlers.WithAuth(authSvc, convH.Conversation))
	mux.HandleFunc("/api/messages", handlers.WithAuth(authSvc, msgH.Messages))
	mux.HandleFunc("/ws", hub.ServeWS)

	handler := withCORS(loggingMiddleware(mux))

	// --- server setup ---
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- graceful shutdown ---
	go func() {
		log.Printf("Relay server running on http://localhost:%s", cfg.Port)
		log.Printf("WS endpoint: ws://localhost:%s/ws", cfg.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("Server error: %v", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	if err := hub.Shutdown(10 * time.Second); err != nil {
		log.Printf("Hub forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
