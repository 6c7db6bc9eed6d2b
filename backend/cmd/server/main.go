// Copyright (C) 2025 flashchat.io <dev@flashchat.io>
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	mongodriver "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/flashchat/flashchat/backend/config"
	"github.com/flashchat/flashchat/backend/handlers"
	"github.com/flashchat/flashchat/backend/integration"
	"github.com/flashchat/flashchat/backend/logging"
	"github.com/flashchat/flashchat/backend/middleware"
	"github.com/flashchat/flashchat/backend/realtime"
	mongostore "github.com/flashchat/flashchat/backend/storage/mongo"
	redisstore "github.com/flashchat/flashchat/backend/storage/redis"
)

func main() {
	configPath := flag.String("config", "", "optional config file path")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database connection
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	client, err := mongodriver.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal("connect mongo", zap.Error(err))
	}
	defer client.Disconnect(context.Background())

	if err := client.Ping(connectCtx, nil); err != nil {
		logger.Fatal("ping mongo", zap.Error(err))
	}

	store := mongostore.NewStore(client.Database(cfg.MongoDatabase))
	if err := store.EnsureIndexes(connectCtx); err != nil {
		logger.Fatal("ensure indexes", zap.Error(err))
	}

	// Redis connection (history cache). The cache is best-effort: the server
	// starts even if redis is down, and reads fall through to mongo.
	rdb := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	cache := redisstore.NewHistoryCache(rdb, cfg.CacheTTL, prometheus.DefaultRegisterer)

	// Push layer
	registry := realtime.NewRegistry()
	hub := realtime.NewHub(registry, logger.Named("hub"), prometheus.DefaultRegisterer)

	// Media uploads
	var uploader integration.Uploader
	if cfg.CloudinaryURL != "" {
		up, err := integration.NewCloudinaryUploader(cfg.CloudinaryURL)
		if err != nil {
			logger.Fatal("configure cloudinary", zap.Error(err))
		}
		uploader = up
	} else {
		logger.Warn("cloudinary_url not set, image uploads disabled")
	}

	// Handlers
	authHandler := handlers.NewAuthHandler(store, uploader, cfg.JWTSecret, cfg.SecureCookie, logger.Named("auth"))
	messageHandler := handlers.NewMessageHandler(store, cache, hub, uploader, logger.Named("messages"))
	groupHandler := handlers.NewGroupHandler(store, cache, hub, logger.Named("groups"))
	wsHandler := handlers.NewWSHandler(store, hub, cfg.JWTSecret, cfg.ClientURLs, logger.Named("ws"))

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWTSecret)

	// Setup router
	r := mux.NewRouter()
	r.Use(middleware.NewCORS(cfg.ClientURLs))

	auth := r.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/signup", authHandler.Signup).Methods("POST")
	auth.HandleFunc("/login", authHandler.Login).Methods("POST")
	auth.HandleFunc("/logout", authHandler.Logout).Methods("POST")
	auth.Handle("/update-profile", authMiddleware(http.HandlerFunc(authHandler.UpdateProfile))).Methods("PUT")
	auth.Handle("/check", authMiddleware(http.HandlerFunc(authHandler.Check))).Methods("GET")

	messages := r.PathPrefix("/api/messages").Subrouter()
	messages.Use(authMiddleware)
	messages.HandleFunc("/contacts", messageHandler.GetAllContacts).Methods("GET")
	messages.HandleFunc("/chats", messageHandler.GetChatPartners).Methods("GET")
	messages.HandleFunc("/send/{id}", messageHandler.SendMessage).Methods("POST")
	messages.HandleFunc("/{id}", messageHandler.GetMessages).Methods("GET")
	messages.HandleFunc("/{id}", messageHandler.DeleteMessage).Methods("DELETE")

	groups := r.PathPrefix("/api/groups").Subrouter()
	groups.Use(authMiddleware)
	groups.HandleFunc("/create", groupHandler.CreateGroup).Methods("POST")
	groups.HandleFunc("", groupHandler.GetMyGroups).Methods("GET")
	groups.HandleFunc("/toggle-admin", groupHandler.ToggleAdmin).Methods("PUT")
	groups.HandleFunc("/add-members", groupHandler.AddMembers).Methods("PUT")
	groups.HandleFunc("/remove-member", groupHandler.RemoveMember).Methods("PUT")
	groups.HandleFunc("/leave", groupHandler.LeaveGroup).Methods("PUT")

	// WebSocket endpoint (auth happens inside, before the upgrade)
	r.Handle("/ws", wsHandler).Methods("GET")

	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte("Database unavailable"))
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: r,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", cfg.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
