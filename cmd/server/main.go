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

	"ondc-seller/config"
	"ondc-seller/internal/api"
	"ondc-seller/internal/audit"
	"ondc-seller/internal/broker"
	"ondc-seller/internal/callback"
	"ondc-seller/internal/processor"
	"ondc-seller/internal/redisclient"
	"ondc-seller/internal/registry"
	"ondc-seller/internal/stock"
	"ondc-seller/internal/store"
	"ondc-seller/internal/util"
	"ondc-seller/internal/worker"

	"github.com/gin-gonic/gin"
)

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting ONDC seller gateway")

	tp, err := util.InitTracer("ondc-seller", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	var redisClient *redisclient.Client
	if cfg.Redis.Enabled {
		redisClient, err = redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Redis connected")
	}

	var producer *broker.Producer
	if cfg.Kafka.Enabled {
		producer = broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAPILog)
		defer producer.Close()
		log.Println("Kafka producer initialized")
	}

	auditLog := audit.NewLog(db, producer)

	processorPool := worker.NewPool("processor", cfg.ONDC.ProcessorWorkers, cfg.ONDC.ProcessorQueueSize)
	defer processorPool.Shutdown()
	callbackPool := worker.NewPool("callback", cfg.ONDC.CallbackWorkers, cfg.ONDC.CallbackQueueSize)
	defer callbackPool.Shutdown()

	dispatcher := callback.NewDispatcher(callbackPool, auditLog,
		time.Duration(cfg.ONDC.CallbackTimeoutSeconds)*time.Second)

	registryClient := registry.NewClient(registryEndpoints(cfg),
		time.Duration(cfg.ONDC.RegistryTimeoutSeconds)*time.Second)

	reserver := stock.NewReservation(db, redisClient)

	engine := processor.NewEngine(cfg.ONDC.Environment,
		db, db, db, db, reserver, dispatcher, auditLog)

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handler := api.NewHandler(engine, processorPool, db, db, registryClient, auditLog, api.Options{
		Environment:                 cfg.ONDC.Environment,
		VerifySignatures:            cfg.ONDC.VerifySignatures,
		RegistryEncryptionPublicKey: cfg.ActiveRegistry().EncryptionPublicKey,
	})
	handler.SetupRoutes(router)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

func registryEndpoints(cfg *config.Config) map[string]registry.Endpoints {
	endpoints := make(map[string]registry.Endpoints, len(cfg.ONDC.Registry))
	for env, eps := range cfg.ONDC.Registry {
		endpoints[env] = registry.Endpoints{
			SubscribeURL: eps.SubscribeURL,
			LookupURL:    eps.LookupURL,
		}
	}
	return endpoints
}
