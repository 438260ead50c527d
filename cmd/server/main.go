package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	commonsHttp "github.com/omniful/go_commons/http"
	logger "github.com/omniful/go_commons/log"

	"github.com/Afonso-Front-End/torre-de-controle/internal/api/middleware"
	"github.com/Afonso-Front-End/torre-de-controle/internal/archive"
	"github.com/Afonso-Front-End/torre-de-controle/internal/auth"
	"github.com/Afonso-Front-End/torre-de-controle/internal/config"
	"github.com/Afonso-Front-End/torre-de-controle/internal/events"
	"github.com/Afonso-Front-End/torre-de-controle/internal/mongodb"
	"github.com/Afonso-Front-End/torre-de-controle/internal/rejects"
	"github.com/Afonso-Front-End/torre-de-controle/internal/repository"
	"github.com/Afonso-Front-End/torre-de-controle/internal/service"
	"github.com/Afonso-Front-End/torre-de-controle/pkg/constants"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config: " + err.Error())
		os.Exit(1)
	}

	mongoClient, err := mongodb.NewClient(context.Background(), mongodb.Config{
		URI:                    cfg.Mongo.URI,
		Database:               cfg.Mongo.Database,
		ServerSelectionTimeout: cfg.Mongo.ServerSelectionTimeout,
		MaxPoolSize:            cfg.Mongo.MaxPoolSize,
	})
	if err != nil {
		logger.Error("Failed to initialize MongoDB: " + err.Error())
		os.Exit(1)
	}
	if cfg.Mongo.EnsureIndexes {
		if err := mongoClient.CreateIndexes(context.Background()); err != nil {
			logger.Error("Failed to create indexes: " + err.Error())
		}
	}

	redisClient := initializeRedis(cfg.Redis)

	db := mongoClient.Database()
	pedidosRepo := repository.NewRowRepository(db, constants.CollectionPedidos, redisClient)
	statusRepo := repository.NewRowRepository(db, constants.CollectionPedidosComStatus, redisClient)
	slaRepo := repository.NewRowRepository(db, constants.CollectionSLA, redisClient)
	entradaRepo := repository.NewRowRepository(db, constants.CollectionEntradaGalpao, redisClient)
	telefonesRepo := repository.NewRowRepository(db, constants.CollectionListaTelefones, redisClient)
	motoristaRepo := repository.NewDeliveryRepository(db, constants.CollectionMotorista, redisClient)
	baseRepo := repository.NewDeliveryRepository(db, constants.CollectionBase, redisClient)
	userRepo := repository.NewUserRepository(db)
	historyRepo := repository.NewHistoryRepository(db)

	publisher, err := events.NewPublisher(cfg)
	if err != nil {
		logger.Error("Failed to initialize event publisher, falling back to logs: " + err.Error())
		publisher = events.LogPublisher{}
	}
	defer publisher.Close()

	var archiver *archive.Archiver
	if cfg.S3.ArchiveEnabled {
		if archiver, err = archive.NewS3Archiver(cfg.S3.Bucket, cfg.S3.Prefix); err != nil {
			logger.Error("S3 archive disabled: " + err.Error())
			archiver = nil
		}
	}

	var rejectLog *rejects.Logger
	if cfg.Upload.RejectsDir != "" {
		if rejectLog, err = rejects.NewLogger(cfg.Upload.RejectsDir); err != nil {
			logger.Error("Reject log disabled: " + err.Error())
			rejectLog = nil
		} else {
			defer rejectLog.Close()
		}
	}

	tokens := auth.NewTokenManager(cfg.Auth.SecretKey, cfg.Auth.AccessTokenTTL())

	importService := service.NewImportService(service.ImportRepositories{
		Pedidos:       pedidosRepo,
		Status:        statusRepo,
		SLA:           slaRepo,
		EntradaGalpao: entradaRepo,
		Telefones:     telefonesRepo,
	}, archiver, publisher, rejectLog)
	joinerService := service.NewJoinerService(pedidosRepo, statusRepo, motoristaRepo, baseRepo, userRepo)

	svc := services{
		imports:   importService,
		pedidos:   service.NewTableService(pedidosRepo),
		consulta:  service.NewTableService(statusRepo),
		sla:       service.NewTableService(slaRepo),
		entrada:   service.NewTableService(entradaRepo),
		slaReport: service.NewSLAService(slaRepo, entradaRepo),
		joiner:    joinerService,
		phones:    service.NewPhoneService(telefonesRepo, userRepo, historyRepo),
		auth:      service.NewAuthService(userRepo, tokens),
	}

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	defer stopConsumer()
	if cfg.Kafka.ConsumerEnabled {
		consumer, err := events.NewConsumer(cfg.Kafka, &events.AutoSendHandler{Sender: autoSender{joiner: joinerService}})
		if err != nil {
			logger.Error("Failed to start Kafka consumer: " + err.Error())
		} else {
			go consumer.Run(consumerCtx)
			defer consumer.Close()
			logger.Info("Kafka consumer started")
		}
	}

	server := commonsHttp.InitializeServer(
		cfg.Server.Address(),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		cfg.Server.IdleTimeout,
		false,
	)
	server.Engine.Use(
		middleware.RequestID(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.Server.CORSOrigins),
	)

	guards := newGuards(cfg, tokens, middleware.NewRateLimiter(redisClient))
	setupRoutes(server.Group("/api"), guards, svc)

	server.GET(constants.EndpointHealth, func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		redisStatus := "disconnected"
		if redisClient != nil {
			if _, err := redisClient.Ping(ctx).Result(); err == nil {
				redisStatus = "connected"
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"mongo":  mongoClient.Ping(ctx),
			"redis":  redisStatus,
		})
	})

	printRoutes(server.Engine)

	go func() {
		if err := server.StartServer("torre-de-controle"); err != nil {
			logger.Error("Failed to start server: " + err.Error())
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopConsumer()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.GracefulShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown: " + err.Error())
	}
	if err := mongoClient.Close(ctx); err != nil {
		logger.Error("Failed to close MongoDB client: " + err.Error())
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}

	logger.Info("Server exiting")
}

// autoSender adapts the joiner to the consumer's AutoSender.
type autoSender struct {
	joiner service.JoinerService
}

func (a autoSender) AutoSendMotorista(ctx context.Context, userID string) (string, error) {
	res, err := a.joiner.AutoSendMotorista(ctx, userID)
	if err != nil {
		return "", err
	}
	if res.Message != nil {
		return *res.Message, nil
	}
	return fmt.Sprintf(constants.MsgAutoSavedCount, res.Saved), nil
}

func initializeRedis(cfg config.RedisConfig) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis, caching and shared rate limits disabled: " + err.Error())
		_ = client.Close()
		return nil
	}

	logger.Info("Successfully connected to Redis")
	return client
}
