package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/imrishuroy/abak-storefront/internal/aws"
	"github.com/imrishuroy/abak-storefront/internal/config"
	"github.com/imrishuroy/abak-storefront/internal/handlers"
	"github.com/imrishuroy/abak-storefront/internal/idempotency"
	"github.com/imrishuroy/abak-storefront/internal/logging"
	"github.com/imrishuroy/abak-storefront/internal/projector"
	"github.com/imrishuroy/abak-storefront/internal/search"
	"github.com/imrishuroy/abak-storefront/internal/session"
	"github.com/imrishuroy/abak-storefront/internal/storage"
)

func setupRouter(cfg handlers.HandlerConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), handlers.ContextID(), logging.GinLogger(cfg.Logger))

	// health
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handlers.RegisterCartRoutes(r, cfg)
	handlers.RegisterSearchRoutes(r, cfg)

	return r
}

// backends builds the cart storage and the idempotency store. AWS clients
// are only loaded when a DynamoDB table is in play.
func backends(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storage.Factory, idempotency.Store, error) {
	var clients *aws.AWSClients
	dynamo := func() (*aws.AWSClients, error) {
		if clients != nil {
			return clients, nil
		}
		var err error
		clients, err = aws.NewAWSClients(ctx)
		return clients, err
	}

	var factory storage.Factory
	switch cfg.StorageBackend {
	case config.BackendDynamoDB:
		c, err := dynamo()
		if err != nil {
			return nil, nil, err
		}
		factory = storage.NewDynamo(c.DynamoDB, cfg.CartTable).Factory()
	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable yet")
		}
		factory = storage.NewRedis(client, cfg.RedisPrefix, cfg.RedisTTL).Factory()
	default:
		factory = storage.NewMemory(cfg.StorageQuota).Factory()
	}

	if cfg.IdempotencyTable == "" {
		return factory, idempotency.NewMemoryStore(cfg.IdempotencyTTL), nil
	}
	c, err := dynamo()
	if err != nil {
		return nil, nil, err
	}
	return factory, idempotency.NewDynamoStore(c.DynamoDB, cfg.IdempotencyTable, cfg.IdempotencyTTL), nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logging.New("info", false)
		boot.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	factory, idem, err := backends(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init storage backends")
	}

	fetcher, err := search.NewHTTPFetcher(cfg.SuggestionsURL, &http.Client{Timeout: cfg.SearchTimeout})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init suggestion client")
	}

	registry := session.NewRegistry(factory, fetcher, session.Config{
		Projector: projector.Config{
			CurrencySuffix: cfg.CurrencySuffix,
			WhatsAppNumber: cfg.WhatsAppNumber,
			Greeting:       cfg.CheckoutGreeting,
		},
		Search: search.Config{
			MinChars:       cfg.SearchMinChars,
			Limit:          cfg.SearchLimit,
			Debounce:       cfg.SearchDebounce,
			BlurDelay:      cfg.SearchBlurDelay,
			FetchTimeout:   cfg.SearchTimeout,
			ShowProducts:   cfg.ShowProducts,
			ShowCategories: cfg.ShowCategories,
			ShowQueries:    cfg.ShowQueries,
		},
		Routes: search.Routes{
			ProductPath:  cfg.ProductPath,
			CategoryPath: cfg.CategoryPath,
			SearchPath:   cfg.SearchPath,
		},
	}, log)

	r := setupRouter(handlers.HandlerConfig{
		Registry:    registry,
		Idempotency: idem,
		Logger:      log,
	})

	// if environment variable RUN_LOCAL is set to "true", run local HTTP server for development.
	if cfg.RunLocal {
		go registry.RunSweeper(ctx, time.Minute, cfg.PageIdleTTL)
		srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
		log.Info().Str("addr", cfg.HTTPAddr).Str("storage", cfg.StorageBackend).Msg("running local server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to run local server")
		}
		return
	}

	// lambda adapter
	adapter := ginadapter.New(r)

	lambda.Start(func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		registry.Sweep(cfg.PageIdleTTL)
		return adapter.ProxyWithContext(ctx, req)
	})
}
