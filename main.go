package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/calles-genero/app/config"
	"github.com/calles-genero/app/controllers"
	"github.com/calles-genero/app/services"
	"github.com/calles-genero/internal/search"
	"github.com/calles-genero/internal/story"
	"github.com/calles-genero/routes"
	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

const version = "1.0.0"

func main() {
	loadConfig()

	logger := initLogger()
	defer logger.Sync()

	logger.Info("Starting calles-genero service", zap.String("version", version))

	if err := config.Load(viper.GetString("story.config_file")); err != nil {
		logger.Warn("Story config not loaded, using defaults",
			zap.String("path", viper.GetString("story.config_file")),
			zap.Error(err))
	}
	applyStoryOverrides()

	steps, err := story.LoadSteps(config.C.StepsFile)
	if err != nil {
		logger.Fatal("Failed to load story steps", zap.Error(err))
	}

	var mongoDB *mongo.Database
	if viper.GetBool("features.mongo") {
		mongoDB = initMongoDB(logger)
		defer func() {
			if err := mongoDB.Client().Disconnect(context.Background()); err != nil {
				logger.Error("Error disconnecting MongoDB", zap.Error(err))
			}
		}()
	}

	cacheService := initCache(mongoDB, logger)
	defer cacheService.Close()

	var searcher *search.RegistrySearcher
	if viper.GetBool("features.search") {
		searcher = initSearch(logger)
	}

	storyService, err := services.NewStoryService(
		viper.GetString("data.registry_path"),
		viper.GetString("data.geojson_path"),
		config.C, steps, cacheService, logger)
	if err != nil {
		logger.Fatal("Failed to initialize story service", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), viper.GetDuration("data.load_timeout"))
	_, err = storyService.Reload(ctx)
	cancel()
	if err != nil {
		logger.Fatal("Failed to load dataset", zap.Error(err))
	}

	adminService := services.NewAdminService(storyService, mongoDB, searcher, logger)
	if searcher != nil && viper.GetBool("meilisearch.seed_on_start") {
		if _, err := adminService.Seed(context.Background(), true); err != nil {
			logger.Warn("Initial seed failed", zap.Error(err))
		}
	}

	storyController := controllers.NewStoryController(storyService, adminService, version, logger)
	adminController := controllers.NewAdminController(adminService, logger)

	if viper.GetString("app.env") == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	routes.SetupAllRoutes(router, storyController, adminController)

	port := viper.GetString("app.port")
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
}

// loadConfig reads config/app.yaml and the environment.
func loadConfig() {
	viper.SetConfigName("app")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	viper.AddConfigPath(".")

	viper.SetDefault("app.port", "8080")
	viper.SetDefault("app.env", "development")
	viper.SetDefault("data.registry_path", "data/calles.json")
	viper.SetDefault("data.geojson_path", "data/red_vial.geojson")
	viper.SetDefault("data.load_timeout", "2m")
	viper.SetDefault("story.config_file", "config/story.yaml")
	viper.SetDefault("cache.l1_size", 1000)
	viper.SetDefault("redis.url", "redis://localhost:6379/0")
	viper.SetDefault("mongo.url", "mongodb://localhost:27017")
	viper.SetDefault("mongo.database", "calles_genero")
	viper.SetDefault("meilisearch.url", "http://localhost:7700")
	viper.SetDefault("meilisearch.master_key", "")
	viper.SetDefault("meilisearch.index", "calles")
	viper.SetDefault("meilisearch.seed_on_start", true)
	viper.SetDefault("features.redis", false)
	viper.SetDefault("features.mongo", false)
	viper.SetDefault("features.search", false)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Cannot read config file: %v", err)
	}
}

// applyStoryOverrides lets app.yaml and its env vars override story.yaml.
func applyStoryOverrides() {
	if v := viper.GetString("story.default_municipio"); v != "" {
		config.C.DefaultMunicipio = v
	}
	if n := viper.GetInt("story.gallery_max"); n > 0 {
		config.C.GalleryMax = n
	}
}

func initLogger() *zap.Logger {
	var cfg zap.Config
	if viper.GetString("app.env") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Cannot initialize logger:", err)
	}
	return logger
}

func initMongoDB(logger *zap.Logger) *mongo.Database {
	mongoURL := viper.GetString("mongo.url")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURL))
	if err != nil {
		logger.Fatal("Failed to connect to MongoDB", zap.Error(err))
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.Fatal("Failed to ping MongoDB", zap.Error(err))
	}

	dbName := viper.GetString("mongo.database")
	logger.Info("Connected to MongoDB", zap.String("database", dbName))
	return client.Database(dbName)
}

// initCache picks the summary cache from the enabled backends.
func initCache(mongoDB *mongo.Database, logger *zap.Logger) services.ICacheService {
	ttl := config.C.SummaryTTLDuration()

	var redisCache *services.RedisCacheService
	if viper.GetBool("features.redis") {
		var err error
		redisCache, err = services.NewRedisCacheService(viper.GetString("redis.url"), ttl, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Redis cache", zap.Error(err))
		}
	}

	var mongoCache *services.MongoCacheService
	if mongoDB != nil {
		l1Size := viper.GetInt("cache.l1_size")
		var err error
		mongoCache, err = services.NewMongoCacheService(mongoDB, l1Size, logger)
		if err != nil {
			logger.Fatal("Failed to initialize MongoDB cache", zap.Error(err))
		}
		if err := mongoCache.WarmUp(context.Background(), l1Size/2); err != nil {
			logger.Warn("Failed to warm up cache", zap.Error(err))
		}
	}

	switch {
	case redisCache != nil && mongoCache != nil:
		logger.Info("Summary cache: Redis + MongoDB")
		return services.NewHybridCacheService(redisCache, mongoCache, logger)
	case redisCache != nil:
		logger.Info("Summary cache: Redis")
		return redisCache
	case mongoCache != nil:
		logger.Info("Summary cache: MongoDB")
		return mongoCache
	default:
		logger.Info("Summary cache: in-memory")
		return services.NewCacheService(ttl)
	}
}

func initSearch(logger *zap.Logger) *search.RegistrySearcher {
	searchConfig := search.SearchConfig{
		Host:      viper.GetString("meilisearch.url"),
		APIKey:    viper.GetString("meilisearch.master_key"),
		IndexName: viper.GetString("meilisearch.index"),
		Timeout:   30 * time.Second,
		MaxHits:   20,
	}
	logger.Info("Meilisearch config",
		zap.String("host", searchConfig.Host),
		zap.String("index", searchConfig.IndexName))

	searcher, err := search.NewRegistrySearcher(searchConfig, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Meilisearch", zap.Error(err))
	}
	if err := searcher.BuildIndexes(); err != nil {
		logger.Warn("Failed to build Meilisearch indexes", zap.Error(err))
	}
	return searcher
}
