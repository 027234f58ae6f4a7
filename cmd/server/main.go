package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Nixie-Tech-LLC/masjidboard/internal/aladhan"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/db"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/display"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/http/middleware"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/redis"
	"github.com/Nixie-Tech-LLC/masjidboard/internal/weather"
)

func main() {
	env := LoadEnvironment()
	SetupLogger(env)
	if err := env.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid environment")
	}
	if !env.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	// initialize PostgreSQL
	if err := db.Init(env.DatabaseURL); err != nil {
		log.Fatal().Err(err).Msg("db init")
	}

	// run pending migrations
	if err := db.RunMigrations(env.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("db migrate")
	}
	store := db.NewStore(db.DB)

	var timingsCache aladhan.Cache
	if env.RedisAddress != "" {
		redis.InitRedis(env.RedisAddress, env.RedisUsername, env.RedisPassword)
		timingsCache = redis.NewJSONCache(redis.Rdb)
		log.Info().Str("addr", env.RedisAddress).Msg("[redis] cache enabled")
	} else {
		log.Warn().Msg("[redis] REDIS_ADDRESS unset, running without cache")
	}
	timings := aladhan.NewClient(env.AladhanBaseURL, timingsCache)

	builder := &display.Builder{
		Profiles: store,
		Settings: store,
		Content:  store,
		Timings:  timings,
		Weather:  weather.NewClient(env.WeatherBaseURL),
		DevMode:  env.IsDevelopment(),
	}

	hub := middleware.NewHub()
	kiosk := display.NewKiosk(builder, env.SlideInterval, hub)
	if env.MQTTBrokerURL != "" {
		publisher, err := middleware.NewMQTTPublisher(env.MQTTBrokerURL, "masjidboard-"+uuid.NewString()[:8])
		if err != nil {
			log.Warn().Err(err).Msg("[mqtt] publisher disabled")
		} else {
			kiosk.AddPublisher(publisher)
			defer publisher.Close()
		}
	}

	uploads, err := InitStorage(env)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	RegisterRoutes(r, env, Services{
		Store:    store,
		Storage:  uploads,
		Timings:  timings,
		Builder:  builder,
		Kiosk:    kiosk,
		Hub:      hub,
		Template: LoadTemplates(),
	})

	srv := &http.Server{
		Addr:              env.ServerAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("addr", env.ServerAddress).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	kiosk.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
	if err := db.DB.Close(); err != nil {
		log.Warn().Err(err).Msg("[db] close failed")
	}
}
