package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/api"
	"censorship/pkg/censor"
	"censorship/pkg/guard"
	"censorship/pkg/metrics"
	"censorship/pkg/storage"
	"censorship/pkg/storage/memdb"
	"censorship/pkg/storage/mongo"
	"censorship/pkg/storage/postgres"
	"censorship/pkg/storage/redisdb"
)

type Config struct {
	ServiceName string `toml:"serviceName"`
	HTTPAddr    string `toml:"httpAddr"`
	LogLevel    string `toml:"logLevel"`
	EnvFile     string `toml:"envFile"`

	Mode           string `toml:"mode"`
	MaxConsecutive int    `toml:"maxConsecutive"`
	Demojize       bool   `toml:"demojize"`
	WordsFile      string `toml:"wordsFile"`
	WordsEncoding  string `toml:"wordsEncoding"`

	// Storage is one of "memory", "postgres", "mongo" or "redis". Empty keeps the list in the censor only.
	Storage  string `toml:"storage"`
	RedisKey string `toml:"redisKey"`

	KafkaAddr  string `toml:"kafkaAddr"`
	KafkaTopic string `toml:"kafkaTopic"`
	KafkaBatch int    `toml:"kafkaBatch"`

	// Upstream, when set, proxies every other path there, rejecting profane GuardFields on GuardPaths.
	Upstream    string   `toml:"upstream"`
	GuardPaths  []string `toml:"guardPaths"`
	GuardFields []string `toml:"guardFields"`
}

func main() {
	var (
		configPath string
		httpAddr   string
		logLevel   string
		wordsFile  string
		store      string
		kafkaAddr  string
		kafkaTopic string
		kafkaBatch int
		dev        bool
	)

	flag.StringVar(&configPath, "config", "cmd/server/config.toml", "Path to TOML config file")
	flag.StringVar(&httpAddr, "http", "", "HTTP server address in the form 'host:port'.")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&wordsFile, "words", "", "Path to the word list file.")
	flag.StringVar(&store, "storage", "", "Word list storage: memory, postgres, mongo, redis.")
	flag.StringVar(&kafkaAddr, "kafka", "", "Kafka server address in the form 'host:port'.")
	flag.StringVar(&kafkaTopic, "topic", "", "Kafka topic.")
	flag.IntVar(&kafkaBatch, "batch", 0, "Kafka batch size.")
	flag.BoolVar(&dev, "dev", false, "Run the server in development mode with in-memory storage.")
	flag.Parse()

	cfg := Config{
		ServiceName:    "censor",
		HTTPAddr:       ":8055",
		LogLevel:       "info",
		Mode:           string(censor.ModeWord),
		MaxConsecutive: 2,
		Demojize:       true,
	}
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[server] failed to load config file %s: %v", configPath, err)
	}

	// Override config with flags if set
	if httpAddr != "" {
		cfg.HTTPAddr = httpAddr
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if wordsFile != "" {
		cfg.WordsFile = wordsFile
	}
	if store != "" {
		cfg.Storage = store
	}
	if dev {
		cfg.Storage = "memory"
	}
	if kafkaAddr != "" {
		cfg.KafkaAddr = kafkaAddr
	}
	if kafkaTopic != "" {
		cfg.KafkaTopic = kafkaTopic
	}
	if kafkaBatch != 0 {
		cfg.KafkaBatch = kafkaBatch
	}

	if !strings.Contains(cfg.HTTPAddr, ":") {
		log.Warn("[server] use ':' before port number, e.g. ':8080'")
	}

	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		log.SetLevel(log.DebugLevel)
	case "info":
		log.SetLevel(log.InfoLevel)
	case "warn":
		log.SetLevel(log.WarnLevel)
	case "error":
		log.SetLevel(log.ErrorLevel)
	}

	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			log.Warnf("[server] failed to load env file %s: %v", cfg.EnvFile, err)
		}
	}

	c, err := newCensor(cfg)
	if err != nil {
		log.Fatalf("[server] failed to create censor: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := openStore(ctx, cfg)
	if err != nil {
		cancel()
		log.Fatalf("[server] failed to open %s storage: %v", cfg.Storage, err)
	}
	if db != nil {
		defer db.Close()
		if err := syncWords(ctx, c, db); err != nil {
			cancel()
			log.Fatalf("[server] failed to sync word list with storage: %v", err)
		}
	}
	cancel()
	metrics.Words.Set(float64(len(c.Words())))
	log.Infof("[server] censor ready: mode %s, %d entries", c.Mode(), len(c.Words()))

	var kafkaWriter *kafka.Writer
	if cfg.KafkaAddr != "" && cfg.KafkaTopic != "" {
		kafkaWriter = &kafka.Writer{
			Addr:      kafka.TCP(cfg.KafkaAddr),
			Topic:     cfg.KafkaTopic,
			BatchSize: cfg.KafkaBatch,
		}
		defer kafkaWriter.Close()
		if err := createTopic(kafkaWriter.Addr.String(), kafkaWriter.Topic); err != nil {
			log.Warnf("[server] failed to create Kafka topic: %v", err)
		}
	} else {
		log.Warn("[server] kafka was not configured, logs will not be sent to Kafka")
	}

	a, err := api.New(cfg.ServiceName, c, db, kafkaWriter)
	if err != nil {
		log.Fatalf("[server] failed to create API: %v", err)
	}
	a.WordsFile = cfg.WordsFile
	a.WordsEncoding = cfg.WordsEncoding

	if cfg.Upstream != "" {
		target, err := url.Parse(cfg.Upstream)
		if err != nil {
			log.Fatalf("[server] invalid upstream %q: %v", cfg.Upstream, err)
		}
		proxy := a.Router().NewRoute().Subrouter()
		proxy.Use(guard.Middleware(c, guard.Config{Paths: cfg.GuardPaths, Fields: cfg.GuardFields}))
		proxy.PathPrefix("/").Handler(httputil.NewSingleHostReverseProxy(target))
		log.Infof("[server] guarding requests to %s", target)
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: a.Router(),
	}

	go func() {
		log.Infof("[server] starting on %v", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] failed to start: %v", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownRelease := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownRelease()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorf("[server] HTTP server shutdown error: %v", err)
	} else {
		log.Info("[server] HTTP server shut down gracefully")
	}
}

func newCensor(cfg Config) (*censor.Censor, error) {
	ccfg := censor.DefaultConfig()
	ccfg.Mode = censor.Mode(cfg.Mode)
	ccfg.MaxConsecutive = cfg.MaxConsecutive
	ccfg.Demojize = cfg.Demojize

	c, err := censor.New(ccfg)
	if err != nil {
		return nil, err
	}
	if cfg.WordsFile != "" {
		if err := c.LoadFromFile(cfg.WordsFile, cfg.WordsEncoding); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func openStore(ctx context.Context, cfg Config) (storage.Store, error) {
	switch cfg.Storage {
	case "":
		return nil, nil

	case "memory":
		log.Info("[server] using in-memory storage")
		return memdb.New(), nil

	case "postgres":
		conf := postgres.ConfigFromEnv()
		if !conf.IsValid() {
			return nil, fmt.Errorf("invalid postgres config: %s", conf)
		}
		db, err := postgres.New(ctx, conf.ConString())
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
		}
		log.Infof("[server] connected to postgres: %s", conf)
		return db, nil

	case "mongo":
		conf := mongo.ConfigFromEnv()
		if !conf.IsValid() {
			return nil, fmt.Errorf("invalid mongo config: %s", conf)
		}
		db, err := mongo.New(ctx, conf)
		if err != nil {
			return nil, err
		}
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
		}
		log.Infof("[server] connected to mongo: %s", conf)
		return db, nil

	case "redis":
		addr := os.Getenv("REDIS_ADDR")
		if addr == "" {
			addr = "localhost:6379"
		}
		db := redisdb.NewStore(redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: os.Getenv("REDIS_PASSWORD"),
		}), cfg.RedisKey)
		if err := db.Ping(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: %v", storage.ErrDBNotResponding, err)
		}
		log.Infof("[server] connected to redis at %s", addr)
		return db, nil
	}

	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

// syncWords loads the stored list into c, or seeds an empty store with c's list.
func syncWords(ctx context.Context, c *censor.Censor, db storage.Store) error {
	words, err := db.Words(ctx)
	if errors.Is(err, storage.ErrNoWords) {
		log.Infof("[server] storage is empty, seeding %d entries", len(c.Words()))
		return db.SaveWords(ctx, c.Words())
	}
	if err != nil {
		return err
	}
	return c.Replace(words)
}

func createTopic(broker, topic string) error {
	conn, err := kafka.DialContext(context.Background(), "tcp", broker)
	if err != nil {
		return err
	}
	defer conn.Close()

	return conn.CreateTopics(kafka.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	})
}
