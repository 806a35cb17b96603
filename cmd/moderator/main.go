package main

import (
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/censor"
	"censorship/pkg/messaging"
	"censorship/pkg/metrics"
)

type Config struct {
	LogLevel    string `toml:"logLevel"`
	EnvFile     string `toml:"envFile"`
	NATSURL     string `toml:"natsURL"`
	Name        string `toml:"name"`
	MetricsAddr string `toml:"metricsAddr"`

	Mode           string `toml:"mode"`
	MaxConsecutive int    `toml:"maxConsecutive"`
	Demojize       bool   `toml:"demojize"`
	WordsFile      string `toml:"wordsFile"`
	WordsEncoding  string `toml:"wordsEncoding"`
}

// observedChecker records every check in the service metrics.
type observedChecker struct {
	c *censor.Censor
}

func (o observedChecker) Contains(text string) bool {
	start := time.Now()
	profane := o.c.Contains(text)
	metrics.ObserveCheck(profane, time.Since(start).Seconds())
	return profane
}

func main() {
	var (
		configPath string
		logLevel   string
		natsURL    string
	)

	flag.StringVar(&configPath, "config", "cmd/moderator/config.toml", "Path to TOML config file")
	flag.StringVar(&logLevel, "log", "", "Log level: debug, info, warn, error.")
	flag.StringVar(&natsURL, "nats", "", "NATS server URL.")
	flag.Parse()

	cfg := Config{
		LogLevel:       "info",
		Name:           "censor-moderator",
		Mode:           string(censor.ModeWord),
		MaxConsecutive: 2,
		Demojize:       true,
	}
	if _, err := toml.DecodeFile(configPath, &cfg); err != nil {
		log.Fatalf("[moderator] failed to load config file %s: %v", configPath, err)
	}
	if cfg.EnvFile != "" {
		if err := godotenv.Load(cfg.EnvFile); err != nil {
			log.Warnf("[moderator] failed to load env file %s: %v", cfg.EnvFile, err)
		}
	}

	// Override config with env and flags if set
	if url := os.Getenv("NATS_URL"); url != "" {
		cfg.NATSURL = url
	}
	if natsURL != "" {
		cfg.NATSURL = natsURL
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
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

	ccfg := censor.DefaultConfig()
	ccfg.Mode = censor.Mode(cfg.Mode)
	ccfg.MaxConsecutive = cfg.MaxConsecutive
	ccfg.Demojize = cfg.Demojize
	c, err := censor.New(ccfg)
	if err != nil {
		log.Fatalf("[moderator] failed to create censor: %v", err)
	}
	if cfg.WordsFile != "" {
		if err := c.LoadFromFile(cfg.WordsFile, cfg.WordsEncoding); err != nil {
			log.Fatalf("[moderator] failed to load word list %s: %v", cfg.WordsFile, err)
		}
	}
	metrics.Words.Set(float64(len(c.Words())))

	ncfg := messaging.DefaultNATSConfig()
	if cfg.NATSURL != "" {
		ncfg.URL = cfg.NATSURL
	}
	ncfg.Name = cfg.Name

	nc, err := messaging.NewNATSClient(ncfg)
	if err != nil {
		log.Fatalf("[moderator] %v", err)
	}
	defer nc.Close()

	if err := nc.ServeChecks(observedChecker{c: c}); err != nil {
		log.Fatalf("[moderator] %v", err)
	}

	if cfg.MetricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			log.Infof("[moderator] serving metrics on %s", cfg.MetricsAddr)
			if err := http.ListenAndServe(cfg.MetricsAddr, mux); !errors.Is(err, http.ErrServerClosed) {
				log.Errorf("[moderator] metrics server stopped: %v", err)
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("[moderator] shutting down gracefully...")
}
