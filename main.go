package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auto-photo-saver/document"
	"auto-photo-saver/images"
	"auto-photo-saver/logging"
	"auto-photo-saver/metrics"
	"auto-photo-saver/ocr/tesseract"
	"auto-photo-saver/redis"
	"auto-photo-saver/storage"
	"auto-photo-saver/submission"

	"github.com/prometheus/client_golang/prometheus"
)

type Config struct {
	ServerConfig ServerConfig `json:"server_config"`

	LogLevel  string `json:"log_level,omitempty"`
	LogFormat string `json:"log_format,omitempty"`

	OCR        tesseract.Config     `json:"ocr"`
	Extraction document.Config      `json:"extraction"`
	Photo      images.PhotoSettings `json:"photo"`
	Airline    string               `json:"airline,omitempty"`

	StorageType         string                    `json:"storage_type"`
	OutputDir           string                    `json:"output_dir,omitempty"`
	StorageTTLSeconds   int                       `json:"storage_ttl_seconds,omitempty"`
	RedisConfig         redis.RedisConfig         `json:"redis_config,omitempty"`
	RedisSentinelConfig redis.RedisSentinelConfig `json:"redis_sentinel_config,omitempty"`

	DownloadTokenSecretPath string `json:"download_token_secret_path,omitempty"`
	DownloadTokenTTLSeconds int    `json:"download_token_ttl_seconds,omitempty"`
}

const (
	StorageFilesystem    = "filesystem"
	StorageMemory        = "memory"
	StorageRedis         = "redis"
	StorageRedisSentinel = "redis_sentinel"
)

func defaultConfig() Config {
	return Config{
		ServerConfig: ServerConfig{Host: "localhost", Port: 8080, MaxUploadBytes: DefaultMaxUploadBytes},
		LogLevel:     "info",
		LogFormat:    "text",
		Extraction:   document.DefaultConfig(),
		Photo:        images.DefaultPhotoSettings(),
		StorageType:  StorageFilesystem,
		OutputDir:    storage.DefaultDir,
	}
}

func (c *Config) applyDefaults() {
	d := defaultConfig()
	if c.ServerConfig.Host == "" {
		c.ServerConfig.Host = d.ServerConfig.Host
	}
	if c.ServerConfig.Port == 0 {
		c.ServerConfig.Port = d.ServerConfig.Port
	}
	if c.ServerConfig.MaxUploadBytes <= 0 {
		c.ServerConfig.MaxUploadBytes = d.ServerConfig.MaxUploadBytes
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.LogFormat == "" {
		c.LogFormat = d.LogFormat
	}
	if c.StorageType == "" {
		c.StorageType = d.StorageType
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
}

func (c Config) storageTTL() time.Duration {
	if c.StorageTTLSeconds <= 0 {
		return storage.DefaultTTL
	}
	return time.Duration(c.StorageTTLSeconds) * time.Second
}

func (c Config) downloadTokenTTL() time.Duration {
	if c.DownloadTokenTTLSeconds <= 0 {
		return DefaultDownloadTokenTTL
	}
	return time.Duration(c.DownloadTokenTTLSeconds) * time.Second
}

func main() {
	configPath := flag.String("config", "", "Path for the config.json to use")
	passportPath := flag.String("passport", "", "Process a single passport image and exit")
	photoPath := flag.String("photo", "", "Person photo belonging to --passport")
	airline := flag.String("airline", "", "Airline code used in the SRDOCS command")
	pax := flag.Int("pax", 1, "Passenger number used in the file name and SRDOCS command")
	flag.Parse()

	oneShot := *passportPath != "" || *photoPath != ""
	if *configPath == "" && !oneShot {
		fmt.Fprintln(os.Stderr, "please provide a config path using the --config flag")
		os.Exit(2)
	}

	config := defaultConfig()
	if *configPath != "" {
		var err error
		config, err = readConfigFile(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to read config file: %v\n", err)
			os.Exit(1)
		}
	}
	if *airline != "" {
		config.Airline = *airline
	}

	logging.InitLoggerWithFormat(config.LogLevel, config.LogFormat)
	logger := logging.GetLogger()
	logger.Info("configuration loaded", "config", *configPath, "storage", config.StorageType)

	store, err := createArtifactStore(&config)
	if err != nil {
		logger.Error("failed to instantiate photo storage", "error", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	processor := newProcessor(&config, store, metrics.New(registry), logger)

	if oneShot {
		if err := runOnce(os.Stdout, processor, config.Airline, *pax, *passportPath, *photoPath); err != nil {
			logger.Error("failed to process passenger", "error", err)
			os.Exit(1)
		}
		return
	}

	secret, err := loadDownloadTokenSecret(config.DownloadTokenSecretPath)
	if err != nil {
		logger.Error("failed to load download token secret", "error", err)
		os.Exit(1)
	}
	tokens, err := NewDownloadTokenSigner(secret, config.downloadTokenTTL())
	if err != nil {
		logger.Error("failed to instantiate download token signer", "error", err)
		os.Exit(1)
	}

	server, err := NewServer(&ServerState{
		processor:      processor,
		store:          store,
		downloadTokens: tokens,
		gatherer:       registry,
	}, config.ServerConfig)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		os.Exit(1)
	}

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		_ = server.Stop()
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("failed to listen and serve", "error", err)
		os.Exit(1)
	}
}

func newProcessor(config *Config, store storage.ArtifactStore, m *metrics.Metrics, logger *slog.Logger) *submission.Processor {
	recognizer := tesseract.New(config.OCR, logger)
	extractor := document.NewExtractor(recognizer, config.Extraction, logger)
	normalizer := images.NewPhotoNormalizer(config.Photo, logger)
	return submission.NewProcessor(recognizer, extractor, normalizer, store, m, logger)
}

// runOnce processes one passenger from files on disk and prints the result
// as JSON.
func runOnce(out io.Writer, processor *submission.Processor, airline string, ordinal int, passportPath, photoPath string) error {
	slot := submission.Slot{Ordinal: ordinal}
	var err error
	if passportPath != "" {
		if slot.Passport, err = os.ReadFile(passportPath); err != nil {
			return fmt.Errorf("failed to read passport image: %w", err)
		}
	}
	if photoPath != "" {
		if slot.Photo, err = os.ReadFile(photoPath); err != nil {
			return fmt.Errorf("failed to read photo: %w", err)
		}
	}

	batch, err := processor.ProcessBatch(context.Background(), []submission.Slot{slot}, submission.Options{Airline: airline})
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(toBatchResponse(batch, nil))
}

func readConfigFile(path string) (Config, error) {
	configBytes, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var config Config
	if err := json.Unmarshal(configBytes, &config); err != nil {
		return Config{}, err
	}
	config.applyDefaults()
	return config, nil
}

func createArtifactStore(config *Config) (storage.ArtifactStore, error) {
	switch config.StorageType {
	case StorageFilesystem:
		slog.Info("Using filesystem photo storage", "dir", config.OutputDir)
		return storage.NewFileStore(config.OutputDir)
	case StorageRedis:
		slog.Info("Using redis photo storage")
		client, err := redis.NewRedisClient(&config.RedisConfig)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client, config.RedisConfig.Namespace, config.storageTTL()), nil
	case StorageRedisSentinel:
		slog.Info("Using redis sentinel photo storage")
		client, err := redis.NewRedisSentinelClient(&config.RedisSentinelConfig)
		if err != nil {
			return nil, err
		}
		return storage.NewRedisStore(client, config.RedisSentinelConfig.Namespace, config.storageTTL()), nil
	case StorageMemory:
		slog.Info("Using in memory photo storage")
		return storage.NewInMemoryStore(), nil
	}
	return nil, fmt.Errorf("%v is not a valid storage type", config.StorageType)
}
