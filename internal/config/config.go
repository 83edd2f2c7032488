package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/bom-forecast-etl/internal/domain"
)

// Config holds all collector settings, populated from environment variables.
type Config struct {
	FTPHost     string
	FTPPort     int
	FTPDir      string
	FTPFilename string
	FTPTimeout  time.Duration

	XMLPath          string
	OutputPath       string
	OutputClearStale bool

	LogPath     string
	LogMaxBytes int64
	LogLevel    string
	LogFormat   string

	// Profile is the resolved extraction profile named by PROFILE.
	Profile domain.Profile

	// Schedule mode; a zero RunInterval runs the pipeline once.
	RunInterval     time.Duration
	HTTPAddr        string
	ShutdownTimeout time.Duration

	MetricsTextfile string

	// Optional re-publishing of saved excerpts.
	KafkaBrokers []string
	KafkaTopic   string
}

// FTPAddr returns the host:port of the bulletin server.
func (c *Config) FTPAddr() string {
	return net.JoinHostPort(c.FTPHost, strconv.Itoa(c.FTPPort))
}

// Load reads configuration from environment variables, applying defaults where
// unset. Variables from a .env file (ENV_FILE, default ".env") are loaded first
// without overriding the real environment.
func Load() (*Config, error) {
	if err := loadDotEnv(sharedcfg.EnvOrDefault("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	ftpPort, err := strconv.Atoi(sharedcfg.EnvOrDefault("FTP_PORT", "21"))
	if err != nil || ftpPort <= 0 || ftpPort > 65535 {
		return nil, errors.New("invalid FTP_PORT")
	}

	ftpTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("FTP_TIMEOUT", "30s"))
	if err != nil || ftpTimeout <= 0 {
		return nil, errors.New("invalid FTP_TIMEOUT")
	}

	runInterval, err := time.ParseDuration(sharedcfg.EnvOrDefault("RUN_INTERVAL", "0s"))
	if err != nil || runInterval < 0 {
		return nil, errors.New("invalid RUN_INTERVAL")
	}

	logMaxBytes, err := strconv.ParseInt(sharedcfg.EnvOrDefault("LOG_MAX_BYTES", "50000"), 10, 64)
	if err != nil || logMaxBytes <= 0 {
		return nil, errors.New("invalid LOG_MAX_BYTES")
	}

	clearStale, err := strconv.ParseBool(sharedcfg.EnvOrDefault("OUTPUT_CLEAR_STALE", "false"))
	if err != nil {
		return nil, errors.New("invalid OUTPUT_CLEAR_STALE")
	}

	profile, err := loadProfile(sharedcfg.EnvOrDefault("PROFILE", "western"), os.Getenv("PROFILE_FILE"))
	if err != nil {
		return nil, err
	}

	filename := sharedcfg.EnvOrDefault("FTP_FILENAME", "IDT16000.xml")
	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", ".")

	cfg := &Config{
		FTPHost:     sharedcfg.EnvOrDefault("FTP_HOST", "ftp.bom.gov.au"),
		FTPPort:     ftpPort,
		FTPDir:      sharedcfg.EnvOrDefault("FTP_DIR", "/anon/gen/fwo/"),
		FTPFilename: filename,
		FTPTimeout:  ftpTimeout,

		XMLPath:          sharedcfg.EnvOrDefault("XML_PATH", filepath.Join(dataDir, filename)),
		OutputPath:       sharedcfg.EnvOrDefault("OUTPUT_PATH", filepath.Join(dataDir, "forecast.txt")),
		OutputClearStale: clearStale,

		LogPath:     sharedcfg.EnvOrDefault("LOG_PATH", filepath.Join(dataDir, "forecast.log")),
		LogMaxBytes: logMaxBytes,
		LogLevel:    sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:   sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),

		Profile: profile,

		RunInterval:     runInterval,
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,

		MetricsTextfile: os.Getenv("METRICS_TEXTFILE"),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "forecast-excerpts"),
	}

	if cfg.FTPHost == "" {
		return nil, errors.New("FTP_HOST is required")
	}
	if cfg.FTPFilename == "" || strings.ContainsAny(cfg.FTPFilename, `/\`) {
		return nil, errors.New("FTP_FILENAME must be a bare file name")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load ENV_FILE %s: %w", path, err)
	}
	return nil
}

// loadProfile resolves the PROFILE name against the built-ins and, when set,
// the profiles declared in PROFILE_FILE.
func loadProfile(name, file string) (domain.Profile, error) {
	var extra []domain.Profile
	if file != "" {
		f, err := os.Open(file)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("open PROFILE_FILE: %w", err)
		}
		defer f.Close()

		extra, err = domain.LoadProfiles(f)
		if err != nil {
			return domain.Profile{}, fmt.Errorf("PROFILE_FILE %s: %w", file, err)
		}
	}

	p, err := domain.ResolveProfile(name, extra)
	if err != nil {
		return domain.Profile{}, fmt.Errorf("PROFILE: %w", err)
	}
	return p, nil
}

// parseBrokers returns nil when publishing is disabled.
func parseBrokers(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return sharedcfg.ParseBrokers(s)
}
