package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/safedata/safedata/pkg/constants"
)

type Config struct {
	Host           string
	Port           int
	MetricsPort    int
	EnableMetrics  bool
	LogLevel       string
	LogFormat      string
	MaxUploadSize  int64
	SessionBackend string
	SessionTTL     time.Duration
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	TLSCert        string
	TLSKey         string
	Version        bool
}

func ParseFlags() *Config {
	config := &Config{}

	flag.StringVar(&config.Host, "host", constants.DefaultHost, "Server host")
	flag.IntVar(&config.Port, "port", constants.DefaultPort, "Server port")
	flag.IntVar(&config.MetricsPort, "metrics-port", constants.DefaultMetricsPort, "Prometheus metrics port")
	flag.BoolVar(&config.EnableMetrics, "enable-metrics", true, "Enable Prometheus metrics server")
	flag.StringVar(&config.LogLevel, "log-level", constants.DefaultLogLevel, "Log level (debug, info, warn, error)")
	flag.StringVar(&config.LogFormat, "log-format", constants.DefaultLogFormat, "Log format (json, text)")
	flag.Int64Var(&config.MaxUploadSize, "max-upload-size", constants.MaxUploadSize, "Maximum CSV upload size in bytes")
	flag.StringVar(&config.SessionBackend, "session-backend", constants.DefaultSessionBackend, "Session store backend (memory, redis)")
	flag.DurationVar(&config.SessionTTL, "session-ttl", constants.DefaultSessionTTL, "Session lifetime before expiry")
	flag.StringVar(&config.RedisAddr, "redis-addr", constants.DefaultRedisAddr, "Redis address for the redis session backend")
	flag.StringVar(&config.RedisPassword, "redis-password", "", "Redis password")
	flag.IntVar(&config.RedisDB, "redis-db", 0, "Redis database number")
	flag.StringVar(&config.TLSCert, "tls-cert", "", "Path to TLS certificate")
	flag.StringVar(&config.TLSKey, "tls-key", "", "Path to TLS key")
	flag.BoolVar(&config.Version, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\n%s\n\n", constants.AppDescription)
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if config.Version {
		info := GetBuildInfo()
		fmt.Printf("Version: %s\n", info.Version)
		fmt.Printf("Git Commit: %s\n", info.GitCommit)
		fmt.Printf("Build Date: %s\n", info.BuildDate)
		fmt.Printf("Go Version: %s\n", info.GoVersion)
		fmt.Printf("Platform: %s\n", info.Platform)
		os.Exit(0)
	}

	return config
}
