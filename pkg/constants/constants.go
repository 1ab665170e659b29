package constants

import "time"

// Application constants
const (
	// Application metadata
	AppName        = "safedata-server"
	AppDescription = "Safe Data Privacy Risk Assessment Server"
	AppVersion     = "0.1.0"

	// API constants
	APIVersion = "v1"
	APIPrefix  = "/api/v1"

	// Default configuration values
	DefaultPort            = 8080
	DefaultMetricsPort     = 9090
	DefaultHost            = "0.0.0.0"
	DefaultLogLevel        = "info"
	DefaultLogFormat       = "json"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Anonymization defaults
	DefaultAgeBucketWidth = 10
	DefaultNoiseScale     = 1000.0
	UnknownBucketLabel    = "unknown"

	// Session storage defaults
	DefaultSessionBackend = "memory"
	DefaultSessionTTL     = 1 * time.Hour
	DefaultRedisAddr      = "localhost:6379"
	DefaultStorageTimeout = 10 * time.Second
	SessionSweepInterval  = 1 * time.Minute

	// File size limits
	MaxUploadSize = 100 * 1024 * 1024 // 100MB

	// Upload form field names
	FormFieldMicrodata = "microdata"
	FormFieldTrueIDs   = "true_identifiers"
)

// HTTP header constants
const (
	HeaderContentType        = "Content-Type"
	HeaderContentDisposition = "Content-Disposition"
	HeaderRequestID          = "X-Request-ID"
	HeaderForwardedFor       = "X-Forwarded-For"
	HeaderRealIP             = "X-Real-IP"
)

// Content type constants
const (
	ContentTypeJSON = "application/json"
	ContentTypeCSV  = "text/csv"
)
