// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, logging level, CORS, body limits); everything
// specific to VidCollab lives here.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// File storage for raw, edited and thumbnail media
	StorageType      string // "local" or "s3"
	StorageLocalPath string // root directory for the local backend
	StorageS3Region  string
	StorageS3Bucket  string
	StorageS3Prefix  string // key prefix (e.g., "media/")
	MaxUploadBytes   int64

	// Email/SMTP configuration (blank host logs instead of sending)
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string

	// Base URL for links in notifications and the OAuth redirect
	BaseURL  string
	SiteName string

	// RabbitMQ event bus (blank URL disables the bus sink)
	AMQPURL      string
	AMQPExchange string

	// YouTube channel connect
	GoogleClientID     string
	GoogleClientSecret string

	// Secrets
	TokenKey string // hex, 32 bytes; seals stored YouTube credentials
	StateKey string // signs the channel connect state cookie

	// Audit logging per category: "all", "db", "log", or "off"
	AuditLogTeam    string
	AuditLogVideo   string
	AuditLogChannel string

	// Background work
	NotifyWorkers    int
	PublishLockTTL   time.Duration
	PublishRateLimit int // publishes per creator per hour; 0 disables
	UploadTimeout    time.Duration
	PublishTimeout   time.Duration
}
