// internal/app/bootstrap/config.go
package bootstrap

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/dalemusser/vidcollab/internal/app/features/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for VidCollab.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, storage_type, etc.
//   - Environment variables: VIDCOLLAB_MONGO_URI, VIDCOLLAB_STORAGE_TYPE, etc.
//   - Command-line flags: --mongo_uri, --storage_type, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "vidcollab", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// File storage configuration
	{Name: "storage_type", Default: "local", Desc: "Storage backend: 'local' or 's3'"},
	{Name: "storage_local_path", Default: "./uploads/media", Desc: "Local storage path for media files"},
	{Name: "storage_s3_region", Default: "", Desc: "AWS region for S3"},
	{Name: "storage_s3_bucket", Default: "", Desc: "S3 bucket name"},
	{Name: "storage_s3_prefix", Default: "media/", Desc: "S3 key prefix"},
	{Name: "max_upload_bytes", Default: int(videos.DefaultMaxUploadBytes >> 20), Desc: "Largest accepted media upload in MiB"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "", Desc: "SMTP server host (blank disables mail)"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@vidcollab.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "VidCollab", Desc: "From display name"},

	{Name: "base_url", Default: "http://localhost:3000", Desc: "Base URL for links and the OAuth callback"},
	{Name: "site_name", Default: "VidCollab", Desc: "Name used in notification emails"},

	// Event bus
	{Name: "amqp_url", Default: "", Desc: "RabbitMQ URL (blank disables the event bus)"},
	{Name: "amqp_exchange", Default: "vidcollab.events", Desc: "Topic exchange for notifications"},

	// YouTube
	{Name: "google_client_id", Default: "", Desc: "Google OAuth2 client ID"},
	{Name: "google_client_secret", Default: "", Desc: "Google OAuth2 client secret"},

	// Secrets
	{Name: "token_key", Default: "", Desc: "Hex-encoded 32-byte key sealing stored YouTube tokens"},
	{Name: "state_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Key signing the channel connect cookie"},

	// Audit logging settings
	{Name: "audit_log_team", Default: "all", Desc: "Team event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_video", Default: "all", Desc: "Video event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_channel", Default: "all", Desc: "Channel event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Background work
	{Name: "notify_workers", Default: 8, Desc: "Goroutines delivering notifications"},
	{Name: "publish_lock_ttl", Default: "45m", Desc: "How long a crashed publish blocks the next attempt"},
	{Name: "publish_rate_limit", Default: 20, Desc: "Publish requests per creator per hour (0 disables)"},
	{Name: "upload_timeout", Default: "15m", Desc: "Deadline for storing an uploaded media file"},
	{Name: "publish_timeout", Default: "30m", Desc: "Deadline for one publish to the platform"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles .env files, config files,
// environment variables (WAFFLE_* for core, VIDCOLLAB_* for app) and flags,
// merged with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "VIDCOLLAB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		StorageType:      appValues.String("storage_type"),
		StorageLocalPath: appValues.String("storage_local_path"),
		StorageS3Region:  appValues.String("storage_s3_region"),
		StorageS3Bucket:  appValues.String("storage_s3_bucket"),
		StorageS3Prefix:  appValues.String("storage_s3_prefix"),
		MaxUploadBytes:   int64(appValues.Int("max_upload_bytes")) << 20,

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),

		BaseURL:  appValues.String("base_url"),
		SiteName: appValues.String("site_name"),

		AMQPURL:      appValues.String("amqp_url"),
		AMQPExchange: appValues.String("amqp_exchange"),

		GoogleClientID:     appValues.String("google_client_id"),
		GoogleClientSecret: appValues.String("google_client_secret"),

		TokenKey: appValues.String("token_key"),
		StateKey: appValues.String("state_key"),

		AuditLogTeam:    appValues.String("audit_log_team"),
		AuditLogVideo:   appValues.String("audit_log_video"),
		AuditLogChannel: appValues.String("audit_log_channel"),

		NotifyWorkers:    appValues.Int("notify_workers"),
		PublishLockTTL:   appValues.Duration("publish_lock_ttl", 45*time.Minute),
		PublishRateLimit: appValues.Int("publish_rate_limit"),
		UploadTimeout:    appValues.Duration("upload_timeout", 15*time.Minute),
		PublishTimeout:   appValues.Duration("publish_timeout", 30*time.Minute),
	}

	return coreCfg, appCfg, nil
}

var auditSettings = map[string]bool{"all": true, "db": true, "log": true, "off": true}

// ValidateConfig performs app-specific config validation.
//
// Return nil to accept the loaded config, or an error to abort startup.
// Problems are caught here, before any connection is attempted.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	switch appCfg.StorageType {
	case "local":
		if appCfg.StorageLocalPath == "" {
			return fmt.Errorf("storage_local_path is required for local storage")
		}
	case "s3":
		if appCfg.StorageS3Bucket == "" || appCfg.StorageS3Region == "" {
			return fmt.Errorf("storage_s3_bucket and storage_s3_region are required for s3 storage")
		}
	default:
		return fmt.Errorf("storage_type must be 'local' or 's3', got %q", appCfg.StorageType)
	}

	if key, err := hex.DecodeString(appCfg.TokenKey); err != nil || len(key) != 32 {
		return fmt.Errorf("token_key must be 64 hex characters (32 bytes)")
	}
	if len(appCfg.StateKey) < 32 {
		return fmt.Errorf("state_key must be at least 32 characters")
	}
	if coreCfg != nil && coreCfg.Env == "prod" && appCfg.StateKey == "dev-only-change-me-please-0123456789ABCDEF" {
		return fmt.Errorf("state_key must be changed in production")
	}

	for name, v := range map[string]string{
		"audit_log_team":    appCfg.AuditLogTeam,
		"audit_log_video":   appCfg.AuditLogVideo,
		"audit_log_channel": appCfg.AuditLogChannel,
	} {
		if !auditSettings[v] {
			return fmt.Errorf("%s must be one of all, db, log, off; got %q", name, v)
		}
	}

	if appCfg.NotifyWorkers < 1 {
		return fmt.Errorf("notify_workers must be at least 1")
	}
	if appCfg.PublishRateLimit < 0 {
		return fmt.Errorf("publish_rate_limit cannot be negative")
	}
	if appCfg.MaxUploadBytes <= 0 {
		return fmt.Errorf("max_upload_bytes must be positive")
	}
	publishTimeout := appCfg.PublishTimeout
	if publishTimeout <= 0 {
		publishTimeout = timeouts.Defaults.Publish
	}
	if appCfg.PublishLockTTL > 0 && appCfg.PublishLockTTL < publishTimeout {
		return fmt.Errorf("publish_lock_ttl (%s) must be at least publish_timeout (%s)", appCfg.PublishLockTTL, publishTimeout)
	}
	if (appCfg.GoogleClientID == "") != (appCfg.GoogleClientSecret == "") {
		return fmt.Errorf("google_client_id and google_client_secret must be set together")
	}
	if appCfg.GoogleClientID == "" {
		logger.Warn("YouTube is not configured; channel connect and publish will fail")
	}
	return nil
}
