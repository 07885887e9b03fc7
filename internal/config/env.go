package config

//nolint:gosec,revive // Environment variable keys are not credentials and do not need per-const comments.
const (
	// Server
	EnvPort            = "STOREBOT_PORT"
	EnvLogLevel        = "STOREBOT_LOG_LEVEL"
	EnvShutdownTimeout = "STOREBOT_SHUTDOWN_TIMEOUT"

	// Data
	EnvDataDir = "STOREBOT_DATA_DIR"

	// Conversation
	EnvDefaultLanguage = "STOREBOT_DEFAULT_LANGUAGE"
	EnvVATPercent      = "STOREBOT_VAT_PERCENT"
	EnvWebhookTimeout  = "STOREBOT_WEBHOOK_TIMEOUT"
	EnvUserRateBurst   = "STOREBOT_USER_RATE_BURST"
	EnvUserRateRefill  = "STOREBOT_USER_RATE_REFILL"

	// WhatsApp Cloud API
	EnvWhatsAppToken         = "STOREBOT_WHATSAPP_TOKEN"
	EnvWhatsAppPhoneNumberID = "STOREBOT_WHATSAPP_PHONE_NUMBER_ID"
	EnvWhatsAppVerifyToken   = "STOREBOT_WHATSAPP_VERIFY_TOKEN"
	EnvWhatsAppAppSecret     = "STOREBOT_WHATSAPP_APP_SECRET"
	EnvWhatsAppAPIBase       = "STOREBOT_WHATSAPP_API_BASE"

	// LINE Messaging API
	EnvLineChannelAccessToken = "STOREBOT_LINE_CHANNEL_ACCESS_TOKEN"
	EnvLineChannelSecret      = "STOREBOT_LINE_CHANNEL_SECRET"

	// Simulator
	EnvSimulatorJWTSecret = "STOREBOT_SIMULATOR_JWT_SECRET"

	// R2 (S3 compatible) media archive and snapshots
	EnvR2AccountID        = "STOREBOT_R2_ACCOUNT_ID"
	EnvR2AccessKeyID      = "STOREBOT_R2_ACCESS_KEY_ID"
	EnvR2SecretAccessKey  = "STOREBOT_R2_SECRET_ACCESS_KEY"
	EnvR2BucketName       = "STOREBOT_R2_BUCKET_NAME"
	EnvR2PublicBaseURL    = "STOREBOT_R2_PUBLIC_BASE_URL"
	EnvR2SnapshotPrefix   = "STOREBOT_R2_SNAPSHOT_PREFIX"
	EnvR2SnapshotInterval = "STOREBOT_R2_SNAPSHOT_INTERVAL"

	// Sentry
	EnvSentryDSN         = "STOREBOT_SENTRY_DSN"
	EnvSentryEnvironment = "STOREBOT_SENTRY_ENVIRONMENT"
	EnvSentrySampleRate  = "STOREBOT_SENTRY_SAMPLE_RATE"

	// Better Stack
	EnvBetterStackToken = "STOREBOT_BETTERSTACK_TOKEN"

	// Metrics auth
	EnvMetricsUsername = "STOREBOT_METRICS_USERNAME"
	EnvMetricsPassword = "STOREBOT_METRICS_PASSWORD"
)
