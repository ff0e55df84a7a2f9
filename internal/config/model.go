// internal/config/model.go
//
// Typed configuration model for the gateway.
//
// Context
// -------
// Every leaf field is bound to exactly one environment variable through its
// `env` tag.  Names are case-sensitive and match the variables operators
// already set for the rest of the platform.
//
//   - `default` holds the compiled-in literal.  It is coerced through the
//     same rules as a supplied value.
//   - A field with no `default` that is not an Optional is required.  Empty
//     counts as missing.
//   - `url` names a scheme family checked after coercion (see url.go).
//   - `secret` keeps the raw value out of error messages and logs.
//   - `validate` carries go-playground/validator rules that run once every
//     field has been coerced.
//
// Groups are plain structs without tags; the resolver walks into them.
//
// Notes
// -----
//   - The record is built once and shared.  Callers treat it as read-only,
//     including the slices.
//   - No em-dash.  Two spaces after periods.

package config

//
// Project section
//

// Project identifies the API.
type Project struct {
	Name     string `env:"PROJECT_NAME" default:"Research Platform API"`
	Version  string `env:"VERSION"      default:"1.0.0"`
	APIV1Str string `env:"API_V1_STR"   default:"/api/v1" validate:"startswith=/"`
}

//
// Runtime section
//

// Runtime holds environment and process tunables.
type Runtime struct {
	Environment string   `env:"ENVIRONMENT" default:"development"`
	Debug       bool     `env:"DEBUG"       default:"false"`
	LogLevel    string   `env:"LOG_LEVEL"   default:"INFO" validate:"loglevel"`
	LogDir      Optional `env:"LOG_DIR"`
	HTTPHost    string   `env:"HTTP_HOST"   default:"0.0.0.0"`
	HTTPPort    int      `env:"HTTP_PORT"   default:"8000" validate:"min=1,max=65535"`
}

// IsProduction reports whether ENVIRONMENT is "production".
func (r Runtime) IsProduction() bool { return r.Environment == "production" }

//
// Security section
//

// Security holds signing secrets and token lifetimes.
type Security struct {
	SecretKey                string `env:"SECRET_KEY" secret:"true"`
	JWTSecret                string `env:"JWT_SECRET" secret:"true"`
	JWTAlgorithm             string `env:"JWT_ALGORITHM"               default:"HS256" validate:"oneof=HS256 HS384 HS512"`
	AccessTokenExpireMinutes int    `env:"ACCESS_TOKEN_EXPIRE_MINUTES" default:"30"    validate:"min=1"`
	RefreshTokenExpireDays   int    `env:"REFRESH_TOKEN_EXPIRE_DAYS"   default:"7"     validate:"min=1"`
}

//
// Database section
//

// Database holds the DSN and pool sizing.  PoolTimeout is in seconds.
type Database struct {
	URL         string `env:"DATABASE_URL"    url:"postgres" secret:"true"`
	PoolSize    int    `env:"DB_POOL_SIZE"    default:"20" validate:"min=1"`
	MaxOverflow int    `env:"DB_MAX_OVERFLOW" default:"40" validate:"min=0"`
	PoolTimeout int    `env:"DB_POOL_TIMEOUT" default:"30" validate:"min=1"`
}

//
// Redis section
//

// Redis is the cache and default task broker.
type Redis struct {
	URL             string `env:"REDIS_URL"              url:"redis" secret:"true"`
	PoolSize        int    `env:"REDIS_POOL_SIZE"        default:"10" validate:"min=1"`
	DecodeResponses bool   `env:"REDIS_DECODE_RESPONSES" default:"true"`
}

//
// Keycloak section
//

// Keycloak is the identity provider.
type Keycloak struct {
	ServerURL     string   `env:"KEYCLOAK_SERVER_URL" url:"http"`
	Realm         string   `env:"KEYCLOAK_REALM"`
	ClientID      string   `env:"KEYCLOAK_CLIENT_ID"`
	ClientSecret  string   `env:"KEYCLOAK_CLIENT_SECRET"  secret:"true"`
	AdminUsername Optional `env:"KEYCLOAK_ADMIN_USERNAME"`
	AdminPassword Optional `env:"KEYCLOAK_ADMIN_PASSWORD" secret:"true"`
}

//
// Domain section
//

// Domain holds the public URLs handed to clients.
type Domain struct {
	Name         string `env:"DOMAIN_NAME"   default:"os3-378-22222.vs.sakura.ne.jp"`
	APIURL       string `env:"API_URL"       default:"https://os3-378-22222.vs.sakura.ne.jp/api/v1" url:"http"`
	FrontendURL  string `env:"FRONTEND_URL"  default:"https://os3-378-22222.vs.sakura.ne.jp"        url:"http"`
	WebsocketURL string `env:"WEBSOCKET_URL" default:"wss://os3-378-22222.vs.sakura.ne.jp/ws"      url:"ws"`
}

//
// CORS section
//

// CORS lists the origins allowed to call the API with credentials.
type CORS struct {
	Origins []string `env:"CORS_ORIGINS" default:"http://localhost:3000"`
}

//
// Celery section
//

// Celery configures the task queue shared with the Python workers.  Unset
// URLs fall back to Redis.URL; see BrokerURL and ResultBackendURL.
type Celery struct {
	BrokerURL       Optional `env:"CELERY_BROKER_URL"        secret:"true"`
	ResultBackend   Optional `env:"CELERY_RESULT_BACKEND"    secret:"true"`
	TaskAlwaysEager bool     `env:"CELERY_TASK_ALWAYS_EAGER" default:"false"`
}

//
// Storage section
//

// Storage configures the S3-compatible object store.
type Storage struct {
	UseS3           bool     `env:"USE_S3"               default:"true"`
	EndpointURL     Optional `env:"S3_ENDPOINT_URL"      url:"http"`
	AccessKeyID     Optional `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey Optional `env:"S3_SECRET_ACCESS_KEY" secret:"true"`
	BucketName      string   `env:"S3_BUCKET_NAME"       default:"research-data"`
	Region          string   `env:"S3_REGION"            default:"us-east-1"`
}

//
// Upload section
//

// Upload bounds request bodies and file types.
type Upload struct {
	MaxSizeMB         int      `env:"MAX_UPLOAD_SIZE_MB"        default:"1024" validate:"min=1"`
	AllowedExtensions []string `env:"ALLOWED_UPLOAD_EXTENSIONS" default:".csv,.json,.txt,.pdf,.xlsx,.xls,.png,.jpg,.jpeg,.gif,.mp4,.avi"`
}

// MaxBytes is MaxSizeMB in bytes.
func (u Upload) MaxBytes() int64 { return int64(u.MaxSizeMB) << 20 }

//
// Processing section
//

// Processing holds data retention and worker sizing.
type Processing struct {
	DataRetentionDays    int `env:"DATA_RETENTION_DAYS"    default:"365" validate:"min=1"`
	AutoArchiveDays      int `env:"AUTO_ARCHIVE_DAYS"      default:"90"  validate:"min=1"`
	MaxProcessingWorkers int `env:"MAX_PROCESSING_WORKERS" default:"4"   validate:"min=1"`
}

//
// Email section
//

// Email configures outbound SMTP.
type Email struct {
	Host     Optional `env:"SMTP_HOST"`
	Port     int      `env:"SMTP_PORT"     default:"587" validate:"min=1,max=65535"`
	User     Optional `env:"SMTP_USER"`
	Password Optional `env:"SMTP_PASSWORD" secret:"true"`
	From     string   `env:"SMTP_FROM"     default:"noreply@research.example.com" validate:"email"`
	TLS      bool     `env:"SMTP_TLS"      default:"true"`
}

//
// Monitoring section
//

// Monitoring toggles metrics and error reporting.
type Monitoring struct {
	EnableMetrics bool     `env:"ENABLE_METRICS" default:"true"`
	SentryDSN     Optional `env:"SENTRY_DSN"     url:"http" secret:"true"`
	GeoIPDBPath   Optional `env:"GEOIP_DB_PATH"`
}

//
// Features section
//

// Features are product feature flags.
type Features struct {
	RealtimeAnalysis bool `env:"ENABLE_REALTIME_ANALYSIS" default:"true"`
	MLPipeline       bool `env:"ENABLE_ML_PIPELINE"       default:"false"`
	MultiTenant      bool `env:"ENABLE_MULTI_TENANT"      default:"true"`
	AuditLog         bool `env:"ENABLE_AUDIT_LOG"         default:"true"`
}

//
// Rate limit section
//

// RateLimit configures the per-client request limiter.  Default uses the
// "<count>/<period>" notation, e.g. "100/minute".
type RateLimit struct {
	Enabled    bool     `env:"RATE_LIMIT_ENABLED"     default:"true"`
	Default    string   `env:"RATE_LIMIT_DEFAULT"     default:"100/minute" validate:"ratelimit"`
	StorageURL Optional `env:"RATE_LIMIT_STORAGE_URL" secret:"true"`
}

//
// Session section
//

// Session configures the session cookie.
type Session struct {
	TimeoutMinutes int    `env:"SESSION_TIMEOUT_MINUTES" default:"60" validate:"min=1"`
	CookieName     string `env:"SESSION_COOKIE_NAME"     default:"research_session" validate:"required"`
	CookieSecure   bool   `env:"SESSION_COOKIE_SECURE"   default:"true"`
	CookieHTTPOnly bool   `env:"SESSION_COOKIE_HTTPONLY" default:"true"`
}

//
// Pagination section
//

// Pagination bounds list endpoints.
type Pagination struct {
	DefaultPageSize int `env:"DEFAULT_PAGE_SIZE" default:"50"  validate:"min=1"`
	MaxPageSize     int `env:"MAX_PAGE_SIZE"     default:"200" validate:"min=1,gtefield=DefaultPageSize"`
}

//
// Root aggregate
//

// Config is the resolved, read-only aggregate returned by Resolve and shared
// through Get for the lifetime of the process.
type Config struct {
	Project    Project
	Runtime    Runtime
	Security   Security
	Database   Database
	Redis      Redis
	Keycloak   Keycloak
	Domain     Domain
	CORS       CORS
	Celery     Celery
	Storage    Storage
	Upload     Upload
	Processing Processing
	Email      Email
	Monitoring Monitoring
	Features   Features
	RateLimit  RateLimit
	Session    Session
	Pagination Pagination
}
