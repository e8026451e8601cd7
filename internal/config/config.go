package config // package config loads application configuration from environment variables

import (
    "log"
    "os"
    "strings"
    "time"

    "github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  Durations accept Go duration strings ("30s").
type Config struct {
    Env            string        // application environment (e.g. "dev", "prod")
    Port           string        // HTTP port to listen on
    APIBaseURL     string        // root of the remote API, e.g. https://host/api
    ProbeURL       string        // liveness URL; empty means APIBaseURL + "/"
    ProbeInterval  time.Duration // time between liveness probes
    ProbeTimeout   time.Duration // per-probe deadline, capped at ProbeInterval
    RequestTimeout time.Duration // deadline for each API call
    SessionSecret  string        // key signing the session cookie
    SessionTTL     time.Duration // idle lifetime of a browser session
    CookieSecure   bool          // set the Secure flag on the session cookie

    RabbitURL            string // broker URL; empty disables auditing
    AuditEnabled         bool   // publish audit events
    AuditConsumerEnabled bool   // run the in-process audit log consumer
    AuditLogPath         string // file the consumer appends to

    Redis     RedisConfig
    RateLimit RateLimitConfig
    Dataset   DatasetConfig
}

// Load reads a .env file if one exists, then builds a Config from the
// environment.  Required variables are enforced by must() and missing
// values cause the program to exit with a fatal log message.
func Load() Config {
    if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
        log.Printf("config: .env not loaded: %v", err)
    }

    cfg := Config{
        Env:            envStr("APP_ENV", "dev"),
        Port:           envStr("APP_PORT", "8080"),
        APIBaseURL:     strings.TrimRight(must("API_BASE_URL"), "/"),
        ProbeURL:       os.Getenv("PROBE_URL"),
        ProbeInterval:  envDur("PROBE_INTERVAL", 30*time.Second),
        ProbeTimeout:   envDur("PROBE_TIMEOUT", 10*time.Second),
        RequestTimeout: envDur("REQUEST_TIMEOUT", 15*time.Second),
        SessionSecret:  must("SESSION_SECRET"),
        SessionTTL:     envDur("SESSION_TTL", 12*time.Hour),
        CookieSecure:   envBool("COOKIE_SECURE", false),

        RabbitURL:            envStr("RABBITMQ_URL", os.Getenv("AMQP_URL")),
        AuditEnabled:         envBool("AUDIT_ENABLED", true),
        AuditConsumerEnabled: envBool("AUDIT_CONSUMER_ENABLED", false),
        AuditLogPath:         envStr("AUDIT_LOG_PATH", "logs/audit.log"),

        Redis:     LoadRedisConfig(),
        RateLimit: LoadRateLimitConfig(),
        Dataset:   LoadDatasetConfig(),
    }
    if cfg.ProbeInterval <= 0 {
        cfg.ProbeInterval = 30 * time.Second
    }
    if cfg.ProbeTimeout <= 0 || cfg.ProbeTimeout > cfg.ProbeInterval {
        cfg.ProbeTimeout = cfg.ProbeInterval
    }
    if cfg.RabbitURL == "" {
        cfg.AuditEnabled = false
        cfg.AuditConsumerEnabled = false
    }
    return cfg
}

// Production reports whether the app runs with APP_ENV=prod.
func (c Config) Production() bool {
    return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}
