package config // package config loads application configuration from environment variables

import (
    "os"      // os provides access to environment variables
    "strings" // strings normalises driver names

    "github.com/joho/godotenv" // .env loading for local development
    "github.com/rs/zerolog/log" // fatal reporting before the app logger exists
)

// Store drivers accepted in STORE_DRIVER.
const (
    StoreMySQL  = "mysql"
    StoreMemory = "memory"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations and costs.
type Config struct {
    Env           string // application environment (e.g. "dev", "prod")
    Port          string // HTTP port to listen on
    StoreDriver   string // "mysql" (default) or "memory"
    DBUser        string // database username
    DBPass        string // database password (optional)
    DBHost        string // database host address
    DBPort        string // database port number
    DBName        string // database name
    DBAutoMigrate bool   // apply the embedded schema on startup
    JWTSecret     string // secret used to sign admin tokens
    AccessTTLMin  int    // admin token time‑to‑live in minutes
    BcryptCost    int    // bcrypt cost for password hashing
    CookieSecure  bool   // mark the adminToken cookie Secure
    LogLevel      string // zerolog level name
    LogFormat     string // "json" or "console"
    Notify        NotifyConfig
    Mail          MailConfig
}

// Load reads configuration values from environment variables and returns a
// Config.  A .env file in the working directory is applied first when
// present; real environment variables win over it.  Required variables are
// enforced by must() and missing values terminate the process.
func Load() Config {
    _ = godotenv.Load() // absent .env is fine

    cfg := Config{
        Env:           must("APP_ENV"),    // environment (dev/test/prod)
        Port:          must("APP_PORT"),   // port to bind the HTTP server
        StoreDriver:   strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
        DBPass:        os.Getenv("DB_PASS"), // database password (empty allowed)
        DBAutoMigrate: envBool("DB_AUTO_MIGRATE", false),
        JWTSecret:     must("JWT_SECRET"), // secret used for signing JWTs
        AccessTTLMin:  envInt("ACCESS_TOKEN_TTL_MIN", 120),
        BcryptCost:    envInt("BCRYPT_COST", 10),
        LogLevel:      envStr("LOG_LEVEL", "info"),
        LogFormat:     envStr("LOG_FORMAT", "json"),
        Notify:        LoadNotifyConfig(),
        Mail:          LoadMailConfig(),
    }
    cfg.CookieSecure = envBool("COOKIE_SECURE", cfg.IsProduction())
    cfg.loadStore()
    return cfg
}

// LoadTool is Load for offline tools such as cmd/resend: only the store,
// mail and logging settings are read, and APP_* and JWT_SECRET are not
// required.
func LoadTool() Config {
    _ = godotenv.Load()

    cfg := Config{
        Env:         envStr("APP_ENV", "dev"),
        StoreDriver: strings.ToLower(envStr("STORE_DRIVER", StoreMySQL)),
        DBPass:      os.Getenv("DB_PASS"),
        LogLevel:    envStr("LOG_LEVEL", "info"),
        LogFormat:   envStr("LOG_FORMAT", "console"),
        Mail:        LoadMailConfig(),
    }
    cfg.loadStore()
    return cfg
}

func (c *Config) loadStore() {
    switch c.StoreDriver {
    case StoreMySQL:
        c.DBUser = must("DB_USER")
        c.DBHost = must("DB_HOST")
        c.DBPort = must("DB_PORT")
        c.DBName = must("DB_NAME")
    case StoreMemory:
    default:
        log.Fatal().Str("driver", c.StoreDriver).Msg("unknown STORE_DRIVER")
    }
}

// IsProduction reports whether APP_ENV names a production deployment.
func (c Config) IsProduction() bool {
    switch strings.ToLower(c.Env) {
    case "prod", "production":
        return true
    }
    return false
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatal().Str("key", key).Msg("missing required env var")
    }
    return v
}
