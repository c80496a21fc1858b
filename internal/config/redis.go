package config

// Redis backs the guest-endpoint rate limiter and the admin response cache.
// Both are optional: when Redis is unreachable at startup the client is nil
// and the middlewares pass requests straight through.

import (
    "context"
    "crypto/tls"
    "os"
    "strconv"
    "strings"
    "time"

    "github.com/redis/go-redis/v9"
    "github.com/rs/zerolog"
)

// RedisConfig is the connection part of the REDIS_* variables.
type RedisConfig struct {
    Addr     string
    Password string
    DB       int
    TLS      bool
    Disabled bool
}

// LoadRedisConfig reads
//   REDIS_HOST and REDIS_PORT – hostname and port of the Redis server
//   REDIS_ADDR – host:port shorthand, used when host/port are not both set
//   REDIS_PASSWORD – optional password
//   REDIS_DB – database number (default 0)
//   REDIS_TLS – enable TLS when "true" or "1"
//   REDIS_DISABLED – skip Redis entirely
func LoadRedisConfig() RedisConfig {
    host := os.Getenv("REDIS_HOST")
    port := os.Getenv("REDIS_PORT")
    addr := os.Getenv("REDIS_ADDR")
    if host != "" && port != "" {
        addr = host + ":" + port
    }
    if addr == "" {
        addr = "localhost:6379"
    }
    dbNum := 0
    if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
        if n, err := strconv.Atoi(dbStr); err == nil {
            dbNum = n
        }
    }
    tlsEnv := os.Getenv("REDIS_TLS")
    return RedisConfig{
        Addr:     addr,
        Password: os.Getenv("REDIS_PASSWORD"),
        DB:       dbNum,
        TLS:      strings.EqualFold(tlsEnv, "true") || tlsEnv == "1",
        Disabled: envBool("REDIS_DISABLED", false),
    }
}

// NewRedisClient connects with rc and pings the server.  It returns nil,
// after logging why, when Redis is disabled or unreachable.
func NewRedisClient(rc RedisConfig, logger zerolog.Logger) *redis.Client {
    if rc.Disabled {
        logger.Info().Msg("redis disabled; rate limiting and caching off")
        return nil
    }
    var tlsConf *tls.Config
    if rc.TLS {
        tlsConf = &tls.Config{MinVersion: tls.VersionTLS12}
    }
    client := redis.NewClient(&redis.Options{
        Addr:      rc.Addr,
        Password:  rc.Password,
        DB:        rc.DB,
        TLSConfig: tlsConf,
    })
    ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
    defer cancel()
    if err := client.Ping(ctx).Err(); err != nil {
        logger.Warn().Err(err).Str("addr", rc.Addr).Msg("redis unreachable; rate limiting and caching off")
        _ = client.Close()
        return nil
    }
    logger.Info().Str("addr", rc.Addr).Msg("redis connected")
    return client
}
