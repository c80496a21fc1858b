package config

import (
    "testing"
    "time"
)

func TestLoadMemoryStoreSkipsDBVars(t *testing.T) {
    t.Setenv("APP_ENV", "dev")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("STORE_DRIVER", "memory")

    cfg := Load()
    if cfg.StoreDriver != StoreMemory || cfg.DBHost != "" {
        t.Fatalf("unexpected store config %+v", cfg)
    }
    if cfg.AccessTTLMin != 120 || cfg.BcryptCost != 10 {
        t.Fatalf("unexpected defaults ttl=%d cost=%d", cfg.AccessTTLMin, cfg.BcryptCost)
    }
    if cfg.CookieSecure {
        t.Fatal("cookie should not be Secure outside production")
    }
}

func TestLoadProductionDefaultsSecureCookie(t *testing.T) {
    t.Setenv("APP_ENV", "production")
    t.Setenv("APP_PORT", "8080")
    t.Setenv("JWT_SECRET", "s3cret")
    t.Setenv("STORE_DRIVER", "memory")
    if !Load().CookieSecure {
        t.Fatal("production should default to Secure cookies")
    }
}

func TestLoadToolNeedsNoServerVars(t *testing.T) {
    t.Setenv("APP_ENV", "")
    t.Setenv("APP_PORT", "")
    t.Setenv("JWT_SECRET", "")
    t.Setenv("STORE_DRIVER", "memory")
    t.Setenv("SMTP_USER", "mailer@example.com")

    cfg := LoadTool()
    if cfg.StoreDriver != StoreMemory || cfg.Mail.From != "mailer@example.com" {
        t.Fatalf("unexpected tool config %+v", cfg)
    }
    if cfg.LogFormat != "console" {
        t.Fatalf("tools log for humans by default, got %q", cfg.LogFormat)
    }
}

func TestMailConfigDefaults(t *testing.T) {
    t.Setenv("SMTP_USER", "events@example.com")
    mc := LoadMailConfig()
    if mc.Host != "smtp.gmail.com" || mc.Port != 587 || mc.Secure || mc.Timeout != 20*time.Second {
        t.Fatalf("unexpected defaults %+v", mc)
    }
    if mc.From != "events@example.com" {
        t.Fatalf("From should fall back to SMTP_USER, got %q", mc.From)
    }

    t.Setenv("SMTP_PORT", "465")
    if !LoadMailConfig().Secure {
        t.Fatal("port 465 should imply implicit TLS")
    }
}

func TestNotifyConfigFallbacks(t *testing.T) {
    t.Setenv("NOTIFY_DRIVER", "carrier-pigeon")
    t.Setenv("AMQP_URL", "amqp://u:p@mq:5672/")
    nc := LoadNotifyConfig()
    if nc.Driver != NotifySMTP || nc.AMQPURL != "amqp://u:p@mq:5672/" || nc.Queue != "invitation.issued" {
        t.Fatalf("unexpected notify config %+v", nc)
    }
}

func TestRateLimitConfigClamps(t *testing.T) {
    t.Setenv("RATE_LIMIT_CAPACITY", "0")
    t.Setenv("RATE_LIMIT_REFILL_EVERY", "2s")
    t.Setenv("RATE_LIMIT_TTL", "1s")
    rl := LoadRateLimitConfig()
    if rl.Capacity != 1 || rl.RefillInterval != 2*time.Second || rl.TTL != 10*time.Second {
        t.Fatalf("unexpected rate limit config %+v", rl)
    }
}
