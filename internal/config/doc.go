// Package config provides environment-driven configuration for the
// financial analytics service.
//
// Configuration is loaded in three layers, later layers winning:
// built-in defaults, an optional config.yaml, and FINSIGHT_-prefixed
// environment variables. A handful of flat variable names used by the
// deployment tooling (DATABASE_URL, REDIS_URL, SECRET_KEY, UPLOAD_PATH,
// LOG_LEVEL, CORS_ORIGINS) are honored as well.
//
// The resulting *Config is constructed once at startup and threaded
// through the application; no package keeps mutable global settings.
package config
