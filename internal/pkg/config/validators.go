// internal/pkg/config/validators.go
package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
)

// problems collects every validation failure so one run reports them all
type problems []error

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Errorf(format, args...))
}

func (p problems) err() error {
	return errors.Join(p...)
}

// BasicValidator checks that the selected backends are configured consistently
type BasicValidator struct{}

func (v *BasicValidator) Validate(cfg *Config) error {
	var p problems
	p = append(p, missingRequired(reflect.ValueOf(cfg).Elem(), "")...)

	switch cfg.Storage.Driver {
	case DriverMemory:
	case DriverSQLite:
		if cfg.Storage.SQLitePath == "" {
			p.addf("%w: sqlite path", ErrMissingRequiredConfig)
		}
	case DriverPostgres:
		if cfg.Database.Host == "" || cfg.Database.Name == "" {
			p.addf("%w: database host and name", ErrMissingRequiredConfig)
		}
		if cfg.Database.MaxConnections < cfg.Database.MinConnections {
			p.addf("database max_connections must be >= min_connections")
		}
	default:
		p.addf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Lock.Backend {
	case LockLocal:
	case LockRedis:
		if !cfg.Redis.Enabled {
			p.addf("redis lock backend requires REDIS_ENABLED")
		}
		if cfg.Lock.TTL <= 0 {
			p.addf("lock ttl must be positive")
		}
	default:
		p.addf("unknown lock backend %q", cfg.Lock.Backend)
	}

	if !cfg.Redis.Enabled {
		if cfg.Cache.Enabled {
			p.addf("cache requires REDIS_ENABLED")
		}
		if cfg.Asynq.Enabled {
			p.addf("asynq requires REDIS_ENABLED")
		}
	} else if cfg.Redis.PoolSize <= 0 {
		p.addf("redis pool_size must be positive")
	}

	if cfg.Reports.Storage != ReportStorageLocal && cfg.Reports.Storage != ReportStorageS3 {
		p.addf("unknown report storage %q", cfg.Reports.Storage)
	}

	if cfg.Security.RateLimitRequests <= 0 {
		p.addf("rate_limit_requests must be positive")
	}

	return p.err()
}

// ProductionValidator rejects development conveniences
type ProductionValidator struct{}

func (v *ProductionValidator) Validate(cfg *Config) error {
	var p problems

	switch cfg.Storage.Driver {
	case DriverMemory:
		p.addf("memory storage cannot be used in production")
	case DriverPostgres:
		if strings.HasPrefix(cfg.Database.Password, "MISSING_") || cfg.Database.Password == "lending_dev" {
			p.addf("%w: database password", ErrMissingRequiredConfig)
		}
		if cfg.Database.SSLMode == "disable" {
			p.addf("database SSL must be enabled in production")
		}
	}

	if !cfg.Security.SecureHeaders {
		p.addf("secure headers must be enabled in production")
	}
	switch {
	case len(cfg.Security.AllowedOrigins) == 0:
		p.addf("allowed origins must be configured in production")
	case slices.Contains(cfg.Security.AllowedOrigins, "*"):
		p.addf("wildcard origin (*) not allowed in production")
	}

	if cfg.Server.TLSEnabled && (cfg.Server.TLSCertFile == "" || cfg.Server.TLSKeyFile == "") {
		p.addf("TLS cert and key files must be provided when TLS is enabled")
	}

	return p.err()
}

// missingRequired walks nested structs for fields tagged required:"true"
// that are zero or still hold a MISSING_ placeholder.
func missingRequired(v reflect.Value, path string) []error {
	var errs []error
	t := v.Type()
	for i := range v.NumField() {
		field, sf := v.Field(i), t.Field(i)
		name := sf.Name
		if path != "" {
			name = path + "." + name
		}

		if sf.Tag.Get("required") == "true" && unset(field) {
			errs = append(errs, fmt.Errorf("%w: %s", ErrMissingRequiredConfig, name))
		}
		if field.Kind() == reflect.Struct {
			errs = append(errs, missingRequired(field, name)...)
		}
	}
	return errs
}

func unset(v reflect.Value) bool {
	if v.Kind() == reflect.String && strings.HasPrefix(v.String(), "MISSING_") {
		return true
	}
	if v.Kind() == reflect.Slice || v.Kind() == reflect.Map {
		return v.Len() == 0
	}
	return v.IsZero()
}
