// Package internal resolves the server configuration from flags, the
// environment, .env files and an optional YAML file.
package internal

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hyperterse/dbmcp/core/logger"
	apperrors "github.com/hyperterse/dbmcp/core/shared/errors"
)

// Environment keys. Flags are mapped onto the same keys so every source is
// looked up uniformly.
const (
	KeyDSN           = "DSN"
	KeyTransport     = "TRANSPORT"
	KeyPort          = "PORT"
	KeyReadOnly      = "READONLY"
	KeyAuthToken     = "AUTH_TOKEN"
	KeyAuthTokenFile = "AUTH_TOKEN_FILE"
	KeyRequireAuth   = "REQUIRE_AUTH"
	KeyLogLevel      = "LOG_LEVEL"
	KeyLogTags       = "DBMCP_LOG_TAGS"
	KeyRedisURL      = "REDIS_URL"
	KeyRateLimit     = "RATE_LIMIT"

	KeyDBType     = "DB_TYPE"
	KeyDBHost     = "DB_HOST"
	KeyDBPort     = "DB_PORT"
	KeyDBUser     = "DB_USER"
	KeyDBPassword = "DB_PASSWORD"
	KeyDBName     = "DB_NAME"
)

const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the fully resolved server configuration.
type Config struct {
	DSN           string `validate:"required"`
	Transport     string `validate:"oneof=stdio http"`
	Port          int    `validate:"min=1,max=65535"`
	ReadOnly      bool
	AuthToken     string `validate:"excluded_with=AuthTokenFile"`
	AuthTokenFile string
	RequireAuth   bool
	LogLevel      int `validate:"min=1,max=4"`
	LogTags       string
	RedisURL      string `validate:"omitempty,url"`
	RateLimit     int    `validate:"min=0"`
}

// fileConfig is the YAML shape accepted by --config.
type fileConfig struct {
	DSN           string `yaml:"dsn"`
	Transport     string `yaml:"transport"`
	Port          *int   `yaml:"port"`
	ReadOnly      *bool  `yaml:"readonly"`
	AuthTokenFile string `yaml:"auth_token_file"`
	RequireAuth   *bool  `yaml:"require_auth"`
	LogLevel      *int   `yaml:"log_level"`
	LogTags       string `yaml:"log_tags"`
	RedisURL      string `yaml:"redis_url"`
	RateLimit     *int   `yaml:"rate_limit"`
	Database      struct {
		Type     string `yaml:"type"`
		Host     string `yaml:"host"`
		Port     *int   `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`
}

// Sources holds every configuration layer. Lookup order is Flags, Env,
// DotEnv, File.
type Sources struct {
	Flags  map[string]string
	Env    func(string) (string, bool)
	DotEnv map[string]string
	File   map[string]string
}

// DefaultSources reads the process environment, .env files in the working
// directory and, when configPath is set, the YAML file. Placeholders in the
// YAML file resolve against the environment, then .env.
func DefaultSources(flags map[string]string, configPath string) (Sources, error) {
	dotEnv := ReadDotEnv(".env.local", ".env")
	file, err := ReadConfigFile(configPath, func(name string) (string, bool) {
		if v, ok := os.LookupEnv(name); ok {
			return v, true
		}
		v, ok := dotEnv[name]
		return v, ok
	})
	if err != nil {
		return Sources{}, err
	}
	return Sources{
		Flags:  flags,
		Env:    os.LookupEnv,
		DotEnv: dotEnv,
		File:   file,
	}, nil
}

func (s Sources) lookup(key string) (string, bool) {
	if v, ok := s.Flags[key]; ok {
		return v, true
	}
	if s.Env != nil {
		if v, ok := s.Env(key); ok && v != "" {
			return v, true
		}
	}
	if v, ok := s.DotEnv[key]; ok && v != "" {
		return v, true
	}
	if v, ok := s.File[key]; ok && v != "" {
		return v, true
	}
	return "", false
}

// ReadDotEnv merges the given .env files without touching the process
// environment. Earlier files win.
func ReadDotEnv(files ...string) map[string]string {
	merged := map[string]string{}
	for i := len(files) - 1; i >= 0; i-- {
		values, err := godotenv.Read(files[i])
		if err != nil {
			continue
		}
		for k, v := range values {
			merged[k] = v
		}
	}
	return merged
}

// ReadConfigFile parses a YAML config file into environment keys, expanding
// {{ env.NAME }} placeholders with lookup first. An empty path yields no
// values.
func ReadConfigFile(path string, lookup func(string) (string, bool)) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, logger.Errorf("config", "error reading config file: %w", err)
	}
	expanded, err := SubstituteEnvVars(string(content), lookup)
	if err != nil {
		return nil, logger.Errorf("config", "config file %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal([]byte(expanded), &fc); err != nil {
		return nil, logger.Errorf("config", "invalid config file %s: %w", path, err)
	}

	values := map[string]string{
		KeyDSN:           fc.DSN,
		KeyTransport:     fc.Transport,
		KeyAuthTokenFile: fc.AuthTokenFile,
		KeyLogTags:       fc.LogTags,
		KeyRedisURL:      fc.RedisURL,
		KeyDBType:        fc.Database.Type,
		KeyDBHost:        fc.Database.Host,
		KeyDBUser:        fc.Database.User,
		KeyDBPassword:    fc.Database.Password,
		KeyDBName:        fc.Database.Name,
	}
	setInt(values, KeyPort, fc.Port)
	setInt(values, KeyLogLevel, fc.LogLevel)
	setInt(values, KeyRateLimit, fc.RateLimit)
	setInt(values, KeyDBPort, fc.Database.Port)
	setBool(values, KeyReadOnly, fc.ReadOnly)
	setBool(values, KeyRequireAuth, fc.RequireAuth)
	return values, nil
}

func setInt(values map[string]string, key string, v *int) {
	if v != nil {
		values[key] = strconv.Itoa(*v)
	}
}

func setBool(values map[string]string, key string, v *bool) {
	if v != nil {
		values[key] = strconv.FormatBool(*v)
	}
}

var validate = validator.New()

// Resolve builds and validates the Config from sources.
func Resolve(s Sources) (*Config, error) {
	cfg := &Config{
		Transport: TransportStdio,
		Port:      8080,
		LogLevel:  logger.LogLevelInfo,
	}

	var err error
	cfg.DSN, err = resolveDSN(s)
	if err != nil {
		return nil, err
	}
	if v, ok := s.lookup(KeyTransport); ok {
		cfg.Transport = strings.ToLower(strings.TrimSpace(v))
	}
	if cfg.Port, err = lookupInt(s, KeyPort, cfg.Port); err != nil {
		return nil, err
	}
	if cfg.ReadOnly, err = lookupBool(s, KeyReadOnly); err != nil {
		return nil, err
	}
	if cfg.RequireAuth, err = lookupBool(s, KeyRequireAuth); err != nil {
		return nil, err
	}
	if cfg.LogLevel, err = lookupInt(s, KeyLogLevel, cfg.LogLevel); err != nil {
		return nil, err
	}
	if cfg.RateLimit, err = lookupInt(s, KeyRateLimit, 0); err != nil {
		return nil, err
	}
	cfg.AuthToken, _ = s.lookup(KeyAuthToken)
	cfg.AuthTokenFile, _ = s.lookup(KeyAuthTokenFile)
	cfg.LogTags, _ = s.lookup(KeyLogTags)
	cfg.RedisURL, _ = s.lookup(KeyRedisURL)

	if err := validate.Struct(cfg); err != nil {
		return nil, validationError(err)
	}
	if cfg.RequireAuth && cfg.AuthToken == "" && cfg.AuthTokenFile == "" {
		return nil, logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeAuth,
			"REQUIRE_AUTH is set but neither AUTH_TOKEN nor AUTH_TOKEN_FILE is configured", nil))
	}
	return cfg, nil
}

// resolveDSN returns DSN from the first source that has it, or assembles one
// from the DB_* parts.
func resolveDSN(s Sources) (string, error) {
	if v, ok := s.lookup(KeyDSN); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v), nil
	}

	dbType, _ := s.lookup(KeyDBType)
	dbType = strings.ToLower(strings.TrimSpace(dbType))
	if dbType == "" {
		return "", logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeDSNResolution,
			"no DSN configured: set DSN (or --dsn) or DB_TYPE with DB_HOST/DB_NAME", nil))
	}

	name, _ := s.lookup(KeyDBName)
	if dbType == "sqlite" || dbType == "sqlite3" {
		if name == "" {
			return "", logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeDSNResolution,
				"DB_TYPE=sqlite requires DB_NAME to hold the database path", nil))
		}
		return dbType + "://" + name, nil
	}

	host, _ := s.lookup(KeyDBHost)
	if host == "" {
		return "", logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeDSNResolution,
			fmt.Sprintf("DB_TYPE=%s requires DB_HOST", dbType), nil))
	}
	if port, ok := s.lookup(KeyDBPort); ok {
		host = net.JoinHostPort(host, port)
	}

	u := url.URL{Scheme: dbType, Host: host}
	if user, ok := s.lookup(KeyDBUser); ok {
		if password, ok := s.lookup(KeyDBPassword); ok {
			u.User = url.UserPassword(user, password)
		} else {
			u.User = url.User(user)
		}
	}
	if name != "" {
		u.Path = "/" + name
	}
	return u.String(), nil
}

func lookupInt(s Sources, key string, fallback int) (int, error) {
	v, ok := s.lookup(key)
	if !ok {
		return fallback, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be an integer, got %q", key, v), err))
	}
	return n, nil
}

func lookupBool(s Sources, key string) (bool, error) {
	v, ok := s.lookup(key)
	if !ok {
		return false, nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return false, logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeInvalidInput,
			fmt.Sprintf("%s must be a boolean, got %q", key, v), err))
	}
	return b, nil
}

var fieldKeys = map[string]string{
	"DSN":           KeyDSN,
	"Transport":     KeyTransport,
	"Port":          KeyPort,
	"AuthToken":     KeyAuthToken,
	"AuthTokenFile": KeyAuthTokenFile,
	"LogLevel":      KeyLogLevel,
	"RedisURL":      KeyRedisURL,
	"RateLimit":     KeyRateLimit,
}

func validationError(err error) error {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrs) == 0 {
		return logger.WithTag("config", err)
	}
	fe := validationErrs[0]
	key := fieldKeys[fe.Field()]
	if key == "" {
		key = fe.Field()
	}

	var message string
	switch fe.Tag() {
	case "oneof":
		message = fmt.Sprintf("%s must be one of [%s], got %q", key, fe.Param(), fe.Value())
	case "min", "max":
		message = fmt.Sprintf("%s out of range (%s=%s), got %v", key, fe.Tag(), fe.Param(), fe.Value())
	case "required":
		message = fmt.Sprintf("%s is required", key)
	case "excluded_with":
		message = fmt.Sprintf("%s and %s are mutually exclusive", KeyAuthToken, KeyAuthTokenFile)
	default:
		message = fmt.Sprintf("%s is invalid (%s)", key, fe.Tag())
	}
	return logger.WithTag("config", apperrors.NewAppError(apperrors.ErrCodeInvalidInput, message, err))
}
