package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration required by the API process.
// All values must come from env (or env-file loaded by the process runner).
// No business logic should depend on raw environment variables.
type Config struct {
	App    AppConfig
	DB     DBConfig
	Redis  RedisConfig
	Auth   AuthConfig
	Notify NotifyConfig
	Stats  StatsConfig
}

type AppConfig struct {
	Env         string
	Port        int
	ServiceName string
	LogLevel    string
}

type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string

	// Accepts: disable, require, verify-ca, verify-full
	SSLMode string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret   string
	JWTIssuer   string
	JWTAudience string
	// ValidateAudience is off unless explicitly enabled; tokens are minted without an audience by default.
	ValidateAudience bool

	TokenTTL   time.Duration
	SessionTTL time.Duration

	// StrictSessions makes the session gate deny subjects that have no live cache entry.
	StrictSessions bool

	// ClientKey guards the token issuing endpoint. Empty disables the endpoint.
	ClientKey string
}

type NotifyConfig struct {
	SMTPHost     string
	SMTPUsername string
	SMTPPassword string
	From         string
	To           string
	Subject      string
	PoolSize     int
}

type StatsConfig struct {
	CacheTTL time.Duration
	// MapPath is the district boundary GeoJSON file. Empty disables the map endpoint.
	MapPath          string
	DistrictProperty string
}

// Enabled reports whether exception emails can be sent.
func (n NotifyConfig) Enabled() bool {
	return n.SMTPHost != "" && n.From != "" && n.To != ""
}

const (
	defaultServiceName  = "mapdata-api"
	defaultTokenMinutes = 60
	defaultCacheMinutes = 60
	defaultPoolSize     = 8
	defaultStatsMinutes = 5
)

func Load() (Config, error) {
	c := Config{}
	var parseErrs []error

	c.App.Env = strings.TrimSpace(os.Getenv("APP_ENV"))
	{
		n, err := mustInt("APP_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.App.Port = n
	}
	c.App.ServiceName = strings.TrimSpace(os.Getenv("SERVICE_NAME"))
	c.App.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))

	c.DB.Host = strings.TrimSpace(os.Getenv("DB_HOST"))
	{
		n, err := mustInt("DB_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.DB.Port = n
	}
	c.DB.User = strings.TrimSpace(os.Getenv("DB_USER"))
	c.DB.Password = os.Getenv("DB_PASSWORD")
	c.DB.Name = strings.TrimSpace(os.Getenv("DB_NAME"))
	c.DB.SSLMode = strings.TrimSpace(os.Getenv("DB_SSLMODE"))

	c.Redis.Host = strings.TrimSpace(os.Getenv("REDIS_HOST"))
	{
		n, err := mustInt("REDIS_PORT")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.Port = n
	}
	c.Redis.Password = os.Getenv("REDIS_PASSWORD")
	{
		n, err := optionalInt("REDIS_DB")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Redis.DB = n
	}

	c.Auth.JWTSecret = os.Getenv("JWT_SECRET")
	c.Auth.JWTIssuer = strings.TrimSpace(os.Getenv("JWT_ISSUER"))
	c.Auth.JWTAudience = strings.TrimSpace(os.Getenv("JWT_AUDIENCE"))
	{
		b, err := optionalBool("JWT_VALIDATE_AUDIENCE")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Auth.ValidateAudience = b
	}
	{
		n, err := optionalInt("JWT_TIMEOUT_MINUTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.TokenTTL = time.Duration(n) * time.Minute
	}
	{
		n, err := optionalInt("CACHE_TIMEOUT_MINUTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Auth.SessionTTL = time.Duration(n) * time.Minute
	}
	{
		b, err := optionalBool("SESSION_STRICT")
		if err != nil {
			parseErrs = append(parseErrs, err)
		}
		c.Auth.StrictSessions = b
	}
	c.Auth.ClientKey = os.Getenv("AUTH_CLIENT_KEY")

	c.Notify.SMTPHost = strings.TrimSpace(os.Getenv("SMTP_HOST"))
	c.Notify.SMTPUsername = strings.TrimSpace(os.Getenv("SMTP_USERNAME"))
	c.Notify.SMTPPassword = os.Getenv("SMTP_PASSWORD")
	c.Notify.From = strings.TrimSpace(os.Getenv("ERROR_FROM"))
	c.Notify.To = strings.TrimSpace(os.Getenv("ERROR_TO"))
	c.Notify.Subject = strings.TrimSpace(os.Getenv("ERROR_SUBJECT"))
	{
		n, err := optionalInt("NOTIFY_POOL_SIZE")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Notify.PoolSize = n
	}

	{
		n, err := optionalInt("STATS_CACHE_MINUTES")
		n, parseErrs = appendParseErr(parseErrs, n, err)
		c.Stats.CacheTTL = time.Duration(n) * time.Minute
	}
	c.Stats.MapPath = strings.TrimSpace(os.Getenv("MAP_GEOJSON_PATH"))
	c.Stats.DistrictProperty = strings.TrimSpace(os.Getenv("MAP_DISTRICT_PROPERTY"))

	if err := joinErrors(parseErrs); err != nil {
		return Config{}, err
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks required values and fills defaults in place.
func (c *Config) Validate() error {
	var errs []error

	if c.App.Env == "" {
		errs = append(errs, errors.New("APP_ENV is required"))
	} else if !isValidEnv(c.App.Env) {
		errs = append(errs, fmt.Errorf("APP_ENV must be one of local, dev, staging, production, got %q", c.App.Env))
	}
	if c.App.Port <= 0 || c.App.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT must be a valid port, got %d", c.App.Port))
	}
	if c.App.ServiceName == "" {
		c.App.ServiceName = defaultServiceName
	}

	if c.DB.Host == "" {
		errs = append(errs, errors.New("DB_HOST is required"))
	}
	if c.DB.Port <= 0 || c.DB.Port > 65535 {
		errs = append(errs, fmt.Errorf("DB_PORT must be a valid port, got %d", c.DB.Port))
	}
	if c.DB.User == "" {
		errs = append(errs, errors.New("DB_USER is required"))
	}
	if c.DB.Name == "" {
		errs = append(errs, errors.New("DB_NAME is required"))
	}
	if strings.TrimSpace(c.DB.SSLMode) == "" {
		if c.IsProduction() {
			errs = append(errs, errors.New("DB_SSLMODE is required in production"))
		} else {
			// Local-friendly default; production must be explicit.
			c.DB.SSLMode = "disable"
		}
	}
	if c.DB.SSLMode != "" && !isValidSSLMode(c.DB.SSLMode) {
		errs = append(errs, fmt.Errorf("DB_SSLMODE must be one of disable, require, verify-ca, verify-full, got %q", c.DB.SSLMode))
	}

	if c.Redis.Host == "" {
		errs = append(errs, errors.New("REDIS_HOST is required"))
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		errs = append(errs, fmt.Errorf("REDIS_PORT must be a valid port, got %d", c.Redis.Port))
	}

	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.IsProduction() && c.Auth.JWTIssuer == "" {
		errs = append(errs, errors.New("JWT_ISSUER is required in production"))
	}
	if c.Auth.ValidateAudience && c.Auth.JWTAudience == "" {
		errs = append(errs, errors.New("JWT_AUDIENCE is required when JWT_VALIDATE_AUDIENCE is set"))
	}
	if c.Auth.TokenTTL < 0 {
		errs = append(errs, errors.New("JWT_TIMEOUT_MINUTES must be positive"))
	} else if c.Auth.TokenTTL == 0 {
		c.Auth.TokenTTL = defaultTokenMinutes * time.Minute
	}
	if c.Auth.SessionTTL < 0 {
		errs = append(errs, errors.New("CACHE_TIMEOUT_MINUTES must be positive"))
	} else if c.Auth.SessionTTL == 0 {
		c.Auth.SessionTTL = defaultCacheMinutes * time.Minute
	}

	if c.Notify.SMTPHost != "" && (c.Notify.From == "" || c.Notify.To == "") {
		errs = append(errs, errors.New("ERROR_FROM and ERROR_TO are required when SMTP_HOST is set"))
	}
	if c.Notify.PoolSize < 0 {
		errs = append(errs, errors.New("NOTIFY_POOL_SIZE must be positive"))
	} else if c.Notify.PoolSize == 0 {
		c.Notify.PoolSize = defaultPoolSize
	}

	if c.Stats.CacheTTL < 0 {
		errs = append(errs, errors.New("STATS_CACHE_MINUTES must be positive"))
	} else if c.Stats.CacheTTL == 0 {
		c.Stats.CacheTTL = defaultStatsMinutes * time.Minute
	}

	return joinErrors(errs)
}

func (c Config) IsProduction() bool {
	return c.App.Env == "production"
}

func (c Config) HTTPAddr() string {
	return fmt.Sprintf(":%d", c.App.Port)
}

func (c Config) PostgresDSN() string {
	// Avoid logging this string; it contains secrets.
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host,
		c.DB.Port,
		c.DB.User,
		c.DB.Password,
		c.DB.Name,
		c.DB.SSLMode,
	)
}

func (c Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

func mustInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalInt(key string) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

func optionalBool(key string) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, v)
	}
	return b, nil
}

func appendParseErr(errs []error, n int, err error) (int, []error) {
	if err != nil {
		errs = append(errs, err)
	}
	return n, errs
}

func isValidEnv(v string) bool {
	switch v {
	case "local", "dev", "staging", "production":
		return true
	default:
		return false
	}
}

func isValidSSLMode(v string) bool {
	switch v {
	case "disable", "require", "verify-ca", "verify-full":
		return true
	default:
		return false
	}
}

func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	if len(errs) == 1 {
		return errs[0]
	}
	var b strings.Builder
	b.WriteString("config errors:\n")
	for _, e := range errs {
		b.WriteString("- ")
		b.WriteString(e.Error())
		b.WriteString("\n")
	}
	return errors.New(strings.TrimSpace(b.String()))
}
