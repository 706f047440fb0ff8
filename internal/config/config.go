package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	TransportIMAP  = "imap"
	TransportGmail = "gmail"
)

type Config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	MailTransport   string `yaml:"mail_transport"`
	IMAPAddr        string `yaml:"imap_addr"`
	IMAPMailbox     string `yaml:"imap_mailbox"`
	EmailConfigPath string `yaml:"email_config_path"`
	EmailAddress    string `yaml:"email_address"`
	EmailPassword   string `yaml:"email_app_password"`

	GmailClientID     string `yaml:"gmail_client_id"`
	GmailClientSecret string `yaml:"gmail_client_secret"`
	GmailRefreshToken string `yaml:"gmail_refresh_token"`
	GmailAccessToken  string `yaml:"gmail_access_token"`

	FetchLimit          int `yaml:"fetch_limit"`
	LookbackDays        int `yaml:"lookback_days"`
	BodyLimit           int `yaml:"body_limit"`
	CacheTTLSeconds     int `yaml:"cache_ttl_seconds"`
	FetchTimeoutSeconds int `yaml:"fetch_timeout_seconds"`

	AIProvider       string `yaml:"ai_provider"`
	AIKey            string `yaml:"ai_api_key"`
	AIBaseURL        string `yaml:"ai_base_url"`
	AIModel          string `yaml:"ai_model"`
	AITimeoutSeconds int    `yaml:"ai_timeout_seconds"`

	SnapshotPath           string `yaml:"snapshot_path"`
	DatabaseURL            string `yaml:"database_url"`
	DatabaseDriver         string `yaml:"database_driver"`
	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds"`
	OutputDir              string `yaml:"output_dir"`
	TemplatePath           string `yaml:"template_path"`
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.applyDefaults()
	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadConfigFile uses a YAML file as the base layer. Environment variables
// still override anything the file sets.
func LoadConfigFile(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	cfg.applyDefaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.applyEnvVars(); err != nil {
		return nil, err
	}
	if err := cfg.loadCredentials(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func GetEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func GetEnvInt(key string, defaultValue int) (int, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return n, nil
}

func (c *Config) applyDefaults() {
	c.Port = "8000"
	c.LogLevel = "info"
	c.MailTransport = TransportIMAP
	c.IMAPAddr = "imap.gmail.com:993"
	c.IMAPMailbox = "INBOX"
	c.FetchLimit = 20
	c.LookbackDays = 7
	c.BodyLimit = 1000
	c.CacheTTLSeconds = 300
	c.FetchTimeoutSeconds = 60
	c.AITimeoutSeconds = 30
	c.SnapshotPath = "data.json"
	c.DatabaseDriver = "postgres"
	c.OutputDir = "."
}

func (c *Config) applyEnvVars() error {
	strs := map[string]*string{
		"PORT":                &c.Port,
		"LOG_LEVEL":           &c.LogLevel,
		"MAIL_TRANSPORT":      &c.MailTransport,
		"IMAP_ADDR":           &c.IMAPAddr,
		"IMAP_MAILBOX":        &c.IMAPMailbox,
		"EMAIL_CONFIG_PATH":   &c.EmailConfigPath,
		"EMAIL_ADDRESS":       &c.EmailAddress,
		"EMAIL_APP_PASSWORD":  &c.EmailPassword,
		"GMAIL_CLIENT_ID":     &c.GmailClientID,
		"GMAIL_CLIENT_SECRET": &c.GmailClientSecret,
		"GMAIL_REFRESH_TOKEN": &c.GmailRefreshToken,
		"GMAIL_ACCESS_TOKEN":  &c.GmailAccessToken,
		"AI_PROVIDER":         &c.AIProvider,
		"AI_API_KEY":          &c.AIKey,
		"AI_BASE_URL":         &c.AIBaseURL,
		"AI_MODEL":            &c.AIModel,
		"SNAPSHOT_PATH":       &c.SnapshotPath,
		"DATABASE_URL":        &c.DatabaseURL,
		"DATABASE_DRIVER":     &c.DatabaseDriver,
		"OUTPUT_DIR":          &c.OutputDir,
		"TEMPLATE_PATH":       &c.TemplatePath,
	}
	for key, dst := range strs {
		*dst = GetEnv(key, *dst)
	}

	ints := map[string]*int{
		"FETCH_LIMIT":              &c.FetchLimit,
		"LOOKBACK_DAYS":            &c.LookbackDays,
		"BODY_LIMIT":               &c.BodyLimit,
		"CACHE_TTL_SECONDS":        &c.CacheTTLSeconds,
		"FETCH_TIMEOUT_SECONDS":    &c.FetchTimeoutSeconds,
		"AI_TIMEOUT_SECONDS":       &c.AITimeoutSeconds,
		"REFRESH_INTERVAL_SECONDS": &c.RefreshIntervalSeconds,
	}
	for key, dst := range ints {
		n, err := GetEnvInt(key, *dst)
		if err != nil {
			return err
		}
		*dst = n
	}

	c.MailTransport = strings.ToLower(c.MailTransport)
	c.AIProvider = strings.ToLower(c.AIProvider)
	c.DatabaseDriver = strings.ToLower(c.DatabaseDriver)
	return nil
}

// loadCredentials fills the mailbox address and app password from the
// key=value credential file. Values already set by env or YAML win.
func (c *Config) loadCredentials() error {
	if c.EmailConfigPath == "" {
		return nil
	}
	address, password, err := ReadCredentialFile(c.EmailConfigPath)
	if err != nil {
		return err
	}
	if c.EmailAddress == "" {
		c.EmailAddress = address
	}
	if c.EmailPassword == "" {
		c.EmailPassword = password
	}
	return nil
}

// ReadCredentialFile scans the file line by line; the last key containing
// "address" or "app_password" wins.
func ReadCredentialFile(path string) (address, password string, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", "", fmt.Errorf("failed to read credential file: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		values, err := godotenv.Unmarshal(line)
		if err != nil {
			return "", "", fmt.Errorf("failed to parse credential file: %w", err)
		}
		for k, v := range values {
			lower := strings.ToLower(k)
			if strings.Contains(lower, "address") {
				address = v
			}
			if strings.Contains(lower, "app_password") {
				password = v
			}
		}
	}
	return address, password, nil
}

func (c *Config) Validate() error {
	switch c.MailTransport {
	case TransportIMAP:
		if c.EmailAddress == "" || c.EmailPassword == "" {
			return fmt.Errorf("EMAIL_ADDRESS and EMAIL_APP_PASSWORD (or EMAIL_CONFIG_PATH) are required for imap")
		}
	case TransportGmail:
		if c.GmailAccessToken == "" && (c.GmailClientID == "" || c.GmailClientSecret == "" || c.GmailRefreshToken == "") {
			return fmt.Errorf("GMAIL_ACCESS_TOKEN or GMAIL_CLIENT_ID, GMAIL_CLIENT_SECRET and GMAIL_REFRESH_TOKEN are required for gmail")
		}
	default:
		return fmt.Errorf("unsupported MAIL_TRANSPORT %q", c.MailTransport)
	}

	if c.FetchLimit <= 0 {
		return fmt.Errorf("FETCH_LIMIT must be positive")
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive")
	}
	if c.BodyLimit <= 0 {
		return fmt.Errorf("BODY_LIMIT must be positive")
	}
	if c.CacheTTLSeconds < 0 || c.FetchTimeoutSeconds <= 0 || c.AITimeoutSeconds <= 0 || c.RefreshIntervalSeconds < 0 {
		return fmt.Errorf("timeouts must be positive and intervals non-negative")
	}
	if c.DatabaseURL != "" && c.DatabaseDriver != "postgres" && c.DatabaseDriver != "mysql" {
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	return nil
}

func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.FetchTimeoutSeconds) * time.Second
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.RefreshIntervalSeconds) * time.Second
}

func (c *Config) AIEnabled() bool {
	return c.AIProvider != "" && c.AIKey != ""
}
