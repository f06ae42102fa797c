package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Store backends
const (
	BackendMemory    = "memory"
	BackendPostgres  = "postgres"
	BackendFirestore = "firestore"
)

// Config holds all configuration for the application
type Config struct {
	Server ServerConfig `yaml:"server"`
	Store  StoreConfig  `yaml:"store"`
	AWS    AWSConfig    `yaml:"aws"`
	JWT    JWTConfig    `yaml:"jwt"`
	Push   PushConfig   `yaml:"push"`
	Log    LogConfig    `yaml:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// StoreConfig selects and configures the document store
type StoreConfig struct {
	Backend  string         `yaml:"backend"`
	Postgres DatabaseConfig `yaml:"postgres"`
	Firebase FirebaseConfig `yaml:"firebase"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// FirebaseConfig holds Firestore configuration
type FirebaseConfig struct {
	ProjectID       string `yaml:"project_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

// AWSConfig holds AWS configuration
type AWSConfig struct {
	Region     string `yaml:"region"`
	S3Bucket   string `yaml:"s3_bucket"`
	AccessKey  string `yaml:"access_key"`
	SecretKey  string `yaml:"secret_key"`
	Endpoint   string `yaml:"endpoint"`
	PublicURL  string `yaml:"public_url"`
	DisableSSL bool   `yaml:"disable_ssl"`
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret   string `yaml:"secret"`
	TTLHours int    `yaml:"ttl_hours"`
}

// PushConfig holds push provider configuration
type PushConfig struct {
	Expo ExpoConfig `yaml:"expo"`
	APNs APNsConfig `yaml:"apns"`
}

// ExpoConfig holds Expo push configuration
type ExpoConfig struct {
	Enabled bool   `yaml:"enabled"`
	Host    string `yaml:"host"`
}

// APNsConfig holds APNs configuration. APNs is disabled without a certificate.
type APNsConfig struct {
	CertificateFile string `yaml:"certificate_file"`
	Password        string `yaml:"password"`
	Topic           string `yaml:"topic"`
	Production      bool   `yaml:"production"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the configuration used for keys missing from the file
func Default() *Config {
	return &Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: 8080},
		Store: StoreConfig{
			Backend:  BackendMemory,
			Postgres: DatabaseConfig{Host: "localhost", Port: 5432, SSLMode: "disable"},
		},
		AWS:  AWSConfig{Region: "us-east-1"},
		JWT:  JWTConfig{TTLHours: 24 * 30},
		Push: PushConfig{Expo: ExpoConfig{Enabled: true}},
		Log:  LogConfig{Level: "info"},
	}
}

// Validate checks settings the service cannot start without
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret is required")
	}
	switch c.Store.Backend {
	case BackendMemory, BackendPostgres:
	case BackendFirestore:
		if c.Store.Firebase.ProjectID == "" {
			return fmt.Errorf("store.firebase.project_id is required for the firestore backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

// DSN returns the PostgreSQL connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
