package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port int `yaml:"port"`
	} `yaml:"server"`

	Auth struct {
		// APIKeys maps tenant id -> API key
		APIKeys   map[string]string `yaml:"apiKeys"`
		RateLimit struct {
			Capacity   int `yaml:"capacity"`
			RefillRate int `yaml:"refillRate"`
		} `yaml:"rateLimit"`
	} `yaml:"auth"`

	Judge struct {
		APIKey string `yaml:"apiKey"`
		Model  string `yaml:"model"`
	} `yaml:"judge"`

	Resolvers struct {
		PubMed struct {
			BaseURL string `yaml:"baseURL"`
			APIKey  string `yaml:"apiKey"`
		} `yaml:"pubmed"`
		DOI struct {
			BaseURL string `yaml:"baseURL"`
		} `yaml:"doi"`
		WebSearch struct {
			BaseURL  string `yaml:"baseURL"`
			APIKey   string `yaml:"apiKey"`
			EngineID string `yaml:"engineID"`
		} `yaml:"webSearch"`
	} `yaml:"resolvers"`

	Pipeline struct {
		MaxConcurrent     int `yaml:"maxConcurrent"`
		RunTimeoutSeconds int `yaml:"runTimeoutSeconds"`
	} `yaml:"pipeline"`

	Database struct {
		// Driver selects the primary store: "mysql" or "" for in-memory
		Driver   string `yaml:"driver"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"database"`

	Archive struct {
		// Postgres long-term store, optional
		Enabled  bool   `yaml:"enabled"`
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"archive"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`
}

// Load baca file config.yaml. ${VAR} di dalam file diexpand dari environment
// supaya credentials tidak perlu hardcode.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, err
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	return &cfg, nil
}

// Helper untuk build DSN MySQL
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper untuk build DSN Postgres (archive)
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		c.Archive.Host,
		c.Archive.Port,
		c.Archive.User,
		c.Archive.Password,
		c.Archive.Name,
	)
}
