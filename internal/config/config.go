package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Mirror   MirrorConfig   `mapstructure:"mirror"`
	Seed     SeedConfig     `mapstructure:"seed"`
	Studio   StudioConfig   `mapstructure:"studio"`
	S3       S3Config       `mapstructure:"s3"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Calendar CalendarConfig `mapstructure:"calendar"`
	Backup   BackupConfig   `mapstructure:"backup"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// StorageConfig selects the primary document backend: sqlite, postgres,
// mongo or memory.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// DatabaseConfig is the MongoDB connection used when storage.driver is mongo.
type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

// RedisConfig enables the Redis mirror and change broadcast when Addr is set.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type MirrorConfig struct {
	Key string `mapstructure:"key"`
	// Path is the directory of the file mirror used when Redis is off.
	Path string `mapstructure:"path"`
}

type SeedConfig struct {
	Tag  string `mapstructure:"tag"`
	File string `mapstructure:"file"`
}

// StudioConfig holds studio-local settings.
type StudioConfig struct {
	Timezone string `mapstructure:"timezone"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// JWTConfig defines JWT specific configuration
type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	Expiration time.Duration `mapstructure:"expiration"`
}

type CalendarConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Latency time.Duration `mapstructure:"latency"`
}

// BackupConfig schedules automatic backups; a zero Interval disables them.
type BackupConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// server.address -> SERVER_ADDRESS, jwt.expiration -> JWT_EXPIRATION
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	v.SetDefault("server.address", ":8080")
	v.SetDefault("storage.driver", "sqlite")
	v.SetDefault("storage.sqlite_path", "./fisiostudio.db")
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("database.uri", "mongodb://localhost:27017")
	v.SetDefault("database.name", "fisiostudio")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "fisiostudio_sync")
	v.SetDefault("mirror.key", "fisiostudio_data_mirror")
	v.SetDefault("mirror.path", "")
	v.SetDefault("seed.tag", "2024.05.25.05_PERSISTENCE_LOCKED")
	v.SetDefault("seed.file", "")
	v.SetDefault("studio.timezone", "America/Sao_Paulo")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.access_key_id", "")
	v.SetDefault("s3.secret_access_key", "")
	v.SetDefault("s3.bucket_name", "")
	v.SetDefault("s3.use_ssl", true)
	v.SetDefault("jwt.secret", "")
	v.SetDefault("jwt.expiration", "12h")
	v.SetDefault("calendar.enabled", true)
	v.SetDefault("calendar.latency", "800ms")
	v.SetDefault("backup.interval", "24h")

	err = v.ReadInConfig()
	// A missing file is fine; defaults and env vars still apply.
	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		err = nil
	} else if err != nil {
		return
	}

	err = v.Unmarshal(&config)
	if err != nil {
		return
	}
	return config, nil
}

// Location resolves the studio time zone, falling back to UTC.
func (c StudioConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
