package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server      ServerConfig      `mapstructure:"server" validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database" validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth" validate:"required"`
	Pipeline    PipelineConfig    `mapstructure:"pipeline" validate:"required"`
	Compression CompressionConfig `mapstructure:"compression" validate:"required"`
	Storage     StorageConfig     `mapstructure:"storage" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
	MaxUploadBytes  int64         `mapstructure:"max_upload_bytes" validate:"required,gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret     string        `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetime time.Duration `mapstructure:"token_lifetime" validate:"required,gt=0"`
}

// PipelineConfig bounds the media submission pipeline.
type PipelineConfig struct {
	CompressTimeout     time.Duration `mapstructure:"compress_timeout" validate:"required,gt=0"`
	UploadTimeout       time.Duration `mapstructure:"upload_timeout" validate:"required,gt=0"`
	FinalizeTimeout     time.Duration `mapstructure:"finalize_timeout" validate:"required,gt=0"`
	MaxConcurrentStages int           `mapstructure:"max_concurrent_stages" validate:"required,gt=0,lte=64"`
}

// CompressionConfig controls how photos and videos are re-encoded before upload.
type CompressionConfig struct {
	// MaxImageDimension is the longest edge, in pixels, of an uploaded photo
	MaxImageDimension int `mapstructure:"max_image_dimension" validate:"required,gt=0"`
	JPEGQuality       int `mapstructure:"jpeg_quality" validate:"required,gte=1,lte=100"`
	MaxVideoWidth     int `mapstructure:"max_video_width" validate:"required,gt=0"`
	// FFmpegPath is the ffmpeg binary used for video transcoding
	FFmpegPath string `mapstructure:"ffmpeg_path" validate:"required"`
}

// StorageConfig selects and configures the object storage backend.
type StorageConfig struct {
	Backend         string `mapstructure:"backend" validate:"required,oneof=s3 minio"`
	Bucket          string `mapstructure:"bucket" validate:"required"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint" validate:"required_if=Backend minio"`
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_if=Backend minio"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_if=Backend minio"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	PublicBaseURL   string `mapstructure:"public_base_url" validate:"required,url"`
}
