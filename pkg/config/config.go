package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置
type Config struct {
	Server          ServerConfig          `mapstructure:"server"`
	Database        DatabaseConfig        `mapstructure:"database"`
	Redis           RedisConfig           `mapstructure:"redis"`
	Kafka           KafkaConfig           `mapstructure:"kafka"`
	JWT             JWTConfig             `mapstructure:"jwt"`
	Log             LogConfig             `mapstructure:"log"`
	Storage         StorageConfig         `mapstructure:"storage"`
	Minio           MinioConfig           `mapstructure:"minio"`
	S3              S3Config              `mapstructure:"s3"`
	Transcode       TranscodeConfig       `mapstructure:"transcode"`
	Worker          WorkerConfig          `mapstructure:"worker"`
	Queue           QueueConfig           `mapstructure:"queue"`
	CDN             CDNConfig             `mapstructure:"cdn"`
	Stream          StreamConfig          `mapstructure:"stream"`
	Reconciler      ReconcilerConfig      `mapstructure:"reconciler"`
	ServiceRegistry ServiceRegistryConfig `mapstructure:"service_registry"`
	GRPCServer      GRPCServerConfig      `mapstructure:"grpc_server"`
	Observability   ObservabilityConfig   `mapstructure:"observability"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置，driver 支持 mysql / postgres / sqlite
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	Database        string        `mapstructure:"database"`
	Charset         string        `mapstructure:"charset"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	LogLevel        string        `mapstructure:"log_level"`
}

// RedisConfig Redis配置
type RedisConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	EnableTLS    bool          `mapstructure:"enable_tls"`
}

// ServiceRegistryConfig registration configuration.
type ServiceRegistryConfig struct {
	Enabled         bool          `mapstructure:"enabled"`
	Endpoints       []string      `mapstructure:"endpoints"`
	ServiceName     string        `mapstructure:"service_name"`
	ServiceID       string        `mapstructure:"service_id"`
	RegisterHost    string        `mapstructure:"register_host"`
	TTL             time.Duration `mapstructure:"ttl"`
	RefreshInterval time.Duration `mapstructure:"refresh_interval"`
}

// GRPCServerConfig gRPC server configuration.
type GRPCServerConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// StorageConfig 选择对象存储实现，driver 支持 minio / s3
type StorageConfig struct {
	Driver            string `mapstructure:"driver"`
	PublicBase        string `mapstructure:"public_base"`
	UploadConcurrency int    `mapstructure:"upload_concurrency"`
}

// MinioConfig MinIO配置
type MinioConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	AccessKey       string `mapstructure:"access_key"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	SecretKey       string `mapstructure:"secret_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
	BucketName      string `mapstructure:"bucket_name"`
}

// S3Config AWS S3（或兼容服务）配置
type S3Config struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UsePathStyle    bool   `mapstructure:"use_path_style"`
}

// TranscodeConfig 转码配置
type TranscodeConfig struct {
	FFmpeg         FFmpegConfig `mapstructure:"ffmpeg"`
	SegmentSeconds int          `mapstructure:"segment_seconds"`
	ThumbnailAt    float64      `mapstructure:"thumbnail_at"`
}

// FFmpegConfig FFmpeg相关配置
type FFmpegConfig struct {
	BinaryPath    string        `mapstructure:"binary_path"`
	ProbePath     string        `mapstructure:"probe_path"`
	TempDir       string        `mapstructure:"temp_dir"`
	Timeout       time.Duration `mapstructure:"timeout"`
	VideoCodec    string        `mapstructure:"video_codec"`
	HardwareAccel string        `mapstructure:"hardware_accel"`
	VideoPreset   string        `mapstructure:"video_preset"`
	Threads       int           `mapstructure:"threads"`
}

// WorkerConfig Worker相关配置
type WorkerConfig struct {
	Enabled             bool          `mapstructure:"enabled"`
	WorkerID            string        `mapstructure:"worker_id"`
	MaxConcurrentTasks  int           `mapstructure:"max_concurrent_tasks"`
	ShutdownGracePeriod time.Duration `mapstructure:"shutdown_grace_period"`
}

// QueueConfig 任务队列配置，driver 支持 redis / memory
type QueueConfig struct {
	Driver        string        `mapstructure:"driver"`
	KeyPrefix     string        `mapstructure:"key_prefix"`
	Capacity      int           `mapstructure:"capacity"`
	KeepCompleted int           `mapstructure:"keep_completed"`
	KeepFailed    int           `mapstructure:"keep_failed"`
	PollTimeout   time.Duration `mapstructure:"poll_timeout"`
}

// CDNConfig 外部编码服务配置
type CDNConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	APIKey        string        `mapstructure:"api_key"`
	Timeout       time.Duration `mapstructure:"timeout"`
	WebhookSecret string        `mapstructure:"webhook_secret"`
	SigningSecret string        `mapstructure:"signing_secret"`
}

// StreamConfig 播放地址配置
type StreamConfig struct {
	URLExpiryHours int `mapstructure:"url_expiry_hours"`
}

// ReconcilerConfig CDN 状态轮询配置
type ReconcilerConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Schedule  string `mapstructure:"schedule"`
	BatchSize int    `mapstructure:"batch_size"`
}

// ObservabilityConfig 性能剖析与指标
type ObservabilityConfig struct {
	PyroscopeEnabled bool   `mapstructure:"pyroscope_enabled"`
	PyroscopeServer  string `mapstructure:"pyroscope_server"`
	MetricsEnabled   bool   `mapstructure:"metrics_enabled"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	Filename string `mapstructure:"filename"`
}

// KafkaConfig Kafka配置
type KafkaConfig struct {
	BootstrapServers    []string          `mapstructure:"bootstrap_servers"`
	ClientID            string            `mapstructure:"client_id"`
	GroupID             string            `mapstructure:"group_id"`
	Enabled             bool              `mapstructure:"enabled"`
	Topics              KafkaTopicsConfig `mapstructure:"topics"`
	CommitOnDecodeError bool              `mapstructure:"commit_on_decode_error"`
}

type KafkaTopicsConfig struct {
	UploadEvents      string `mapstructure:"upload_events"`
	TranscodeProgress string `mapstructure:"transcode_progress"`
}

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// SetGlobalConfig 设置全局配置
func SetGlobalConfig(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// GetGlobalConfig 获取全局配置
func GetGlobalConfig() *Config {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalConfig
}

// Load 加载配置
func Load(configPath string) (*Config, error) {
	// .env 仅用于本地开发，不存在时忽略
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("storage.driver", "minio")
	v.SetDefault("queue.driver", "redis")
	v.SetDefault("worker.enabled", true)
	v.SetDefault("reconciler.enabled", true)
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.client_id", "vod-service")
	v.SetDefault("kafka.group_id", "vod-service-group")
	v.SetDefault("kafka.topics.upload_events", "vod.uploads")
	v.SetDefault("kafka.topics.transcode_progress", "vod.transcode.progress")
	v.SetDefault("kafka.commit_on_decode_error", true)
	v.SetDefault("observability.metrics_enabled", true)

	// 环境变量前缀，如 VOD_CDN_API_KEY
	v.SetEnvPrefix("VOD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	config.normalize()

	return &config, nil
}

// Default 返回只包含默认值的配置，测试与嵌入式场景使用
func Default() *Config {
	c := &Config{}
	c.normalize()
	return c
}

// normalize 补全配置的默认值
func (c *Config) normalize() {
	// 兼容不同的密钥字段
	if c.Minio.AccessKeyID == "" {
		c.Minio.AccessKeyID = c.Minio.AccessKey
	}
	if c.Minio.SecretAccessKey == "" {
		c.Minio.SecretAccessKey = c.Minio.SecretKey
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8083
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = "minio"
	}
	if c.Storage.UploadConcurrency <= 0 {
		c.Storage.UploadConcurrency = 4
	}

	if c.Worker.MaxConcurrentTasks <= 0 {
		c.Worker.MaxConcurrentTasks = 2
	}
	if c.Worker.WorkerID == "" {
		c.Worker.WorkerID = "vod-worker"
	}
	if c.Worker.ShutdownGracePeriod == 0 {
		c.Worker.ShutdownGracePeriod = 10 * time.Second
	}

	if c.Queue.Driver == "" {
		c.Queue.Driver = "redis"
	}
	if c.Queue.KeyPrefix == "" {
		c.Queue.KeyPrefix = "vod:transcode"
	}
	if c.Queue.Capacity <= 0 {
		c.Queue.Capacity = c.Worker.MaxConcurrentTasks * 50
	}
	if c.Queue.KeepCompleted <= 0 {
		c.Queue.KeepCompleted = 100
	}
	if c.Queue.KeepFailed <= 0 {
		c.Queue.KeepFailed = 100
	}
	if c.Queue.PollTimeout <= 0 {
		c.Queue.PollTimeout = 5 * time.Second
	}

	// FFmpeg默认值
	if c.Transcode.FFmpeg.TempDir == "" {
		c.Transcode.FFmpeg.TempDir = "/tmp/vod-transcode"
	}
	if c.Transcode.FFmpeg.BinaryPath == "" {
		c.Transcode.FFmpeg.BinaryPath = "ffmpeg"
	}
	if c.Transcode.FFmpeg.ProbePath == "" {
		c.Transcode.FFmpeg.ProbePath = "ffprobe"
	}
	if c.Transcode.FFmpeg.VideoCodec == "" {
		c.Transcode.FFmpeg.VideoCodec = "libx264"
	}
	if c.Transcode.FFmpeg.VideoPreset == "" {
		c.Transcode.FFmpeg.VideoPreset = "medium"
	}
	if c.Transcode.FFmpeg.Threads < 0 {
		c.Transcode.FFmpeg.Threads = 0
	}
	if c.Transcode.FFmpeg.Timeout == 0 {
		c.Transcode.FFmpeg.Timeout = time.Hour
	}
	if c.Transcode.SegmentSeconds <= 0 {
		c.Transcode.SegmentSeconds = 6
	}
	if c.Transcode.ThumbnailAt <= 0 {
		c.Transcode.ThumbnailAt = 5
	}

	if c.CDN.Timeout <= 0 {
		c.CDN.Timeout = 30 * time.Second
	}
	if c.Stream.URLExpiryHours <= 0 {
		c.Stream.URLExpiryHours = 4
	}
	if c.Reconciler.Schedule == "" {
		c.Reconciler.Schedule = "@every 1m"
	}
	if c.Reconciler.BatchSize <= 0 {
		c.Reconciler.BatchSize = 50
	}

	if c.GRPCServer.Host == "" {
		c.GRPCServer.Host = "0.0.0.0"
	}
	if c.GRPCServer.Port == 0 {
		c.GRPCServer.Port = 9092
	}
	if c.ServiceRegistry.ServiceName == "" {
		c.ServiceRegistry.ServiceName = "vod-service"
	}
	if c.ServiceRegistry.TTL == 0 {
		c.ServiceRegistry.TTL = 30 * time.Second
	}
	if c.ServiceRegistry.RefreshInterval == 0 {
		c.ServiceRegistry.RefreshInterval = 10 * time.Second
	}
	if len(c.Kafka.BootstrapServers) == 0 {
		c.Kafka.BootstrapServers = []string{"localhost:29092"}
	}
	if c.Kafka.ClientID == "" {
		c.Kafka.ClientID = "vod-service"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "vod-service-group"
	}
	if c.Kafka.Topics.UploadEvents == "" {
		c.Kafka.Topics.UploadEvents = "vod.uploads"
	}
	if c.Kafka.Topics.TranscodeProgress == "" {
		c.Kafka.Topics.TranscodeProgress = "vod.transcode.progress"
	}
}

// GetDSN 获取数据库连接字符串，显式配置的 dsn 优先
func (c *DatabaseConfig) GetDSN() string {
	if c.DSN != "" {
		return c.DSN
	}
	switch c.Driver {
	case "postgres":
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.Username, c.Password, c.Database, sslMode)
	case "sqlite":
		if c.Database == "" {
			return "file::memory:?cache=shared"
		}
		return c.Database
	default:
		return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
			c.Username, c.Password, c.Host, c.Port, c.Database, c.Charset)
	}
}

// GetRedisAddr 获取Redis地址
func (c *RedisConfig) GetRedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CDNEnabled 是否配置了外部编码服务凭证
func (c *CDNConfig) CDNEnabled() bool {
	return strings.TrimSpace(c.APIKey) != ""
}
