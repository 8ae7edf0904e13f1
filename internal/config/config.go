package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

// 示例配置里的密钥，生产环境禁止使用
const sampleJWTSecret = "change-me-in-production"

// Config 全局配置结构体
type Config struct {
	App           AppConfig           `mapstructure:"app"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Redis         RedisConfig         `mapstructure:"redis"`
	Elasticsearch ElasticsearchConfig `mapstructure:"elasticsearch"`
	Log           LogConfig           `mapstructure:"log"`
	JWT           JWTConfig           `mapstructure:"jwt"`
	Auth          AuthConfig          `mapstructure:"auth"`
	Upload        UploadConfig        `mapstructure:"upload"`
	Snowflake     SnowflakeConfig     `mapstructure:"snowflake"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name    string     `mapstructure:"name"`
	Env     string     `mapstructure:"env"`
	Version string     `mapstructure:"version"`
	Port    int        `mapstructure:"port"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// IsProduction 是否为生产环境
func (c *AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// CorsConfig 跨域配置
type CorsConfig struct {
	AllowOrigins     []string `mapstructure:"allow_origins"`
	AllowMethods     []string `mapstructure:"allow_methods"`
	AllowHeaders     []string `mapstructure:"allow_headers"`
	ExposeHeaders    []string `mapstructure:"expose_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// DatabaseConfig 数据库配置，driver 取 mysql 或 sqlite
type DatabaseConfig struct {
	Driver       string `mapstructure:"driver"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	Charset      string `mapstructure:"charset"`
	Path         string `mapstructure:"path"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
	LogLevel     string `mapstructure:"log_level"`
	Retries      uint   `mapstructure:"retries"`
}

// DSN 获取MySQL连接字符串
func (c *DatabaseConfig) DSN() string {
	mc := mysql.NewConfig()
	mc.User = c.Username
	mc.Passwd = c.Password
	mc.Net = "tcp"
	mc.Addr = fmt.Sprintf("%s:%d", c.Host, c.Port)
	mc.DBName = c.Database
	mc.ParseTime = true
	mc.Loc = time.Local
	if c.Charset != "" {
		mc.Params = map[string]string{"charset": c.Charset}
	}
	return mc.FormatDSN()
}

// RedisConfig Redis配置
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// Addr 获取Redis地址
func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// ElasticsearchConfig Elasticsearch配置，未启用时关键词搜索走数据库 LIKE
type ElasticsearchConfig struct {
	Enabled  bool     `mapstructure:"enabled"`
	URLs     []string `mapstructure:"urls"`
	Username string   `mapstructure:"username"`
	Password string   `mapstructure:"password"`
	Index    string   `mapstructure:"index"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
	Stdout     bool   `mapstructure:"stdout"`
}

// JWTConfig JWT配置
type JWTConfig struct {
	Secret    string `mapstructure:"secret"`
	ExpiresIn string `mapstructure:"expires_in"`
	Issuer    string `mapstructure:"issuer"`
}

// Expiry 解析令牌有效期
func (c *JWTConfig) Expiry() (time.Duration, error) {
	return ParseExpiry(c.ExpiresIn)
}

// AuthConfig 注册与令牌吊销相关配置
type AuthConfig struct {
	RegisterRole   string `mapstructure:"register_role"`
	FirstUserAdmin bool   `mapstructure:"first_user_admin"`
	BcryptCost     int    `mapstructure:"bcrypt_cost"`
	Blacklist      string `mapstructure:"blacklist"`
}

// UploadConfig 上传配置
type UploadConfig struct {
	Storage    string             `mapstructure:"storage"`
	MaxSize    int64              `mapstructure:"max_size"`
	AvatarType []string           `mapstructure:"avatar_types"`
	ImageType  []string           `mapstructure:"image_types"`
	Local      LocalStorageConfig `mapstructure:"local"`
	COS        COSStorageConfig   `mapstructure:"cos"`
	S3         S3StorageConfig    `mapstructure:"s3"`
}

// LocalStorageConfig 本地存储配置
type LocalStorageConfig struct {
	Path      string `mapstructure:"path"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// COSStorageConfig 腾讯云COS存储配置
type COSStorageConfig struct {
	SecretID  string `mapstructure:"secret_id"`
	SecretKey string `mapstructure:"secret_key"`
	BucketURL string `mapstructure:"bucket_url"`
	URLPrefix string `mapstructure:"url_prefix"`
}

// S3StorageConfig S3兼容存储配置
type S3StorageConfig struct {
	Region          string `mapstructure:"region"`
	Bucket          string `mapstructure:"bucket"`
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	URLPrefix       string `mapstructure:"url_prefix"`
}

// SnowflakeConfig 雪花ID配置
type SnowflakeConfig struct {
	Epoch  string `mapstructure:"epoch"`
	NodeID int64  `mapstructure:"node_id"`
}

// Loader 负责读取配置文件和环境变量，并在文件变化时重新加载
type Loader struct {
	v *viper.Viper
}

// NewLoader 创建配置加载器，path 可以是目录或具体文件
func NewLoader(path string) *Loader {
	v := viper.New()
	setDefaults(v)

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		v.SetConfigFile(path)
	} else {
		if path == "" {
			path = "./config"
		}
		v.AddConfigPath(path)
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindLegacyEnv(v)

	return &Loader{v: v}
}

// Load 读取并校验配置
func (l *Loader) Load() (*Config, error) {
	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 没有配置文件时只使用默认值和环境变量
	}

	return l.decode()
}

// Watch 监听配置文件变化，解析成功后回调
func (l *Loader) Watch(onChange func(*Config)) {
	l.v.OnConfigChange(func(in fsnotify.Event) {
		cfg, err := l.decode()
		if err != nil {
			return
		}
		onChange(cfg)
	})
	l.v.WatchConfig()
}

func (l *Loader) decode() (*Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load 从指定路径加载配置
func Load(path string) (*Config, error) {
	return NewLoader(path).Load()
}

// Validate 校验配置
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return errors.New("jwt.secret 不能为空")
	}
	if c.App.IsProduction() && c.JWT.Secret == sampleJWTSecret {
		return errors.New("生产环境必须修改 jwt.secret")
	}
	if _, err := c.JWT.Expiry(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("不支持的数据库驱动: %s", c.Database.Driver)
	}
	switch c.Upload.Storage {
	case "local", "cos", "s3":
	default:
		return fmt.Errorf("不支持的存储类型: %s", c.Upload.Storage)
	}
	return nil
}

// ParseExpiry 解析有效期，支持 7d、12h、30m 这类写法和纯秒数
func ParseExpiry(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("jwt.expires_in 不能为空")
	}

	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("无效的令牌有效期: %s", s)
		}
		return time.Duration(secs) * time.Second, nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil || days <= 0 {
			return 0, fmt.Errorf("无效的令牌有效期: %s", s)
		}
		return time.Duration(days) * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("无效的令牌有效期: %s", s)
	}
	return d, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "blog-api")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.version", "1.0.0")
	v.SetDefault("app.port", 3000)
	v.SetDefault("app.cors.allow_origins", []string{"http://localhost:5173"})
	v.SetDefault("app.cors.allow_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("app.cors.allow_headers", []string{"Origin", "Content-Type", "Authorization"})
	v.SetDefault("app.cors.allow_credentials", true)
	v.SetDefault("app.cors.max_age", 86400)

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.username", "root")
	v.SetDefault("database.database", "yidong_blog")
	v.SetDefault("database.charset", "utf8mb4")
	v.SetDefault("database.path", "data/blog.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.retries", 5)

	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("elasticsearch.urls", []string{"http://127.0.0.1:9200"})
	v.SetDefault("elasticsearch.index", "articles")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 10)
	v.SetDefault("log.stdout", true)

	v.SetDefault("jwt.secret", sampleJWTSecret)
	v.SetDefault("jwt.expires_in", "7d")
	v.SetDefault("jwt.issuer", "blog-api")

	v.SetDefault("auth.register_role", "user")
	v.SetDefault("auth.first_user_admin", true)
	v.SetDefault("auth.bcrypt_cost", 10)
	v.SetDefault("auth.blacklist", "memory")

	v.SetDefault("upload.storage", "local")
	v.SetDefault("upload.max_size", 5*1024*1024)
	v.SetDefault("upload.avatar_types", []string{"image/jpeg", "image/png", "image/gif"})
	v.SetDefault("upload.image_types", []string{"image/jpeg", "image/png", "image/gif", "image/webp"})
	v.SetDefault("upload.local.path", "uploads")
	v.SetDefault("upload.local.url_prefix", "/uploads")

	v.SetDefault("snowflake.epoch", "2024-01-01")
	v.SetDefault("snowflake.node_id", 1)
}

// 兼容部署脚本里沿用的环境变量名
func bindLegacyEnv(v *viper.Viper) {
	_ = v.BindEnv("app.port", "PORT", "APP_PORT")
	_ = v.BindEnv("app.env", "APP_ENV", "NODE_ENV")
	_ = v.BindEnv("app.cors.allow_origins", "CORS_ORIGIN", "APP_CORS_ALLOW_ORIGINS")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET")
	_ = v.BindEnv("jwt.expires_in", "JWT_EXPIRES_IN")
}
