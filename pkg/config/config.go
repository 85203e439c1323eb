// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// 进程启动时必须存在的环境变量
const (
	EnvDatabaseURL  = "DB_URL"
	EnvGoogleAPIKey = "GOOGLE_API_KEY"
	EnvConfigPath   = "DOCQA_CONFIG"

	defaultConfigPath = "configs/api.yaml"
)

// Config 进程级配置，启动时构造一次并显式传递
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Model      ModelConfig      `mapstructure:"model"`
	PDF        PDFConfig        `mapstructure:"pdf"`
	Chunking   ChunkingConfig   `mapstructure:"chunking"`
	Retrieval  RetrievalConfig  `mapstructure:"retrieval"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	RateLimits RateLimitsConfig `mapstructure:"rate_limits"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Host        string     `mapstructure:"host"`
	Port        int        `mapstructure:"port"`
	MaxUploadMB int        `mapstructure:"max_upload_mb"`
	CORS        CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// StorageConfig 存储配置
type StorageConfig struct {
	UploadDir string         `mapstructure:"upload_dir"`
	Metadata  MetadataConfig `mapstructure:"metadata"`
	Vector    VectorConfig   `mapstructure:"vector"`
	Lease     LeaseConfig    `mapstructure:"lease"`
}

// MetadataConfig 文档登记表配置；type: postgres | sqlite | memory
type MetadataConfig struct {
	Type     string `mapstructure:"type"`
	DSN      string `mapstructure:"dsn"`
	PoolSize int    `mapstructure:"pool_size"`
}

// VectorConfig 向量索引配置；type: file | memory | redis
type VectorConfig struct {
	Type      string `mapstructure:"type"`
	Dir       string `mapstructure:"dir"`
	Addr      string `mapstructure:"addr"`
	DB        string `mapstructure:"db"`
	Password  string `mapstructure:"password"`
	Prefix    string `mapstructure:"prefix"`
	Dimension int    `mapstructure:"dimension"`
}

// LeaseConfig 文件名占用配置；type: memory | redis
type LeaseConfig struct {
	Type     string `mapstructure:"type"`
	Addr     string `mapstructure:"addr"`
	DB       int    `mapstructure:"db"`
	Password string `mapstructure:"password"`
	TTL      string `mapstructure:"ttl"`
}

// ModelConfig 模型配置
type ModelConfig struct {
	APIKey    string         `mapstructure:"api_key"`
	Timeout   string         `mapstructure:"timeout"`
	Embedding ProviderConfig `mapstructure:"embedding"`
	LLM       ProviderConfig `mapstructure:"llm"`
}

// ProviderConfig 单个模型提供商配置；provider: gemini | openai
type ProviderConfig struct {
	Provider    string  `mapstructure:"provider"`
	Model       string  `mapstructure:"model"`
	BaseURL     string  `mapstructure:"base_url"`
	APIKey      string  `mapstructure:"api_key"`
	Temperature float32 `mapstructure:"temperature"`
}

// PDFConfig 文本提取配置；extractor: unipdf | ledongthuc | auto
type PDFConfig struct {
	Extractor        string `mapstructure:"extractor"`
	UnidocLicenseKey string `mapstructure:"unidoc_license_key"`
}

// ChunkingConfig 切片配置
type ChunkingConfig struct {
	Splitter     string `mapstructure:"splitter"`
	ChunkSize    int    `mapstructure:"chunk_size"`
	ChunkOverlap int    `mapstructure:"chunk_overlap"`
}

// RetrievalConfig 检索配置
type RetrievalConfig struct {
	TopK int `mapstructure:"top_k"`
}

// SecretsConfig 密钥来源；provider: env | vault | memory
type SecretsConfig struct {
	Provider   string      `mapstructure:"provider"`
	APIKeyName string      `mapstructure:"api_key_name"`
	Vault      VaultConfig `mapstructure:"vault"`
}

// VaultConfig Vault 连接配置
type VaultConfig struct {
	Address    string `mapstructure:"address"`
	Token      string `mapstructure:"token"`
	PathPrefix string `mapstructure:"path_prefix"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控配置
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Tracing    TracingConfig    `mapstructure:"tracing"`
}

// PrometheusConfig Prometheus 配置
type PrometheusConfig struct {
	Enable bool `mapstructure:"enable"`
}

// TracingConfig 链路追踪配置
type TracingConfig struct {
	Enable         bool   `mapstructure:"enable"`
	ServiceName    string `mapstructure:"service_name"`
	ExportEndpoint string `mapstructure:"export_endpoint"`
	Insecure       bool   `mapstructure:"insecure"`
}

// RateLimitsConfig 远程调用限流与熔断
type RateLimitsConfig struct {
	Embedding RemoteLimitConfig `mapstructure:"embedding"`
	LLM       RemoteLimitConfig `mapstructure:"llm"`
}

// RemoteLimitConfig 单类远程调用的限制；全零表示不限制
type RemoteLimitConfig struct {
	RequestsPerMinute float64 `mapstructure:"requests_per_minute"`
	MaxConcurrent     int     `mapstructure:"max_concurrent"`
	Breaker           bool    `mapstructure:"breaker"`
}

// setDefaults 默认值：uploads / faiss_index、1000/100 切片、top_k=4
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.max_upload_mb", 64)
	v.SetDefault("api.cors.enable", true)
	v.SetDefault("api.cors.allow_origins", []string{"http://localhost", "http://localhost:5173"})

	v.SetDefault("storage.upload_dir", "uploads")
	v.SetDefault("storage.metadata.type", "postgres")
	v.SetDefault("storage.metadata.dsn", "")
	v.SetDefault("storage.metadata.pool_size", 10)
	v.SetDefault("storage.vector.type", "file")
	v.SetDefault("storage.vector.dir", "faiss_index")
	v.SetDefault("storage.vector.addr", "localhost:6379")
	v.SetDefault("storage.vector.db", "0")
	v.SetDefault("storage.vector.password", "")
	v.SetDefault("storage.vector.prefix", "docqa")
	v.SetDefault("storage.vector.dimension", 768)
	v.SetDefault("storage.lease.type", "memory")
	v.SetDefault("storage.lease.addr", "localhost:6379")
	v.SetDefault("storage.lease.db", 0)
	v.SetDefault("storage.lease.password", "")
	v.SetDefault("storage.lease.ttl", "10m")

	v.SetDefault("model.api_key", "")
	v.SetDefault("model.timeout", "60s")
	v.SetDefault("model.embedding.provider", "gemini")
	v.SetDefault("model.embedding.model", "models/text-embedding-004")
	v.SetDefault("model.embedding.base_url", "")
	v.SetDefault("model.embedding.api_key", "")
	v.SetDefault("model.llm.provider", "gemini")
	v.SetDefault("model.llm.model", "gemini-1.5-pro")
	v.SetDefault("model.llm.base_url", "")
	v.SetDefault("model.llm.api_key", "")
	v.SetDefault("model.llm.temperature", 0)

	v.SetDefault("pdf.extractor", "auto")
	v.SetDefault("pdf.unidoc_license_key", "")

	v.SetDefault("chunking.splitter", "recursive")
	v.SetDefault("chunking.chunk_size", 1000)
	v.SetDefault("chunking.chunk_overlap", 100)
	v.SetDefault("retrieval.top_k", 4)

	v.SetDefault("secrets.provider", "env")
	v.SetDefault("secrets.api_key_name", EnvGoogleAPIKey)
	v.SetDefault("secrets.vault.address", "")
	v.SetDefault("secrets.vault.token", "")
	v.SetDefault("secrets.vault.path_prefix", "secret")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("monitoring.prometheus.enable", true)
	v.SetDefault("monitoring.tracing.enable", false)
	v.SetDefault("monitoring.tracing.service_name", "docqa-api")
	v.SetDefault("monitoring.tracing.export_endpoint", "")
	v.SetDefault("monitoring.tracing.insecure", true)
}

// LoadDotEnv 加载 .env，文件不存在时忽略
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("加载 %s 失败: %w", p, err)
		}
	}
	return nil
}

// LoadConfig 加载配置文件；configPath 为空时只使用默认值与环境变量
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("无法读取配置文件: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("无法解析配置文件: %w", err)
	}

	replaceEnvVars(&config)
	applyRequiredEnv(&config)
	return &config, nil
}

// LoadAPIConfig 加载 .env 与 API 配置（DOCQA_CONFIG 或 configs/api.yaml；文件缺失时仅用默认值与环境变量）
func LoadAPIConfig() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		path = defaultConfigPath
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	return LoadConfig(path)
}

// replaceEnvVars 替换 "${VAR}" 形式的配置值
func replaceEnvVars(config *Config) {
	for _, p := range []*string{
		&config.Storage.Metadata.DSN,
		&config.Storage.Vector.Password,
		&config.Storage.Lease.Password,
		&config.Model.APIKey,
		&config.Model.Embedding.APIKey,
		&config.Model.LLM.APIKey,
		&config.Secrets.Vault.Token,
		&config.PDF.UnidocLicenseKey,
	} {
		*p = expandEnv(*p)
	}
}

func expandEnv(s string) string {
	if !strings.HasPrefix(s, "${") || !strings.HasSuffix(s, "}") {
		return s
	}
	return os.Getenv(strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}"))
}

// applyRequiredEnv DB_URL / GOOGLE_API_KEY 覆盖文件配置
func applyRequiredEnv(config *Config) {
	if dsn := os.Getenv(EnvDatabaseURL); dsn != "" {
		config.Storage.Metadata.DSN = dsn
	}
	if key := os.Getenv(EnvGoogleAPIKey); key != "" {
		config.Model.APIKey = key
	}
}

// Validate 校验启动必需项：非 memory 登记表需要 DB_URL；env 密钥源需要 GOOGLE_API_KEY
func (c *Config) Validate() error {
	var missing []string
	if c.Storage.Metadata.Type != "memory" && c.Storage.Metadata.DSN == "" {
		missing = append(missing, EnvDatabaseURL)
	}
	if c.Secrets.Provider == "env" && c.Model.APIKey == "" && c.needsGoogleKey() {
		missing = append(missing, EnvGoogleAPIKey)
	}
	if len(missing) > 0 {
		return fmt.Errorf("缺少必需的环境变量: %s", strings.Join(missing, ", "))
	}
	if c.Chunking.ChunkSize <= 0 || c.Chunking.ChunkOverlap < 0 || c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking 配置非法: size=%d overlap=%d", c.Chunking.ChunkSize, c.Chunking.ChunkOverlap)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k 必须大于 0")
	}
	return nil
}

func (c *Config) needsGoogleKey() bool {
	return c.Model.Embedding.Provider == "gemini" || c.Model.LLM.Provider == "gemini"
}

// TimeoutDuration 远程调用超时；无效值回退 60s
func (m ModelConfig) TimeoutDuration() time.Duration {
	return ParseDuration(m.Timeout, 60*time.Second)
}

// TTLDuration 文件名占用的最长持有时间
func (l LeaseConfig) TTLDuration() time.Duration {
	return ParseDuration(l.TTL, 10*time.Minute)
}

// ParseDuration 解析时长字符串，无效或空时返回 defaultVal
func ParseDuration(s string, defaultVal time.Duration) time.Duration {
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

// Addr 监听地址
func (a APIConfig) Addr() string {
	port := a.Port
	if port <= 0 {
		port = 8080
	}
	return fmt.Sprintf("%s:%d", a.Host, port)
}
