package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/logging"
)

// EnvPrefix 是环境变量前缀；层级用双下划线分隔：
//
//	BOOKREC_STORE__DRIVER=redis         -> store.driver
//	BOOKREC_ENGINE__SIMILAR_TOP_N=5     -> engine.similar_top_n
//	BOOKREC_STORE__REDIS__ADDR=...      -> store.redis.addr
const EnvPrefix = "BOOKREC_"

// Settings 是 bookrec 的运行配置。
// 加载顺序（后者覆盖前者）：默认值 -> YAML 文件 -> 环境变量（.env 文件会先被载入环境）。
type Settings struct {
	Log      logging.Config   `koanf:"log"`
	Engine   EngineSettings   `koanf:"engine"`
	Store    StoreSettings    `koanf:"store"`
	Pipeline PipelineSettings `koanf:"pipeline"`
}

// EngineSettings 引擎参数，实现 core.EngineConfig。
type EngineSettings struct {
	SimilarTopN      int     `koanf:"similar_top_n" validate:"gte=1"`
	UserMinCount     int     `koanf:"user_min_count" validate:"gte=1"`
	UserMaxCount     int     `koanf:"user_max_count" validate:"gtefield=UserMinCount"`
	GenreWeight      float64 `koanf:"genre_weight" validate:"gte=0"`
	PopularityWeight float64 `koanf:"popularity_weight" validate:"gte=0"`
	RecencyWeight    float64 `koanf:"recency_weight" validate:"gte=0"`
	HorizonDays      int     `koanf:"horizon_days" validate:"gte=1"`

	// MaxPerGenre > 0 时个性化结果按主类别打散
	MaxPerGenre int `koanf:"max_per_genre" validate:"gte=0"`
}

var _ core.EngineConfig = (*EngineSettings)(nil)

func (e *EngineSettings) DefaultTopN() int  { return e.SimilarTopN }
func (e *EngineSettings) MinUserCount() int { return e.UserMinCount }
func (e *EngineSettings) MaxUserCount() int { return e.UserMaxCount }
func (e *EngineSettings) RecencyHorizon() time.Duration {
	return time.Duration(e.HorizonDays) * 24 * time.Hour
}

// StoreSettings 存储配置
type StoreSettings struct {
	Driver   string           `koanf:"driver" validate:"oneof=memory redis postgres"`
	Redis    RedisSettings    `koanf:"redis"`
	Postgres PostgresSettings `koanf:"postgres"`

	// SeedFile 启动时导入的 books_raw.json（可选，memory 驱动常用）
	SeedFile string `koanf:"seed_file"`
}

type RedisSettings struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
}

type PostgresSettings struct {
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

// PipelineSettings 个性化 Pipeline 配置
type PipelineSettings struct {
	// Path 为 YAML Pipeline 文件；为空时使用内置 Pipeline
	Path string `koanf:"path"`
}

// DefaultSettings 返回默认配置。
func DefaultSettings() *Settings {
	def := &core.DefaultEngineConfig{}
	return &Settings{
		Log: logging.Config{Level: "info", Format: "json"},
		Engine: EngineSettings{
			SimilarTopN:      def.DefaultTopN(),
			UserMinCount:     def.MinUserCount(),
			UserMaxCount:     def.MaxUserCount(),
			GenreWeight:      0.4,
			PopularityWeight: 0.3,
			RecencyWeight:    0.3,
			HorizonDays:      int(def.RecencyHorizon() / (24 * time.Hour)),
		},
		Store: StoreSettings{
			Driver: "memory",
			Redis:  RedisSettings{Addr: "localhost:6379"},
		},
	}
}

// Load 加载配置；path 为空时跳过 YAML 层。
func Load(path string) (*Settings, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	k := koanf.New(".")

	// Layer 1: 默认值
	if err := k.Load(structs.Provider(DefaultSettings(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: YAML 文件（可选）
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Layer 3: 环境变量
	if err := k.Load(env.Provider(EnvPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return s, nil
}

// envTransform: BOOKREC_STORE__REDIS__ADDR -> store.redis.addr
func envTransform(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate 校验配置。
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return err
	}
	switch s.Store.Driver {
	case "redis":
		if s.Store.Redis.Addr == "" {
			return errors.New("store.redis.addr is required for the redis driver")
		}
	case "postgres":
		if s.Store.Postgres.DSN == "" {
			return errors.New("store.postgres.dsn is required for the postgres driver")
		}
	}
	if s.Engine.GenreWeight+s.Engine.PopularityWeight+s.Engine.RecencyWeight == 0 {
		return errors.New("engine weights must not all be zero")
	}
	return nil
}
