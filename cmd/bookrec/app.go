package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/config/builders"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/logging"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/service"
	"github.com/rushteam/bookrec/store"
)

const usage = `usage: bookrec [-config file] <import|similar|search|user|view> [flags]`

var errUsage = errors.New(usage)

func run(ctx context.Context, args []string, out io.Writer) error {
	global := flag.NewFlagSet("bookrec", flag.ContinueOnError)
	cfgPath := global.String("config", "", "path to YAML config file")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		return errUsage
	}
	cmd, rest := global.Arg(0), global.Args()[1:]

	settings, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	logging.Init(settings.Log)
	log := logging.Component("cli")

	stores, err := openStores(ctx, settings)
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Warn().Err(err).Msg("close store")
		}
	}()

	if settings.Store.SeedFile != "" && cmd != "import" {
		res, err := seedIfEmpty(ctx, stores.catalog, settings.Store.SeedFile)
		if err != nil {
			return fmt.Errorf("seed catalog: %w", err)
		}
		if res != nil {
			log.Info().Int("imported", res.Imported).Int("skipped", len(res.Skipped)).Msg("catalog seeded")
		}
	}

	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	switch cmd {
	case "import":
		file := fs.String("file", "", "path to books_raw.json")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if *file == "" {
			return errors.New("import: -file is required")
		}
		res, err := importFile(ctx, stores.catalog, *file)
		if err != nil {
			return err
		}
		return writeJSON(out, res)

	case "similar", "search", "user":
		id := fs.String("id", "", "book id (similar) or user id (user)")
		query := fs.String("q", "", "title query (search)")
		n := fs.Int("n", 0, "number of recommendations")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		rec, err := newRecommender(settings, stores)
		if err != nil {
			return err
		}
		switch cmd {
		case "similar":
			res, err := rec.Similar(ctx, *id, *n)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		case "search":
			res, err := rec.Search(ctx, *query, *n)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		default:
			res, err := rec.ForUser(ctx, *id, *n)
			if err != nil {
				return err
			}
			return writeJSON(out, res)
		}

	case "view":
		user := fs.String("user", "", "user id")
		book := fs.String("book", "", "book id")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		rec, err := newRecommender(settings, stores)
		if err != nil {
			return err
		}
		if err := rec.RecordView(ctx, *user, *book); err != nil {
			return err
		}
		return writeJSON(out, map[string]any{"user_id": *user, "book_id": *book, "recorded": true})

	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

// storeSet 是按配置打开的存储。
type storeSet struct {
	catalog core.CatalogStore
	history core.HistoryStore
	kv      core.KeyValueStore // postgres 驱动下为 nil
	closers []func() error
}

func (s *storeSet) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

func openStores(ctx context.Context, s *config.Settings) (*storeSet, error) {
	switch s.Store.Driver {
	case "redis":
		kv, err := store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     s.Store.Redis.Addr,
			Password: s.Store.Redis.Password,
			DB:       s.Store.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		c := store.NewKVCatalog(kv)
		return &storeSet{catalog: c, history: c, kv: kv, closers: []func() error{kv.Close}}, nil
	case "postgres":
		pg, err := store.OpenPostgres(ctx, s.Store.Postgres.DSN, s.Store.Postgres.Migrate)
		if err != nil {
			return nil, err
		}
		return &storeSet{catalog: pg, history: pg, closers: []func() error{pg.Close}}, nil
	default:
		kv := store.NewMemoryStore()
		c := store.NewKVCatalog(kv)
		return &storeSet{catalog: c, history: c, kv: kv, closers: []func() error{kv.Close}}, nil
	}
}

func newRecommender(s *config.Settings, stores *storeSet) (*service.Recommender, error) {
	scorer := rank.NewPersonalScorer(&s.Engine)
	scorer.GenreWeight = s.Engine.GenreWeight
	scorer.PopularityWeight = s.Engine.PopularityWeight
	scorer.RecencyWeight = s.Engine.RecencyWeight

	opts := []service.Option{
		service.WithEngineConfig(&s.Engine),
		service.WithScorer(scorer),
		service.WithGenreDiversity(s.Engine.MaxPerGenre),
	}
	if stores.kv != nil {
		opts = append(opts, service.WithPopularStore(stores.kv))
	}
	if s.Pipeline.Path != "" {
		cfg, err := pipeline.LoadFromYAML(s.Pipeline.Path)
		if err != nil {
			return nil, err
		}
		if err := config.ValidatePipelineConfig(cfg); err != nil {
			return nil, err
		}
		factory := builders.NewFactory(builders.Deps{
			History: stores.history,
			KV:      stores.kv,
			Engine:  &s.Engine,
		})
		p, err := cfg.BuildPipeline(factory)
		if err != nil {
			return nil, err
		}
		opts = append(opts, service.WithPipeline(p))
	}
	return service.New(stores.catalog, stores.history, opts...), nil
}

func importFile(ctx context.Context, c core.CatalogStore, path string) (*catalog.Result, error) {
	raw, err := catalog.LoadFile(path)
	if err != nil {
		return nil, err
	}
	im := &catalog.Importer{Store: c, Now: func() time.Time { return time.Now().UTC() }}
	return im.ImportRaw(ctx, raw)
}

// seedIfEmpty 只在目录为空时导入种子文件，目录已有数据时返回 nil。
func seedIfEmpty(ctx context.Context, c core.CatalogStore, path string) (*catalog.Result, error) {
	books, err := c.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	if len(books) > 0 {
		return nil, nil
	}
	return importFile(ctx, c, path)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
