package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rushteam/bookrec/core"
)

// CREATE TABLE genres (
//     id    BIGINT GENERATED BY DEFAULT AS IDENTITY PRIMARY KEY,
//     name  TEXT NOT NULL UNIQUE
// );

type GenreRecord struct {
	ID   uint64 `gorm:"primaryKey;column:id;autoIncrement"`
	Name string `gorm:"column:name;type:text;not null;uniqueIndex"`
}

func (GenreRecord) TableName() string {
	return "genres"
}

// BookRecord 对应 books 表。GenreID 是主类别（第一个类别），完整类别列表在 book_genres。
type BookRecord struct {
	ID        string        `gorm:"primaryKey;column:id;type:text"`
	ISBN      string        `gorm:"column:isbn;type:text;index"`
	Title     string        `gorm:"column:title;type:text;not null"`
	Author    string        `gorm:"column:author;type:text"`
	GenreID   *uint64       `gorm:"column:genre_id"`
	Genres    []GenreRecord `gorm:"many2many:book_genres;joinForeignKey:BookID;joinReferences:GenreID"`
	Synopsis  string        `gorm:"column:synopsis;type:text"`
	CoverImg  string        `gorm:"column:cover_img;type:text"`
	Penerbit  string        `gorm:"column:penerbit;type:text"`
	ViewCount int64         `gorm:"column:view_count;not null;default:0"`
	CreatedAt time.Time     `gorm:"column:created_at"`
}

func (BookRecord) TableName() string {
	return "books"
}

// BookViewRecord 对应 book_views 表，每个 (user, book) 一行。
type BookViewRecord struct {
	UserID       string    `gorm:"primaryKey;column:user_id;type:text"`
	BookID       string    `gorm:"primaryKey;column:book_id;type:text"`
	ViewCount    int64     `gorm:"column:view_count;not null;default:0"`
	LastViewedAt time.Time `gorm:"column:last_viewed_at"`
}

func (BookViewRecord) TableName() string {
	return "book_views"
}

// PostgresCatalog 基于 gorm 的目录与浏览历史存储。
// 热度 = books.view_count。
type PostgresCatalog struct {
	DB *gorm.DB
}

var (
	_ core.CatalogStore = (*PostgresCatalog)(nil)
	_ core.HistoryStore = (*PostgresCatalog)(nil)
)

// OpenPostgres 打开连接；migrate 为 true 时自动建表。
func OpenPostgres(ctx context.Context, dsn string, migrate bool) (*PostgresCatalog, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}
	c := NewPostgresCatalog(db)
	if migrate {
		if err := c.Migrate(ctx); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func NewPostgresCatalog(db *gorm.DB) *PostgresCatalog {
	return &PostgresCatalog{DB: db}
}

func (c *PostgresCatalog) Name() string { return "postgres" }

// Migrate 创建/更新表结构。
func (c *PostgresCatalog) Migrate(ctx context.Context) error {
	if err := c.DB.WithContext(ctx).AutoMigrate(&GenreRecord{}, &BookRecord{}, &BookViewRecord{}); err != nil {
		return fmt.Errorf("failed to migrate: %w", err)
	}
	return nil
}

// Close 关闭底层连接池。
func (c *PostgresCatalog) Close() error {
	sqlDB, err := c.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (c *PostgresCatalog) ListBooks(ctx context.Context) ([]core.Book, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var records []BookRecord
	err := c.DB.WithContext(ctx).
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.id ASC") }).
		Order("created_at ASC, id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}

	books := make([]core.Book, 0, len(records))
	for i := range records {
		books = append(books, recordToBook(&records[i]))
	}
	return books, nil
}

func (c *PostgresCatalog) GetBook(ctx context.Context, id string) (core.Book, error) {
	if err := ctx.Err(); err != nil {
		return core.Book{}, fmt.Errorf("context error: %w", err)
	}

	var record BookRecord
	err := c.DB.WithContext(ctx).
		Preload("Genres", func(db *gorm.DB) *gorm.DB { return db.Order("genres.id ASC") }).
		First(&record, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.Book{}, fmt.Errorf("%w: %s", core.ErrBookNotFound, id)
		}
		return core.Book{}, fmt.Errorf("failed to find book: %w", err)
	}
	return recordToBook(&record), nil
}

// bookUpsertColumns 是重新导入时覆盖的列。
// view_count 由 RecordView 累计，created_at 保持首次导入时间，都不在其中。
var bookUpsertColumns = []string{
	"isbn", "title", "author", "genre_id", "synopsis",
	"cover_img", "penerbit",
}

// PutBooks 在一个事务内写入书籍：类别按名称 upsert，书籍按 id upsert，
// 并重建 book_genres 关联。
func (c *PostgresCatalog) PutBooks(ctx context.Context, books []core.Book) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}

	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		genreIDs := make(map[string]uint64)
		for _, b := range books {
			if b.ID == "" {
				return fmt.Errorf("%w: missing id (title %q)", core.ErrInvalidBook, b.Title)
			}
			for _, name := range b.NormalizedGenres() {
				if _, ok := genreIDs[name]; ok {
					continue
				}
				g := GenreRecord{Name: name}
				err := tx.Clauses(clause.OnConflict{
					Columns:   []clause.Column{{Name: "name"}},
					DoUpdates: clause.AssignmentColumns([]string{"name"}),
				}).Create(&g).Error
				if err != nil {
					return fmt.Errorf("failed to upsert genre %q: %w", name, err)
				}
				genreIDs[name] = g.ID
			}
		}

		for _, b := range books {
			record := bookToRecord(b, genreIDs)
			genres := record.Genres
			record.Genres = nil

			err := tx.Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns(bookUpsertColumns),
			}).Omit(clause.Associations).Create(&record).Error
			if err != nil {
				return fmt.Errorf("failed to upsert book %s: %w", b.ID, err)
			}
			if err := tx.Model(&record).Association("Genres").Replace(genres); err != nil {
				return fmt.Errorf("failed to link genres for %s: %w", b.ID, err)
			}
		}
		return nil
	})
}

func (c *PostgresCatalog) ListViews(ctx context.Context, userID string) ([]core.View, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context error: %w", err)
	}

	var records []BookViewRecord
	err := c.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_viewed_at DESC, book_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list views: %w", err)
	}

	views := make([]core.View, 0, len(records))
	for _, r := range records {
		views = append(views, core.View{
			UserID:       r.UserID,
			BookID:       r.BookID,
			Count:        r.ViewCount,
			LastViewedAt: r.LastViewedAt,
		})
	}
	return views, nil
}

// RecordView 记录一次浏览并给 books.view_count +1（同一事务）。
func (c *PostgresCatalog) RecordView(ctx context.Context, userID, bookID string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context error: %w", err)
	}
	if userID == "" {
		return core.NewDomainError(core.ModuleHistory, core.ErrorCodeInvalidInput, "history: missing user id")
	}

	return c.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&BookRecord{}).
			Where("id = ?", bookID).
			UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to update view count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", core.ErrBookNotFound, bookID)
		}

		view := BookViewRecord{UserID: userID, BookID: bookID, ViewCount: 1, LastViewedAt: at.UTC()}
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "book_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"view_count":     gorm.Expr("book_views.view_count + 1"),
				"last_viewed_at": at.UTC(),
			}),
		}).Create(&view).Error
		if err != nil {
			return fmt.Errorf("failed to record view: %w", err)
		}
		return nil
	})
}

func bookToRecord(b core.Book, genreIDs map[string]uint64) BookRecord {
	r := BookRecord{
		ID:        b.ID,
		ISBN:      b.ISBN,
		Title:     b.Title,
		Author:    b.Author,
		Synopsis:  b.Synopsis,
		CoverImg:  b.CoverURL,
		Penerbit:  b.Publisher,
		ViewCount: b.Popularity,
		CreatedAt: b.CreatedAt,
	}
	for _, name := range b.NormalizedGenres() {
		id, ok := genreIDs[name]
		if !ok {
			continue
		}
		if r.GenreID == nil {
			gid := id
			r.GenreID = &gid
		}
		r.Genres = append(r.Genres, GenreRecord{ID: id, Name: name})
	}
	return r
}

func recordToBook(r *BookRecord) core.Book {
	b := core.Book{
		ID:         r.ID,
		ISBN:       r.ISBN,
		Title:      r.Title,
		Author:     r.Author,
		Synopsis:   r.Synopsis,
		Publisher:  r.Penerbit,
		CoverURL:   r.CoverImg,
		Popularity: r.ViewCount,
		CreatedAt:  r.CreatedAt,
	}
	// 主类别排在第一位，其余按 id 顺序
	if r.GenreID != nil {
		for _, g := range r.Genres {
			if g.ID == *r.GenreID {
				b.Genres = append(b.Genres, g.Name)
			}
		}
	}
	for _, g := range r.Genres {
		if r.GenreID != nil && g.ID == *r.GenreID {
			continue
		}
		b.Genres = append(b.Genres, g.Name)
	}
	return b
}
