package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"snd_media/server/catalog/domain"
	commonlog "snd_media/server/common/log"
)

// Loader yields the full movie catalog.
type Loader interface {
	Load(ctx context.Context) ([]domain.Movie, error)
}

func decodeCatalog(raw []byte, source string) ([]domain.Movie, error) {
	var catalog domain.Catalog
	if err := json.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("decode catalog from %s: %w", source, err)
	}
	return catalog, nil
}

type FileLoader struct {
	Path string
}

func (l FileLoader) Load(_ context.Context) ([]domain.Movie, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			commonlog.Warnf("catalog file %s not found; using empty list", l.Path)
			return []domain.Movie{}, nil
		}
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return decodeCatalog(raw, l.Path)
}

// RedisLoader reads a catalog stored as one JSON document under Key.
type RedisLoader struct {
	Client *redis.Client
	Key    string
}

func (l RedisLoader) Load(ctx context.Context) ([]domain.Movie, error) {
	raw, err := l.Client.Get(ctx, l.Key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			commonlog.Warnf("catalog key %s not found in redis; using empty list", l.Key)
			return []domain.Movie{}, nil
		}
		return nil, fmt.Errorf("get catalog key %s: %w", l.Key, err)
	}
	return decodeCatalog(raw, "redis key "+l.Key)
}

// Querier is the subset of *pgxpool.Pool the postgres loader needs.
type Querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

const DefaultMoviesTable = "movies"

type PostgresLoader struct {
	DB    Querier
	Table string
}

func (l PostgresLoader) Load(ctx context.Context) ([]domain.Movie, error) {
	rows, err := l.DB.Query(ctx, l.query())
	if err != nil {
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	defer rows.Close()

	movies := []domain.Movie{}
	for rows.Next() {
		var (
			m                              domain.Movie
			id, year, genre, rating, votes string
		)
		if err := rows.Scan(&id, &m.Slug, &m.Title, &year, &m.OriginalTitle, &m.Description,
			&genre, &m.Poster, &rating, &votes); err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		m.ID = domain.FlexString(id)
		m.Year = domain.FlexString(year)
		m.Genre = domain.FlexString(genre)
		m.Rating = domain.FlexString(rating)
		m.SndVotes = domain.FlexString(votes)
		movies = append(movies, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalog rows: %w", err)
	}
	return movies, nil
}

func (l PostgresLoader) query() string {
	table := strings.TrimSpace(l.Table)
	if table == "" {
		table = DefaultMoviesTable
	}
	ident := pgx.Identifier(strings.Split(table, ".")).Sanitize()
	return `
		SELECT COALESCE(id::text, ''), COALESCE(slug, ''), COALESCE(title, ''), COALESCE(year::text, ''),
		       COALESCE(original_title, ''), COALESCE(description, ''), COALESCE(genre, ''),
		       COALESCE(poster, ''), COALESCE(rating::text, ''), COALESCE(snd_votes::text, '')
		FROM ` + ident + `
		ORDER BY title`
}
