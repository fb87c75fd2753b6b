package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/jmoiron/sqlx"
	"github.com/viant/afs"
	"github.com/viant/afs/file"

	"github.com/solatis/courier/internal/core/config"
	"github.com/solatis/courier/internal/core/db"
)

// resolveDBURL returns --db-url, falling back to CR_DATABASE_URL or the
// config file's database.url.
func resolveDBURL() (string, error) {
	if dbURL != "" {
		return dbURL, nil
	}
	cfg, err := config.LoadConfig(configFile)
	if err != nil {
		return "", fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.DatabaseURL == "" {
		return "", fmt.Errorf("--db-url required")
	}
	return cfg.DatabaseURL, nil
}

// openQueries opens the database and loads named queries. The caller closes
// the returned database.
func openQueries() (*sqlx.DB, *db.Queries, error) {
	url, err := resolveDBURL()
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Open(url)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	queries, err := db.LoadQueries(database)
	if err != nil {
		database.Close()
		return nil, nil, fmt.Errorf("failed to load queries: %w", err)
	}
	return database, queries, nil
}

// download reads a file by URL (local path, file://, s3://, gs://, mem://).
// "-" reads stdin.
func download(ctx context.Context, URL string, stdin io.Reader) ([]byte, error) {
	if URL == "-" {
		return io.ReadAll(stdin)
	}
	data, err := afs.New().DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", URL, err)
	}
	return data, nil
}

// upload writes data by URL. "-" writes stdout.
func upload(ctx context.Context, URL string, data []byte, stdout io.Writer) error {
	if URL == "-" {
		_, err := stdout.Write(data)
		return err
	}
	if err := afs.New().Upload(ctx, URL, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to write %s: %w", URL, err)
	}
	return nil
}
