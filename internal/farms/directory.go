package farms

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

// Directory is the read-only view of the relational farm listing. The photo
// pipeline validates farm ids against it and never writes to it.
type Directory struct {
	db *sql.DB
}

func NewDirectory(connectionString string) (*Directory, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Directory{db: db}, nil
}

func (d *Directory) FarmExists(ctx context.Context, farmID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var one int
	err := d.db.QueryRowContext(ctx, `
		SELECT 1
		FROM farms
		WHERE id = $1
	`, farmID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up farm %s: %w", farmID, err)
	}

	return true, nil
}

func (d *Directory) FarmName(ctx context.Context, farmID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var name string
	err := d.db.QueryRowContext(ctx, `
		SELECT name
		FROM farms
		WHERE id = $1
	`, farmID).Scan(&name)
	if err != nil {
		return "", fmt.Errorf("failed to get farm %s: %w", farmID, err)
	}

	return name, nil
}

func (d *Directory) Close() error {
	return d.db.Close()
}
