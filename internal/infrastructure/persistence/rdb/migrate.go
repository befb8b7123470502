package rdb

import (
	"context"
	"embed"
	"fmt"
	"strings"

	"library-desk/internal/infrastructure/config"
)

//go:embed schema/*.sql
var schemaFS embed.FS

// Migrate ドライバーに対応するスキーマを適用する（CREATE ... IF NOT EXISTS のみ）
func (db *DB) Migrate(ctx context.Context) error {
	file := "schema/mysql.sql"
	if db.driver == config.DriverSQLite {
		file = "schema/sqlite.sql"
	}

	data, err := schemaFS.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read schema: %w", err)
	}

	for _, stmt := range splitStatements(string(data)) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}

func splitStatements(script string) []string {
	var stmts []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			stmts = append(stmts, s)
		}
	}
	return stmts
}
