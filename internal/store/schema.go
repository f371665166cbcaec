package store

import (
	"context"
	"database/sql"

	"github.com/llehouerou/aikta/internal/db"
)

const currentSchemaVersion = 1

// initSchema creates the kv table. Placeholders differ between drivers, so
// the version insert is passed in by the caller.
func initSchema(ctx context.Context, conn db.TxBeginner, insertVersion string) error {
	return db.WithTx(ctx, conn, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS schema_version (
				version INTEGER PRIMARY KEY
			)
		`)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS kv (
				k TEXT PRIMARY KEY,
				v TEXT NOT NULL
			)
		`)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, insertVersion, currentSchemaVersion)
		return err
	})
}
