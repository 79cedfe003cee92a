package personstore

import (
	"context"
	"fmt"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
)

// Schema creates the persons/addresses tables. Addresses belong to exactly
// one person and go away with it. CPF/CNPJ carry no unique constraint: the
// same document may be registered more than once.
const Schema = `
CREATE TABLE IF NOT EXISTS persons (
	id           TEXT PRIMARY KEY,
	person_type  TEXT NOT NULL,
	name         TEXT NOT NULL DEFAULT '',
	cpf          TEXT NOT NULL DEFAULT '',
	company_name TEXT NOT NULL DEFAULT '',
	cnpj         TEXT NOT NULL DEFAULT '',
	phone_number TEXT NOT NULL DEFAULT '',
	email        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	latitude     DOUBLE PRECISION NOT NULL DEFAULT 0,
	longitude    DOUBLE PRECISION NOT NULL DEFAULT 0,
	device_name  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS persons_name_idx ON persons (name);

CREATE TABLE IF NOT EXISTS addresses (
	id           TEXT PRIMARY KEY,
	person_id    TEXT NOT NULL REFERENCES persons (id) ON DELETE CASCADE,
	position     INTEGER NOT NULL,
	address_type TEXT NOT NULL,
	street       TEXT NOT NULL DEFAULT '',
	number       TEXT NOT NULL DEFAULT '',
	complement   TEXT NOT NULL DEFAULT '',
	neighborhood TEXT NOT NULL DEFAULT '',
	zip_code     TEXT NOT NULL DEFAULT '',
	city         TEXT NOT NULL DEFAULT '',
	state        TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS addresses_person_idx ON addresses (person_id, position);
`

// EnsureSchema applies Schema. It is idempotent.
func EnsureSchema(ctx context.Context, run postgres.Runner) error {
	if _, err := run.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("personstore: ensure schema: %w", err)
	}
	return nil
}
