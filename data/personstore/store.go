// Package personstore is the local system of record for registrations,
// backed by Postgres.
package personstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/vortex-fintech/go-cadastro/data/postgres"
	"github.com/vortex-fintech/go-cadastro/foundation/idutil"
	"github.com/vortex-fintech/go-cadastro/person"
)

var (
	ErrNotFound  = errors.New("personstore: not found")
	ErrIDMissing = errors.New("personstore: id is required")
)

type Store struct {
	db *postgres.Client
}

func New(db *postgres.Client) *Store {
	return &Store{db: db}
}

const selectPersons = `
	SELECT
		p.id, p.person_type, p.name, p.cpf, p.company_name, p.cnpj,
		p.phone_number, p.email, p.created_at, p.latitude, p.longitude, p.device_name,
		a.id, a.address_type, a.street, a.number, a.complement,
		a.neighborhood, a.zip_code, a.city, a.state
	FROM persons p
	LEFT JOIN addresses a ON a.person_id = p.id`

const orderPersons = `
	ORDER BY p.name ASC, p.id ASC, a.position ASC`

// List returns every person ordered by name.
func (s *Store) List(ctx context.Context) ([]person.Person, error) {
	return s.query(ctx, selectPersons+orderPersons)
}

// Search matches q case-insensitively anywhere in the name or company name.
// An empty query lists everything.
func (s *Store) Search(ctx context.Context, q string) ([]person.Person, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return s.List(ctx)
	}
	return s.query(ctx, selectPersons+`
	WHERE p.name ILIKE $1 ESCAPE '\' OR p.company_name ILIKE $1 ESCAPE '\'`+orderPersons, "%"+escapeLike(q)+"%")
}

func (s *Store) Get(ctx context.Context, id string) (person.Person, error) {
	out, err := s.query(ctx, selectPersons+`
	WHERE p.id = $1`+orderPersons, id)
	if err != nil {
		return person.Person{}, err
	}
	if len(out) == 0 {
		return person.Person{}, ErrNotFound
	}
	return out[0], nil
}

// Save upserts p and replaces its address set in one transaction. Every
// column, created_at included, takes the value of p, so the row matches what
// the caller mirrors. Addresses without an ID get one; the stored person is
// returned.
func (s *Store) Save(ctx context.Context, p person.Person) (person.Person, error) {
	if strings.TrimSpace(p.ID) == "" {
		return person.Person{}, ErrIDMissing
	}
	p = p.Clone()
	for i := range p.Addresses {
		if p.Addresses[i].ID != "" {
			continue
		}
		id, err := idutil.New()
		if err != nil {
			return person.Person{}, err
		}
		p.Addresses[i].ID = id
	}

	err := s.db.WithTx(ctx, func(run postgres.Runner) error {
		_, err := run.ExecContext(ctx, `
			INSERT INTO persons (
				id, person_type, name, cpf, company_name, cnpj,
				phone_number, email, created_at, latitude, longitude, device_name
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (id) DO UPDATE SET
				person_type = EXCLUDED.person_type,
				name = EXCLUDED.name,
				cpf = EXCLUDED.cpf,
				company_name = EXCLUDED.company_name,
				cnpj = EXCLUDED.cnpj,
				phone_number = EXCLUDED.phone_number,
				email = EXCLUDED.email,
				created_at = EXCLUDED.created_at,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				device_name = EXCLUDED.device_name`,
			p.ID, string(p.Type), p.Name, p.CPF, p.CompanyName, p.CNPJ,
			p.Phone, p.Email, p.CreatedAt.UTC(), p.Latitude, p.Longitude, p.DeviceName,
		)
		if err != nil {
			return fmt.Errorf("upsert person: %w", err)
		}

		if _, err := run.ExecContext(ctx, `DELETE FROM addresses WHERE person_id = $1`, p.ID); err != nil {
			return fmt.Errorf("clear addresses: %w", err)
		}
		for i, a := range p.Addresses {
			if err := insertAddress(ctx, run, p.ID, i, a); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return person.Person{}, fmt.Errorf("personstore: save %s: %w", p.ID, err)
	}
	return p, nil
}

// AddAddress appends a to the person's address list.
func (s *Store) AddAddress(ctx context.Context, personID string, a person.Address) (person.Address, error) {
	if a.ID == "" {
		id, err := idutil.New()
		if err != nil {
			return person.Address{}, err
		}
		a.ID = id
	}
	if !a.Type.IsValid() {
		a.Type = person.Residential
	}

	_, err := s.db.Runner().ExecContext(ctx, `
		INSERT INTO addresses (
			id, person_id, position, address_type, street, number,
			complement, neighborhood, zip_code, city, state
		) VALUES (
			$1, $2,
			(SELECT COALESCE(MAX(position) + 1, 0) FROM addresses WHERE person_id = $2),
			$3, $4, $5, $6, $7, $8, $9, $10
		)`,
		a.ID, personID, string(a.Type), a.Street, a.Number,
		a.Complement, a.Neighborhood, a.ZipCode, a.City, a.State,
	)
	if postgres.IsForeignKeyViolation(err) {
		return person.Address{}, ErrNotFound
	}
	if err != nil {
		return person.Address{}, fmt.Errorf("personstore: add address: %w", err)
	}
	return a, nil
}

// UpdateAddress overwrites the address with a.ID owned by personID.
func (s *Store) UpdateAddress(ctx context.Context, personID string, a person.Address) error {
	if !a.Type.IsValid() {
		a.Type = person.Residential
	}
	res, err := s.db.Runner().ExecContext(ctx, `
		UPDATE addresses SET
			address_type = $3, street = $4, number = $5, complement = $6,
			neighborhood = $7, zip_code = $8, city = $9, state = $10
		WHERE id = $1 AND person_id = $2`,
		a.ID, personID, string(a.Type), a.Street, a.Number, a.Complement,
		a.Neighborhood, a.ZipCode, a.City, a.State,
	)
	if err != nil {
		return fmt.Errorf("personstore: update address: %w", err)
	}
	return requireAffected(res)
}

func (s *Store) RemoveAddress(ctx context.Context, personID, addressID string) error {
	res, err := s.db.Runner().ExecContext(ctx,
		`DELETE FROM addresses WHERE id = $1 AND person_id = $2`, addressID, personID)
	if err != nil {
		return fmt.Errorf("personstore: remove address: %w", err)
	}
	return requireAffected(res)
}

// Delete removes the person and, through the cascade, its addresses.
func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.db.Runner().ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("personstore: delete %s: %w", id, err)
	}
	return requireAffected(res)
}

// DeleteMany removes ids in one transaction and reports how many existed.
// Unknown ids are skipped.
func (s *Store) DeleteMany(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := s.db.WithTx(ctx, func(run postgres.Runner) error {
		for _, id := range ids {
			res, err := run.ExecContext(ctx, `DELETE FROM persons WHERE id = $1`, id)
			if err != nil {
				return fmt.Errorf("delete %s: %w", id, err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("personstore: delete many: %w", err)
	}
	return int(deleted), nil
}

func insertAddress(ctx context.Context, run postgres.Runner, personID string, pos int, a person.Address) error {
	if !a.Type.IsValid() {
		a.Type = person.Residential
	}
	_, err := run.ExecContext(ctx, `
		INSERT INTO addresses (
			id, person_id, position, address_type, street, number,
			complement, neighborhood, zip_code, city, state
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		a.ID, personID, pos, string(a.Type), a.Street, a.Number,
		a.Complement, a.Neighborhood, a.ZipCode, a.City, a.State,
	)
	if err != nil {
		return fmt.Errorf("insert address %s: %w", a.ID, err)
	}
	return nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
