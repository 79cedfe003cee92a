package personstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vortex-fintech/go-cadastro/person"
)

// query runs a persons LEFT JOIN addresses statement and folds the rows,
// which arrive grouped by person, into Person values.
func (s *Store) query(ctx context.Context, q string, args ...any) ([]person.Person, error) {
	rows, err := s.db.Runner().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("personstore: query: %w", err)
	}
	defer rows.Close()

	var out []person.Person
	for rows.Next() {
		var (
			p     person.Person
			ptype string
			a     nullAddress
		)
		if err := rows.Scan(
			&p.ID, &ptype, &p.Name, &p.CPF, &p.CompanyName, &p.CNPJ,
			&p.Phone, &p.Email, &p.CreatedAt, &p.Latitude, &p.Longitude, &p.DeviceName,
			&a.ID, &a.Type, &a.Street, &a.Number, &a.Complement,
			&a.Neighborhood, &a.ZipCode, &a.City, &a.State,
		); err != nil {
			return nil, fmt.Errorf("personstore: scan: %w", err)
		}

		if n := len(out); n == 0 || out[n-1].ID != p.ID {
			p.Type = person.ParsePersonType(ptype)
			p.CreatedAt = p.CreatedAt.UTC()
			p.Addresses = []person.Address{}
			out = append(out, p)
		}
		if a.ID.Valid {
			cur := &out[len(out)-1]
			cur.Addresses = append(cur.Addresses, a.address())
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("personstore: rows: %w", err)
	}
	if out == nil {
		out = []person.Person{}
	}
	return out, nil
}

// nullAddress receives the nullable side of the LEFT JOIN.
type nullAddress struct {
	ID, Type, Street, Number, Complement sql.NullString
	Neighborhood, ZipCode, City, State   sql.NullString
}

func (a nullAddress) address() person.Address {
	return person.Address{
		ID:           a.ID.String,
		Type:         person.ParseAddressType(a.Type.String),
		Street:       a.Street.String,
		Number:       a.Number.String,
		Complement:   a.Complement.String,
		Neighborhood: a.Neighborhood.String,
		ZipCode:      a.ZipCode.String,
		City:         a.City.String,
		State:        a.State.String,
	}
}
