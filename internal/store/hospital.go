package store

import (
	"context"
	"fmt"
)

// Hospital is registered once per facility identifier. Later loads never
// update the name or location; drift in subsequent extracts is ignored.
type Hospital struct {
	PK         string
	Name       string
	LocationID *int32
}

// InsertHospitals bulk-inserts with insert-if-absent semantics on the
// facility identifier. The batch must not repeat a hospital_pk.
func (s *Store) InsertHospitals(ctx context.Context, hospitals []Hospital) (int64, error) {
	if len(hospitals) == 0 {
		return 0, nil
	}

	pks := make([]string, len(hospitals))
	names := make([]string, len(hospitals))
	locationIDs := make([]*int32, len(hospitals))
	for i, h := range hospitals {
		pks[i] = h.PK
		names[i] = h.Name
		locationIDs[i] = h.LocationID
	}

	tag, err := s.db.Exec(ctx, `
		INSERT INTO hospital (hospital_pk, hospital_name, location_id)
		SELECT * FROM unnest($1::text[], $2::text[], $3::int[])
		ON CONFLICT (hospital_pk) DO NOTHING`,
		pks, names, locationIDs)
	if err != nil {
		return 0, fmt.Errorf("insert hospitals: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ExistingHospitals reports which of the given facility identifiers are
// already registered.
func (s *Store) ExistingHospitals(ctx context.Context, pks []string) (map[string]bool, error) {
	if len(pks) == 0 {
		return map[string]bool{}, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT hospital_pk FROM hospital WHERE hospital_pk = ANY($1)`, pks)
	if err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]bool, len(pks))
	for rows.Next() {
		var pk string
		if err := rows.Scan(&pk); err != nil {
			return nil, fmt.Errorf("scan hospital_pk: %w", err)
		}
		existing[pk] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("query hospitals: %w", err)
	}

	return existing, nil
}

// HospitalExists checks a single facility identifier.
func (s *Store) HospitalExists(ctx context.Context, pk string) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM hospital WHERE hospital_pk = $1)`, pk).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check hospital %s: %w", pk, err)
	}
	return exists, nil
}

// CountHospitals returns the hospital row count.
func (s *Store) CountHospitals(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM hospital`).Scan(&n)
	return n, err
}
