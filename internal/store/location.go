package store

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// Location is an immutable dimension row. The natural key is the full
// tuple; a nil latitude/longitude/fips matches another nil in the same
// position (null-equal semantics, unlike plain SQL equality).
type Location struct {
	City      string
	State     string
	ZipCode   string
	Latitude  *float64
	Longitude *float64
	FipsCode  *string
}

// Key returns a map key under which equal tuples (nulls included)
// collide. Fields are tab-separated; nulls get a marker no real value
// produces.
func (l Location) Key() string {
	var b strings.Builder
	b.WriteString(l.City)
	b.WriteByte('\t')
	b.WriteString(l.State)
	b.WriteByte('\t')
	b.WriteString(l.ZipCode)
	b.WriteByte('\t')
	writeOptFloat(&b, l.Latitude)
	b.WriteByte('\t')
	writeOptFloat(&b, l.Longitude)
	b.WriteByte('\t')
	if l.FipsCode != nil {
		b.WriteString(*l.FipsCode)
	} else {
		b.WriteString("\x00")
	}
	return b.String()
}

func writeOptFloat(b *strings.Builder, f *float64) {
	if f == nil {
		b.WriteString("\x00")
		return
	}
	b.WriteString(strconv.FormatFloat(*f, 'f', -1, 64))
}

// DedupLocations collapses a batch to one entry per natural-key tuple,
// preserving first-seen order. A single load must not attempt to insert
// the same tuple twice.
func DedupLocations(locs []Location) []Location {
	seen := make(map[string]struct{}, len(locs))
	out := locs[:0:0]
	for _, l := range locs {
		k := l.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, l)
	}
	return out
}

// locationColumns decomposes a batch into parallel arrays for unnest.
func locationColumns(locs []Location) (cities, states, zips []string, lats, lons []*float64, fips []*string) {
	cities = make([]string, len(locs))
	states = make([]string, len(locs))
	zips = make([]string, len(locs))
	lats = make([]*float64, len(locs))
	lons = make([]*float64, len(locs))
	fips = make([]*string, len(locs))
	for i, l := range locs {
		cities[i] = l.City
		states[i] = l.State
		zips[i] = l.ZipCode
		lats[i] = l.Latitude
		lons[i] = l.Longitude
		fips[i] = l.FipsCode
	}
	return
}

// ReserveLocations bulk-inserts the distinct tuples of the batch with
// conflict-skip semantics and returns the number of rows actually
// inserted. Non-atomic with ResolveLocations; single writer only.
func (s *Store) ReserveLocations(ctx context.Context, locs []Location) (int64, error) {
	locs = DedupLocations(locs)
	if len(locs) == 0 {
		return 0, nil
	}

	cities, states, zips, lats, lons, fips := locationColumns(locs)

	tag, err := s.db.Exec(ctx, `
		INSERT INTO location (city, state, zip_code, latitude, longitude, fips_code)
		SELECT * FROM unnest(
			$1::text[], $2::text[], $3::text[],
			$4::float8[], $5::float8[], $6::text[])
		ON CONFLICT (city, state, zip_code,
			COALESCE(latitude, '-999999'::double precision),
			COALESCE(longitude, '-999999'::double precision),
			COALESCE(fips_code, ''))
		DO NOTHING`,
		cities, states, zips, lats, lons, fips)
	if err != nil {
		return 0, fmt.Errorf("reserve locations: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ResolveLocations re-queries every tuple of the batch and returns the
// identifier per natural key, including tuples skipped as duplicates by
// ReserveLocations and ones that existed before this load. NULLs match
// through IS NOT DISTINCT FROM.
func (s *Store) ResolveLocations(ctx context.Context, locs []Location) (map[string]int32, error) {
	locs = DedupLocations(locs)
	if len(locs) == 0 {
		return map[string]int32{}, nil
	}

	cities, states, zips, lats, lons, fips := locationColumns(locs)

	rows, err := s.db.Query(ctx, `
		SELECT l.id, u.city, u.state, u.zip_code, u.latitude, u.longitude, u.fips_code
		FROM unnest(
			$1::text[], $2::text[], $3::text[],
			$4::float8[], $5::float8[], $6::text[])
			AS u(city, state, zip_code, latitude, longitude, fips_code)
		JOIN location l
			ON l.city = u.city
			AND l.state = u.state
			AND l.zip_code = u.zip_code
			AND l.latitude IS NOT DISTINCT FROM u.latitude
			AND l.longitude IS NOT DISTINCT FROM u.longitude
			AND l.fips_code IS NOT DISTINCT FROM u.fips_code`,
		cities, states, zips, lats, lons, fips)
	if err != nil {
		return nil, fmt.Errorf("resolve locations: %w", err)
	}
	defer rows.Close()

	ids := make(map[string]int32, len(locs))
	for rows.Next() {
		var id int32
		var l Location
		if err := rows.Scan(&id, &l.City, &l.State, &l.ZipCode, &l.Latitude, &l.Longitude, &l.FipsCode); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		ids[l.Key()] = id
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("resolve locations: %w", err)
	}

	return ids, nil
}

// CountLocations returns the location row count.
func (s *Store) CountLocations(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM location`).Scan(&n)
	return n, err
}
