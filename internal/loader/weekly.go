// Package loader runs the two batch pipelines: the primary weekly
// capacity load and the quality-rating load. Both are strictly
// sequential, single-writer, and drive all database work through
// explicit transactions.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/markmk/hospital-data-pipeline/internal/extract"
	"github.com/markmk/hospital-data-pipeline/internal/normalize"
	"github.com/markmk/hospital-data-pipeline/internal/store"
)

const (
	pgFKViolation = "23503"
	progressEvery = 100
)

// RejectedRow records one input row dropped by normalization. Rejections
// are reported in the load summary instead of aborting the batch.
type RejectedRow struct {
	Row        int64
	HospitalPK string
	Reason     string
}

// WeeklyResult summarizes one weekly capacity load.
type WeeklyResult struct {
	RowsRead          int64
	Duplicates        int64
	Rejected          []RejectedRow
	LocationsInserted int64
	HospitalsInserted int64
	FactsInserted     int64
	Unresolved        int64
}

// Weekly loads a weekly capacity extract in a single transaction:
// normalize, resolve locations, register hospitals, then COPY facts.
// Commit happens only at the very end.
type Weekly struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewWeekly(pool *pgxpool.Pool, log zerolog.Logger) *Weekly {
	return &Weekly{pool: pool, log: log}
}

// weeklyRecord is one fully normalized extract row.
type weeklyRecord struct {
	pk       string
	name     string
	location store.Location
	report   store.WeeklyReport
}

func (l *Weekly) Load(ctx context.Context, path string) (*WeeklyResult, error) {
	start := time.Now()

	reader, err := extract.NewWeeklyReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	// Normalize the whole batch before any database work so that
	// input-format errors abort with nothing touched.
	records, result, err := l.parse(reader)
	if err != nil {
		return nil, err
	}

	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st := store.New(tx)

	locations := make([]store.Location, len(records))
	for i, rec := range records {
		locations[i] = rec.location
	}

	result.LocationsInserted, err = st.ReserveLocations(ctx, locations)
	if err != nil {
		return nil, err
	}
	locationIDs, err := st.ResolveLocations(ctx, locations)
	if err != nil {
		return nil, err
	}

	hospitals := make([]store.Hospital, len(records))
	pks := make([]string, len(records))
	for i, rec := range records {
		h := store.Hospital{PK: rec.pk, Name: rec.name}
		if id, ok := locationIDs[rec.location.Key()]; ok {
			locID := id
			h.LocationID = &locID
		}
		hospitals[i] = h
		pks[i] = rec.pk
	}

	result.HospitalsInserted, err = st.InsertHospitals(ctx, hospitals)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgFKViolation {
			l.log.Error().Err(err).Msg("hospital references missing location, rolling back")
		}
		return nil, err
	}

	// Facts may only reference registered hospitals; everything else is
	// excluded from the COPY batch rather than inserted dangling.
	existing, err := st.ExistingHospitals(ctx, pks)
	if err != nil {
		return nil, err
	}

	facts := make([]store.WeeklyReport, 0, len(records))
	for _, rec := range records {
		if !existing[rec.pk] {
			result.Unresolved++
			continue
		}
		facts = append(facts, rec.report)
	}

	result.FactsInserted, err = st.InsertWeeklyReports(ctx, facts)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	for _, rej := range result.Rejected {
		l.log.Warn().
			Int64("row", rej.Row).
			Str("hospital_pk", rej.HospitalPK).
			Str("reason", rej.Reason).
			Msg("rejected row")
	}
	l.log.Info().
		Int64("rows_read", result.RowsRead).
		Int64("duplicates", result.Duplicates).
		Int("rejected", len(result.Rejected)).
		Int64("locations_inserted", result.LocationsInserted).
		Int64("hospitals_inserted", result.HospitalsInserted).
		Int64("facts_inserted", result.FactsInserted).
		Int64("unresolved", result.Unresolved).
		Dur("elapsed", time.Since(start)).
		Msg("weekly load complete")

	return result, nil
}

// parse reads and normalizes every extract row. A malformed collection
// week is fatal (load-critical); field-level failures reject the row.
// The batch is deduplicated by facility identifier, keeping the first
// occurrence.
func (l *Weekly) parse(reader *extract.WeeklyReader) ([]weeklyRecord, *WeeklyResult, error) {
	result := &WeeklyResult{}
	var records []weeklyRecord
	seen := make(map[string]bool)

	for {
		raw, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", reader.RowNum(), err)
		}
		result.RowsRead++
		if result.RowsRead%progressEvery == 0 {
			l.log.Debug().Int64("rows", result.RowsRead).Msg("parsing")
		}

		if raw.HospitalPK == "" {
			result.Rejected = append(result.Rejected, RejectedRow{
				Row: reader.RowNum(), Reason: "missing facility identifier",
			})
			continue
		}

		week, err := normalize.Date(raw.CollectionWeek)
		if err != nil {
			return nil, nil, fmt.Errorf("row %d: %w", reader.RowNum(), err)
		}

		rec, err := buildWeeklyRecord(raw, week)
		if err != nil {
			result.Rejected = append(result.Rejected, RejectedRow{
				Row: reader.RowNum(), HospitalPK: raw.HospitalPK, Reason: err.Error(),
			})
			continue
		}

		if seen[rec.pk] {
			result.Duplicates++
			continue
		}
		seen[rec.pk] = true
		records = append(records, rec)
	}

	return records, result, nil
}

func buildWeeklyRecord(raw *extract.WeeklyRow, week time.Time) (weeklyRecord, error) {
	lon, lat, err := normalize.GeoPoint(raw.GeocodedAddr)
	if err != nil {
		return weeklyRecord{}, err
	}

	report := store.WeeklyReport{
		HospitalPK:     raw.HospitalPK,
		CollectionWeek: week,
	}
	for _, m := range []struct {
		raw  string
		dest **float64
	}{
		{raw.AllAdultBeds, &report.AllAdultBeds},
		{raw.AllPediatricBeds, &report.AllPediatricBeds},
		{raw.AdultBedsOccupied, &report.AdultBedsOccupied},
		{raw.PediatricBedsOccupied, &report.PediatricBedsOccupied},
		{raw.TotalICUBeds, &report.TotalICUBeds},
		{raw.ICUBedsUsed, &report.ICUBedsUsed},
		{raw.InpatientBedsUsedCOVID, &report.InpatientBedsUsedCOVID},
		{raw.StaffedICUAdultCOVID, &report.StaffedICUAdultCOVID},
		{raw.AdultHospitalizedCOVID, &report.AdultHospitalizedCOVID},
	} {
		v, err := normalize.Float(m.raw)
		if err != nil {
			return weeklyRecord{}, err
		}
		*m.dest = v
	}

	return weeklyRecord{
		pk:   raw.HospitalPK,
		name: raw.HospitalName,
		location: store.Location{
			City:      raw.City,
			State:     raw.State,
			ZipCode:   raw.Zip,
			Latitude:  lat,
			Longitude: lon,
			FipsCode:  normalize.String(raw.FipsCode),
		},
		report: report,
	}, nil
}
