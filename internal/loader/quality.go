package loader

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/markmk/hospital-data-pipeline/internal/extract"
	"github.com/markmk/hospital-data-pipeline/internal/normalize"
	"github.com/markmk/hospital-data-pipeline/internal/store"
)

// QualityResult summarizes one quality-rating load.
type QualityResult struct {
	RowsRead            int64
	HospitalsBackfilled int64
	LocationsBackfilled int64
	FactsInserted       int64
}

// Quality loads a quality extract in two phases. Phase one registers any
// facility the hospital table has never seen, from the weaker data this
// source carries (city/state/zip only, no coordinates), and commits.
// Phase two appends all rating facts in a second transaction. A failure
// between the phases leaves the backfilled hospitals persisted while no
// facts land; that partial-success boundary is deliberate.
type Quality struct {
	pool *pgxpool.Pool
	log  zerolog.Logger
}

func NewQuality(pool *pgxpool.Pool, log zerolog.Logger) *Quality {
	return &Quality{pool: pool, log: log}
}

// qualityRecord is one fully normalized extract row.
type qualityRecord struct {
	row      int64
	name     string
	location store.Location
	rating   store.QualityRating
}

func (l *Quality) Load(ctx context.Context, ratingDate time.Time, path string) (*QualityResult, error) {
	start := time.Now()

	reader, err := extract.NewQualityReader(path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	records, result, err := l.parse(reader, ratingDate)
	if err != nil {
		return nil, err
	}

	if err := l.backfill(ctx, records, result); err != nil {
		return nil, err
	}

	if err := l.insertFacts(ctx, records, result); err != nil {
		// Phase one already committed; the backfilled hospitals stay.
		if result.HospitalsBackfilled > 0 {
			l.log.Warn().
				Int64("hospitals_backfilled", result.HospitalsBackfilled).
				Msg("rating insert failed after hospital backfill was committed")
		}
		return nil, err
	}

	l.log.Info().
		Int64("rows_read", result.RowsRead).
		Int64("hospitals_backfilled", result.HospitalsBackfilled).
		Int64("locations_backfilled", result.LocationsBackfilled).
		Int64("facts_inserted", result.FactsInserted).
		Dur("elapsed", time.Since(start)).
		Msg("quality load complete")

	return result, nil
}

func (l *Quality) parse(reader *extract.QualityReader, ratingDate time.Time) ([]qualityRecord, *QualityResult, error) {
	result := &QualityResult{}
	var records []qualityRecord

	for {
		raw, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("read row %d: %w", reader.RowNum(), err)
		}
		result.RowsRead++

		if raw.FacilityID == "" {
			// First bad row aborts the file: this pipeline has no
			// per-row isolation, matching its stricter failure policy.
			return nil, nil, fmt.Errorf("row %d: missing Facility ID", reader.RowNum())
		}

		records = append(records, qualityRecord{
			row:  reader.RowNum(),
			name: raw.FacilityName,
			location: store.Location{
				City:    raw.City,
				State:   raw.State,
				ZipCode: raw.ZipCode,
			},
			rating: store.QualityRating{
				FacilityID:        raw.FacilityID,
				Rating:            normalize.Rating(raw.OverallRating),
				RatingDate:        ratingDate,
				Ownership:         normalize.String(raw.Ownership),
				HospitalType:      normalize.String(raw.HospitalType),
				EmergencyServices: normalize.YesNo(raw.EmergencyServices),
			},
		})
	}

	return records, result, nil
}

// backfill is phase one: register every facility this database has never
// seen, then commit so phase two (and any operator inspecting mid-run)
// observes them.
func (l *Quality) backfill(ctx context.Context, records []qualityRecord, result *QualityResult) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin backfill tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st := store.New(tx)
	known := make(map[string]bool)

	var processed int64
	for _, rec := range records {
		processed++
		if processed%progressEvery == 0 {
			l.log.Info().Int64("rows", processed).Msg("processed")
		}

		pk := rec.rating.FacilityID
		if known[pk] {
			continue
		}

		exists, err := st.HospitalExists(ctx, pk)
		if err != nil {
			return l.failRow(rec, err)
		}
		if exists {
			known[pk] = true
			continue
		}

		inserted, err := st.ReserveLocations(ctx, []store.Location{rec.location})
		if err != nil {
			return l.failRow(rec, err)
		}
		result.LocationsBackfilled += inserted

		ids, err := st.ResolveLocations(ctx, []store.Location{rec.location})
		if err != nil {
			return l.failRow(rec, err)
		}

		h := store.Hospital{PK: pk, Name: rec.name}
		if id, ok := ids[rec.location.Key()]; ok {
			locID := id
			h.LocationID = &locID
		}
		n, err := st.InsertHospitals(ctx, []store.Hospital{h})
		if err != nil {
			return l.failRow(rec, err)
		}
		result.HospitalsBackfilled += n
		known[pk] = true
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit backfill: %w", err)
	}
	return nil
}

// insertFacts is phase two: append every rating fact in one transaction.
func (l *Quality) insertFacts(ctx context.Context, records []qualityRecord, result *QualityResult) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin facts tx: %w", err)
	}
	defer tx.Rollback(ctx)

	st := store.New(tx)

	ratings := make([]store.QualityRating, len(records))
	for i, rec := range records {
		ratings[i] = rec.rating
	}

	result.FactsInserted, err = st.InsertQualityRatings(ctx, ratings)
	if err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit facts: %w", err)
	}
	return nil
}

// failRow logs the offending row before re-raising, so the operator sees
// exactly which record killed the file.
func (l *Quality) failRow(rec qualityRecord, err error) error {
	l.log.Error().
		Int64("row", rec.row).
		Str("facility_id", rec.rating.FacilityID).
		Str("facility_name", rec.name).
		Err(err).
		Msg("error processing row")
	return fmt.Errorf("row %d (facility %s): %w", rec.row, rec.rating.FacilityID, err)
}
