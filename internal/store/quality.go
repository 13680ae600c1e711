package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// QualityRating is one quality fact row per (facility, rating date).
// Ratings accumulate as a time series and are never corrected in place;
// the current rating is derived at query time as the most recent
// rating_date per facility.
type QualityRating struct {
	FacilityID        string
	Rating            *int32
	RatingDate        time.Time
	Ownership         *string
	HospitalType      *string
	EmergencyServices bool
}

var qualityColumns = []string{
	"facility_id",
	"quality_rating",
	"rating_date",
	"ownership",
	"hospital_type",
	"provides_emergency_services",
}

// InsertQualityRatings appends fact rows via COPY. Append-only: the same
// (facility, rating_date) may legitimately repeat across files.
func (s *Store) InsertQualityRatings(ctx context.Context, ratings []QualityRating) (int64, error) {
	if len(ratings) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(ratings))
	for i, r := range ratings {
		rows[i] = []any{
			r.FacilityID,
			r.Rating,
			r.RatingDate,
			r.Ownership,
			r.HospitalType,
			r.EmergencyServices,
		}
	}

	copied, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"hospital_quality"},
		qualityColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy hospital_quality: %w", err)
	}

	return copied, nil
}

// CountQualityRatings returns the hospital_quality row count.
func (s *Store) CountQualityRatings(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM hospital_quality`).Scan(&n)
	return n, err
}
