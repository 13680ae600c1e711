// Package report is the read-only consumer of the loaded schema: the
// aggregate queries behind the weekly summary, parameterized by an as-of
// date, plus a plain-text renderer. One module serves every rendering
// target instead of one near-copy per output format.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/markmk/hospital-data-pipeline/internal/store"
)

type Reporter struct {
	db store.DBTX
}

func New(db store.DBTX) *Reporter {
	return &Reporter{db: db}
}

// RecordsSummary compares hospital counts of the most recent reporting
// week (as of the given date) against the week before.
type RecordsSummary struct {
	CollectionWeek    time.Time
	HospitalCount     int64
	PreviousWeekCount int64
	WeekDifference    int64
}

func (r *Reporter) RecordsSummary(ctx context.Context, asOf time.Time) (*RecordsSummary, error) {
	rows, err := r.db.Query(ctx, `
		WITH weekly_counts AS (
			SELECT collection_week,
			       COUNT(DISTINCT hospital_weekly_id) AS hospital_count
			FROM weekly_report
			GROUP BY collection_week
		), with_previous AS (
			SELECT collection_week,
			       hospital_count,
			       COALESCE(LAG(hospital_count) OVER (ORDER BY collection_week), 0) AS previous_week_count
			FROM weekly_counts
		)
		SELECT collection_week,
		       hospital_count,
		       previous_week_count,
		       hospital_count - previous_week_count AS week_difference
		FROM with_previous
		WHERE collection_week = (
			SELECT MAX(collection_week) FROM weekly_report WHERE collection_week <= $1
		)`, asOf)
	if err != nil {
		return nil, fmt.Errorf("records summary: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	var s RecordsSummary
	if err := rows.Scan(&s.CollectionWeek, &s.HospitalCount, &s.PreviousWeekCount, &s.WeekDifference); err != nil {
		return nil, fmt.Errorf("records summary: %w", err)
	}
	return &s, rows.Err()
}

// BedsSummaryRow aggregates capacity for one of the five most recent
// reporting weeks.
type BedsSummaryRow struct {
	CollectionWeek         time.Time
	AdultBedsAvailable     *float64
	PediatricBedsAvailable *float64
	AdultBedsOccupied      *float64
	PediatricBedsOccupied  *float64
	COVIDBedsUsed          *float64
}

func (r *Reporter) BedsSummary(ctx context.Context, asOf time.Time) ([]BedsSummaryRow, error) {
	rows, err := r.db.Query(ctx, `
		WITH recent_weeks AS (
			SELECT DISTINCT collection_week
			FROM weekly_report
			WHERE collection_week <= $1
			ORDER BY collection_week DESC
			LIMIT 5
		)
		SELECT wr.collection_week,
		       SUM(wr.all_adult_hospital_beds_7_day_avg) AS total_adult_beds_available,
		       SUM(wr.all_pediatric_inpatient_beds_7_day_avg) AS total_pediatric_beds_available,
		       SUM(wr.all_adult_hospital_inpatient_bed_occupied_7_day_avg) AS total_adult_beds_occupied,
		       SUM(wr.all_pediatric_inpatient_bed_occupied_7_day_avg) AS total_pediatric_beds_occupied,
		       SUM(wr.inpatient_beds_used_covid_7_day_avg) AS total_covid_beds_used
		FROM weekly_report wr
		JOIN recent_weeks rw ON wr.collection_week = rw.collection_week
		GROUP BY wr.collection_week
		ORDER BY wr.collection_week DESC`, asOf)
	if err != nil {
		return nil, fmt.Errorf("beds summary: %w", err)
	}
	defer rows.Close()

	var out []BedsSummaryRow
	for rows.Next() {
		var b BedsSummaryRow
		if err := rows.Scan(&b.CollectionWeek, &b.AdultBedsAvailable, &b.PediatricBedsAvailable,
			&b.AdultBedsOccupied, &b.PediatricBedsOccupied, &b.COVIDBedsUsed); err != nil {
			return nil, fmt.Errorf("beds summary: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// RatingUtilization is the share of beds in use per current quality
// rating; the current rating is the latest rating_date per facility.
type RatingUtilization struct {
	QualityRating    *int32
	PercentBedsInUse *float64
}

func (r *Reporter) UtilizationByRating(ctx context.Context, asOf time.Time) ([]RatingUtilization, error) {
	rows, err := r.db.Query(ctx, `
		SELECT hq.quality_rating,
		       ROUND(CAST(
		           SUM(wr.all_adult_hospital_inpatient_bed_occupied_7_day_avg +
		               wr.all_pediatric_inpatient_bed_occupied_7_day_avg) * 100.0 /
		           NULLIF(SUM(wr.all_adult_hospital_beds_7_day_avg +
		                      wr.all_pediatric_inpatient_beds_7_day_avg), 0)
		           AS NUMERIC), 1)::float8 AS percent_beds_in_use
		FROM (
			SELECT DISTINCT ON (facility_id) facility_id, quality_rating
			FROM hospital_quality
			ORDER BY facility_id, rating_date DESC
		) hq
		JOIN weekly_report wr ON hq.facility_id = wr.hospital_weekly_id
		WHERE wr.collection_week = (
			SELECT MAX(collection_week) FROM weekly_report WHERE collection_week <= $1
		)
		GROUP BY hq.quality_rating
		ORDER BY hq.quality_rating`, asOf)
	if err != nil {
		return nil, fmt.Errorf("utilization by rating: %w", err)
	}
	defer rows.Close()

	var out []RatingUtilization
	for rows.Next() {
		var u RatingUtilization
		if err := rows.Scan(&u.QualityRating, &u.PercentBedsInUse); err != nil {
			return nil, fmt.Errorf("utilization by rating: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// BedsUsedPoint is the total beds in use for one reporting week, all
// cases vs COVID cases.
type BedsUsedPoint struct {
	CollectionWeek time.Time
	AllCases       *float64
	COVIDCases     *float64
}

func (r *Reporter) BedsUsedOverTime(ctx context.Context, asOf time.Time) ([]BedsUsedPoint, error) {
	rows, err := r.db.Query(ctx, `
		SELECT collection_week,
		       SUM(all_adult_hospital_inpatient_bed_occupied_7_day_avg +
		           all_pediatric_inpatient_bed_occupied_7_day_avg) AS total_beds_used_all_cases,
		       SUM(inpatient_beds_used_covid_7_day_avg) AS total_beds_used_covid_cases
		FROM weekly_report
		WHERE collection_week <= $1
		GROUP BY collection_week
		ORDER BY collection_week`, asOf)
	if err != nil {
		return nil, fmt.Errorf("beds used over time: %w", err)
	}
	defer rows.Close()

	var out []BedsUsedPoint
	for rows.Next() {
		var p BedsUsedPoint
		if err := rows.Scan(&p.CollectionWeek, &p.AllCases, &p.COVIDCases); err != nil {
			return nil, fmt.Errorf("beds used over time: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// StateOpenBeds ranks states by remaining open beds in the most recent
// week; negative numbers mean oversubscription.
type StateOpenBeds struct {
	State    string
	OpenBeds *float64
}

func (r *Reporter) StatesFewestOpenBeds(ctx context.Context, asOf time.Time) ([]StateOpenBeds, error) {
	rows, err := r.db.Query(ctx, `
		SELECT loc.state,
		       SUM(wr.all_adult_hospital_beds_7_day_avg + wr.all_pediatric_inpatient_beds_7_day_avg) -
		       SUM(wr.all_adult_hospital_inpatient_bed_occupied_7_day_avg + wr.all_pediatric_inpatient_bed_occupied_7_day_avg) AS open_beds
		FROM weekly_report wr
		JOIN hospital h ON wr.hospital_weekly_id = h.hospital_pk
		JOIN location loc ON h.location_id = loc.id
		WHERE wr.collection_week = (
			SELECT MAX(collection_week) FROM weekly_report WHERE collection_week <= $1
		)
		GROUP BY loc.state
		ORDER BY open_beds ASC
		LIMIT 10`, asOf)
	if err != nil {
		return nil, fmt.Errorf("states fewest open beds: %w", err)
	}
	defer rows.Close()

	var out []StateOpenBeds
	for rows.Next() {
		var s StateOpenBeds
		if err := rows.Scan(&s.State, &s.OpenBeds); err != nil {
			return nil, fmt.Errorf("states fewest open beds: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// NonReportingHospital last reported before the most recent week.
type NonReportingHospital struct {
	HospitalName     string
	City             string
	State            string
	LastReportedWeek time.Time
}

func (r *Reporter) HospitalsNotReporting(ctx context.Context, asOf time.Time) ([]NonReportingHospital, error) {
	rows, err := r.db.Query(ctx, `
		SELECT h.hospital_name, loc.city, loc.state, MAX(wr.collection_week) AS last_reported_week
		FROM hospital h
		JOIN location loc ON h.location_id = loc.id
		LEFT JOIN weekly_report wr ON h.hospital_pk = wr.hospital_weekly_id
		GROUP BY h.hospital_name, loc.city, loc.state
		HAVING MAX(wr.collection_week) < (
			SELECT MAX(collection_week) FROM weekly_report WHERE collection_week <= $1
		)
		ORDER BY h.hospital_name ASC
		LIMIT 10`, asOf)
	if err != nil {
		return nil, fmt.Errorf("hospitals not reporting: %w", err)
	}
	defer rows.Close()

	var out []NonReportingHospital
	for rows.Next() {
		var h NonReportingHospital
		if err := rows.Scan(&h.HospitalName, &h.City, &h.State, &h.LastReportedWeek); err != nil {
			return nil, fmt.Errorf("hospitals not reporting: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// StateUtilizationPoint is percent bed utilization for one state in one
// reporting week.
type StateUtilizationPoint struct {
	CollectionWeek     time.Time
	State              string
	PercentUtilization *float64
}

func (r *Reporter) UtilizationByState(ctx context.Context, asOf time.Time) ([]StateUtilizationPoint, error) {
	rows, err := r.db.Query(ctx, `
		SELECT wr.collection_week, loc.state,
		       ROUND(CAST(
		           SUM(wr.all_adult_hospital_inpatient_bed_occupied_7_day_avg +
		               wr.all_pediatric_inpatient_bed_occupied_7_day_avg) * 100.0 /
		           NULLIF(SUM(wr.all_adult_hospital_beds_7_day_avg +
		                      wr.all_pediatric_inpatient_beds_7_day_avg), 0)
		           AS NUMERIC), 1)::float8 AS percent_utilization
		FROM weekly_report wr
		JOIN hospital h ON wr.hospital_weekly_id = h.hospital_pk
		JOIN location loc ON h.location_id = loc.id
		WHERE wr.collection_week <= $1
		GROUP BY wr.collection_week, loc.state
		ORDER BY wr.collection_week, loc.state`, asOf)
	if err != nil {
		return nil, fmt.Errorf("utilization by state: %w", err)
	}
	defer rows.Close()

	var out []StateUtilizationPoint
	for rows.Next() {
		var p StateUtilizationPoint
		if err := rows.Scan(&p.CollectionWeek, &p.State, &p.PercentUtilization); err != nil {
			return nil, fmt.Errorf("utilization by state: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
