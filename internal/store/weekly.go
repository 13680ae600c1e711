package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// WeeklyReport is one capacity fact row per (hospital, collection week).
// All nine metrics are nullable; the upstream -999999 sentinel is
// normalized away before this struct is built.
type WeeklyReport struct {
	HospitalPK     string
	CollectionWeek time.Time

	AllAdultBeds           *float64
	AllPediatricBeds       *float64
	AdultBedsOccupied      *float64
	PediatricBedsOccupied  *float64
	TotalICUBeds           *float64
	ICUBedsUsed            *float64
	InpatientBedsUsedCOVID *float64
	StaffedICUAdultCOVID   *float64
	AdultHospitalizedCOVID *float64
}

var weeklyReportColumns = []string{
	"hospital_weekly_id",
	"collection_week",
	"all_adult_hospital_beds_7_day_avg",
	"all_pediatric_inpatient_beds_7_day_avg",
	"all_adult_hospital_inpatient_bed_occupied_7_day_avg",
	"all_pediatric_inpatient_bed_occupied_7_day_avg",
	"total_icu_beds_7_day_avg",
	"icu_beds_used_7_day_avg",
	"inpatient_beds_used_covid_7_day_avg",
	"staffed_icu_adult_patients_confirmed_covid_7_day_avg",
	"total_adult_patients_hospitalized_confirmed_covid_7_day_avg",
}

// InsertWeeklyReports bulk-inserts fact rows via COPY. Every row must
// reference a registered hospital; no conflict target exists on
// (hospital, week), so re-running a load duplicates facts.
func (s *Store) InsertWeeklyReports(ctx context.Context, reports []WeeklyReport) (int64, error) {
	if len(reports) == 0 {
		return 0, nil
	}

	rows := make([][]any, len(reports))
	for i, r := range reports {
		rows[i] = []any{
			r.HospitalPK,
			r.CollectionWeek,
			r.AllAdultBeds,
			r.AllPediatricBeds,
			r.AdultBedsOccupied,
			r.PediatricBedsOccupied,
			r.TotalICUBeds,
			r.ICUBedsUsed,
			r.InpatientBedsUsedCOVID,
			r.StaffedICUAdultCOVID,
			r.AdultHospitalizedCOVID,
		}
	}

	copied, err := s.db.CopyFrom(ctx,
		pgx.Identifier{"weekly_report"},
		weeklyReportColumns,
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy weekly_report: %w", err)
	}

	return copied, nil
}

// CountWeeklyReports returns the weekly_report row count.
func (s *Store) CountWeeklyReports(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRow(ctx, `SELECT count(*) FROM weekly_report`).Scan(&n)
	return n, err
}
