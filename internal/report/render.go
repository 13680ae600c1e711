package report

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"
)

// Render runs every section query for the given as-of date and writes a
// plain-text report. A section with no data is logged and skipped rather
// than failing the whole report.
func (r *Reporter) Render(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	fmt.Fprintf(w, "Hospital Capacity Report, week of %s\n", asOf.Format("2006-01-02"))
	fmt.Fprintln(w)

	if err := r.renderRecords(ctx, w, asOf, log); err != nil {
		return err
	}
	if err := r.renderBeds(ctx, w, asOf, log); err != nil {
		return err
	}
	if err := r.renderRatingUtilization(ctx, w, asOf, log); err != nil {
		return err
	}
	if err := r.renderBedsOverTime(ctx, w, asOf, log); err != nil {
		return err
	}
	if err := r.renderFewestOpenBeds(ctx, w, asOf, log); err != nil {
		return err
	}
	if err := r.renderNotReporting(ctx, w, asOf, log); err != nil {
		return err
	}
	return r.renderStateUtilization(ctx, w, asOf, log)
}

func (r *Reporter) renderRecords(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	s, err := r.RecordsSummary(ctx, asOf)
	if err != nil {
		return err
	}
	if s == nil {
		log.Warn().Time("as_of", asOf).Msg("no weekly records on or before date, skipping records summary")
		return nil
	}
	fmt.Fprintln(w, "== Hospital records loaded ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Week\tHospitals\tPrevious week\tChange\n")
	fmt.Fprintf(tw, "%s\t%d\t%d\t%+d\n",
		s.CollectionWeek.Format("2006-01-02"), s.HospitalCount, s.PreviousWeekCount, s.WeekDifference)
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderBeds(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	beds, err := r.BedsSummary(ctx, asOf)
	if err != nil {
		return err
	}
	if len(beds) == 0 {
		log.Warn().Time("as_of", asOf).Msg("no bed data, skipping beds summary")
		return nil
	}
	fmt.Fprintln(w, "== Bed availability, most recent 5 weeks ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Week\tAdult avail\tPediatric avail\tAdult occupied\tPediatric occupied\tCOVID used\n")
	for _, b := range beds {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			b.CollectionWeek.Format("2006-01-02"),
			fmtFloat(b.AdultBedsAvailable), fmtFloat(b.PediatricBedsAvailable),
			fmtFloat(b.AdultBedsOccupied), fmtFloat(b.PediatricBedsOccupied),
			fmtFloat(b.COVIDBedsUsed))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderRatingUtilization(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	util, err := r.UtilizationByRating(ctx, asOf)
	if err != nil {
		return err
	}
	if len(util) == 0 {
		log.Warn().Time("as_of", asOf).Msg("no quality ratings joined to weekly data, skipping utilization by rating")
		return nil
	}
	fmt.Fprintln(w, "== Bed utilization by quality rating ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Rating\tPercent beds in use\n")
	for _, u := range util {
		rating := "unrated"
		if u.QualityRating != nil {
			rating = fmt.Sprintf("%d", *u.QualityRating)
		}
		fmt.Fprintf(tw, "%s\t%s\n", rating, fmtFloat(u.PercentBedsInUse))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderBedsOverTime(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	points, err := r.BedsUsedOverTime(ctx, asOf)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		log.Warn().Time("as_of", asOf).Msg("no weekly data, skipping beds used over time")
		return nil
	}
	fmt.Fprintln(w, "== Beds in use over time ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Week\tAll cases\tCOVID cases\n")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.CollectionWeek.Format("2006-01-02"), fmtFloat(p.AllCases), fmtFloat(p.COVIDCases))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderFewestOpenBeds(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	states, err := r.StatesFewestOpenBeds(ctx, asOf)
	if err != nil {
		return err
	}
	if len(states) == 0 {
		log.Warn().Time("as_of", asOf).Msg("no state data, skipping fewest open beds")
		return nil
	}
	fmt.Fprintln(w, "== States with fewest open beds ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "State\tOpen beds\n")
	for _, s := range states {
		fmt.Fprintf(tw, "%s\t%s\n", s.State, fmtFloat(s.OpenBeds))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderNotReporting(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	missing, err := r.HospitalsNotReporting(ctx, asOf)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		log.Info().Time("as_of", asOf).Msg("every hospital reported in the most recent week")
		return nil
	}
	fmt.Fprintln(w, "== Hospitals not reporting this week ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Hospital\tCity\tState\tLast reported\n")
	for _, h := range missing {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			h.HospitalName, h.City, h.State, h.LastReportedWeek.Format("2006-01-02"))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func (r *Reporter) renderStateUtilization(ctx context.Context, w io.Writer, asOf time.Time, log zerolog.Logger) error {
	points, err := r.UtilizationByState(ctx, asOf)
	if err != nil {
		return err
	}
	if len(points) == 0 {
		log.Warn().Time("as_of", asOf).Msg("no state utilization data, skipping")
		return nil
	}
	fmt.Fprintln(w, "== Bed utilization by state over time ==")
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Week\tState\tPercent utilization\n")
	for _, p := range points {
		fmt.Fprintf(tw, "%s\t%s\t%s\n",
			p.CollectionWeek.Format("2006-01-02"), p.State, fmtFloat(p.PercentUtilization))
	}
	tw.Flush()
	fmt.Fprintln(w)
	return nil
}

func fmtFloat(f *float64) string {
	if f == nil {
		return "n/a"
	}
	return fmt.Sprintf("%.1f", *f)
}
