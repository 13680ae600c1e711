package extract

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "extract.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const weeklyHeader = "hospital_pk,state,hospital_name,address,city,zip,fips_code," +
	"geocoded_hospital_address,collection_week," +
	"all_adult_hospital_beds_7_day_avg,all_pediatric_inpatient_beds_7_day_avg," +
	"all_adult_hospital_inpatient_bed_occupied_7_day_avg," +
	"all_pediatric_inpatient_bed_occupied_7_day_avg,total_icu_beds_7_day_avg," +
	"icu_beds_used_7_day_avg,inpatient_beds_used_covid_7_day_avg," +
	"staffed_icu_adult_patients_confirmed_covid_7_day_avg," +
	"total_adult_patients_hospitalized_confirmed_covid_7_day_avg"

func TestWeeklyReader(t *testing.T) {
	content := weeklyHeader + "\n" +
		`1001,IL,Springfield General,100 Main St,Springfield,62701,17167,"POINT (-89.6501 39.7817)",2022-03-01,50,10,30,5,12,8,4,2,6` + "\n" +
		"\n" + // blank rows are skipped
		`1002,PA,Allegheny Central,1 Hospital Way,Pittsburgh,15213,42003,,2022-03-01,-999999,,,,,,,,` + "\n"

	r, err := NewWeeklyReader(writeTempCSV(t, content))
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1001", row.HospitalPK)
	assert.Equal(t, "IL", row.State)
	assert.Equal(t, "Springfield General", row.HospitalName)
	assert.Equal(t, "Springfield", row.City)
	assert.Equal(t, "62701", row.Zip)
	assert.Equal(t, "17167", row.FipsCode)
	assert.Equal(t, "POINT (-89.6501 39.7817)", row.GeocodedAddr)
	assert.Equal(t, "2022-03-01", row.CollectionWeek)
	assert.Equal(t, "50", row.AllAdultBeds)
	assert.Equal(t, "6", row.AdultHospitalizedCOVID)

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1002", row.HospitalPK)
	assert.Equal(t, "-999999", row.AllAdultBeds)
	assert.Equal(t, "", row.GeocodedAddr)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestWeeklyReaderBOM(t *testing.T) {
	content := "\uFEFF" + weeklyHeader + "\n" +
		`1001,IL,Springfield General,100 Main St,Springfield,62701,17167,,2022-03-01,,,,,,,,,` + "\n"

	r, err := NewWeeklyReader(writeTempCSV(t, content))
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1001", row.HospitalPK)
}

func TestWeeklyReaderMissingColumns(t *testing.T) {
	content := "hospital_pk,state,hospital_name\n1001,IL,Springfield General\n"

	_, err := NewWeeklyReader(writeTempCSV(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
	assert.Contains(t, err.Error(), "collection_week")
}

func TestQualityReader(t *testing.T) {
	content := `Facility ID,Facility Name,City,State,ZIP Code,Hospital Ownership,Emergency Services,Hospital Type,Hospital overall rating` + "\n" +
		`1001,Springfield General,Springfield,IL,62701,Voluntary non-profit,Yes,Acute Care Hospitals,3` + "\n" +
		`1003,Lakeview Medical,Chicago,IL,60601,Proprietary,No,Acute Care Hospitals,Not Available` + "\n"

	r, err := NewQualityReader(writeTempCSV(t, content))
	require.NoError(t, err)
	defer r.Close()

	row, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "1001", row.FacilityID)
	assert.Equal(t, "Springfield General", row.FacilityName)
	assert.Equal(t, "Yes", row.EmergencyServices)
	assert.Equal(t, "3", row.OverallRating)

	row, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, "Not Available", row.OverallRating)

	_, err = r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestQualityReaderMissingColumns(t *testing.T) {
	content := "Facility ID,Facility Name\n1001,Springfield General\n"

	_, err := NewQualityReader(writeTempCSV(t, content))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required columns")
}

func TestOpenMissingFile(t *testing.T) {
	_, err := NewWeeklyReader(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
