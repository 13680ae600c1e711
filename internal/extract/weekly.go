package extract

// Required columns of the weekly capacity extract. The metric names are the
// upstream HHS 7-day-average columns and must not be renamed.
const (
	ColHospitalPK     = "hospital_pk"
	ColState          = "state"
	ColHospitalName   = "hospital_name"
	ColAddress        = "address"
	ColCity           = "city"
	ColZip            = "zip"
	ColFipsCode       = "fips_code"
	ColGeocodedAddr   = "geocoded_hospital_address"
	ColCollectionWeek = "collection_week"

	ColAllAdultBeds           = "all_adult_hospital_beds_7_day_avg"
	ColAllPediatricBeds       = "all_pediatric_inpatient_beds_7_day_avg"
	ColAdultBedsOccupied      = "all_adult_hospital_inpatient_bed_occupied_7_day_avg"
	ColPediatricBedsOccupied  = "all_pediatric_inpatient_bed_occupied_7_day_avg"
	ColTotalICUBeds           = "total_icu_beds_7_day_avg"
	ColICUBedsUsed            = "icu_beds_used_7_day_avg"
	ColInpatientBedsUsedCOVID = "inpatient_beds_used_covid_7_day_avg"
	ColStaffedICUAdultCOVID   = "staffed_icu_adult_patients_confirmed_covid_7_day_avg"
	ColAdultHospitalizedCOVID = "total_adult_patients_hospitalized_confirmed_covid_7_day_avg"
)

var weeklyRequired = []string{
	ColHospitalPK, ColState, ColHospitalName, ColAddress, ColCity, ColZip,
	ColFipsCode, ColGeocodedAddr, ColCollectionWeek,
	ColAllAdultBeds, ColAllPediatricBeds, ColAdultBedsOccupied,
	ColPediatricBedsOccupied, ColTotalICUBeds, ColICUBedsUsed,
	ColInpatientBedsUsedCOVID, ColStaffedICUAdultCOVID,
	ColAdultHospitalizedCOVID,
}

// WeeklyRow is one raw record of the weekly capacity extract. All fields
// are unparsed strings; normalization happens downstream.
type WeeklyRow struct {
	HospitalPK   string
	State        string
	HospitalName string
	Address      string
	City         string
	Zip          string
	FipsCode     string
	GeocodedAddr string

	CollectionWeek string

	AllAdultBeds           string
	AllPediatricBeds       string
	AdultBedsOccupied      string
	PediatricBedsOccupied  string
	TotalICUBeds           string
	ICUBedsUsed            string
	InpatientBedsUsedCOVID string
	StaffedICUAdultCOVID   string
	AdultHospitalizedCOVID string
}

// WeeklyReader streams the weekly capacity extract one row at a time.
type WeeklyReader struct {
	*csvFile
}

func NewWeeklyReader(filepath string) (*WeeklyReader, error) {
	f, err := openCSV(filepath, weeklyRequired)
	if err != nil {
		return nil, err
	}
	return &WeeklyReader{csvFile: f}, nil
}

// Next returns the next data row, or io.EOF when done.
func (r *WeeklyReader) Next() (*WeeklyRow, error) {
	row, err := r.next()
	if err != nil {
		return nil, err
	}

	return &WeeklyRow{
		HospitalPK:   r.field(row, ColHospitalPK),
		State:        r.field(row, ColState),
		HospitalName: r.field(row, ColHospitalName),
		Address:      r.field(row, ColAddress),
		City:         r.field(row, ColCity),
		Zip:          r.field(row, ColZip),
		FipsCode:     r.field(row, ColFipsCode),
		GeocodedAddr: r.field(row, ColGeocodedAddr),

		CollectionWeek: r.field(row, ColCollectionWeek),

		AllAdultBeds:           r.field(row, ColAllAdultBeds),
		AllPediatricBeds:       r.field(row, ColAllPediatricBeds),
		AdultBedsOccupied:      r.field(row, ColAdultBedsOccupied),
		PediatricBedsOccupied:  r.field(row, ColPediatricBedsOccupied),
		TotalICUBeds:           r.field(row, ColTotalICUBeds),
		ICUBedsUsed:            r.field(row, ColICUBedsUsed),
		InpatientBedsUsedCOVID: r.field(row, ColInpatientBedsUsedCOVID),
		StaffedICUAdultCOVID:   r.field(row, ColStaffedICUAdultCOVID),
		AdultHospitalizedCOVID: r.field(row, ColAdultHospitalizedCOVID),
	}, nil
}
