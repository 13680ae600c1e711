package extract

// Required columns of the CMS hospital-quality extract.
const (
	ColFacilityID        = "Facility ID"
	ColFacilityName      = "Facility Name"
	ColQualityCity       = "City"
	ColQualityState      = "State"
	ColZipCode           = "ZIP Code"
	ColOwnership         = "Hospital Ownership"
	ColEmergencyServices = "Emergency Services"
	ColHospitalType      = "Hospital Type"
	ColOverallRating     = "Hospital overall rating"
)

var qualityRequired = []string{
	ColFacilityID, ColFacilityName, ColQualityCity, ColQualityState,
	ColZipCode, ColOwnership, ColEmergencyServices, ColHospitalType,
	ColOverallRating,
}

// QualityRow is one raw record of the quality extract.
type QualityRow struct {
	FacilityID        string
	FacilityName      string
	City              string
	State             string
	ZipCode           string
	Ownership         string
	EmergencyServices string
	HospitalType      string
	OverallRating     string
}

// QualityReader streams the quality extract one row at a time.
type QualityReader struct {
	*csvFile
}

func NewQualityReader(filepath string) (*QualityReader, error) {
	f, err := openCSV(filepath, qualityRequired)
	if err != nil {
		return nil, err
	}
	return &QualityReader{csvFile: f}, nil
}

// Next returns the next data row, or io.EOF when done.
func (r *QualityReader) Next() (*QualityRow, error) {
	row, err := r.next()
	if err != nil {
		return nil, err
	}

	return &QualityRow{
		FacilityID:        r.field(row, ColFacilityID),
		FacilityName:      r.field(row, ColFacilityName),
		City:              r.field(row, ColQualityCity),
		State:             r.field(row, ColQualityState),
		ZipCode:           r.field(row, ColZipCode),
		Ownership:         r.field(row, ColOwnership),
		EmergencyServices: r.field(row, ColEmergencyServices),
		HospitalType:      r.field(row, ColHospitalType),
		OverallRating:     r.field(row, ColOverallRating),
	}, nil
}
