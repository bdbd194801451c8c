package types

import "time"

// LicenseClasses maps operator-license class codes to their descriptions.
var LicenseClasses = map[string]string{
	"EDL": "Enhanced Driver's License",
	"DPC": "Driver Privilege Card",
	"CDL": "Commercial Driver's License",
	"NDR": "Non-Driver Identification",
}

// ValidLicenseClass reports whether code is a known license class.
func ValidLicenseClass(code string) bool {
	_, ok := LicenseClasses[code]
	return ok
}

// Genders maps gender codes to their descriptions.
var Genders = map[string]string{
	"M": "Male",
	"F": "Female",
}

// ValidGender reports whether code is a known gender code.
func ValidGender(code string) bool {
	_, ok := Genders[code]
	return ok
}

// Colors maps hair/eye color codes to their descriptions.
// The upstream code table assigns "BL" to both Black and Blonde; the
// entry keeps the later description.
var Colors = map[string]string{
	"BR": "Brown",
	"BL": "Blonde",
	"AU": "Auburn",
	"RE": "Red",
	"GR": "Gray",
	"WH": "White",
}

// ValidColor reports whether code is a known hair/eye color code.
func ValidColor(code string) bool {
	_, ok := Colors[code]
	return ok
}

// States maps USPS state and territory codes to their names.
var States = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AS": "American Samoa", "AZ": "Arizona",
	"AR": "Arkansas", "CA": "California", "CO": "Colorado", "CT": "Connecticut",
	"DE": "Delaware", "DC": "District of Columbia", "FL": "Florida",
	"GA": "Georgia", "GU": "Guam", "HI": "Hawaii", "ID": "Idaho",
	"IL": "Illinois", "IN": "Indiana", "IA": "Iowa", "KS": "Kansas",
	"KY": "Kentucky", "LA": "Louisiana", "ME": "Maine", "MD": "Maryland",
	"MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey",
	"NM": "New Mexico", "NY": "New York", "NC": "North Carolina",
	"ND": "North Dakota", "MP": "Northern Mariana Islands", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania",
	"PR": "Puerto Rico", "RI": "Rhode Island", "SC": "South Carolina",
	"SD": "South Dakota", "TN": "Tennessee", "TX": "Texas", "UT": "Utah",
	"VT": "Vermont", "VI": "Virgin Islands", "VA": "Virginia",
	"WA": "Washington", "WV": "West Virginia", "WI": "Wisconsin",
	"WY": "Wyoming",
}

// ValidState reports whether code is a known state code.
func ValidState(code string) bool {
	_, ok := States[code]
	return ok
}

// ViolationCodes maps violation codes to their descriptions.
var ViolationCodes = map[string]string{
	"FTA":  "Failed to aid",
	"UNSF": "Unsafe start from parked, stopped, standing",
}

// ValidViolationCode reports whether code is a known violation code.
func ValidViolationCode(code string) bool {
	_, ok := ViolationCodes[code]
	return ok
}

// ViolationSlots is the number of violation-code slots on a citation.
// A single stop can carry up to this many simultaneous charges.
const ViolationSlots = 5

// Citation is the canonical violation record created by an officer.
// It is written exactly once; the system defines no update or delete
// operation for citations.
type Citation struct {
	// ID is the unique identifier of the citation.
	ID int `json:"id" db:"id"`

	// OfficerID references the account of the officer who issued the
	// citation.
	OfficerID int `json:"officer_id" db:"officer_id"`

	// Violation context.
	ViolationDatetime time.Time `json:"violation_datetime" db:"violation_datetime"`
	ViolationRoute    string    `json:"violation_route" db:"violation_route"`
	ViolationCounty   string    `json:"violation_county" db:"violation_county"`
	ViolationCity     string    `json:"violation_city" db:"violation_city"`
	ContactType       string    `json:"contact_type" db:"contact_type"`

	// Operator license identification.
	OLNState string `json:"oln_state" db:"oln_state"`
	OLN      int    `json:"oln" db:"oln"`
	OLNClass string `json:"oln_class" db:"oln_class"`
	CDL      bool   `json:"cdl" db:"cdl"`

	// Violator description.
	ViolatorName    string    `json:"violator_name" db:"violator_name"`
	ViolatorDOB     time.Time `json:"violator_dob" db:"violator_dob"`
	ViolatorGender  string    `json:"violator_gender" db:"violator_gender"`
	ViolatorHair    string    `json:"violator_hair" db:"violator_hair"`
	ViolatorEyes    string    `json:"violator_eyes" db:"violator_eyes"`
	ViolatorHeight  string    `json:"violator_height" db:"violator_height"`
	ViolatorAddress string    `json:"violator_address" db:"violator_address"`
	ViolatorCity    string    `json:"violator_city" db:"violator_city"`
	ViolatorState   string    `json:"violator_state" db:"violator_state"`
	ViolatorPhone   int64     `json:"violator_phone" db:"violator_phone"`
	ViolatorEmail   string    `json:"violator_email" db:"violator_email"`

	// Vehicle description.
	VehicleType  string `json:"vehicle_type" db:"vehicle_type"`
	VehicleVIN   string `json:"vehicle_vin" db:"vehicle_vin"`
	VehicleColor string `json:"vehicle_color" db:"vehicle_color"`
	VehicleYear  int    `json:"vehicle_year" db:"vehicle_year"`
	VehicleMake  string `json:"vehicle_make" db:"vehicle_make"`
	VehicleModel string `json:"vehicle_model" db:"vehicle_model"`

	// Aggravating/mitigating factor flags.
	FactorCrash        bool `json:"factor_crash" db:"factor_crash"`
	FactorPassenger    bool `json:"factor_passenger" db:"factor_passenger"`
	FactorSpanish      bool `json:"factor_spanish" db:"factor_spanish"`
	FactorCarCam       bool `json:"factor_car_cam" db:"factor_car_cam"`
	FactorBodyCam      bool `json:"factor_body_cam" db:"factor_body_cam"`
	FactorSchoolZone   bool `json:"factor_school_zone" db:"factor_school_zone"`
	FactorConstruction bool `json:"factor_construction" db:"factor_construction"`
	FactorWorkers      bool `json:"factor_workers" db:"factor_workers"`

	// Violations holds up to ViolationSlots charge codes, in order.
	// Unused slots are empty strings.
	Violations [ViolationSlots]string `json:"violations" db:"violations"`

	// Issuing context.
	IssuedBy            string    `json:"issued_by" db:"issued_by"`
	CitationAgency      string    `json:"citation_agency" db:"citation_agency"`
	IssuedDatetime      time.Time `json:"issued_datetime" db:"issued_datetime"`
	Court               string    `json:"court" db:"court"`
	CourtAppearanceDate time.Time `json:"court_appearance_date" db:"court_appearance_date"`

	// ViolatorSignature is the object-storage key of the uploaded
	// signature image, not the image bytes.
	ViolatorSignature string `json:"violator_signature" db:"violator_signature"`

	// CreatedAt is the timestamp when the citation was recorded.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
