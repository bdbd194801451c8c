package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/citetrack/apiserver/types"
)

// CitationRepository handles persistence for citations. Citations are
// insert-only; there is no update or delete.
type CitationRepository struct {
	db *sql.DB
}

func NewCitationRepository(db *sql.DB) *CitationRepository {
	return &CitationRepository{db: db}
}

const citationColumns = `id, officer_id,
	violation_datetime, violation_route, violation_county, violation_city, contact_type,
	oln_state, oln, oln_class, cdl,
	violator_name, violator_dob, violator_gender, violator_hair, violator_eyes,
	violator_height, violator_address, violator_city, violator_state, violator_phone, violator_email,
	vehicle_type, vehicle_vin, vehicle_color, vehicle_year, vehicle_make, vehicle_model,
	factor_crash, factor_passenger, factor_spanish, factor_car_cam, factor_body_cam,
	factor_school_zone, factor_construction, factor_workers,
	violation_0, violation_1, violation_2, violation_3, violation_4,
	issued_by, citation_agency, issued_datetime, court, court_appearance_date,
	violator_signature, created_at`

func scanCitation(row interface{ Scan(...any) error }) (types.Citation, error) {
	var c types.Citation
	err := row.Scan(
		&c.ID,
		&c.OfficerID,
		&c.ViolationDatetime,
		&c.ViolationRoute,
		&c.ViolationCounty,
		&c.ViolationCity,
		&c.ContactType,
		&c.OLNState,
		&c.OLN,
		&c.OLNClass,
		&c.CDL,
		&c.ViolatorName,
		&c.ViolatorDOB,
		&c.ViolatorGender,
		&c.ViolatorHair,
		&c.ViolatorEyes,
		&c.ViolatorHeight,
		&c.ViolatorAddress,
		&c.ViolatorCity,
		&c.ViolatorState,
		&c.ViolatorPhone,
		&c.ViolatorEmail,
		&c.VehicleType,
		&c.VehicleVIN,
		&c.VehicleColor,
		&c.VehicleYear,
		&c.VehicleMake,
		&c.VehicleModel,
		&c.FactorCrash,
		&c.FactorPassenger,
		&c.FactorSpanish,
		&c.FactorCarCam,
		&c.FactorBodyCam,
		&c.FactorSchoolZone,
		&c.FactorConstruction,
		&c.FactorWorkers,
		&c.Violations[0],
		&c.Violations[1],
		&c.Violations[2],
		&c.Violations[3],
		&c.Violations[4],
		&c.IssuedBy,
		&c.CitationAgency,
		&c.IssuedDatetime,
		&c.Court,
		&c.CourtAppearanceDate,
		&c.ViolatorSignature,
		&c.CreatedAt,
	)
	if err != nil {
		return types.Citation{}, err
	}
	return c, nil
}

func (r *CitationRepository) Create(ctx context.Context, c types.Citation) (types.Citation, error) {
	c.CreatedAt = time.Now()

	const query = `
		INSERT INTO citations (officer_id,
			violation_datetime, violation_route, violation_county, violation_city, contact_type,
			oln_state, oln, oln_class, cdl,
			violator_name, violator_dob, violator_gender, violator_hair, violator_eyes,
			violator_height, violator_address, violator_city, violator_state, violator_phone, violator_email,
			vehicle_type, vehicle_vin, vehicle_color, vehicle_year, vehicle_make, vehicle_model,
			factor_crash, factor_passenger, factor_spanish, factor_car_cam, factor_body_cam,
			factor_school_zone, factor_construction, factor_workers,
			violation_0, violation_1, violation_2, violation_3, violation_4,
			issued_by, citation_agency, issued_datetime, court, court_appearance_date,
			violator_signature, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30,
			$31, $32, $33, $34, $35, $36, $37, $38, $39, $40,
			$41, $42, $43, $44, $45, $46, $47)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		c.OfficerID,
		c.ViolationDatetime,
		c.ViolationRoute,
		c.ViolationCounty,
		c.ViolationCity,
		c.ContactType,
		c.OLNState,
		c.OLN,
		c.OLNClass,
		c.CDL,
		c.ViolatorName,
		c.ViolatorDOB,
		c.ViolatorGender,
		c.ViolatorHair,
		c.ViolatorEyes,
		c.ViolatorHeight,
		c.ViolatorAddress,
		c.ViolatorCity,
		c.ViolatorState,
		c.ViolatorPhone,
		c.ViolatorEmail,
		c.VehicleType,
		c.VehicleVIN,
		c.VehicleColor,
		c.VehicleYear,
		c.VehicleMake,
		c.VehicleModel,
		c.FactorCrash,
		c.FactorPassenger,
		c.FactorSpanish,
		c.FactorCarCam,
		c.FactorBodyCam,
		c.FactorSchoolZone,
		c.FactorConstruction,
		c.FactorWorkers,
		c.Violations[0],
		c.Violations[1],
		c.Violations[2],
		c.Violations[3],
		c.Violations[4],
		c.IssuedBy,
		c.CitationAgency,
		c.IssuedDatetime,
		c.Court,
		c.CourtAppearanceDate,
		c.ViolatorSignature,
		c.CreatedAt,
	).Scan(&c.ID); err != nil {
		return types.Citation{}, mapError(err)
	}
	return c, nil
}

// ListByAgency returns one page of citations issued under the given
// agency, regardless of which officer authored them.
func (r *CitationRepository) ListByAgency(ctx context.Context, agency string, offset, limit int) ([]types.Citation, int, error) {
	const countQuery = `SELECT COUNT(1) FROM citations WHERE citation_agency = $1`
	const listQuery = `
		SELECT ` + citationColumns + `
		FROM citations
		WHERE citation_agency = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	return r.list(ctx, countQuery, listQuery, agency, offset, limit)
}

// ListByOfficer returns one page of citations authored by the given
// officer, regardless of agency.
func (r *CitationRepository) ListByOfficer(ctx context.Context, officerID int, offset, limit int) ([]types.Citation, int, error) {
	const countQuery = `SELECT COUNT(1) FROM citations WHERE officer_id = $1`
	const listQuery = `
		SELECT ` + citationColumns + `
		FROM citations
		WHERE officer_id = $1
		ORDER BY id
		OFFSET $2 LIMIT $3`
	return r.list(ctx, countQuery, listQuery, officerID, offset, limit)
}

func (r *CitationRepository) list(ctx context.Context, countQuery, listQuery string, filter any, offset, limit int) ([]types.Citation, int, error) {
	if offset < 0 {
		offset = 0
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, filter).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx, listQuery, filter, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	citations := make([]types.Citation, 0, limit)
	for rows.Next() {
		citation, err := scanCitation(rows)
		if err != nil {
			return nil, 0, err
		}
		citations = append(citations, citation)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return citations, total, nil
}
