package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/citetrack/apiserver/internal/services"
	"github.com/citetrack/apiserver/types"
	"github.com/go-chi/chi/v5"
)

const (
	maxMultipartMemory = 8 << 20
	maxSignatureBytes  = 4 << 20
	formFieldCitation  = "citation"
	formFieldSignature = "signature"
)

// CitationHandler provides HTTP handlers for citations.
type CitationHandler struct {
	citations *services.CitationService
}

// NewCitationHandler constructs a handler with the provided service.
func NewCitationHandler(citations *services.CitationService) *CitationHandler {
	return &CitationHandler{citations: citations}
}

// CitationRouter registers citation routes on the given router. Every
// route requires an authenticated identity.
func CitationRouter(r chi.Router, citations *services.CitationService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewCitationHandler(citations)

	r.With(authMiddleware).Post("/citation/", handler.CreateCitation)
	r.With(authMiddleware).Get("/list_citations", handler.ListAgencyCitations)
	r.With(authMiddleware).Get("/list_officer_citations", handler.ListOfficerCitations)
}

// CreateCitation records a citation issued by the calling officer. The
// payload arrives either as a JSON body or as a multipart form with a
// "citation" JSON field and an optional "signature" image file.
func (h *CitationHandler) CreateCitation(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	req, signature, err := parseCitationPayload(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	citation, err := req.toCitation()
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	created, err := h.citations.Create(r.Context(), identity, citation, signature)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrClerkForbidden):
			writeError(w, http.StatusUnauthorized, "Unauthorized")
		case errors.Is(err, services.ErrInvalidCitation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to create citation")
		}
		return
	}

	writeJSON(w, http.StatusCreated, CreatedCitationResponse{Item: "citation", ID: created.ID})
}

// ListAgencyCitations lists citations issued under the caller's agency,
// regardless of authoring officer.
func (h *CitationHandler) ListAgencyCitations(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.citations.ListByAgency(r.Context(), identity.Agency, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list citations")
		return
	}

	writeJSON(w, http.StatusOK, CitationListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// ListOfficerCitations lists citations authored by the caller,
// regardless of agency.
func (h *CitationHandler) ListOfficerCitations(w http.ResponseWriter, r *http.Request) {
	identity, err := identityFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	page, limit, offset, err := parsePagination(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.citations.ListByOfficer(r.Context(), identity.ID, offset, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list citations")
		return
	}

	writeJSON(w, http.StatusOK, CitationListResponse{
		Items: items,
		Page:  page,
		Limit: limit,
		Total: total,
	})
}

// CitationRequest is the citation creation payload. Violations holds up
// to five charge codes.
type CitationRequest struct {
	ViolationDatetime time.Time `json:"violation_datetime"`
	ViolationRoute    string    `json:"violation_route"`
	ViolationCounty   string    `json:"violation_county"`
	ViolationCity     string    `json:"violation_city"`
	ContactType       string    `json:"contact_type"`

	OLNState string `json:"oln_state"`
	OLN      int    `json:"oln"`
	OLNClass string `json:"oln_class"`
	CDL      bool   `json:"cdl"`

	ViolatorName    string    `json:"violator_name"`
	ViolatorDOB     time.Time `json:"violator_dob"`
	ViolatorGender  string    `json:"violator_gender"`
	ViolatorHair    string    `json:"violator_hair"`
	ViolatorEyes    string    `json:"violator_eyes"`
	ViolatorHeight  string    `json:"violator_height"`
	ViolatorAddress string    `json:"violator_address"`
	ViolatorCity    string    `json:"violator_city"`
	ViolatorState   string    `json:"violator_state"`
	ViolatorPhone   int64     `json:"violator_phone"`
	ViolatorEmail   string    `json:"violator_email"`

	VehicleType  string `json:"vehicle_type"`
	VehicleVIN   string `json:"vehicle_vin"`
	VehicleColor string `json:"vehicle_color"`
	VehicleYear  int    `json:"vehicle_year"`
	VehicleMake  string `json:"vehicle_make"`
	VehicleModel string `json:"vehicle_model"`

	FactorCrash        bool `json:"factor_crash"`
	FactorPassenger    bool `json:"factor_passenger"`
	FactorSpanish      bool `json:"factor_spanish"`
	FactorCarCam       bool `json:"factor_car_cam"`
	FactorBodyCam      bool `json:"factor_body_cam"`
	FactorSchoolZone   bool `json:"factor_school_zone"`
	FactorConstruction bool `json:"factor_construction"`
	FactorWorkers      bool `json:"factor_workers"`

	Violations []string `json:"violations"`

	IssuedBy            string    `json:"issued_by"`
	CitationAgency      string    `json:"citation_agency"`
	IssuedDatetime      time.Time `json:"issued_datetime"`
	Court               string    `json:"court"`
	CourtAppearanceDate time.Time `json:"court_appearance_date"`
}

func (req CitationRequest) toCitation() (types.Citation, error) {
	if len(req.Violations) > types.ViolationSlots {
		return types.Citation{}, fmt.Errorf("at most %d violations are allowed", types.ViolationSlots)
	}

	citation := types.Citation{
		ViolationDatetime:   req.ViolationDatetime,
		ViolationRoute:      req.ViolationRoute,
		ViolationCounty:     req.ViolationCounty,
		ViolationCity:       req.ViolationCity,
		ContactType:         req.ContactType,
		OLNState:            req.OLNState,
		OLN:                 req.OLN,
		OLNClass:            req.OLNClass,
		CDL:                 req.CDL,
		ViolatorName:        req.ViolatorName,
		ViolatorDOB:         req.ViolatorDOB,
		ViolatorGender:      req.ViolatorGender,
		ViolatorHair:        req.ViolatorHair,
		ViolatorEyes:        req.ViolatorEyes,
		ViolatorHeight:      req.ViolatorHeight,
		ViolatorAddress:     req.ViolatorAddress,
		ViolatorCity:        req.ViolatorCity,
		ViolatorState:       req.ViolatorState,
		ViolatorPhone:       req.ViolatorPhone,
		ViolatorEmail:       req.ViolatorEmail,
		VehicleType:         req.VehicleType,
		VehicleVIN:          req.VehicleVIN,
		VehicleColor:        req.VehicleColor,
		VehicleYear:         req.VehicleYear,
		VehicleMake:         req.VehicleMake,
		VehicleModel:        req.VehicleModel,
		FactorCrash:         req.FactorCrash,
		FactorPassenger:     req.FactorPassenger,
		FactorSpanish:       req.FactorSpanish,
		FactorCarCam:        req.FactorCarCam,
		FactorBodyCam:       req.FactorBodyCam,
		FactorSchoolZone:    req.FactorSchoolZone,
		FactorConstruction:  req.FactorConstruction,
		FactorWorkers:       req.FactorWorkers,
		IssuedBy:            req.IssuedBy,
		CitationAgency:      req.CitationAgency,
		IssuedDatetime:      req.IssuedDatetime,
		Court:               req.Court,
		CourtAppearanceDate: req.CourtAppearanceDate,
	}
	copy(citation.Violations[:], req.Violations)
	return citation, nil
}

// CreatedCitationResponse is the citation creation result payload.
type CreatedCitationResponse struct {
	Item string `json:"item"`
	ID   int    `json:"id"`
}

// CitationListResponse is the paginated citation list payload.
type CitationListResponse struct {
	Items []types.Citation `json:"items"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
	Total int              `json:"total"`
}

func parseCitationPayload(r *http.Request) (CitationRequest, *services.SignatureUpload, error) {
	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		var req CitationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return CitationRequest{}, nil, errors.New("invalid request")
		}
		return req, nil, nil
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		return CitationRequest{}, nil, errors.New("invalid multipart form")
	}

	raw := strings.TrimSpace(r.FormValue(formFieldCitation))
	if raw == "" {
		return CitationRequest{}, nil, errors.New("citation field is required")
	}

	var req CitationRequest
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return CitationRequest{}, nil, errors.New("invalid citation field")
	}

	signature, err := parseSignatureFile(r.MultipartForm)
	if err != nil {
		return CitationRequest{}, nil, err
	}

	return req, signature, nil
}

func parseSignatureFile(form *multipart.Form) (*services.SignatureUpload, error) {
	if form == nil {
		return nil, nil
	}

	files := form.File[formFieldSignature]
	if len(files) == 0 {
		return nil, nil
	}
	if len(files) > 1 {
		return nil, errors.New("only one signature file is allowed")
	}

	fileHeader := files[0]
	file, err := fileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read signature file: %w", err)
	}

	data, err := readFileLimited(file, maxSignatureBytes)
	_ = file.Close()
	if err != nil {
		return nil, err
	}

	return &services.SignatureUpload{
		Filename: fileHeader.Filename,
		Data:     data,
	}, nil
}

func readFileLimited(reader io.Reader, limit int64) ([]byte, error) {
	limited := io.LimitReader(reader, limit+1)
	data, err := io.ReadAll(limited)
	if err != nil {
		return nil, errors.New("failed to read upload")
	}
	if int64(len(data)) > limit {
		return nil, errors.New("uploaded file too large")
	}
	return data, nil
}
