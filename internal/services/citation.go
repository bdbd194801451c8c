package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"path"
	"strconv"
	"strings"

	"github.com/citetrack/apiserver/internal/events"
	"github.com/citetrack/apiserver/types"
)

var (
	// ErrClerkForbidden is returned when a clerk identity attempts to
	// create a citation. Only officers issue citations.
	ErrClerkForbidden = errors.New("clerks may not create citations")

	// ErrInvalidCitation wraps shape/enum violations in a citation
	// payload.
	ErrInvalidCitation = errors.New("invalid citation")
)

// CitationRepository defines persistence operations for citations.
type CitationRepository interface {
	Create(ctx context.Context, citation types.Citation) (types.Citation, error)
	ListByAgency(ctx context.Context, agency string, offset, limit int) ([]types.Citation, int, error)
	ListByOfficer(ctx context.Context, officerID int, offset, limit int) ([]types.Citation, int, error)
}

// SignatureStore persists uploaded signature images.
type SignatureStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
}

// SignatureUpload carries the raw bytes of an uploaded signature image.
type SignatureUpload struct {
	Filename string
	Data     []byte
}

// CitationService owns citation creation and agency/officer scoped
// listing.
type CitationService struct {
	repo       CitationRepository
	signatures SignatureStore
	bus        *events.Bus
}

func NewCitationService(repo CitationRepository, signatures SignatureStore, bus *events.Bus) *CitationService {
	return &CitationService{
		repo:       repo,
		signatures: signatures,
		bus:        bus,
	}
}

// Create records a citation issued by the given officer identity. The
// officer reference always comes from the resolved identity, never the
// payload. Clerks are rejected; admin eligibility is not restricted on
// this path.
func (s *CitationService) Create(ctx context.Context, officer types.Account, citation types.Citation, signature *SignatureUpload) (types.Citation, error) {
	if officer.Role == types.RoleClerk {
		return types.Citation{}, ErrClerkForbidden
	}

	if citation.Violations[0] == "" {
		citation.Violations[0] = "FTA"
	}
	if err := validateCitation(citation); err != nil {
		return types.Citation{}, err
	}

	citation.OfficerID = officer.ID

	if signature != nil && len(signature.Data) > 0 {
		key, err := s.storeSignature(ctx, signature)
		if err != nil {
			return types.Citation{}, err
		}
		citation.ViolatorSignature = key
	}

	created, err := s.repo.Create(ctx, citation)
	if err != nil {
		return types.Citation{}, err
	}

	s.publishCreated(ctx, created)
	return created, nil
}

func (s *CitationService) ListByAgency(ctx context.Context, agency string, offset, limit int) ([]types.Citation, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByAgency(ctx, agency, offset, limit)
}

func (s *CitationService) ListByOfficer(ctx context.Context, officerID int, offset, limit int) ([]types.Citation, int, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.ListByOfficer(ctx, officerID, offset, limit)
}

// validateCitation checks enum membership only. There is no field-level
// business validation beyond type and shape.
func validateCitation(c types.Citation) error {
	if !types.ValidState(c.OLNState) {
		return fmt.Errorf("%w: unknown oln_state %q", ErrInvalidCitation, c.OLNState)
	}
	if !types.ValidLicenseClass(c.OLNClass) {
		return fmt.Errorf("%w: unknown oln_class %q", ErrInvalidCitation, c.OLNClass)
	}
	if !types.ValidGender(c.ViolatorGender) {
		return fmt.Errorf("%w: unknown violator_gender %q", ErrInvalidCitation, c.ViolatorGender)
	}
	if !types.ValidColor(c.ViolatorHair) {
		return fmt.Errorf("%w: unknown violator_hair %q", ErrInvalidCitation, c.ViolatorHair)
	}
	if !types.ValidColor(c.ViolatorEyes) {
		return fmt.Errorf("%w: unknown violator_eyes %q", ErrInvalidCitation, c.ViolatorEyes)
	}
	if !types.ValidState(c.ViolatorState) {
		return fmt.Errorf("%w: unknown violator_state %q", ErrInvalidCitation, c.ViolatorState)
	}
	if !types.ValidAgency(c.CitationAgency) {
		return fmt.Errorf("%w: unknown citation_agency %q", ErrInvalidCitation, c.CitationAgency)
	}
	for i, code := range c.Violations {
		if code == "" {
			continue
		}
		if !types.ValidViolationCode(code) {
			return fmt.Errorf("%w: unknown violation_%d %q", ErrInvalidCitation, i, code)
		}
	}
	return nil
}

func (s *CitationService) storeSignature(ctx context.Context, signature *SignatureUpload) (string, error) {
	ext := strings.ToLower(path.Ext(signature.Filename))
	if ext == "" {
		ext = ".png"
	}
	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	key := "signatures/" + newObjectID() + ext
	if err := s.signatures.Put(ctx, key, bytes.NewReader(signature.Data), int64(len(signature.Data)), contentType); err != nil {
		return "", fmt.Errorf("store signature: %w", err)
	}
	return key, nil
}

// publishCreated emits a citation.created event when a broker is
// configured. Failures are logged, never surfaced: the citation is
// already committed.
func (s *CitationService) publishCreated(ctx context.Context, citation types.Citation) {
	payload, err := json.Marshal(map[string]any{
		"id":              citation.ID,
		"officer_id":      citation.OfficerID,
		"citation_agency": citation.CitationAgency,
	})
	if err != nil {
		return
	}
	attrs := map[string]string{"agency": citation.CitationAgency, "citation_id": strconv.Itoa(citation.ID)}
	if _, err := s.bus.Publish(ctx, events.TopicCitationCreated, payload, attrs); err != nil {
		slog.Warn("citation.created publish failed", "citation_id", citation.ID, "error", err)
	}
}

func newObjectID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return ""
	}
	return hex.EncodeToString(buf[:])
}
