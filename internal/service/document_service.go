package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/domain"
	"github.com/rentflow/rental-api/internal/storage"
	"go.uber.org/zap"
)

const documentContentType = "text/html; charset=utf-8"

var contractTemplate = template.Must(template.New("contract").Funcs(template.FuncMap{
	"date":  func(t time.Time) string { return t.UTC().Format("2006-01-02") },
	"money": func(v float64) string { return fmt.Sprintf("%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Lease agreement {{.ID}}</title></head>
<body>
<h1>Lease agreement</h1>
<p>Reference: {{.ID}}</p>
<h2>Property</h2>
<p>{{.PropertyTitle}}<br>{{.PropertyAddress}}{{if .UnitNumber}}, unit {{.UnitNumber}}{{end}}</p>
<h2>Tenant</h2>
<p>{{.TenantName}} ({{.TenantNationalID}})</p>
<h2>Terms</h2>
<table>
<tr><td>Period</td><td>{{date .StartDate}} to {{date .EndDate}}</td></tr>
<tr><td>Rent</td><td>{{money .Price}} per month</td></tr>
<tr><td>Payment frequency</td><td>{{.PaymentFrequency}} ({{money .PeriodAmount}} per payment)</td></tr>
<tr><td>Deposit</td><td>{{money .Deposit}}</td></tr>
</table>
{{if .Notes}}<h2>Notes</h2><p>{{.Notes}}</p>{{end}}
<p>Generated {{date .GeneratedAt}}</p>
</body>
</html>
`))

type contractDocument struct {
	ID               uuid.UUID
	PropertyTitle    string
	PropertyAddress  string
	UnitNumber       string
	TenantName       string
	TenantNationalID string
	StartDate        time.Time
	EndDate          time.Time
	Price            float64
	PeriodAmount     float64
	Deposit          float64
	PaymentFrequency domain.PaymentFrequency
	Notes            string
	GeneratedAt      time.Time
}

// DocumentService renders contract documents and keeps them in storage
type DocumentService struct {
	storage       storage.Storage
	publicBaseURL string
	logger        *zap.Logger
	now           func() time.Time
}

// NewDocumentService creates a new document service
func NewDocumentService(store storage.Storage, publicBaseURL string, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		storage:       store,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		logger:        logger,
		now:           utcNow,
	}
}

// DocumentKey is the storage key of a contract's document. Regeneration overwrites it.
func DocumentKey(contractID uuid.UUID) string {
	return fmt.Sprintf("contracts/%s/contract.html", contractID)
}

// Generate renders the contract document, stores it and returns its URL
func (s *DocumentService) Generate(ctx context.Context, contract *domain.Contract, property *domain.Property, tenant *domain.Tenant) (string, error) {
	doc := contractDocument{
		ID:               contract.ID,
		PropertyTitle:    property.Title,
		PropertyAddress:  property.Address,
		UnitNumber:       property.UnitNumber,
		TenantName:       tenant.FullName(),
		TenantNationalID: tenant.NationalID,
		StartDate:        contract.StartDate,
		EndDate:          contract.EndDate,
		Price:            contract.Price,
		PeriodAmount:     contract.Price * float64(contract.PaymentFrequency.MonthsPerPeriod()),
		Deposit:          contract.Deposit,
		PaymentFrequency: contract.PaymentFrequency,
		Notes:            contract.Notes,
		GeneratedAt:      s.now(),
	}

	var buf bytes.Buffer
	if err := contractTemplate.Execute(&buf, doc); err != nil {
		return "", fmt.Errorf("failed to render contract document: %w", err)
	}

	key := DocumentKey(contract.ID)
	if _, err := s.storage.Put(ctx, key, documentContentType, &buf); err != nil {
		return "", fmt.Errorf("failed to store contract document: %w", err)
	}

	s.logger.Debug("Contract document generated",
		zap.String("contract_id", contract.ID.String()),
		zap.String("key", key),
	)
	return s.url(key), nil
}

// Open returns the stored document of a contract
func (s *DocumentService) Open(ctx context.Context, contractID uuid.UUID) (io.ReadCloser, error) {
	rc, err := s.storage.Get(ctx, DocumentKey(contractID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, domain.NotFoundError("Contract document")
		}
		return nil, internalError("open contract document", err)
	}
	return rc, nil
}

// Delete removes a contract's document. Failures are logged, not returned.
func (s *DocumentService) Delete(ctx context.Context, contractID uuid.UUID) {
	if err := s.storage.Delete(ctx, DocumentKey(contractID)); err != nil {
		s.logger.Warn("Failed to delete contract document",
			zap.String("contract_id", contractID.String()),
			zap.Error(err),
		)
	}
}

// ContentType is the media type of generated documents
func (s *DocumentService) ContentType() string {
	return documentContentType
}

func (s *DocumentService) url(key string) string {
	if s.publicBaseURL == "" {
		return key
	}
	return s.publicBaseURL + "/" + key
}
