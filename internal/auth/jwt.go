package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rentflow/rental-api/internal/config"
	"github.com/rentflow/rental-api/internal/domain"
)

// TokenType distinguishes staff login tokens from tenant portal links
type TokenType string

const (
	TokenTypeStaff  TokenType = "STAFF"
	TokenTypePortal TokenType = "TENANT_PORTAL"
)

// tokenClaims is the wire shape shared by both token kinds; Type decides which fields are meaningful
type tokenClaims struct {
	Type TokenType `json:"type"`

	// staff
	UserID string          `json:"id,omitempty"`
	Email  string          `json:"email,omitempty"`
	Role   domain.UserRole `json:"role,omitempty"`

	// portal
	ContractID       string `json:"contractId,omitempty"`
	TenantNationalID string `json:"tenantNationalId,omitempty"`
	Version          int    `json:"ver,omitempty"`

	jwt.RegisteredClaims
}

// TokenService signs and verifies HS256 tokens for staff and the tenant portal
type TokenService struct {
	secret    []byte
	issuer    string
	staffTTL  time.Duration
	portalTTL time.Duration
	now       func() time.Time
}

// NewTokenService creates a token service from auth configuration
func NewTokenService(cfg *config.AuthConfig) *TokenService {
	return &TokenService{
		secret:    []byte(cfg.JWTSecret),
		issuer:    cfg.Issuer,
		staffTTL:  cfg.StaffTokenTTL(),
		portalTTL: cfg.PortalTokenTTL(),
		now:       time.Now,
	}
}

// WithClock returns a copy of the service that reads time from now
func (s *TokenService) WithClock(now func() time.Time) *TokenService {
	c := *s
	c.now = now
	return &c
}

// PortalTTL returns the configured portal link lifetime
func (s *TokenService) PortalTTL() time.Duration {
	return s.portalTTL
}

// IssueStaffToken signs a login token for a staff user
func (s *TokenService) IssueStaffToken(user *domain.User) (string, time.Time, error) {
	issuedAt := s.now()
	expiresAt := issuedAt.Add(s.staffTTL)
	claims := tokenClaims{
		Type:   TokenTypeStaff,
		UserID: user.ID.String(),
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	signed, err := s.sign(claims)
	return signed, expiresAt, err
}

// ValidateStaffToken verifies a staff token and returns the actor it names
func (s *TokenService) ValidateStaffToken(tokenString string) (*ActorContext, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypeStaff {
		return nil, domain.NewError(domain.KindWrongTokenType, "Token is not a staff token")
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil || !claims.Role.IsValid() {
		return nil, domain.NewError(domain.KindInvalidToken, "Invalid token")
	}
	return &ActorContext{UserID: userID, Email: claims.Email, Role: claims.Role}, nil
}

// IssuePortalToken signs a tenant portal link for one contract
func (s *TokenService) IssuePortalToken(contractID uuid.UUID, tenantNationalID string, version int) (string, error) {
	issuedAt := s.now()
	claims := tokenClaims{
		Type:             TokenTypePortal,
		ContractID:       contractID.String(),
		TenantNationalID: tenantNationalID,
		Version:          version,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.portalTTL)),
		},
	}
	return s.sign(claims)
}

// VerifyPortalToken verifies a portal token. It fails with invalid_token,
// expired_token or wrong_token_type and never says more than that.
func (s *TokenService) VerifyPortalToken(tokenString string) (*PortalContext, error) {
	claims, err := s.parse(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.Type != TokenTypePortal {
		return nil, domain.NewError(domain.KindWrongTokenType, "Token is not a tenant portal token")
	}

	contractID, err := uuid.Parse(claims.ContractID)
	if err != nil || claims.TenantNationalID == "" {
		return nil, domain.NewError(domain.KindInvalidToken, "Invalid token")
	}
	return &PortalContext{
		ContractID:       contractID,
		TenantNationalID: claims.TenantNationalID,
		Version:          claims.Version,
	}, nil
}

func (s *TokenService) sign(claims tokenClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", domain.WrapError(domain.KindInternal, "Failed to sign token", err)
	}
	return signed, nil
}

func (s *TokenService) parse(tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	}
	if s.issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, opts...)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.NewError(domain.KindExpiredToken, "Token has expired")
		}
		return nil, domain.NewError(domain.KindInvalidToken, "Invalid token")
	}
	if !token.Valid {
		return nil, domain.NewError(domain.KindInvalidToken, "Invalid token")
	}
	return claims, nil
}
