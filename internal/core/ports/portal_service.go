package ports

import (
	"context"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// PortalBundle is everything a client sees through their portal key.
type PortalBundle struct {
	Client     domain.Client
	Contractor *domain.Profile
	Documents  []domain.Document
}

// ApprovalView is the single document behind a public token.
type ApprovalView struct {
	Document   domain.Document
	Contractor *domain.Profile
}

// SignatureInput carries an external signer's acceptance.
type SignatureInput struct {
	Name      string
	Signature string // data URL or typed name
	IP        string
}

// IssuedKey is a freshly generated portal key or public token. The plaintext
// Key is only available at issuance.
type IssuedKey struct {
	KeyID string
	Key   string
	URL   string
}

// PortalService implements the portal and approval link procedures.
type PortalService interface {
	Bundle(ctx context.Context, key string) (*PortalBundle, error)
	Sign(ctx context.Context, key, documentID string, in SignatureInput) (*domain.Document, error)
	Approval(ctx context.Context, token string) (*ApprovalView, error)
	SignApproval(ctx context.Context, token string, in SignatureInput) (*domain.Document, error)
}

// AccessKeyService issues and revokes portal keys and public tokens.
type AccessKeyService interface {
	IssuePortalKey(ctx context.Context, accountID, clientID string) (*IssuedKey, error)
	RevokePortalKey(ctx context.Context, accountID, clientID string) error
	IssueDocumentToken(ctx context.Context, accountID, documentID string) (*IssuedKey, error)
}
