package ports

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// PortalRepository backs the unauthenticated portal and approval links and
// the issuance of their keys.
type PortalRepository interface {
	FindClientByPortalKeyID(ctx context.Context, keyID string) (*domain.Client, error)
	FindDocumentByTokenID(ctx context.Context, tokenID string) (*domain.Document, error)
	// ListClientDocuments returns documents of every job linked to the client.
	ListClientDocuments(ctx context.Context, accountID, clientID string) ([]domain.Document, error)
	GetProfile(ctx context.Context, accountID string) (*domain.Profile, error)
	// SignDocument stores the signed payload only if the document is not signed
	// yet; otherwise it returns domain.ErrAlreadySigned.
	SignDocument(ctx context.Context, accountID, documentID string, payload json.RawMessage, signedAt time.Time) error
	// SetClientPortalKey replaces the key of a client. Empty values revoke it.
	SetClientPortalKey(ctx context.Context, accountID, clientID, keyID, hash string) error
	SetDocumentToken(ctx context.Context, accountID, documentID, tokenID, hash string) error
}
