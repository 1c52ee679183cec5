package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/tidwall/sjson"

	"github.com/tradeworks/contractor-hub/internal/api/metrics"
	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
	"github.com/tradeworks/contractor-hub/internal/pkg/secret"
)

// PortalService serves client portal keys and per-document approval tokens,
// and issues both.
type PortalService struct {
	repo    ports.PortalRepository
	baseURL string
	now     func() time.Time
	log     zerolog.Logger
}

var (
	_ ports.PortalService    = (*PortalService)(nil)
	_ ports.AccessKeyService = (*PortalService)(nil)
)

func NewPortalService(repo ports.PortalRepository, baseURL string, log zerolog.Logger) *PortalService {
	return &PortalService{
		repo:    repo,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     func() time.Time { return time.Now().UTC() },
		log:     log,
	}
}

// Bundle returns the client, the contractor profile and the client's documents.
func (s *PortalService) Bundle(ctx context.Context, key string) (*ports.PortalBundle, error) {
	client, err := s.authenticateClient(ctx, key)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, client.AccountID)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListClientDocuments(ctx, client.AccountID, client.ID)
	if err != nil {
		return nil, fmt.Errorf("portal bundle: %w", err)
	}
	return &ports.PortalBundle{Client: *client, Contractor: profile, Documents: docs}, nil
}

// Sign records the client's signature on one of their documents.
func (s *PortalService) Sign(ctx context.Context, key, documentID string, in ports.SignatureInput) (*domain.Document, error) {
	if err := validateSignature(in); err != nil {
		return nil, err
	}
	client, err := s.authenticateClient(ctx, key)
	if err != nil {
		return nil, err
	}
	docs, err := s.repo.ListClientDocuments(ctx, client.AccountID, client.ID)
	if err != nil {
		return nil, fmt.Errorf("portal sign: %w", err)
	}
	for i := range docs {
		if docs[i].ID == documentID {
			return s.sign(ctx, &docs[i], in, "portal")
		}
	}
	return nil, fmt.Errorf("portal sign: %w", domain.ErrNotFound)
}

// Approval returns the document behind a public token.
func (s *PortalService) Approval(ctx context.Context, token string) (*ports.ApprovalView, error) {
	doc, err := s.authenticateDocument(ctx, token)
	if err != nil {
		return nil, err
	}
	profile, err := s.profile(ctx, doc.AccountID)
	if err != nil {
		return nil, err
	}
	return &ports.ApprovalView{Document: *doc, Contractor: profile}, nil
}

// SignApproval records an external signature through a public token.
func (s *PortalService) SignApproval(ctx context.Context, token string, in ports.SignatureInput) (*domain.Document, error) {
	if err := validateSignature(in); err != nil {
		return nil, err
	}
	doc, err := s.authenticateDocument(ctx, token)
	if err != nil {
		return nil, err
	}
	return s.sign(ctx, doc, in, "approval")
}

// IssuePortalKey replaces the client's portal key. The plaintext key is only
// part of the result.
func (s *PortalService) IssuePortalKey(ctx context.Context, accountID, clientID string) (*ports.IssuedKey, error) {
	issued, err := secret.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetClientPortalKey(ctx, accountID, clientID, issued.KeyID, issued.Hash); err != nil {
		return nil, fmt.Errorf("issue portal key: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Str("client_id", clientID).Str("key_id", issued.KeyID).Msg("portal key issued")
	return &ports.IssuedKey{KeyID: issued.KeyID, Key: issued.Plain, URL: s.baseURL + "/portal/" + issued.Plain}, nil
}

// RevokePortalKey removes the client's portal key.
func (s *PortalService) RevokePortalKey(ctx context.Context, accountID, clientID string) error {
	if err := s.repo.SetClientPortalKey(ctx, accountID, clientID, "", ""); err != nil {
		return fmt.Errorf("revoke portal key: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Str("client_id", clientID).Msg("portal key revoked")
	return nil
}

// IssueDocumentToken replaces the public approval token of a document.
func (s *PortalService) IssueDocumentToken(ctx context.Context, accountID, documentID string) (*ports.IssuedKey, error) {
	issued, err := secret.Generate()
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetDocumentToken(ctx, accountID, documentID, issued.KeyID, issued.Hash); err != nil {
		return nil, fmt.Errorf("issue document token: %w", err)
	}
	s.log.Info().Str("account_id", accountID).Str("document_id", documentID).Str("key_id", issued.KeyID).Msg("public token issued")
	return &ports.IssuedKey{KeyID: issued.KeyID, Key: issued.Plain, URL: s.baseURL + "/approve/" + issued.Plain}, nil
}

func (s *PortalService) authenticateClient(ctx context.Context, key string) (*domain.Client, error) {
	keyID, sec, err := secret.Parse(key)
	if err != nil {
		return nil, domain.ErrInvalidKey
	}
	client, err := s.repo.FindClientByPortalKeyID(ctx, keyID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("portal lookup: %w", err)
	}
	if !client.HasPortalAccess() || !secret.Verify(client.PortalKeyHash, sec) {
		s.log.Warn().Str("key_id", keyID).Msg("portal key secret mismatch")
		return nil, domain.ErrInvalidKey
	}
	return client, nil
}

func (s *PortalService) authenticateDocument(ctx context.Context, token string) (*domain.Document, error) {
	keyID, sec, err := secret.Parse(token)
	if err != nil {
		return nil, domain.ErrInvalidKey
	}
	doc, err := s.repo.FindDocumentByTokenID(ctx, keyID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("approval lookup: %w", err)
	}
	if !secret.Verify(doc.PublicTokenHash, sec) {
		s.log.Warn().Str("key_id", keyID).Msg("public token secret mismatch")
		return nil, domain.ErrInvalidKey
	}
	return doc, nil
}

// profile returns nil when the contractor has not saved a profile yet.
func (s *PortalService) profile(ctx context.Context, accountID string) (*domain.Profile, error) {
	p, err := s.repo.GetProfile(ctx, accountID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("contractor profile: %w", err)
	}
	return p, nil
}

func (s *PortalService) sign(ctx context.Context, doc *domain.Document, in ports.SignatureInput, via string) (*domain.Document, error) {
	if doc.Signed() {
		return nil, domain.ErrAlreadySigned
	}
	signedAt := s.now()
	payload, err := SignPayload(doc.Payload, in, signedAt)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SignDocument(ctx, doc.AccountID, doc.ID, payload, signedAt); err != nil {
		return nil, fmt.Errorf("sign document: %w", err)
	}

	metrics.PortalSignaturesTotal.WithLabelValues(via).Inc()
	s.log.Info().
		Str("account_id", doc.AccountID).
		Str("document_id", doc.ID).
		Str("via", via).
		Msg("document signed")

	signed := *doc
	signed.Payload = payload
	signed.SignedAt = &signedAt
	return &signed, nil
}

// SignPayload writes the signature block and approved status into payload.
func SignPayload(payload json.RawMessage, in ports.SignatureInput, at time.Time) (json.RawMessage, error) {
	out := cloneBytes(payload)
	out, err := sjson.SetBytes(out, "signature", map[string]string{
		"name":      strings.TrimSpace(in.Name),
		"data":      in.Signature,
		"signed_at": at.Format(time.RFC3339),
		"ip":        in.IP,
	})
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	out, err = sjson.SetBytes(out, "status", "approved")
	if err != nil {
		return nil, fmt.Errorf("sign payload: %w", err)
	}
	return out, nil
}

func validateSignature(in ports.SignatureInput) error {
	if strings.TrimSpace(in.Name) == "" || in.Signature == "" {
		return fmt.Errorf("%w: signer name and signature are required", domain.ErrValidation)
	}
	return nil
}
