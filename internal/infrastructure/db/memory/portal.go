package memory

import (
	"context"
	"encoding/json"
	"slices"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

func (s *Store) FindClientByPortalKeyID(_ context.Context, keyID string) (*domain.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("find_by_portal_key", domain.CollectionClients); err != nil {
		return nil, err
	}
	for _, c := range s.clients {
		if keyID != "" && c.PortalKeyID == keyID {
			return &c, nil
		}
	}
	return nil, notFound("find_by_portal_key", domain.CollectionClients, keyID)
}

func (s *Store) FindDocumentByTokenID(_ context.Context, tokenID string) (*domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("find_by_token", domain.CollectionDocuments); err != nil {
		return nil, err
	}
	for _, d := range s.documents {
		if tokenID != "" && d.PublicTokenID == tokenID {
			d.Payload = slices.Clone(d.Payload)
			return &d, nil
		}
	}
	return nil, notFound("find_by_token", domain.CollectionDocuments, tokenID)
}

// ListClientDocuments returns documents of the client's jobs, newest first.
func (s *Store) ListClientDocuments(_ context.Context, accountID, clientID string) ([]domain.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("list_client_documents", domain.CollectionDocuments); err != nil {
		return nil, err
	}
	jobs := map[string]bool{}
	for _, j := range s.jobs {
		if j.AccountID == accountID && j.ClientID == clientID {
			jobs[j.ID] = true
		}
	}
	out := filter(s.documents, func(d domain.Document) bool { return d.AccountID == accountID && jobs[d.JobID] })
	for i := range out {
		out[i].Payload = slices.Clone(out[i].Payload)
	}
	slices.SortFunc(out, func(a, b domain.Document) int { return newestFirst(a.CreatedAt, b.CreatedAt, a.ID, b.ID) })
	return out, nil
}

func (s *Store) GetProfile(ctx context.Context, accountID string) (*domain.Profile, error) {
	return s.Profiles().Get(ctx, accountID)
}

func (s *Store) SignDocument(_ context.Context, accountID, documentID string, payload json.RawMessage, signedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("sign", domain.CollectionDocuments); err != nil {
		return err
	}
	cur, ok := s.documents[documentID]
	if !ok || cur.AccountID != accountID {
		return notFound("sign", domain.CollectionDocuments, documentID)
	}
	if cur.Signed() {
		return domain.ErrAlreadySigned
	}
	cur.Payload = slices.Clone(payload)
	cur.SignedAt = &signedAt
	s.documents[documentID] = cur
	return nil
}

func (s *Store) SetClientPortalKey(_ context.Context, accountID, clientID, keyID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("set_portal_key", domain.CollectionClients); err != nil {
		return err
	}
	cur, ok := s.clients[clientID]
	if !ok || cur.AccountID != accountID {
		return notFound("set_portal_key", domain.CollectionClients, clientID)
	}
	cur.PortalKeyID, cur.PortalKeyHash = keyID, hash
	s.clients[clientID] = cur
	return nil
}

func (s *Store) SetDocumentToken(_ context.Context, accountID, documentID, tokenID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.begin("set_token", domain.CollectionDocuments); err != nil {
		return err
	}
	cur, ok := s.documents[documentID]
	if !ok || cur.AccountID != accountID {
		return notFound("set_token", domain.CollectionDocuments, documentID)
	}
	cur.PublicTokenID, cur.PublicTokenHash = tokenID, hash
	s.documents[documentID] = cur
	return nil
}
