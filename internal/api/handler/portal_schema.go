package handler

import (
	"encoding/json"
	"time"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
	"github.com/tradeworks/contractor-hub/internal/core/ports"
)

type signRequest struct {
	Name      string `json:"name"      validate:"required,max=200"`
	Signature string `json:"signature" validate:"required"`
}

// contractorView is the public part of a profile. Mailbox tokens and usage
// never leave the server.
type contractorView struct {
	CompanyName string `json:"company_name"`
	ContactName string `json:"contact_name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	LogoURL     string `json:"logo_url,omitempty"`
}

type clientView struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email,omitempty"`
	Phone   string `json:"phone,omitempty"`
	Address string `json:"address,omitempty"`
}

type documentView struct {
	ID        string              `json:"id"`
	JobID     string              `json:"job_id"`
	Type      domain.DocumentType `json:"type"`
	Payload   json.RawMessage     `json:"payload"`
	CreatedAt string              `json:"created_at"`
	SignedAt  string              `json:"signed_at,omitempty"`
}

type portalResponse struct {
	Client     clientView      `json:"client"`
	Contractor *contractorView `json:"contractor"`
	Documents  []documentView  `json:"documents"`
}

type approvalResponse struct {
	Document   documentView    `json:"document"`
	Contractor *contractorView `json:"contractor"`
}

type issuedKeyResponse struct {
	KeyID string `json:"key_id"`
	Key   string `json:"key"`
	URL   string `json:"url"`
}

type setTierRequest struct {
	Tier string `json:"tier" validate:"required,oneof=free premium"`
}

type billingEventRequest struct {
	ID         string    `json:"id"          validate:"required"`
	Type       string    `json:"type"        validate:"required,oneof=subscription.activated subscription.cancelled"`
	AccountID  string    `json:"account_id"  validate:"required"`
	OccurredAt time.Time `json:"occurred_at"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

func toContractorView(p *domain.Profile) *contractorView {
	if p == nil {
		return nil
	}
	return &contractorView{
		CompanyName: p.CompanyName,
		ContactName: p.ContactName,
		Email:       p.Email,
		Phone:       p.Phone,
		Address:     p.Address,
		LogoURL:     p.LogoURL,
	}
}

func toDocumentView(d domain.Document) documentView {
	v := documentView{
		ID:        d.ID,
		JobID:     d.JobID,
		Type:      d.Type,
		Payload:   d.Payload,
		CreatedAt: d.CreatedAt.UTC().Format(time.RFC3339),
	}
	if len(v.Payload) == 0 {
		v.Payload = json.RawMessage(`{}`)
	}
	if d.SignedAt != nil {
		v.SignedAt = d.SignedAt.UTC().Format(time.RFC3339)
	}
	return v
}

func toPortalResponse(b *ports.PortalBundle) portalResponse {
	docs := make([]documentView, 0, len(b.Documents))
	for _, d := range b.Documents {
		docs = append(docs, toDocumentView(d))
	}
	return portalResponse{
		Client: clientView{
			ID:      b.Client.ID,
			Name:    b.Client.Name,
			Email:   b.Client.Email,
			Phone:   b.Client.Phone,
			Address: b.Client.Address,
		},
		Contractor: toContractorView(b.Contractor),
		Documents:  docs,
	}
}

func toIssuedKeyResponse(k *ports.IssuedKey) issuedKeyResponse {
	return issuedKeyResponse{KeyID: k.KeyID, Key: k.Key, URL: k.URL}
}
