package domain

import "time"

// Client is a customer of the account. PortalKeyID identifies the active
// portal access key; the secret itself is only ever stored hashed.
type Client struct {
	ID            string    `json:"id" bson:"_id" validate:"required"`
	AccountID     string    `json:"account_id" bson:"account_id" validate:"required"`
	Name          string    `json:"name" bson:"name" validate:"required,max=200"`
	Email         string    `json:"email,omitempty" bson:"email,omitempty" validate:"omitempty,email"`
	Phone         string    `json:"phone,omitempty" bson:"phone,omitempty"`
	Address       string    `json:"address,omitempty" bson:"address,omitempty"`
	Notes         string    `json:"notes,omitempty" bson:"notes,omitempty"`
	PortalKeyID   string    `json:"portal_key_id,omitempty" bson:"portal_key_id,omitempty"`
	PortalKeyHash string    `json:"-" bson:"portal_key_hash,omitempty"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// HasPortalAccess reports whether a portal key is active. The hash is not
// serialised, so cached clients are judged by the key id alone.
func (c *Client) HasPortalAccess() bool {
	return c.PortalKeyID != ""
}
