package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// SaveProfile upserts the account profile. The subscription tier is owned by
// the billing webhook and is carried over from the published profile.
func (c *SyncController) SaveProfile(ctx context.Context, p *domain.Profile) error {
	return c.write(ctx, "save_profile", func(ctx context.Context) error {
		p.ID = c.accountID
		p.UpdatedAt = c.now()
		if current := c.state.Profile(); current != nil {
			p.SubscriptionTier = current.SubscriptionTier
			p.Usage = current.Usage
		}
		if p.SubscriptionTier == "" {
			p.SubscriptionTier = domain.TierFree
		}
		if err := c.validateEntity(p); err != nil {
			return err
		}
		return c.remote.Profiles().Save(ctx, p)
	})
}

// CreateJob inserts a new job. Missing client name and address are copied
// from the published client record.
func (c *SyncController) CreateJob(ctx context.Context, j *domain.Job) error {
	return c.write(ctx, "create_job", func(ctx context.Context) error {
		if !c.CheckLimit(domain.ResourceJobs) {
			return domain.ErrLimitReached
		}
		if j.ID == "" {
			j.ID = c.newID()
		}
		j.AccountID = c.accountID
		j.CreatedAt = c.now()
		if j.Status == "" {
			j.Status = domain.JobActive
		}
		c.denormaliseClient(j)
		if err := c.validateJob(j); err != nil {
			return err
		}
		return c.remote.Jobs().Insert(ctx, j)
	})
}

// UpdateJob replaces a job.
func (c *SyncController) UpdateJob(ctx context.Context, j *domain.Job) error {
	return c.write(ctx, "update_job", func(ctx context.Context) error {
		j.AccountID = c.accountID
		c.denormaliseClient(j)
		if err := c.validateJob(j); err != nil {
			return err
		}
		return c.remote.Jobs().Update(ctx, j)
	})
}

// SetJobStatus patches the published status before the write completes and
// restores it if the write fails.
func (c *SyncController) SetJobStatus(ctx context.Context, id string, status domain.JobStatus) error {
	return c.write(ctx, "set_job_status", func(ctx context.Context) error {
		if !status.Valid() {
			return fmt.Errorf("%w: unknown job status %q", domain.ErrValidation, status)
		}
		prev, ok := c.patchJobStatus(id, status)
		if err := c.remote.Jobs().SetStatus(ctx, c.accountID, id, status); err != nil {
			if ok {
				c.patchJobStatus(id, prev)
			}
			return err
		}
		return nil
	})
}

// DeleteJob removes a job; the remote store deletes its documents.
func (c *SyncController) DeleteJob(ctx context.Context, id string) error {
	return c.write(ctx, "delete_job", func(ctx context.Context) error {
		return c.remote.Jobs().Delete(ctx, c.accountID, id)
	})
}

// SaveDocument inserts d when it has no id yet and replaces it otherwise.
// Inserting counts against the per-job free tier limit and the usage counter.
func (c *SyncController) SaveDocument(ctx context.Context, d *domain.Document) error {
	create := d.ID == ""
	op := "update_document"
	if create {
		op = "create_document"
	}
	return c.write(ctx, op, func(ctx context.Context) error {
		if !d.Type.Valid() {
			return fmt.Errorf("%w: unknown document type %q", domain.ErrValidation, d.Type)
		}
		d.AccountID = c.accountID
		if len(d.Payload) == 0 {
			d.Payload = []byte("{}")
		}
		if !create {
			if err := c.validateEntity(d); err != nil {
				return err
			}
			return c.remote.Documents().Update(ctx, d)
		}

		if !c.CheckDocumentLimit(d.JobID) {
			return domain.ErrLimitReached
		}
		d.ID = c.newID()
		d.CreatedAt = c.now()
		if err := c.validateEntity(d); err != nil {
			d.ID = ""
			return err
		}
		if err := c.remote.Documents().Insert(ctx, d); err != nil {
			d.ID = ""
			return err
		}
		if err := c.remote.Profiles().IncrementUsage(ctx, c.accountID, 1, 0); err != nil {
			c.log.Warn().Err(err).Str("document_id", d.ID).Msg("failed to count generated document")
		}
		return nil
	})
}

// DeleteDocument removes a document.
func (c *SyncController) DeleteDocument(ctx context.Context, id string) error {
	return c.write(ctx, "delete_document", func(ctx context.Context) error {
		return c.remote.Documents().Delete(ctx, c.accountID, id)
	})
}

// SaveClient inserts cl when it has no id yet and replaces it otherwise.
// Portal keys are managed separately and never written here.
func (c *SyncController) SaveClient(ctx context.Context, cl *domain.Client) error {
	create := cl.ID == ""
	op := "update_client"
	if create {
		op = "create_client"
	}
	return c.write(ctx, op, func(ctx context.Context) error {
		cl.AccountID = c.accountID
		if !create {
			if err := c.validateEntity(cl); err != nil {
				return err
			}
			return c.remote.Clients().Update(ctx, cl)
		}

		if !c.CheckLimit(domain.ResourceClients) {
			return domain.ErrLimitReached
		}
		cl.ID = c.newID()
		cl.CreatedAt = c.now()
		cl.PortalKeyID, cl.PortalKeyHash = "", ""
		if err := c.validateEntity(cl); err != nil {
			cl.ID = ""
			return err
		}
		if err := c.remote.Clients().Insert(ctx, cl); err != nil {
			cl.ID = ""
			return err
		}
		return nil
	})
}

// DeleteClient removes a client.
func (c *SyncController) DeleteClient(ctx context.Context, id string) error {
	return c.write(ctx, "delete_client", func(ctx context.Context) error {
		return c.remote.Clients().Delete(ctx, c.accountID, id)
	})
}

// SaveSavedItem inserts or replaces a price book entry. An insert rejected as
// invalid or unauthorized is retried once with the core fields only.
func (c *SyncController) SaveSavedItem(ctx context.Context, s *domain.SavedItem) error {
	create := s.ID == ""
	op := "update_saved_item"
	if create {
		op = "create_saved_item"
	}
	return c.write(ctx, op, func(ctx context.Context) error {
		s.AccountID = c.accountID
		if !create {
			if err := c.validateEntity(s); err != nil {
				return err
			}
			return c.remote.SavedItems().Update(ctx, s)
		}

		s.ID = c.newID()
		s.CreatedAt = c.now()
		if err := c.validateEntity(s); err != nil {
			s.ID = ""
			return err
		}
		err := c.remote.SavedItems().Insert(ctx, s)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrValidation) && !errors.Is(err, domain.ErrAuthorization) {
			s.ID = ""
			return err
		}

		c.log.Warn().Err(err).Str("saved_item_id", s.ID).Msg("saved item rejected, retrying with core fields")
		core := s.CoreFields()
		if retryErr := c.remote.SavedItems().Insert(ctx, &core); retryErr != nil {
			s.ID = ""
			return fmt.Errorf("reduced-field retry: %w", retryErr)
		}
		*s = core
		return nil
	})
}

// DeleteSavedItem removes a price book entry.
func (c *SyncController) DeleteSavedItem(ctx context.Context, id string) error {
	return c.write(ctx, "delete_saved_item", func(ctx context.Context) error {
		return c.remote.SavedItems().Delete(ctx, c.accountID, id)
	})
}

func (c *SyncController) validateJob(j *domain.Job) error {
	if err := c.validateEntity(j); err != nil {
		return err
	}
	if j.StartDate != nil && j.EndDate != nil && j.EndDate.Before(*j.StartDate) {
		return fmt.Errorf("%w: end date before start date", domain.ErrValidation)
	}
	return nil
}

func (c *SyncController) denormaliseClient(j *domain.Job) {
	if j.ClientID == "" {
		return
	}
	for _, cl := range c.state.Clients() {
		if cl.ID != j.ClientID {
			continue
		}
		if j.ClientName == "" {
			j.ClientName = cl.Name
		}
		if j.ClientAddress == "" {
			j.ClientAddress = cl.Address
		}
		return
	}
}

// patchJobStatus sets the published status of job id and returns the previous
// one. ok is false when the job is not published.
func (c *SyncController) patchJobStatus(id string, status domain.JobStatus) (prev domain.JobStatus, ok bool) {
	c.state.update(func(s *Snapshot) {
		for i := range s.Jobs {
			if s.Jobs[i].ID == id {
				prev, ok = s.Jobs[i].Status, true
				s.Jobs[i].Status = status
				return
			}
		}
	})
	return prev, ok
}
