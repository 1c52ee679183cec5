package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

type jobRepo struct{ s *Store }

func (r jobRepo) List(ctx context.Context, accountID string) ([]domain.Job, error) {
	return findAll[domain.Job](ctx, r.s, domain.CollectionJobs, bson.M{"account_id": accountID}, newestFirst)
}

func (r jobRepo) Insert(ctx context.Context, j *domain.Job) error {
	return insertOne(ctx, r.s, domain.CollectionJobs, j)
}

func (r jobRepo) Update(ctx context.Context, j *domain.Job) error {
	update := bson.M{"$set": bson.M{
		"name":           j.Name,
		"client_id":      j.ClientID,
		"client_name":    j.ClientName,
		"client_address": j.ClientAddress,
		"start_date":     j.StartDate,
		"end_date":       j.EndDate,
		"status":         j.Status,
	}}
	return updateScoped(ctx, r.s, domain.CollectionJobs, "update", j.AccountID, j.ID, update)
}

func (r jobRepo) SetStatus(ctx context.Context, accountID, id string, status domain.JobStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}
	return updateScoped(ctx, r.s, domain.CollectionJobs, "set_status", accountID, id, update)
}

// Delete removes the job and then its documents.
func (r jobRepo) Delete(ctx context.Context, accountID, id string) error {
	if err := deleteScoped(ctx, r.s, domain.CollectionJobs, accountID, id); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	_, err := r.s.col(domain.CollectionDocuments).DeleteMany(ctx, bson.M{"account_id": accountID, "job_id": id})
	if err != nil {
		return classify("delete", domain.CollectionDocuments, fmt.Errorf("cascade job %s: %w", id, err))
	}
	return nil
}
