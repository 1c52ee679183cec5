package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/tradeworks/contractor-hub/internal/core/domain"
)

// Server error codes mapped to store error kinds.
const (
	codeUnauthorized         = 13
	codeAuthenticationFailed = 18
	codeNamespaceNotFound    = 26
	codeDocumentValidation   = 121
	codeAtlasAuthorization   = 8000
)

// classify converts a driver error into a *domain.StoreError.
func classify(op string, c domain.Collection, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := domain.KindOf(err); ok {
		return err
	}

	kind := domain.KindTransient
	var se mongo.ServerError
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		kind = domain.KindNotFound
	case mongo.IsDuplicateKeyError(err):
		kind = domain.KindValidation
	case mongo.IsNetworkError(err), mongo.IsTimeout(err), errors.Is(err, context.DeadlineExceeded):
		kind = domain.KindTransient
	case errors.As(err, &se):
		switch {
		case se.HasErrorCode(codeUnauthorized), se.HasErrorCode(codeAuthenticationFailed), se.HasErrorCode(codeAtlasAuthorization):
			kind = domain.KindAuthorization
		case se.HasErrorCode(codeNamespaceNotFound):
			kind = domain.KindSchemaMismatch
		case se.HasErrorCode(codeDocumentValidation):
			kind = domain.KindValidation
		}
	}
	return domain.NewStoreError(kind, op, c, err)
}
