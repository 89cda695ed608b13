package repository

import (
	"context"

	"github.com/kvn3toj/beforenostr-sub004/domain/model"
)

// IDurationSource fetches a duration in seconds for an external ID.
// Errors wrap model.ErrProviderUnavailable, model.ErrNetworkFailure or
// model.ErrParseFailure.
type IDurationSource interface {
	FetchDuration(ctx context.Context, externalID string) (int, error)
}

// ILightMetadata fetches title and author from an unauthenticated endpoint.
type ILightMetadata interface {
	FetchMetadata(ctx context.Context, externalID string) (*model.LightMetadata, error)
}

// IExistenceProbe confirms that an external ID refers to a real video.
type IExistenceProbe interface {
	Exists(ctx context.Context, externalID string) (bool, error)
}
