package session

import (
	"context"

	"threadhub/pkg/models"
)

type credentialKey struct{}

func withCredential(ctx context.Context, cred models.Credential) context.Context {
	return context.WithValue(ctx, credentialKey{}, cred)
}

func credentialFrom(ctx context.Context) (models.Credential, bool) {
	cred, ok := ctx.Value(credentialKey{}).(models.Credential)
	return cred, ok && cred.Valid()
}

// storeOps adapts the backend to the store's per-article view. The
// credential travels in the context of each call.
type storeOps struct {
	c *Controller
}

func (o storeOps) Create(ctx context.Context, parentID *int64, content string) (*models.CreateResult, error) {
	cred, ok := credentialFrom(ctx)
	if !ok {
		return nil, models.ErrUnauthenticated
	}
	return o.c.backend.CreateComment(ctx, cred, o.c.articleID, content, parentID)
}

func (o storeOps) Delete(ctx context.Context, id int64) error {
	cred, ok := credentialFrom(ctx)
	if !ok {
		return models.ErrUnauthenticated
	}
	return o.c.backend.DeleteComment(ctx, cred, id)
}
