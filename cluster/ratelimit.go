package cluster

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/happyfish100/fdfs-batch/model"
)

// WithRateLimit wraps a provider so all connections share one
// token-bucket limit on collaborator requests.
func WithRateLimit(p Provider, maxRPS int) Provider {
	return &limitedProvider{
		inner:   p,
		limiter: rate.NewLimiter(rate.Limit(maxRPS), maxRPS),
	}
}

type limitedProvider struct {
	inner   Provider
	limiter *rate.Limiter
}

func (p *limitedProvider) Connect(ctx context.Context) (Conn, error) {
	conn, err := p.inner.Connect(ctx)
	if err != nil {
		return nil, err
	}
	return &limitedConn{inner: conn, limiter: p.limiter}, nil
}

func (p *limitedProvider) Close() error { return p.inner.Close() }

type limitedConn struct {
	inner   Conn
	limiter *rate.Limiter
}

func (c *limitedConn) wait(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

func (c *limitedConn) FetchAttributes(ctx context.Context, id string) (*model.Attributes, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.FetchAttributes(ctx, id)
}

func (c *limitedConn) FetchMetadata(ctx context.Context, id string) (map[string]string, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.FetchMetadata(ctx, id)
}

func (c *limitedConn) Delete(ctx context.Context, id string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.inner.Delete(ctx, id)
}

func (c *limitedConn) Download(ctx context.Context, id string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	return c.inner.Download(ctx, id)
}

func (c *limitedConn) Upload(ctx context.Context, data []byte, group string) (string, error) {
	if err := c.wait(ctx); err != nil {
		return "", err
	}
	return c.inner.Upload(ctx, data, group)
}

func (c *limitedConn) SetMetadata(ctx context.Context, id string, meta map[string]string, mode MetadataMode) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	return c.inner.SetMetadata(ctx, id, meta, mode)
}

func (c *limitedConn) Close() error { return c.inner.Close() }
