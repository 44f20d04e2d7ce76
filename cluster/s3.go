package cluster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"

	"github.com/happyfish100/fdfs-batch/config"
	"github.com/happyfish100/fdfs-batch/model"

	s3config "github.com/aws/aws-sdk-go-v2/config"
)

var _ Provider = (*S3Gateway)(nil)

// lastAccessKey is the metadata entry some deployments maintain as an
// access-time hint. Absent means no hint.
const lastAccessKey = "last-access"

// S3API is the subset of the gateway client the provider needs, split
// out so tests can substitute their own implementation.
type S3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	CopyObject(ctx context.Context, params *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

// S3Gateway accesses the cluster through its S3-compatible gateway.
// Identifiers map directly to object keys in one bucket; the first
// path segment is the storage group.
type S3Gateway struct {
	awsCfg  aws.Config
	cfg     *config.S3GatewayConfig
	timeout time.Duration
	reuse   bool

	// test seam: when set, every Conn uses this client instead of
	// building one.
	client S3API

	// mu guards shared; workers call Connect concurrently.
	mu     sync.Mutex
	shared *s3Conn
}

// NewS3Gateway creates a gateway provider from configuration.
func NewS3Gateway(cfg *config.S3GatewayConfig, common *config.ClusterConfig) (*S3Gateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid gateway config: %w", err)
	}

	// For S3-compatible gateways the region is often a placeholder.
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	awsCfg, err := s3config.LoadDefaultConfig(
		context.TODO(),
		s3config.WithRegion(region),
		s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		s3config.WithClientLogMode(0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load gateway config: %w", err)
	}

	return &S3Gateway{
		awsCfg:  awsCfg,
		cfg:     cfg,
		timeout: time.Duration(common.TimeoutSeconds) * time.Second,
		reuse:   common.ReuseConn,
	}, nil
}

// NewS3GatewayWithClient wires a pre-built client, for tests.
func NewS3GatewayWithClient(client S3API, cfg *config.S3GatewayConfig) *S3Gateway {
	return &S3Gateway{client: client, cfg: cfg}
}

func (g *S3Gateway) newClient() S3API {
	if g.client != nil {
		return g.client
	}
	return s3.NewFromConfig(g.awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(g.cfg.Endpoint)
		// Path-style addressing for S3-compatible gateways.
		o.UsePathStyle = true
	})
}

// Connect returns a connection. Connection-per-item is the default;
// with reuse enabled every caller shares one connection whose Close is
// a no-op.
func (g *S3Gateway) Connect(ctx context.Context) (Conn, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnect, err)
	}
	if g.reuse {
		g.mu.Lock()
		defer g.mu.Unlock()
		if g.shared == nil {
			g.shared = &s3Conn{client: g.newClient(), bucket: g.cfg.Bucket, timeout: g.timeout}
		}
		return g.shared, nil
	}
	return &s3Conn{client: g.newClient(), bucket: g.cfg.Bucket, timeout: g.timeout}, nil
}

func (g *S3Gateway) Close() error { return nil }

type s3Conn struct {
	client  S3API
	bucket  string
	timeout time.Duration
}

func (c *s3Conn) Close() error { return nil }

func (c *s3Conn) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.timeout)
}

// isNotFound recognizes the gateway's missing-object answers.
func isNotFound(err error) bool {
	var nf *types.NotFound
	var nk *types.NoSuchKey
	return errors.As(err, &nf) || errors.As(err, &nk)
}

func (c *s3Conn) FetchAttributes(ctx context.Context, id string) (*model.Attributes, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("head %s: %w", id, err)
	}

	attrs := &model.Attributes{
		Checksum: strings.Trim(aws.ToString(out.ETag), `"`),
	}
	if out.ContentLength != nil {
		attrs.Size = *out.ContentLength
	}
	if out.LastModified != nil {
		attrs.CreatedAt = *out.LastModified
	}
	if v, ok := out.Metadata[lastAccessKey]; ok {
		if sec, err := strconv.ParseInt(v, 10, 64); err == nil {
			attrs.LastAccessedAt = time.Unix(sec, 0)
		}
	}
	return attrs, nil
}

func (c *s3Conn) FetchMetadata(ctx context.Context, id string) (map[string]string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("head %s: %w", id, err)
	}

	meta := make(map[string]string, len(out.Metadata))
	for k, v := range out.Metadata {
		meta[k] = v
	}
	return meta, nil
}

func (c *s3Conn) Delete(ctx context.Context, id string) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	// The gateway's delete is idempotent already, but probe first so
	// callers can distinguish "deleted" from "was never there".
	_, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("head %s: %w", id, err)
	}

	_, err = c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", id, err)
	}
	return nil
}

func (c *s3Conn) Download(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	out, err := c.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, fmt.Errorf("get %s: %w", id, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", id, err)
	}
	return data, nil
}

func (c *s3Conn) Upload(ctx context.Context, data []byte, group string) (string, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if group == "" {
		group = "group1"
	}
	id := generateID(group)

	_, err := c.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(id),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return "", fmt.Errorf("put %s: %w", id, err)
	}
	return id, nil
}

func (c *s3Conn) SetMetadata(ctx context.Context, id string, meta map[string]string, mode MetadataMode) error {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	merged := meta
	if mode == MetadataMerge {
		existing, err := c.FetchMetadata(ctx, id)
		if err != nil {
			return err
		}
		merged = existing
		for k, v := range meta {
			merged[k] = v
		}
	}

	// Self-copy with a replaced metadata map is the gateway's way to
	// rewrite metadata without touching content.
	_, err := c.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:            aws.String(c.bucket),
		Key:               aws.String(id),
		CopySource:        aws.String(c.bucket + "/" + id),
		Metadata:          merged,
		MetadataDirective: types.MetadataDirectiveReplace,
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return fmt.Errorf("set metadata %s: %w", id, err)
	}
	return nil
}

// generateID builds a fresh cluster identifier inside the group, using
// the usual two-level directory spread.
func generateID(group string) string {
	u := uuid.New()
	return fmt.Sprintf("%s/M00/%02X/%02X/%s", group, u[0], u[1], u.String())
}
