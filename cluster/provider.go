// Package cluster is the narrow client surface of the storage cluster
// (tracker + storage groups). Tools talk to the cluster only through
// Provider and Conn; the wire protocol behind them is not this
// package's concern.
package cluster

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/happyfish100/fdfs-batch/config"
	"github.com/happyfish100/fdfs-batch/model"
)

var (
	// ErrNotFound means the identifier names no stored object.
	ErrNotFound = errors.New("object not found")
	// ErrConnect means the cluster could not be reached.
	ErrConnect = errors.New("cannot connect to cluster")
)

// MetadataMode selects how SetMetadata treats existing entries.
type MetadataMode int

const (
	// MetadataOverwrite replaces the whole metadata map.
	MetadataOverwrite MetadataMode = iota
	// MetadataMerge keeps existing entries not present in the update.
	MetadataMerge
)

// Conn is one logical connection to the cluster. Workers hold at most
// one Conn at a time and release it before claiming the next item.
type Conn interface {
	// FetchAttributes retrieves size, creation time, checksum and the
	// last-access hint of an object.
	FetchAttributes(ctx context.Context, id string) (*model.Attributes, error)
	// FetchMetadata retrieves the object's metadata map. An object
	// without metadata yields an empty map, not an error.
	FetchMetadata(ctx context.Context, id string) (map[string]string, error)
	Delete(ctx context.Context, id string) error
	// Download reads the whole object into memory.
	Download(ctx context.Context, id string) ([]byte, error)
	// Upload stores data in the given storage group ("" = any) and
	// returns the new identifier chosen by the cluster.
	Upload(ctx context.Context, data []byte, group string) (string, error)
	SetMetadata(ctx context.Context, id string, meta map[string]string, mode MetadataMode) error
	Close() error
}

// Provider hands out connections. Each item gets its own Connect call
// unless connection reuse is enabled in the cluster config.
type Provider interface {
	Connect(ctx context.Context) (Conn, error)
	Close() error
}

// CreateProvider creates a cluster provider based on configuration.
func CreateProvider(cfg *config.ClusterConfig) (Provider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cluster configuration: %w", err)
	}

	var p Provider
	var err error
	switch cfg.ClusterType {
	case config.ClusterTypeS3:
		p, err = NewS3Gateway(cfg.S3, cfg)
	default:
		return nil, fmt.Errorf("unsupported cluster type: %s", cfg.ClusterType)
	}
	if err != nil {
		return nil, err
	}

	if cfg.MaxRPS > 0 {
		p = WithRateLimit(p, cfg.MaxRPS)
	}
	return p, nil
}

// ContentHash computes the checksum the cluster records for object
// content (hex MD5, matching gateway ETags for plain uploads).
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// GroupOf extracts the storage group from an identifier, e.g.
// "group1" from "group1/M00/00/2F/abc.jpg". Empty when the identifier
// has no group prefix.
func GroupOf(id string) string {
	if i := strings.Index(id, "/"); i > 0 {
		return id[:i]
	}
	return ""
}
