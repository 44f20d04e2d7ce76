package action

import (
	"context"
	"fmt"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Backup)(nil)

// Backup copies matching objects to a backup destination under the
// same relative path. With skip-if-exists (the default) an already
// present copy counts as success, so reruns only transfer what a
// previous run missed.
type Backup struct {
	dest       Destination
	skipExists bool
	dryRun     bool
}

// NewBackup creates the backup executor.
func NewBackup(dest Destination, skipExists, dryRun bool) *Backup {
	return &Backup{dest: dest, skipExists: skipExists, dryRun: dryRun}
}

func (b *Backup) Name() string { return "backup" }

func (b *Backup) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	if b.skipExists {
		exists, err := b.dest.Exists(ctx, item.ID)
		if err != nil {
			return "", 0, fmt.Errorf("destination check: %w", err)
		}
		if exists {
			return "already present at destination", item.Attrs.Size, nil
		}
	}

	if b.dryRun {
		return "would copy to destination", item.Attrs.Size, nil
	}

	data, err := conn.Download(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	if err := b.dest.Store(ctx, item.ID, data); err != nil {
		return "", 0, err
	}
	return "copied to destination", int64(len(data)), nil
}
