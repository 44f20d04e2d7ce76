package action

import (
	"context"
	"errors"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Delete)(nil)

// Delete removes the object from the cluster. An already-absent
// object counts as success, which makes reruns safe.
type Delete struct {
	dryRun bool
}

// NewDelete creates the delete executor.
func NewDelete(dryRun bool) *Delete {
	return &Delete{dryRun: dryRun}
}

func (d *Delete) Name() string { return "delete" }

func (d *Delete) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	size := item.Attrs.Size

	if d.dryRun {
		return "would delete", size, nil
	}

	if err := conn.Delete(ctx, item.ID); err != nil {
		if errors.Is(err, cluster.ErrNotFound) {
			return "already absent", size, nil
		}
		return "", 0, err
	}
	return "deleted", size, nil
}
