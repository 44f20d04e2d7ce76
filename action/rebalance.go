package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Rebalance)(nil)

// movedAsKey marks a source whose copy already landed in the target
// group, so a rerun after a failed source delete finishes the move
// instead of uploading a second copy.
const movedAsKey = "moved-as"

// Rebalance moves the object to the target storage group: upload to
// the target, mark the source, then delete it. Objects already in the
// target group are left alone. The marker is verified by checksum
// before being trusted, so interrupted or partially failed runs can be
// re-run without duplicating the target copy.
type Rebalance struct {
	group  string
	dryRun bool
}

// NewRebalance creates the rebalance executor for the target group.
func NewRebalance(group string, dryRun bool) (*Rebalance, error) {
	if group == "" {
		return nil, fmt.Errorf("rebalance action needs a target group")
	}
	return &Rebalance{group: group, dryRun: dryRun}, nil
}

func (r *Rebalance) Name() string { return "rebalance" }

func (r *Rebalance) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	if cluster.GroupOf(item.ID) == r.group {
		return "already in group " + r.group, item.Attrs.Size, nil
	}

	meta, err := conn.FetchMetadata(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	if rid, ok := meta[movedAsKey]; ok {
		target, err := conn.FetchAttributes(ctx, rid)
		if err != nil && !errors.Is(err, cluster.ErrNotFound) {
			return "", 0, err
		}
		if err == nil && target.Checksum == item.Attrs.Checksum {
			// The copy landed in a previous run; only the source
			// delete is left.
			return r.finish(ctx, conn, item, rid, item.Attrs.Size)
		}
		// Marker is stale; move again.
	}

	if r.dryRun {
		return "would move to " + r.group, item.Attrs.Size, nil
	}

	data, err := conn.Download(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	rid, err := conn.Upload(ctx, data, r.group)
	if err != nil {
		return "", 0, fmt.Errorf("move upload: %w", err)
	}
	if err := conn.SetMetadata(ctx, item.ID, map[string]string{movedAsKey: rid}, cluster.MetadataMerge); err != nil {
		return "", 0, fmt.Errorf("mark moved: %w", err)
	}

	return r.finish(ctx, conn, item, rid, int64(len(data)))
}

// finish removes the source after its copy is confirmed in the target
// group. A source some other run already removed is fine.
func (r *Rebalance) finish(ctx context.Context, conn cluster.Conn, item *model.WorkItem, rid string, bytes int64) (string, int64, error) {
	if err := conn.Delete(ctx, item.ID); err != nil && !errors.Is(err, cluster.ErrNotFound) {
		return "", 0, fmt.Errorf("moved to %s but source delete failed: %w", rid, err)
	}
	item.ResultID = rid
	return fmt.Sprintf("moved to %s", rid), bytes, nil
}
