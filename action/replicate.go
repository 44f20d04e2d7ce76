package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Replicate)(nil)

// Replicate ensures a copy of the object exists in the target storage
// group. The original carries a "replica-<group>" metadata entry
// naming its replica; before writing, the replica's checksum is
// verified so re-running never duplicates a healthy copy.
type Replicate struct {
	group  string
	dryRun bool
}

// NewReplicate creates the replicate executor for the target group.
func NewReplicate(group string, dryRun bool) (*Replicate, error) {
	if group == "" {
		return nil, fmt.Errorf("replicate action needs a target group")
	}
	return &Replicate{group: group, dryRun: dryRun}, nil
}

func (r *Replicate) Name() string { return "replicate" }

func (r *Replicate) markerKey() string { return "replica-" + r.group }

func (r *Replicate) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	if cluster.GroupOf(item.ID) == r.group {
		return "already in group " + r.group, item.Attrs.Size, nil
	}

	meta, err := conn.FetchMetadata(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	if rid, ok := meta[r.markerKey()]; ok {
		// Verify before trusting the marker: the replica must still
		// exist with the same content.
		replica, err := conn.FetchAttributes(ctx, rid)
		if err == nil && replica.Checksum == item.Attrs.Checksum {
			item.ResultID = rid
			return fmt.Sprintf("already replicated as %s", rid), item.Attrs.Size, nil
		}
		if err != nil && !errors.Is(err, cluster.ErrNotFound) {
			return "", 0, err
		}
		// Marker is stale; fall through and replicate again.
	}

	if r.dryRun {
		return "would replicate to " + r.group, item.Attrs.Size, nil
	}

	data, err := conn.Download(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	rid, err := conn.Upload(ctx, data, r.group)
	if err != nil {
		return "", 0, fmt.Errorf("replicate upload: %w", err)
	}
	if err := conn.SetMetadata(ctx, item.ID, map[string]string{r.markerKey(): rid}, cluster.MetadataMerge); err != nil {
		return "", 0, fmt.Errorf("mark replicated: %w", err)
	}
	item.ResultID = rid
	return fmt.Sprintf("replicated to %s as %s", r.group, rid), int64(len(data)), nil
}
