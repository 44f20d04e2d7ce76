package action

import (
	"context"
	"fmt"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Repair)(nil)

// repairedAsKey marks an object whose content was re-uploaded, so a
// rerun recognizes the repair instead of repeating it.
const repairedAsKey = "repaired-as"

// Repair verifies the recorded checksum against the downloaded
// content. On a mismatch it uploads a fresh copy (which makes the
// cluster record a correct checksum) and marks the original with the
// replacement identifier.
type Repair struct {
	dryRun bool
}

// NewRepair creates the repair executor.
func NewRepair(dryRun bool) *Repair {
	return &Repair{dryRun: dryRun}
}

func (r *Repair) Name() string { return "repair" }

func (r *Repair) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	meta, err := conn.FetchMetadata(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	if rid, ok := meta[repairedAsKey]; ok {
		item.ResultID = rid
		return fmt.Sprintf("already repaired as %s", rid), item.Attrs.Size, nil
	}

	data, err := conn.Download(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}
	if cluster.ContentHash(data) == item.Attrs.Checksum {
		return "checksum intact", int64(len(data)), nil
	}

	if r.dryRun {
		return "would re-upload (checksum mismatch)", int64(len(data)), nil
	}

	rid, err := conn.Upload(ctx, data, cluster.GroupOf(item.ID))
	if err != nil {
		return "", 0, fmt.Errorf("re-upload: %w", err)
	}
	if err := conn.SetMetadata(ctx, item.ID, map[string]string{repairedAsKey: rid}, cluster.MetadataMerge); err != nil {
		return "", 0, fmt.Errorf("mark repaired: %w", err)
	}
	item.ResultID = rid
	return fmt.Sprintf("re-uploaded as %s", rid), int64(len(data)), nil
}
