// Package action holds the per-tool executors the batch engine invokes
// on matching items. Every executor is idempotent: re-applying it to
// the same item and pre-state succeeds again and leaves the cluster as
// after a single application. Dry-run executors walk the same path but
// stop at the mutation boundary and report success.
package action

import (
	"context"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

// Executor applies one tool's action to a matching item. Apply may
// call the collaborator a few times (read, verify, write) and must
// either durably confirm the new state or report an error with the
// original state assumed unchanged. bytes is the byte total the action
// affected, counted into the run stats on success.
type Executor interface {
	Name() string
	Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (detail string, bytes int64, err error)
}
