package action

import (
	"context"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Match)(nil)

// Match is the search tool's executor: it mutates nothing and simply
// confirms the item, so matched bytes accumulate into the run stats.
type Match struct{}

// NewMatch creates the match-only executor.
func NewMatch() *Match { return &Match{} }

func (m *Match) Name() string { return "match" }

func (m *Match) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	return "matched", item.Attrs.Size, nil
}
