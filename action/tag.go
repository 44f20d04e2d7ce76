package action

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

var _ Executor = (*Tag)(nil)

// Tag merges metadata entries into the object and/or strips keys from
// it. Merging is a set union keyed case-insensitively, so re-adding an
// already-present tag changes nothing and the action stays idempotent.
type Tag struct {
	set    map[string]string
	strip  []string
	dryRun bool
}

// NewTag creates the tag executor. set entries are merged in, strip
// keys are removed; both may be given.
func NewTag(set map[string]string, strip []string, dryRun bool) (*Tag, error) {
	if len(set) == 0 && len(strip) == 0 {
		return nil, fmt.Errorf("tag action needs at least one --set or --strip")
	}
	cp := make(map[string]string, len(set))
	for k, v := range set {
		cp[strings.ToLower(k)] = v
	}
	lowered := make([]string, 0, len(strip))
	for _, k := range strip {
		lowered = append(lowered, strings.ToLower(k))
	}
	return &Tag{set: cp, strip: lowered, dryRun: dryRun}, nil
}

func (t *Tag) Name() string { return "tag" }

func (t *Tag) Apply(ctx context.Context, conn cluster.Conn, item *model.WorkItem) (string, int64, error) {
	existing, err := conn.FetchMetadata(ctx, item.ID)
	if err != nil {
		return "", 0, err
	}

	merged := make(map[string]string, len(existing)+len(t.set))
	for k, v := range existing {
		merged[strings.ToLower(k)] = v
	}

	changed := false
	var added, removed []string
	for k, v := range t.set {
		if cur, ok := merged[k]; !ok || cur != v {
			merged[k] = v
			changed = true
			added = append(added, k)
		}
	}
	for _, k := range t.strip {
		if _, ok := merged[k]; ok {
			delete(merged, k)
			changed = true
			removed = append(removed, k)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)

	if !changed {
		return "tags already in place", item.Attrs.Size, nil
	}
	if t.dryRun {
		return fmt.Sprintf("would tag (add %d, strip %d)", len(added), len(removed)), item.Attrs.Size, nil
	}

	// Overwrite with the merged map so strips take effect too.
	if err := conn.SetMetadata(ctx, item.ID, merged, cluster.MetadataOverwrite); err != nil {
		return "", 0, err
	}

	var parts []string
	if len(added) > 0 {
		parts = append(parts, "added "+strings.Join(added, ","))
	}
	if len(removed) > 0 {
		parts = append(parts, "stripped "+strings.Join(removed, ","))
	}
	return strings.Join(parts, "; "), item.Attrs.Size, nil
}
