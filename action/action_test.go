package action

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/happyfish100/fdfs-batch/cluster"
	"github.com/happyfish100/fdfs-batch/model"
)

// seedItem stores one object and returns a connection plus a work item
// with attributes populated the way the engine would populate them.
func seedItem(t *testing.T, mem *cluster.Memory, id string, data []byte) (cluster.Conn, *model.WorkItem) {
	t.Helper()
	mem.Put(id, data, time.Now().Add(-time.Hour), nil)
	conn, err := mem.Connect(context.Background())
	require.NoError(t, err)
	attrs, err := conn.FetchAttributes(context.Background(), id)
	require.NoError(t, err)
	return conn, &model.WorkItem{ID: id, Attrs: attrs, Matched: true}
}

func TestDelete_SecondRunTreatsAbsentAsSuccess(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	del := NewDelete(false)
	detail, bytes, err := del.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "deleted", detail)
	require.Equal(t, int64(4), bytes)
	require.False(t, mem.Exists(item.ID))

	detail, _, err = del.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "already absent", detail)
	require.Equal(t, 1, mem.Deletes)
}

func TestDelete_DryRunTouchesNothing(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	detail, _, err := NewDelete(true).Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "would delete", detail)
	require.True(t, mem.Exists(item.ID))
	require.Equal(t, 0, mem.Deletes)
}

func TestTag_RequiresSetOrStrip(t *testing.T) {
	_, err := NewTag(nil, nil, false)
	require.Error(t, err)
}

func TestTag_SecondRunIsNoOp(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	tag, err := NewTag(map[string]string{"Tier": "cold"}, nil, false)
	require.NoError(t, err)

	detail, _, err := tag.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "added tier", detail)
	require.Equal(t, "cold", mem.Metadata(item.ID)["tier"])

	// Keys compare case-insensitively, so the rerun changes nothing.
	detail, _, err = tag.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "tags already in place", detail)
	require.Equal(t, 1, mem.SetMetas)
}

func TestTag_StripRemovesExistingKeyOnly(t *testing.T) {
	mem := cluster.NewMemory()
	mem.Put("group1/a.dat", []byte("x"), time.Now(), map[string]string{"tier": "cold", "owner": "ops"})
	conn, err := mem.Connect(context.Background())
	require.NoError(t, err)
	item := &model.WorkItem{ID: "group1/a.dat", Attrs: &model.Attributes{Size: 1}}

	tag, err := NewTag(nil, []string{"TIER", "missing"}, false)
	require.NoError(t, err)
	detail, _, err := tag.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "stripped tier", detail)

	meta := mem.Metadata("group1/a.dat")
	require.NotContains(t, meta, "tier")
	require.Equal(t, "ops", meta["owner"])
}

func TestTag_DryRunTouchesNothing(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	tag, err := NewTag(map[string]string{"tier": "cold"}, nil, true)
	require.NoError(t, err)
	detail, _, err := tag.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "would tag (add 1, strip 0)", detail)
	require.Empty(t, mem.Metadata(item.ID))
	require.Equal(t, 0, mem.SetMetas)
}

func TestBackup_SkipsAlreadyPresentCopies(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/2F/photo.jpg", []byte("jpegbytes"))

	base := t.TempDir()
	dest, err := NewDirDestination(base)
	require.NoError(t, err)

	backup := NewBackup(dest, true, false)
	detail, bytes, err := backup.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "copied to destination", detail)
	require.Equal(t, int64(9), bytes)

	got, err := os.ReadFile(filepath.Join(base, "group1", "M00", "00", "2F", "photo.jpg"))
	require.NoError(t, err)
	require.Equal(t, []byte("jpegbytes"), got)

	mem.Downloads = 0
	detail, _, err = backup.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "already present at destination", detail)
	require.Equal(t, 0, mem.Downloads)
}

func TestBackup_DryRunDownloadsNothing(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	dest, err := NewDirDestination(t.TempDir())
	require.NoError(t, err)

	detail, _, err := NewBackup(dest, true, true).Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "would copy to destination", detail)
	require.Equal(t, 0, mem.Downloads)
}

func TestRepair_IntactChecksumIsLeftAlone(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	detail, _, err := NewRepair(false).Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "checksum intact", detail)
	require.Equal(t, 0, mem.Uploads)
}

func TestRepair_MismatchReuploadsOnceThenHonorsMarker(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))
	// Simulate a cluster whose recorded checksum no longer matches the
	// stored bytes.
	item.Attrs.Checksum = "deadbeef"

	rep := NewRepair(false)
	detail, _, err := rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Contains(t, detail, "re-uploaded as ")
	require.NotEmpty(t, item.ResultID)
	require.True(t, mem.Exists(item.ResultID))
	require.Equal(t, item.ResultID, mem.Metadata(item.ID)["repaired-as"])

	first := item.ResultID
	detail, _, err = rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "already repaired as "+first, detail)
	require.Equal(t, 1, mem.Uploads)
}

func TestRepair_DryRunReportsMismatchWithoutUpload(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))
	item.Attrs.Checksum = "deadbeef"

	detail, _, err := NewRepair(true).Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "would re-upload (checksum mismatch)", detail)
	require.Equal(t, 0, mem.Uploads)
}

func TestReplicate_CreatesCopyOnceThenVerifiesMarker(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	rep, err := NewReplicate("group2", false)
	require.NoError(t, err)

	detail, _, err := rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Contains(t, detail, "replicated to group2 as ")
	require.Equal(t, "group2", cluster.GroupOf(item.ResultID))
	require.Equal(t, []byte("data"), mem.Object(item.ResultID))

	first := item.ResultID
	detail, _, err = rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "already replicated as "+first, detail)
	require.Equal(t, 1, mem.Uploads)
}

func TestReplicate_StaleMarkerIsReplaced(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	rep, err := NewReplicate("group2", false)
	require.NoError(t, err)
	_, _, err = rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)

	// The replica disappeared; the marker must not be trusted.
	require.NoError(t, conn.Delete(context.Background(), item.ResultID))

	detail, _, err := rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Contains(t, detail, "replicated to group2 as ")
	require.True(t, mem.Exists(item.ResultID))
	require.Equal(t, 2, mem.Uploads)
}

func TestReplicate_SameGroupIsANoOp(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group2/M00/00/00/a.dat", []byte("data"))

	rep, err := NewReplicate("group2", false)
	require.NoError(t, err)
	detail, _, err := rep.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "already in group group2", detail)
	require.Equal(t, 0, mem.Uploads)
}

func TestRebalance_MovesThenRemovesSource(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	reb, err := NewRebalance("group2", false)
	require.NoError(t, err)
	detail, bytes, err := reb.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Contains(t, detail, "moved to ")
	require.Equal(t, int64(4), bytes)
	require.False(t, mem.Exists(item.ID))
	require.Equal(t, []byte("data"), mem.Object(item.ResultID))
	require.Equal(t, "group2", cluster.GroupOf(item.ResultID))
}

func TestRebalance_RerunAfterDeleteFailureDoesNotDuplicate(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))
	mem.FailDelete = map[string]error{item.ID: errors.New("storage node offline")}

	reb, err := NewRebalance("group2", false)
	require.NoError(t, err)

	// First attempt: the copy lands in group2, then the source delete
	// fails.
	_, _, err = reb.Apply(context.Background(), conn, item)
	require.Error(t, err)
	require.Contains(t, err.Error(), "source delete failed")
	require.Equal(t, 1, mem.Uploads)

	rid := mem.Metadata(item.ID)["moved-as"]
	require.NotEmpty(t, rid)
	require.Equal(t, []byte("data"), mem.Object(rid))

	// Rerun with the node back: the move finishes without a second
	// upload.
	mem.FailDelete = nil
	detail, _, err := reb.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "moved to "+rid, detail)
	require.Equal(t, rid, item.ResultID)
	require.Equal(t, 1, mem.Uploads)
	require.False(t, mem.Exists(item.ID))
	require.Equal(t, 1, mem.Count())
}

func TestRebalance_StaleMarkerMovesAgain(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))
	// The marker names a copy that no longer exists.
	require.NoError(t, conn.SetMetadata(context.Background(), item.ID,
		map[string]string{"moved-as": "group2/M00/00/00/gone.dat"}, cluster.MetadataMerge))

	reb, err := NewRebalance("group2", false)
	require.NoError(t, err)
	detail, _, err := reb.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Contains(t, detail, "moved to ")
	require.Equal(t, 1, mem.Uploads)
	require.False(t, mem.Exists(item.ID))
	require.Equal(t, []byte("data"), mem.Object(item.ResultID))
}

func TestRebalance_DryRunMovesNothing(t *testing.T) {
	mem := cluster.NewMemory()
	conn, item := seedItem(t, mem, "group1/M00/00/00/a.dat", []byte("data"))

	reb, err := NewRebalance("group2", true)
	require.NoError(t, err)
	detail, _, err := reb.Apply(context.Background(), conn, item)
	require.NoError(t, err)
	require.Equal(t, "would move to group2", detail)
	require.True(t, mem.Exists(item.ID))
	require.Equal(t, 0, mem.Uploads)
	require.Equal(t, 0, mem.Deletes)
}

func TestParseDestination(t *testing.T) {
	dir := t.TempDir()
	dest, err := ParseDestination("dir://" + dir)
	require.NoError(t, err)
	require.IsType(t, &DirDestination{}, dest)

	_, err = ParseDestination("sftp://host/path")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported backup destination scheme")
}
