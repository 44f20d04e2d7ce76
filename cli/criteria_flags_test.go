package cli

import (
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/happyfish100/fdfs-batch/model"
)

func parseCriteriaFlags(t *testing.T, args ...string) *criteriaFlags {
	t.Helper()
	cf := &criteriaFlags{}
	cmd := &cobra.Command{Use: "probe", RunE: func(*cobra.Command, []string) error { return nil }}
	addCriteriaFlags(cmd, cf)
	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	require.NoError(t, cmd.Execute())
	return cf
}

func TestCriteriaFlags_Configured(t *testing.T) {
	require.False(t, parseCriteriaFlags(t).configured())
	require.True(t, parseCriteriaFlags(t, "--older-than", "720h").configured())
	require.True(t, parseCriteriaFlags(t, "--meta", "tier=cold").configured())
	require.True(t, parseCriteriaFlags(t, "--name", "*.tmp").configured())
	// --any alone configures nothing.
	require.False(t, parseCriteriaFlags(t, "--any").configured())
}

func TestCriteriaFlags_Build(t *testing.T) {
	cf := parseCriteriaFlags(t, "--older-than", "720h", "--min-size", "1024", "--meta", "tier=cold")
	crit, err := cf.build()
	require.NoError(t, err)

	old := &model.Attributes{
		Size:      4096,
		CreatedAt: time.Now().Add(-31 * 24 * time.Hour),
		Metadata:  map[string]string{"tier": "cold"},
	}
	matched, reason := crit.Evaluate("group1/a.dat", old)
	require.True(t, matched)
	require.NotEmpty(t, reason)

	young := &model.Attributes{Size: 4096, CreatedAt: time.Now(), Metadata: map[string]string{"tier": "cold"}}
	matched, _ = crit.Evaluate("group1/b.dat", young)
	require.False(t, matched)
}

func TestCriteriaFlags_MetaParseErrors(t *testing.T) {
	for _, bad := range []string{"noequals", "=value"} {
		cf := parseCriteriaFlags(t, "--meta", bad)
		_, err := cf.build()
		require.Error(t, err, "meta %q", bad)
		require.Contains(t, err.Error(), "--meta wants key=value")
	}
}

func TestCriteriaFlags_MetaValueMayContainEquals(t *testing.T) {
	cf := parseCriteriaFlags(t, "--meta", "query=a=b")
	crit, err := cf.build()
	require.NoError(t, err)

	attrs := &model.Attributes{Metadata: map[string]string{"query": "a=b"}}
	matched, _ := crit.Evaluate("group1/a.dat", attrs)
	require.True(t, matched)
}

func TestCriteriaFlags_BuildRequired(t *testing.T) {
	cf := parseCriteriaFlags(t)
	_, err := cf.buildRequired("cleanup")
	require.Error(t, err)
	require.Contains(t, err.Error(), "cleanup requires at least one criteria flag")

	cf = parseCriteriaFlags(t, "--idle-for", "2160h")
	crit, err := cf.buildRequired("cleanup")
	require.NoError(t, err)
	require.NotNil(t, crit)
}

func TestCriteriaFlags_BuildOptional(t *testing.T) {
	cf := parseCriteriaFlags(t)
	crit, err := cf.buildOptional()
	require.NoError(t, err)
	require.Nil(t, crit)

	cf = parseCriteriaFlags(t, "--max-size", "1048576")
	crit, err = cf.buildOptional()
	require.NoError(t, err)
	require.NotNil(t, crit)
}

func TestCriteriaFlags_AnyMode(t *testing.T) {
	cf := parseCriteriaFlags(t, "--any", "--min-size", "1048576", "--name", "*.tmp")
	crit, err := cf.build()
	require.NoError(t, err)

	// Small but pattern-matching: any-mode accepts it.
	attrs := &model.Attributes{Size: 10, CreatedAt: time.Now()}
	matched, reason := crit.Evaluate("group1/M00/00/00/scratch.tmp", attrs)
	require.True(t, matched)
	require.Contains(t, reason, `matches "*.tmp"`)
}

func TestCriteriaFlags_BadDurationRejectedByParser(t *testing.T) {
	cf := &criteriaFlags{}
	cmd := &cobra.Command{Use: "probe", RunE: func(*cobra.Command, []string) error { return nil }}
	addCriteriaFlags(cmd, cf)
	cmd.SetArgs([]string{"--older-than", "fortnight"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	require.Error(t, cmd.Execute())
}
