package conflict

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEntry_Path(t *testing.T) {
	t.Parallel()

	for _, tc := range []struct {
		desc     string
		entry    Entry
		expected string
	}{
		{
			desc:     "all sides",
			entry:    Entry{Ancestor: "a", Ours: "b", Theirs: "c"},
			expected: "b",
		},
		{
			desc:     "deleted by us",
			entry:    Entry{Ancestor: "a", Theirs: "c"},
			expected: "a",
		},
		{
			desc:     "added by them only",
			entry:    Entry{Theirs: "c"},
			expected: "c",
		},
		{
			desc:     "empty",
			entry:    Entry{},
			expected: "",
		},
	} {
		tc := tc
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.expected, tc.entry.Path())
		})
	}
}

func TestSet(t *testing.T) {
	t.Parallel()

	t.Run("empty set", func(t *testing.T) {
		var set Set
		require.False(t, set.HasConflicts())
		require.Empty(t, set.Paths())
	})

	t.Run("only empty entries", func(t *testing.T) {
		set := Set{{}, {}}
		require.False(t, set.HasConflicts())
		require.Empty(t, set.Paths())
	})

	t.Run("paths are sorted and unique", func(t *testing.T) {
		set := Set{
			{Ancestor: "z.txt", Ours: "z.txt", Theirs: "z.txt"},
			{},
			{Ancestor: "file_c.txt", Ours: "file_c.txt", Theirs: "file_c.txt"},
			{Ancestor: "dir/a.txt", Theirs: "dir/a.txt"},
			{Ours: "file_c.txt"},
		}
		require.True(t, set.HasConflicts())
		require.Equal(t, []string{"dir/a.txt", "file_c.txt", "z.txt"}, set.Paths())
	})
}

func TestMergePaths(t *testing.T) {
	t.Parallel()

	require.Equal(t,
		[]string{"a", "b", "c"},
		MergePaths([]string{"c", "a"}, nil, []string{"b", "a"}),
	)
	require.Empty(t, MergePaths())
}
