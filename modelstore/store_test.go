package modelstore

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/syssam/edmx"
	"github.com/syssam/edmx/edm"
)

func snapshot() *edm.Snapshot {
	return &edm.Snapshot{
		Name:          "blogging",
		Provider:      "sqlite",
		ManifestToken: "3",
		Entities: []edm.EntitySnapshot{{
			Name: "Blog",
			Set:  "Blogs",
			Key:  []string{"ID"},
			Properties: []edm.PropertySnapshot{
				{Name: "ID", Kind: "int64", StoreGenerated: "Identity"},
				{Name: "Title", Kind: "string", Nullable: true, MaxLength: 128},
			},
		}},
		Tables: []edm.TableSnapshot{{
			Name:       "Blogs",
			Schema:     "main",
			Entity:     "Blog",
			PrimaryKey: []string{"ID"},
			Columns:    []edm.PropertySnapshot{{Name: "ID", Kind: "int64", StoreType: "integer"}},
		}},
	}
}

func TestStores(t *testing.T) {
	fs, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	for name, s := range map[string]Store{"File": fs, "Memory": NewMemoryStore()} {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			got, err := s.Load(ctx, "blogging")
			require.NoError(t, err)
			require.Nil(t, got)

			want := snapshot()
			require.NoError(t, s.Save(ctx, "blogging", want))
			got, err = s.Load(ctx, "blogging")
			require.NoError(t, err)
			require.Equal(t, want, got)

			want.ManifestToken = "3.45"
			require.NoError(t, s.Save(ctx, "blogging", want))
			got, err = s.Load(ctx, "blogging")
			require.NoError(t, err)
			require.Equal(t, "3.45", got.ManifestToken)

			require.NoError(t, s.Delete(ctx, "blogging"))
			require.NoError(t, s.Delete(ctx, "blogging"))
			got, err = s.Load(ctx, "blogging")
			require.NoError(t, err)
			require.Nil(t, got)

			for _, name := range []string{"", "../x", `a\b`, ".."} {
				require.True(t, edmx.IsArgumentError(s.Save(ctx, name, want)), name)
			}
			require.True(t, edmx.IsArgumentError(s.Save(ctx, "nil", nil)))
		})
	}
}

func TestFileStore(t *testing.T) {
	require := require.New(t)
	dir := t.TempDir()
	s, err := NewFileStore(dir + "/models")
	require.NoError(err)
	ctx := context.Background()
	require.NoError(s.Save(ctx, "b", snapshot()))
	require.NoError(s.Save(ctx, "a", snapshot()))
	require.NoError(os.WriteFile(dir+"/models/notes.txt", []byte("x"), 0o644))
	names, err := s.Names()
	require.NoError(err)
	require.Equal([]string{"a", "b"}, names)

	require.NoError(os.WriteFile(s.Path("broken"), []byte{0xc1}, 0o644))
	_, err = s.Load(ctx, "broken")
	require.ErrorContains(err, "modelstore: decode snapshot")

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	require.ErrorIs(s.Save(canceled, "c", snapshot()), context.Canceled)

	_, err = NewFileStore("")
	require.True(edmx.IsArgumentError(err))
}
