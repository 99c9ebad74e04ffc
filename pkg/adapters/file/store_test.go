package file_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/adapters/file"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/domain"
	"github.com/mdxvision/mdx-vision-enterprise-sub003/pkg/ports"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_Contract(t *testing.T) {
	store := file.NewWithFs(afero.NewMemMapFs(), "macros")
	ports.RunMacroStoreContract(t, store)
}

func TestFileStore_Contract_OsFs(t *testing.T) {
	store := file.New(t.TempDir())
	ports.RunMacroStoreContract(t, store)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	fs := afero.NewMemMapFs()
	ctx := context.Background()

	first := file.NewWithFs(fs, "macros")
	require.NoError(t, first.Put(ctx, "dr/house", domain.Macro{
		Trigger: "morning rounds",
		Actions: []domain.Intent{domain.ShowWorklist{}, domain.LoadPatient{Identifier: "1"}},
	}))

	exists, err := afero.Exists(fs, filepath.Join("macros", "dr%2Fhouse.json"))
	require.NoError(t, err)
	assert.True(t, exists, "user IDs are escaped into a single file name")

	second := file.NewWithFs(fs, "macros")
	got, err := second.Get(ctx, "dr/house", "morning rounds")
	require.NoError(t, err)
	assert.Equal(t, []domain.Intent{domain.ShowWorklist{}, domain.LoadPatient{Identifier: "1"}}, got.Actions)

	entries, err := afero.ReadDir(fs, "macros")
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files are left behind")
}

func TestFileStore_EmptyUser(t *testing.T) {
	store := file.NewWithFs(afero.NewMemMapFs(), "")
	assert.Error(t, store.Put(context.Background(), "", domain.Macro{Trigger: "x"}))
}
