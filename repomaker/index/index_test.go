package index

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/repoforge/repomaker/repomaker/apk"
	"github.com/repoforge/repomaker/repomaker/keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func testMeta() Meta {
	return Meta{
		Name:        "Test Repo",
		URL:         "https://repo.example.org/fdroid",
		Fingerprint: "ABCD",
		Timestamp:   time.Unix(0, 0).UTC(),
	}
}

func TestBuild_GroupsAndSorts(t *testing.T) {
	packages := []apk.Package{
		{PackageID: "org.example.zebra", VersionCode: 1, FileName: "org.example.zebra_1.apk"},
		{PackageID: "org.example.ant", VersionCode: 2, FileName: "org.example.ant_2.apk"},
		{PackageID: "org.example.ant", VersionCode: 5, FileName: "org.example.ant_5.apk"},
	}
	curated := map[string]Metadata{
		"org.example.zebra": {Name: "aardvark viewer", Category: "Tools"},
		"org.example.ant":   {Name: "Zulu Notes", Category: "Office"},
	}

	idx := Build(testMeta(), curated, packages)

	require.Len(t, idx.Apps, 2)

	// Case-insensitive name ordering: "aardvark viewer" before "Zulu Notes".
	assert.Equal(t, "org.example.zebra", idx.Apps[0].PackageID)
	assert.Equal(t, "org.example.ant", idx.Apps[1].PackageID)

	// Newest version first.
	require.Len(t, idx.Apps[1].Packages, 2)
	assert.EqualValues(t, 5, idx.Apps[1].Packages[0].VersionCode)
	assert.EqualValues(t, 2, idx.Apps[1].Packages[1].VersionCode)
}

func TestBuild_StubForUncurated(t *testing.T) {
	packages := []apk.Package{
		{PackageID: "org.example.app", VersionCode: 1, FileName: "org.example.app_1.apk"},
	}

	idx := Build(testMeta(), nil, packages)

	require.Len(t, idx.Apps, 1)
	assert.Equal(t, "org.example.app", idx.Apps[0].Name)
	assert.Empty(t, idx.Apps[0].Category)
}

func TestCategories(t *testing.T) {
	idx := &Index{
		Apps: []App{
			{PackageID: "a", Category: "Tools"},
			{PackageID: "b", Category: "Office"},
			{PackageID: "c", Category: "Tools"},
			{PackageID: "d"},
		},
	}

	assert.Equal(t, []string{"Office", "Tools"}, idx.Categories())
}

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	key, err := keyring.Generate(filepath.Join(t.TempDir(), keyring.KeyFileName))
	require.NoError(t, err)

	idx := Build(testMeta(), map[string]Metadata{
		"org.example.app": {Name: "App", Category: "Tools"},
	}, []apk.Package{
		{PackageID: "org.example.app", VersionCode: 1, FileName: "org.example.app_1.apk"},
	})

	require.NoError(t, Write(dir, idx, key))

	yamlData, err := os.ReadFile(filepath.Join(dir, YAMLFileName))
	require.NoError(t, err)

	var decoded Index
	require.NoError(t, yaml.Unmarshal(yamlData, &decoded))
	assert.Equal(t, "Test Repo", decoded.Repo.Name)
	require.Len(t, decoded.Apps, 1)

	// Signature covers the YAML bytes.
	sig, err := os.ReadFile(filepath.Join(dir, keyring.SigFileName))
	require.NoError(t, err)
	assert.True(t, key.Verify(yamlData, sig))

	categories, err := os.ReadFile(filepath.Join(dir, CategoriesFileName))
	require.NoError(t, err)
	assert.Equal(t, "Tools\n", string(categories))

	_, err = os.Stat(filepath.Join(dir, JSONFileName))
	assert.NoError(t, err)
}

func TestWritePageAndQRCode(t *testing.T) {
	dir := t.TempDir()
	url := "https://repo.example.org/fdroid?fingerprint=ABCD"

	require.NoError(t, WriteQRCode(dir, url))
	require.NoError(t, WritePage(dir, url))

	page, err := os.ReadFile(filepath.Join(dir, PageFileName))
	require.NoError(t, err)
	assert.Contains(t, string(page), url)
	assert.Contains(t, string(page), QRCodeFileName)

	info, err := os.Stat(filepath.Join(dir, QRCodeFileName))
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
