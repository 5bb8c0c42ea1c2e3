package vault

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempVault(t *testing.T, files map[string]string) *Dir {
	root, err := ioutil.TempDir("", "vault")
	require.Nil(t, err)
	t.Cleanup(func() { os.RemoveAll(root) })

	for rel, content := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.Nil(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.Nil(t, ioutil.WriteFile(full, []byte(content), 0644))
	}

	d, err := NewDir(root, "main", nil)
	require.Nil(t, err)
	return d
}

func TestFilesListsDocumentsOnly(t *testing.T) {
	d := tempVault(t, map[string]string{
		"a.md":           "# a",
		"notes/b.md":     "# b",
		"notes/c.mdx":    "# c",
		"img.png":        "binary",
		"notes/skip.txt": "plain",
	})

	files, err := d.Files()
	require.Nil(t, err)

	var paths []string
	for _, f := range files {
		paths = append(paths, f.Path)
	}
	require.Equal(t, []string{"a.md", "notes/b.md", "notes/c.mdx"}, paths)
	require.Equal(t, int64(3), files[0].Size)
}

func TestFilesSkipsDotDirsAndIgnores(t *testing.T) {
	d := tempVault(t, map[string]string{
		"a.md":              "# a",
		".obsidian/conf.md": "hidden",
		"drafts/wip.md":     "# wip",
	})
	d.ignores = []string{"drafts/**"}

	files, err := d.Files()
	require.Nil(t, err)
	require.Len(t, files, 1)
	require.Equal(t, "a.md", files[0].Path)
}

func TestResolveLinkRelativeToDocument(t *testing.T) {
	d := tempVault(t, map[string]string{
		"notes/today.md": "# doc",
		"notes/img.png":  "png",
	})

	f, ok, err := d.ResolveLink("img.png", "notes/today.md")
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "notes/img.png", f.Path)
	require.Equal(t, "png", f.Extension)
}

func TestResolveLinkVaultRoot(t *testing.T) {
	d := tempVault(t, map[string]string{
		"notes/today.md": "# doc",
		"img.png":        "png",
	})

	f, ok, err := d.ResolveLink("img.png", "notes/today.md")
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "img.png", f.Path)
}

func TestResolveLinkByBasename(t *testing.T) {
	d := tempVault(t, map[string]string{
		"notes/today.md":   "# doc",
		"assets/deep/x.png": "png",
	})

	f, ok, err := d.ResolveLink("x.png", "notes/today.md")
	require.Nil(t, err)
	require.True(t, ok)
	require.Equal(t, "assets/deep/x.png", f.Path)
}

func TestResolveLinkMissing(t *testing.T) {
	d := tempVault(t, map[string]string{"a.md": "# a"})

	_, ok, err := d.ResolveLink("nope.png", "a.md")
	require.Nil(t, err)
	require.False(t, ok)

	_, ok, err = d.ResolveLink("../outside.png", "a.md")
	require.Nil(t, err)
	require.False(t, ok)
}

func TestReadText(t *testing.T) {
	d := tempVault(t, map[string]string{"a.md": "# hello"})

	text, err := d.ReadText(NewFile("a.md"))
	require.Nil(t, err)
	require.Equal(t, "# hello", text)

	_, err = d.ReadText(NewFile("missing.md"))
	require.NotNil(t, err)
}

func TestNewDirRejectsFiles(t *testing.T) {
	root, err := ioutil.TempDir("", "vault")
	require.Nil(t, err)
	defer os.RemoveAll(root)

	file := filepath.Join(root, "not-a-dir")
	require.Nil(t, ioutil.WriteFile(file, []byte("x"), 0644))

	_, err = NewDir(file, "", nil)
	require.NotNil(t, err)

	_, err = NewDir(filepath.Join(root, "absent"), "", nil)
	require.NotNil(t, err)
}

func TestNewDirDefaultName(t *testing.T) {
	root, err := ioutil.TempDir("", "vault")
	require.Nil(t, err)
	defer os.RemoveAll(root)

	d, err := NewDir(root, "", nil)
	require.Nil(t, err)
	require.Equal(t, filepath.Base(root), d.Name())
}

func TestNewFile(t *testing.T) {
	f := NewFile("notes/today.md")
	assert.Equal(t, "today.md", f.Name)
	assert.Equal(t, "md", f.Extension)
	assert.True(t, f.IsDocument())

	assert.False(t, NewFile("img.png").IsDocument())
}

func TestParseMeta(t *testing.T) {
	meta := ParseMeta("---\npublish: false\npublic: true\n---\n# body")
	require.NotNil(t, meta.Publish)
	assert.False(t, *meta.Publish)
	assert.True(t, meta.Public)
	assert.False(t, meta.ShouldPublish())
}

func TestParseMetaByteOrderMark(t *testing.T) {
	meta := ParseMeta("\uFEFF---\npublish: false\n---\n# body")
	require.NotNil(t, meta.Publish)
	assert.False(t, meta.ShouldPublish())
}

func TestParseMetaAbsent(t *testing.T) {
	meta := ParseMeta("# just a document")
	assert.Nil(t, meta.Publish)
	assert.True(t, meta.ShouldPublish())
}

func TestParseMetaUnterminated(t *testing.T) {
	meta := ParseMeta("---\npublish: false\nno closing fence")
	assert.True(t, meta.ShouldPublish())
}

func TestParseMetaMalformedYaml(t *testing.T) {
	meta := ParseMeta("---\n\t{not yaml\n---\nbody")
	assert.True(t, meta.ShouldPublish())
	assert.False(t, meta.Public)
}
