package unpack

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/ipfs/go-cid"
	"github.com/stretchr/testify/require"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/pack"
)

func packDir(t *testing.T) (string, []byte) {
	t.Helper()
	src := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(src, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("file a"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(src, "sub", "b.txt"), []byte("file b"), 0o644))
	require.NoError(t, os.Symlink("./a.txt", filepath.Join(src, "link-to-a")))

	var buf bytes.Buffer
	_, err := pack.Pack(src, &buf, pack.Options{})
	require.NoError(t, err)
	return src, buf.Bytes()
}

func TestLsListsOneLevel(t *testing.T) {
	_, carBytes := packDir(t)
	r, err := carpkg.NewReader(bytes.NewReader(carBytes))
	require.NoError(t, err)
	res, err := New(r)
	require.NoError(t, err)

	entries, err := res.Ls(r.Roots()[0])
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "a.txt", entries[0].Name)
	require.Equal(t, "link-to-a", entries[1].Name)
	require.Equal(t, "sub", entries[2].Name)
}

// TestScenarioS1SingleChunkFileReportsAsFile packs {a.txt="hello"}: a
// one-chunk file, which per the single-leaf rule gets no intermediate File
// wrapper, so a.txt's directory link points straight at its Raw leaf. ls
// still reports it with kind "file" and its content size, since from a
// listing's point of view a Raw child is file content regardless of
// whether a File node wraps it.
func TestScenarioS1SingleChunkFileReportsAsFile(t *testing.T) {
	src := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(src, "a.txt"), []byte("hello"), 0o644))

	var buf bytes.Buffer
	root, err := pack.Pack(src, &buf, pack.Options{})
	require.NoError(t, err)

	r, err := carpkg.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	require.Len(t, r.Roots(), 1)
	require.Equal(t, root, r.Roots()[0])

	// Directory node + Raw leaf: two blocks, not three, because a.txt's
	// single chunk is its own CID with no File wrapper (§4.7 step 3).
	count := 0
	require.NoError(t, r.IterBlocks(func(c cid.Cid, data []byte) error {
		count++
		return nil
	}))
	require.Equal(t, 2, count)

	res, err := New(r)
	require.NoError(t, err)
	entries, err := res.Ls(root)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "a.txt", entries[0].Name)
	require.Equal(t, "file", entries[0].Kind())
	require.Equal(t, uint64(5), entries[0].Size)
}

func TestCatFailsNotAFileOnDirectory(t *testing.T) {
	_, carBytes := packDir(t)
	r, err := carpkg.NewReader(bytes.NewReader(carBytes))
	require.NoError(t, err)
	res, err := New(r)
	require.NoError(t, err)

	var out bytes.Buffer
	err = res.Cat(r.Roots()[0], &out)
	require.ErrorIs(t, err, carpkg.ErrNotAFile)
}

func TestUnpackRoundTrip(t *testing.T) {
	_, carBytes := packDir(t)
	r, err := carpkg.NewReader(bytes.NewReader(carBytes))
	require.NoError(t, err)
	res, err := New(r)
	require.NoError(t, err)

	target := t.TempDir()
	require.NoError(t, res.Unpack(r.Roots()[0], target, ""))

	got, err := os.ReadFile(filepath.Join(target, "a.txt"))
	require.NoError(t, err)
	require.Equal(t, "file a", string(got))

	got, err = os.ReadFile(filepath.Join(target, "sub", "b.txt"))
	require.NoError(t, err)
	require.Equal(t, "file b", string(got))

	linkTarget, err := os.Readlink(filepath.Join(target, "link-to-a"))
	require.NoError(t, err)
	require.Equal(t, "./a.txt", linkTarget)
}

func TestUnpackRejectsPathEscape(t *testing.T) {
	_, err := safeJoin("/target", "../escape")
	require.ErrorIs(t, err, carpkg.ErrPathEscape)

	_, err = safeJoin("/target", "/absolute")
	require.ErrorIs(t, err, carpkg.ErrPathEscape)
}

func TestVerifyPassesOnUntamperedCar(t *testing.T) {
	_, carBytes := packDir(t)
	r, err := carpkg.NewReader(bytes.NewReader(carBytes))
	require.NoError(t, err)
	res, err := New(r)
	require.NoError(t, err)
	require.NoError(t, res.Verify())
}
