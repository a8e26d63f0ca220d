package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	carpkg "github.com/nimbuscar/car"
	"github.com/nimbuscar/car/unpack"
)

// runApp runs app with args, capturing whatever its Actions print to stdout.
func runApp(t *testing.T, app *cli.App, args ...string) string {
	t.Helper()
	r, w, err := os.Pipe()
	require.NoError(t, err)
	old := os.Stdout
	os.Stdout = w
	defer func() { os.Stdout = old }()

	runErr := app.Run(append([]string{"car"}, args...))
	w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	os.Stdout = old
	require.NoError(t, runErr)
	return buf.String()
}

func testApp() *cli.App {
	return &cli.App{
		Name:     "car",
		Commands: []*cli.Command{packCommand, unpackCommand, lsCommand},
	}
}

// TestPackNoWrapFlagIsHonored covers a maintainer-flagged regression: the
// CLI declared --no-wrap but never read it, so it had no effect. Passing
// --wrap and --no-wrap together must yield the unwrapped (no-wrap) root,
// confirming --no-wrap actually overrides --wrap rather than being a dead
// flag.
func TestPackNoWrapFlagIsHonored(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello"), 0o644))

	carPath := filepath.Join(dir, "out.car")
	out := runApp(t, testApp(), "pack", src, "-o", carPath, "--wrap", "--no-wrap")
	root := bytes.TrimSpace([]byte(out))

	f, err := os.Open(carPath)
	require.NoError(t, err)
	defer f.Close()
	r, err := carpkg.NewReader(f)
	require.NoError(t, err)

	// Unwrapped: the root is the bare Raw leaf's own CID, not a synthetic
	// Directory wrapping it, so ls on it reports the single unnamed entry.
	require.Equal(t, string(root), r.Roots()[0].String())

	res, err := unpack.New(r)
	require.NoError(t, err)
	entries, err := res.Ls(r.Roots()[0])
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "", entries[0].Name)
}

// TestUnpackSingleFileRootViaCLI covers a maintainer-flagged regression:
// unpacking a CAR whose root is a bare File/Raw node (the common result of
// packing a single file with the default --no-wrap) always passed an empty
// rootName through the CLI, so the resolver tried to create the target
// directory itself as a file and failed. The CLI must derive a name from
// the CAR's own file name when no link context names the root.
func TestUnpackSingleFileRootViaCLI(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "source.txt")
	require.NoError(t, os.WriteFile(src, []byte("hello world"), 0o644))

	carPath := filepath.Join(dir, "single.car")
	runApp(t, testApp(), "pack", src, "-o", carPath)

	dest := t.TempDir()
	runApp(t, testApp(), "unpack", carPath, "-o", dest)

	got, err := os.ReadFile(filepath.Join(dest, "single"))
	require.NoError(t, err)
	require.Equal(t, "hello world", string(got))
}
