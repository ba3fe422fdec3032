package copy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/walteh/toonsync/pkg/charid"
	"github.com/walteh/toonsync/pkg/scan"
)

func settingsFile(t *testing.T, dir string, id charid.CharacterID, content string) scan.SettingsFile {
	t.Helper()
	path := filepath.Join(dir, id.Filename())
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return scan.SettingsFile{ID: id, Path: path}
}

func readBack(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(b)
}

func TestCopyFanOut(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "overview and shortcuts")
	dests := []scan.SettingsFile{
		settingsFile(t, dir, 2, "old two"),
		settingsFile(t, dir, 3, "old three"),
		settingsFile(t, dir, 4, "old four"),
	}

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{Source: src, Destinations: dests})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	for i, o := range outcomes {
		assert.Equal(t, dests[i].ID, o.DestinationID, "outcome order must match destination order")
		assert.True(t, o.Success())
		assert.Equal(t, "overview and shortcuts", readBack(t, dests[i].Path))
	}
}

func TestCopySourceUnreadable(t *testing.T) {
	dir := t.TempDir()
	src := scan.SettingsFile{ID: 1, Path: filepath.Join(dir, "core_char_1.dat")} // never written
	dest := settingsFile(t, dir, 2, "untouched")

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{dest},
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSourceUnreadable)
	assert.Empty(t, outcomes, "an unreadable source produces no per-destination outcomes")
	assert.Equal(t, "untouched", readBack(t, dest.Path))
}

func TestCopyNoDestinations(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "content")

	_, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{Source: src})
	assert.ErrorIs(t, err, ErrNoDestinations)
}

func TestCopySelfGuard(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "original bytes")
	other := settingsFile(t, dir, 2, "old")

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{src, other},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.Equal(t, StatusSameFile, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, ErrSameFile)
	assert.Equal(t, "original bytes", readBack(t, src.Path))

	assert.True(t, outcomes[1].Success())
	assert.Equal(t, "original bytes", readBack(t, other.Path))
}

func TestCopyPartialFailure(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("directory permissions are not enforced for root")
	}

	dir := t.TempDir()
	roDir := filepath.Join(dir, "readonly")
	require.NoError(t, os.Mkdir(roDir, 0755))

	src := settingsFile(t, dir, 1, "new settings")
	dests := []scan.SettingsFile{
		settingsFile(t, dir, 2, "old two"),
		settingsFile(t, roDir, 3, "old three"),
		settingsFile(t, dir, 4, "old four"),
	}

	require.NoError(t, os.Chmod(roDir, 0555))
	t.Cleanup(func() { os.Chmod(roDir, 0755) })

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{Source: src, Destinations: dests})
	require.NoError(t, err)
	require.Len(t, outcomes, 3)

	assert.True(t, outcomes[0].Success())
	assert.Equal(t, StatusPermissionDenied, outcomes[1].Status)
	assert.True(t, outcomes[2].Success())

	assert.Equal(t, "new settings", readBack(t, dests[0].Path))
	assert.Equal(t, "old three", readBack(t, dests[1].Path), "failed destination must be untouched")
	assert.Equal(t, "new settings", readBack(t, dests[2].Path))
}

func TestCopyUnreachableDestination(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "content")
	dest := scan.SettingsFile{ID: 2, Path: filepath.Join(dir, "missing", "core_char_2.dat")}

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{dest},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusUnreachable, outcomes[0].Status)
}

func TestCopyHardLinkSelfGuard(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "original bytes")
	linkPath := filepath.Join(dir, charid.CharacterID(2).Filename())
	require.NoError(t, os.Link(src.Path, linkPath))

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{{ID: 2, Path: linkPath}},
	})
	require.NoError(t, err)
	require.Len(t, outcomes, 1)
	assert.Equal(t, StatusSameFile, outcomes[0].Status)
}

func TestInterruptedCopyLeavesDestinationIntact(t *testing.T) {
	// A crash between the temp write and the rename leaves only a stray
	// temp file behind; the destination keeps its old bytes and the next
	// scan sweeps the leftover.
	dir := t.TempDir()
	dest := settingsFile(t, dir, 2, "old bytes")

	tmp, err := os.CreateTemp(dir, scan.TempPattern)
	require.NoError(t, err)
	_, err = tmp.WriteString("new bytes, never renamed")
	require.NoError(t, err)
	require.NoError(t, tmp.Close())

	assert.Equal(t, "old bytes", readBack(t, dest.Path))

	files, err := scan.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, files, 1)

	_, statErr := os.Stat(tmp.Name())
	assert.True(t, os.IsNotExist(statErr), "scan should sweep the orphaned temp file")
}

func TestCopyPreservesDestinationMode(t *testing.T) {
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "content")
	dest := settingsFile(t, dir, 2, "old")
	require.NoError(t, os.Chmod(dest.Path, 0600))

	outcomes, err := NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{dest},
	})
	require.NoError(t, err)
	require.True(t, outcomes[0].Success())

	info, err := os.Stat(dest.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A brand-new destination gets the default mode.
	fresh := scan.SettingsFile{ID: 3, Path: filepath.Join(dir, "core_char_3.dat")}
	outcomes, err = NewEngine(EngineOptions{}).Copy(context.Background(), Request{
		Source:       src,
		Destinations: []scan.SettingsFile{fresh},
	})
	require.NoError(t, err)
	require.True(t, outcomes[0].Success())

	info, err = os.Stat(fresh.Path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())
}

func TestCopyLargeFanIn(t *testing.T) {
	// More destinations than workers; order must still match the request.
	dir := t.TempDir()
	src := settingsFile(t, dir, 1, "payload")

	var dests []scan.SettingsFile
	for id := charid.CharacterID(10); id < 30; id++ {
		dests = append(dests, settingsFile(t, dir, id, "stale"))
	}

	outcomes, err := NewEngine(EngineOptions{FanOut: 3}).Copy(context.Background(), Request{Source: src, Destinations: dests})
	require.NoError(t, err)
	require.Len(t, outcomes, len(dests))
	for i, o := range outcomes {
		assert.Equal(t, dests[i].ID, o.DestinationID)
		assert.True(t, o.Success())
	}
}
