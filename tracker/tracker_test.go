package tracker_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	imageload "github.com/filecoin-project/go-imageload"
	"github.com/filecoin-project/go-imageload/targets"
	"github.com/filecoin-project/go-imageload/tracker"
)

func TestShouldLoadGate(t *testing.T) {
	arena := targets.NewArena()
	idA := arena.Allocate()
	idB := arena.Allocate()

	testCases := map[string]struct {
		current    imageload.Identity
		incoming   imageload.Identity
		shouldLoad bool
	}{
		"different identity triggers load": {
			current:    idA,
			incoming:   idB,
			shouldLoad: true,
		},
		"same identity suppresses load": {
			current:    idA,
			incoming:   idA,
			shouldLoad: false,
		},
		"no identity differs from any identity": {
			current:    imageload.NoIdentity,
			incoming:   idA,
			shouldLoad: true,
		},
		"incoming no identity differs from current identity": {
			current:    idA,
			incoming:   imageload.NoIdentity,
			shouldLoad: true,
		},
		"no identity equals no identity": {
			current:    imageload.NoIdentity,
			incoming:   imageload.NoIdentity,
			shouldLoad: false,
		},
	}
	for testCase, data := range testCases {
		t.Run(testCase, func(t *testing.T) {
			tk := tracker.New(nil)
			tk.SetIdentity(data.current)
			require.Equal(t, data.shouldLoad, tk.ShouldLoad(data.incoming))
		})
	}
}

func TestShouldLoadTracksMostRecentSetIdentity(t *testing.T) {
	arena := targets.NewArena()
	idA := arena.Allocate()
	idB := arena.Allocate()

	tk := tracker.New(nil)
	require.True(t, tk.ShouldLoad(idA))

	tk.SetIdentity(idA)
	require.False(t, tk.ShouldLoad(idA))
	require.True(t, tk.ShouldLoad(idB))

	tk.SetIdentity(idB)
	require.True(t, tk.ShouldLoad(idA))
	require.False(t, tk.ShouldLoad(idB))
	require.Equal(t, idB, tk.Identity())
}

func TestDisplayMode(t *testing.T) {
	tk := tracker.New(nil)
	require.Equal(t, tracker.DisplayUndefined, tk.DisplayMode())

	tk.SetDisplayMode(tracker.DisplayImage)
	require.Equal(t, tracker.DisplayImage, tk.DisplayMode())

	tk.SetDisplayMode(tracker.DisplayDefault)
	require.Equal(t, tracker.DisplayDefault, tk.DisplayMode())
}

func TestPhotoLocator(t *testing.T) {
	arena := targets.NewArena()
	idA := arena.Allocate()
	idB := arena.Allocate()

	resolve := func(id imageload.Identity) (imageload.Locator, bool) {
		if id == idA {
			return "content://photos/1", true
		}
		return "", false
	}

	tk := tracker.New(resolve)
	require.Equal(t, imageload.Locator(""), tk.PhotoLocator(), "no current identity yields no locator")

	tk.SetIdentity(idA)
	require.Equal(t, imageload.Locator("content://photos/1"), tk.PhotoLocator())

	tk.SetIdentity(idB)
	require.Equal(t, imageload.Locator(""), tk.PhotoLocator(), "identity without a resource yields no locator")

	noResolver := tracker.New(nil)
	noResolver.SetIdentity(idA)
	require.Equal(t, imageload.Locator(""), noResolver.PhotoLocator())
}
