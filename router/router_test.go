package router_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	imageload "github.com/filecoin-project/go-imageload"
	"github.com/filecoin-project/go-imageload/router"
	"github.com/filecoin-project/go-imageload/targets"
	"github.com/filecoin-project/go-imageload/testutil"
)

func TestHandleResultWithImage(t *testing.T) {
	arena := targets.NewArena()
	id := arena.Allocate()

	var published []imageload.Event
	r := router.New(arena, func(evt imageload.Event, result imageload.Result) {
		published = append(published, evt)
	})

	recorder := testutil.NewCompletionRecorder(1)
	img := &testutil.FakeImage{Hint: "content://photos/1"}
	r.HandleResult(imageload.Result{
		Token:    5,
		Cookie:   "c",
		Identity: id,
		Image:    img,
		Request:  imageload.Request{Token: 5, Identity: id, Cookie: "c", OnComplete: recorder.Listener()},
	})

	cached, ok := arena.CachedImage(id)
	require.True(t, ok)
	require.Equal(t, img, cached)
	require.True(t, arena.IsCachedImageCurrent(id))

	require.Len(t, recorder.Completions, 1)
	completion := <-recorder.Completions
	require.Equal(t, imageload.Token(5), completion.Token)
	require.Equal(t, "c", completion.Cookie)
	require.Equal(t, img, completion.Image)

	require.Len(t, published, 1)
	require.Equal(t, imageload.Completed, published[0].Code)
	require.Equal(t, imageload.Token(5), published[0].Token)
}

func TestHandleResultWithAbsentImage(t *testing.T) {
	arena := targets.NewArena()
	id := arena.Allocate()

	r := router.New(arena, nil)
	recorder := testutil.NewCompletionRecorder(1)
	r.HandleResult(imageload.Result{
		Token:    6,
		Identity: id,
		Request:  imageload.Request{Token: 6, Identity: id, OnComplete: recorder.Listener()},
	})

	// no image was attached, but the cache state is now considered current
	_, ok := arena.CachedImage(id)
	require.False(t, ok)
	require.True(t, arena.IsCachedImageCurrent(id))

	completion := <-recorder.Completions
	require.Nil(t, completion.Image)
}

func TestHandleResultWithoutListener(t *testing.T) {
	arena := targets.NewArena()
	id := arena.Allocate()

	r := router.New(arena, nil)
	require.NotPanics(t, func() {
		r.HandleResult(imageload.Result{
			Token:    7,
			Identity: id,
			Image:    &testutil.FakeImage{},
			Request:  imageload.Request{Token: 7, Identity: id},
		})
	})
	require.True(t, arena.IsCachedImageCurrent(id))
}

func TestHandleResultDoesNotFilterStaleResults(t *testing.T) {
	// the router is an at-most-once delivery mechanism, nothing more: a
	// result whose identity the slot has already moved past is still
	// delivered, and the listener is expected to self-filter by token
	arena := targets.NewArena()
	stale := arena.Allocate()
	arena.Release(stale)

	r := router.New(arena, nil)
	recorder := testutil.NewCompletionRecorder(1)
	r.HandleResult(imageload.Result{
		Token:    8,
		Identity: stale,
		Image:    &testutil.FakeImage{},
		Request:  imageload.Request{Token: 8, Identity: stale, OnComplete: recorder.Listener()},
	})

	require.Len(t, recorder.Completions, 1, "stale result is still delivered to the listener")
	_, ok := arena.CachedImage(stale)
	require.False(t, ok, "released target records no image")
}
