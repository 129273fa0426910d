package vkwsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestNewSwapchain_StartsFreshAndOutOfDate(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)

	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, StateFresh, sc.state)
	assert.True(t, sc.outOfDate)
	assert.Contains(t, ctx.liveSwapchains, sc)
}

func TestSwapchain_GetCurrent_ErrorsBeforeAcquire(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	_, err = sc.GetCurrent()
	assert.ErrorIs(t, err, ErrNoCurrentImage)
}

func TestSwapchain_GetCurrent_AfterAcquire(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	require.NoError(t, ctx.Acquire([]*Swapchain{sc}, fakeQueue(), nil))

	current, err := sc.GetCurrent()
	require.NoError(t, err)
	assert.Equal(t, sc.lastExtent, current.Extent)
	assert.NotEqual(t, vk.NullImageView, current.View)
}

func TestSwapchain_SetInfo_MarksStaleOnceLive(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, ctx.Acquire([]*Swapchain{sc}, fakeQueue(), nil))
	assert.Equal(t, StateLive, sc.state)

	cfg := DefaultConfig()
	cfg.MinImageCount = 3
	sc.SetInfo(cfg)
	assert.Equal(t, StateStale, sc.state)
	assert.True(t, sc.outOfDate)
}

func TestSwapchain_Destroy_IsIdempotent(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, ctx.Acquire([]*Swapchain{sc}, fakeQueue(), nil))

	require.NoError(t, sc.Destroy())
	assert.Equal(t, StateDestroyed, sc.state)
	assert.NotContains(t, ctx.liveSwapchains, sc)
	require.NoError(t, sc.Destroy())
}

func TestSwapchain_Destroy_OperationsAfterReturnDestroyedError(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, sc.Destroy())

	_, err = sc.GetCurrent()
	assert.ErrorIs(t, err, ErrSwapchainDestroyed)
}

func TestContext_Destroy_FailsWithLiveSwapchains(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	_, err = NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	assert.ErrorIs(t, ctx.Destroy(), ErrContextHasLiveSwapchains)
}

func TestContext_PickPresentMode_PrefersFirstSupported(t *testing.T) {
	g := newFakeGPU()
	g.presentModes = []vk.PresentMode{vk.PresentModeFifo}
	ctx, err := newTestContext(g)
	require.NoError(t, err)

	mode, err := ctx.PickPresentMode(fakeSurface(), PreferMailbox)
	require.NoError(t, err)
	assert.Equal(t, vk.PresentModeFifo, mode)
}
