package vkwsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	vk "github.com/vulkan-go/vulkan"
)

func TestClampExtent(t *testing.T) {
	caps := SurfaceCapabilities{
		MinExtent: vk.Extent2D{Width: 100, Height: 100},
		MaxExtent: vk.Extent2D{Width: 1000, Height: 1000},
	}
	got := clampExtent(vk.Extent2D{Width: 50, Height: 2000}, caps)
	assert.Equal(t, vk.Extent2D{Width: 100, Height: 1000}, got)
}

func TestChooseScalingMode_PriorityOrder(t *testing.T) {
	all := PresentScalingOneToOne | PresentScalingAspectRatioStretch | PresentScalingStretch
	assert.Equal(t, PresentScalingOneToOne, chooseScalingMode(all))
	assert.Equal(t, PresentScalingAspectRatioStretch, chooseScalingMode(all&^PresentScalingOneToOne))
	assert.Equal(t, PresentScalingStretch, chooseScalingMode(PresentScalingStretch))
}

func TestChooseScalingMode_FallsBackToLowestBit(t *testing.T) {
	unknownBit := PresentScalingFlags(1 << 5)
	assert.Equal(t, unknownBit, chooseScalingMode(unknownBit))
}

func TestClampImageCount(t *testing.T) {
	caps := SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 4}
	assert.Equal(t, uint32(2), clampImageCount(1, caps))
	assert.Equal(t, uint32(3), clampImageCount(3, caps))
	assert.Equal(t, uint32(4), clampImageCount(10, caps))
}

func TestClampImageCount_UnboundedMax(t *testing.T) {
	caps := SurfaceCapabilities{MinImageCount: 2, MaxImageCount: 0}
	assert.Equal(t, uint32(10), clampImageCount(10, caps))
}

func TestNegotiate_CreatesOnFirstCall(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)

	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	created, err := sc.negotiate(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, vk.NullSwapchain, sc.handle)
	assert.Len(t, sc.resources, int(g.surfaceMinCount))
	assert.False(t, sc.outOfDate)
}

func TestNegotiate_NoOpWhenExtentUnchangedAndNotOutOfDate(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	_, err = sc.negotiate(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)
	firstHandle := sc.handle

	created, err := sc.negotiate(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstHandle, sc.handle)
}

func TestNegotiate_RecreatesOnExtentChange(t *testing.T) {
	g := newFakeGPU()
	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	_, err = sc.negotiate(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)
	firstHandle := sc.handle

	created, err := sc.negotiate(vk.Extent2D{Width: 1024, Height: 768})
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEqual(t, firstHandle, sc.handle)
	assert.Equal(t, vk.Extent2D{Width: 1024, Height: 768}, sc.lastExtent)
}

func TestNegotiate_ScalingOptInWidensExtent(t *testing.T) {
	g := newFakeGPU()
	g.surfaceExtent = vk.Extent2D{Width: 800, Height: 600}
	g.hasScaling = true
	g.scalingSupported = PresentScalingOneToOne
	g.scalingMinExtent = vk.Extent2D{Width: 1, Height: 1}
	g.scalingMaxExtent = vk.Extent2D{Width: 8192, Height: 8192}

	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	// The fake surface's MaxExtent is 4096x4096, so without scaling this
	// extent would be clamped down.
	desired := vk.Extent2D{Width: 5000, Height: 5000}
	created, err := sc.negotiate(desired)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, desired, sc.lastExtent)
}

func TestNegotiate_OutOfDateOnCreateLeavesFlagSetWithoutError(t *testing.T) {
	g := newFakeGPU()
	g.createSwapchainErr = &vkResultError{result: vk.ErrorOutOfDate}

	ctx, err := newTestContext(g)
	require.NoError(t, err)
	sc, err := NewSwapchain(ctx, fakeSurface(), DefaultConfig())
	require.NoError(t, err)

	created, err := sc.negotiate(vk.Extent2D{Width: 800, Height: 600})
	require.NoError(t, err)
	assert.False(t, created)
	assert.True(t, sc.outOfDate)
}
