package vkwsi

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// fakeInstance/fakeDevice/fakePhysicalDevice return real, distinct,
// non-nil dispatchable handles without touching a GPU: the coordination
// layer only ever compares these against NullInstance/NullDevice and
// threads them through to the function table, which in tests is a fake
// that never dereferences them.
func fakeInstance() vk.Instance             { return vk.Instance(unsafe.Pointer(new(byte))) }
func fakeDevice() vk.Device                 { return vk.Device(unsafe.Pointer(new(byte))) }
func fakePhysicalDevice() vk.PhysicalDevice { return vk.PhysicalDevice(unsafe.Pointer(new(byte))) }
func fakeQueue() vk.Queue                   { return vk.Queue(unsafe.Pointer(new(byte))) }
func fakeSurface() vk.Surface               { return vk.Surface(1) }

func newTestContext(g *fakeGPU) (*Context, error) {
	return NewContext(ContextInfo{
		Instance:       fakeInstance(),
		Device:         fakeDevice(),
		PhysicalDevice: fakePhysicalDevice(),
		FunctionTable:  g.newFunctionTable(),
	})
}

// fakeGPU is an in-memory stand-in for a Vulkan device, letting the
// coordination-layer tests run without a real GPU. It hands out
// monotonically increasing handles and tracks the bits of state the
// tests need to assert on: which fences are signaled, the surface's
// reported extent, and how many times each entry point was called.
type fakeGPU struct {
	nextHandle uint64

	signaledFences map[vk.Fence]bool

	surfaceExtent   vk.Extent2D
	surfaceMinCount uint32
	surfaceMaxCount uint32
	presentModes    []vk.PresentMode

	scalingSupported PresentScalingFlags
	scalingMinExtent vk.Extent2D
	scalingMaxExtent vk.Extent2D
	hasScaling       bool

	images map[vk.Swapchain][]vk.Image

	timelineCounter uint64

	createSwapchainErr   error
	acquireResults       []vk.Result // consumed in order, Success once exhausted
	acquireCallCount     int
	presentResults       []vk.Result
	queueSubmitCallCount int
	queuePresentCalls    int
}

func newFakeGPU() *fakeGPU {
	return &fakeGPU{
		signaledFences:  make(map[vk.Fence]bool),
		surfaceExtent:   vk.Extent2D{Width: 800, Height: 600},
		surfaceMinCount: 2,
		surfaceMaxCount: 4,
		presentModes:    []vk.PresentMode{vk.PresentModeFifo, vk.PresentModeMailbox},
		images:          make(map[vk.Swapchain][]vk.Image),
	}
}

func (g *fakeGPU) handle() uint64 {
	g.nextHandle++
	return g.nextHandle
}

func (g *fakeGPU) newFunctionTable() *FunctionTable {
	return &FunctionTable{
		GetSurfaceCapabilities: func(vk.PhysicalDevice, vk.Surface) (SurfaceCapabilities, error) {
			return SurfaceCapabilities{
				MinImageCount: g.surfaceMinCount,
				MaxImageCount: g.surfaceMaxCount,
				MinExtent:     vk.Extent2D{Width: 1, Height: 1},
				MaxExtent:     vk.Extent2D{Width: 4096, Height: 4096},
				CurrentExtent: g.surfaceExtent,
			}, nil
		},
		GetSurfaceCapabilities2: func(vk.PhysicalDevice, vk.Surface, vk.PresentMode) (PresentScalingCapabilities, bool, error) {
			if !g.hasScaling {
				return PresentScalingCapabilities{}, false, nil
			}
			return PresentScalingCapabilities{
				SupportedScaling:     g.scalingSupported,
				MinScaledImageExtent: g.scalingMinExtent,
				MaxScaledImageExtent: g.scalingMaxExtent,
			}, true, nil
		},
		GetSurfacePresentModes: func(vk.PhysicalDevice, vk.Surface) ([]vk.PresentMode, error) {
			return g.presentModes, nil
		},

		CreateBinarySemaphore: func() (vk.Semaphore, error) {
			return vk.Semaphore(g.handle()), nil
		},
		CreateTimelineSemaphore: func(initial uint64) (vk.Semaphore, error) {
			return vk.Semaphore(g.handle()), nil
		},
		DestroySemaphore: func(vk.Semaphore) {},
		GetSemaphoreCounterValue: func(vk.Semaphore) (uint64, error) {
			return g.timelineCounter, nil
		},
		WaitSemaphores: func([]vk.Semaphore, []uint64, uint64) error { return nil },

		CreateFence: func() (vk.Fence, error) {
			f := vk.Fence(g.handle())
			return f, nil
		},
		DestroyFence: func(vk.Fence) {},
		WaitForFences: func(fences []vk.Fence, waitAll bool, timeout uint64) error {
			for _, f := range fences {
				g.signaledFences[f] = true
			}
			return nil
		},
		ResetFences: func(fences []vk.Fence) error {
			for _, f := range fences {
				delete(g.signaledFences, f)
			}
			return nil
		},

		CreateImageView: func(image vk.Image, format vk.Format) (vk.ImageView, error) {
			return vk.ImageView(g.handle()), nil
		},
		DestroyImageView: func(vk.ImageView) {},

		CreateSwapchain: func(params SwapchainCreateParams) (vk.Swapchain, error) {
			if g.createSwapchainErr != nil {
				return vk.NullSwapchain, g.createSwapchainErr
			}
			sc := vk.Swapchain(g.handle())
			count := params.MinImageCount
			if count == 0 {
				count = 2
			}
			images := make([]vk.Image, count)
			for i := range images {
				images[i] = vk.Image(g.handle())
			}
			g.images[sc] = images
			return sc, nil
		},
		DestroySwapchain: func(sc vk.Swapchain) { delete(g.images, sc) },
		GetSwapchainImages: func(sc vk.Swapchain) ([]vk.Image, error) {
			return g.images[sc], nil
		},
		AcquireNextImage: func(sc vk.Swapchain, timeout uint64, sem vk.Semaphore) (uint32, vk.Result, error) {
			ret := vk.Success
			if g.acquireCallCount < len(g.acquireResults) {
				ret = g.acquireResults[g.acquireCallCount]
			}
			g.acquireCallCount++
			if ret != vk.Success && ret != vk.Suboptimal && ret != vk.ErrorOutOfDate {
				return 0, ret, &vkResultError{result: ret}
			}
			return 0, ret, nil
		},

		QueueSubmit2: func(vk.Queue, SubmitBatch, vk.Fence) error {
			g.queueSubmitCallCount++
			return nil
		},
		QueuePresent: func(queue vk.Queue, params PresentParams) ([]vk.Result, error) {
			g.queuePresentCalls++
			results := make([]vk.Result, len(params.Swapchains))
			for i := range results {
				if i < len(g.presentResults) {
					results[i] = g.presentResults[i]
				} else {
					results[i] = vk.Success
				}
			}
			return results, nil
		},
	}
}
