package vkwsi

import vk "github.com/vulkan-go/vulkan"

// ContextInfo supplies the handles and policy knobs for context_create
// (spec §6).
type ContextInfo struct {
	Instance       vk.Instance
	Device         vk.Device
	PhysicalDevice vk.PhysicalDevice

	// FunctionTable lets a caller (or a test) supply an already-resolved
	// table, e.g. a fake one. If nil, NewContext resolves one itself via
	// LoadFunctionTable.
	FunctionTable *FunctionTable
	HasDebugUtils bool

	Log LogFunc

	// PoolWarnThreshold, when > 0, logs a LevelWarn record for every fresh
	// allocation that leaves either pool's live-allocation count above it
	// (spec SPEC_FULL "pool-growth soft-warning"). 0 disables the warning.
	PoolWarnThreshold int

	// AcquireRetryBudget, when > 0, bounds the OUT_OF_DATE retry loop in
	// Acquire. 0 means unbounded, matching spec §9's documented hazard.
	AcquireRetryBudget int
}

// Context is the process-wide coordination object (spec §3 "Context").
// A Context and the swapchains it owns are not safe for concurrent use.
type Context struct {
	instance       vk.Instance
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	ft             *FunctionTable
	log            LogFunc

	poolWarnThreshold  int
	acquireRetryBudget int

	timeline      vk.Semaphore
	timelineValue uint64

	fenceFree []vk.Fence
	fenceLive int

	semFree []vk.Semaphore
	semLive int

	acquireReleases     []acquireReleaseRecord
	presentWaitRefcount map[vk.Semaphore]uint32

	liveSwapchains map[*Swapchain]struct{}
	destroyed      bool
}

// NewContext implements context_create (spec §6). info.Instance,
// info.Device and info.PhysicalDevice must be valid handles; invalid
// handles or a failed function-table load are fatal initialization
// errors.
func NewContext(info ContextInfo) (*Context, error) {
	if info.Instance == vk.NullInstance || info.Device == vk.NullDevice || info.PhysicalDevice == vk.NullPhysicalDevice {
		return nil, ErrInvalidHandle
	}

	ft := info.FunctionTable
	if ft == nil {
		var err error
		ft, err = LoadFunctionTable(info.Instance, info.PhysicalDevice, info.Device, info.HasDebugUtils)
		if err != nil {
			return nil, err
		}
	} else if err := ft.validate(); err != nil {
		return nil, err
	}

	timeline, err := ft.CreateTimelineSemaphore(0)
	if err != nil {
		return nil, err
	}

	return &Context{
		instance:            info.Instance,
		physicalDevice:      info.PhysicalDevice,
		device:              info.Device,
		ft:                  ft,
		log:                 info.Log,
		poolWarnThreshold:   info.PoolWarnThreshold,
		acquireRetryBudget:  info.AcquireRetryBudget,
		timeline:            timeline,
		presentWaitRefcount: make(map[vk.Semaphore]uint32),
		liveSwapchains:      make(map[*Swapchain]struct{}),
	}, nil
}

// Destroy implements context_destroy (spec §6). Precondition: every
// swapchain this context owns has already been destroyed.
func (c *Context) Destroy() error {
	if c.destroyed {
		return nil
	}
	if len(c.liveSwapchains) > 0 {
		return ErrContextHasLiveSwapchains
	}
	for _, f := range c.fenceFree {
		c.ft.DestroyFence(f)
	}
	c.fenceFree = nil
	for _, s := range c.semFree {
		c.ft.DestroySemaphore(s)
	}
	c.semFree = nil
	for _, rec := range c.acquireReleases {
		for _, s := range rec.semaphores {
			c.ft.DestroySemaphore(s)
		}
	}
	c.acquireReleases = nil
	for s := range c.presentWaitRefcount {
		c.ft.DestroySemaphore(s)
	}
	c.presentWaitRefcount = nil
	c.ft.DestroySemaphore(c.timeline)
	c.destroyed = true
	return nil
}

// PickPresentMode implements context_pick_present_mode (spec §6):
// returns the first mode in preferred that the surface supports, falling
// back to FIFO, which every conformant implementation guarantees.
func (c *Context) PickPresentMode(surface vk.Surface, preferred []vk.PresentMode) (vk.PresentMode, error) {
	supported, err := c.ft.GetSurfacePresentModes(c.physicalDevice, surface)
	if err != nil {
		return 0, err
	}
	for _, want := range preferred {
		for _, have := range supported {
			if want == have {
				c.logf(LevelInfo, "selected present mode %d", want)
				return want, nil
			}
		}
	}
	c.logf(LevelInfo, "no preferred present mode supported, falling back to FIFO")
	return vk.PresentModeFifo, nil
}

// PreferMailbox and PreferImmediate are convenience preference lists for
// PickPresentMode (SPEC_FULL "named present-mode preference list
// convenience", grounded on the original vk-wsi's mode-selection
// helpers).
var (
	PreferMailbox   = []vk.PresentMode{vk.PresentModeMailbox, vk.PresentModeFifo}
	PreferImmediate = []vk.PresentMode{vk.PresentModeImmediate, vk.PresentModeFifo}
)

func (c *Context) nameObject(objectType vk.DebugReportObjectType, handle uint64, name string) {
	if c.ft.SetDebugObjectName == nil || name == "" {
		return
	}
	if err := c.ft.SetDebugObjectName(objectType, handle, name); err != nil {
		c.logf(LevelWarn, "debug object naming failed: %v", err)
	}
}
