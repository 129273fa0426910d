package vkwsi

import vk "github.com/vulkan-go/vulkan"

// Config is a swapchain configuration (spec §3 "Swapchain configuration").
// When passed to NewSwapchain/SetInfo, a zero ArrayLayers, PreTransform or
// CompositeAlpha takes its documented default; every other field, including
// PresentMode (whose zero value is IMMEDIATE), is used as given.
// DefaultConfig returns a populated starting point.
type Config struct {
	MinImageCount      uint32
	Format             vk.Format
	ColorSpace         vk.ColorSpace
	ArrayLayers        uint32 // default 1
	Usage              vk.ImageUsageFlags
	SharingMode        vk.SharingMode
	QueueFamilyIndices []uint32
	PreTransform       vk.SurfaceTransformFlagBits // default identity
	CompositeAlpha     vk.CompositeAlphaFlagBits   // default opaque
	PresentMode        vk.PresentMode              // FIFO in DefaultConfig
}

// DefaultConfig returns a Config with the defaults named in spec §3.
func DefaultConfig() Config {
	return Config{
		MinImageCount:  2,
		Format:         vk.FormatB8g8r8a8Srgb,
		ColorSpace:     vk.ColorSpaceSrgbNonlinear,
		ArrayLayers:    1,
		Usage:          vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit),
		SharingMode:    vk.SharingModeExclusive,
		PreTransform:   vk.SurfaceTransformIdentityBit,
		CompositeAlpha: vk.CompositeAlphaOpaqueBit,
		PresentMode:    vk.PresentModeFifo,
	}
}

func (c Config) normalized() Config {
	if c.ArrayLayers == 0 {
		c.ArrayLayers = 1
	}
	if c.PreTransform == 0 {
		c.PreTransform = vk.SurfaceTransformIdentityBit
	}
	if c.CompositeAlpha == 0 {
		c.CompositeAlpha = vk.CompositeAlphaOpaqueBit
	}
	return c
}

// ImageResources holds the per-image state the swapchain wrapper tracks
// (spec §3 "Per-image resources").
type ImageResources struct {
	Image                    vk.Image
	View                     vk.ImageView
	PresentSignalFence       vk.Fence
	LastPresentWaitSemaphore vk.Semaphore
}

// CurrentImage is returned by Swapchain.GetCurrent.
type CurrentImage struct {
	Index  uint32
	Image  vk.Image
	View   vk.ImageView
	Extent vk.Extent2D
	Version uint64
}

// SemaphoreWait/SemaphoreSignal describe a client-supplied timeline wait
// or signal passed to Acquire/Present.
type SemaphoreWait struct {
	Semaphore vk.Semaphore
	Value     uint64 // 0 for a binary semaphore wait
	Stage     vk.PipelineStageFlags
}

type SemaphoreSignal struct {
	Semaphore vk.Semaphore
	Value     uint64 // 0 for a binary semaphore signal
}

// SurfaceCapabilities mirrors the fields of VkSurfaceCapabilitiesKHR the
// negotiator needs (spec §4.D step 1-2).
type SurfaceCapabilities struct {
	MinImageCount           uint32
	MaxImageCount           uint32 // 0 means unbounded
	MinExtent               vk.Extent2D
	MaxExtent               vk.Extent2D
	CurrentExtent           vk.Extent2D
	SupportedTransforms     vk.SurfaceTransformFlags
	CurrentTransform        vk.SurfaceTransformFlagBits
	SupportedCompositeAlpha vk.CompositeAlphaFlags
}

// PresentScalingFlags mirrors VkPresentScalingFlagsEXT bits, in the
// priority order spec §4.D step 3 picks from.
type PresentScalingFlags uint32

const (
	PresentScalingOneToOne           PresentScalingFlags = 1 << 0
	PresentScalingAspectRatioStretch PresentScalingFlags = 1 << 1
	PresentScalingStretch            PresentScalingFlags = 1 << 2
)

// PresentScalingCapabilities mirrors VkSurfacePresentScalingCapabilitiesEXT,
// obtained by chaining the surface-capabilities-v2 query (spec §4.A, §4.D).
type PresentScalingCapabilities struct {
	SupportedScaling    PresentScalingFlags
	MinScaledImageExtent vk.Extent2D
	MaxScaledImageExtent vk.Extent2D
}

// SwapchainCreateParams is the function table's input to CreateSwapchain,
// carrying everything the negotiator computed plus the deferred-memory-
// allocation flag (spec §4.D step 6).
type SwapchainCreateParams struct {
	Surface               vk.Surface
	MinImageCount         uint32
	Format                vk.Format
	ColorSpace            vk.ColorSpace
	Extent                vk.Extent2D
	ArrayLayers           uint32
	Usage                 vk.ImageUsageFlags
	SharingMode           vk.SharingMode
	QueueFamilyIndices    []uint32
	PreTransform          vk.SurfaceTransformFlagBits
	CompositeAlpha        vk.CompositeAlphaFlagBits
	PresentMode           vk.PresentMode
	PresentScaling        PresentScalingFlags // 0 = no scaling struct chained
	OldSwapchain          vk.Swapchain
	DeferMemoryAllocation bool
}

// SubmitBatch is one vkQueueSubmit2-shaped batch (spec §4.E, §4.F).
type SubmitBatch struct {
	Waits   []SemaphoreWait
	Signals []SemaphoreSignal
}

// PresentParams is the function table's input to QueuePresent.
type PresentParams struct {
	Wait         vk.Semaphore // NullSemaphore means no wait
	Swapchains   []vk.Swapchain
	ImageIndices []uint32
	Fences       []vk.Fence // per-swapchain present-fence-info extension; may be empty
}
