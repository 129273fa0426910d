package vkwsi

import vk "github.com/vulkan-go/vulkan"

// clampExtent clamps desired into [caps.MinExtent, caps.MaxExtent] on
// both axes (spec §4.D step 2).
func clampExtent(desired vk.Extent2D, caps SurfaceCapabilities) vk.Extent2D {
	clamp := func(v, lo, hi uint32) uint32 {
		if v < lo {
			return lo
		}
		if v > hi {
			return hi
		}
		return v
	}
	return vk.Extent2D{
		Width:  clamp(desired.Width, caps.MinExtent.Width, caps.MaxExtent.Width),
		Height: clamp(desired.Height, caps.MinExtent.Height, caps.MaxExtent.Height),
	}
}

func extentWithin(e, lo, hi vk.Extent2D) bool {
	return e.Width >= lo.Width && e.Width <= hi.Width && e.Height >= lo.Height && e.Height <= hi.Height
}

// chooseScalingMode picks the first available mode in priority order
// {ONE_TO_ONE, ASPECT_RATIO_STRETCH, STRETCH, else the lowest-numbered bit
// set} (spec §4.D step 3).
func chooseScalingMode(supported PresentScalingFlags) PresentScalingFlags {
	priority := []PresentScalingFlags{
		PresentScalingOneToOne,
		PresentScalingAspectRatioStretch,
		PresentScalingStretch,
	}
	for _, mode := range priority {
		if supported&mode != 0 {
			return mode
		}
	}
	for bit := PresentScalingFlags(1); bit != 0; bit <<= 1 {
		if supported&bit != 0 {
			return bit
		}
	}
	return 0
}

// clampImageCount computes
// clamp(max(desiredMin, caps.MinImageCount), caps.MinImageCount,
// caps.MaxImageCount==0 ? inf : caps.MaxImageCount) (spec §4.D step 4).
func clampImageCount(desiredMin uint32, caps SurfaceCapabilities) uint32 {
	count := desiredMin
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount != 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

// negotiate runs the capability negotiator for one swapchain (spec
// §4.D). Precondition: every outstanding present on this swapchain has
// completed (the caller drains before calling this).
//
// Returns (created, error): created is false when the negotiator decided
// no recreation was needed (step 5's no-op return), or when the GPU
// reported OUT_OF_DATE during creation — in the latter case out_of_date
// stays set and the caller's acquire loop retries (step 7).
func (s *Swapchain) negotiate(desiredExtent vk.Extent2D) (created bool, err error) {
	ft := s.ctx.ft

	caps, err := ft.GetSurfaceCapabilities(s.ctx.physicalDevice, s.surface)
	if err != nil {
		return false, err
	}

	extent := clampExtent(desiredExtent, caps)

	// PresentMode's zero value is VK_PRESENT_MODE_IMMEDIATE_KHR, a legitimate
	// explicit choice (types.go normalized() deliberately never defaults it),
	// so whatever pendingInfo carries is used as-is.
	presentMode := s.pendingInfo.PresentMode

	var scalingMode PresentScalingFlags
	scalingCaps, hasScaling, err := ft.GetSurfaceCapabilities2(s.ctx.physicalDevice, s.surface, presentMode)
	if err != nil {
		return false, err
	}
	if hasScaling && extentWithin(desiredExtent, scalingCaps.MinScaledImageExtent, scalingCaps.MaxScaledImageExtent) {
		scalingMode = chooseScalingMode(scalingCaps.SupportedScaling)
		if scalingMode != 0 {
			extent = desiredExtent
			s.ctx.logf(LevelInfo, "swapchain scaling mode %d selected, extent %dx%d", scalingMode, extent.Width, extent.Height)
		}
	}

	imageCount := clampImageCount(s.pendingInfo.MinImageCount, caps)

	if !s.outOfDate && extent == s.lastExtent && s.handle != vk.NullSwapchain {
		return false, nil
	}

	params := SwapchainCreateParams{
		Surface:               s.surface,
		MinImageCount:         imageCount,
		Format:                s.pendingInfo.Format,
		ColorSpace:            s.pendingInfo.ColorSpace,
		Extent:                extent,
		ArrayLayers:           s.pendingInfo.ArrayLayers,
		Usage:                 s.pendingInfo.Usage,
		SharingMode:           s.pendingInfo.SharingMode,
		QueueFamilyIndices:    s.pendingInfo.QueueFamilyIndices,
		PreTransform:          s.pendingInfo.PreTransform,
		CompositeAlpha:        s.pendingInfo.CompositeAlpha,
		PresentMode:           presentMode,
		PresentScaling:        scalingMode,
		OldSwapchain:          s.handle,
		DeferMemoryAllocation: true,
	}

	newHandle, err := ft.CreateSwapchain(params)
	if err != nil {
		if ret, ok := resultOf(err); ok && isOutOfDate(ret) {
			s.outOfDate = true
			s.ctx.logf(LevelWarn, "swapchain recreate returned OUT_OF_DATE, retrying on next acquire")
			return false, nil
		}
		return false, err
	}

	oldHandle := s.handle
	oldResources := s.resources

	images, err := ft.GetSwapchainImages(newHandle)
	if err != nil {
		ft.DestroySwapchain(newHandle)
		return false, err
	}

	if oldHandle != vk.NullSwapchain {
		for i := range oldResources {
			if oldResources[i].View != vk.NullImageView {
				ft.DestroyImageView(oldResources[i].View)
			}
		}
		ft.DestroySwapchain(oldHandle)
	}

	resources := make([]ImageResources, len(images))
	for i, img := range images {
		resources[i] = ImageResources{Image: img}
	}

	s.handle = newHandle
	s.resources = resources
	s.imageIndex = 0
	s.lastExtent = extent
	s.outOfDate = false
	s.info = s.pendingInfo
	s.version++
	s.state = StateLive

	s.ctx.nameObject(vk.DebugReportObjectTypeSwapchainKhr, uint64FromSwapchain(newHandle), "vkwsi swapchain")

	return true, nil
}

func uint64FromSwapchain(sc vk.Swapchain) uint64 {
	return uint64(sc)
}
