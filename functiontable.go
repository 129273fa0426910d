package vkwsi

import (
	"unsafe"

	vk "github.com/vulkan-go/vulkan"
)

// FunctionTable is the fixed set of entry points the coordination layer
// needs (spec §4.A): surface-capabilities queries, present-mode
// enumeration, semaphore/fence/image-view/swapchain lifetime management,
// queue submission and presentation, and optional debug naming. It is a
// plain record of function values loaded once — not a dynamic-dispatch
// hierarchy (spec §9 "Polymorphic entry-point table").
//
// vulkan-go links these symbols statically at build time, so "resolution"
// here means binding each closure to the instance/device/physical-device
// triple and validating the extensions those closures depend on, rather
// than probing for missing DLL/so symbols the way a hand-rolled loader
// over vkGetInstanceProcAddr would. A required field left nil by Load is
// treated exactly like a missing symbol: fatal at context_create.
type FunctionTable struct {
	GetSurfaceCapabilities  func(pdev vk.PhysicalDevice, surface vk.Surface) (SurfaceCapabilities, error)
	GetSurfaceCapabilities2 func(pdev vk.PhysicalDevice, surface vk.Surface, presentMode vk.PresentMode) (PresentScalingCapabilities, bool, error)
	GetSurfacePresentModes  func(pdev vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error)

	CreateBinarySemaphore    func() (vk.Semaphore, error)
	CreateTimelineSemaphore  func(initialValue uint64) (vk.Semaphore, error)
	DestroySemaphore         func(sem vk.Semaphore)
	GetSemaphoreCounterValue func(sem vk.Semaphore) (uint64, error)
	WaitSemaphores           func(sems []vk.Semaphore, values []uint64, timeoutNs uint64) error

	CreateFence    func() (vk.Fence, error)
	DestroyFence   func(fence vk.Fence)
	WaitForFences  func(fences []vk.Fence, waitAll bool, timeoutNs uint64) error
	ResetFences    func(fences []vk.Fence) error

	CreateImageView  func(image vk.Image, format vk.Format) (vk.ImageView, error)
	DestroyImageView func(view vk.ImageView)

	CreateSwapchain    func(params SwapchainCreateParams) (vk.Swapchain, error)
	DestroySwapchain   func(sc vk.Swapchain)
	GetSwapchainImages func(sc vk.Swapchain) ([]vk.Image, error)
	AcquireNextImage   func(sc vk.Swapchain, timeoutNs uint64, semaphore vk.Semaphore) (imageIndex uint32, result vk.Result, err error)

	QueueSubmit2 func(queue vk.Queue, batch SubmitBatch, fence vk.Fence) error
	QueuePresent func(queue vk.Queue, params PresentParams) (perSwapchain []vk.Result, err error)

	// SetDebugObjectName is optional: nil when VK_EXT_debug_utils isn't
	// enabled on the instance. Callers must nil-check before use.
	SetDebugObjectName func(objectType vk.DebugReportObjectType, handle uint64, name string) error
}

// validate checks the entries that must be non-nil after Load; all but
// SetDebugObjectName are required (spec §4.A, §6).
func (ft *FunctionTable) validate() error {
	required := map[string]bool{
		"GetSurfaceCapabilities": ft.GetSurfaceCapabilities != nil,
		"GetSurfaceCapabilities2": ft.GetSurfaceCapabilities2 != nil,
		"GetSurfacePresentModes": ft.GetSurfacePresentModes != nil,
		"CreateBinarySemaphore":  ft.CreateBinarySemaphore != nil,
		"CreateTimelineSemaphore": ft.CreateTimelineSemaphore != nil,
		"DestroySemaphore":       ft.DestroySemaphore != nil,
		"GetSemaphoreCounterValue": ft.GetSemaphoreCounterValue != nil,
		"WaitSemaphores":         ft.WaitSemaphores != nil,
		"CreateFence":            ft.CreateFence != nil,
		"DestroyFence":           ft.DestroyFence != nil,
		"WaitForFences":          ft.WaitForFences != nil,
		"ResetFences":            ft.ResetFences != nil,
		"CreateImageView":        ft.CreateImageView != nil,
		"DestroyImageView":       ft.DestroyImageView != nil,
		"CreateSwapchain":        ft.CreateSwapchain != nil,
		"DestroySwapchain":       ft.DestroySwapchain != nil,
		"GetSwapchainImages":     ft.GetSwapchainImages != nil,
		"AcquireNextImage":       ft.AcquireNextImage != nil,
		"QueueSubmit2":           ft.QueueSubmit2 != nil,
		"QueuePresent":           ft.QueuePresent != nil,
	}
	for name, ok := range required {
		if !ok {
			return wrapMissing(name)
		}
	}
	return nil
}

func wrapMissing(name string) error {
	return errWithField(ErrMissingEntryPoint, name)
}

// LoadFunctionTable resolves the fixed entry-point set against a live
// instance/physical-device/device triple. Failure to load any required
// symbol is a fatal initialization error (spec §4.A).
func LoadFunctionTable(instance vk.Instance, pdev vk.PhysicalDevice, device vk.Device, hasDebugUtils bool) (*FunctionTable, error) {
	if instance == vk.NullInstance || pdev == vk.NullPhysicalDevice || device == vk.NullDevice {
		return nil, ErrInvalidHandle
	}

	ft := &FunctionTable{
		GetSurfaceCapabilities: func(pdev vk.PhysicalDevice, surface vk.Surface) (SurfaceCapabilities, error) {
			var caps vk.SurfaceCapabilities
			ret := vk.GetPhysicalDeviceSurfaceCapabilities(pdev, surface, &caps)
			if err := wrapResult("vkGetPhysicalDeviceSurfaceCapabilitiesKHR", ret); err != nil {
				return SurfaceCapabilities{}, err
			}
			caps.Deref()
			caps.MinImageExtent.Deref()
			caps.MaxImageExtent.Deref()
			caps.CurrentExtent.Deref()
			return SurfaceCapabilities{
				MinImageCount:           caps.MinImageCount,
				MaxImageCount:           caps.MaxImageCount,
				MinExtent:               caps.MinImageExtent,
				MaxExtent:               caps.MaxImageExtent,
				CurrentExtent:           caps.CurrentExtent,
				SupportedTransforms:     caps.SupportedTransforms,
				CurrentTransform:        caps.CurrentTransform,
				SupportedCompositeAlpha: caps.SupportedCompositeAlpha,
			}, nil
		},

		// GetSurfaceCapabilities2 chains VK_EXT_surface_maintenance1's
		// present-mode and present-scaling-capabilities structs (spec
		// §4.A, §4.D step 1). Scaling opt-in is optional by design: a
		// driver lacking the extension simply never reports scaling
		// caps, and the negotiator falls through to the plain extent.
		GetSurfaceCapabilities2: func(pdev vk.PhysicalDevice, surface vk.Surface, presentMode vk.PresentMode) (PresentScalingCapabilities, bool, error) {
			var scaling vk.SurfacePresentScalingCapabilitiesEXT
			scaling.SType = vk.StructureTypeSurfacePresentScalingCapabilitiesExt

			var presentModeInfo vk.SurfacePresentModeEXT
			presentModeInfo.SType = vk.StructureTypeSurfacePresentModeExt
			presentModeInfo.PresentMode = presentMode
			presentModeInfo.PNext = unsafe.Pointer(&scaling)

			var caps2 vk.SurfaceCapabilities2KHR
			caps2.SType = vk.StructureTypeSurfaceCapabilities2Khr
			caps2.PNext = unsafe.Pointer(&presentModeInfo)

			info := vk.PhysicalDeviceSurfaceInfo2KHR{
				SType:   vk.StructureTypePhysicalDeviceSurfaceInfo2Khr,
				Surface: surface,
			}
			ret := vk.GetPhysicalDeviceSurfaceCapabilities2(pdev, &info, &caps2)
			if ret != vk.Success {
				// Extension unsupported on this driver: not an error,
				// just "no scaling capabilities available".
				return PresentScalingCapabilities{}, false, nil
			}
			scaling.Deref()
			if scaling.SupportedPresentScaling == 0 {
				return PresentScalingCapabilities{}, false, nil
			}
			scaling.MinScaledImageExtent.Deref()
			scaling.MaxScaledImageExtent.Deref()
			return PresentScalingCapabilities{
				SupportedScaling:     PresentScalingFlags(scaling.SupportedPresentScaling),
				MinScaledImageExtent: scaling.MinScaledImageExtent,
				MaxScaledImageExtent: scaling.MaxScaledImageExtent,
			}, true, nil
		},

		GetSurfacePresentModes: func(pdev vk.PhysicalDevice, surface vk.Surface) ([]vk.PresentMode, error) {
			var count uint32
			ret := vk.GetPhysicalDeviceSurfacePresentModes(pdev, surface, &count, nil)
			if err := wrapResult("vkGetPhysicalDeviceSurfacePresentModesKHR", ret); err != nil {
				return nil, err
			}
			modes := make([]vk.PresentMode, count)
			ret = vk.GetPhysicalDeviceSurfacePresentModes(pdev, surface, &count, modes)
			if err := wrapResult("vkGetPhysicalDeviceSurfacePresentModesKHR", ret); err != nil {
				return nil, err
			}
			return modes, nil
		},

		CreateBinarySemaphore: func() (vk.Semaphore, error) {
			var sem vk.Semaphore
			ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
				SType: vk.StructureTypeSemaphoreCreateInfo,
			}, nil, &sem)
			if err := wrapResult("vkCreateSemaphore", ret); err != nil {
				return vk.NullSemaphore, err
			}
			return sem, nil
		},

		CreateTimelineSemaphore: func(initialValue uint64) (vk.Semaphore, error) {
			typeInfo := vk.SemaphoreTypeCreateInfo{
				SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
				SemaphoreType: vk.SemaphoreTypeTimeline,
				InitialValue:  initialValue,
			}
			var sem vk.Semaphore
			ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
				SType: vk.StructureTypeSemaphoreCreateInfo,
				PNext: unsafe.Pointer(&typeInfo),
			}, nil, &sem)
			if err := wrapResult("vkCreateSemaphore(timeline)", ret); err != nil {
				return vk.NullSemaphore, err
			}
			return sem, nil
		},

		DestroySemaphore: func(sem vk.Semaphore) {
			vk.DestroySemaphore(device, sem, nil)
		},

		GetSemaphoreCounterValue: func(sem vk.Semaphore) (uint64, error) {
			var value uint64
			ret := vk.GetSemaphoreCounterValue(device, sem, &value)
			if err := wrapResult("vkGetSemaphoreCounterValue", ret); err != nil {
				return 0, err
			}
			return value, nil
		},

		WaitSemaphores: func(sems []vk.Semaphore, values []uint64, timeoutNs uint64) error {
			ret := vk.WaitSemaphores(device, &vk.SemaphoreWaitInfo{
				SType:          vk.StructureTypeSemaphoreWaitInfo,
				SemaphoreCount: uint32(len(sems)),
				PSemaphores:    sems,
				PValues:        values,
			}, timeoutNs)
			return wrapResult("vkWaitSemaphores", ret)
		},

		CreateFence: func() (vk.Fence, error) {
			var fence vk.Fence
			ret := vk.CreateFence(device, &vk.FenceCreateInfo{
				SType: vk.StructureTypeFenceCreateInfo,
			}, nil, &fence)
			if err := wrapResult("vkCreateFence", ret); err != nil {
				return vk.NullFence, err
			}
			return fence, nil
		},

		DestroyFence: func(fence vk.Fence) {
			vk.DestroyFence(device, fence, nil)
		},

		WaitForFences: func(fences []vk.Fence, waitAll bool, timeoutNs uint64) error {
			if len(fences) == 0 {
				return nil
			}
			ret := vk.WaitForFences(device, uint32(len(fences)), fences, vkBool(waitAll), timeoutNs)
			return wrapResult("vkWaitForFences", ret)
		},

		ResetFences: func(fences []vk.Fence) error {
			if len(fences) == 0 {
				return nil
			}
			ret := vk.ResetFences(device, uint32(len(fences)), fences)
			return wrapResult("vkResetFences", ret)
		},

		CreateImageView: func(image vk.Image, format vk.Format) (vk.ImageView, error) {
			var view vk.ImageView
			ret := vk.CreateImageView(device, &vk.ImageViewCreateInfo{
				SType:    vk.StructureTypeImageViewCreateInfo,
				Image:    image,
				ViewType: vk.ImageViewType2d,
				Format:   format,
				Components: vk.ComponentMapping{
					R: vk.ComponentSwizzleIdentity,
					G: vk.ComponentSwizzleIdentity,
					B: vk.ComponentSwizzleIdentity,
					A: vk.ComponentSwizzleIdentity,
				},
				SubresourceRange: vk.ImageSubresourceRange{
					AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
					BaseMipLevel:   0,
					LevelCount:     1,
					BaseArrayLayer: 0,
					LayerCount:     1,
				},
			}, nil, &view)
			if err := wrapResult("vkCreateImageView", ret); err != nil {
				return vk.NullImageView, err
			}
			return view, nil
		},

		DestroyImageView: func(view vk.ImageView) {
			vk.DestroyImageView(device, view, nil)
		},

		CreateSwapchain: func(params SwapchainCreateParams) (vk.Swapchain, error) {
			info := vk.SwapchainCreateInfo{
				SType:            vk.StructureTypeSwapchainCreateInfo,
				Surface:          params.Surface,
				MinImageCount:    params.MinImageCount,
				ImageFormat:      params.Format,
				ImageColorSpace:  params.ColorSpace,
				ImageExtent:      params.Extent,
				ImageArrayLayers: params.ArrayLayers,
				ImageUsage:       params.Usage,
				ImageSharingMode: params.SharingMode,
				PreTransform:     params.PreTransform,
				CompositeAlpha:   params.CompositeAlpha,
				PresentMode:      params.PresentMode,
				Clipped:          vk.True,
				OldSwapchain:     params.OldSwapchain,
			}
			if len(params.QueueFamilyIndices) > 0 {
				info.QueueFamilyIndexCount = uint32(len(params.QueueFamilyIndices))
				info.PQueueFamilyIndices = params.QueueFamilyIndices
			}

			var scalingInfo vk.SwapchainPresentScalingCreateInfoEXT
			if params.PresentScaling != 0 {
				scalingInfo = vk.SwapchainPresentScalingCreateInfoEXT{
					SType:          vk.StructureTypeSwapchainPresentScalingCreateInfoExt,
					PresentScaling: vk.PresentScalingFlagsEXT(params.PresentScaling),
				}
				info.PNext = unsafe.Pointer(&scalingInfo)
			}

			if params.DeferMemoryAllocation {
				// VK_EXT_swapchain_maintenance1's deferred-allocation
				// bit reduces resize latency and is safe to request
				// even against images that end up eagerly allocated.
				info.Flags |= vk.SwapchainCreateFlags(vk.SwapchainCreateDeferredMemoryAllocationBitExt)
			}

			var sc vk.Swapchain
			ret := vk.CreateSwapchain(device, &info, nil, &sc)
			if err := wrapResult("vkCreateSwapchainKHR", ret); err != nil {
				return vk.NullSwapchain, err
			}
			return sc, nil
		},

		DestroySwapchain: func(sc vk.Swapchain) {
			vk.DestroySwapchain(device, sc, nil)
		},

		GetSwapchainImages: func(sc vk.Swapchain) ([]vk.Image, error) {
			var count uint32
			ret := vk.GetSwapchainImages(device, sc, &count, nil)
			if err := wrapResult("vkGetSwapchainImagesKHR", ret); err != nil {
				return nil, err
			}
			images := make([]vk.Image, count)
			ret = vk.GetSwapchainImages(device, sc, &count, images)
			if err := wrapResult("vkGetSwapchainImagesKHR", ret); err != nil {
				return nil, err
			}
			return images, nil
		},

		AcquireNextImage: func(sc vk.Swapchain, timeoutNs uint64, semaphore vk.Semaphore) (uint32, vk.Result, error) {
			var index uint32
			ret := vk.AcquireNextImage(device, sc, timeoutNs, semaphore, vk.NullFence, &index)
			if ret == vk.Success || ret == vk.Suboptimal || ret == vk.ErrorOutOfDate {
				return index, ret, nil
			}
			return index, ret, wrapResult("vkAcquireNextImageKHR", ret)
		},

		QueueSubmit2: func(queue vk.Queue, batch SubmitBatch, fence vk.Fence) error {
			waitInfos := make([]vk.SemaphoreSubmitInfo, len(batch.Waits))
			for i, w := range batch.Waits {
				waitInfos[i] = vk.SemaphoreSubmitInfo{
					SType:     vk.StructureTypeSemaphoreSubmitInfo,
					Semaphore: w.Semaphore,
					Value:     w.Value,
					StageMask: vk.PipelineStageFlags2(w.Stage),
				}
			}
			signalInfos := make([]vk.SemaphoreSubmitInfo, len(batch.Signals))
			for i, s := range batch.Signals {
				signalInfos[i] = vk.SemaphoreSubmitInfo{
					SType:     vk.StructureTypeSemaphoreSubmitInfo,
					Semaphore: s.Semaphore,
					Value:     s.Value,
					StageMask: vk.PipelineStageFlags2(vk.PipelineStageAllCommandsBit),
				}
			}
			submit := vk.SubmitInfo2{
				SType:                    vk.StructureTypeSubmitInfo2,
				WaitSemaphoreInfoCount:   uint32(len(waitInfos)),
				SignalSemaphoreInfoCount: uint32(len(signalInfos)),
			}
			if len(waitInfos) > 0 {
				submit.PWaitSemaphoreInfos = waitInfos
			}
			if len(signalInfos) > 0 {
				submit.PSignalSemaphoreInfos = signalInfos
			}
			ret := vk.QueueSubmit2(queue, 1, []vk.SubmitInfo2{submit}, fence)
			return wrapResult("vkQueueSubmit2", ret)
		},

		QueuePresent: func(queue vk.Queue, params PresentParams) ([]vk.Result, error) {
			results := make([]vk.Result, len(params.Swapchains))
			info := vk.PresentInfo{
				SType:              vk.StructureTypePresentInfo,
				SwapchainCount:     uint32(len(params.Swapchains)),
				PSwapchains:        params.Swapchains,
				PImageIndices:      params.ImageIndices,
				PResults:           results,
			}
			if params.Wait != vk.NullSemaphore {
				info.WaitSemaphoreCount = 1
				info.PWaitSemaphores = []vk.Semaphore{params.Wait}
			}

			var fenceInfo vk.SwapchainPresentFenceInfoEXT
			if len(params.Fences) > 0 {
				fenceInfo = vk.SwapchainPresentFenceInfoEXT{
					SType:          vk.StructureTypeSwapchainPresentFenceInfoExt,
					SwapchainCount: uint32(len(params.Fences)),
					PFences:        params.Fences,
				}
				info.PNext = unsafe.Pointer(&fenceInfo)
			}

			ret := vk.QueuePresent(queue, &info)
			if ret != vk.Success && ret != vk.Suboptimal && ret != vk.ErrorOutOfDate {
				return results, wrapResult("vkQueuePresentKHR", ret)
			}
			return results, nil
		},
	}

	if hasDebugUtils {
		ft.SetDebugObjectName = func(objectType vk.DebugReportObjectType, handle uint64, name string) error {
			ret := vk.SetDebugUtilsObjectNameEXT(device, &vk.DebugUtilsObjectNameInfoEXT{
				SType:        vk.StructureTypeDebugUtilsObjectNameInfoExt,
				ObjectType:   vk.ObjectType(objectType),
				ObjectHandle: handle,
				PObjectName:  name,
			})
			return wrapResult("vkSetDebugUtilsObjectNameEXT", ret)
		}
	}

	if err := ft.validate(); err != nil {
		return nil, err
	}
	return ft, nil
}

func vkBool(b bool) vk.Bool32 {
	if b {
		return vk.True
	}
	return vk.False
}
