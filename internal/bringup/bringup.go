// Package bringup boots a window, a Vulkan instance, a device and a
// presentable surface for the demo command. None of this is part of the
// coordination layer itself (vkwsi.Context takes an already-live
// instance/device/physical-device triple); it exists only to get a real
// GPU handle into cmd/demo's hands the way the example programs in this
// tree always have: enumerate extensions, create an instance, pick a
// GPU, create a device, open a window and its surface.
package bringup

import (
	"fmt"
	"log"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Boot is the live set of handles a demo needs to hand to vkwsi.NewContext
// and to drive its own window/surface lifecycle.
type Boot struct {
	Window         *glfw.Window
	Instance       vk.Instance
	PhysicalDevice vk.PhysicalDevice
	Device         vk.Device
	Surface        vk.Surface
	GraphicsQueue  vk.Queue
	QueueFamily    uint32
	HasDebugUtils  bool
}

// Options configures Boot.
type Options struct {
	AppName       string
	Width, Height int
	EnableDebug   bool
	// DeviceExtensions are the device extensions to enable, e.g.
	// VK_KHR_swapchain, VK_EXT_swapchain_maintenance1 and
	// VK_KHR_synchronization2; the swapchain extension is not added
	// automatically.
	DeviceExtensions []string
}

// New opens a window and brings a Vulkan instance/device/surface up for
// it, picking the first GPU that both supports the requested device
// extensions and can present to the created surface.
func New(opts Options) (*Boot, error) {
	if err := glfw.Init(); err != nil {
		return nil, errors.Wrap(err, "bringup: glfw init")
	}
	if err := vk.Init(); err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "bringup: vulkan init")
	}

	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI)
	window, err := glfw.CreateWindow(opts.Width, opts.Height, opts.AppName, nil, nil)
	if err != nil {
		glfw.Terminate()
		return nil, errors.Wrap(err, "bringup: create window")
	}

	b := &Boot{Window: window}

	instanceExtensions := append(window.GetRequiredInstanceExtensions(), safeStrings([]string{
		"VK_KHR_get_physical_device_properties2",
	})...)
	if opts.EnableDebug {
		instanceExtensions = append(instanceExtensions, safeString("VK_EXT_debug_utils"))
	}

	var instance vk.Instance
	ret := vk.CreateInstance(&vk.InstanceCreateInfo{
		SType: vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo: &vk.ApplicationInfo{
			SType:            vk.StructureTypeApplicationInfo,
			PApplicationName: safeString(opts.AppName),
			ApiVersion:       vk.MakeVersion(1, 3, 0),
		},
		EnabledExtensionCount:   uint32(len(instanceExtensions)),
		PpEnabledExtensionNames: instanceExtensions,
	}, nil, &instance)
	if err := vkErr(ret); err != nil {
		b.destroyPartial()
		return nil, errors.Wrap(err, "bringup: create instance")
	}
	vk.InitInstance(instance)
	b.Instance = instance
	b.HasDebugUtils = opts.EnableDebug

	surfPtr, err := window.CreateWindowSurface(instance, nil)
	if err != nil {
		b.destroyPartial()
		return nil, errors.Wrap(err, "bringup: create surface")
	}
	b.Surface = vk.SurfaceFromPointer(surfPtr)

	if err := b.pickDeviceAndQueue(opts.DeviceExtensions); err != nil {
		b.destroyPartial()
		return nil, err
	}

	return b, nil
}

func (b *Boot) pickDeviceAndQueue(requiredDeviceExtensions []string) error {
	var gpuCount uint32
	ret := vk.EnumeratePhysicalDevices(b.Instance, &gpuCount, nil)
	if err := vkErr(ret); err != nil {
		return errors.Wrap(err, "bringup: enumerate physical devices")
	}
	if gpuCount == 0 {
		return errors.New("bringup: no GPU devices found")
	}
	gpus := make([]vk.PhysicalDevice, gpuCount)
	ret = vk.EnumeratePhysicalDevices(b.Instance, &gpuCount, gpus)
	if err := vkErr(ret); err != nil {
		return errors.Wrap(err, "bringup: enumerate physical devices")
	}

	for _, gpu := range gpus {
		family, ok := b.findPresentableGraphicsQueue(gpu)
		if !ok {
			continue
		}

		queueInfos := []vk.DeviceQueueCreateInfo{{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1.0},
		}}

		extNames := safeStrings(requiredDeviceExtensions)
		var device vk.Device
		ret := vk.CreateDevice(gpu, &vk.DeviceCreateInfo{
			SType:                   vk.StructureTypeDeviceCreateInfo,
			QueueCreateInfoCount:    uint32(len(queueInfos)),
			PQueueCreateInfos:       queueInfos,
			EnabledExtensionCount:   uint32(len(extNames)),
			PpEnabledExtensionNames: extNames,
		}, nil, &device)
		if err := vkErr(ret); err != nil {
			log.Printf("bringup: device creation failed on a candidate GPU, trying next: %v", err)
			continue
		}

		var queue vk.Queue
		vk.GetDeviceQueue(device, family, 0, &queue)

		b.PhysicalDevice = gpu
		b.Device = device
		b.GraphicsQueue = queue
		b.QueueFamily = family
		return nil
	}

	return errors.New("bringup: no GPU found with a graphics+present queue family")
}

func (b *Boot) findPresentableGraphicsQueue(gpu vk.PhysicalDevice) (uint32, bool) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(gpu, &count, props)

	for i := uint32(0); i < count; i++ {
		props[i].Deref()
		if props[i].QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) == 0 {
			continue
		}
		var supported vk.Bool32
		vk.GetPhysicalDeviceSurfaceSupport(gpu, i, b.Surface, &supported)
		if supported.B() {
			return i, true
		}
	}
	return 0, false
}

// Destroy tears everything down in dependency order.
func (b *Boot) Destroy() {
	if b.Device != nil {
		vk.DeviceWaitIdle(b.Device)
	}
	b.destroyPartial()
}

func (b *Boot) destroyPartial() {
	if b.Device != nil {
		vk.DestroyDevice(b.Device, nil)
		b.Device = nil
	}
	if b.Surface != vk.NullSurface {
		vk.DestroySurface(b.Instance, b.Surface, nil)
		b.Surface = vk.NullSurface
	}
	if b.Instance != nil {
		vk.DestroyInstance(b.Instance, nil)
		b.Instance = nil
	}
	if b.Window != nil {
		b.Window.Destroy()
		b.Window = nil
	}
	glfw.Terminate()
}

func vkErr(ret vk.Result) error {
	if ret == vk.Success {
		return nil
	}
	return fmt.Errorf("vulkan result %d", ret)
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(list []string) []string {
	out := make([]string, len(list))
	for i, s := range list {
		out[i] = safeString(s)
	}
	return out
}
