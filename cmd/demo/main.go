// Command demo drives a single window through the acquire/present
// protocol with a trivial clear-color render, exercising vkwsi the way a
// real renderer would: one shared timeline semaphore carries the
// handoff between the coordination layer's internal submissions and the
// client's own render commands.
package main

import (
	"fmt"
	"log"
	"runtime"
	"unsafe"

	"github.com/andewx/vkwsi"
	"github.com/andewx/vkwsi/internal/bringup"
	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
)

const (
	width  = 640
	height = 480
)

func main() {
	runtime.LockOSThread()

	boot, err := bringup.New(bringup.Options{
		AppName: "vkwsi demo",
		Width:   width,
		Height:  height,
		DeviceExtensions: []string{
			"VK_KHR_swapchain",
			"VK_KHR_synchronization2",
			"VK_EXT_swapchain_maintenance1",
			"VK_EXT_surface_maintenance1",
		},
	})
	if err != nil {
		log.Fatalf("bringup failed: %v", err)
	}
	defer boot.Destroy()

	ctx, err := vkwsi.NewContext(vkwsi.ContextInfo{
		Instance:          boot.Instance,
		Device:            boot.Device,
		PhysicalDevice:    boot.PhysicalDevice,
		HasDebugUtils:     boot.HasDebugUtils,
		Log:               logAdapter,
		PoolWarnThreshold: 16,
	})
	if err != nil {
		log.Fatalf("vkwsi.NewContext failed: %v", err)
	}
	defer ctx.Destroy()

	cfg := vkwsi.DefaultConfig()
	sc, err := vkwsi.NewSwapchain(ctx, boot.Surface, cfg)
	if err != nil {
		log.Fatalf("vkwsi.NewSwapchain failed: %v", err)
	}
	defer sc.Destroy()

	pool, err := createCommandPool(boot.Device, boot.QueueFamily)
	if err != nil {
		log.Fatalf("command pool: %v", err)
	}
	defer vk.DestroyCommandPool(boot.Device, pool, nil)

	renderTimeline, err := createTimelineSemaphore(boot.Device)
	if err != nil {
		log.Fatalf("render timeline: %v", err)
	}
	defer vk.DestroySemaphore(boot.Device, renderTimeline, nil)

	var frame uint64
	for !boot.Window.ShouldClose() {
		glfw.PollEvents()

		w, h := boot.Window.GetSize()
		sc.Resize(vk.Extent2D{Width: uint32(w), Height: uint32(h)})

		acquiredValue := frame*2 + 1
		renderedValue := frame*2 + 2

		err := ctx.Acquire([]*vkwsi.Swapchain{sc}, boot.GraphicsQueue, []vkwsi.SemaphoreSignal{
			{Semaphore: renderTimeline, Value: acquiredValue},
		})
		if err != nil {
			log.Printf("acquire failed: %v", err)
			continue
		}

		current, err := sc.GetCurrent()
		if err != nil {
			log.Printf("get current failed: %v", err)
			continue
		}

		if err := recordClear(boot.Device, pool, boot.GraphicsQueue, current.Image, renderTimeline, acquiredValue, renderedValue); err != nil {
			log.Printf("clear submit failed: %v", err)
			continue
		}

		err = ctx.Present([]*vkwsi.Swapchain{sc}, boot.GraphicsQueue, []vkwsi.SemaphoreWait{
			{Semaphore: renderTimeline, Value: renderedValue, Stage: vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit)},
		}, false)
		if err != nil {
			log.Printf("present failed: %v", err)
		}

		frame++
	}
}

func logAdapter(level vkwsi.Level, message string) {
	log.Printf("[%s] %s", level, message)
}

func createCommandPool(device vk.Device, family uint32) (vk.CommandPool, error) {
	var pool vk.CommandPool
	ret := vk.CreateCommandPool(device, &vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
		QueueFamilyIndex: family,
	}, nil, &pool)
	if ret != vk.Success {
		return vk.NullCommandPool, vkResultErr(ret)
	}
	return pool, nil
}

func createTimelineSemaphore(device vk.Device) (vk.Semaphore, error) {
	typeInfo := vk.SemaphoreTypeCreateInfo{
		SType:         vk.StructureTypeSemaphoreTypeCreateInfo,
		SemaphoreType: vk.SemaphoreTypeTimeline,
	}
	var sem vk.Semaphore
	ret := vk.CreateSemaphore(device, &vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
		PNext: unsafe.Pointer(&typeInfo),
	}, nil, &sem)
	if ret != vk.Success {
		return vk.NullSemaphore, vkResultErr(ret)
	}
	return sem, nil
}

// recordClear waits for acquiredValue, clears image to a solid color and
// signals renderedValue, all in one command buffer submitted on the
// shared timeline.
func recordClear(device vk.Device, pool vk.CommandPool, queue vk.Queue, image vk.Image, timeline vk.Semaphore, waitValue, signalValue uint64) error {
	cmdBufs := make([]vk.CommandBuffer, 1)
	ret := vk.AllocateCommandBuffers(device, &vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        pool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}, cmdBufs)
	if ret != vk.Success {
		return vkResultErr(ret)
	}
	cmd := cmdBufs[0]
	defer vk.FreeCommandBuffers(device, pool, 1, cmdBufs)

	if ret := vk.BeginCommandBuffer(cmd, &vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}); ret != vk.Success {
		return vkResultErr(ret)
	}

	barrierToTransfer := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutUndefined,
		NewLayout:           vk.ImageLayoutTransferDstOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange: vk.ImageSubresourceRange{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		},
	}
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit), 0, 0, nil, 0, nil, 1,
		[]vk.ImageMemoryBarrier{barrierToTransfer})

	vk.CmdClearColorImage(cmd, image, vk.ImageLayoutTransferDstOptimal,
		&vk.ClearColorValue{}, 1, []vk.ImageSubresourceRange{{
			AspectMask: vk.ImageAspectFlags(vk.ImageAspectColorBit),
			LevelCount: 1,
			LayerCount: 1,
		}})

	barrierToPresent := barrierToTransfer
	barrierToPresent.OldLayout = vk.ImageLayoutTransferDstOptimal
	barrierToPresent.NewLayout = vk.ImageLayoutPresentSrc
	vk.CmdPipelineBarrier(cmd, vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit), 0, 0, nil, 0, nil, 1,
		[]vk.ImageMemoryBarrier{barrierToPresent})

	if ret := vk.EndCommandBuffer(cmd); ret != vk.Success {
		return vkResultErr(ret)
	}

	timelineInfo := vk.TimelineSemaphoreSubmitInfo{
		SType:                     vk.StructureTypeTimelineSemaphoreSubmitInfo,
		WaitSemaphoreValueCount:   1,
		PWaitSemaphoreValues:      []uint64{waitValue},
		SignalSemaphoreValueCount: 1,
		PSignalSemaphoreValues:    []uint64{signalValue},
	}
	submit := vk.SubmitInfo{
		SType:                vk.StructureTypeSubmitInfo,
		PNext:                unsafe.Pointer(&timelineInfo),
		WaitSemaphoreCount:   1,
		PWaitSemaphores:      []vk.Semaphore{timeline},
		PWaitDstStageMask:    []vk.PipelineStageFlags{vk.PipelineStageFlags(vk.PipelineStageTransferBit)},
		CommandBufferCount:   1,
		PCommandBuffers:      cmdBufs,
		SignalSemaphoreCount: 1,
		PSignalSemaphores:    []vk.Semaphore{timeline},
	}
	ret = vk.QueueSubmit(queue, 1, []vk.SubmitInfo{submit}, vk.NullFence)
	if ret != vk.Success {
		return vkResultErr(ret)
	}
	return nil
}

func vkResultErr(ret vk.Result) error {
	return &demoResultError{ret}
}

type demoResultError struct{ result vk.Result }

func (e *demoResultError) Error() string {
	return fmt.Sprintf("vulkan result %d", e.result)
}
