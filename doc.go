// Package vkwsi coordinates Vulkan swapchain acquisition and presentation
// across one or more surfaces. It pools and recycles the binary semaphores
// and fences a swapchain needs, renegotiates surface capabilities on
// resize, and recovers from OUT_OF_DATE/SUBOPTIMAL results so that callers
// see a plain acquire / get-current / present cycle.
//
// The instance, physical device, logical device and queues are created by
// the caller (see internal/bringup and cmd/demo for one way to do that);
// vkwsi only consumes handles. Likewise command recording, pipelines and
// render passes are the caller's concern.
//
// A Context and the Swapchains it owns are not safe for concurrent use;
// callers serialize all calls on a given Context.
package vkwsi
