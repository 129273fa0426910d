package vkwsi

import vk "github.com/vulkan-go/vulkan"

// Present implements present_images (spec §4.F). clientWaits are timeline
// waits the caller's rendering work signals; hostWait selects between the
// two ways of turning those timeline waits into something vkQueuePresentKHR
// can consume, since presentation only understands binary semaphores:
//
//   - hostWait == true: block the host on clientWaits via WaitSemaphores,
//     then present with no wait semaphore at all.
//   - hostWait == false: submit a queue batch that waits on clientWaits
//     and signals one pooled binary semaphore, shared across every
//     swapchain in this call, then present waiting on that semaphore.
//
// Every swapchain presented together gets its own present-signal-fence
// installed via the present-fence-info extension chain, so a later
// drainAll/completePresent can reclaim resources without blocking the
// whole batch on the slowest swapchain.
func (c *Context) Present(swapchains []*Swapchain, queue vk.Queue, clientWaits []SemaphoreWait, hostWait bool) error {
	if len(swapchains) == 0 {
		return nil
	}

	for _, s := range swapchains {
		if s.state == StateDestroyed {
			return ErrSwapchainDestroyed
		}
	}

	var sharedWait vk.Semaphore
	if len(clientWaits) > 0 {
		if hostWait {
			sems := make([]vk.Semaphore, len(clientWaits))
			values := make([]uint64, len(clientWaits))
			for i, w := range clientWaits {
				sems[i] = w.Semaphore
				values[i] = w.Value
			}
			if err := c.ft.WaitSemaphores(sems, values, ^uint64(0)); err != nil {
				return err
			}
		} else {
			sem, err := c.getBinarySemaphore()
			if err != nil {
				return err
			}
			batch := SubmitBatch{
				Waits: clientWaits,
				Signals: []SemaphoreSignal{
					{Semaphore: sem},
				},
			}
			if err := c.ft.QueueSubmit2(queue, batch, vk.NullFence); err != nil {
				c.returnBinarySemaphore(sem)
				return err
			}
			sharedWait = sem
		}
	}

	handles := make([]vk.Swapchain, len(swapchains))
	indices := make([]uint32, len(swapchains))
	fences := make([]vk.Fence, len(swapchains))
	for i, s := range swapchains {
		handles[i] = s.handle
		indices[i] = s.imageIndex
		f, err := c.getFence()
		if err != nil {
			return err
		}
		fences[i] = f
	}

	params := PresentParams{
		Wait:         sharedWait,
		Swapchains:   handles,
		ImageIndices: indices,
		Fences:       fences,
	}

	results, err := c.ft.QueuePresent(queue, params)
	if err != nil {
		return err
	}

	if sharedWait != vk.NullSemaphore {
		c.presentWaitRefcount[sharedWait] = uint32(len(swapchains))
	}

	var firstErr error
	for i, s := range swapchains {
		r := &s.resources[indices[i]]
		r.PresentSignalFence = fences[i]
		if sharedWait != vk.NullSemaphore {
			r.LastPresentWaitSemaphore = sharedWait
		}

		if i < len(results) {
			ret := results[i]
			switch {
			case isOutOfDate(ret):
				s.outOfDate = true
			case isSuboptimal(ret):
				s.outOfDate = true
			case ret != vk.Success:
				if firstErr == nil {
					firstErr = wrapResult("vkQueuePresentKHR (per-swapchain)", ret)
				}
			}
		}
	}

	return firstErr
}

// completePresent implements present-completion reconciliation (spec
// §4.G). If the resource slot has a present-signal-fence outstanding, it
// host-waits on it and returns it to the fence pool. If it has a shared
// present-wait semaphore outstanding, it decrements that semaphore's
// refcount, returning the semaphore to the pool and erasing the map entry
// only once every swapchain sharing it has reconciled.
func (c *Context) completePresent(r *ImageResources) error {
	if r.PresentSignalFence != vk.NullFence {
		if err := c.ft.WaitForFences([]vk.Fence{r.PresentSignalFence}, true, ^uint64(0)); err != nil {
			return err
		}
		if err := c.returnFence(r.PresentSignalFence); err != nil {
			return err
		}
		r.PresentSignalFence = vk.NullFence
	}

	if r.LastPresentWaitSemaphore != vk.NullSemaphore {
		sem := r.LastPresentWaitSemaphore
		if count, ok := c.presentWaitRefcount[sem]; ok {
			count--
			if count == 0 {
				delete(c.presentWaitRefcount, sem)
				c.returnBinarySemaphore(sem)
			} else {
				c.presentWaitRefcount[sem] = count
			}
		}
		r.LastPresentWaitSemaphore = vk.NullSemaphore
	}

	return nil
}
