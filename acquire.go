package vkwsi

import vk "github.com/vulkan-go/vulkan"

// maxWaitsPerChunk returns the chunking width for the wait-semaphore
// submission spec §4.E mandates: 2 waits per submit2 batch ordinarily,
// dropping to 1 once more than 3 swapchains are in the same Acquire call
// (keeps a single driver-side wait-semaphore array from growing past what
// cheap hardware queues handle well).
func maxWaitsPerChunk(swapchainCount int) int {
	if swapchainCount > 3 {
		return 1
	}
	return 2
}

// Acquire implements acquire_images (spec §4.E): for every swapchain in
// the batch, recreates it if needed, acquires the next image with a
// fresh pooled binary semaphore, then submits the chunked wait-semaphore
// batch (plus the caller's own signals) to queue, injecting the context
// timeline signal only on the final chunk so recoverBinarySemaphores can
// tell when every wait in the batch has been consumed GPU-side.
func (c *Context) Acquire(swapchains []*Swapchain, queue vk.Queue, clientSignals []SemaphoreSignal) error {
	if len(swapchains) == 0 {
		return nil
	}

	if err := c.recoverBinarySemaphores(); err != nil {
		return err
	}

	waitSems := make([]vk.Semaphore, 0, len(swapchains))

	// releaseCollected submits the waits for every semaphore already
	// acquired in this batch before a mid-batch error is returned. Those
	// semaphores have a pending signal from a successful image acquire, so
	// they are not pushed straight back onto the free list: the submission
	// consumes them and its acquire-release record returns them to the pool
	// once the timeline reaches its value. The caller's signals are not
	// submitted on this path, and a failure of this submission is not
	// reported over the original error (spec §9 "partial-failure recovery
	// in multi-swapchain acquire").
	releaseCollected := func() {
		_ = c.submitAcquireWaits(queue, waitSems, nil)
	}

	for _, s := range swapchains {
		if s.state == StateDestroyed {
			releaseCollected()
			return ErrSwapchainDestroyed
		}

		desired := s.pendingExtent
		if desired.Width == 0 && desired.Height == 0 {
			desired = s.lastExtent
		}

		budget := c.acquireRetryBudget
		for {
			if s.outOfDate || desired != s.lastExtent || s.handle == vk.NullSwapchain {
				if err := s.drainAll(); err != nil {
					releaseCollected()
					return err
				}
				if _, err := s.negotiate(desired); err != nil {
					releaseCollected()
					return err
				}
			}

			sem, err := c.getBinarySemaphore()
			if err != nil {
				releaseCollected()
				return err
			}

			index, ret, err := c.ft.AcquireNextImage(s.handle, ^uint64(0), sem)
			if err != nil {
				c.returnBinarySemaphore(sem)
				releaseCollected()
				return err
			}

			if isOutOfDate(ret) {
				c.returnBinarySemaphore(sem)
				s.outOfDate = true
				if budget > 0 {
					budget--
					if budget == 0 {
						releaseCollected()
						return ErrAcquireRetryBudgetExceeded
					}
				}
				continue
			}

			if isSuboptimal(ret) {
				s.outOfDate = true
			}

			s.imageIndex = index
			r := &s.resources[index]

			if r.PresentSignalFence != vk.NullFence || r.LastPresentWaitSemaphore != vk.NullSemaphore {
				if err := c.completePresent(r); err != nil {
					waitSems = append(waitSems, sem)
					releaseCollected()
					return err
				}
			}

			if err := s.ensureView(index); err != nil {
				waitSems = append(waitSems, sem)
				releaseCollected()
				return err
			}

			waitSems = append(waitSems, sem)
			break
		}
	}

	return c.submitAcquireWaits(queue, waitSems, clientSignals)
}

// submitAcquireWaits chunks waitSems per maxWaitsPerChunk, submitting each
// chunk as its own vkQueueSubmit2 batch. The final chunk also carries
// clientSignals and a timeline signal for the reserved value, so the
// acquire-release record enqueued afterward is only satisfied once every
// chunk's waits have actually been consumed by the GPU (spec §4.E, §4.B).
func (c *Context) submitAcquireWaits(queue vk.Queue, waitSems []vk.Semaphore, clientSignals []SemaphoreSignal) error {
	if len(waitSems) == 0 {
		return nil
	}

	chunkSize := maxWaitsPerChunk(len(waitSems))
	timelineValue := c.nextTimelineValue()

	for offset := 0; offset < len(waitSems); offset += chunkSize {
		end := offset + chunkSize
		if end > len(waitSems) {
			end = len(waitSems)
		}
		chunk := waitSems[offset:end]
		last := end == len(waitSems)

		batch := SubmitBatch{
			Waits: make([]SemaphoreWait, len(chunk)),
		}
		for i, sem := range chunk {
			batch.Waits[i] = SemaphoreWait{
				Semaphore: sem,
				Stage:     vk.PipelineStageFlags(vk.PipelineStageTopOfPipeBit),
			}
		}

		if last {
			batch.Signals = append(batch.Signals, clientSignals...)
			batch.Signals = append(batch.Signals, SemaphoreSignal{
				Semaphore: c.timeline,
				Value:     timelineValue,
			})
		}

		if err := c.ft.QueueSubmit2(queue, batch, vk.NullFence); err != nil {
			return err
		}
	}

	c.acquireReleases = append(c.acquireReleases, acquireReleaseRecord{
		timelineValue: timelineValue,
		semaphores:    append([]vk.Semaphore(nil), waitSems...),
	})
	return nil
}
