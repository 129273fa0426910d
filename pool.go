package vkwsi

import vk "github.com/vulkan-go/vulkan"

// acquireReleaseRecord is a bookkeeping entry recording which pooled
// semaphores become reusable once the context timeline reaches
// timelineValue (spec §3, GLOSSARY "Acquire-release record").
type acquireReleaseRecord struct {
	timelineValue uint64
	semaphores    []vk.Semaphore
}

// getFence pops a fence off the free list, or allocates a fresh
// unsignaled one (spec §4.B).
func (c *Context) getFence() (vk.Fence, error) {
	if n := len(c.fenceFree); n > 0 {
		f := c.fenceFree[n-1]
		c.fenceFree = c.fenceFree[:n-1]
		return f, nil
	}
	f, err := c.ft.CreateFence()
	if err != nil {
		return vk.NullFence, err
	}
	c.fenceLive++
	if c.poolWarnThreshold > 0 && c.fenceLive > c.poolWarnThreshold {
		c.logf(LevelWarn, "fence pool grew past warn threshold (%d live)", c.fenceLive)
	}
	return f, nil
}

// returnFence resets the fence then returns it to the free list. A reset
// failure leaves the fence out of the pool entirely — it leaks into the
// caller's error path rather than being pushed back in an unknown state
// (spec §4.B).
func (c *Context) returnFence(f vk.Fence) error {
	if err := c.ft.ResetFences([]vk.Fence{f}); err != nil {
		return err
	}
	c.fenceFree = append(c.fenceFree, f)
	return nil
}

// getBinarySemaphore pops a semaphore off the free list, or allocates a
// fresh one. The GPU API offers no way to reset a binary semaphore, so
// every acquire must either get one straight off the pool or allocate
// fresh (spec §4.B rationale).
func (c *Context) getBinarySemaphore() (vk.Semaphore, error) {
	if n := len(c.semFree); n > 0 {
		s := c.semFree[n-1]
		c.semFree = c.semFree[:n-1]
		return s, nil
	}
	s, err := c.ft.CreateBinarySemaphore()
	if err != nil {
		return vk.NullSemaphore, err
	}
	c.semLive++
	if c.poolWarnThreshold > 0 && c.semLive > c.poolWarnThreshold {
		c.logf(LevelWarn, "semaphore pool grew past warn threshold (%d live)", c.semLive)
	}
	return s, nil
}

func (c *Context) returnBinarySemaphore(s vk.Semaphore) {
	c.semFree = append(c.semFree, s)
}

// recoverBinarySemaphores reads the current timeline counter value and
// moves every acquire-release record whose timelineValue has been
// reached into the free list. Safe to call anytime; idempotent; cost is
// O(freed semaphores) (spec §4.B).
func (c *Context) recoverBinarySemaphores() error {
	current, err := c.ft.GetSemaphoreCounterValue(c.timeline)
	if err != nil {
		return err
	}
	i := 0
	for i < len(c.acquireReleases) && c.acquireReleases[i].timelineValue <= current {
		c.semFree = append(c.semFree, c.acquireReleases[i].semaphores...)
		i++
	}
	if i > 0 {
		c.acquireReleases = c.acquireReleases[i:]
	}
	return nil
}

// nextTimelineValue reserves the next strictly-increasing timeline value
// for a submission that will signal the timeline (spec §3 invariant:
// "timeline is strictly monotonic").
func (c *Context) nextTimelineValue() uint64 {
	c.timelineValue++
	return c.timelineValue
}
