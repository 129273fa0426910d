package vkwsi

import vk "github.com/vulkan-go/vulkan"

// SwapchainState is the swapchain wrapper's state machine (spec §4.C).
type SwapchainState int

const (
	StateFresh SwapchainState = iota
	StateLive
	StateStale
	StateDestroyed
)

func (s SwapchainState) String() string {
	switch s {
	case StateFresh:
		return "fresh"
	case StateLive:
		return "live"
	case StateStale:
		return "stale"
	case StateDestroyed:
		return "destroyed"
	default:
		return "unknown"
	}
}

// Swapchain owns one native swapchain, its per-image resources, and the
// desired-vs-actual configuration (spec §3 "Swapchain").
type Swapchain struct {
	ctx     *Context
	surface vk.Surface

	handle vk.Swapchain
	state  SwapchainState

	lastExtent    vk.Extent2D
	pendingExtent vk.Extent2D
	outOfDate     bool
	version       uint64

	info        Config
	pendingInfo Config

	resources  []ImageResources
	imageIndex uint32
}

// NewSwapchain implements swapchain_create (spec §6). The swapchain
// starts in StateFresh: no native handle yet, out_of_date set so the
// first Acquire triggers capability negotiation and creation.
func NewSwapchain(ctx *Context, surface vk.Surface, cfg Config) (*Swapchain, error) {
	if ctx == nil || ctx.destroyed {
		return nil, ErrSwapchainDestroyed
	}
	s := &Swapchain{
		ctx:         ctx,
		surface:     surface,
		state:       StateFresh,
		outOfDate:   true,
		pendingInfo: cfg.normalized(),
	}
	ctx.liveSwapchains[s] = struct{}{}
	return s, nil
}

// SetInfo implements swapchain_set_info: copies into pending_info and
// marks the swapchain stale so the next Acquire recreates it (spec §4.C).
func (s *Swapchain) SetInfo(cfg Config) {
	s.pendingInfo = cfg.normalized()
	s.outOfDate = true
	if s.state == StateLive {
		s.state = StateStale
	}
}

// Resize implements swapchain_resize: sets pending_extent only. It does
// NOT set out_of_date directly — Acquire checks pending_extent != last_extent
// and re-queries capabilities itself (spec §4.C, §9 normalization note).
func (s *Swapchain) Resize(extent vk.Extent2D) {
	s.pendingExtent = extent
}

// GetCurrent implements swapchain_get_current (spec §6). Valid only after
// a successful Acquire on this swapchain.
func (s *Swapchain) GetCurrent() (CurrentImage, error) {
	if s.state == StateDestroyed {
		return CurrentImage{}, ErrSwapchainDestroyed
	}
	if int(s.imageIndex) >= len(s.resources) {
		return CurrentImage{}, ErrNoCurrentImage
	}
	r := s.resources[s.imageIndex]
	return CurrentImage{
		Index:   s.imageIndex,
		Image:   r.Image,
		View:    r.View,
		Extent:  s.lastExtent,
		Version: s.version,
	}, nil
}

// Destroy implements swapchain_destroy: drains every pending present then
// tears the native swapchain and per-image resources down (spec §6).
func (s *Swapchain) Destroy() error {
	if s.state == StateDestroyed {
		return nil
	}
	if err := s.drainAll(); err != nil {
		return err
	}
	s.destroyResources()
	if s.handle != vk.NullSwapchain {
		s.ctx.ft.DestroySwapchain(s.handle)
		s.handle = vk.NullSwapchain
	}
	s.state = StateDestroyed
	delete(s.ctx.liveSwapchains, s)
	return nil
}

func (s *Swapchain) destroyResources() {
	for i := range s.resources {
		if s.resources[i].View != vk.NullImageView {
			s.ctx.ft.DestroyImageView(s.resources[i].View)
		}
	}
	s.resources = nil
}

// drainAll waits for every per-image present fence this swapchain still
// has outstanding, releasing fences/semaphores back to the pools as they
// complete (spec §4.D precondition, §4.G).
func (s *Swapchain) drainAll() error {
	for i := range s.resources {
		if err := s.ctx.completePresent(&s.resources[i]); err != nil {
			return err
		}
	}
	return nil
}

// ensureView lazily creates the image view for the given resource slot,
// matching info.Format, 2D, color aspect, covering mip level 0 and array
// layer 0 only; with ArrayLayers above 1 the other layers are not in the
// view (spec §4.E step 5).
func (s *Swapchain) ensureView(index uint32) error {
	r := &s.resources[index]
	if r.View != vk.NullImageView {
		return nil
	}
	view, err := s.ctx.ft.CreateImageView(r.Image, s.info.Format)
	if err != nil {
		return err
	}
	r.View = view
	return nil
}
