package vkwsi

import (
	"fmt"

	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

// Fatal, terminates context operation (spec §7).
var (
	ErrMissingEntryPoint        = errors.New("vkwsi: required function-table entry point is nil")
	ErrInvalidHandle            = errors.New("vkwsi: invalid handle passed to context_create")
	ErrContextHasLiveSwapchains = errors.New("vkwsi: context_destroy called with swapchains still live")
)

// Bubbled to caller with state-preserving cleanup (spec §7).
var (
	ErrSwapchainDestroyed         = errors.New("vkwsi: operation on a destroyed swapchain")
	ErrAcquireRetryBudgetExceeded = errors.New("vkwsi: acquire retry budget exceeded while waiting out OUT_OF_DATE")
	ErrNoPresentWaitSupport       = errors.New("vkwsi: host_wait requested but no timeline waits were given")
	ErrNoCurrentImage             = errors.New("vkwsi: swapchain_get_current called before a successful acquire")
)

// vkResultError carries the raw vk.Result behind a wrapped error so
// callers that need to branch on OUT_OF_DATE/SUBOPTIMAL can recover it
// with errors.As instead of parsing the message.
type vkResultError struct {
	op     string
	result vk.Result
}

func (e *vkResultError) Error() string {
	return fmt.Sprintf("vulkan result %d", e.result)
}

// resultError turns a raw vk.Result into an error carrying its numeric
// value; Success and Suboptimal are never errors.
func resultError(ret vk.Result) error {
	if ret == vk.Success || ret == vk.Suboptimal {
		return nil
	}
	return &vkResultError{result: ret}
}

// wrapResult annotates a non-success vk.Result with the operation that
// produced it, preserving the original result for errors.As(*vkResultError).
func wrapResult(op string, ret vk.Result) error {
	if err := resultError(ret); err != nil {
		err.(*vkResultError).op = op
		return errors.Wrapf(err, "vkwsi: %s", op)
	}
	return nil
}

// resultOf recovers the vk.Result embedded by wrapResult, if any. It
// returns (0, false) for errors that never carried one (e.g. a fatal
// sentinel).
func resultOf(err error) (vk.Result, bool) {
	var re *vkResultError
	if errors.As(err, &re) {
		return re.result, true
	}
	return 0, false
}

func isOutOfDate(ret vk.Result) bool {
	return ret == vk.ErrorOutOfDate
}

func isSuboptimal(ret vk.Result) bool {
	return ret == vk.Suboptimal
}

func isSuccessOrSuboptimal(ret vk.Result) bool {
	return ret == vk.Success || ret == vk.Suboptimal
}

// errWithField annotates a sentinel error with the field/name that
// triggered it, keeping errors.Is(err, sentinel) working via Unwrap.
func errWithField(sentinel error, field string) error {
	return errors.Wrap(sentinel, field)
}
