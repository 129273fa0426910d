package vkwsi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	vk "github.com/vulkan-go/vulkan"
)

func TestWrapResult_SuccessAndSuboptimalAreNotErrors(t *testing.T) {
	assert.NoError(t, wrapResult("op", vk.Success))
	assert.NoError(t, wrapResult("op", vk.Suboptimal))
}

func TestWrapResult_CarriesRecoverableResult(t *testing.T) {
	err := wrapResult("vkAcquireNextImageKHR", vk.ErrorOutOfDate)
	assert.Error(t, err)
	ret, ok := resultOf(err)
	assert.True(t, ok)
	assert.True(t, isOutOfDate(ret))
}

func TestResultOf_FalseForSentinels(t *testing.T) {
	_, ok := resultOf(ErrSwapchainDestroyed)
	assert.False(t, ok)
}

func TestErrWithField_PreservesSentinelIdentity(t *testing.T) {
	err := errWithField(ErrMissingEntryPoint, "GetSurfaceCapabilities")
	assert.ErrorIs(t, err, ErrMissingEntryPoint)
	assert.Contains(t, err.Error(), "GetSurfaceCapabilities")
}
