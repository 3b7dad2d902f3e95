package vulkan

import (
	"math"
	"testing"

	vk "github.com/goki/vulkan"
)

func TestChooseExtentUsesCurrentWhenFixed(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent: vk.Extent2D{Width: 1280, Height: 720},
	}
	got := chooseExtent(caps, 1700, 900)
	if got.Width != 1280 || got.Height != 720 {
		t.Errorf("expected surface-fixed 1280x720, got %dx%d", got.Width, got.Height)
	}
}

func TestChooseExtentClampsRequestedSize(t *testing.T) {
	caps := vk.SurfaceCapabilities{
		CurrentExtent:  vk.Extent2D{Width: math.MaxUint32, Height: math.MaxUint32},
		MinImageExtent: vk.Extent2D{Width: 640, Height: 480},
		MaxImageExtent: vk.Extent2D{Width: 1600, Height: 800},
	}
	got := chooseExtent(caps, 1700, 900)
	if got.Width != 1600 || got.Height != 800 {
		t.Errorf("expected clamp to 1600x800, got %dx%d", got.Width, got.Height)
	}

	got = chooseExtent(caps, 100, 100)
	if got.Width != 640 || got.Height != 480 {
		t.Errorf("expected clamp to 640x480, got %dx%d", got.Width, got.Height)
	}
}
