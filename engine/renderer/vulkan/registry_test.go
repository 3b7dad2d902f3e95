package vulkan

import (
	"testing"

	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/platform"
)

type recordingDestructor struct {
	destroyed []ResourceKind
}

func (r *recordingDestructor) Destroy(res Resource) {
	r.destroyed = append(r.destroyed, res.Kind)
}

func TestPlatformResourceCarriesPlatform(t *testing.T) {
	p := platform.New()
	res := PlatformResource(p)
	if res.Kind != ResourcePlatform {
		t.Fatalf("kind = %s, expected platform", res.Kind)
	}
	// The destructor shuts the platform down through this reference.
	if res.Platform != p {
		t.Fatal("platform resource lost its platform reference")
	}
}

func TestRegistryFlushReverseOrder(t *testing.T) {
	reg := NewRegistry()
	pushed := []Resource{
		InstanceResource(vk.Instance(vk.NullHandle)),
		SurfaceResource(vk.NullSurface),
		DeviceResource(vk.Device(vk.NullHandle)),
		SwapchainResource(vk.NullSwapchain),
		FenceResource(vk.NullFence),
		SemaphoreResource(vk.NullSemaphore),
		PipelineLayoutResource(vk.NullPipelineLayout),
		PipelineResource(vk.NullPipeline),
	}
	for _, res := range pushed {
		reg.Push(res)
	}

	rec := &recordingDestructor{}
	reg.Flush(rec)

	if len(rec.destroyed) != len(pushed) {
		t.Fatalf("expected %d destroys, got %d", len(pushed), len(rec.destroyed))
	}
	for i, kind := range rec.destroyed {
		want := pushed[len(pushed)-1-i].Kind
		if kind != want {
			t.Errorf("destroy %d: expected %s, got %s", i, want, kind)
		}
	}
}

func TestRegistryFlushEmpty(t *testing.T) {
	reg := NewRegistry()
	rec := &recordingDestructor{}
	reg.Flush(rec)
	if len(rec.destroyed) != 0 {
		t.Fatalf("flush of empty registry destroyed %d resources", len(rec.destroyed))
	}
}

func TestRegistryFlushIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Push(RenderPassResource(vk.NullRenderPass))
	reg.Push(FramebufferResource(vk.NullFramebuffer))

	rec := &recordingDestructor{}
	reg.Flush(rec)
	if got := len(rec.destroyed); got != 2 {
		t.Fatalf("first flush destroyed %d resources, expected 2", got)
	}
	if reg.Len() != 0 {
		t.Fatalf("registry holds %d resources after flush", reg.Len())
	}

	reg.Flush(rec)
	if got := len(rec.destroyed); got != 2 {
		t.Fatalf("second flush re-destroyed resources, total %d", got)
	}
}

func TestRegistryDestroysEachResourceOnce(t *testing.T) {
	reg := NewRegistry()
	const n = 50
	for i := 0; i < n; i++ {
		reg.Push(ImageViewResource(vk.NullImageView))
	}
	rec := &recordingDestructor{}
	reg.Flush(rec)
	if len(rec.destroyed) != n {
		t.Fatalf("expected exactly %d destroys, got %d", n, len(rec.destroyed))
	}
}

func TestResourceKindString(t *testing.T) {
	if got := ResourceSwapchain.String(); got != "swapchain" {
		t.Errorf("unexpected kind name %q", got)
	}
	if got := ResourceKind(999).String(); got != "unknown" {
		t.Errorf("unexpected fallback name %q", got)
	}
}
