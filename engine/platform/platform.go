package platform

import (
	"fmt"
	"runtime"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/goki/vulkan"

	"github.com/lumina3d/lumina/engine/core"
)

func init() {
	// GLFW event handling must run on the main OS thread
	runtime.LockOSThread()
}

// EventType tags the events the run loop cares about. Everything else GLFW
// reports is dropped at the callback.
type EventType int

const (
	EventQuit EventType = iota
	EventKeyDown
)

type Event struct {
	Type EventType
	Key  glfw.Key
}

// Platform wraps the GLFW window and turns its callbacks into a polled
// event queue. One Platform per process.
type Platform struct {
	Window  *glfw.Window
	pending []Event
}

func New() *Platform {
	return &Platform{}
}

// Startup initializes GLFW and creates the window. The window is created
// without a client API so Vulkan owns the surface.
func (p *Platform) Startup(title string, x, y, width, height uint32) error {
	if err := glfw.Init(); err != nil {
		core.LogError("failed to initialize glfw: %s", err)
		return err
	}

	glfw.WindowHint(glfw.Visible, glfw.False)
	glfw.WindowHint(glfw.Resizable, glfw.False)
	glfw.WindowHint(glfw.ClientAPI, glfw.NoAPI) // Required for Vulkan.

	window, err := glfw.CreateWindow(int(width), int(height), title, nil, nil)
	if err != nil {
		core.LogError("failed to create window: %s", err)
		return err
	}
	p.Window = window

	p.Window.SetKeyCallback(p.keyCallback)
	p.Window.SetPos(int(x), int(y))
	p.Window.Show()

	return nil
}

// PollEvents pumps the GLFW queue once and returns every event gathered
// since the previous call, in arrival order.
func (p *Platform) PollEvents() []Event {
	glfw.PollEvents()

	if p.Window != nil && p.Window.ShouldClose() {
		p.pending = append(p.pending, Event{Type: EventQuit})
	}

	events := p.pending
	p.pending = nil
	return events
}

// RequiredExtensions reports the instance extensions GLFW needs to create
// a presentable surface on this platform.
func (p *Platform) RequiredExtensions() ([]string, error) {
	extensions := p.Window.GetRequiredInstanceExtensions()
	if len(extensions) == 0 {
		return nil, fmt.Errorf("glfw reports no instance extensions; Vulkan presentation unsupported")
	}
	return extensions, nil
}

// CreateSurface creates the window surface on the given instance.
func (p *Platform) CreateSurface(instance vk.Instance) (vk.Surface, error) {
	surfacePtr, err := p.Window.CreateWindowSurface(instance, nil)
	if err != nil {
		return vk.NullSurface, err
	}
	return vk.SurfaceFromPointer(surfacePtr), nil
}

// Shutdown terminates GLFW. The window handle itself is destroyed by the
// resource registry, which owns it.
func (p *Platform) Shutdown() {
	glfw.Terminate()
}

func (p *Platform) keyCallback(w *glfw.Window, key glfw.Key, scancode int, action glfw.Action, mods glfw.ModifierKey) {
	if action != glfw.Press {
		return
	}
	p.pending = append(p.pending, Event{Type: EventKeyDown, Key: key})
}
