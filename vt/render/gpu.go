package render

import (
	"fmt"

	"github.com/gogpu/wgpu/core"

	"github.com/cartogl/carto/vt"
)

// GPUAdapterInfo is the adapter identity logged after device negotiation
// (name, vendor, device/backend kind, driver string), surfaced so a host
// can report what hardware path a GPURenderer actually negotiated.
type GPUAdapterInfo struct {
	Name       string
	Vendor     string
	DeviceType string
	Backend    string
	Driver     string
}

func (i GPUAdapterInfo) String() string {
	return fmt.Sprintf("%s (%s, %s)", i.Name, i.DeviceType, i.Backend)
}

// GPURenderer is the optional hardware-backed Recorder §6 allows behind
// TileRenderer. §4.11 specifies the renderer against an abstract command
// recorder, not a concrete GPU API, so GPURenderer's job is adapter
// selection and surface-format negotiation through a real DeviceHandle;
// actual triangle/label submission still goes through the same rasterizer
// SoftwareRecorder uses, with atlas/FBO/bitmap textures described by the
// TextureSpec helpers in device.go when a real device is present.
type GPURenderer struct {
	*SoftwareRecorder

	handle  DeviceHandle
	adapter GPUAdapterInfo
}

// NewGPURenderer validates handle and, when its Adapter() resolves to a real
// gogpu/wgpu adapter, resolves and retains GPUAdapterInfo for diagnostics.
// A nil or software-only handle (NullDeviceHandle) is accepted and
// simply carries a zero GPUAdapterInfo, so callers can construct a
// GPURenderer uniformly whether or not a GPU is actually present.
func NewGPURenderer(handle DeviceHandle) (*GPURenderer, error) {
	if handle == nil {
		return nil, fmt.Errorf("vt/render: nil device handle")
	}

	g := &GPURenderer{
		SoftwareRecorder: NewSoftwareRecorder(),
		handle:           handle,
	}

	adapter := handle.Adapter()
	if adapter == nil {
		return g, nil
	}
	id, ok := adapter.(core.AdapterID)
	if !ok {
		// Handle carries an Adapter from a different gpucontext
		// implementation (e.g. a mock used in host tests); there is
		// nothing gogpu/wgpu-specific to resolve.
		return g, nil
	}
	info, err := core.GetAdapterInfo(id)
	if err != nil {
		vt.Logger().Warn("vt/render: gpu adapter info unavailable", "error", err)
		return g, nil
	}
	g.adapter = GPUAdapterInfo{
		Name:       info.Name,
		Vendor:     info.Vendor,
		DeviceType: info.DeviceType.String(),
		Backend:    info.Backend.String(),
		Driver:     info.Driver,
	}
	vt.Logger().Debug("vt/render: gpu adapter selected", "adapter", g.adapter.String())
	return g, nil
}

// Adapter returns the resolved adapter info, or a zero value if the device
// handle is not backed by a real gogpu/wgpu adapter.
func (g *GPURenderer) Adapter() GPUAdapterInfo { return g.adapter }
