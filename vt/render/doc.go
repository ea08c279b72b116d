// Package render implements the tile rendering core's renderer passes
// (§4.11): the blend tree driven 2D/3D geometry passes, per-layer FBO
// composition for layers with a composition operator, label rendering,
// and ray-intersection queries. It is specified against an abstract
// command Recorder (§6) so the same TileRenderer can drive either the
// software path (a SoftwareRecorder drawing into a CPU Framebuffer) or a
// real GPU backend (a GPURenderer negotiating through a DeviceHandle).
package render
