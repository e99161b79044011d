package clustergpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/gekko3d/clusterlight/shaders"
)

// Pipeline owns the GPU-side resources of the cluster passes: the list,
// master and super-master textures and the master/super-master compute
// pipelines. It creates no bind groups and records no passes; the
// listPipeline field is never assigned. Construction and teardown follow
// the explicit-Release() discipline for resize-driven recreation used
// by voxelrt/rt/gpu/manager_hiz.go's SetupHiZ.
type Pipeline struct {
	device *wgpu.Device

	listPipeline  *wgpu.RenderPipeline
	masterModule  *wgpu.ShaderModule
	masterCompute *wgpu.ComputePipeline
	superModule   *wgpu.ShaderModule
	superCompute  *wgpu.ComputePipeline

	listTexture       *wgpu.Texture
	listView          *wgpu.TextureView
	masterTexture     *wgpu.Texture
	masterView        *wgpu.TextureView
	superMasterTex    *wgpu.Texture
	superMasterView   *wgpu.TextureView
	superMasterExists bool

	width, height int
}

// NewPipeline compiles the master and super-master shader modules and
// their compute pipelines. The list pass's shader is not compiled and
// no render pipeline for it is created, here or in Resize.
func NewPipeline(device *wgpu.Device) (*Pipeline, error) {
	p := &Pipeline{device: device}

	masterModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "cluster master reduce",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.MasterReduceWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("clustergpu: compile master shader: %w", err)
	}
	p.masterModule = masterModule

	masterPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "cluster master reduce pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: masterModule, EntryPoint: "cs_main"},
	})
	if err != nil {
		return nil, fmt.Errorf("clustergpu: create master pipeline: %w", err)
	}
	p.masterCompute = masterPipeline

	superModule, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "cluster super-master reduce",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SuperMasterReduceWGSL},
	})
	if err != nil {
		return nil, fmt.Errorf("clustergpu: compile super-master shader: %w", err)
	}
	p.superModule = superModule

	superPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "cluster super-master reduce pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: superModule, EntryPoint: "cs_main"},
	})
	if err != nil {
		return nil, fmt.Errorf("clustergpu: create super-master pipeline: %w", err)
	}
	p.superCompute = superPipeline

	return p, nil
}

// Resize (re)allocates the list, master and optional super-master render
// targets for a grid of the given pixel dimensions, releasing any
// previous targets first. masterFormat is one of R8Uint/R16Uint/R32Uint,
// chosen by the host from clusterlight.MasterFormatForNw.
func (p *Pipeline) Resize(width, height int, masterFormat wgpu.TextureFormat, enableSuperMaster bool) error {
	p.releaseTargets()

	listTex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:       "cluster list texture",
		Size:        wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		Dimension:   wgpu.TextureDimension2D,
		Format:      wgpu.TextureFormatRGBA8Uint,
		MipLevelCount: 1,
		SampleCount: 1,
		Usage:       wgpu.TextureUsageRenderAttachment | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("clustergpu: create list texture: %w", err)
	}
	p.listTexture = listTex
	p.listView, err = listTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("clustergpu: create list view: %w", err)
	}

	masterTex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
		Label:       "cluster master texture",
		Size:        wgpu.Extent3D{Width: uint32(width), Height: uint32(height), DepthOrArrayLayers: 1},
		Dimension:   wgpu.TextureDimension2D,
		Format:      masterFormat,
		MipLevelCount: 1,
		SampleCount: 1,
		Usage:       wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
	})
	if err != nil {
		return fmt.Errorf("clustergpu: create master texture: %w", err)
	}
	p.masterTexture = masterTex
	p.masterView, err = masterTex.CreateView(nil)
	if err != nil {
		return fmt.Errorf("clustergpu: create master view: %w", err)
	}

	p.superMasterExists = enableSuperMaster
	if enableSuperMaster {
		sw, sh := (width+7)/8, (height+7)/8
		superTex, err := p.device.CreateTexture(&wgpu.TextureDescriptor{
			Label:       "cluster super-master texture",
			Size:        wgpu.Extent3D{Width: uint32(sw), Height: uint32(sh), DepthOrArrayLayers: 1},
			Dimension:   wgpu.TextureDimension2D,
			Format:      masterFormat,
			MipLevelCount: 1,
			SampleCount: 1,
			Usage:       wgpu.TextureUsageStorageBinding | wgpu.TextureUsageTextureBinding,
		})
		if err != nil {
			return fmt.Errorf("clustergpu: create super-master texture: %w", err)
		}
		p.superMasterTex = superTex
		p.superMasterView, err = superTex.CreateView(nil)
		if err != nil {
			return fmt.Errorf("clustergpu: create super-master view: %w", err)
		}
	}

	p.width, p.height = width, height
	return nil
}

func (p *Pipeline) releaseTargets() {
	if p.listView != nil {
		p.listView.Release()
	}
	if p.listTexture != nil {
		p.listTexture.Release()
	}
	if p.masterView != nil {
		p.masterView.Release()
	}
	if p.masterTexture != nil {
		p.masterTexture.Release()
	}
	if p.superMasterView != nil {
		p.superMasterView.Release()
	}
	if p.superMasterTex != nil {
		p.superMasterTex.Release()
	}
	p.listView, p.listTexture = nil, nil
	p.masterView, p.masterTexture = nil, nil
	p.superMasterView, p.superMasterTex = nil, nil
}

// Release tears down every GPU handle the pipeline owns. After Release
// the Pipeline must not be used again.
func (p *Pipeline) Release() {
	p.releaseTargets()
	if p.listPipeline != nil {
		p.listPipeline.Release()
	}
	if p.masterCompute != nil {
		p.masterCompute.Release()
	}
	if p.superCompute != nil {
		p.superCompute.Release()
	}
	if p.masterModule != nil {
		p.masterModule.Release()
	}
	if p.superModule != nil {
		p.superModule.Release()
	}
}
