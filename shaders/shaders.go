// Package shaders embeds the WGSL shader sources the cluster-assignment
// pipeline compiles into wgpu shader modules, the same embed-per-pass
// convention as voxelrt/rt/shaders.
package shaders

import (
	_ "embed"
)

//go:embed list_pass.wgsl
var ListPassWGSL string

//go:embed master_reduce.wgsl
var MasterReduceWGSL string

//go:embed super_master_reduce.wgsl
var SuperMasterReduceWGSL string
