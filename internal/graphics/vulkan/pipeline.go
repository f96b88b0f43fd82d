package vulkan

import (
	"encoding/binary"
	"errors"
	"fmt"

	"lodterrain/internal/gpu"

	vk "github.com/vulkan-go/vulkan"
)

type pipeline struct {
	ctx        *Context
	desc       gpu.PipelineDesc
	setLayout  vk.DescriptorSetLayout
	layout     vk.PipelineLayout
	handle     vk.Pipeline
	pushStages vk.ShaderStageFlags
}

var _ gpu.Pipeline = (*pipeline)(nil)

func (p *pipeline) Destroy() {
	d := p.ctx.device
	if p.handle != nil {
		vk.DestroyPipeline(d, p.handle, nil)
		p.handle = nil
	}
	if p.layout != nil {
		vk.DestroyPipelineLayout(d, p.layout, nil)
		p.layout = nil
	}
	if p.setLayout != nil {
		vk.DestroyDescriptorSetLayout(d, p.setLayout, nil)
		p.setLayout = nil
	}
}

func stageFlags(s gpu.ShaderStage) vk.ShaderStageFlags {
	var f vk.ShaderStageFlagBits
	if s&gpu.StageVertex != 0 {
		f |= vk.ShaderStageVertexBit
	}
	if s&gpu.StageFragment != 0 {
		f |= vk.ShaderStageFragmentBit
	}
	return vk.ShaderStageFlags(f)
}

func descriptorType(k gpu.BindingKind) vk.DescriptorType {
	if k == gpu.BindingStorage {
		return vk.DescriptorTypeStorageBuffer
	}
	return vk.DescriptorTypeUniformBuffer
}

func vertexFormat(f gpu.VertexFormat) (vk.Format, error) {
	switch f {
	case gpu.FormatUint32x2:
		return vk.FormatR32g32Uint, nil
	case gpu.FormatFloat32x3:
		return vk.FormatR32g32b32Sfloat, nil
	}
	return vk.FormatUndefined, fmt.Errorf("%w: vertex format %d", gpu.ErrUnsupported, f)
}

// spirvWords copies SPIR-V bytecode into the word slice Vulkan expects.
func spirvWords(code []byte) ([]uint32, error) {
	if len(code) == 0 || len(code)%4 != 0 {
		return nil, fmt.Errorf("spir-v size %d is not a multiple of 4", len(code))
	}
	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = binary.LittleEndian.Uint32(code[i*4:])
	}
	if words[0] != 0x07230203 {
		return nil, errors.New("missing spir-v magic number")
	}
	return words, nil
}

func (c *Context) createShaderModule(code []byte) (vk.ShaderModule, error) {
	words, err := spirvWords(code)
	if err != nil {
		return nil, err
	}
	info := vk.ShaderModuleCreateInfo{
		SType:    vk.StructureTypeShaderModuleCreateInfo,
		CodeSize: uint(len(code)),
		PCode:    words,
	}
	var module vk.ShaderModule
	if err := vk.Error(vk.CreateShaderModule(c.device, &info, nil, &module)); err != nil {
		return nil, err
	}
	return module, nil
}

// CreatePipeline builds the descriptor set layout, pipeline layout and
// graphics pipeline for desc against the swapchain render pass.
func (c *Context) CreatePipeline(desc gpu.PipelineDesc) (gpu.Pipeline, error) {
	p := &pipeline{ctx: c, desc: desc, pushStages: stageFlags(desc.PushStages)}
	if err := c.buildPipeline(p); err != nil {
		p.Destroy()
		return nil, fmt.Errorf("pipeline %q: %w", desc.Label, err)
	}
	return p, nil
}

func (c *Context) buildPipeline(p *pipeline) error {
	desc := p.desc
	if desc.Wireframe && !c.fillModeNonSolid {
		return fmt.Errorf("%w: wireframe rasterization", gpu.ErrUnsupported)
	}

	bindings := make([]vk.DescriptorSetLayoutBinding, len(desc.Bindings))
	for i, b := range desc.Bindings {
		bindings[i] = vk.DescriptorSetLayoutBinding{
			Binding:         uint32(b.Binding),
			DescriptorType:  descriptorType(b.Kind),
			DescriptorCount: 1,
			StageFlags:      stageFlags(b.Stages),
		}
	}
	setInfo := vk.DescriptorSetLayoutCreateInfo{
		SType:        vk.StructureTypeDescriptorSetLayoutCreateInfo,
		BindingCount: uint32(len(bindings)),
		PBindings:    bindings,
	}
	if err := vk.Error(vk.CreateDescriptorSetLayout(c.device, &setInfo, nil, &p.setLayout)); err != nil {
		return fmt.Errorf("descriptor set layout: %w", err)
	}

	layoutInfo := vk.PipelineLayoutCreateInfo{
		SType:          vk.StructureTypePipelineLayoutCreateInfo,
		SetLayoutCount: 1,
		PSetLayouts:    []vk.DescriptorSetLayout{p.setLayout},
	}
	if desc.PushConstantSize > 0 {
		layoutInfo.PushConstantRangeCount = 1
		layoutInfo.PPushConstantRanges = []vk.PushConstantRange{{
			StageFlags: p.pushStages,
			Size:       uint32(desc.PushConstantSize),
		}}
	}
	if err := vk.Error(vk.CreatePipelineLayout(c.device, &layoutInfo, nil, &p.layout)); err != nil {
		return fmt.Errorf("pipeline layout: %w", err)
	}

	vert, err := c.createShaderModule(desc.Shader.Vertex)
	if err != nil {
		return fmt.Errorf("vertex shader %q: %w", desc.Shader.Name, err)
	}
	defer vk.DestroyShaderModule(c.device, vert, nil)
	frag, err := c.createShaderModule(desc.Shader.Fragment)
	if err != nil {
		return fmt.Errorf("fragment shader %q: %w", desc.Shader.Name, err)
	}
	defer vk.DestroyShaderModule(c.device, frag, nil)

	stages := []vk.PipelineShaderStageCreateInfo{
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageVertexBit, Module: vert, PName: "main\x00"},
		{SType: vk.StructureTypePipelineShaderStageCreateInfo, Stage: vk.ShaderStageFragmentBit, Module: frag, PName: "main\x00"},
	}

	attrs := make([]vk.VertexInputAttributeDescription, len(desc.Attributes))
	for i, a := range desc.Attributes {
		f, err := vertexFormat(a.Format)
		if err != nil {
			return err
		}
		attrs[i] = vk.VertexInputAttributeDescription{
			Location: uint32(a.Location),
			Format:   f,
			Offset:   uint32(a.Offset),
		}
	}
	vertexInput := vk.PipelineVertexInputStateCreateInfo{
		SType: vk.StructureTypePipelineVertexInputStateCreateInfo,
	}
	if desc.VertexStride > 0 {
		vertexInput.VertexBindingDescriptionCount = 1
		vertexInput.PVertexBindingDescriptions = []vk.VertexInputBindingDescription{{
			Stride:    uint32(desc.VertexStride),
			InputRate: vk.VertexInputRateVertex,
		}}
		vertexInput.VertexAttributeDescriptionCount = uint32(len(attrs))
		vertexInput.PVertexAttributeDescriptions = attrs
	}

	inputAssembly := vk.PipelineInputAssemblyStateCreateInfo{
		SType:    vk.StructureTypePipelineInputAssemblyStateCreateInfo,
		Topology: vk.PrimitiveTopologyTriangleList,
	}
	viewportState := vk.PipelineViewportStateCreateInfo{
		SType:         vk.StructureTypePipelineViewportStateCreateInfo,
		ViewportCount: 1,
		ScissorCount:  1,
	}

	raster := vk.PipelineRasterizationStateCreateInfo{
		SType:       vk.StructureTypePipelineRasterizationStateCreateInfo,
		PolygonMode: vk.PolygonModeFill,
		CullMode:    vk.CullModeFlags(vk.CullModeNone),
		FrontFace:   vk.FrontFaceClockwise,
		LineWidth:   1,
	}
	if desc.Wireframe {
		raster.PolygonMode = vk.PolygonModeLine
	}
	if desc.CullBack {
		raster.CullMode = vk.CullModeFlags(vk.CullModeBackBit)
	}
	// The clip correction flips Y, which keeps OpenGL counter-clockwise
	// triangles counter-clockwise in framebuffer space.
	if desc.FrontFaceCCW {
		raster.FrontFace = vk.FrontFaceCounterClockwise
	}

	multisample := vk.PipelineMultisampleStateCreateInfo{
		SType:                vk.StructureTypePipelineMultisampleStateCreateInfo,
		RasterizationSamples: vk.SampleCount1Bit,
		MinSampleShading:     1,
	}
	depth := vk.PipelineDepthStencilStateCreateInfo{
		SType:          vk.StructureTypePipelineDepthStencilStateCreateInfo,
		DepthCompareOp: vk.CompareOpLess,
		MaxDepthBounds: 1,
	}
	if desc.DepthTest {
		depth.DepthTestEnable = vk.True
		depth.DepthWriteEnable = vk.True
	}
	blend := vk.PipelineColorBlendStateCreateInfo{
		SType:           vk.StructureTypePipelineColorBlendStateCreateInfo,
		AttachmentCount: 1,
		PAttachments: []vk.PipelineColorBlendAttachmentState{{
			ColorWriteMask: vk.ColorComponentFlags(vk.ColorComponentRBit | vk.ColorComponentGBit |
				vk.ColorComponentBBit | vk.ColorComponentABit),
		}},
	}
	dynamic := []vk.DynamicState{vk.DynamicStateViewport, vk.DynamicStateScissor}
	dynamicState := vk.PipelineDynamicStateCreateInfo{
		SType:             vk.StructureTypePipelineDynamicStateCreateInfo,
		DynamicStateCount: uint32(len(dynamic)),
		PDynamicStates:    dynamic,
	}

	info := vk.GraphicsPipelineCreateInfo{
		SType:               vk.StructureTypeGraphicsPipelineCreateInfo,
		StageCount:          uint32(len(stages)),
		PStages:             stages,
		PVertexInputState:   &vertexInput,
		PInputAssemblyState: &inputAssembly,
		PViewportState:      &viewportState,
		PRasterizationState: &raster,
		PMultisampleState:   &multisample,
		PDepthStencilState:  &depth,
		PColorBlendState:    &blend,
		PDynamicState:       &dynamicState,
		Layout:              p.layout,
		RenderPass:          c.renderPass,
		BasePipelineIndex:   -1,
	}
	pipelines := make([]vk.Pipeline, 1)
	if err := vk.Error(vk.CreateGraphicsPipelines(c.device, vk.PipelineCache(vk.NullHandle), 1,
		[]vk.GraphicsPipelineCreateInfo{info}, nil, pipelines)); err != nil {
		return fmt.Errorf("graphics pipeline: %w", err)
	}
	p.handle = pipelines[0]
	return nil
}

type bindGroup struct {
	ctx  *Context
	pool vk.DescriptorPool
	set  vk.DescriptorSet
}

var _ gpu.BindGroup = (*bindGroup)(nil)

func (g *bindGroup) Destroy() {
	if g.pool != nil {
		vk.DestroyDescriptorPool(g.ctx.device, g.pool, nil)
		g.pool = nil
	}
}

// CreateBindGroup allocates a descriptor set for p from a pool of its own
// and points every binding at its buffer.
func (c *Context) CreateBindGroup(gp gpu.Pipeline, entries []gpu.BindGroupEntry) (gpu.BindGroup, error) {
	p, ok := gp.(*pipeline)
	if !ok {
		return nil, fmt.Errorf("vulkan: bind group for foreign pipeline %T", gp)
	}
	kinds := make(map[int]gpu.BindingKind, len(p.desc.Bindings))
	counts := make(map[vk.DescriptorType]uint32)
	for _, b := range p.desc.Bindings {
		kinds[b.Binding] = b.Kind
		counts[descriptorType(b.Kind)]++
	}

	sizes := make([]vk.DescriptorPoolSize, 0, len(counts))
	for t, n := range counts {
		sizes = append(sizes, vk.DescriptorPoolSize{Type: t, DescriptorCount: n})
	}
	poolInfo := vk.DescriptorPoolCreateInfo{
		SType:         vk.StructureTypeDescriptorPoolCreateInfo,
		MaxSets:       1,
		PoolSizeCount: uint32(len(sizes)),
		PPoolSizes:    sizes,
	}
	g := &bindGroup{ctx: c}
	if err := vk.Error(vk.CreateDescriptorPool(c.device, &poolInfo, nil, &g.pool)); err != nil {
		return nil, fmt.Errorf("descriptor pool: %w", err)
	}
	alloc := vk.DescriptorSetAllocateInfo{
		SType:              vk.StructureTypeDescriptorSetAllocateInfo,
		DescriptorPool:     g.pool,
		DescriptorSetCount: 1,
		PSetLayouts:        []vk.DescriptorSetLayout{p.setLayout},
	}
	if err := vk.Error(vk.AllocateDescriptorSets(c.device, &alloc, &g.set)); err != nil {
		g.Destroy()
		return nil, fmt.Errorf("descriptor set: %w", err)
	}

	writes := make([]vk.WriteDescriptorSet, 0, len(entries))
	for _, e := range entries {
		kind, ok := kinds[e.Binding]
		if !ok {
			g.Destroy()
			return nil, fmt.Errorf("vulkan: binding %d not in pipeline %q", e.Binding, p.desc.Label)
		}
		b, ok := e.Buffer.(*buffer)
		if !ok {
			g.Destroy()
			return nil, fmt.Errorf("vulkan: binding %d holds foreign buffer %T", e.Binding, e.Buffer)
		}
		writes = append(writes, vk.WriteDescriptorSet{
			SType:           vk.StructureTypeWriteDescriptorSet,
			DstSet:          g.set,
			DstBinding:      uint32(e.Binding),
			DescriptorCount: 1,
			DescriptorType:  descriptorType(kind),
			PBufferInfo: []vk.DescriptorBufferInfo{{
				Buffer: b.handle,
				Range:  vk.DeviceSize(b.desc.Size),
			}},
		})
	}
	vk.UpdateDescriptorSets(c.device, uint32(len(writes)), writes, 0, nil)
	return g, nil
}
