package vulkan

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unsafe"

	"github.com/go-gl/glfw/v3.3/glfw"
	vk "github.com/vulkan-go/vulkan"
	"go.uber.org/zap"
)

const validationLayer = "VK_LAYER_KHRONOS_validation\x00"

var deviceExtensions = []string{vk.KhrSwapchainExtensionName + "\x00"}

// cstr terminates s for the Vulkan string arrays.
func cstr(s string) string {
	if strings.HasSuffix(s, "\x00") {
		return s
	}
	return s + "\x00"
}

func (c *Context) createInstance(window *glfw.Window) error {
	if err := vk.Init(); err != nil {
		return fmt.Errorf("init vulkan loader: %w", err)
	}

	var extensions []string
	for _, ext := range window.GetRequiredInstanceExtensions() {
		extensions = append(extensions, cstr(ext))
	}
	var layers []string
	if c.opts.Validation {
		if !layerAvailable(validationLayer) {
			c.log.Warn("validation layer not installed, continuing without it")
			c.opts.Validation = false
		} else {
			layers = append(layers, validationLayer)
			extensions = append(extensions, vk.ExtDebugReportExtensionName+"\x00")
		}
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		PApplicationName:   cstr(c.opts.AppName),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PEngineName:        "lodterrain\x00",
		EngineVersion:      vk.MakeVersion(1, 0, 0),
		ApiVersion:         vk.ApiVersion10,
	}
	info := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: extensions,
		EnabledLayerCount:       uint32(len(layers)),
		PpEnabledLayerNames:     layers,
	}
	var instance vk.Instance
	if err := vk.Error(vk.CreateInstance(&info, nil, &instance)); err != nil {
		return fmt.Errorf("create instance: %w", err)
	}
	c.instance = instance
	if err := vk.InitInstance(instance); err != nil {
		return fmt.Errorf("load instance functions: %w", err)
	}

	if c.opts.Validation {
		return c.createDebugCallback()
	}
	return nil
}

func layerAvailable(name string) bool {
	var count uint32
	if vk.EnumerateInstanceLayerProperties(&count, nil) != vk.Success {
		return false
	}
	props := make([]vk.LayerProperties, count)
	if vk.EnumerateInstanceLayerProperties(&count, props) != vk.Success {
		return false
	}
	for _, p := range props {
		p.Deref()
		if vk.ToString(p.LayerName[:])+"\x00" == name {
			return true
		}
	}
	return false
}

// createDebugCallback routes validation output into the logger.
func (c *Context) createDebugCallback() error {
	log := c.log.Named("validation")
	info := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit),
		PfnCallback: func(flags vk.DebugReportFlags, _ vk.DebugReportObjectType, _ uint64,
			_ uint, code int32, prefix string, msg string, _ unsafe.Pointer) vk.Bool32 {
			fields := []zap.Field{zap.String("layer", prefix), zap.Int32("code", code)}
			switch {
			case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
				log.Error(msg, fields...)
			case flags&vk.DebugReportFlags(vk.DebugReportPerformanceWarningBit) != 0:
				log.Info(msg, fields...)
			default:
				log.Warn(msg, fields...)
			}
			return vk.Bool32(vk.False)
		},
	}
	if err := vk.Error(vk.CreateDebugReportCallback(c.instance, &info, nil, &c.debugCallback)); err != nil {
		return fmt.Errorf("create debug callback: %w", err)
	}
	return nil
}

func (c *Context) createSurface(window *glfw.Window) error {
	ptr, err := window.CreateWindowSurface(c.instance, nil)
	if err != nil {
		return fmt.Errorf("create window surface: %w", err)
	}
	c.surface = vk.SurfaceFromPointer(ptr)
	return nil
}

type queueFamilies struct {
	graphics, present       uint32
	hasGraphics, hasPresent bool
}

func (q queueFamilies) complete() bool { return q.hasGraphics && q.hasPresent }

func (c *Context) findQueueFamilies(pd vk.PhysicalDevice) queueFamilies {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, nil)
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(pd, &count, props)

	var q queueFamilies
	for i, p := range props {
		p.Deref()
		if p.QueueFlags&vk.QueueFlags(vk.QueueGraphicsBit) != 0 && !q.hasGraphics {
			q.graphics, q.hasGraphics = uint32(i), true
		}
		var present vk.Bool32
		if vk.GetPhysicalDeviceSurfaceSupport(pd, uint32(i), c.surface, &present) == vk.Success &&
			present.B() && !q.hasPresent {
			q.present, q.hasPresent = uint32(i), true
		}
		if q.complete() {
			break
		}
	}
	return q
}

func hasDeviceExtensions(pd vk.PhysicalDevice) bool {
	var count uint32
	if vk.EnumerateDeviceExtensionProperties(pd, "", &count, nil) != vk.Success {
		return false
	}
	props := make([]vk.ExtensionProperties, count)
	if vk.EnumerateDeviceExtensionProperties(pd, "", &count, props) != vk.Success {
		return false
	}
	names := make([]string, 0, count)
	for _, p := range props {
		p.Deref()
		names = append(names, vk.ToString(p.ExtensionName[:])+"\x00")
	}
	for _, want := range deviceExtensions {
		if !slices.Contains(names, want) {
			return false
		}
	}
	return true
}

// pickPhysicalDevice prefers a discrete GPU among the devices that can
// present to the surface.
func (c *Context) pickPhysicalDevice() error {
	var count uint32
	if err := vk.Error(vk.EnumeratePhysicalDevices(c.instance, &count, nil)); err != nil {
		return fmt.Errorf("count physical devices: %w", err)
	}
	if count == 0 {
		return errors.New("no GPU with Vulkan support")
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := vk.Error(vk.EnumeratePhysicalDevices(c.instance, &count, devices)); err != nil {
		return fmt.Errorf("enumerate physical devices: %w", err)
	}

	best, bestScore := vk.PhysicalDevice(vk.NullHandle), 0
	for _, pd := range devices {
		var props vk.PhysicalDeviceProperties
		vk.GetPhysicalDeviceProperties(pd, &props)
		props.Deref()

		score := 0
		if c.findQueueFamilies(pd).complete() && hasDeviceExtensions(pd) {
			score = 1
			if props.DeviceType == vk.PhysicalDeviceTypeDiscreteGpu {
				score = 1000
			}
		}
		c.log.Debug("physical device",
			zap.String("name", vk.ToString(props.DeviceName[:])),
			zap.Int("score", score))
		if score > bestScore {
			best, bestScore = pd, score
		}
	}
	if bestScore == 0 {
		return errors.New("no suitable GPU")
	}
	c.physical = best
	vk.GetPhysicalDeviceMemoryProperties(best, &c.memory)
	c.memory.Deref()
	return nil
}

func (c *Context) createDevice() error {
	c.queues = c.findQueueFamilies(c.physical)

	var infos []vk.DeviceQueueCreateInfo
	for _, family := range slices.Compact([]uint32{c.queues.graphics, c.queues.present}) {
		infos = append(infos, vk.DeviceQueueCreateInfo{
			SType:            vk.StructureTypeDeviceQueueCreateInfo,
			QueueFamilyIndex: family,
			QueueCount:       1,
			PQueuePriorities: []float32{1},
		})
	}

	var supported vk.PhysicalDeviceFeatures
	vk.GetPhysicalDeviceFeatures(c.physical, &supported)
	supported.Deref()
	c.fillModeNonSolid = supported.FillModeNonSolid == vk.True
	features := vk.PhysicalDeviceFeatures{FillModeNonSolid: supported.FillModeNonSolid}

	info := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(infos)),
		PQueueCreateInfos:       infos,
		EnabledExtensionCount:   uint32(len(deviceExtensions)),
		PpEnabledExtensionNames: deviceExtensions,
		PEnabledFeatures:        []vk.PhysicalDeviceFeatures{features},
	}
	if c.opts.Validation {
		info.EnabledLayerCount = 1
		info.PpEnabledLayerNames = []string{validationLayer}
	}
	var device vk.Device
	if err := vk.Error(vk.CreateDevice(c.physical, &info, nil, &device)); err != nil {
		return fmt.Errorf("create logical device: %w", err)
	}
	c.device = device
	vk.GetDeviceQueue(device, c.queues.graphics, 0, &c.graphicsQueue)
	vk.GetDeviceQueue(device, c.queues.present, 0, &c.presentQueue)
	return nil
}

// findMemoryType returns the first memory type allowed by typeBits that
// has every property in props.
func findMemoryType(mem vk.PhysicalDeviceMemoryProperties, typeBits uint32, props vk.MemoryPropertyFlagBits) (uint32, error) {
	for i := range mem.MemoryTypeCount {
		mt := mem.MemoryTypes[i]
		mt.Deref()
		if typeBits&(1<<i) != 0 && vk.MemoryPropertyFlagBits(mt.PropertyFlags)&props == props {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no memory type for bits %#x with properties %#x", typeBits, props)
}
