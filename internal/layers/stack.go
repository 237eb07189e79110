// Ordered layer stack composited with blend modes and opacity
package layers

import (
	"fmt"
	"sync"

	"hybrid-image-generator/internal/algorithms"
	"hybrid-image-generator/internal/core"
)

// Layer is either an algorithm layer, which processes the running result,
// or an image layer, which contributes a fixed buffer. Image wins when set.
type Layer struct {
	ID         string
	Name       string
	Algorithm  string
	Parameters map[string]interface{}
	Image      *core.Buffer
	Enabled    bool
	BlendMode  BlendMode
	Opacity    float64 // 0.0 to 1.0
}

// BlendMode defines how layers combine
type BlendMode int

const (
	BlendNormal BlendMode = iota
	BlendOverlay
	BlendMultiply
	BlendScreen
	BlendAdd
	BlendDifference
)

var blendModeNames = map[BlendMode]string{
	BlendNormal:     "normal",
	BlendOverlay:    "overlay",
	BlendMultiply:   "multiply",
	BlendScreen:     "screen",
	BlendAdd:        "add",
	BlendDifference: "difference",
}

func (m BlendMode) String() string {
	if name, ok := blendModeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("BlendMode(%d)", int(m))
}

// ParseBlendMode maps a blend mode name back to its value.
func ParseBlendMode(name string) (BlendMode, error) {
	for mode, n := range blendModeNames {
		if n == name {
			return mode, nil
		}
	}
	return BlendNormal, fmt.Errorf("unknown blend mode: %s", name)
}

// LayerStack manages multiple processing layers
type LayerStack struct {
	mu     sync.RWMutex
	layers []*Layer
	nextID int
}

func NewLayerStack() *LayerStack {
	return &LayerStack{
		layers: make([]*Layer, 0),
		nextID: 1,
	}
}

// AddLayer adds an algorithm layer after validating its parameters
func (ls *LayerStack) AddLayer(name, algorithm string, params map[string]interface{}) (string, error) {
	if err := algorithms.ValidateParameters(algorithm, params); err != nil {
		return "", fmt.Errorf("layer %s: %w", name, err)
	}
	alg, _ := algorithms.Get(algorithm)
	if alg.Arity() != 1 {
		return "", fmt.Errorf("layer %s: %s needs %d inputs, layers take one", name, algorithm, alg.Arity())
	}

	return ls.add(&Layer{
		Name:       name,
		Algorithm:  algorithm,
		Parameters: params,
		Enabled:    true,
		BlendMode:  BlendNormal,
		Opacity:    1.0,
	}), nil
}

// AddImageLayer adds a fixed buffer blended onto the running result
func (ls *LayerStack) AddImageLayer(name string, img *core.Buffer, mode BlendMode) string {
	return ls.add(&Layer{
		Name:      name,
		Image:     img,
		Enabled:   true,
		BlendMode: mode,
		Opacity:   1.0,
	})
}

func (ls *LayerStack) add(layer *Layer) string {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	layer.ID = fmt.Sprintf("layer_%d", ls.nextID)
	ls.nextID++
	ls.layers = append(ls.layers, layer)
	return layer.ID
}

// RemoveLayer deletes a layer by ID
func (ls *LayerStack) RemoveLayer(id string) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for i, layer := range ls.layers {
		if layer.ID == id {
			ls.layers = append(ls.layers[:i], ls.layers[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("layer not found: %s", id)
}

// SetBlendMode changes how a layer combines with the layers below it
func (ls *LayerStack) SetBlendMode(id string, mode BlendMode) error {
	return ls.update(id, func(l *Layer) error {
		if _, ok := blendModeNames[mode]; !ok {
			return fmt.Errorf("unknown blend mode %d", int(mode))
		}
		l.BlendMode = mode
		return nil
	})
}

// SetOpacity sets the layer opacity in [0, 1]
func (ls *LayerStack) SetOpacity(id string, opacity float64) error {
	return ls.update(id, func(l *Layer) error {
		if opacity < 0 || opacity > 1 || opacity != opacity {
			return fmt.Errorf("opacity must be between 0 and 1, got %v", opacity)
		}
		l.Opacity = opacity
		return nil
	})
}

// SetEnabled toggles a layer
func (ls *LayerStack) SetEnabled(id string, enabled bool) error {
	return ls.update(id, func(l *Layer) error {
		l.Enabled = enabled
		return nil
	})
}

func (ls *LayerStack) update(id string, fn func(*Layer) error) error {
	ls.mu.Lock()
	defer ls.mu.Unlock()

	for _, layer := range ls.layers {
		if layer.ID == id {
			return fn(layer)
		}
	}
	return fmt.Errorf("layer not found: %s", id)
}

// GetLayers returns all layers
func (ls *LayerStack) GetLayers() []*Layer {
	ls.mu.RLock()
	defer ls.mu.RUnlock()

	result := make([]*Layer, len(ls.layers))
	copy(result, ls.layers)
	return result
}

// Len returns the number of layers
func (ls *LayerStack) Len() int {
	ls.mu.RLock()
	defer ls.mu.RUnlock()
	return len(ls.layers)
}

// ProcessLayers composites all enabled layers, bottom first, onto input.
// The input buffer is never modified.
func (ls *LayerStack) ProcessLayers(input *core.Buffer) (*core.Buffer, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	result := input

	for _, layer := range ls.GetLayers() {
		if !layer.Enabled {
			continue
		}

		processed, err := ls.processLayer(result, layer)
		if err != nil {
			return nil, fmt.Errorf("layer %s (%s): %w", layer.ID, layer.Name, err)
		}

		blended, err := blendLayers(result, processed, layer.BlendMode, layer.Opacity)
		if err != nil {
			return nil, fmt.Errorf("layer %s (%s): %w", layer.ID, layer.Name, err)
		}
		result = blended
	}

	if result == input {
		return input.Clone(), nil
	}
	return result, nil
}

// processLayer produces the layer content for the current running result
func (ls *LayerStack) processLayer(input *core.Buffer, layer *Layer) (*core.Buffer, error) {
	if layer.Image != nil {
		return layer.Image, nil
	}
	return algorithms.ApplyAlgorithm(layer.Algorithm, []*core.Buffer{input}, layer.Parameters)
}

// blendLayers combines base and overlay using mode, then mixes the blended
// result back over base by opacity.
func blendLayers(base, overlay *core.Buffer, mode BlendMode, opacity float64) (*core.Buffer, error) {
	var op algorithms.Binary
	switch mode {
	case BlendNormal:
		op = algorithms.Binary{Name: "normal", Op: algorithms.BinaryFunc(func(x, y int, _, b *core.Buffer) algorithms.RGB {
			r, g, bl, _ := b.RGBA(x, y)
			return algorithms.RGB{R: float64(r), G: float64(g), B: float64(bl)}
		})}
	case BlendOverlay:
		op = algorithms.Overlay()
	case BlendMultiply:
		op = algorithms.Multiply()
	case BlendScreen:
		op = algorithms.Screen()
	case BlendAdd:
		op = algorithms.Add(0)
	case BlendDifference:
		op = algorithms.Subtract(true, 0)
	default:
		return nil, fmt.Errorf("unknown blend mode %d", int(mode))
	}

	blended, err := algorithms.ApplyBinary(base, overlay, op)
	if err != nil {
		return nil, err
	}
	if opacity >= 1 {
		return blended, nil
	}
	return algorithms.ApplyBinary(blended, base, algorithms.Dissolve(opacity))
}
