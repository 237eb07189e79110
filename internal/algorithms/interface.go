// Named algorithm registry used by the step pipeline and the CLI
package algorithms

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"

	"hybrid-image-generator/internal/core"
)

// Algorithm defines the interface for image processing algorithms
type Algorithm interface {
	Apply(inputs []*core.Buffer, params map[string]interface{}) (*core.Buffer, error)
	Arity() int
	GetDefaultParams() map[string]interface{}
	GetName() string
	GetDescription() string
	Validate(params map[string]interface{}) error
	GetParameterInfo() []ParameterInfo
}

// ParameterInfo describes a parameter for CLI help and validation
type ParameterInfo struct {
	Name        string      `json:"name" yaml:"name"`
	Type        string      `json:"type" yaml:"type"` // "int", "float", "bool"
	Min         interface{} `json:"min,omitempty" yaml:"min,omitempty"`
	Max         interface{} `json:"max,omitempty" yaml:"max,omitempty"`
	Default     interface{} `json:"default" yaml:"default"`
	Description string      `json:"description" yaml:"description"`
}

var algorithms = make(map[string]Algorithm)

func Register(name string, algorithm Algorithm) {
	algorithms[name] = algorithm
}

func Get(name string) (Algorithm, bool) {
	algorithm, exists := algorithms[name]
	return algorithm, exists
}

// ApplyAlgorithm validates params and runs the named algorithm.
func ApplyAlgorithm(name string, inputs []*core.Buffer, params map[string]interface{}) (*core.Buffer, error) {
	algorithm, exists := algorithms[name]
	if !exists {
		return nil, fmt.Errorf("algorithm not found: %s", name)
	}

	if err := algorithm.Validate(params); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	return algorithm.Apply(inputs, params)
}

func ValidateParameters(name string, params map[string]interface{}) error {
	algorithm, exists := algorithms[name]
	if !exists {
		return fmt.Errorf("algorithm not found: %s", name)
	}

	return algorithm.Validate(params)
}

func IsValidAlgorithm(name string) bool {
	_, exists := algorithms[name]
	return exists
}

// Names returns every registered algorithm name in lexical order.
func Names() []string {
	names := lo.Keys(algorithms)
	sort.Strings(names)
	return names
}

func GetAlgorithmsByCategory() map[string][]string {
	return map[string][]string{
		"Filters": {
			"brighten",
			"darken",
			"grayscale",
			"invert",
		},
		"Blends": {
			"add",
			"subtract",
			"multiply",
			"screen",
			"overlay",
			"dissolve",
			"add_dissolve",
		},
		"Convolution": {
			"gaussian",
			"laplacian",
		},
		"Blur": {
			"stack_blur",
		},
	}
}

// algorithm is the registry entry shared by every built-in.
type algorithm struct {
	name        string
	description string
	arity       int
	params      []ParameterInfo
	check       func(params map[string]interface{}) error
	run         func(inputs []*core.Buffer, params map[string]interface{}) (*core.Buffer, error)
}

func (a *algorithm) Apply(inputs []*core.Buffer, params map[string]interface{}) (*core.Buffer, error) {
	if len(inputs) != a.arity {
		return nil, fmt.Errorf("%s expects %d input(s), got %d", a.name, a.arity, len(inputs))
	}
	for i, in := range inputs {
		if err := in.Validate(); err != nil {
			return nil, fmt.Errorf("%s input %d: %w", a.name, i, err)
		}
	}
	return a.run(inputs, a.withDefaults(params))
}

func (a *algorithm) Arity() int { return a.arity }

func (a *algorithm) GetDefaultParams() map[string]interface{} {
	defaults := make(map[string]interface{}, len(a.params))
	for _, p := range a.params {
		defaults[p.Name] = p.Default
	}
	return defaults
}

func (a *algorithm) GetName() string { return a.name }

func (a *algorithm) GetDescription() string { return a.description }

func (a *algorithm) GetParameterInfo() []ParameterInfo { return a.params }

func (a *algorithm) Validate(params map[string]interface{}) error {
	for _, info := range a.params {
		val, ok := params[info.Name]
		if !ok {
			continue
		}
		switch info.Type {
		case "bool":
			if _, ok := val.(bool); !ok {
				return fmt.Errorf("%s must be a boolean", info.Name)
			}
		case "int", "float":
			v, ok := toFloat(val)
			if !ok {
				return fmt.Errorf("%s must be a number", info.Name)
			}
			if math.IsNaN(v) {
				return fmt.Errorf("%s must not be NaN", info.Name)
			}
			if info.Type == "int" && v != math.Trunc(v) {
				return fmt.Errorf("%s must be an integer", info.Name)
			}
			minV, _ := toFloat(info.Min)
			maxV, _ := toFloat(info.Max)
			if (info.Min != nil && v < minV) || (info.Max != nil && v > maxV) {
				return fmt.Errorf("%s must be between %v and %v", info.Name, info.Min, info.Max)
			}
		}
	}

	for name := range params {
		if !lo.ContainsBy(a.params, func(p ParameterInfo) bool { return p.Name == name }) {
			return fmt.Errorf("unknown parameter %q for %s", name, a.name)
		}
	}

	if a.check != nil {
		return a.check(params)
	}
	return nil
}

func (a *algorithm) withDefaults(params map[string]interface{}) map[string]interface{} {
	merged := a.GetDefaultParams()
	for k, v := range params {
		merged[k] = v
	}
	return merged
}

func toFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func floatParam(params map[string]interface{}, name string) float64 {
	v, _ := toFloat(params[name])
	return v
}

func boolParam(params map[string]interface{}, name string) bool {
	v, _ := params[name].(bool)
	return v
}

func unaryAlgorithm(name, description string, params []ParameterInfo, build func(map[string]interface{}) Unary) *algorithm {
	return &algorithm{
		name:        name,
		description: description,
		arity:       1,
		params:      params,
		run: func(inputs []*core.Buffer, p map[string]interface{}) (*core.Buffer, error) {
			return Apply(inputs[0], build(p)), nil
		},
	}
}

func binaryAlgorithm(name, description string, params []ParameterInfo, build func(map[string]interface{}) Binary) *algorithm {
	return &algorithm{
		name:        name,
		description: description,
		arity:       2,
		params:      params,
		run: func(inputs []*core.Buffer, p map[string]interface{}) (*core.Buffer, error) {
			return ApplyBinary(inputs[0], inputs[1], build(p))
		},
	}
}

func intensityParam(def, min, max float64, description string) ParameterInfo {
	return ParameterInfo{Name: "intensity", Type: "float", Min: min, Max: max, Default: def, Description: description}
}

func shiftParam(def float64) ParameterInfo {
	return ParameterInfo{Name: "shift", Type: "float", Min: -255.0, Max: 255.0, Default: def, Description: "Value added after combining channels"}
}

func init() {
	Register("brighten", unaryAlgorithm("brighten", "Multiplies each channel by the intensity",
		[]ParameterInfo{intensityParam(1.5, 0.0, 10.0, "Multiplication factor")},
		func(p map[string]interface{}) Unary { return Brighten(floatParam(p, "intensity")) }))
	Register("darken", unaryAlgorithm("darken", "Divides each channel by the intensity",
		[]ParameterInfo{intensityParam(1.5, 0.01, 10.0, "Division factor")},
		func(p map[string]interface{}) Unary { return Darken(floatParam(p, "intensity")) }))
	Register("grayscale", unaryAlgorithm("grayscale", "Averages the colour channels", nil,
		func(map[string]interface{}) Unary { return Grayscale() }))
	Register("invert", unaryAlgorithm("invert", "Replaces each channel with 255 minus its value", nil,
		func(map[string]interface{}) Unary { return Invert() }))

	Register("add", binaryAlgorithm("add", "Adds both images and subtracts the shift",
		[]ParameterInfo{shiftParam(0.0)},
		func(p map[string]interface{}) Binary { return Add(floatParam(p, "shift")) }))
	Register("subtract", binaryAlgorithm("subtract", "Difference of two images, absolute when symmetric",
		[]ParameterInfo{
			{Name: "symmetric", Type: "bool", Default: true, Description: "Use the absolute difference"},
			shiftParam(0.0),
		},
		func(p map[string]interface{}) Binary {
			return Subtract(boolParam(p, "symmetric"), floatParam(p, "shift"))
		}))
	Register("multiply", binaryAlgorithm("multiply", "Multiply blend", nil,
		func(map[string]interface{}) Binary { return Multiply() }))
	Register("screen", binaryAlgorithm("screen", "Screen blend", nil,
		func(map[string]interface{}) Binary { return Screen() }))
	Register("overlay", binaryAlgorithm("overlay", "Overlay blend (multiply below mid-grey, screen above)", nil,
		func(map[string]interface{}) Binary { return Overlay() }))
	Register("dissolve", binaryAlgorithm("dissolve", "Linear interpolation from the second image to the first",
		[]ParameterInfo{intensityParam(0.5, 0.0, 1.0, "Weight of the first image")},
		func(p map[string]interface{}) Binary { return Dissolve(floatParam(p, "intensity")) }))
	Register("add_dissolve", binaryAlgorithm("add_dissolve", "Adds the second image recentred around 128",
		[]ParameterInfo{intensityParam(1.0, 0.0, 2.0, "Weight of the second image")},
		func(p map[string]interface{}) Binary { return AddDissolve(floatParam(p, "intensity")) }))

	Register("gaussian", &algorithm{
		name:        "gaussian",
		description: "Convolves with a normalized Gaussian kernel",
		arity:       1,
		params: []ParameterInfo{
			{Name: "size", Type: "int", Min: 1.0, Max: 31.0, Default: 5.0, Description: "Kernel size (must be odd)"},
			{Name: "sigma", Type: "float", Min: 0.1, Max: 10.0, Default: 1.0, Description: "Standard deviation"},
		},
		check: func(params map[string]interface{}) error {
			if v, ok := toFloat(params["size"]); ok && int(v)%2 == 0 {
				return fmt.Errorf("size must be odd")
			}
			return nil
		},
		run: func(inputs []*core.Buffer, p map[string]interface{}) (*core.Buffer, error) {
			kernel, err := GaussianMatrix(int(floatParam(p, "size")), floatParam(p, "sigma"))
			if err != nil {
				return nil, err
			}
			return Convolve(inputs[0], kernel, false)
		},
	})
	Register("laplacian", &algorithm{
		name:        "laplacian",
		description: "5x5 Laplacian-of-Gaussian edge response",
		arity:       1,
		params: []ParameterInfo{
			{Name: "shift", Type: "bool", Default: true, Description: "Recentre the signed response around 128"},
		},
		run: func(inputs []*core.Buffer, p map[string]interface{}) (*core.Buffer, error) {
			return Convolve(inputs[0], LaplacianOfGaussian(), boolParam(p, "shift"))
		},
	})

	Register("stack_blur", &algorithm{
		name:        "stack_blur",
		description: "Linear-time approximate Gaussian blur",
		arity:       1,
		params: []ParameterInfo{
			{Name: "radius", Type: "int", Min: 0.0, Max: float64(MaxBlurRadius), Default: 4.0, Description: "Blur radius in pixels"},
			{Name: "alpha", Type: "bool", Default: false, Description: "Blur the alpha channel as well"},
		},
		run: func(inputs []*core.Buffer, p map[string]interface{}) (*core.Buffer, error) {
			if boolParam(p, "alpha") {
				return StackBlurRGBA(inputs[0], floatParam(p, "radius")), nil
			}
			return StackBlurRGB(inputs[0], floatParam(p, "radius")), nil
		},
	})
}
