package plant

import (
	"fmt"
	"sort"

	"github.com/san-kum/pidloop/internal/dynamo"
)

// Model is a plant the bench can start from a measured value.
type Model interface {
	dynamo.Plant
	InitialState(pv0 float64) dynamo.State
}

type tunable interface {
	Model
	set(name string, v float64) bool
}

var models = map[string]func() tunable{
	"motor":       func() tunable { return NewMotor() },
	"thermal":     func() tunable { return NewThermal() },
	"mass_spring": func() tunable { return NewMassSpring() },
}

// Get builds the named plant with defaults, then applies params.
func Get(name string, params map[string]float64) (Model, error) {
	fn, ok := models[name]
	if !ok {
		return nil, fmt.Errorf("unknown plant: %s (available: %v)", name, Names())
	}
	p := fn()
	for k, v := range params {
		if v <= 0 && k != "ambient" {
			return nil, fmt.Errorf("plant %s: parameter %s must be positive, got %g", name, k, v)
		}
		if !p.set(k, v) {
			return nil, fmt.Errorf("plant %s: unknown parameter %q", name, k)
		}
	}
	return p, nil
}

func Names() []string {
	names := make([]string, 0, len(models))
	for name := range models {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
