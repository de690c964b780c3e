package friction

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

// UnmarshalYAML accepts either a scalar (isotropic) or a three element
// sequence (anisotropic).
func (m *Model) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var g float64
		if err := node.Decode(&g); err != nil {
			return err
		}
		*m = Isotropic(g)
		return nil
	case yaml.SequenceNode:
		var g []float64
		if err := node.Decode(&g); err != nil {
			return err
		}
		if len(g) != 3 {
			return fmt.Errorf("friction: expected 3 components, got %d", len(g))
		}
		*m = Anisotropic(r3.Vec{X: g[0], Y: g[1], Z: g[2]})
		return nil
	default:
		return fmt.Errorf("friction: cannot decode yaml node kind %d", node.Kind)
	}
}

func (m Model) MarshalYAML() (interface{}, error) {
	if m.kind == KindIsotropic {
		return m.gamma.X, nil
	}
	return []float64{m.gamma.X, m.gamma.Y, m.gamma.Z}, nil
}
