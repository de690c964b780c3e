package friction

import (
	"errors"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"
)

func TestIsAnisotropic(t *testing.T) {
	tests := []struct {
		name  string
		model Model
		want  bool
	}{
		{"isotropic", Isotropic(2), false},
		{"anisotropic", Anisotropic(r3.Vec{X: 1, Y: 2, Z: 4}), true},
		{"anisotropic with equal axes", Anisotropic(r3.Vec{X: 3, Y: 3, Z: 3}), false},
		{"zero value", Model{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.model.IsAnisotropic(); got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestAxis(t *testing.T) {
	m := Anisotropic(r3.Vec{X: 1, Y: 2, Z: 4})
	for j, want := range []float64{1, 2, 4} {
		if got := m.Axis(j); got != want {
			t.Errorf("axis %d: expected %f, got %f", j, want, got)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Isotropic(0).Validate(); err != nil {
		t.Errorf("zero friction should be valid, got %v", err)
	}
	err := Anisotropic(r3.Vec{X: 1, Y: -1, Z: 1}).Validate()
	if !errors.Is(err, ErrNegative) {
		t.Errorf("expected ErrNegative, got %v", err)
	}
}

func TestYAML(t *testing.T) {
	var cfg struct {
		Iso   Model `yaml:"iso"`
		Aniso Model `yaml:"aniso"`
	}
	src := "iso: 2.5\naniso: [1, 2, 4]\n"
	if err := yaml.Unmarshal([]byte(src), &cfg); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	if cfg.Iso.Kind() != KindIsotropic || cfg.Iso.Axis(2) != 2.5 {
		t.Errorf("unexpected isotropic model %v", cfg.Iso)
	}
	if cfg.Aniso.Kind() != KindAnisotropic || cfg.Aniso.Vec() != (r3.Vec{X: 1, Y: 2, Z: 4}) {
		t.Errorf("unexpected anisotropic model %v", cfg.Aniso)
	}

	if err := yaml.Unmarshal([]byte("iso: [1, 2]\n"), &cfg); err == nil {
		t.Error("expected error for two component friction")
	}
}
