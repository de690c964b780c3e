package particle

import "gopkg.in/yaml.v3"

// IsZero reports an unset override so omitempty drops it.
func (o Optional[T]) IsZero() bool { return !o.set }

func (o Optional[T]) MarshalYAML() (interface{}, error) {
	if !o.set {
		return nil, nil
	}
	return o.value, nil
}

// UnmarshalYAML treats an explicit null as an unset override.
func (o *Optional[T]) UnmarshalYAML(value *yaml.Node) error {
	if value.ShortTag() == "!!null" {
		*o = None[T]()
		return nil
	}
	var v T
	if err := value.Decode(&v); err != nil {
		return err
	}
	*o = Some(v)
	return nil
}
