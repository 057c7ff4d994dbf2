package value

import (
	"strconv"

	"gopkg.in/yaml.v3"
)

// MarshalYAML encodes the object as an ordered YAML mapping.
func (o *Object) MarshalYAML() (any, error) {
	return yamlNode(FromObject(o)), nil
}

// MarshalYAML encodes the value as a YAML node.
func (v Value) MarshalYAML() (any, error) {
	return yamlNode(v), nil
}

func yamlNode(v Value) *yaml.Node {
	switch v.kind {
	case KindString:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v.str}
	case KindNumber:
		tag := "!!float"
		if _, err := strconv.ParseInt(v.str, 10, 64); err == nil {
			tag = "!!int"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: v.str}
	case KindBool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(v.b)}
	case KindList:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, item := range v.list {
			n.Content = append(n.Content, yamlNode(item))
		}
		return n
	case KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		v.obj.Range(func(k string, item Value) bool {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
				yamlNode(item),
			)
			return true
		})
		return n
	default:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
}
