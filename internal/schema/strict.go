// Package schema implements strict-JSON-Schema derivation (§4.9): walking
// a JSON Schema tree to set additionalProperties:false and require every
// declared property, for backends that support server-side structured
// output.
package schema

// Strict returns a deep-copied, strict-mode version of s: every object
// node gets additionalProperties=false and required=keys(properties),
// recursing into properties and items. The input is never mutated, so
// callers can still embed the original (non-strict) schema in prompt text.
func Strict(s map[string]interface{}) map[string]interface{} {
	return strictNode(s)
}

func strictNode(node map[string]interface{}) map[string]interface{} {
	if node == nil {
		return nil
	}

	out := make(map[string]interface{}, len(node)+2)
	for k, v := range node {
		out[k] = v
	}

	typ, _ := out["type"].(string)

	if props, ok := out["properties"].(map[string]interface{}); ok {
		newProps := make(map[string]interface{}, len(props))
		required := make([]string, 0, len(props))
		for name, raw := range props {
			required = append(required, name)
			if child, ok := raw.(map[string]interface{}); ok {
				newProps[name] = strictNode(child)
			} else {
				newProps[name] = raw
			}
		}
		out["properties"] = newProps
		out["required"] = required
	}

	if typ == "object" {
		out["additionalProperties"] = false
	}

	if items, ok := out["items"].(map[string]interface{}); ok {
		out["items"] = strictNode(items)
	}

	return out
}
