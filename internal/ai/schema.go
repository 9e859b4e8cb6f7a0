package ai

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// FormatInstructions renders the response-format section appended to every
// structured prompt: answer with a JSON instance of the schema, nothing
// else. The schema document itself is embedded so prompt-only providers can
// still honor it.
func FormatInstructions(schema Schema) string {
	var b strings.Builder
	b.WriteString("The output should be formatted as a JSON instance that conforms to the JSON schema below. Any text outside the JSON is an error.\n\n")
	fmt.Fprintf(&b, "Here is the output schema (%s):\n```\n%s\n```", schema.Name, marshalDefinition(schema.Definition))
	return b.String()
}

func marshalDefinition(def map[string]any) string {
	data, err := json.Marshal(def)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// StripCodeFences removes a markdown code fence wrapper from a model reply.
func StripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// strictSchema returns a deep copy of a schema definition tightened for
// OpenAI strict mode: every object level gets additionalProperties false and
// a required list naming all declared properties. The input is never
// modified.
func strictSchema(def map[string]any) map[string]any {
	data, err := json.Marshal(def)
	if err != nil {
		return def
	}
	var clone map[string]any
	if err := json.Unmarshal(data, &clone); err != nil {
		return def
	}
	fixStrict(clone)
	return clone
}

func fixStrict(node any) {
	switch n := node.(type) {
	case map[string]any:
		if props, ok := n["properties"].(map[string]any); ok {
			if _, hasType := n["type"]; !hasType {
				n["type"] = "object"
			}
			n["additionalProperties"] = false
			keys := make([]string, 0, len(props))
			for k := range props {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			req := make([]any, len(keys))
			for i, k := range keys {
				req[i] = k
			}
			n["required"] = req
			for _, v := range props {
				fixStrict(v)
			}
		}
		if items, ok := n["items"]; ok {
			fixStrict(items)
		}
		for _, k := range []string{"oneOf", "anyOf", "allOf"} {
			if arr, ok := n[k].([]any); ok {
				for _, el := range arr {
					fixStrict(el)
				}
			}
		}
	case []any:
		for _, v := range n {
			fixStrict(v)
		}
	}
}
