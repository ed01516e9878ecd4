package swaggerkit

import "strings"

const envelopeRef = "#/components/schemas/Envelope"

// Decorate pins the document to OAS 3.0.3 under /api/v1, points every error
// response at the shared envelope and marks protected paths as bearer secured
func Decorate(spec map[string]any, protected ...string) {
	if v, _ := spec["openapi"].(string); !strings.HasPrefix(v, "3.0") {
		spec["openapi"] = "3.0.3"
	}
	delete(spec, "swagger")
	if _, ok := spec["servers"]; !ok {
		spec["servers"] = []any{map[string]any{"url": "/api/v1"}}
	}

	comps := child(spec, "components")
	child(comps, "schemas")["Envelope"] = map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status_code": map[string]any{"type": "integer"},
			"status":      map[string]any{"type": "string"},
			"code":        map[string]any{"type": "integer", "description": "stackscout error code"},
			"field":       map[string]any{"type": "string"},
			"error":       map[string]any{"type": "string"},
			"request_id":  map[string]any{"type": "string"},
			"data":        map[string]any{},
		},
		"required": []any{"status_code", "status"},
	}
	child(comps, "securitySchemes")["bearer"] = map[string]any{"type": "http", "scheme": "bearer"}

	paths, _ := spec["paths"].(map[string]any)
	for path, node := range paths {
		ops, _ := node.(map[string]any)
		for _, opAny := range ops {
			op, ok := opAny.(map[string]any)
			if !ok {
				continue
			}
			resps := child(op, "responses")
			if _, ok := resps["500"]; !ok {
				resps["500"] = map[string]any{"description": "internal error"}
			}
			for _, p := range protected {
				if p == path {
					op["security"] = []any{map[string]any{"bearer": []any{}}}
					if _, ok := resps["401"]; !ok {
						resps["401"] = map[string]any{"description": "missing or invalid bearer token"}
					}
				}
			}
			for status, r := range resps {
				resp, ok := r.(map[string]any)
				if !ok || status < "400" {
					continue
				}
				if _, ok := resp["content"]; !ok {
					resp["content"] = map[string]any{
						"application/json": map[string]any{"schema": map[string]any{"$ref": envelopeRef}},
					}
				}
			}
		}
	}
}

func child(m map[string]any, key string) map[string]any {
	c, ok := m[key].(map[string]any)
	if !ok {
		c = map[string]any{}
		m[key] = c
	}
	return c
}
