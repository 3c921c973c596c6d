package intercept

// ParameterAdapter rewrites a parameter bag for a substitute tool.
// Adaptation is field rename and default fill only; values are never
// coerced to a different type.
type ParameterAdapter struct {
	// Renames maps requested-tool field names to resolved-tool field
	// names. A renamed field never overwrites one the caller already set.
	Renames map[string]string

	// Defaults are added when the field is absent after renames.
	Defaults map[string]any
}

// Apply returns an adapted copy of params. The input bag is not mutated.
func (a ParameterAdapter) Apply(params map[string]any) map[string]any {
	out := make(map[string]any, len(params)+len(a.Defaults))
	for k, v := range params {
		if to, ok := a.Renames[k]; ok {
			k = to
		}
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	for k, v := range a.Defaults {
		if _, exists := out[k]; !exists {
			out[k] = v
		}
	}
	return out
}

// adapterKey identifies the adapter for one substitution pair.
func adapterKey(requested, resolved string) string {
	return requested + "->" + resolved
}

// defaultAdapters covers the built-in substitutions whose parameter
// shapes differ between the alias agents request and the real tool.
func defaultAdapters() map[string]ParameterAdapter {
	return map[string]ParameterAdapter{
		adapterKey("str_replace_editor", "edit"): {
			Renames: map[string]string{
				"path":    "filePath",
				"old_str": "oldString",
				"new_str": "newString",
			},
		},
		adapterKey("str_replace_editor", "write"): {
			Renames: map[string]string{
				"path":     "filePath",
				"file_text": "content",
			},
		},
		adapterKey("execute_command", "bash"): {
			Renames: map[string]string{
				"cmd": "command",
			},
		},
		adapterKey("fetch", "webfetch"): {
			Defaults: map[string]any{
				"format": "text",
			},
		},
		adapterKey("kb_read", "read"): {
			Renames: map[string]string{
				"path": "filePath",
			},
		},
	}
}
