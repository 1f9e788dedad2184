package dynamic

import (
	"encoding/json"
	"fmt"
)

// globalsScript returns an expression yielding a JSON object of the named
// window properties. Values that cannot be serialized are skipped.
func globalsScript(names []string) string {
	list, _ := json.Marshal(names)
	return fmt.Sprintf(`(() => {
  const out = {};
  for (const name of %s) {
    try {
      const v = window[name];
      if (v !== undefined && v !== null) out[name] = JSON.parse(JSON.stringify(v));
    } catch (e) {}
  }
  return JSON.stringify(out);
})()`, list)
}

// decodeGlobals parses the result of globalsScript. An empty result yields a
// nil map so the page context falls back to its own sandbox.
func decodeGlobals(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("decode page globals: %w", err)
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out, nil
}
