package process

import (
	"sort"
	"strings"
)

// BuildEnv returns base with every variable named in unset removed and the
// overrides applied. Overrides are appended in key order so the result is
// deterministic.
func BuildEnv(base []string, unset []string, overrides map[string]string) []string {
	drop := make(map[string]bool, len(unset)+len(overrides))
	for _, k := range unset {
		drop[k] = true
	}
	for k := range overrides {
		drop[k] = true
	}

	env := make([]string, 0, len(base)+len(overrides))
	for _, kv := range base {
		key, _, _ := strings.Cut(kv, "=")
		if drop[key] {
			continue
		}
		env = append(env, kv)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		env = append(env, k+"="+overrides[k])
	}
	return env
}
