// Package featureflags evaluates runtime switches read from FEATURE_FLAGS.
package featureflags

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
)

// Flags the API consults.
const (
	// OpenResourceSubmissions lets any signed-in user create resources.
	OpenResourceSubmissions = "open_resource_submissions"
	// RealtimeInvalidation pushes change events to websocket clients.
	RealtimeInvalidation = "realtime_invalidation"
)

// Defaults apply when FEATURE_FLAGS does not mention a flag.
var Defaults = map[string]string{
	OpenResourceSubmissions: "off",
	RealtimeInvalidation:    "on",
}

// rollout is a parsed flag value: on, off, or a percentage of users.
type rollout struct {
	raw     string
	percent int
}

func parseRollout(value string) rollout {
	switch value {
	case "on", "true", "1":
		return rollout{raw: value, percent: 100}
	case "off", "false", "0":
		return rollout{raw: value}
	}
	if pct, ok := strings.CutSuffix(value, "%"); ok {
		if n, err := strconv.Atoi(pct); err == nil {
			return rollout{raw: value, percent: min(max(n, 0), 100)}
		}
	}
	return rollout{raw: value}
}

// Status is one flag's configured value and its result for a user.
type Status struct {
	Name    string `json:"name"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

// Manager holds flags parsed from a comma-separated key=value list, for
// example "open_resource_submissions=25%,realtime_invalidation=off".
// Values are on/true/1, off/false/0 or N% for a deterministic per-user
// rollout. Unparseable values count as off.
type Manager struct {
	flags map[string]rollout
}

// NewManager parses raw on top of Defaults.
func NewManager(raw string) *Manager {
	flags := make(map[string]rollout, len(Defaults))
	for k, v := range Defaults {
		flags[k] = parseRollout(v)
	}

	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		key, value = normalize(key), normalize(value)
		if key == "" || value == "" {
			continue
		}
		flags[key] = parseRollout(value)
	}
	return &Manager{flags: flags}
}

// Enabled reports whether name is on for userID. Partial rollouts never
// include the anonymous user 0.
func (m *Manager) Enabled(name string, userID uint) bool {
	if m == nil {
		return false
	}
	name = normalize(name)
	r, ok := m.flags[name]
	switch {
	case !ok || r.percent == 0:
		return false
	case r.percent == 100:
		return true
	case userID == 0:
		return false
	}
	return rolloutBucket(name, userID) < r.percent
}

// Evaluate lists every flag, sorted by name, as seen by userID.
func (m *Manager) Evaluate(userID uint) []Status {
	if m == nil {
		return []Status{}
	}
	out := make([]Status, 0, len(m.flags))
	for name, r := range m.flags {
		out = append(out, Status{Name: name, Value: r.raw, Enabled: m.Enabled(name, userID)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func rolloutBucket(name string, userID uint) int {
	h := fnv.New32a()
	_, _ = fmt.Fprintf(h, "%s:%d", name, userID)
	return int(h.Sum32() % 100)
}
