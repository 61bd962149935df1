package taxonomy

import (
	"maps"
	"slices"
	"strings"
)

// ModuleDisplay is the static presentation record for an implementation module.
type ModuleDisplay struct {
	Name   string `yaml:"name" json:"name"`
	Status Status `yaml:"status" json:"status"`
	Icon   string `yaml:"icon" json:"icon"`
}

// Taxonomy is the immutable set of classification tables shared by the indexer,
// sidebar and module metadata components.
type Taxonomy struct {
	rootOrder         map[string]int
	defaultRootWeight int
	bands             map[Category]int
	guideKeywords     []string
	terms             map[string]string
	modules           map[string]ModuleDisplay
	defaultIcon       string
	statusLabels      map[Status]string
}

// Default returns the built-in taxonomy.
func Default() Taxonomy {
	return Taxonomy{
		rootOrder: map[string]int{
			"README":               0,
			"SETUP_GUIDE":          10,
			"QUICK_START":          20,
			"DEVELOPMENT_WORKFLOW": 30,
			"CONTRIBUTING":         40,
			"CHANGELOG":            50,
			"LICENSE":              60,
		},
		defaultRootWeight: 100,
		bands: map[Category]int{
			CategoryMain:     0,
			CategoryAPI:      1000,
			CategoryExamples: 2000,
			CategoryModules:  3000,
			CategoryOthers:   9000,
		},
		guideKeywords: []string{"guide", "tutorial", "workflow", "getting-started", "quickstart"},
		terms: map[string]string{
			"api":  "API",
			"faq":  "FAQ",
			"hal":  "HAL",
			"mcu":  "MCU",
			"rtos": "RTOS",
			"cli":  "CLI",
			"io":   "I/O",
		},
		modules: map[string]ModuleDisplay{
			"scheduler":       {Name: "Task Scheduler", Status: StatusStable, Icon: "⚙️"},
			"memory":          {Name: "Memory Management", Status: StatusStable, Icon: "💾"},
			"data_structures": {Name: "Data Structures", Status: StatusStable, Icon: "📊"},
			"utils":           {Name: "Utilities", Status: StatusBeta, Icon: "🔧"},
			"hal":             {Name: "Hardware Abstraction Layer", Status: StatusExperimental, Icon: "🔌"},
			"network":         {Name: "Network Stack", Status: StatusExperimental, Icon: "🌐"},
			"filesystem":      {Name: "File System", Status: StatusBeta, Icon: "📁"},
			"crypto":          {Name: "Cryptography", Status: StatusBeta, Icon: "🔐"},
		},
		defaultIcon: "📦",
		statusLabels: map[Status]string{
			StatusStable:       "Stable",
			StatusBeta:         "Beta",
			StatusExperimental: "Experimental",
			StatusDeprecated:   "Deprecated",
		},
	}
}

// Overrides replaces or extends parts of a taxonomy. Nil or empty fields leave the base untouched.
type Overrides struct {
	Modules map[string]ModuleDisplay `yaml:"modules,omitempty"`
	// ReplaceModules discards the base module table instead of extending it.
	ReplaceModules bool              `yaml:"replace_modules,omitempty"`
	Terms          map[string]string `yaml:"terms,omitempty"`
	GuideKeywords  []string          `yaml:"guide_keywords,omitempty"`
	RootOrder      map[string]int    `yaml:"root_order,omitempty"`
	StatusLabels   map[string]string `yaml:"status_labels,omitempty"`
	DefaultIcon    string            `yaml:"default_icon,omitempty"`
}

// With returns a copy of t with the overrides applied. t itself is not modified.
func (t Taxonomy) With(o Overrides) Taxonomy {
	out := t.clone()
	if o.ReplaceModules {
		out.modules = make(map[string]ModuleDisplay, len(o.Modules))
	}
	for k, v := range o.Modules {
		v.Status = ParseStatus(string(v.Status))
		out.modules[k] = v
	}
	for k, v := range o.Terms {
		out.terms[strings.ToLower(k)] = v
	}
	if len(o.GuideKeywords) > 0 {
		out.guideKeywords = slices.Clone(o.GuideKeywords)
	}
	for k, v := range o.RootOrder {
		out.rootOrder[strings.ToUpper(k)] = v
	}
	for k, v := range o.StatusLabels {
		out.statusLabels[ParseStatus(k)] = v
	}
	if o.DefaultIcon != "" {
		out.defaultIcon = o.DefaultIcon
	}
	return out
}

func (t Taxonomy) clone() Taxonomy {
	return Taxonomy{
		rootOrder:         maps.Clone(t.rootOrder),
		defaultRootWeight: t.defaultRootWeight,
		bands:             maps.Clone(t.bands),
		guideKeywords:     slices.Clone(t.guideKeywords),
		terms:             maps.Clone(t.terms),
		modules:           maps.Clone(t.modules),
		defaultIcon:       t.defaultIcon,
		statusLabels:      maps.Clone(t.statusLabels),
	}
}

// RootWeight returns the fixed priority of a root-level document by its upper-cased stem
// (README, SETUP_GUIDE, ...) and whether the name was in the table.
func (t Taxonomy) RootWeight(stem string) (int, bool) {
	w, ok := t.rootOrder[strings.ToUpper(stem)]
	if !ok {
		return t.defaultRootWeight, false
	}
	return w, true
}

// Band returns the order offset for a category.
func (t Taxonomy) Band(c Category) int {
	if b, ok := t.bands[c]; ok {
		return b
	}
	return t.bands[CategoryOthers]
}

// GuideKeywords returns the substrings that mark a document as a guide.
func (t Taxonomy) GuideKeywords() []string { return slices.Clone(t.guideKeywords) }

// IsGuide reports whether the lower-cased path contains any guide keyword.
func (t Taxonomy) IsGuide(p string) bool {
	lower := strings.ToLower(p)
	for _, kw := range t.guideKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// Term returns the substitution for a lower-cased word, if any.
func (t Taxonomy) Term(word string) (string, bool) {
	v, ok := t.terms[strings.ToLower(word)]
	return v, ok
}

// Module returns the display record for a module key. The second result is false when the
// key has no record; the returned value is then the generic experimental default.
func (t Taxonomy) Module(key string) (ModuleDisplay, bool) {
	if m, ok := t.modules[key]; ok {
		if m.Name == "" {
			m.Name = key
		}
		if m.Icon == "" {
			m.Icon = t.defaultIcon
		}
		return m, true
	}
	return ModuleDisplay{Name: key, Status: StatusExperimental, Icon: t.defaultIcon}, false
}

// ModuleKeys returns the keys with a display record, sorted.
func (t Taxonomy) ModuleKeys() []string {
	return slices.Sorted(maps.Keys(t.modules))
}

// StatusLabel returns the human label for a status badge; unknown statuses have none.
func (t Taxonomy) StatusLabel(s Status) string {
	return t.statusLabels[s]
}
