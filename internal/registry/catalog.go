package registry

import "lmapi/pkg/types"

// Catalog is the immutable set of models found under an artifact root.
type Catalog struct {
	models []types.ModelInfo
}

// NewCatalog builds a catalog from already-loaded metadata.
func NewCatalog(models ...types.ModelInfo) *Catalog {
	return &Catalog{models: append([]types.ModelInfo(nil), models...)}
}

// Models returns a copy of the entries in discovery order.
func (c *Catalog) Models() []types.ModelInfo {
	out := make([]types.ModelInfo, len(c.models))
	copy(out, c.models)
	return out
}

// Names lists model names in discovery order.
func (c *Catalog) Names() []string {
	out := make([]string, 0, len(c.models))
	for _, m := range c.models {
		out = append(out, m.Name)
	}
	return out
}

// Lookup finds a model by name.
func (c *Catalog) Lookup(name string) (types.ModelInfo, bool) {
	for _, m := range c.models {
		if m.Name == name {
			return m, true
		}
	}
	return types.ModelInfo{}, false
}

// Select returns the largest model that fits maxRAM gigabytes and whose
// license is allowed. When nothing qualifies the first entry is returned.
func (c *Catalog) Select(maxRAM float64, allow func(license string) bool) types.ModelInfo {
	if len(c.models) == 0 {
		return types.ModelInfo{}
	}
	best := -1
	for i, m := range c.models {
		if m.SizeGB > maxRAM || (allow != nil && !allow(m.License)) {
			continue
		}
		if best < 0 || m.SizeGB > c.models[best].SizeGB {
			best = i
		}
	}
	if best < 0 {
		return c.models[0]
	}
	return c.models[best]
}
