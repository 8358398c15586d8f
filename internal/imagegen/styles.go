package imagegen

import "strings"

// StylePreset is one entry of the gallery shown next to the prompt box.
type StylePreset struct {
	ID     string `json:"id"`
	Label  string `json:"label"`
	Prompt string `json:"prompt,omitempty"`
	// Preview is a path under the public directory. When set together with a
	// public base URL it is sent to the vendor as a reference image.
	Preview string `json:"preview,omitempty"`
}

// StyleCatalog is an immutable, ordered preset list.
type StyleCatalog struct {
	presets []StylePreset
	index   map[string]int
}

// NewStyleCatalog indexes presets by id and label, case-insensitively.
func NewStyleCatalog(presets []StylePreset) *StyleCatalog {
	c := &StyleCatalog{
		presets: append([]StylePreset(nil), presets...),
		index:   make(map[string]int, len(presets)*2),
	}
	for i, p := range c.presets {
		if key := strings.ToLower(strings.TrimSpace(p.ID)); key != "" {
			c.index[key] = i
		}
		if key := strings.ToLower(strings.TrimSpace(p.Label)); key != "" {
			if _, taken := c.index[key]; !taken {
				c.index[key] = i
			}
		}
	}
	return c
}

// Lookup finds a preset by id or label. A nil catalog matches nothing.
func (c *StyleCatalog) Lookup(name string) (StylePreset, bool) {
	if c == nil {
		return StylePreset{}, false
	}
	i, ok := c.index[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return StylePreset{}, false
	}
	return c.presets[i], true
}

// Presets returns a copy of the list in display order.
func (c *StyleCatalog) Presets() []StylePreset {
	if c == nil {
		return nil
	}
	return append([]StylePreset(nil), c.presets...)
}

// DefaultStyles is the gallery bundled with the UI. Deployments that ship
// preview images build their own catalog with Preview set.
var DefaultStyles = []StylePreset{
	{ID: "photo", Label: "Photorealistic", Prompt: "natural light, 35mm photograph, sharp focus"},
	{ID: "anime", Label: "Anime", Prompt: "cel shading, clean line art, vibrant palette"},
	{ID: "noir", Label: "Noir", Prompt: "high-contrast black and white, hard shadows, film grain"},
	{ID: "watercolor", Label: "Watercolor", Prompt: "soft washes, paper texture, bleeding edges"},
	{ID: "oil", Label: "Oil painting", Prompt: "visible brush strokes, rich impasto, classical composition"},
	{ID: "pixel", Label: "Pixel art", Prompt: "16-bit sprite look, limited palette, crisp pixels"},
	{ID: "3d", Label: "3D render", Prompt: "octane render, soft global illumination, studio backdrop"},
	{ID: "cyberpunk", Label: "Cyberpunk", Prompt: "neon signage, rain-soaked streets, magenta and teal glow"},
	{ID: "sketch", Label: "Pencil sketch", Prompt: "graphite on paper, cross-hatching, loose construction lines"},
}
