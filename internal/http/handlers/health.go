package handlers

import (
	"net/http"
	"runtime"
)

func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]bool{"ok": true})
}

type debugResponse struct {
	OK             bool   `json:"ok"`
	RuntimeVersion string `json:"runtimeVersion"`
	Provider       string `json:"provider"`
	HasAPIKey      bool   `json:"hasApiKey"`
	// SupportedSizes is empty for providers that accept any aspect ratio.
	SupportedSizes []string `json:"supportedSizes,omitempty"`
}

// Debug reports which provider is active. Credentials are never echoed.
func (a *App) Debug(w http.ResponseWriter, r *http.Request) {
	resp := debugResponse{OK: true, RuntimeVersion: runtime.Version(), Provider: "none"}
	if a.Images != nil {
		resp.Provider = a.Images.Provider()
		resp.SupportedSizes = a.Images.SupportedSizes()
	}
	if a.Config != nil {
		resp.HasAPIKey = a.Config.HasProviderKey()
	}
	a.json(w, http.StatusOK, resp)
}

func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	styles := []any{}
	if a.Images != nil {
		for _, preset := range a.Images.Styles() {
			styles = append(styles, preset)
		}
	}
	a.json(w, http.StatusOK, map[string]any{"styles": styles})
}
