package handlers

import (
	"log/slog"
	"net/http"

	"github.com/jwebster45206/babble-engine/pkg/campaign"
)

type CampaignResponse struct {
	Layers [][]campaign.Node `json:"layers"`
}

// CampaignHandler serves the laid out campaign graph.
type CampaignHandler struct {
	nodes  campaign.NodeMapping
	logger *slog.Logger
}

func NewCampaignHandler(nodes campaign.NodeMapping, logger *slog.Logger) *CampaignHandler {
	return &CampaignHandler{nodes: nodes, logger: logger}
}

func (h *CampaignHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, h.logger, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: GET")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, CampaignResponse{Layers: h.nodes.Layers()})
}
