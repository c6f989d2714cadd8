package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/jwebster45206/babble-engine/pkg/dialogue"
	"github.com/jwebster45206/babble-engine/pkg/encounter"
	"github.com/jwebster45206/babble-engine/pkg/game"
	"github.com/jwebster45206/babble-engine/pkg/userdata"
)

var errNoEncounter = errors.New("no encounter in progress")

type StartEncounterRequest struct {
	// Scene is optional; the next scene of the campaign is used when empty.
	Scene string `json:"scene,omitempty"`
}

type TickRequest struct {
	Ms int64 `json:"ms"`
}

type PlayCardRequest struct {
	UUID uuid.UUID `json:"uuid"`
}

type DrawRequest struct {
	Count int `json:"count"`
}

type CompleteEncounterResponse struct {
	Completed userdata.EncounterSession `json:"completed"`
	Player    PlayerView                `json:"player"`
}

// PlayerHandler serves a player's game and lets a client drive the active
// encounter. The client owns the clock: prompt and tick times are sent with
// each request.
type PlayerHandler struct {
	registry *Registry
	logger   *slog.Logger
}

func NewPlayerHandler(registry *Registry, logger *slog.Logger) *PlayerHandler {
	return &PlayerHandler{registry: registry, logger: logger}
}

// Register adds the player routes to mux.
func (h *PlayerHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/players/{id}", h.withPlayer(h.handleRead))
	mux.HandleFunc("DELETE /v1/players/{id}", h.handleDelete)
	mux.HandleFunc("POST /v1/players/{id}/save", h.withPlayer(h.handleSave))

	mux.HandleFunc("POST /v1/players/{id}/encounter", h.withPlayer(h.handleStart))
	mux.HandleFunc("GET /v1/players/{id}/encounter", h.withPlayer(h.handleEncounter))
	mux.HandleFunc("GET /v1/players/{id}/encounter/log", h.withPlayer(h.handleLog))
	mux.HandleFunc("POST /v1/players/{id}/encounter/prompt", h.withPlayer(h.handlePrompt))
	mux.HandleFunc("POST /v1/players/{id}/encounter/tick", h.withPlayer(h.handleTick))
	mux.HandleFunc("POST /v1/players/{id}/encounter/play", h.withPlayer(h.handlePlay))
	mux.HandleFunc("POST /v1/players/{id}/encounter/draw", h.withPlayer(h.handleDraw))
	mux.HandleFunc("POST /v1/players/{id}/encounter/resolve", h.withPlayer(h.handleResolve))
	mux.HandleFunc("POST /v1/players/{id}/encounter/transition", h.withPlayer(h.handleTransition))
	mux.HandleFunc("POST /v1/players/{id}/encounter/complete", h.withPlayer(h.handleComplete))
}

type playerHandlerFunc func(w http.ResponseWriter, r *http.Request, p *PlayerSession)

func (h *PlayerHandler) parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	idStr := r.PathValue("id")
	id, err := uuid.Parse(idStr)
	if err != nil {
		h.logger.Warn("Invalid player ID", "id", idStr, "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid player ID format")
		return uuid.Nil, false
	}
	return id, true
}

// withPlayer loads the player named in the path and holds their lock for the
// rest of the request.
func (h *PlayerHandler) withPlayer(next playerHandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.parseID(w, r)
		if !ok {
			return
		}
		p, err := h.registry.Get(r.Context(), id)
		if err != nil {
			h.logger.Error("Failed to load player", "player_id", id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to load player")
			return
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		next(w, r, p)
	}
}

func (h *PlayerHandler) playerView(p *PlayerSession) PlayerView {
	view := PlayerView{
		PlayerID:  p.id,
		Completed: p.session.Manager().CompletedSceneNames(),
		Available: p.session.AvailableEncounters(),
		Next:      p.session.NextSceneName(),
	}
	if enc, err := h.active(p); err == nil {
		ev := newEncounterView(enc)
		view.Encounter = &ev
	}
	return view
}

// active returns the encounter in progress, rebuilding it from the saved
// game when the player was just loaded.
func (h *PlayerHandler) active(p *PlayerSession) (*encounter.Encounter, error) {
	if p.encounter != nil {
		return p.encounter, nil
	}
	if _, ok := p.session.Manager().PeekEncounter(); !ok {
		return nil, errNoEncounter
	}
	enc, err := p.session.Encounter()
	if err != nil {
		return nil, err
	}
	p.encounter = enc
	return enc, nil
}

// withEncounter runs fn against the active encounter, replying 404 when
// there is none.
func (h *PlayerHandler) withEncounter(w http.ResponseWriter, p *PlayerSession, fn func(enc *encounter.Encounter)) {
	enc, err := h.active(p)
	if errors.Is(err, errNoEncounter) {
		writeError(w, h.logger, http.StatusNotFound, "No encounter in progress")
		return
	}
	if err != nil {
		h.logger.Error("Failed to resume encounter", "player_id", p.id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to resume encounter")
		return
	}
	fn(enc)
}

func (h *PlayerHandler) handleRead(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	writeJSON(w, h.logger, http.StatusOK, h.playerView(p))
}

func (h *PlayerHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.parseID(w, r)
	if !ok {
		return
	}
	if err := h.registry.Forget(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete player", "player_id", id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to delete player")
		return
	}
	h.logger.Info("Player deleted", "player_id", id)
	w.WriteHeader(http.StatusNoContent)
}

func (h *PlayerHandler) handleSave(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	if err := h.registry.Save(r.Context(), p); err != nil {
		h.logger.Error("Failed to save player", "player_id", p.id, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to save player")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, h.playerView(p))
}

func (h *PlayerHandler) handleStart(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	var req StartEncounterRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	scene := req.Scene
	if scene == "" {
		scene = p.session.NextSceneName()
	}
	if scene == "" {
		writeError(w, h.logger, http.StatusConflict, game.ErrCampaignComplete.Error())
		return
	}

	enc, err := p.session.StartEncounter(scene)
	if errors.Is(err, game.ErrUnknownScene) {
		writeError(w, h.logger, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		h.logger.Error("Failed to start encounter", "player_id", p.id, "scene", scene, "error", err)
		writeError(w, h.logger, http.StatusInternalServerError, "Failed to start encounter")
		return
	}
	p.encounter = enc
	writeJSON(w, h.logger, http.StatusCreated, newEncounterView(enc))
}

func (h *PlayerHandler) handleEncounter(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		writeJSON(w, h.logger, http.StatusOK, newEncounterView(enc))
	})
}

func (h *PlayerHandler) handleLog(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		writeJSON(w, h.logger, http.StatusOK, newLogView(enc.Log()))
	})
}

func (h *PlayerHandler) handlePrompt(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	var req dialogue.PromptNode
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		before := enc.State()
		if err := enc.Prompt(req); err != nil {
			writeError(w, h.logger, http.StatusBadRequest, err.Error())
			return
		}
		applied := before == encounter.StateWaiting && enc.State() == encounter.StatePrompting
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: applied, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handleTick(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	var req TickRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		_, applied := enc.CurrentNode()
		enc.Tick(req.Ms)
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: applied, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handlePlay(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	var req PlayCardRequest
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		applied := enc.PlayCard(req.UUID)
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: applied, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handleDraw(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	req := DrawRequest{Count: 1}
	if err := decodeBody(r, &req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		writeError(w, h.logger, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}

	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		drawn := enc.Draw(req.Count)
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: drawn > 0, Drawn: drawn, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handleResolve(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		applied := enc.State() != encounter.StateComplete
		enc.Resolve()
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: applied, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handleTransition(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		applied := enc.Transition()
		writeJSON(w, h.logger, http.StatusOK, ActionResponse{Applied: applied, Encounter: newEncounterView(enc)})
	})
}

func (h *PlayerHandler) handleComplete(w http.ResponseWriter, r *http.Request, p *PlayerSession) {
	h.withEncounter(w, p, func(enc *encounter.Encounter) {
		completed, err := p.session.CompleteEncounter(enc)
		if err != nil {
			h.logger.Error("Failed to complete encounter", "player_id", p.id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to complete encounter")
			return
		}
		p.encounter = nil

		if err := h.registry.Save(r.Context(), p); err != nil {
			h.logger.Error("Failed to save player", "player_id", p.id, "error", err)
			writeError(w, h.logger, http.StatusInternalServerError, "Failed to save player")
			return
		}
		writeJSON(w, h.logger, http.StatusOK, CompleteEncounterResponse{Completed: completed, Player: h.playerView(p)})
	})
}
