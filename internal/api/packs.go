package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/arcanaland/boosterpack/internal/history"
	"github.com/arcanaland/boosterpack/internal/pack"
)

type catalogResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version,omitempty"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	TotalCards  int    `json:"total_cards"`
	Expansions  int    `json:"expansions"`
}

type packResponse struct {
	Pack     pack.Pack `json:"pack"`
	HasRare  bool      `json:"has_rare"`
	RevealMS int64     `json:"reveal_ms"`
}

type countsResponse struct {
	Expansion  string              `json:"expansion,omitempty"`
	TotalPacks int                 `json:"total_packs"`
	Cards      []history.CardCount `json:"cards"`
}

// handleGetCatalog returns the catalog summary
func (s *Server) handleGetCatalog(w http.ResponseWriter, r *http.Request) {
	c := s.cfg.Catalog
	respondJSON(w, http.StatusOK, catalogResponse{
		ID:          c.ID,
		Name:        c.Name,
		Version:     c.Version,
		Author:      c.Author,
		Description: c.Description,
		TotalCards:  len(c.Cards),
		Expansions:  len(s.pools),
	})
}

// handleGetExpansions returns all openable expansions
func (s *Server) handleGetExpansions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.cfg.Catalog.Openable())
}

// handleGetExpansion returns a single expansion by ID
func (s *Server) handleGetExpansion(w http.ResponseWriter, r *http.Request) {
	exp, err := s.cfg.Catalog.Find(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), "Expansion not found")
		return
	}
	respondJSON(w, http.StatusOK, exp)
}

// handleCreatePack opens a pack without a reveal and records it
func (s *Server) handleCreatePack(w http.ResponseWriter, r *http.Request) {
	exp, err := s.cfg.Catalog.Find(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, statusFor(err), "Expansion not found")
		return
	}

	p, err := s.cfg.Generator.Generate(s.pools[exp.ID])
	if err != nil {
		respondError(w, statusFor(err), err.Error())
		return
	}
	p.ID = uuid.NewString()
	p.Expansion = exp.ID

	s.record(r.Context(), p)

	respondJSON(w, http.StatusCreated, packResponse{
		Pack:     p,
		HasRare:  p.HasRare(),
		RevealMS: s.cfg.Timings.Total(p).Milliseconds(),
	})
}

// handleGetHistory returns the latest recorded packs
func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		respondError(w, statusFor(ErrNoHistory), ErrNoHistory.Error())
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	records, err := s.cfg.History.Recent(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	respondJSON(w, http.StatusOK, records)
}

// handleGetCounts returns how often each card was pulled
func (s *Server) handleGetCounts(w http.ResponseWriter, r *http.Request) {
	if s.cfg.History == nil {
		respondError(w, statusFor(ErrNoHistory), ErrNoHistory.Error())
		return
	}
	expansion := r.URL.Query().Get("expansion")
	if expansion != "" {
		exp, err := s.cfg.Catalog.Find(expansion)
		if err != nil {
			respondError(w, statusFor(err), "Expansion not found")
			return
		}
		expansion = exp.ID
	}

	total, err := s.cfg.History.TotalPacks(r.Context(), expansion)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	counts, err := s.cfg.History.Counts(r.Context(), expansion)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch history")
		return
	}
	if counts == nil {
		counts = []history.CardCount{}
	}
	respondJSON(w, http.StatusOK, countsResponse{
		Expansion:  expansion,
		TotalPacks: total,
		Cards:      counts,
	})
}

// record stores p when history is enabled. Failures are logged, not returned.
func (s *Server) record(ctx context.Context, p pack.Pack) {
	if s.cfg.History == nil {
		return
	}
	if _, err := s.cfg.History.RecordPack(ctx, p); err != nil {
		s.log.Error().Err(err).Str("pack", p.ID).Msg("failed to record pack")
	}
}
