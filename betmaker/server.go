package betmaker

import (
	"net/http"

	log "github.com/sirupsen/logrus"

	"betline/contracts"
	"betline/httpapi"
	"betline/models"
	"betline/service"
)

// Server exposes the bet maker HTTP API
type Server struct {
	bets   service.BetService
	client service.LineProviderClient
	cache  *EventCache
}

// NewServer creates a new bet maker HTTP server. The cache may be nil; the
// events listing then goes to the line provider on every request.
func NewServer(bets service.BetService, client service.LineProviderClient, cache *EventCache) *Server {
	return &Server{bets: bets, client: client, cache: cache}
}

// Router builds the route table under /api/v1
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/bets", s.createBet)
	mux.HandleFunc("GET /api/v1/bets", s.listBets)
	mux.HandleFunc("GET /api/v1/bets/{bet_id}", s.getBet)
	mux.HandleFunc("GET /api/v1/events", s.listActiveEvents)

	return httpapi.RequestID(httpapi.Logging(mux))
}

func (s *Server) createBet(w http.ResponseWriter, r *http.Request) {
	var req contracts.BetRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	bet, err := s.bets.PlaceBet(r.Context(), req.EventID, req.Amount)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusCreated, contracts.NewBetResponse(bet))
}

func (s *Server) listBets(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httpapi.Pagination(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}
	status, err := httpapi.QueryBetStatus(r, "status")
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	bets, err := s.bets.ListBets(r.Context(), limit, offset, status)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewBetResponses(bets))
}

func (s *Server) getBet(w http.ResponseWriter, r *http.Request) {
	betID, err := httpapi.PathID(r, "bet_id")
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	bet, err := s.bets.GetBet(r.Context(), betID)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewBetResponse(bet))
}

// listActiveEvents proxies the line provider's active listing, answering
// from the cache when a fresh copy is available.
func (s *Server) listActiveEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httpapi.Pagination(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	events, err := s.activeEvents(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponses(paginate(events, limit, offset)))
}

func (s *Server) activeEvents(r *http.Request) ([]*models.Event, error) {
	if s.cache != nil {
		events, hit, err := s.cache.GetActiveEvents(r.Context())
		if err != nil {
			log.WithField("error", err).Warn("Event cache read failed")
		} else if hit {
			return events, nil
		}
	}

	events, err := s.client.ListActiveEvents(r.Context())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetActiveEvents(r.Context(), events); err != nil {
			log.WithField("error", err).Warn("Event cache write failed")
		}
	}
	return events, nil
}

func paginate(events []*models.Event, limit, offset int) []*models.Event {
	if offset >= len(events) {
		return []*models.Event{}
	}
	end := offset + limit
	if end > len(events) {
		end = len(events)
	}
	return events[offset:end]
}
