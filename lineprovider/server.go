package lineprovider

import (
	"net/http"

	"betline/contracts"
	"betline/httpapi"
	"betline/metrics"
	"betline/models"
	"betline/service"
)

// Server exposes the line provider HTTP API
type Server struct {
	events service.EventService
}

// NewServer creates a new line provider HTTP server
func NewServer(events service.EventService) *Server {
	return &Server{events: events}
}

// Router builds the route table under /api/v1
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/events", s.createEvent)
	mux.HandleFunc("GET /api/v1/events", s.listEvents)
	mux.HandleFunc("GET /api/v1/events/active", s.listActiveEvents)
	mux.HandleFunc("GET /api/v1/events/{event_id}", s.getEvent)
	mux.HandleFunc("PUT /api/v1/events/{event_id}", s.updateEvent)
	mux.HandleFunc("POST /api/v1/events/{event_id}/status", s.transitionEvent)

	return httpapi.RequestID(httpapi.Logging(mux))
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var req contracts.EventRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	created, err := s.events.CreateEvent(r.Context(), req.ToEvent())
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	metrics.EventsCreated.Inc()
	httpapi.WriteJSON(w, http.StatusCreated, contracts.NewEventResponse(created))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httpapi.Pagination(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	eventList, err := s.events.ListEvents(r.Context(), limit, offset)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponses(eventList))
}

func (s *Server) listActiveEvents(w http.ResponseWriter, r *http.Request) {
	limit, offset, err := httpapi.Pagination(r)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	eventList, err := s.events.ListActiveEvents(r.Context(), limit, offset)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponses(eventList))
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpapi.PathID(r, "event_id")
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	event, err := s.events.GetEvent(r.Context(), eventID)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponse(event))
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpapi.PathID(r, "event_id")
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	var req contracts.EventRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}
	if req.EventID != 0 && req.EventID != eventID {
		httpapi.WriteError(w, &models.IDMismatchError{PathID: eventID, BodyID: req.EventID})
		return
	}

	event := req.ToEvent()
	event.ID = eventID

	updated, err := s.events.UpdateEvent(r.Context(), event)
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponse(updated))
}

func (s *Server) transitionEvent(w http.ResponseWriter, r *http.Request) {
	eventID, err := httpapi.PathID(r, "event_id")
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	var req contracts.StatusRequest
	if err := httpapi.DecodeJSON(r, &req); err != nil {
		httpapi.WriteError(w, err)
		return
	}

	updated, err := s.events.Transition(r.Context(), eventID, models.EventStatus(req.Status))
	if err != nil {
		httpapi.WriteError(w, err)
		return
	}

	httpapi.WriteJSON(w, http.StatusOK, contracts.NewEventResponse(updated))
}
