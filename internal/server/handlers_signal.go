package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"workbench/internal/domain"
	"workbench/internal/service"
)

type signalPayload struct {
	RoomID string      `json:"room_id" validate:"required"`
	Data   string      `json:"data"`
	Role   domain.Role `json:"role"`
}

type permissionPayload struct {
	RoomID string `json:"room_id" validate:"required"`
	Tool   string `json:"tool" validate:"required"`
	Level  string `json:"level" validate:"required,oneof=rw r none"`
}

type roomResponse struct {
	RoomID string `json:"room_id"`
	Status string `json:"status"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	id := s.Signaling.Create(r.Context())
	respondJSON(w, http.StatusOK, roomResponse{RoomID: id, Status: "created"})
}

func (s *Server) handlePostOffer(w http.ResponseWriter, r *http.Request) {
	var p signalPayload
	if !decodeAndValidate(w, r, &p) {
		return
	}
	if err := s.Signaling.SetOffer(p.RoomID, p.Data); err != nil {
		respondSignalError(w, err)
		return
	}
	respondText(w, http.StatusOK, "Offer received")
}

func (s *Server) handleGetOffer(w http.ResponseWriter, r *http.Request) {
	offer, err := s.Signaling.GetOffer(chi.URLParam(r, "id"))
	if err != nil {
		respondSignalError(w, err)
		return
	}
	respondText(w, http.StatusOK, offer)
}

func (s *Server) handlePostAnswer(w http.ResponseWriter, r *http.Request) {
	var p signalPayload
	if !decodeAndValidate(w, r, &p) {
		return
	}
	if err := s.Signaling.SetAnswer(p.RoomID, p.Data); err != nil {
		respondSignalError(w, err)
		return
	}
	respondText(w, http.StatusOK, "Answer received")
}

func (s *Server) handleGetAnswer(w http.ResponseWriter, r *http.Request) {
	answer, err := s.Signaling.GetAnswer(chi.URLParam(r, "id"))
	if err != nil {
		respondSignalError(w, err)
		return
	}
	respondText(w, http.StatusOK, answer)
}

func (s *Server) handlePostICE(w http.ResponseWriter, r *http.Request) {
	var p signalPayload
	if !decodeAndValidate(w, r, &p) {
		return
	}
	if err := s.Signaling.AddICE(p.RoomID, p.Role, p.Data); err != nil {
		respondSignalError(w, err)
		return
	}
	respondText(w, http.StatusOK, "ICE candidate received")
}

func (s *Server) handleGetICE(w http.ResponseWriter, r *http.Request) {
	role := domain.Role(chi.URLParam(r, "role"))
	candidates, err := s.Signaling.GetICE(chi.URLParam(r, "id"), role)
	if err != nil {
		respondSignalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, candidates)
}

func (s *Server) handleSetPermission(w http.ResponseWriter, r *http.Request) {
	var p permissionPayload
	if !decodeAndValidate(w, r, &p) {
		return
	}
	perms, err := s.Signaling.SetPermission(p.RoomID, p.Tool, p.Level)
	if err != nil {
		respondSignalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, perms)
}

func (s *Server) handleGetPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := s.Signaling.Permissions(chi.URLParam(r, "id"))
	if err != nil {
		respondSignalError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, perms)
}

func respondSignalError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrOfferNotFound):
		respondText(w, http.StatusNotFound, "Offer not found")
	case errors.Is(err, service.ErrAnswerNotFound):
		respondText(w, http.StatusNotFound, "Answer not found")
	case errors.Is(err, service.ErrRoomNotFound):
		respondText(w, http.StatusNotFound, "Room not found")
	default:
		respondText(w, http.StatusInternalServerError, err.Error())
	}
}
