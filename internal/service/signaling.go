package service

import (
	"context"
	"fmt"
	"maps"
	"strconv"
	"sync"
	"time"

	"workbench/internal/domain"
)

// SignalingService is the in-memory WebRTC rendezvous store. Payloads are
// opaque strings; the browser encrypts them before posting. Rooms live
// until the process exits.
type SignalingService struct {
	emitter EventEmitter
	now     func() time.Time

	mu    sync.Mutex
	rooms map[string]*domain.Room
}

func NewSignalingService(emitter EventEmitter) *SignalingService {
	return &SignalingService{
		emitter: emitter,
		now:     time.Now,
		rooms:   make(map[string]*domain.Room),
	}
}

// Create opens a room whose id is the hex Unix time in nanoseconds.
func (s *SignalingService) Create(ctx context.Context) string {
	id := strconv.FormatInt(s.now().UnixNano(), 16)
	s.mu.Lock()
	s.rooms[id] = domain.NewRoom(id)
	s.mu.Unlock()
	s.emitter.Emit(ctx, "signal:room-created", id)
	return id
}

func (s *SignalingService) roomLocked(id string) (*domain.Room, error) {
	room, ok := s.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %q: %w", id, ErrRoomNotFound)
	}
	return room, nil
}

func (s *SignalingService) SetOffer(id, sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return err
	}
	room.HostOffer = &sdp
	return nil
}

// GetOffer fails with ErrOfferNotFound for an unknown room as well as a
// room without an offer yet.
func (s *SignalingService) GetOffer(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok && room.HostOffer != nil {
		return *room.HostOffer, nil
	}
	return "", fmt.Errorf("room %q: %w", id, ErrOfferNotFound)
}

func (s *SignalingService) SetAnswer(id, sdp string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return err
	}
	room.GuestAnswer = &sdp
	return nil
}

func (s *SignalingService) GetAnswer(id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if room, ok := s.rooms[id]; ok && room.GuestAnswer != nil {
		return *room.GuestAnswer, nil
	}
	return "", fmt.Errorf("room %q: %w", id, ErrAnswerNotFound)
}

// AddICE appends a candidate to the host list when role is host and to
// the guest list otherwise.
func (s *SignalingService) AddICE(id string, role domain.Role, candidate string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return err
	}
	if role == domain.RoleHost {
		room.HostICE = append(room.HostICE, candidate)
	} else {
		room.GuestICE = append(room.GuestICE, candidate)
	}
	return nil
}

// GetICE returns the candidates of the other side: a host polls for guest
// candidates and vice versa.
func (s *SignalingService) GetICE(id string, role domain.Role) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return nil, err
	}
	src := room.HostICE
	if role == domain.RoleHost {
		src = room.GuestICE
	}
	out := make([]string, len(src))
	copy(out, src)
	return out, nil
}

// SetPermission sets one tool's level and returns the full map.
func (s *SignalingService) SetPermission(id, tool, level string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return nil, err
	}
	room.Permissions[tool] = level
	return maps.Clone(room.Permissions), nil
}

func (s *SignalingService) Permissions(id string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, err := s.roomLocked(id)
	if err != nil {
		return nil, err
	}
	return maps.Clone(room.Permissions), nil
}
