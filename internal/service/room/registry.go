package room

import (
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// Registry creates rooms lazily, exactly once per id.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*Room
	notifier Notifier
	cfg      Config
	logger   *slog.Logger
}

func NewRegistry(notifier Notifier, cfg Config, logger *slog.Logger) *Registry {
	return &Registry{
		rooms:    make(map[string]*Room),
		notifier: notifier,
		cfg:      cfg.withDefaults(),
		logger:   logger,
	}
}

func (r *Registry) GetOrCreate(roomId string) *Room {
	r.mu.RLock()
	room, ok := r.rooms[roomId]
	r.mu.RUnlock()
	if ok {
		return room
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if room, ok = r.rooms[roomId]; ok {
		return room
	}
	room = NewRoom(roomId, r.notifier, r.cfg, r.logger)
	r.rooms[roomId] = room
	r.logger.Info("room created", "room_id", roomId)
	return room
}

func (r *Registry) Get(roomId string) (*Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomId]
	if !ok {
		return nil, fmt.Errorf("failed to get room %q: %w", roomId, ErrRoomNotFound)
	}
	return room, nil
}

type Info struct {
	Id             string `json:"id"`
	ConnectedCount int    `json:"connected_count"`
	Hosting        bool   `json:"hosting"`
}

func (r *Registry) List() []Info {
	r.mu.RLock()
	ids := maps.Keys(r.rooms)
	rooms := make([]*Room, 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		rooms = append(rooms, r.rooms[id])
	}
	r.mu.RUnlock()

	out := make([]Info, 0, len(rooms))
	for _, room := range rooms {
		state := room.State()
		out = append(out, Info{
			Id:             state.Id,
			ConnectedCount: state.ConnectedCount,
			Hosting:        state.Session != nil,
		})
	}
	return out
}

// Close stops the timers of every room.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, room := range r.rooms {
		room.Close()
		delete(r.rooms, id)
	}
}
