package domain

import (
	"errors"
	"sort"
	"time"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrMembersLimitReached = errors.New("members limit reached")
)

type Status int

const (
	StatusDisconnected Status = iota
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

type Member struct {
	Id             string     `json:"id"`
	Username       string     `json:"username"`
	Color          string     `json:"color"`
	AvatarUrl      *string    `json:"avatar_url"`
	Status         Status     `json:"status"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
}

func (m Member) IsConnected() bool {
	return m.Status == StatusConnected
}

func (m *Member) SetStatus(status Status, now time.Time) {
	m.Status = status
	if status == StatusDisconnected {
		m.DisconnectedAt = &now
	} else {
		m.DisconnectedAt = nil
	}
}

// Members is the per-room member registry. Records survive disconnects so a
// returning participant keeps its identity and display info.
type Members struct {
	byId  map[string]*Member
	limit int
}

func NewMembers(limit int) *Members {
	return &Members{
		byId:  make(map[string]*Member),
		limit: limit,
	}
}

func (m Members) Length() int {
	return len(m.byId)
}

func (m Members) ConnectedCount() int {
	count := 0
	for _, member := range m.byId {
		if member.IsConnected() {
			count++
		}
	}

	return count
}

func (m Members) GetById(id string) (Member, error) {
	member, ok := m.byId[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}

	return *member, nil
}

func (m Members) IsConnected(id string) bool {
	member, ok := m.byId[id]
	return ok && member.IsConnected()
}

// Upsert adds a connected member or refreshes an existing record. The limit
// counts connected members only.
func (m *Members) Upsert(member Member, now time.Time) (Member, error) {
	existing, ok := m.byId[member.Id]
	if !ok || !existing.IsConnected() {
		if m.limit > 0 && m.ConnectedCount() >= m.limit {
			return Member{}, ErrMembersLimitReached
		}
	}

	if !ok {
		member.JoinedAt = now
		existing = &member
		m.byId[member.Id] = existing
	} else {
		existing.Username = member.Username
		existing.Color = member.Color
		existing.AvatarUrl = member.AvatarUrl
	}
	existing.SetStatus(StatusConnected, now)

	return *existing, nil
}

func (m *Members) SetStatus(id string, status Status, now time.Time) (Member, error) {
	member, ok := m.byId[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}

	member.SetStatus(status, now)
	return *member, nil
}

func (m *Members) Update(id string, fn func(*Member)) (Member, error) {
	member, ok := m.byId[id]
	if !ok {
		return Member{}, ErrMemberNotFound
	}

	fn(member)
	return *member, nil
}

// AsList returns members ordered by join time.
func (m Members) AsList() []Member {
	list := make([]Member, 0, len(m.byId))
	for _, member := range m.byId {
		list = append(list, *member)
	}

	sort.Slice(list, func(i, j int) bool {
		if list[i].JoinedAt.Equal(list[j].JoinedAt) {
			return list[i].Id < list[j].Id
		}
		return list[i].JoinedAt.Before(list[j].JoinedAt)
	})

	return list
}
