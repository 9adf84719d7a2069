package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMembersUpsertAndStatus(t *testing.T) {
	m := NewMembers(2)
	now := time.Now()

	member, err := m.Upsert(Member{Id: "a", Username: "Brave Lion"}, now)
	require.NoError(t, err)
	assert.True(t, member.IsConnected())
	assert.Nil(t, member.DisconnectedAt)
	assert.Equal(t, now, member.JoinedAt)

	later := now.Add(time.Minute)
	member, err = m.SetStatus("a", StatusDisconnected, later)
	require.NoError(t, err)
	assert.Equal(t, StatusDisconnected, member.Status)
	require.NotNil(t, member.DisconnectedAt)
	assert.Equal(t, later, *member.DisconnectedAt)

	// returning member keeps its record
	member, err = m.Upsert(Member{Id: "a", Username: "Quiet Otter"}, later.Add(time.Minute))
	require.NoError(t, err)
	assert.True(t, member.IsConnected())
	assert.Nil(t, member.DisconnectedAt)
	assert.Equal(t, now, member.JoinedAt)
	assert.Equal(t, "Quiet Otter", member.Username)
	assert.Equal(t, 1, m.Length())
}

func TestMembersLimitCountsConnectedOnly(t *testing.T) {
	m := NewMembers(1)
	now := time.Now()

	_, err := m.Upsert(Member{Id: "a"}, now)
	require.NoError(t, err)

	_, err = m.Upsert(Member{Id: "b"}, now)
	assert.ErrorIs(t, err, ErrMembersLimitReached)

	_, err = m.SetStatus("a", StatusDisconnected, now)
	require.NoError(t, err)

	_, err = m.Upsert(Member{Id: "b"}, now)
	assert.NoError(t, err)
	assert.Equal(t, 1, m.ConnectedCount())
	assert.True(t, m.IsConnected("b"))
}

func TestMembersUnknown(t *testing.T) {
	m := NewMembers(0)

	_, err := m.GetById("x")
	assert.ErrorIs(t, err, ErrMemberNotFound)

	_, err = m.SetStatus("x", StatusConnected, time.Now())
	assert.ErrorIs(t, err, ErrMemberNotFound)
	assert.False(t, m.IsConnected("x"))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "connected", StatusConnected.String())
	assert.Equal(t, "disconnected", StatusDisconnected.String())
	assert.Equal(t, "unknown", Status(7).String())
}
