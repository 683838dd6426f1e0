package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSelectRoomRequiresParticipation(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice", "bob")
	h := NewHub(dir)

	carol := addSession(t, h, "carol")
	flush(t, carol)

	h.SelectRoom(ctx, carol, "chat-x")

	req.Empty(carol.Room())
	req.Equal(StateIdle, carol.State())
	req.Equal(1, countType(drainEvents(t, carol), TypeError))
}

func TestSelectRoomRejectedAfterRemoval(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice", "bob")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	h.SelectRoom(ctx, alice, "chat-x")
	req.Equal("chat-x", alice.Room())

	// Membership is re-checked fresh on every selection, so a removed
	// participant cannot re-enter even though they were in moments ago.
	h.ClearRoom(alice)
	dir.removeParticipant("chat-x", "alice")
	flush(t, alice)

	h.SelectRoom(ctx, alice, "chat-x")

	req.Empty(alice.Room())
	req.Equal(1, countType(drainEvents(t, alice), TypeError))
}

func TestSelectRoomUnknownChat(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addUser("alice")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	flush(t, alice)

	h.SelectRoom(ctx, alice, "chat-gone")

	req.Empty(alice.Room())
	req.Equal(1, countType(drainEvents(t, alice), TypeError))
}

func TestSelectRoomKeepsPriorRoomOnForbidden(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice")
	dir.addChat("chat-y", "bob")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	h.SelectRoom(ctx, alice, "chat-x")
	req.Equal("chat-x", alice.Room())

	h.SelectRoom(ctx, alice, "chat-y")

	req.Equal("chat-x", alice.Room())
	req.Len(h.Registry().SessionsInRoom("chat-x"), 1)
	req.Empty(h.Registry().SessionsInRoom("chat-y"))
}

func TestSelectRoomSwitchLeavesOldRoomFirst(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice")
	dir.addChat("chat-y", "alice")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	h.SelectRoom(ctx, alice, "chat-x")
	h.SelectRoom(ctx, alice, "chat-y")

	req.Equal("chat-y", alice.Room())
	req.Empty(h.Registry().SessionsInRoom("chat-x"))
	req.Len(h.Registry().SessionsInRoom("chat-y"), 1)
}

func TestSelectRoomTwiceSameObservableState(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")

	h.SelectRoom(ctx, alice, "chat-x")
	h.SelectRoom(ctx, alice, "chat-x")

	req.Equal("chat-x", alice.Room())
	req.Equal(StateRoomSelected, alice.State())
	req.Len(h.Registry().SessionsInRoom("chat-x"), 1)
}

func TestClearRoomTwiceSameObservableState(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	h.SelectRoom(ctx, alice, "chat-x")
	flush(t, alice)

	h.ClearRoom(alice)
	h.ClearRoom(alice)

	req.Empty(alice.Room())
	req.Equal(StateIdle, alice.State())
	req.Empty(h.Registry().SessionsInRoom("chat-x"))

	// Each clear is confirmed, but the end state is that of a single call.
	req.Equal(2, countType(drainEvents(t, alice), TypeRoomCleared))
}

func TestSelectRoomStoreFailureLeavesStateUntouched(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()

	dir := newFakeDirectory()
	dir.addChat("chat-x", "alice")
	h := NewHub(dir)

	alice := addSession(t, h, "alice")
	h.SelectRoom(ctx, alice, "chat-x")
	flush(t, alice)

	dir.mu.Lock()
	dir.fail = true
	dir.mu.Unlock()

	h.SelectRoom(ctx, alice, "chat-y")

	req.Equal("chat-x", alice.Room())
	req.Equal(1, countType(drainEvents(t, alice), TypeError))
}
