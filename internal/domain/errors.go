package domain

import "errors"

var (
	// ErrInvalidState rejects bad client input, e.g. an empty display name.
	ErrInvalidState = errors.New("invalid state")

	// ErrRoomFull and ErrRoomNotFound guard internal store invariants; a
	// well-behaved client never triggers them.
	ErrRoomFull     = errors.New("room is full")
	ErrRoomNotFound = errors.New("room not found")

	// ErrUnknownRoom and ErrNotInRoom cover relays against stale or spoofed
	// room ids; such messages are dropped, never delivered cross-room.
	ErrUnknownRoom = errors.New("unknown room")
	ErrNotInRoom   = errors.New("sender not in room")
)
