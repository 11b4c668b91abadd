package application

import "sync"

// RoomLocker serializes check-then-write sequences per room so that two
// concurrent submissions or approvals cannot both pass the conflict check
// against stale state. Booking and series services must share one instance.
type RoomLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewRoomLocker constructs an empty locker.
func NewRoomLocker() *RoomLocker {
	return &RoomLocker{locks: make(map[string]*sync.Mutex)}
}

// Lock acquires the mutex for the given room and returns its unlock
// function. A nil locker degrades to a no-op for tests that do not
// exercise concurrency.
func (l *RoomLocker) Lock(roomID string) func() {
	if l == nil {
		return func() {}
	}
	l.mu.Lock()
	lock, ok := l.locks[roomID]
	if !ok {
		lock = &sync.Mutex{}
		l.locks[roomID] = lock
	}
	l.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
