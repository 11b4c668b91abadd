package application

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"
)

type roomRepoStub struct {
	store     map[string]Room
	createErr error
	getErr    error
	updateErr error
	deleteErr error
	listErr   error
}

func newRoomRepoStub(rooms ...Room) *roomRepoStub {
	stub := &roomRepoStub{store: make(map[string]Room)}
	for _, room := range rooms {
		stub.store[room.ID] = room
	}
	return stub
}

func (s *roomRepoStub) CreateRoom(ctx context.Context, room Room) (Room, error) {
	if s.createErr != nil {
		return Room{}, s.createErr
	}
	s.store[room.ID] = room
	return room, nil
}

func (s *roomRepoStub) GetRoom(ctx context.Context, id string) (Room, error) {
	if s.getErr != nil {
		return Room{}, s.getErr
	}
	room, ok := s.store[id]
	if !ok {
		return Room{}, ErrNotFound
	}
	return room, nil
}

func (s *roomRepoStub) UpdateRoom(ctx context.Context, room Room) (Room, error) {
	if s.updateErr != nil {
		return Room{}, s.updateErr
	}
	if _, ok := s.store[room.ID]; !ok {
		return Room{}, ErrNotFound
	}
	s.store[room.ID] = room
	return room, nil
}

func (s *roomRepoStub) DeleteRoom(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.store[id]; !ok {
		return ErrNotFound
	}
	delete(s.store, id)
	return nil
}

func (s *roomRepoStub) ListRooms(ctx context.Context) ([]Room, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make([]Room, 0, len(s.store))
	for _, room := range s.store {
		out = append(out, room)
	}
	return out, nil
}

type referenceCounterStub struct {
	count int
	err   error
}

func (r *referenceCounterStub) CountBookingsForRoom(ctx context.Context, roomID string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.count, nil
}

func (r *referenceCounterStub) CountBookingsForOrganizer(ctx context.Context, organizerID string) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	return r.count, nil
}

func TestRoomService_CreateRoom_RequiresAdmin(t *testing.T) {
	t.Parallel()

	svc := NewRoomService(newRoomRepoStub(), &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Principal: Principal{UserID: "user-1", Role: RoleEmployee},
		Input:     RoomInput{Name: "Aster", Location: "3F", Capacity: 8},
	})
	if !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestRoomService_CreateRoom_ValidatesInput(t *testing.T) {
	t.Parallel()

	svc := NewRoomService(newRoomRepoStub(), &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	_, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		Input:     RoomInput{Name: "  ", Location: "", Capacity: 0},
	})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "location", "capacity"} {
		if _, ok := vErr.FieldErrors[field]; !ok {
			t.Fatalf("expected %s validation error, got %v", field, vErr.FieldErrors)
		}
	}
}

func TestRoomService_CreateRoom_NormalizesEquipment(t *testing.T) {
	t.Parallel()

	repo := newRoomRepoStub()
	svc := NewRoomService(repo, &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	room, err := svc.CreateRoom(context.Background(), CreateRoomParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		Input: RoomInput{
			Name:      "Aster",
			Location:  "3F",
			Capacity:  8,
			Equipment: []string{" Projector ", "projector", "", "Whiteboard"},
		},
	})
	if err != nil {
		t.Fatalf("CreateRoom failed: %v", err)
	}

	want := []string{"Projector", "Whiteboard"}
	if !reflect.DeepEqual(room.Equipment, want) {
		t.Fatalf("expected equipment %v, got %v", want, room.Equipment)
	}
}

func TestRoomService_UpdateRoom_NotFound(t *testing.T) {
	t.Parallel()

	svc := NewRoomService(newRoomRepoStub(), &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	_, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		RoomID:    "missing",
		Input:     RoomInput{Name: "Aster", Location: "3F", Capacity: 8},
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRoomService_UpdateRoom_AppliesChanges(t *testing.T) {
	t.Parallel()

	existing := Room{ID: "room-1", Name: "Aster", Location: "3F", Capacity: 8, CreatedAt: dayAt(t, 7)}
	repo := newRoomRepoStub(existing)
	svc := NewRoomService(repo, &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	room, err := svc.UpdateRoom(context.Background(), UpdateRoomParams{
		Principal: Principal{UserID: "admin-1", Role: RoleAdmin},
		RoomID:    "room-1",
		Input:     RoomInput{Name: "Aster West", Location: "4F", Capacity: 12},
	})
	if err != nil {
		t.Fatalf("UpdateRoom failed: %v", err)
	}

	if room.Name != "Aster West" || room.Location != "4F" || room.Capacity != 12 {
		t.Fatalf("expected applied changes, got %+v", room)
	}
	if !room.CreatedAt.Equal(dayAt(t, 7)) {
		t.Fatalf("expected CreatedAt preserved, got %v", room.CreatedAt)
	}
}

func TestRoomService_DeleteRoom_BlockedByReferences(t *testing.T) {
	t.Parallel()

	repo := newRoomRepoStub(Room{ID: "room-1", Name: "Aster"})
	svc := NewRoomService(repo, &referenceCounterStub{count: 3}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	err := svc.DeleteRoom(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "room-1")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if _, ok := repo.store["room-1"]; !ok {
		t.Fatal("expected room to remain in the store")
	}
}

func TestRoomService_DeleteRoom_RemovesUnreferencedRoom(t *testing.T) {
	t.Parallel()

	repo := newRoomRepoStub(Room{ID: "room-1", Name: "Aster"})
	svc := NewRoomService(repo, &referenceCounterStub{count: 0}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	if err := svc.DeleteRoom(context.Background(), Principal{UserID: "admin-1", Role: RoleAdmin}, "room-1"); err != nil {
		t.Fatalf("DeleteRoom failed: %v", err)
	}
	if _, ok := repo.store["room-1"]; ok {
		t.Fatal("expected room removed from the store")
	}
}

func TestRoomService_ListRooms_SortedByName(t *testing.T) {
	t.Parallel()

	repo := newRoomRepoStub(
		Room{ID: "room-1", Name: "zinnia"},
		Room{ID: "room-2", Name: "Aster"},
		Room{ID: "room-3", Name: "Lily"},
	)
	svc := NewRoomService(repo, &referenceCounterStub{}, sequentialIDs("room"), fixedClock(dayAt(t, 8)))

	rooms, err := svc.ListRooms(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee})
	if err != nil {
		t.Fatalf("ListRooms failed: %v", err)
	}

	got := make([]string, 0, len(rooms))
	for _, room := range rooms {
		got = append(got, room.Name)
	}
	want := []string{"Aster", "Lily", "zinnia"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestRoomService_GetRoom_AnyAuthenticatedUser(t *testing.T) {
	t.Parallel()

	repo := newRoomRepoStub(Room{ID: "room-1", Name: "Aster"})
	svc := NewRoomService(repo, &referenceCounterStub{}, sequentialIDs("room"), func() time.Time { return dayAt(t, 8) })

	room, err := svc.GetRoom(context.Background(), Principal{UserID: "user-1", Role: RoleEmployee}, "room-1")
	if err != nil {
		t.Fatalf("GetRoom failed: %v", err)
	}
	if room.Name != "Aster" {
		t.Fatalf("expected Aster, got %s", room.Name)
	}
}
