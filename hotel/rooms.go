package hotel

import (
	"context"
	"slices"
)

// ListRooms returns the rooms matching f, cheapest first. Rooms with equal
// prices keep table order.
func (e *Engine) ListRooms(ctx context.Context, f RoomFilter) ([]Room, error) {
	rooms, err := e.Rooms.All(ctx, f.Matches)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(rooms, func(a, b Room) int {
		return a.PricePerNight.Cmp(b.PricePerNight)
	})
	return rooms, nil
}

func (e *Engine) GetRoom(ctx context.Context, number int) (Room, bool, error) {
	return e.Rooms.Find(ctx, func(r Room) bool { return r.Number == number })
}
