package hotel

import (
	"context"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DefaultRooms is the first-run room inventory.
func DefaultRooms() []Room {
	return []Room{
		{Number: 101, Type: "Single", PricePerNight: decimal.NewFromInt(100), Status: RoomAvailable, Facilities: splitFacilities("WiFi,TV,AC")},
		{Number: 102, Type: "Double", PricePerNight: decimal.NewFromInt(150), Status: RoomAvailable, Facilities: splitFacilities("WiFi,TV,AC,Meal Service")},
		{Number: 103, Type: "Suite", PricePerNight: decimal.NewFromInt(300), Status: RoomAvailable, Facilities: splitFacilities("WiFi,TV,AC,Meal Service,Jacuzzi")},
		{Number: 104, Type: "Single", PricePerNight: decimal.NewFromInt(120), Status: RoomAvailable, Facilities: splitFacilities("WiFi,TV,AC,Balcony")},
		{Number: 105, Type: "Double", PricePerNight: decimal.NewFromInt(180), Status: RoomAvailable, Facilities: splitFacilities("WiFi,TV,AC,Meal Service,Balcony")},
	}
}

// Bootstrap seeds the rooms table when it does not exist and makes sure an
// admin secret is stored. Existing tables are left alone; the others are
// created on first write.
func Bootstrap(ctx context.Context, e *Engine, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	exists, err := e.Rooms.Exists(ctx)
	if err != nil {
		return err
	}
	if !exists {
		rooms := DefaultRooms()
		if err := e.Rooms.Replace(ctx, rooms); err != nil {
			return err
		}
		log.Info("rooms seeded", zap.Int("count", len(rooms)))
	}
	_, err = e.Accounts.EnsureAdminSecret(ctx)
	return err
}
