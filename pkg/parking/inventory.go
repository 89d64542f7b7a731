package parking

import (
	"context"
	"math"
	"sort"
	"strings"
)

// NewSlot carries slot provisioning input.
type NewSlot struct {
	Number           string
	Floor            int
	Zone             string
	Type             string
	HourlyPriceCents AmountCents
}

// AddSlot provisions a parking slot. The type is validated against the
// closed enumeration and the price must be positive.
func (service *Service) AddSlot(ctx context.Context, input NewSlot) (Slot, error) {
	number := strings.TrimSpace(input.Number)
	if number == "" {
		return Slot{}, ErrInvalidSlotNumber
	}
	slotType, err := ParseSlotType(input.Type)
	if err != nil {
		return Slot{}, err
	}
	if input.HourlyPriceCents <= 0 {
		return Slot{}, ErrInvalidPrice
	}
	slot := Slot{
		Number:           number,
		Floor:            input.Floor,
		Zone:             strings.TrimSpace(input.Zone),
		Type:             slotType,
		HourlyPriceCents: input.HourlyPriceCents,
		Available:        true,
		CreatedAt:        service.nowFn(),
	}
	slotID, err := service.store.CreateSlot(ctx, slot)
	if err != nil {
		return Slot{}, err
	}
	slot.SlotID = slotID
	return slot, nil
}

// Slot returns one slot by id.
func (service *Service) Slot(ctx context.Context, slotID int64) (Slot, error) {
	return service.store.GetSlot(ctx, slotID)
}

// SearchSlots lists slots matching the filter, sorted by price, floor, and
// number ascending.
func (service *Service) SearchSlots(ctx context.Context, filter SlotFilter) ([]Slot, error) {
	return service.store.ListSlots(ctx, filter)
}

// AvailabilitySummary aggregates current occupancy with per-floor and
// per-zone breakdowns. The occupancy rate is a percentage rounded to two
// decimals, zero for an empty inventory.
func (service *Service) AvailabilitySummary(ctx context.Context) (AvailabilitySummary, error) {
	slots, err := service.store.ListSlots(ctx, SlotFilter{})
	if err != nil {
		return AvailabilitySummary{}, err
	}
	summary := AvailabilitySummary{TotalSlots: len(slots)}
	byFloor := map[int]*FloorAvailability{}
	byZone := map[string]*ZoneAvailability{}
	for _, slot := range slots {
		floor, ok := byFloor[slot.Floor]
		if !ok {
			floor = &FloorAvailability{Floor: slot.Floor}
			byFloor[slot.Floor] = floor
		}
		zone, ok := byZone[slot.Zone]
		if !ok {
			zone = &ZoneAvailability{Zone: slot.Zone}
			byZone[slot.Zone] = zone
		}
		floor.Total++
		zone.Total++
		if slot.Available {
			summary.AvailableSlots++
			floor.Available++
			zone.Available++
		}
	}
	summary.OccupiedSlots = summary.TotalSlots - summary.AvailableSlots
	if summary.TotalSlots > 0 {
		rate := float64(summary.OccupiedSlots) / float64(summary.TotalSlots) * 100
		summary.OccupancyRate = math.Round(rate*100) / 100
	}
	for _, floor := range byFloor {
		summary.ByFloor = append(summary.ByFloor, *floor)
	}
	for _, zone := range byZone {
		summary.ByZone = append(summary.ByZone, *zone)
	}
	sort.Slice(summary.ByFloor, func(left, right int) bool {
		return summary.ByFloor[left].Floor < summary.ByFloor[right].Floor
	})
	sort.Slice(summary.ByZone, func(left, right int) bool {
		return summary.ByZone[left].Zone < summary.ByZone[right].Zone
	})
	return summary, nil
}
