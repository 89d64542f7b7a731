package parking

import (
	"context"
	"sort"
)

// PredictPeakDemand ranks hours of the day by mean historical occupancy and
// reports the top three as peak hours, together with reservation counts and
// revenue grouped by zone and by slot type. With no utilization history the
// forecast is marked insufficient and carries no peaks.
func (service *Service) PredictPeakDemand(ctx context.Context) (DemandForecast, error) {
	stats, err := service.store.ListUtilization(ctx)
	if err != nil {
		return DemandForecast{}, err
	}
	forecast := DemandForecast{SampleSize: len(stats)}
	if len(stats) == 0 {
		return forecast, nil
	}
	forecast.Sufficient = true

	type hourBucket struct {
		occupancy int
		samples   int
	}
	buckets := map[int]*hourBucket{}
	for _, stat := range stats {
		bucket, ok := buckets[stat.Hour]
		if !ok {
			bucket = &hourBucket{}
			buckets[stat.Hour] = bucket
		}
		bucket.occupancy += stat.OccupancyCount
		bucket.samples++
	}
	for hour, bucket := range buckets {
		forecast.Hourly = append(forecast.Hourly, HourDemand{
			Hour:             hour,
			AverageOccupancy: float64(bucket.occupancy) / float64(bucket.samples),
		})
	}
	sort.Slice(forecast.Hourly, func(left, right int) bool {
		if forecast.Hourly[left].AverageOccupancy != forecast.Hourly[right].AverageOccupancy {
			return forecast.Hourly[left].AverageOccupancy > forecast.Hourly[right].AverageOccupancy
		}
		return forecast.Hourly[left].Hour < forecast.Hourly[right].Hour
	})
	peaks := peakHourCount
	if peaks > len(forecast.Hourly) {
		peaks = len(forecast.Hourly)
	}
	forecast.PeakHours = append(forecast.PeakHours, forecast.Hourly[:peaks]...)

	byZone, byType, err := service.reservationGroups(ctx)
	if err != nil {
		return DemandForecast{}, err
	}
	forecast.ByZone = byZone
	forecast.ByType = byType
	return forecast, nil
}

// RevenueReport sums completed payments: the overall total, the last seven
// calendar days, and revenue grouped by slot type.
func (service *Service) RevenueReport(ctx context.Context) (RevenueReport, error) {
	payments, err := service.store.ListPayments(ctx)
	if err != nil {
		return RevenueReport{}, err
	}
	reservations, err := service.store.ListReservations(ctx)
	if err != nil {
		return RevenueReport{}, err
	}
	slots, err := service.store.ListSlots(ctx, SlotFilter{})
	if err != nil {
		return RevenueReport{}, err
	}
	slotByID := make(map[int64]Slot, len(slots))
	for _, slot := range slots {
		slotByID[slot.SlotID] = slot
	}
	slotByReservation := make(map[int64]Slot, len(reservations))
	for _, reservation := range reservations {
		if slot, ok := slotByID[reservation.SlotID]; ok {
			slotByReservation[reservation.ReservationID] = slot
		}
	}

	report := RevenueReport{}
	now := service.nowFn()
	window := make(map[string]AmountCents, revenueWindowDays)
	for offset := revenueWindowDays - 1; offset >= 0; offset-- {
		day := now.AddDate(0, 0, -offset).Format(dayFormat)
		window[day] = 0
		report.LastSevenDays = append(report.LastSevenDays, DailyRevenue{Day: day})
	}
	typeRevenue := map[string]*GroupCount{}
	for _, payment := range payments {
		if payment.Status != PaymentStatusCompleted {
			continue
		}
		report.TotalCents += payment.AmountCents
		day := payment.CreatedAt.Format(dayFormat)
		if _, inWindow := window[day]; inWindow {
			window[day] += payment.AmountCents
		}
		if slot, ok := slotByReservation[payment.ReservationID]; ok {
			group, ok := typeRevenue[slot.Type.String()]
			if !ok {
				group = &GroupCount{Key: slot.Type.String()}
				typeRevenue[slot.Type.String()] = group
			}
			group.Reservations++
			group.RevenueCents += payment.AmountCents
		}
	}
	for index := range report.LastSevenDays {
		report.LastSevenDays[index].RevenueCents = window[report.LastSevenDays[index].Day]
	}
	for _, group := range typeRevenue {
		report.ByType = append(report.ByType, *group)
	}
	sortGroups(report.ByType)
	return report, nil
}

// reservationGroups counts non-cancelled reservations and their revenue by
// slot zone and by slot type, both descending by count.
func (service *Service) reservationGroups(ctx context.Context) ([]GroupCount, []GroupCount, error) {
	reservations, err := service.store.ListReservations(ctx)
	if err != nil {
		return nil, nil, err
	}
	slots, err := service.store.ListSlots(ctx, SlotFilter{})
	if err != nil {
		return nil, nil, err
	}
	slotByID := make(map[int64]Slot, len(slots))
	for _, slot := range slots {
		slotByID[slot.SlotID] = slot
	}
	zoneGroups := map[string]*GroupCount{}
	typeGroups := map[string]*GroupCount{}
	for _, reservation := range reservations {
		if reservation.Status == ReservationStatusCancelled {
			continue
		}
		slot, ok := slotByID[reservation.SlotID]
		if !ok {
			continue
		}
		zone, ok := zoneGroups[slot.Zone]
		if !ok {
			zone = &GroupCount{Key: slot.Zone}
			zoneGroups[slot.Zone] = zone
		}
		zone.Reservations++
		zone.RevenueCents += reservation.TotalCents
		slotType, ok := typeGroups[slot.Type.String()]
		if !ok {
			slotType = &GroupCount{Key: slot.Type.String()}
			typeGroups[slot.Type.String()] = slotType
		}
		slotType.Reservations++
		slotType.RevenueCents += reservation.TotalCents
	}
	byZone := make([]GroupCount, 0, len(zoneGroups))
	for _, group := range zoneGroups {
		byZone = append(byZone, *group)
	}
	byType := make([]GroupCount, 0, len(typeGroups))
	for _, group := range typeGroups {
		byType = append(byType, *group)
	}
	sortGroups(byZone)
	sortGroups(byType)
	return byZone, byType, nil
}

func sortGroups(groups []GroupCount) {
	sort.Slice(groups, func(left, right int) bool {
		if groups[left].Reservations != groups[right].Reservations {
			return groups[left].Reservations > groups[right].Reservations
		}
		return groups[left].Key < groups[right].Key
	})
}
