package itinerary

import (
	"errors"
	"fmt"
	"slices"

	"tripweaver/models"
)

const (
	PlaceholderActivity = "New activity"
	PlaceholderTip      = "New tip"
)

// ErrIndexOutOfRange is returned by the Check* helpers. The list operations
// themselves treat a bad index as a programming error and panic.
var ErrIndexOutOfRange = errors.New("index out of range")

func CheckDayIndex(it models.Itinerary, dayIndex int) error {
	if dayIndex < 0 || dayIndex >= len(it.Days) {
		return fmt.Errorf("day %d of %d: %w", dayIndex, len(it.Days), ErrIndexOutOfRange)
	}
	return nil
}

func CheckActivityIndex(it models.Itinerary, dayIndex, activityIndex int) error {
	if err := CheckDayIndex(it, dayIndex); err != nil {
		return err
	}
	n := len(it.Days[dayIndex].Activities)
	if activityIndex < 0 || activityIndex >= n {
		return fmt.Errorf("activity %d of %d on day %d: %w", activityIndex, n, dayIndex, ErrIndexOutOfRange)
	}
	return nil
}

func CheckTipIndex(it models.Itinerary, tipIndex int) error {
	if tipIndex < 0 || tipIndex >= len(it.Tips) {
		return fmt.Errorf("tip %d of %d: %w", tipIndex, len(it.Tips), ErrIndexOutOfRange)
	}
	return nil
}

func must(err error) {
	if err != nil {
		panic("itinerary: " + err.Error())
	}
}

// Renumber returns a copy of it whose days satisfy days[i].Day == i+1.
func Renumber(it models.Itinerary) models.Itinerary {
	it.Days = renumber(slices.Clone(it.Days))
	return it
}

// renumber rewrites positions in place; days must already be a private copy.
func renumber(days []models.Day) []models.Day {
	for i := range days {
		days[i].Day = i + 1
	}
	return days
}

// updateDay replaces one day through fn. The other days are copied by value, so
// their activity slices stay shared with the input.
func updateDay(it models.Itinerary, dayIndex int, fn func(models.Day) models.Day) models.Itinerary {
	must(CheckDayIndex(it, dayIndex))
	days := slices.Clone(it.Days)
	days[dayIndex] = fn(days[dayIndex])
	it.Days = renumber(days)
	return it
}

func UpdateDay(it models.Itinerary, dayIndex int, field string, value any) models.Itinerary {
	return updateDay(it, dayIndex, func(d models.Day) models.Day {
		return WithDayField(d, field, value)
	})
}

func AddActivity(it models.Itinerary, dayIndex int) models.Itinerary {
	return updateDay(it, dayIndex, func(d models.Day) models.Day {
		d.Activities = append(slices.Clip(d.Activities), PlaceholderActivity)
		return d
	})
}

func RemoveActivity(it models.Itinerary, dayIndex, activityIndex int) models.Itinerary {
	must(CheckActivityIndex(it, dayIndex, activityIndex))
	return updateDay(it, dayIndex, func(d models.Day) models.Day {
		d.Activities = slices.Delete(slices.Clone(d.Activities), activityIndex, activityIndex+1)
		return d
	})
}

func UpdateActivity(it models.Itinerary, dayIndex, activityIndex int, value string) models.Itinerary {
	must(CheckActivityIndex(it, dayIndex, activityIndex))
	return updateDay(it, dayIndex, func(d models.Day) models.Day {
		d.Activities = slices.Clone(d.Activities)
		d.Activities[activityIndex] = value
		return d
	})
}

func AddTip(it models.Itinerary) models.Itinerary {
	it.Tips = append(slices.Clip(it.Tips), PlaceholderTip)
	return it
}

func RemoveTip(it models.Itinerary, tipIndex int) models.Itinerary {
	must(CheckTipIndex(it, tipIndex))
	it.Tips = slices.Delete(slices.Clone(it.Tips), tipIndex, tipIndex+1)
	return it
}

func UpdateTip(it models.Itinerary, tipIndex int, value string) models.Itinerary {
	must(CheckTipIndex(it, tipIndex))
	it.Tips = slices.Clone(it.Tips)
	it.Tips[tipIndex] = value
	return it
}

// ReorderDays moves the day at from to position to. Days in between shift by
// one. Every day is renumbered afterwards, even when from == to.
func ReorderDays(it models.Itinerary, from, to int) models.Itinerary {
	must(CheckDayIndex(it, from))
	must(CheckDayIndex(it, to))
	days := slices.Clone(it.Days)
	if from != to {
		moved := days[from]
		days = slices.Delete(days, from, from+1)
		days = slices.Insert(days, to, moved)
	}
	it.Days = renumber(days)
	return it
}
