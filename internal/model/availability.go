package model

import (
	"fmt"
	"sort"
	"time"
)

// Weekday название дня недели так, как оно хранится в документе учителя
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

// Weekdays в порядке отображения (неделя начинается с понедельника)
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// IsValid проверяет что день недели один из семи
func (d Weekday) IsValid() bool {
	for _, w := range Weekdays {
		if w == d {
			return true
		}
	}
	return false
}

// WeekdayOf день недели даты t
func WeekdayOf(t time.Time) Weekday {
	// time.Weekday: Sunday = 0; Weekdays: Monday = 0
	return Weekdays[(int(t.Weekday())+6)%7]
}

// Index возвращает позицию дня в неделе (Monday = 0), -1 для неизвестного
func (d Weekday) Index() int {
	for i, w := range Weekdays {
		if w == d {
			return i
		}
	}
	return -1
}

// TimeSlot повторяющийся еженедельный интервал "HH:MM"-"HH:MM"
type TimeSlot struct {
	Day       Weekday `json:"day" validate:"required,weekday"`
	StartTime string  `json:"startTime" validate:"required,hhmm"`
	EndTime   string  `json:"endTime" validate:"required,hhmm"`
}

// Overlaps полуоткрытые интервалы: касание границ пересечением не считается.
// Строки "HH:MM" в 24-часовом формате с ведущими нулями сравниваются лексикографически.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.StartTime < other.EndTime && other.StartTime < s.EndTime
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("%s %s-%s", s.Day, s.StartTime, s.EndTime)
}

// Availability расписание учителя: день недели -> упорядоченные слоты.
// Дни без слотов отсутствуют в карте, но пустой срез из хранилища тоже допустим.
type Availability map[Weekday][]TimeSlot

// Clone глубокая копия, исходная карта не меняется
func (a Availability) Clone() Availability {
	out := make(Availability, len(a))
	for day, slots := range a {
		cp := make([]TimeSlot, len(slots))
		copy(cp, slots)
		out[day] = cp
	}
	return out
}

// AddSlot добавляет слот, если он не пересекается с другими слотами того же дня.
// При пересечении возвращает ErrOverlap и исходное расписание не трогает.
func (a Availability) AddSlot(slot TimeSlot) (Availability, error) {
	for _, existing := range a[slot.Day] {
		if existing.Overlaps(slot) {
			return a, fmt.Errorf("%w: %s conflicts with %s", ErrOverlap, slot, existing)
		}
	}

	updated := a.Clone()
	daySlots := append(updated[slot.Day], slot)
	sort.SliceStable(daySlots, func(i, j int) bool {
		return daySlots[i].StartTime < daySlots[j].StartTime
	})
	updated[slot.Day] = daySlots

	return updated, nil
}

// RemoveSlot удаляет слот по позиции; пустой день удаляется из карты
func (a Availability) RemoveSlot(day Weekday, index int) (Availability, error) {
	daySlots := a[day]
	if index < 0 || index >= len(daySlots) {
		return a, fmt.Errorf("%w: %s has %d slots, index %d", ErrSlotIndex, day, len(daySlots), index)
	}

	updated := a.Clone()
	remaining := append(updated[day][:index:index], updated[day][index+1:]...)
	if len(remaining) == 0 {
		delete(updated, day)
	} else {
		updated[day] = remaining
	}

	return updated, nil
}

// HasSlots есть ли хотя бы один слот в любой из дней
func (a Availability) HasSlots() bool {
	for _, slots := range a {
		if len(slots) > 0 {
			return true
		}
	}
	return false
}

// Days дни со слотами в порядке недели
func (a Availability) Days() []Weekday {
	var days []Weekday
	for _, d := range Weekdays {
		if len(a[d]) > 0 {
			days = append(days, d)
		}
	}
	return days
}
