package xp

import "time"

// Streak counts consecutive UTC days with activity, ending today or
// yesterday relative to now. days may be unsorted and contain duplicates.
func Streak(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}
	active := make(map[string]struct{}, len(days))
	for _, d := range days {
		active[d.UTC().Format(time.DateOnly)] = struct{}{}
	}

	cursor := now.UTC()
	if _, ok := active[cursor.Format(time.DateOnly)]; !ok {
		cursor = cursor.AddDate(0, 0, -1)
		if _, ok := active[cursor.Format(time.DateOnly)]; !ok {
			return 0
		}
	}

	streak := 0
	for {
		if _, ok := active[cursor.Format(time.DateOnly)]; !ok {
			return streak
		}
		streak++
		cursor = cursor.AddDate(0, 0, -1)
	}
}
