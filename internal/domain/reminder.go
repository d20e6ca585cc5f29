package domain

import "fmt"

// ReminderMode controls how many reminder slots are generated per day.
type ReminderMode string

const (
	ReminderRare     ReminderMode = "rare"
	ReminderFrequent ReminderMode = "frequent"
)

// ParseReminderMode returns the mode named by raw, falling back to
// ReminderRare for unknown values.
func ParseReminderMode(raw string) ReminderMode {
	if ReminderMode(raw) == ReminderFrequent {
		return ReminderFrequent
	}
	return ReminderRare
}

// ReminderInstruction fully specifies one repeating local-time notification.
// IDs are stable per slot so that re-submitting replaces rather than
// duplicates.
type ReminderInstruction struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
	Hour    int    `json:"hour"`
	Minute  int    `json:"minute"`
	Repeats bool   `json:"repeats"`
}

type reminderSlot struct {
	id    string
	title string
	hour  int
}

var rareSlots = []reminderSlot{
	{"rare1", "Daily progress", 11},
	{"rare2", "Activity update", 16},
}

var frequentSlots = []reminderSlot{
	{"freq1", "How is it going?", 9},
	{"freq2", "Check your progress", 11},
	{"freq3", "A little more!", 13},
	{"freq4", "You can do it", 15},
	{"freq5", "Evening check-in", 17},
}

// ComputeReminders maps the current progress and mode to the full ordered
// set of reminder instructions. Slots are always returned regardless of
// progress; progress only changes the phrasing. The body string is shared
// across every slot of a computation.
func ComputeReminders(mode ReminderMode, steps, stepGoal, water, waterGoal float64) []ReminderInstruction {
	body := reminderBody(steps, stepGoal, water, waterGoal)

	slots := rareSlots
	if mode == ReminderFrequent {
		slots = frequentSlots
	}

	out := make([]ReminderInstruction, 0, len(slots))
	for _, s := range slots {
		out = append(out, ReminderInstruction{
			ID:      s.id,
			Title:   s.title,
			Body:    body,
			Hour:    s.hour,
			Minute:  0,
			Repeats: true,
		})
	}
	return out
}

func reminderBody(steps, stepGoal, water, waterGoal float64) string {
	var body string

	switch p := progress(steps, stepGoal); {
	case p < 0.3:
		body = fmt.Sprintf("Only %d steps so far. Time for a short walk. ", int(steps))
	case p < 0.7:
		body = fmt.Sprintf("Good progress, %d steps. Keep it up! ", int(steps))
	default:
		body = fmt.Sprintf("Great, %d steps already. Almost there. ", int(steps))
	}

	switch p := progress(water, waterGoal); {
	case p < 0.3:
		body += fmt.Sprintf("Remember to drink water, only %d ml so far.", int(water))
	case p < 0.7:
		body += fmt.Sprintf("%d ml of water down, you are on track.", int(water))
	default:
		body += fmt.Sprintf("Almost at your water goal with %d ml.", int(water))
	}

	return body
}

// progress treats a zero goal as fully behind rather than dividing by it.
func progress(value, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return value / goal
}
