package convo

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Watering interval bounds for custom input. Preset values always pass.
const (
	MinIntervalDays = 1
	MaxIntervalDays = 30
)

// PresetIntervals are the fixed choices offered on the interval keyboard.
var PresetIntervals = []int{1, 3, 7, 14}

// Validation errors for custom interval input.
var (
	ErrNotANumber      = errors.New("interval is not a number")
	ErrIntervalOutside = fmt.Errorf("interval outside %d..%d days", MinIntervalDays, MaxIntervalDays)
)

// ParseInterval parses free-form interval input and validates the range.
func ParseInterval(text string) (int, error) {
	days, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, ErrNotANumber
	}
	if days < MinIntervalDays || days > MaxIntervalDays {
		return 0, ErrIntervalOutside
	}
	return days, nil
}

// IsPreset reports whether days is one of the fixed preset choices.
func IsPreset(days int) bool {
	for _, p := range PresetIntervals {
		if p == days {
			return true
		}
	}
	return false
}

func presetLabel(days int) string {
	switch days {
	case 1:
		return "💧 Every day"
	case 7:
		return "💧 Once a week"
	case 14:
		return "💧 Every 2 weeks"
	default:
		return fmt.Sprintf("💧 Every %d days", days)
	}
}

func intervalKeyboard() [][]Button {
	rows := make([][]Button, 0, len(PresetIntervals)+1)
	for _, days := range PresetIntervals {
		rows = append(rows, []Button{{
			Label: presetLabel(days),
			Data:  fmt.Sprintf("interval_%d", days),
		}})
	}
	rows = append(rows, []Button{{Label: "📝 Custom interval", Data: "custom_interval"}})
	return rows
}

func validationMessage(err error) string {
	if errors.Is(err, ErrNotANumber) {
		return msgIntervalNotANumber
	}
	return msgIntervalOutOfRange
}
