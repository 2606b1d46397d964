package tools

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Params is the parameter bag of a tool call as decoded from the model's JSON.
type Params map[string]any

var (
	dateRe = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
	timeRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	// 9:00, 09:00:00, 9h, 9h30
	looseTimeRe = regexp.MustCompile(`^(\d{1,2})(?:[:hH](\d{2})?)?(?::\d{2})?$`)
)

// Has reports whether key is present with a non-null value.
func (p Params) Has(key string) bool {
	v, ok := p[key]
	return ok && v != nil
}

// String returns the value of key as a trimmed string. Numbers and booleans
// are formatted; missing keys yield "".
func (p Params) String(key string) string {
	return toString(p[key])
}

// OptString returns nil when key is absent.
func (p Params) OptString(key string) *string {
	if !p.Has(key) {
		return nil
	}
	s := p.String(key)
	return &s
}

// Float returns the numeric value of key. ok is false when the key is absent.
func (p Params) Float(key string) (v float64, ok bool, err error) {
	if !p.Has(key) {
		return 0, false, nil
	}
	switch n := p[key].(type) {
	case float64:
		v = n
	case float32:
		v = float64(n)
	case int:
		v = float64(n)
	case int64:
		v = float64(n)
	case json.Number:
		v, err = n.Float64()
	case string:
		s := strings.TrimSpace(strings.ReplaceAll(n, ",", "."))
		s = strings.TrimSuffix(strings.TrimSuffix(s, "€"), "E")
		v, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
	default:
		err = fmt.Errorf("not a number")
	}
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, true, fmt.Errorf("%s must be a number", key)
	}
	return v, true, nil
}

// Int returns the integer value of key, rounding fractional input.
func (p Params) Int(key string) (int, bool, error) {
	f, ok, err := p.Float(key)
	if !ok || err != nil {
		return 0, ok, err
	}
	return int(math.Round(f)), true, nil
}

// Bool returns the boolean value of key. Common textual forms are accepted.
func (p Params) Bool(key string) (bool, bool, error) {
	if !p.Has(key) {
		return false, false, nil
	}
	switch b := p[key].(type) {
	case bool:
		return b, true, nil
	case float64:
		return b != 0, true, nil
	case int:
		return b != 0, true, nil
	case string:
		switch strings.ToLower(strings.TrimSpace(b)) {
		case "true", "1", "yes", "on", "oui":
			return true, true, nil
		case "false", "0", "no", "off", "non":
			return false, true, nil
		}
	}
	return false, true, fmt.Errorf("%s must be true or false", key)
}

// Strings returns a list value. A single string is split on commas.
func (p Params) Strings(key string) []string {
	var out []string
	switch v := p[key].(type) {
	case []any:
		for _, item := range v {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
	case []string:
		for _, s := range v {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	case nil:
	default:
		for _, s := range strings.Split(toString(v), ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// IsAll reports whether key holds the "all" wildcard.
func (p Params) IsAll(key string) bool {
	s, ok := p[key].(string)
	return ok && strings.EqualFold(strings.TrimSpace(s), "all")
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(s)
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	case json.Number:
		return s.String()
	default:
		return strings.TrimSpace(fmt.Sprint(s))
	}
}

var dayAliases = map[string]int{
	"sunday": 0, "sun": 0, "dimanche": 0,
	"monday": 1, "mon": 1, "lundi": 1,
	"tuesday": 2, "tue": 2, "mardi": 2,
	"wednesday": 3, "wed": 3, "mercredi": 3,
	"thursday": 4, "thu": 4, "jeudi": 4,
	"friday": 5, "fri": 5, "vendredi": 5,
	"saturday": 6, "sat": 6, "samedi": 6,
}

// Day parses a weekday given as 0..6 (0 = Sunday) or a day name.
func (p Params) Day(key string) (int, error) {
	if !p.Has(key) {
		return 0, fmt.Errorf("%s is required", key)
	}
	raw := p.String(key)
	if day, ok := dayAliases[strings.ToLower(raw)]; ok {
		return day, nil
	}
	day, ok, err := p.Int(key)
	if !ok || err != nil || day < 0 || day > 6 {
		return 0, fmt.Errorf("invalid day_of_week %q: expected 0 (Sunday) to 6 (Saturday) or \"all\"", raw)
	}
	return day, nil
}

// Days resolves a weekday argument. The "all" wildcard yields all seven days.
func (p Params) Days(key string) ([]int, error) {
	if p.IsAll(key) {
		return []int{0, 1, 2, 3, 4, 5, 6}, nil
	}
	day, err := p.Day(key)
	if err != nil {
		return nil, err
	}
	return []int{day}, nil
}

// Date validates a YYYY-MM-DD calendar date.
func Date(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if !dateRe.MatchString(raw) {
		return "", fmt.Errorf("invalid date %q: expected YYYY-MM-DD", raw)
	}
	if _, err := time.Parse("2006-01-02", raw); err != nil {
		return "", fmt.Errorf("invalid date %q: no such day", raw)
	}
	return raw, nil
}

// Clock normalizes a time of day to HH:MM. 9:00, 09:00:00 and 9h30 are accepted.
func Clock(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if timeRe.MatchString(raw) {
		return raw, nil
	}
	m := looseTimeRe.FindStringSubmatch(raw)
	if m == nil {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	h, _ := strconv.Atoi(m[1])
	mins := 0
	if m[2] != "" {
		mins, _ = strconv.Atoi(m[2])
	}
	if h > 23 || mins > 59 {
		return "", fmt.Errorf("invalid time %q: expected HH:MM", raw)
	}
	return fmt.Sprintf("%02d:%02d", h, mins), nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
