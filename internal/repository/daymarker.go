package repository

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cvlhofrederic-art/fixit-production-sub002/internal/domain"
)

// The hosted schema has no day/service link table: links are kept in a hidden
// marker appended to the profile bio, e.g. "Plumber since 2004 <!--DS:{"1":["id"]}-->".
var dayMarkerPattern = regexp.MustCompile(`\s*<!--DS:([\s\S]*?)-->`)

// splitDayMarker separates the visible bio from the day/service marker.
// A corrupted marker yields empty links and is dropped on the next write.
func splitDayMarker(bio string) (string, domain.DayServices, error) {
	m := dayMarkerPattern.FindStringSubmatchIndex(bio)
	if m == nil {
		return strings.TrimSpace(bio), domain.DayServices{}, nil
	}
	clean := strings.TrimSpace(bio[:m[0]] + bio[m[1]:])
	raw := bio[m[2]:m[3]]

	var byKey map[string][]string
	if err := json.Unmarshal([]byte(raw), &byKey); err != nil {
		return clean, domain.DayServices{}, fmt.Errorf("corrupted day marker: %w", err)
	}
	ds := domain.DayServices{}
	for k, ids := range byKey {
		day, err := strconv.Atoi(k)
		if err != nil || day < 0 || day > 6 {
			continue
		}
		ds[day] = ids
	}
	return clean, ds, nil
}

// joinDayMarker appends the marker for ds to bio. Empty links produce no marker.
func joinDayMarker(bio string, ds domain.DayServices) string {
	bio = strings.TrimSpace(bio)
	byKey := make(map[string][]string)
	days := make([]int, 0, len(ds))
	for day := range ds {
		days = append(days, day)
	}
	sort.Ints(days)
	for _, day := range days {
		if len(ds[day]) > 0 {
			byKey[strconv.Itoa(day)] = ds[day]
		}
	}
	if len(byKey) == 0 {
		return bio
	}
	raw, err := json.Marshal(byKey)
	if err != nil {
		return bio
	}
	if bio == "" {
		return "<!--DS:" + string(raw) + "-->"
	}
	return bio + " <!--DS:" + string(raw) + "-->"
}
