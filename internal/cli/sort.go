package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pfrederiksen/connpass-attendance/internal/roster"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByRoster   SortOrder = "roster"
	SortByID       SortOrder = "id"
	SortByName     SortOrder = "name"
	SortByJoin     SortOrder = "join"
	SortByAttended SortOrder = "attended"
)

// ParseSortOrder validates a sort order name.
func ParseSortOrder(name string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(name)); o {
	case SortByRoster, SortByID, SortByName, SortByJoin, SortByAttended:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be roster, id, name, join or attended)", name)
}

// sortMembers returns a sorted copy of members. SortByRoster keeps the
// listing order.
func sortMembers(members []roster.Member, matrix *roster.Matrix, order SortOrder) []roster.Member {
	sorted := make([]roster.Member, len(members))
	copy(sorted, members)

	switch order {
	case SortByID:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].ID < sorted[j].ID
		})
	case SortByName:
		sort.SliceStable(sorted, func(i, j int) bool {
			if !strings.EqualFold(sorted[i].Name, sorted[j].Name) {
				return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
			}
			return sorted[i].ID < sorted[j].ID
		})
	case SortByJoin:
		sort.SliceStable(sorted, func(i, j int) bool {
			return compareByJoin(sorted[i], sorted[j])
		})
	case SortByAttended:
		sort.SliceStable(sorted, func(i, j int) bool {
			ti, tj := matrix.Tally(sorted[i].ID), matrix.Tally(sorted[j].ID)
			ai, aj := ti.Confirmed+ti.Organizer, tj.Confirmed+tj.Organizer
			if ai != aj {
				return ai > aj
			}
			return sorted[i].ID < sorted[j].ID
		})
	}

	return sorted
}

// compareByJoin orders members by join date, earliest first.
// Members without a join date go last.
func compareByJoin(i, j roster.Member) bool {
	if !i.JoinDate.IsZero() && !j.JoinDate.IsZero() {
		if i.JoinDate.Equal(j.JoinDate) {
			return i.ID < j.ID
		}
		return i.JoinDate.Before(j.JoinDate)
	}

	if !i.JoinDate.IsZero() {
		return true
	}
	if !j.JoinDate.IsZero() {
		return false
	}

	return i.ID < j.ID
}
