// Package tidy reshapes grouped values into sorted table rows.
package tidy

import "sort"

// UnnestLongerSorted turns groups of values into two-column rows of group name and value, sorted by group name and
// then by value.
func UnnestLongerSorted(groups map[string][]string) [][]string {
	rows := [][]string{}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		values := append([]string(nil), groups[name]...)
		sort.Strings(values)
		for _, value := range values {
			rows = append(rows, []string{name, value})
		}
	}
	return rows
}
