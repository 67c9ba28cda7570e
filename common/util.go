package common

import (
	"fmt"
	"sort"
	"strings"
)

type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf(
		"Error in inputs: %s",
		e.Message)
}

func TrimAndCheckEmptyString(s *string) bool {
	*s = strings.TrimSpace(*s)
	return len(*s) == 0
}

// SortedKeys returns map keys in ascending order so flag values built from
// maps come out the same on every run.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
