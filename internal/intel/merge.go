package intel

import (
	"slices"

	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// Merge folds candidate values into dst, normalizing each one and skipping values already present.
// Empty candidates are dropped silently. It returns the number of values added, so merging the
// same candidates twice adds nothing the second time.
func Merge(dst *models.Intelligence, src models.Intelligence) int {
	added := 0
	for _, f := range models.Fields {
		target := dst.Values(f)
		for _, candidate := range src.Get(f) {
			if addUnique(target, Normalize(f, candidate)) {
				added++
			}
		}
	}
	return added
}

// MergeField folds loose values into a single field of dst.
func MergeField(dst *models.Intelligence, f models.Field, values ...string) int {
	target := dst.Values(f)
	if target == nil {
		return 0
	}
	added := 0
	for _, v := range values {
		if addUnique(target, Normalize(f, v)) {
			added++
		}
	}
	return added
}

func addUnique(target *[]string, value string) bool {
	if value == "" || slices.Contains(*target, value) {
		return false
	}
	*target = append(*target, value)
	return true
}

// Diff returns the values present in next but not in prev, per field.
func Diff(prev, next models.Intelligence) models.Intelligence {
	var out models.Intelligence
	for _, f := range models.Fields {
		old := prev.Get(f)
		for _, v := range next.Get(f) {
			if !slices.Contains(old, v) {
				*out.Values(f) = append(*out.Values(f), v)
			}
		}
	}
	return out
}
