package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const numberRetries = 5

// NextDocumentNumber generates a document number of the form
// PREFIX-YYYYMMDD-XXXXXXXX and re-generates on collision instead of
// truncating. taken reports whether a candidate is already in use within
// the caller's transaction.
func NextDocumentNumber(prefix string, taken func(string) (bool, error)) (string, error) {
	for i := 0; i < numberRetries; i++ {
		candidate := FormatDocumentNumber(prefix, time.Now())
		exists, err := taken(candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("could not allocate a unique %s number after %d attempts", prefix, numberRetries)
}

func FormatDocumentNumber(prefix string, at time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", prefix, at.Format("20060102"), suffix)
}
