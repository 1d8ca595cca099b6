package utils

import (
	"strings"

	"github.com/google/uuid"
)

func GetUUID() string {
	return uuid.New().String()
}

// GetCompactUUID is GetUUID without dashes.
func GetCompactUUID() string {
	return strings.ReplaceAll(GetUUID(), "-", "")
}
