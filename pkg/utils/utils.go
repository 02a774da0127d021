package utils

import (
	"github.com/google/uuid"
)

func NewUUID() uuid.UUID {
	return uuid.New()
}

// IsValidUUID проверяет строку, пришедшую от клиента (например, из cookie)
func IsValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
