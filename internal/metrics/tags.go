package metrics

import (
	"fmt"
	"strconv"
)

// Tag creates a formatted DataDog tag string in "key:value" format.
func Tag(key, value string) string {
	return fmt.Sprintf("%s:%s", key, value)
}

// LevelTag creates a cache level tag from a priority.
func LevelTag(priority int) string {
	return Tag("level", strconv.Itoa(priority))
}

// OperationTag creates an operation tag.
func OperationTag(op string) string {
	return Tag("operation", op)
}

// BackendTag creates a backend engine tag (memory/ristretto/redis).
func BackendTag(name string) string {
	return Tag("backend", name)
}

// StatusTag creates a status tag (hit/miss/error).
func StatusTag(status string) string {
	return Tag("status", status)
}

// CircuitStateTag creates a circuit breaker state tag.
func CircuitStateTag(state string) string {
	return Tag("circuit_state", state)
}
