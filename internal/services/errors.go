package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrConnection marks failures establishing or keeping the LCU session:
	// missing credentials, handshake failures, exhausted retries.
	ErrConnection = errors.New("connection error")
	// ErrDecode marks malformed inbound frames. Always recovered locally.
	ErrDecode = errors.New("decode error")
	// ErrDevice marks recording-device call failures. Converted to boolean
	// results at the state machine boundary, never propagated raw.
	ErrDevice = errors.New("device error")
	// ErrConfiguration marks unusable configuration.
	ErrConfiguration = errors.New("configuration error")
	// ErrTimeout marks bounded waits that expired.
	ErrTimeout = errors.New("timeout")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification with errors.Is. The
// marker should be one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrConnection
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
