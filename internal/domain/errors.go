package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errors
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrInvalidQuantity     = errors.New("invalid quantity")
	ErrAllocationExhausted = errors.New("allocation exhausted")
)

// Shortage describes an order line that available inventory could not fully cover.
type Shortage struct {
	OrderID   string `json:"orderId" bson:"orderId"`
	SKU       string `json:"sku" bson:"sku"`
	Requested int    `json:"requested" bson:"requested"`
	Allocated int    `json:"allocated" bson:"allocated"`
}

// Missing returns the uncovered quantity.
func (s Shortage) Missing() int {
	return s.Requested - s.Allocated
}

// AllocationExhaustedError is returned alongside partially created tasks.
type AllocationExhaustedError struct {
	Shortages []Shortage
}

func (e *AllocationExhaustedError) Error() string {
	parts := make([]string, 0, len(e.Shortages))
	for _, s := range e.Shortages {
		parts = append(parts, fmt.Sprintf("%s/%s short %d", s.OrderID, s.SKU, s.Missing()))
	}
	return fmt.Sprintf("%s: %s", ErrAllocationExhausted, strings.Join(parts, ", "))
}

func (e *AllocationExhaustedError) Unwrap() error {
	return ErrAllocationExhausted
}

// AsAllocationExhausted extracts the shortage details from err, if present.
func AsAllocationExhausted(err error) (*AllocationExhaustedError, bool) {
	var exhausted *AllocationExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted, true
	}
	return nil, false
}

func invalidState(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidState, fmt.Sprintf(format, args...))
}

func invalidQuantity(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuantity, fmt.Sprintf(format, args...))
}
