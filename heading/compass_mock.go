package heading

import (
	"context"
)

// OrientationBehaviorFunc defines the function signature for compass
// behavior. It returns one orientation reading or an error.
type OrientationBehaviorFunc func(ctx context.Context) (Orientation, error)

// MockCompass is a mock implementation of an orientation sensor that uses a
// behavior function to produce results without requiring any hardware.
// It can stand in for the CMPS12.
type MockCompass struct {
	behavior OrientationBehaviorFunc
}

// NewMockCompass creates a new mock compass with the given behavior function.
// The behavior function is called whenever Read is invoked.
//
// Example usage:
//
//	compass := NewMockCompass(func(ctx context.Context) (Orientation, error) {
//		return Orientation{Bearing: 900}, nil // due east
//	})
func NewMockCompass(behavior OrientationBehaviorFunc) *MockCompass {
	return &MockCompass{behavior: behavior}
}

// Read returns an orientation by calling the behavior function.
func (m *MockCompass) Read(ctx context.Context) (Orientation, error) {
	return m.behavior(ctx)
}
