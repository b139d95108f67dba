package pressure

import (
	"context"
)

// MeasurementBehaviorFunc defines the function signature for pressure sensor
// behavior. It returns one measurement or an error.
type MeasurementBehaviorFunc func(ctx context.Context, mode ICP10125Mode) (Measurement, error)

// MockPressureSensor is a mock implementation of a pressure sensor that uses
// a behavior function to produce results without requiring any hardware.
// It can stand in for the ICP10125.
type MockPressureSensor struct {
	behavior MeasurementBehaviorFunc
}

// NewMockPressureSensor creates a new mock pressure sensor with the given
// behavior function. The behavior function is called whenever Measure is
// invoked.
//
// Example usage:
//
//	sensor := NewMockPressureSensor(func(ctx context.Context, mode ICP10125Mode) (Measurement, error) {
//		return Measurement{Temperature: 21.5, Pressure: 101325}, nil
//	})
func NewMockPressureSensor(behavior MeasurementBehaviorFunc) *MockPressureSensor {
	return &MockPressureSensor{behavior: behavior}
}

// Measure returns a measurement by calling the behavior function.
func (m *MockPressureSensor) Measure(ctx context.Context, mode ICP10125Mode) (Measurement, error) {
	return m.behavior(ctx, mode)
}
