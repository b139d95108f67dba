package environment

import (
	"context"
)

// TemperatureBehaviorFunc defines the function signature for temperature
// behavior. It returns the temperature in Celsius or an error.
type TemperatureBehaviorFunc func(ctx context.Context) (float32, error)

// MockTemperatureSensor is a mock implementation of a temperature sensor that
// uses a behavior function to produce results without requiring any hardware.
// It can stand in for the TMP117.
type MockTemperatureSensor struct {
	behavior TemperatureBehaviorFunc
}

// NewMockTemperatureSensor creates a new mock temperature sensor with the
// given behavior function. The behavior function is called whenever
// GetTemperature is invoked.
//
// Example usage:
//
//	sensor := NewMockTemperatureSensor(func(ctx context.Context) (float32, error) { return 25.0, nil })
func NewMockTemperatureSensor(behavior TemperatureBehaviorFunc) *MockTemperatureSensor {
	return &MockTemperatureSensor{behavior: behavior}
}

// GetTemperature returns the temperature by calling the behavior function.
func (m *MockTemperatureSensor) GetTemperature(ctx context.Context) (float32, error) {
	return m.behavior(ctx)
}

// GetTemperatureFahrenheit converts the behavior's Celsius value.
// If the behavior returns an error, it is propagated.
func (m *MockTemperatureSensor) GetTemperatureFahrenheit(ctx context.Context) (float32, error) {
	celsius, err := m.behavior(ctx)
	if err != nil {
		return 0, err
	}
	return celsius*9.0/5.0 + 32.0, nil
}
