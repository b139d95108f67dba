package environment

import (
	"context"
)

// LuxBehaviorFunc defines the function signature for light sensor behavior.
// It returns the illuminance in lux or an error.
type LuxBehaviorFunc func(ctx context.Context) (float32, error)

// MockLightSensor is a mock implementation of a light sensor that uses a
// behavior function to produce results without requiring any hardware.
// It can stand in for the VEML7700 wherever only ReadLux is needed.
type MockLightSensor struct {
	behavior LuxBehaviorFunc
}

// NewMockLightSensor creates a new mock light sensor with the given behavior
// function. The behavior function is called whenever ReadLux is invoked.
//
// Example usage:
//
//	// Static value
//	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
//		return 500, nil
//	})
//
//	// Error simulation
//	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
//		return 0, fmt.Errorf("sensor malfunction")
//	})
func NewMockLightSensor(behavior LuxBehaviorFunc) *MockLightSensor {
	return &MockLightSensor{behavior: behavior}
}

// ReadLux returns the lux value by calling the behavior function.
func (m *MockLightSensor) ReadLux(ctx context.Context) (float32, error) {
	return m.behavior(ctx)
}
