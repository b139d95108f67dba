package environment

import (
	"context"
	"fmt"
	"testing"
)

func TestMockLightSensor_StaticValue(t *testing.T) {
	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
		return 500, nil
	})

	lux, err := sensor.ReadLux(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lux != 500 {
		t.Errorf("expected 500 lux, got %f", lux)
	}
}

func TestMockLightSensor_DynamicBehavior(t *testing.T) {
	callCount := 0
	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
		callCount++
		return float32(callCount) * 100, nil
	})

	ctx := context.Background()
	lux1, err := sensor.ReadLux(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lux1 != 100 {
		t.Errorf("first call: expected 100 lux, got %f", lux1)
	}

	lux2, err := sensor.ReadLux(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lux2 != 200 {
		t.Errorf("second call: expected 200 lux, got %f", lux2)
	}
}

func TestMockLightSensor_ErrorHandling(t *testing.T) {
	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
		return 0, fmt.Errorf("sensor malfunction")
	})

	_, err := sensor.ReadLux(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if err.Error() != "sensor malfunction" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestMockLightSensor_ContextUsage(t *testing.T) {
	var receivedCtx context.Context
	sensor := NewMockLightSensor(func(ctx context.Context) (float32, error) {
		receivedCtx = ctx
		return 1000, nil
	})

	type contextKey string
	key := contextKey("test")
	ctx := context.WithValue(context.Background(), key, "test-value")

	_, err := sensor.ReadLux(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if receivedCtx.Value(key) != "test-value" {
		t.Error("context was not passed through correctly")
	}
}
