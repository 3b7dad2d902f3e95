package core

import "testing"

func TestMetricsAveragesFrameTime(t *testing.T) {
	MetricsInitialize()

	// A full averaging window of 10ms frames.
	for i := uint8(0); i < AVG_COUNT; i++ {
		MetricsUpdate(0.010)
	}
	avg := MetricsFrameTime()
	if avg < 9.9 || avg > 10.1 {
		t.Errorf("average frame time = %.3fms, expected ~10ms", avg)
	}
}

func TestMetricsUpdateBeforeInitialize(t *testing.T) {
	// The state is a package singleton; update must never panic even if
	// another test has not initialized it yet.
	MetricsUpdate(0.016)
}
