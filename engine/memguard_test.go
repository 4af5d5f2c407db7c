package engine

import "testing"

func TestMemoryGuard_NormalAtStartup(t *testing.T) {
	g := NewMemoryGuard(1024)
	usedPercent, level := g.Check()
	if usedPercent < 0 || usedPercent > 100 {
		t.Errorf("usedPercent = %f, want between 0 and 100", usedPercent)
	}
	if level != PressureNormal {
		t.Errorf("level = %v, want PressureNormal at startup with a 1GB limit", level)
	}
}

func TestMemoryGuard_TinyLimitTriggersPressure(t *testing.T) {
	g := NewMemoryGuard(1)
	_, level := g.Check()
	if level == PressureNormal {
		t.Error("expected pressure level above normal with a 1MB limit")
	}
}

func TestMemoryGuard_ThrottleBatch(t *testing.T) {
	tests := []struct {
		name      string
		limitMB   int64
		requested int
		want      int
	}{
		{"normal pressure leaves batch alone", 1024, 4, 4},
		{"critical pressure forces sequential", 1, 4, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewMemoryGuard(tt.limitMB)
			if got := g.ThrottleBatch(tt.requested); got != tt.want {
				t.Errorf("ThrottleBatch(%d) = %d, want %d", tt.requested, got, tt.want)
			}
		})
	}
}

func TestMemoryGuard_ZeroLimitDisablesPressure(t *testing.T) {
	g := &MemoryGuard{}
	if _, level := g.Check(); level != PressureNormal {
		t.Errorf("expected PressureNormal with zero limit, got %v", level)
	}
}
