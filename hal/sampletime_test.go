//go:build !tinygo

package hal

import "testing"

func TestSampleTimeCode(t *testing.T) {
	tests := []struct {
		cycles  uint16
		want    uint32
		wantErr bool
	}{
		{cycles: 0, want: 0},
		{cycles: 3, want: 0},
		{cycles: 56, want: 3},
		{cycles: 480, want: 7},
		{cycles: 100, wantErr: true},
	}
	for _, tt := range tests {
		got, err := SampleTimeCode(tt.cycles)
		if (err != nil) != tt.wantErr {
			t.Fatalf("SampleTimeCode(%d): err=%v wantErr=%v", tt.cycles, err, tt.wantErr)
		}
		if err == nil && got != tt.want {
			t.Fatalf("SampleTimeCode(%d)=%d, want %d", tt.cycles, got, tt.want)
		}
	}
}

func TestConfigureRejectsUnsupportedSampleTime(t *testing.T) {
	src := newSignalSource(SignalConfig{})
	err := src.Configure([]AnalogChannel{{Name: "PA1", Pin: 1, SampleCycles: 100}})
	if err == nil {
		t.Fatalf("Configure accepted 100 sample cycles")
	}
	if err := src.Configure([]AnalogChannel{{Name: "PA1", Pin: 1, SampleCycles: 480}}); err != nil {
		t.Fatalf("Configure: %v", err)
	}
}
