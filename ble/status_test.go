package ble

import (
	"testing"

	"hubcore/runtime"
)

type fakeStatusSource struct {
	flags     uint32
	programID uint8
	slot      uint8
}

func (f *fakeStatusSource) StatusBits() uint32 { return f.flags }
func (f *fakeStatusSource) ProgramID() uint8   { return f.programID }
func (f *fakeStatusSource) Slot() uint8        { return f.slot }

func TestStatusReporterEncodesScenarioPayload(t *testing.T) {
	// Spec §8 scenario 4: flags=0x10 (bit4), program_id=1, slot=2 ->
	// payload 0x00 0x10 0x00 0x00 0x00 0x01 0x02.
	got := EncodeStatusReport(0x10, 1, 2)
	want := []byte{0x00, 0x10, 0x00, 0x00, 0x00, 0x01, 0x02}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d mismatch: got %#x want %#x", i, got[i], want[i])
		}
	}
}

func TestStatusReporterFiresOnChange(t *testing.T) {
	runtime.ResetClock()
	sched := runtime.NewScheduler()
	source := &fakeStatusSource{}
	var reports [][]byte
	r := NewStatusReporter(source, func(p []byte) { reports = append(reports, p) })
	r.Start(sched)

	// First tick always reports (no "last" yet).
	runtime.Advance(reportCheckTicks)
	sched.RunAndWait()
	if len(reports) != 1 {
		t.Fatalf("expected an initial report, got %d", len(reports))
	}

	// No change: should not report again before the liveness window.
	runtime.Advance(reportCheckTicks)
	sched.RunAndWait()
	if len(reports) != 1 {
		t.Fatalf("expected no report without a change, got %d", len(reports))
	}

	source.programID = 7
	runtime.Advance(reportCheckTicks)
	sched.RunAndWait()
	if len(reports) != 2 {
		t.Fatalf("expected a report after program_id changed, got %d", len(reports))
	}
}

func TestStatusReporterFiresOnLivenessGuard(t *testing.T) {
	runtime.ResetClock()
	sched := runtime.NewScheduler()
	source := &fakeStatusSource{}
	var reports [][]byte
	r := NewStatusReporter(source, func(p []byte) { reports = append(reports, p) })
	r.Start(sched)

	for i := 0; i < 11; i++ { // 11 * 50ms = 550ms, past the 500ms guard
		runtime.Advance(reportCheckTicks)
		sched.RunAndWait()
	}
	if len(reports) < 2 {
		t.Fatalf("expected at least 2 reports (initial + liveness guard), got %d", len(reports))
	}
}

func TestStatusReporterStopCancelsFutureReports(t *testing.T) {
	runtime.ResetClock()
	sched := runtime.NewScheduler()
	source := &fakeStatusSource{}
	var reports [][]byte
	r := NewStatusReporter(source, func(p []byte) { reports = append(reports, p) })
	r.Start(sched)
	runtime.Advance(reportCheckTicks)
	sched.RunAndWait()
	r.Stop()

	before := len(reports)
	for i := 0; i < 20; i++ {
		runtime.Advance(reportCheckTicks)
		sched.RunAndWait()
	}
	if len(reports) != before {
		t.Fatalf("expected no reports after Stop, got %d more", len(reports)-before)
	}
}
