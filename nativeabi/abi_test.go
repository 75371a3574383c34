package nativeabi

import "testing"

func TestMatMulIdentityThroughABI(t *testing.T) {
	gh := GraphCreate()
	defer GraphDestroy(gh)

	x := GraphAddInput(gh, "x", []int{2, 2}, 0)
	w := GraphAddInput(gh, "w", []int{2, 2}, 0)
	if x < 0 || w < 0 {
		t.Fatalf("GraphAddInput failed: %s", LastError())
	}
	mm := GraphAddOpMatMul(gh, x, w)
	if mm < 0 {
		t.Fatalf("GraphAddOpMatMul failed: %s", LastError())
	}
	if GraphSetOutput(gh, mm) < 0 {
		t.Fatalf("GraphSetOutput failed: %s", LastError())
	}

	eh := EngineCreate(gh)
	if eh < 0 {
		t.Fatalf("EngineCreate failed: %s", LastError())
	}
	defer EngineDestroy(eh)

	if EngineCompile(eh) < 0 {
		t.Fatalf("EngineCompile failed: %s", LastError())
	}

	xBuf := EngineGetBuffer(eh, x)
	if xBuf == nil {
		t.Fatalf("EngineGetBuffer(x) failed: %s", LastError())
	}
	copy(xBuf, []float32{1, 0, 0, 1})
	wBuf := EngineGetBuffer(eh, w)
	copy(wBuf, []float32{1, 0, 0, 1})

	if EngineExecute(eh) < 0 {
		t.Fatalf("EngineExecute failed: %s", LastError())
	}

	out := EngineGetBuffer(eh, mm)
	want := []float32{1, 0, 0, 1}
	for i := range want {
		if out[i] != want[i] {
			t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
		}
	}

	size := EngineGetTraceSize(eh)
	if size == 0 {
		t.Fatal("EngineGetTraceSize returned 0")
	}
	ev, ok := EngineGetTraceEvent(eh, 0)
	if !ok {
		t.Fatalf("EngineGetTraceEvent(0) failed: %s", LastError())
	}
	if ev.Type != "GraphCompilation" {
		t.Errorf("first trace event = %v, want GraphCompilation", ev.Type)
	}
}

func TestUnknownGraphHandleReturnsFailure(t *testing.T) {
	if GraphAddOpRelu(9999, 0) != -1 {
		t.Error("GraphAddOpRelu on an unknown handle must return -1")
	}
	if LastError() == "" {
		t.Error("LastError should be set after a failed call")
	}
}

func TestEngineExecuteBeforeCompileFails(t *testing.T) {
	gh := GraphCreate()
	defer GraphDestroy(gh)
	x := GraphAddInput(gh, "x", []int{2}, 0)
	GraphSetOutput(gh, x)

	eh := EngineCreate(gh)
	if eh < 0 {
		t.Fatalf("EngineCreate failed: %s", LastError())
	}
	defer EngineDestroy(eh)

	if EngineExecute(eh) != -1 {
		t.Error("EngineExecute before EngineCompile must return -1")
	}
}

func TestCapabilitiesReportsAnArchitecture(t *testing.T) {
	snap := Capabilities()
	if snap.Arch.String() == "" {
		t.Error("Capabilities().Arch.String() should never be empty")
	}
}
