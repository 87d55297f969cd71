package graphics

import (
	"os"
	"path/filepath"
	"testing"
)

func TestHeadlessBackend_InitializeAndCreateWindow(t *testing.T) {
	backend := NewHeadlessBackend()

	if err := backend.Initialize(Config{Headless: true}); err != nil {
		t.Fatalf("Initialize: unexpected error: %v", err)
	}
	if err := backend.Initialize(Config{Headless: true}); err == nil {
		t.Error("expected error re-initializing an already-initialized backend")
	}

	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow: unexpected error: %v", err)
	}
	if w, h := window.GetSize(); w != 256 || h != 240 {
		t.Errorf("GetSize() = (%d, %d), want (256, 240)", w, h)
	}
	if window.ShouldClose() {
		t.Error("freshly created window should not report ShouldClose")
	}
}

func TestHeadlessBackend_CreateWindow_Uninitialized(t *testing.T) {
	backend := NewHeadlessBackend()
	if _, err := backend.CreateWindow("test", 256, 240); err == nil {
		t.Error("expected error creating a window on an uninitialized backend")
	}
}

// TestHeadlessWindow_RenderFrame_DumpsOnlyConfiguredFrames is the regression
// test for de-hardcoding the frame-dump list: RenderFrame must never touch
// disk unless the frame number was named in Config.DebugFrameDumps.
func TestHeadlessWindow_RenderFrame_DumpsOnlyConfiguredFrames(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(cwd)

	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Headless: true, DebugFrameDumps: []int{2}}); err != nil {
		t.Fatalf("Initialize: unexpected error: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow: unexpected error: %v", err)
	}

	var buf [256 * 240]uint32
	for frame := 1; frame <= 3; frame++ {
		if err := window.RenderFrame(buf); err != nil {
			t.Fatalf("RenderFrame(frame %d): unexpected error: %v", frame, err)
		}
	}

	if _, err := os.Stat(filepath.Join(dir, "frame_001.ppm")); !os.IsNotExist(err) {
		t.Error("frame 1 was not requested for dump but frame_001.ppm exists")
	}
	if _, err := os.Stat(filepath.Join(dir, "frame_002.ppm")); err != nil {
		t.Errorf("frame 2 was requested for dump, expected frame_002.ppm: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "frame_003.ppm")); !os.IsNotExist(err) {
		t.Error("frame 3 was not requested for dump but frame_003.ppm exists")
	}
}

func TestHeadlessWindow_RenderFrame_NoDumpsConfigured(t *testing.T) {
	dir := t.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(cwd)

	backend := NewHeadlessBackend()
	if err := backend.Initialize(Config{Headless: true}); err != nil {
		t.Fatalf("Initialize: unexpected error: %v", err)
	}
	window, err := backend.CreateWindow("test", 256, 240)
	if err != nil {
		t.Fatalf("CreateWindow: unexpected error: %v", err)
	}

	var buf [256 * 240]uint32
	for frame := 1; frame <= 5; frame++ {
		if err := window.RenderFrame(buf); err != nil {
			t.Fatalf("RenderFrame(frame %d): unexpected error: %v", frame, err)
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected no files written with no DebugFrameDumps configured, found %d", len(entries))
	}

	if hw, ok := window.(*HeadlessWindow); ok {
		if hw.GetFrameCount() != 5 {
			t.Errorf("GetFrameCount() = %d, want 5", hw.GetFrameCount())
		}
	} else {
		t.Fatal("CreateWindow did not return a *HeadlessWindow")
	}
}

func TestHeadlessBackend_GetName(t *testing.T) {
	backend := NewHeadlessBackend()
	if backend.GetName() != "Headless" {
		t.Errorf("GetName() = %q, want %q", backend.GetName(), "Headless")
	}
	if !backend.IsHeadless() {
		t.Error("IsHeadless() = false, want true")
	}
}
