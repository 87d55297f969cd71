package graphics

import "testing"

func TestInputEvent_HasModifier(t *testing.T) {
	event := InputEvent{Type: InputEventTypeKey, Key: KeyF1, Pressed: true, Modifiers: ModifierShift | ModifierCtrl}

	if !event.HasModifier(ModifierShift) {
		t.Error("expected ModifierShift to be set")
	}
	if !event.HasModifier(ModifierCtrl) {
		t.Error("expected ModifierCtrl to be set")
	}
	if event.HasModifier(ModifierAlt) {
		t.Error("did not expect ModifierAlt to be set")
	}
	if event.HasModifier(ModifierSuper) {
		t.Error("did not expect ModifierSuper to be set")
	}
}

func TestInputEvent_HasModifier_None(t *testing.T) {
	event := InputEvent{Type: InputEventTypeKey, Key: KeyF1, Pressed: true}

	for _, mod := range []ModifierKey{ModifierShift, ModifierCtrl, ModifierAlt, ModifierSuper} {
		if event.HasModifier(mod) {
			t.Errorf("fresh event unexpectedly reports modifier %v set", mod)
		}
	}
}

func TestCreateBackend(t *testing.T) {
	tests := []struct {
		backendType  BackendType
		wantHeadless bool
	}{
		{BackendHeadless, true},
		{BackendTerminal, false},
		{BackendEbitengine, false},
	}

	for _, tt := range tests {
		backend, err := CreateBackend(tt.backendType)
		if err != nil {
			t.Fatalf("CreateBackend(%v): unexpected error: %v", tt.backendType, err)
		}
		if backend.IsHeadless() != tt.wantHeadless {
			t.Errorf("CreateBackend(%v).IsHeadless() = %v, want %v", tt.backendType, backend.IsHeadless(), tt.wantHeadless)
		}
	}
}
