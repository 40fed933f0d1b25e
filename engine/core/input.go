package core

import "sync"

// Key code definitions. Values follow the platform-independent codes used by
// the engine; the platform layer translates window-system keys into these.
type KeyCode uint16

const (
	KEY_ESCAPE KeyCode = 0x1B
	KEY_SPACE  KeyCode = 0x20
	KEY_UP     KeyCode = 0x26
	KEY_DOWN   KeyCode = 0x28
	KEY_A      KeyCode = 0x41
	KEY_B      KeyCode = 0x42
	KEY_D      KeyCode = 0x44
	KEY_E      KeyCode = 0x45
	KEY_F      KeyCode = 0x46
	KEY_H      KeyCode = 0x48
	KEY_M      KeyCode = 0x4D
	KEY_P      KeyCode = 0x50
	KEY_Q      KeyCode = 0x51
	KEY_S      KeyCode = 0x53
	KEY_W      KeyCode = 0x57
	KEY_X      KeyCode = 0x58
	KEY_Z      KeyCode = 0x5A

	KEYS_MAX_KEYS KeyCode = 0xFF
)

type KeyboardState struct {
	Keys [256]bool
}

type MouseState struct {
	X float64
	Y float64
}

// Input state structure that holds current and previous states for keyboard and mouse
type InputState struct {
	KeyboardCurrent  KeyboardState
	KeyboardPrevious KeyboardState
	MouseCurrent     MouseState
	MousePrevious    MouseState
	// accumulated wheel delta since the last update
	Scroll float64
}

var onceInput sync.Once
var inputInitialized bool
var inputState *InputState

func InputInitialize() error {
	onceInput.Do(func() {
		inputState = &InputState{}
	})
	inputInitialized = true
	LogInfo("Input subsystem initialized.")
	return nil
}

func InputShutdown() error {
	inputInitialized = false
	return nil
}

// InputUpdate copies the current state into the previous one. Called once at the
// end of every frame.
func InputUpdate() {
	if !inputInitialized {
		return
	}
	inputState.KeyboardPrevious = inputState.KeyboardCurrent
	inputState.MousePrevious = inputState.MouseCurrent
	inputState.Scroll = 0
}

func InputIsKeyDown(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	return inputState.KeyboardCurrent.Keys[key]
}

// InputIsKeyPressed reports a key that went down during this frame.
func InputIsKeyPressed(key KeyCode) bool {
	if !inputInitialized {
		return false
	}
	return inputState.KeyboardCurrent.Keys[key] && !inputState.KeyboardPrevious.Keys[key]
}

func InputProcessKey(key KeyCode, pressed bool) {
	if !inputInitialized || inputState.KeyboardCurrent.Keys[key] == pressed {
		return
	}
	inputState.KeyboardCurrent.Keys[key] = pressed

	code := EVENT_CODE_KEY_RELEASED
	if pressed {
		code = EVENT_CODE_KEY_PRESSED
	}
	EventFire(EventContext{
		Type: code,
		Data: &KeyEvent{KeyCode: key},
	})
}

func InputProcessMouseMove(x, y float64) {
	if !inputInitialized {
		return
	}
	if inputState.MouseCurrent.X != x || inputState.MouseCurrent.Y != y {
		inputState.MouseCurrent.X = x
		inputState.MouseCurrent.Y = y
		EventFire(EventContext{
			Type: EVENT_CODE_MOUSE_MOVED,
			Data: &MouseEvent{PosX: x, PosY: y},
		})
	}
}

func InputProcessMouseWheel(delta float64) {
	if !inputInitialized {
		return
	}
	inputState.Scroll += delta
	EventFire(EventContext{
		Type: EVENT_CODE_MOUSE_WHEEL,
		Data: &MouseEvent{Scroll: delta},
	})
}

// InputGetMouseDelta returns the cursor movement since the previous frame.
func InputGetMouseDelta() (float64, float64) {
	if !inputInitialized {
		return 0, 0
	}
	return inputState.MouseCurrent.X - inputState.MousePrevious.X, inputState.MouseCurrent.Y - inputState.MousePrevious.Y
}

func InputGetScroll() float64 {
	if !inputInitialized {
		return 0
	}
	return inputState.Scroll
}
