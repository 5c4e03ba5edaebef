package chat

import (
	tea "charm.land/bubbletea/v2"
)

// newKeyPressMsg creates a KeyPressMsg from a key code (for special keys)
func newKeyPressMsg(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg(tea.Key{Code: code})
}

// newTextKeyPressMsg creates a KeyPressMsg for text input
func newTextKeyPressMsg(text string) tea.KeyPressMsg {
	if len(text) == 0 {
		return tea.KeyPressMsg(tea.Key{})
	}
	r := []rune(text)[0]
	return tea.KeyPressMsg(tea.Key{
		Code: r,
		Text: text,
	})
}

func newCtrlKeyPressMsg(char rune) tea.KeyPressMsg {
	return tea.KeyPressMsg(tea.Key{
		Code: char,
		Mod:  tea.ModCtrl,
	})
}

var (
	testKeyEnter  = newKeyPressMsg(tea.KeyEnter)
	testKeyEsc    = newKeyPressMsg(tea.KeyEscape)
	testKeyPgUp   = newKeyPressMsg(tea.KeyPgUp)
	testKeyPgDown = newKeyPressMsg(tea.KeyPgDown)

	testKeyCtrlC = newCtrlKeyPressMsg('c')
	testKeyCtrlL = newCtrlKeyPressMsg('l')
	testKeyCtrlY = newCtrlKeyPressMsg('y')
)
