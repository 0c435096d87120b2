package app

// Key binding constants used in handleKey.
const (
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeyEnter     = "enter"
	KeyBackspace = "backspace"
	KeyEsc       = "esc"
	KeyToggle    = "ctrl+@"
	KeyToggleAlt = "f10"
	KeyShrink    = "left"
	KeyExtend    = "right"
	KeyPrev      = "up"
	KeyNext      = "down"
	KeyHiragana  = "f6"
	KeyHiraAlt   = "ctrl+u"
	KeyKatakana  = "f7"
	KeyKataAlt   = "ctrl+k"
	KeyClearOut  = "ctrl+l"
)
