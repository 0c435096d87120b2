// Package kana maps between the hiragana and katakana Unicode blocks.
package kana

// Hiragana block bounds that have a katakana counterpart at a fixed offset.
const (
	hiraganaFirst = 0x3041 // ぁ
	hiraganaLast  = 0x3096 // ゖ
	katakanaFirst = 0x30A1 // ァ
	katakanaLast  = 0x30F6 // ヶ

	offset = katakanaFirst - hiraganaFirst
)

// HiraganaToKatakana shifts every hiragana code point into the katakana
// block. Anything else, including katakana, is returned unchanged.
func HiraganaToKatakana(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= hiraganaFirst && r <= hiraganaLast {
			out[i] = r + offset
		}
	}
	return string(out)
}

// KatakanaToHiragana is the inverse of HiraganaToKatakana.
func KatakanaToHiragana(s string) string {
	out := []rune(s)
	for i, r := range out {
		if r >= katakanaFirst && r <= katakanaLast {
			out[i] = r - offset
		}
	}
	return string(out)
}

// IsHiragana reports whether s is non-empty and made only of hiragana or
// the prolonged sound mark.
func IsHiragana(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < hiraganaFirst || r > hiraganaLast) && r != 'ー' {
			return false
		}
	}
	return true
}
