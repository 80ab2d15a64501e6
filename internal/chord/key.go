// Package chord defines steno keys, chords and strokes.
package chord

// Key identifies one physical key on a steno keyboard.
type Key uint8

// Keys in keyboard layout order. Left-bank consonants carry an L suffix and
// right-bank consonants an R suffix.
const (
	KeySL Key = iota
	KeyTL
	KeyPL
	KeyHL
	KeyKL
	KeyWL
	KeyRL
	KeyA
	KeyO
	KeyStar
	KeyE
	KeyU
	KeyFR
	KeyPR
	KeyLR
	KeyTR
	KeyDR
	KeyRR
	KeyBR
	KeyGR
	KeySR
	KeyZR

	numKeys
)

const (
	keyLetters = "STPHKWRAO*EUFPLTDRBGSZ"
	leftOrder  = "STKPWHRAO*"
	rightOrder = "EUFRPBLGTSDZ"
)

type keyInfo struct {
	letter byte
	order  int
	row    int
	column int
}

var keyTable = buildKeyTable()

// AllKeys returns every key in layout order.
func AllKeys() []Key {
	keys := make([]Key, numKeys)
	for i := range keys {
		keys[i] = Key(i)
	}
	return keys
}

// Valid reports whether k is a known key.
func (k Key) Valid() bool {
	return k < numKeys
}

// Letter returns the printed letter of the key.
func (k Key) Letter() byte {
	return keyTable[k].letter
}

// Order returns the position of the key in steno order.
func (k Key) Order() int {
	return keyTable[k].order
}

// Row returns the keyboard row: 0 top, 1 bottom, 2 vowel thumbs.
func (k Key) Row() int {
	return keyTable[k].row
}

// Column returns the keyboard column.
func (k Key) Column() int {
	return keyTable[k].column
}

// Left reports whether the key is on the left bank.
func (k Key) Left() bool {
	return k < KeyA
}

// Right reports whether the key is on the right bank.
func (k Key) Right() bool {
	return k > KeyU
}

// Vowel reports whether the key is one of the thumb vowels.
func (k Key) Vowel() bool {
	return k >= KeyA && k <= KeyU && k != KeyStar
}

// String returns the key in steno notation, e.g. "S-", "A", "-G".
func (k Key) String() string {
	if !k.Valid() {
		return "?"
	}
	switch {
	case k.Left():
		return string(k.Letter()) + "-"
	case k.Right():
		return "-" + string(k.Letter())
	default:
		return string(k.Letter())
	}
}

func buildKeyTable() [numKeys]keyInfo {
	var table [numKeys]keyInfo
	for i := Key(0); i < numKeys; i++ {
		letter := keyLetters[i]
		info := keyInfo{letter: letter}
		if i <= KeyStar {
			info.order = indexByte(leftOrder, letter)
		} else {
			info.order = len(leftOrder) + indexByte(rightOrder, letter)
		}
		info.row, info.column = position(i)
		table[i] = info
	}
	return table
}

func position(k Key) (row, column int) {
	switch {
	case k <= KeyHL:
		return 0, int(k)
	case k <= KeyRL:
		return 1, 1 + int(k-KeyKL)
	case k == KeyStar:
		return 0, int(k-KeyA) + int(KeyHL) + 1
	case k <= KeyU:
		return 2, int(k-KeyA) + int(KeyHL) + 1
	case k <= KeyDR:
		return 0, int(k-KeyFR) + int(KeyHL) + 6
	default:
		return 1, int(k-KeyRR) + int(KeyHL) + 6
	}
}

func indexByte(s string, b byte) int {
	for i := 0; i < len(s); i++ {
		if s[i] == b {
			return i
		}
	}
	return -1
}
