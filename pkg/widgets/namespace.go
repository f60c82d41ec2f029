package widgets

import (
	"github.com/rekonder/qttester/pkg/enumname"
)

// Namespace names.
const (
	NamespaceQt     = "Qt"
	NamespaceQEvent = "QEvent"
)

// Event kinds (QEvent.Type).
const (
	None                int64 = 0
	MouseButtonPress    int64 = 2
	MouseButtonRelease  int64 = 3
	MouseButtonDblClick int64 = 4
	MouseMove           int64 = 5
	KeyPress            int64 = 6
	KeyRelease          int64 = 7
	FocusIn             int64 = 8
	FocusOut            int64 = 9
	Enter               int64 = 10
	Leave               int64 = 11
	Move                int64 = 13
	Resize              int64 = 14
	Show                int64 = 17
	Hide                int64 = 18
	Close               int64 = 19
	WindowActivate      int64 = 24
	WindowDeactivate    int64 = 25
	DragEnter           int64 = 60
	DragMove            int64 = 61
	DragLeave           int64 = 62
	Drop                int64 = 63
	ActivationChange    int64 = 99
)

// Mouse buttons.
const (
	NoButton     int64 = 0x0
	LeftButton   int64 = 0x1
	RightButton  int64 = 0x2
	MiddleButton int64 = 0x4
)

// Keyboard modifiers.
const (
	NoModifier      int64 = 0x00000000
	ShiftModifier   int64 = 0x02000000
	ControlModifier int64 = 0x04000000
	AltModifier     int64 = 0x08000000
	MetaModifier    int64 = 0x10000000
	KeypadModifier  int64 = 0x20000000
)

// Drop actions.
const (
	IgnoreAction int64 = 0x0
	CopyAction   int64 = 0x1
	MoveAction   int64 = 0x2
	LinkAction   int64 = 0x4
)

// Keys outside the printable range.
const (
	KeyEscape    int64 = 0x01000000
	KeyTab       int64 = 0x01000001
	KeyBackspace int64 = 0x01000003
	KeyReturn    int64 = 0x01000004
	KeyEnter     int64 = 0x01000005
	KeyLeft      int64 = 0x01000012
	KeyUp        int64 = 0x01000013
	KeyRight     int64 = 0x01000014
	KeyDown      int64 = 0x01000015
	KeyShift     int64 = 0x01000020
	KeyControl   int64 = 0x01000021
	KeySpace     int64 = 0x20
)

// Enum and flags type names.
const (
	TypeEventType         = "Type"
	TypeMouseButton       = "MouseButton"
	TypeMouseButtons      = "MouseButtons"
	TypeKeyboardModifier  = "KeyboardModifier"
	TypeKeyboardModifiers = "KeyboardModifiers"
	TypeDropAction        = "DropAction"
	TypeDropActions       = "DropActions"
	TypeKey               = "Key"
)

func eventTypeEnum() enumname.Enum {
	return enumname.Enum{Type: TypeEventType, Keys: []enumname.Member{
		enumname.Key("None", None),
		enumname.Key("MouseButtonPress", MouseButtonPress),
		enumname.Key("MouseButtonRelease", MouseButtonRelease),
		enumname.Key("MouseButtonDblClick", MouseButtonDblClick),
		enumname.Key("MouseMove", MouseMove),
		enumname.Key("KeyPress", KeyPress),
		enumname.Key("KeyRelease", KeyRelease),
		enumname.Key("FocusIn", FocusIn),
		enumname.Key("FocusOut", FocusOut),
		enumname.Key("Enter", Enter),
		enumname.Key("Leave", Leave),
		enumname.Key("Move", Move),
		enumname.Key("Resize", Resize),
		enumname.Key("Show", Show),
		enumname.Key("Hide", Hide),
		enumname.Key("Close", Close),
		enumname.Key("WindowActivate", WindowActivate),
		enumname.Key("WindowDeactivate", WindowDeactivate),
		enumname.Key("DragEnter", DragEnter),
		enumname.Key("DragMove", DragMove),
		enumname.Key("DragLeave", DragLeave),
		enumname.Key("Drop", Drop),
		enumname.Key("ActivationChange", ActivationChange),
	}}
}

func keyEnum() enumname.Enum {
	keys := []enumname.Member{
		enumname.Key("Key_Escape", KeyEscape),
		enumname.Key("Key_Tab", KeyTab),
		enumname.Key("Key_Backspace", KeyBackspace),
		enumname.Key("Key_Return", KeyReturn),
		enumname.Key("Key_Enter", KeyEnter),
		enumname.Key("Key_Left", KeyLeft),
		enumname.Key("Key_Up", KeyUp),
		enumname.Key("Key_Right", KeyRight),
		enumname.Key("Key_Down", KeyDown),
		enumname.Key("Key_Shift", KeyShift),
		enumname.Key("Key_Control", KeyControl),
		enumname.Key("Key_Space", KeySpace),
	}
	for c := '0'; c <= '9'; c++ {
		keys = append(keys, enumname.Key("Key_"+string(c), int64(c)))
	}
	for c := 'A'; c <= 'Z'; c++ {
		keys = append(keys, enumname.Key("Key_"+string(c), int64(c)))
	}
	return enumname.Enum{Type: TypeKey, Keys: keys}
}

// qtEnums declares the Qt namespace. middleFirst selects which of the two
// spellings of button 4 names the value.
func qtEnums(middleFirst bool) []enumname.Enum {
	middle := []enumname.Member{enumname.Key("MidButton", MiddleButton), enumname.Key("MiddleButton", MiddleButton)}
	if middleFirst {
		middle[0], middle[1] = middle[1], middle[0]
	}
	buttons := append([]enumname.Member{
		enumname.Key("NoButton", NoButton),
		enumname.Key("LeftButton", LeftButton),
		enumname.Key("RightButton", RightButton),
	}, middle...)

	return []enumname.Enum{
		{Type: TypeMouseButton, Keys: buttons},
		{Type: TypeKeyboardModifier, Keys: []enumname.Member{
			enumname.Key("NoModifier", NoModifier),
			enumname.Key("ShiftModifier", ShiftModifier),
			enumname.Key("ControlModifier", ControlModifier),
			enumname.Key("AltModifier", AltModifier),
			enumname.Key("MetaModifier", MetaModifier),
			enumname.Key("KeypadModifier", KeypadModifier),
		}},
		{Type: TypeDropAction, Keys: []enumname.Member{
			enumname.Key("IgnoreAction", IgnoreAction),
			enumname.Key("CopyAction", CopyAction),
			enumname.Key("MoveAction", MoveAction),
			enumname.Key("LinkAction", LinkAction),
		}},
		keyEnum(),
	}
}
