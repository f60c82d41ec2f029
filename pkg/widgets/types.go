package widgets

// Widget type names used by the demo applications and the synthetic input.
const (
	TypeMainWindow = "QMainWindow"
	TypeDialog     = "QDialog"
	TypeWidget     = "QWidget"
	TypePushButton = "QPushButton"
	TypeLabel      = "QLabel"
	TypeLineEdit   = "QLineEdit"
	TypeCheckBox   = "QCheckBox"
)
