package bravia

// RemoteCode is a base64-encoded IRCC code understood by the TV's
// remote-control SOAP endpoint.
type RemoteCode string

// IRCC codes for the simulated remote buttons.
const (
	CodeUp          RemoteCode = "AAAAAQAAAAEAAAB0Aw=="
	CodeDown        RemoteCode = "AAAAAQAAAAEAAAB1Aw=="
	CodeLeft        RemoteCode = "AAAAAQAAAAEAAAA0Aw=="
	CodeRight       RemoteCode = "AAAAAQAAAAEAAAAzAw=="
	CodeConfirm     RemoteCode = "AAAAAQAAAAEAAABlAw=="
	CodeReturn      RemoteCode = "AAAAAgAAAJcAAAAjAw=="
	CodeHome        RemoteCode = "AAAAAQAAAAEAAABgAw=="
	CodeMenu        RemoteCode = "AAAAAQAAAAEAAAAbAw=="
	CodeOptions     RemoteCode = "AAAAAgAAAAEAAAA2Aw=="
	CodeInput       RemoteCode = "AAAAAQAAAAEAAAAlAw=="
	CodeVolumeUp    RemoteCode = "AAAAAQAAAAEAAAASAw=="
	CodeVolumeDown  RemoteCode = "AAAAAQAAAAEAAAATAw=="
	CodeMute        RemoteCode = "AAAAAQAAAAEAAAAUAw=="
	CodeChannelUp   RemoteCode = "AAAAAQAAAAEAAAAQAw=="
	CodeChannelDown RemoteCode = "AAAAAQAAAAEAAAARAw=="
	CodePlay        RemoteCode = "AAAAAgAAAAEAAAAaAw=="
	CodePause       RemoteCode = "AAAAAgAAAAEAAAAZAw=="
	CodeStop        RemoteCode = "AAAAAgAAAAEAAAAYAw=="
)

// RemoteCommands maps the API's button vocabulary to IRCC codes.
// "Back" is an alias the frontend uses for Return.
var RemoteCommands = map[string]RemoteCode{
	"Up":          CodeUp,
	"Down":        CodeDown,
	"Left":        CodeLeft,
	"Right":       CodeRight,
	"Confirm":     CodeConfirm,
	"Return":      CodeReturn,
	"Back":        CodeReturn,
	"Home":        CodeHome,
	"Menu":        CodeMenu,
	"Options":     CodeOptions,
	"Input":       CodeInput,
	"VolumeUp":    CodeVolumeUp,
	"VolumeDown":  CodeVolumeDown,
	"Mute":        CodeMute,
	"ChannelUp":   CodeChannelUp,
	"ChannelDown": CodeChannelDown,
	"Play":        CodePlay,
	"Pause":       CodePause,
	"Stop":        CodeStop,
}
