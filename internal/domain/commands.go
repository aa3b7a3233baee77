package domain

// CommandKind identifies a drawing primitive of the display protocol
type CommandKind int

const (
	// CmdSketch enters drawing mode
	CmdSketch CommandKind = iota
	// CmdEncoding declares the text encoding
	CmdEncoding
	// CmdClear clears the whole screen
	CmdClear
	CmdColor
	CmdRect
	CmdLine
	CmdPoint
	CmdText
)

// Colors understood by SetColor
const (
	ColorBackground = 0
	ColorForeground = 1
)

// DrawCommand is a single, immutable drawing instruction.
// Args holds the coordinates; their meaning depends on Kind.
type DrawCommand struct {
	Kind CommandKind
	Args [4]int
	Text string
}

// Sketch enters drawing mode
func Sketch() DrawCommand { return DrawCommand{Kind: CmdSketch} }

// EncodingUTF8 declares UTF-8 text payloads
func EncodingUTF8() DrawCommand { return DrawCommand{Kind: CmdEncoding, Text: "utf8"} }

// Clear clears the whole screen
func Clear() DrawCommand { return DrawCommand{Kind: CmdClear} }

// SetColor selects the background (0) or foreground (1) color
func SetColor(index int) DrawCommand {
	return DrawCommand{Kind: CmdColor, Args: [4]int{index}}
}

// Rect fills a rectangle with the current color
func Rect(x, y, w, h int) DrawCommand {
	return DrawCommand{Kind: CmdRect, Args: [4]int{x, y, w, h}}
}

// Line draws a line between two points
func Line(x1, y1, x2, y2 int) DrawCommand {
	return DrawCommand{Kind: CmdLine, Args: [4]int{x1, y1, x2, y2}}
}

// Point sets a single pixel
func Point(x, y int) DrawCommand {
	return DrawCommand{Kind: CmdPoint, Args: [4]int{x, y}}
}

// Text draws unescaped text with its top-left corner at x,y
func Text(x, y int, s string) DrawCommand {
	return DrawCommand{Kind: CmdText, Args: [4]int{x, y}, Text: s}
}
