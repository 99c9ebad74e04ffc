package domain

// DisplayState is the visibility state of the head-mounted overlay.
type DisplayState string

const (
	DisplayHidden   DisplayState = "hidden"
	DisplayCompact  DisplayState = "compact"
	DisplayExpanded DisplayState = "expanded"
)
