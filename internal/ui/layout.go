package ui

// Panel layout.
const (
	// ToolbarHeight is the number of rows the toolbar takes when shown.
	ToolbarHeight = 1

	// MenuHeight is the number of rows the menu bar takes at the bottom.
	MenuHeight = 1

	// HorizontalStep is how many cells a left/right scroll moves.
	HorizontalStep = 8
)

// Appearance limits.
const (
	// OpacityStep is how much +/- changes the panel opacity.
	OpacityStep = 0.05

	// FilterCharLimit caps the filter input.
	FilterCharLimit = 200
)
