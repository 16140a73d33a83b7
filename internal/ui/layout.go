package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which the header drops
	// secondary details.
	LayoutCompactWidth = 90

	// LayoutBadgeWidth is the minimum width to show the stock badge column.
	LayoutBadgeWidth = 80
)

// Grid column widths in cells. The name column takes what is left.
const (
	colIDWidth           = 6
	colPriceWidth        = 14
	colStockWidth        = 12
	colDiscontinuedWidth = 16
	colBadgeWidth        = 14
	colMinNameWidth      = 12
	colGap               = 1
)

// Page size bounds for the +/- keys.
const (
	minPageSize = 1
	maxPageSize = 100
)

// Timing constants.
const (
	// LoadTimeout bounds a single reload from the source.
	LoadTimeout = 10 * time.Second

	// WriteTimeout bounds a save or remove including write-back.
	WriteTimeout = 10 * time.Second

	// ReloadThrottle is the minimum time between reloads triggered by
	// writes that found their record gone.
	ReloadThrottle = 2 * time.Second
)
