package server

import (
	"github.com/GriffinCanCode/alertwatch/internal/history"
	"github.com/GriffinCanCode/alertwatch/internal/monitor"
	"github.com/GriffinCanCode/alertwatch/internal/presenter"
)

// Message types.
type Message struct {
	Type string `json:"type"`
}

// PickMessage asks for the color of one screen pixel.
type PickMessage struct {
	Type string `json:"type"`
	X    int    `json:"x"`
	Y    int    `json:"y"`
}

type PixelMessage struct {
	Type  string `json:"type"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
	Hex   string `json:"hex"`
}

type StatusMessage struct {
	Type   string         `json:"type"`
	Status monitor.Status `json:"status"`
}

type OverlayMessage struct {
	Type   string           `json:"type"`
	Banner presenter.Banner `json:"banner"`
}

type HighlightMessage struct {
	Type      string              `json:"type"`
	Highlight presenter.Highlight `json:"highlight"`
}

type AlertMessage struct {
	Type  string        `json:"type"`
	Event history.Event `json:"event"`
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}
