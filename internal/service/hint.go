package service

import (
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/d60-Lab/green-credits/internal/model"
)

// HintGenerator produces a reviewer hint for a claim. It is local and
// synchronous; intake discards its errors.
type HintGenerator interface {
	Analyze(actionCode, description string, occurredAt time.Time) (model.HintReport, error)
}

const (
	baselineConfidence = 0.7
	minConfidence      = 0.1
	maxConfidence      = 0.99
	staleAfter         = 7 * 24 * time.Hour
)

var actionKeywords = map[string][]string{
	"BIKE_TO_CAMPUS":    {"bike", "cycling", "ride"},
	"PUBLIC_TRANSIT":    {"bus", "train", "ticket"},
	"ENERGY_SCREENSHOT": {"kwh", "bill", "usage"},
}

// HeuristicHints scores a claim description with keyword and date checks.
type HeuristicHints struct {
	clock clockwork.Clock
}

func NewHeuristicHints(clock clockwork.Clock) *HeuristicHints {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &HeuristicHints{clock: clock}
}

func (h *HeuristicHints) Analyze(actionCode, description string, occurredAt time.Time) (model.HintReport, error) {
	report := model.HintReport{
		LabelGuess:      actionCode,
		Confidence:      baselineConfidence,
		ExtractedFields: map[string]string{},
		Warnings:        []string{},
	}
	desc := strings.ToLower(description)

	if containsAny(desc, actionKeywords[actionCode]...) {
		report.Confidence += 0.2
	}
	if actionCode == "BIKE_TO_CAMPUS" && containsAny(desc, "strava", "map") {
		report.ExtractedFields["tracking_app"] = "Possible Strava reference"
	}

	age := h.clock.Now().Sub(occurredAt)
	switch {
	case age < 0:
		report.Warnings = append(report.Warnings, "Date is in the future")
		report.Confidence -= 0.5
	case age > staleAfter:
		report.Warnings = append(report.Warnings, "Claim is older than 7 days")
		report.Confidence -= 0.1
	}

	report.Confidence = min(maxConfidence, max(minConfidence, report.Confidence))
	return report, nil
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
