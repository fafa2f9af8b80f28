package grouper

import (
	"lightbox/internal/config"
	"lightbox/internal/confidence"
	"lightbox/internal/grouping"
)

// GroupingParams maps the config section onto the core thresholds.
func GroupingParams(cfg *config.Config) grouping.Params {
	return grouping.Params{
		GapFloorSeconds:      cfg.Grouping.GapFloorSeconds,
		GapBaseSeconds:       cfg.Grouping.GapBaseSeconds,
		GapShutterFactor:     cfg.Grouping.GapShutterFactor,
		ApertureTolerance:    cfg.Grouping.ApertureTolerance,
		FocalToleranceMM:     cfg.Grouping.FocalToleranceMM,
		MaxStackSize:         cfg.Grouping.MaxStackSize,
		DirectionThresholdEV: cfg.Grouping.DirectionThresholdEV,
		ReversalThresholdEV:  cfg.Grouping.ReversalThresholdEV,
		RestartThresholdEV:   cfg.Grouping.RestartThresholdEV,
	}
}

// ConfidenceParams maps the config section onto the scorer thresholds.
func ConfidenceParams(cfg *config.Config) confidence.Params {
	return confidence.Params{
		HDREVRange: cfg.Confidence.HDREVRange,
		Gap:        GroupingParams(cfg),
	}
}
