package orchestration

import (
	"github.com/agbru/qarithcheck/internal/campaign"
	"github.com/agbru/qarithcheck/internal/config"
	apperrors "github.com/agbru/qarithcheck/internal/errors"
)

// CircuitsToRun resolves the configured selection against cat, in
// registry order for "all", and applies the run-wide overrides: configured
// widths replace every sweep and disabled superposition drops the
// superposition widths.
func CircuitsToRun(cfg config.AppConfig, cat campaign.Catalog) ([]campaign.Circuit, error) {
	circuits, err := campaign.Select(cat, cfg.Circuits)
	if err != nil {
		return nil, apperrors.NewConfigError("%v", err)
	}
	for i := range circuits {
		c := &circuits[i]
		if len(cfg.Widths) > 0 {
			c.Widths = append([]int(nil), cfg.Widths...)
		}
		if !cfg.Superposition {
			c.Superposition = nil
		}
		if err := c.Validate(); err != nil {
			return nil, apperrors.NewConfigError("campaign %s: %v", c.Name, err)
		}
	}
	return circuits, nil
}
