package planner

import (
	"context"
	"errors"

	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// Fallback consults Primary and answers from Secondary when Primary fails.
// A cancelled context is returned as-is.
type Fallback struct {
	Primary   Planner
	Secondary Planner
	Logger    *logging.Logger
}

func (f Fallback) Plan(ctx context.Context, req Request) (Plan, error) {
	plan, err := f.Primary.Plan(ctx, req)
	if err == nil || f.Secondary == nil {
		return plan, err
	}
	if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
		return Plan{}, err
	}
	logger := f.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger.Warn("planner fell back to rules", "error", err)
	return f.Secondary.Plan(ctx, req)
}
