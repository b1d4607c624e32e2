package bootstrap

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/ai-receptionist/internal/config"
	"github.com/wolfman30/ai-receptionist/internal/planner"
	"github.com/wolfman30/ai-receptionist/pkg/logging"
)

// BuildPlanner wires the configured planner backend. Model-backed planners
// fall back to the rule planner when the model call fails. The returned
// cleanup func is never nil.
func BuildPlanner(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (planner.Planner, func(), error) {
	noop := func() {}
	if cfg == nil {
		return nil, noop, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	switch backend := cfg.Planner(); backend {
	case "gemini":
		gen, err := planner.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, noop, fmt.Errorf("bootstrap: gemini planner: %w", err)
		}
		logger.Info("planner: gemini", "model", cfg.GeminiModel)
		return withRules(planner.NewLLMPlanner(gen, cfg.BusinessName, logger), logger), func() { _ = gen.Close() }, nil
	case "bedrock":
		if awsCfg == nil {
			return nil, noop, fmt.Errorf("bootstrap: bedrock planner requires aws config")
		}
		gen := planner.NewBedrockGenerator(bedrockruntime.NewFromConfig(*awsCfg), cfg.BedrockModelID)
		logger.Info("planner: bedrock", "model", cfg.BedrockModelID)
		return withRules(planner.NewLLMPlanner(gen, cfg.BusinessName, logger), logger), noop, nil
	case "rules":
		logger.Warn("planner: rules only (no LLM configured)")
		return planner.RulePlanner{}, noop, nil
	default:
		return nil, noop, fmt.Errorf("bootstrap: unknown planner %q", backend)
	}
}

func withRules(primary planner.Planner, logger *logging.Logger) planner.Planner {
	return planner.Fallback{Primary: primary, Secondary: planner.RulePlanner{}, Logger: logger}
}
