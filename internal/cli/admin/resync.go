package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/pulsetrack/internal/config"
	"github.com/cloo-solutions/pulsetrack/internal/llm"
	"github.com/cloo-solutions/pulsetrack/internal/repository"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/cloo-solutions/pulsetrack/internal/vector"
	"github.com/spf13/cobra"
)

func ResyncCmd() *cobra.Command {
	var memberID string

	cmd := &cobra.Command{
		Use:   "resync",
		Short: "Rebuild the vector index",
		Long:  "Re-embed status updates from the relational store and upsert them into the vector index",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runResync(outputFormat, memberID)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().StringVarP(&memberID, "member", "m", "", "Limit the resync to one team member's updates")

	return cmd
}

func runResync(outputFormat, memberID string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	updateRepo := repository.NewStatusUpdateRepository(pool)
	vectorRepo := repository.NewVectorRecordRepository(pool)

	llmClient := llm.NewClient(llm.Config{
		BaseURL:             cfg.LLMBaseURL,
		APIKey:              cfg.LLMAPIKey,
		Model:               cfg.LLMModel,
		EmbeddingModel:      cfg.EmbeddingModel,
		EmbeddingDimensions: cfg.EmbeddingDims,
		Timeout:             cfg.LLMTimeout(),
	})
	index := vector.NewIndex(llmClient, vectorRepo)

	insightsSvc := service.NewInsightsService(updateRepo, memberRepo, index, llmClient)

	result, err := insightsSvc.Resync(ctx, service.ResyncInput{MemberID: memberID})
	if err != nil {
		return fmt.Errorf("resync failed: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"total":  result.Total,
			"synced": result.Synced,
			"failed": result.Failed,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Resync complete: %d updates, %d synced, %d failed\n", result.Total, result.Synced, result.Failed)
	}

	return nil
}
