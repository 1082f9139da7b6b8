package admin

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloo-solutions/pulsetrack/internal/config"
	"github.com/cloo-solutions/pulsetrack/internal/database"
	"github.com/cloo-solutions/pulsetrack/internal/repository"
	"github.com/cloo-solutions/pulsetrack/internal/service"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func MemberCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "member",
		Short: "Manage team members",
		Long:  "Register and list team members",
	}

	cmd.AddCommand(MemberCreateCmd())
	cmd.AddCommand(MemberListCmd())
	cmd.AddCommand(MemberDeleteCmd())

	return cmd
}

func MemberCreateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create <name> <email>",
		Short: "Register a new team member",
		Long:  "Register a new team member with the specified name and email",
		Args:  cobra.ExactArgs(2),
		RunE:  runMemberCreate,
	}

	cmd.Flags().StringP("role", "r", "", "Member role (e.g. engineer, designer)")
	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")

	return cmd
}

func runMemberCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	role, _ := cmd.Flags().GetString("role")
	outputFormat, _ := cmd.Flags().GetString("output")

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	memberSvc := service.NewMemberService(memberRepo)

	member, err := memberSvc.Create(ctx, service.CreateMemberInput{
		Name:  args[0],
		Email: args[1],
		Role:  role,
	})
	if err != nil {
		return fmt.Errorf("failed to create team member: %w", err)
	}

	if outputFormat == "json" {
		data := map[string]interface{}{
			"id":         member.ID,
			"name":       member.Name,
			"email":      member.Email,
			"role":       member.Role,
			"created_at": member.CreatedAt,
		}
		jsonBytes, _ := json.MarshalIndent(data, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		fmt.Printf("Team member created: %s <%s> (%s)\n", member.Name, member.Email, member.ID)
	}

	return nil
}

func MemberListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List team members",
		Long:  "List registered team members",
		RunE: func(cmd *cobra.Command, args []string) error {
			outputFormat, _ := cmd.Flags().GetString("output")
			return runMemberList(outputFormat, limit, cursor)
		},
	}

	cmd.Flags().StringP("output", "o", "text", "Output format (text or json)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")

	return cmd
}

func runMemberList(outputFormat string, limit int, cursor string) error {
	ctx := context.Background()

	pool, err := getDBPool(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	memberRepo := repository.NewMemberRepository(pool)
	memberSvc := service.NewMemberService(memberRepo)

	result, err := memberSvc.List(ctx, service.ListMembersInput{Cursor: cursor, Limit: limit})
	if err != nil {
		return fmt.Errorf("failed to list team members: %w", err)
	}

	if outputFormat == "json" {
		data := make([]map[string]interface{}, len(result.Items))
		for i, member := range result.Items {
			data[i] = map[string]interface{}{
				"id":         member.ID,
				"name":       member.Name,
				"email":      member.Email,
				"role":       member.Role,
				"created_at": member.CreatedAt,
			}
		}
		output := map[string]interface{}{
			"items":    data,
			"cursor":   result.Cursor,
			"has_more": result.HasMore,
		}
		jsonBytes, _ := json.MarshalIndent(output, "", "  ")
		fmt.Println(string(jsonBytes))
	} else {
		if len(result.Items) == 0 {
			fmt.Println("No team members found")
			return nil
		}
		fmt.Println("Team members:")
		for _, member := range result.Items {
			fmt.Printf("  %s: %s <%s> (joined: %s)\n", member.ID, member.Name, member.Email, member.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		if result.HasMore && result.Cursor != "" {
			fmt.Printf("\nMore results available. Use --cursor %s\n", result.Cursor)
		}
	}

	return nil
}

func MemberDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a team member",
		Long:  "Remove a team member along with their status updates and index records",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()

			pool, err := getDBPool(ctx)
			if err != nil {
				return err
			}
			defer pool.Close()

			memberRepo := repository.NewMemberRepository(pool)
			memberSvc := service.NewMemberService(memberRepo)

			if err := memberSvc.Delete(ctx, args[0]); err != nil {
				return fmt.Errorf("failed to delete team member: %w", err)
			}

			fmt.Printf("Team member %s deleted\n", args[0])
			return nil
		},
	}
}

func getDBPool(ctx context.Context) (*pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	pool, err := database.NewPool(ctx, database.Config{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return pool, nil
}
