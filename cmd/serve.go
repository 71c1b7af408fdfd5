package cmd

import (
	"context"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/suriyel/AgentFramework/pkg/engine"
	"github.com/suriyel/AgentFramework/pkg/knowledge"
	"github.com/suriyel/AgentFramework/pkg/planner"
	"github.com/suriyel/AgentFramework/pkg/service"
	"github.com/suriyel/AgentFramework/pkg/service/sse"
	"github.com/suriyel/AgentFramework/pkg/stores"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

var (
	addrFlag string

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the task engine services",
		Long:  longServe,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	apiCmd = &cobra.Command{
		Use:   "api",
		Short: "Serve the task engine over REST and SSE",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := tools.NewRegistry()
			tools.RegisterBuiltins(reg)

			broker := sse.NewBroker()
			options := []engine.ManagerOption{
				engine.WithSink(service.NewBrokerSink(broker)),
				engine.WithConfig(engineConfig()),
				engine.WithRetriever(buildRetriever()),
			}

			if archive := buildArchive(cmd.Context()); archive != nil {
				options = append(options, engine.WithArchive(archive))
			}

			manager := engine.NewManager(
				stores.NewInMemoryTaskStore(),
				buildPlanner(reg),
				reg,
				reg,
				options...,
			)
			defer manager.Close()

			addr := addrFlag
			if addr == "" {
				addr = viper.GetString("server.addr")
			}

			srv := service.NewServer(manager, reg, broker, service.WithAddr(addr))
			return srv.Start()
		},
	}

	mcpCmd = &cobra.Command{
		Use:   "mcp",
		Short: "Expose the tool registry over MCP stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			s := server.NewMCPServer(
				projectName,
				"1.0.0",
				server.WithLogging(),
			)

			reg := tools.NewRegistry()
			tools.RegisterBuiltins(reg)
			tools.RegisterMCP(s, reg)
			return server.ServeStdio(s)
		},
	}
)

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.AddCommand(apiCmd)
	serveCmd.AddCommand(mcpCmd)

	apiCmd.Flags().StringVarP(&addrFlag, "addr", "a", "", "Address to listen on (overrides config)")
}

func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()

	if v := viper.GetInt("engine.max_retry"); v > 0 {
		cfg.MaxRetry = v
	}
	if v := viper.GetInt("engine.tool_timeout_seconds"); v > 0 {
		cfg.ToolTimeout = time.Duration(v) * time.Second
	}
	if v := viper.GetInt("engine.planner_timeout_seconds"); v > 0 {
		cfg.PlannerTimeout = time.Duration(v) * time.Second
	}
	if v := viper.GetInt("engine.max_plan_steps"); v > 0 {
		cfg.MaxPlanSteps = v
	}
	if v := viper.GetInt("engine.knowledge_limit"); v > 0 {
		cfg.KnowledgeLimit = v
	}
	return cfg
}

// buildPlanner returns the OpenAI planner when an API key is available,
// otherwise a fallback that echoes the request through a single step.
func buildPlanner(reg *tools.Registry) planner.Planner {
	if os.Getenv("OPENAI_API_KEY") == "" {
		log.Warn("OPENAI_API_KEY not set, using echo planner")
		return planner.Echo{}
	}
	return planner.NewOpenAIPlanner(reg, planner.WithModel(viper.GetString("planner.model")))
}

func buildRetriever() knowledge.Retriever {
	endpoint := viper.GetString("knowledge.endpoint")
	if endpoint == "" {
		return knowledge.NewInMemoryRetriever()
	}
	return knowledge.NewQdrant(endpoint, viper.GetString("knowledge.collection"))
}

func buildArchive(ctx context.Context) *stores.Archive {
	endpoint := viper.GetString("archive.endpoint")
	if endpoint == "" {
		return nil
	}

	archive, err := stores.NewArchive(ctx, stores.ArchiveConfig{
		Endpoint:  endpoint,
		AccessKey: viper.GetString("archive.access_key"),
		SecretKey: viper.GetString("archive.secret_key"),
		Bucket:    viper.GetString("archive.bucket"),
		UseSSL:    viper.GetBool("archive.use_ssl"),
	})
	if err != nil {
		log.Error("archive setup failed, continuing without it", "error", err)
		return nil
	}
	return archive
}

var longServe = `
Serve the task engine.

Examples:
  # Serve the REST API and SSE stream on the configured address
  agent-framework serve api

  # Serve the REST API on a specific address
  agent-framework serve api --addr :8080

  # Expose the builtin tools over MCP stdio
  agent-framework serve mcp
`
