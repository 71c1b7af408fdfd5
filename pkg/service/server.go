package service

import (
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/cohesivestack/valgo"
	"github.com/gofiber/fiber/v3"
	fiberadaptor "github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/suriyel/AgentFramework/pkg/engine"
	"github.com/suriyel/AgentFramework/pkg/errors"
	"github.com/suriyel/AgentFramework/pkg/service/sse"
	"github.com/suriyel/AgentFramework/pkg/tools"
)

/*
Server exposes the task engine over REST plus an SSE stream of task
snapshots. It is safe for concurrent use; all task mutation goes through the
manager, which serializes it per task.
*/
type Server struct {
	app     *fiber.App
	manager *engine.Manager
	lookup  tools.Lookup
	broker  *sse.Broker
	addr    string
}

type ServerOption func(*Server)

func WithAddr(addr string) ServerOption {
	return func(srv *Server) { srv.addr = addr }
}

func NewServer(manager *engine.Manager, lookup tools.Lookup, broker *sse.Broker, options ...ServerOption) *Server {
	srv := &Server{
		app: fiber.New(fiber.Config{
			AppName:           "agent-framework",
			ServerHeader:      "Agent-Framework-Server",
			StreamRequestBody: true,
		}),
		manager: manager,
		lookup:  lookup,
		broker:  broker,
		addr:    ":3210",
	}

	for _, option := range options {
		option(srv)
	}

	srv.register()
	return srv
}

// App exposes the underlying fiber app, mainly for in-process testing.
func (srv *Server) App() *fiber.App {
	return srv.app
}

func (srv *Server) Start() error {
	log.Info("server starting", "addr", srv.addr)
	return srv.app.Listen(srv.addr, fiber.ListenConfig{DisableStartupMessage: true})
}

func (srv *Server) Shutdown() error {
	srv.broker.Close()
	return srv.app.Shutdown()
}

func (srv *Server) register() {
	srv.app.Use(logger.New(logger.Config{
		// Skip logging for the /events endpoint to reduce noise
		Next: func(c fiber.Ctx) bool {
			return c.Path() == "/events"
		},
	}), healthcheck.New())

	srv.app.Get("/", func(ctx fiber.Ctx) error { return ctx.SendString("OK") })
	srv.app.Get("/events", srv.handleEvents)
	srv.app.Get("/tools", srv.handleListTools)

	srv.app.Post("/tasks", srv.handleCreateTask)
	srv.app.Get("/tasks", srv.handleListTasks)
	srv.app.Get("/tasks/:id", srv.handleGetTask)
	srv.app.Post("/tasks/:id/resume", srv.handleResumeTask)
	srv.app.Post("/tasks/:id/cancel", srv.handleCancelTask)
}

func (srv *Server) handleEvents(ctx fiber.Ctx) error {
	handler := func(w http.ResponseWriter, r *http.Request) {
		srv.broker.Subscribe(w, r)
	}
	return fiberadaptor.HTTPHandler(http.HandlerFunc(handler))(ctx)
}

func (srv *Server) handleListTools(ctx fiber.Ctx) error {
	return ctx.JSON(fiber.Map{"tools": srv.lookup.Descriptors()})
}

// CreateTaskRequest is the POST /tasks payload.
type CreateTaskRequest struct {
	UserInput      string `json:"userInput"`
	ConversationID string `json:"conversationId,omitempty"`
}

func (srv *Server) handleCreateTask(ctx fiber.Ctx) error {
	var req CreateTaskRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return srv.rpcError(ctx, errors.ErrInvalidRequest.WithMessagef("invalid request body: %v", err))
	}

	val := valgo.Is(valgo.String(req.UserInput, "userInput").Not().Blank())
	if !val.Valid() {
		return ctx.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"code":    errors.ErrInvalidParams.Code,
			"message": errors.ErrInvalidParams.Message,
			"data":    val.Error(),
		})
	}

	snapshot, rpcErr := srv.manager.CreateTask(ctx.Context(), req.UserInput, req.ConversationID)
	if rpcErr != nil {
		return srv.rpcError(ctx, rpcErr)
	}
	return ctx.Status(fiber.StatusCreated).JSON(snapshot)
}

func (srv *Server) handleListTasks(ctx fiber.Ctx) error {
	snapshots, rpcErr := srv.manager.ListTasks(ctx.Context())
	if rpcErr != nil {
		return srv.rpcError(ctx, rpcErr)
	}
	return ctx.JSON(fiber.Map{"tasks": snapshots})
}

func (srv *Server) handleGetTask(ctx fiber.Ctx) error {
	snapshot, rpcErr := srv.manager.GetTask(ctx.Context(), ctx.Params("id"))
	if rpcErr != nil {
		return srv.rpcError(ctx, rpcErr)
	}
	return ctx.JSON(snapshot)
}

// ResumeTaskRequest is the POST /tasks/:id/resume payload.
type ResumeTaskRequest struct {
	Input map[string]any `json:"input"`
}

func (srv *Server) handleResumeTask(ctx fiber.Ctx) error {
	var req ResumeTaskRequest
	if err := ctx.Bind().Body(&req); err != nil {
		return srv.rpcError(ctx, errors.ErrInvalidRequest.WithMessagef("invalid request body: %v", err))
	}
	if len(req.Input) == 0 {
		return srv.rpcError(ctx, errors.ErrInvalidParams.WithMessagef("input must not be empty"))
	}

	snapshot, rpcErr := srv.manager.Resume(ctx.Context(), ctx.Params("id"), req.Input)
	if rpcErr != nil {
		return srv.rpcError(ctx, rpcErr)
	}
	return ctx.JSON(snapshot)
}

func (srv *Server) handleCancelTask(ctx fiber.Ctx) error {
	snapshot, rpcErr := srv.manager.Cancel(ctx.Context(), ctx.Params("id"))
	if rpcErr != nil {
		return srv.rpcError(ctx, rpcErr)
	}
	return ctx.JSON(snapshot)
}

func (srv *Server) rpcError(ctx fiber.Ctx, rpcErr *errors.RpcError) error {
	log.Error("request failed", "path", ctx.Path(), "code", rpcErr.Code, "message", rpcErr.Message)
	return ctx.Status(httpStatus(rpcErr)).JSON(rpcErr)
}

// httpStatus maps engine error codes onto HTTP statuses.
func httpStatus(rpcErr *errors.RpcError) int {
	switch rpcErr.Code {
	case errors.ErrTaskNotFound.Code:
		return fiber.StatusNotFound
	case errors.ErrInvalidRequest.Code, errors.ErrInvalidParams.Code:
		return fiber.StatusBadRequest
	case errors.ErrTaskNotSuspended.Code, errors.ErrTaskExists.Code:
		return fiber.StatusConflict
	default:
		return fiber.StatusInternalServerError
	}
}
