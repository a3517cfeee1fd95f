// Package mcptool exposes the pipeline as a Model Context Protocol tool
// served over stdio.
package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"log/slog"

	"github.com/invopop/jsonschema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jonathan/resume-genie/internal/pipeline"
)

// ToolName is the name clients call.
const ToolName = "tailor_resume"

const toolDescription = "Tailor a resume to a job posting. Runs four steps (analyze requirements, " +
	"enhance profile, polish resume, prepare interview) and returns the interview guide. " +
	"Set include_intermediate to also get every step's output."

// Args are the tool arguments.
type Args struct {
	JobPosting          string `json:"job_posting" jsonschema_description:"Full text of the job posting"`
	Resume              string `json:"resume" jsonschema_description:"Full text of the candidate's resume"`
	IncludeIntermediate bool   `json:"include_intermediate,omitempty" jsonschema_description:"Return the output of every step, not only the final one"`
}

// Output is the JSON text returned by the tool.
type Output struct {
	RunID     string                  `json:"run_id"`
	Status    pipeline.Status         `json:"status"`
	Final     string                  `json:"final"`
	Artifacts []pipeline.ArtifactView `json:"artifacts,omitempty"`
}

// InputSchema reflects the JSON schema of Args.
func InputSchema() json.RawMessage {
	r := &jsonschema.Reflector{DoNotReference: true, Anonymous: true}
	s := r.Reflect(&Args{})
	s.Version = ""
	data, err := json.Marshal(s)
	if err != nil {
		// Args is a fixed struct of strings and bools
		panic(err)
	}
	return data
}

// Tool returns the tool definition.
func Tool() mcp.Tool {
	return mcp.NewToolWithRawSchema(ToolName, toolDescription, InputSchema())
}

// Handler runs the pipeline for one tool call. Run failures are reported as
// tool errors rather than protocol errors. sink may be nil.
func Handler(p *pipeline.Pipeline, sink pipeline.Sink, logger *slog.Logger) server.ToolHandlerFunc {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args Args
		if err := request.BindArguments(&args); err != nil {
			return mcp.NewToolResultErrorFromErr("invalid arguments", err), nil
		}

		res, err := p.Run(ctx, args.JobPosting, args.Resume)
		if res != nil && sink != nil {
			if serr := sink.SaveResult(context.WithoutCancel(ctx), res); serr != nil {
				logger.Error("failed to save run", "run_id", res.RunID.String(), "error", serr)
			}
		}
		if err != nil {
			var genErr *pipeline.GenerationError
			if errors.As(err, &genErr) {
				logger.Warn("tool run failed", "step", genErr.Step.String(), "error", err)
			}
			return mcp.NewToolResultError(err.Error()), nil
		}

		view := res.View()
		out := Output{RunID: view.RunID, Status: view.Status, Final: view.Final}
		if args.IncludeIntermediate {
			out.Artifacts = view.Artifacts
		}
		data, err := json.MarshalIndent(out, "", "  ")
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

// NewServer builds an MCP server offering the tool.
func NewServer(p *pipeline.Pipeline, sink pipeline.Sink, version string, logger *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("resume-genie", version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	s.AddTool(Tool(), Handler(p, sink, logger))
	return s
}

// Serve speaks MCP over in and out until ctx is done or in closes. Protocol
// errors go to errLog.
func Serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer, errLog *log.Logger) error {
	stdio := server.NewStdioServer(s)
	if errLog != nil {
		stdio.SetErrorLogger(errLog)
	}
	return stdio.Listen(ctx, in, out)
}
