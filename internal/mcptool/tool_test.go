package mcptool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-genie/internal/llm"
	"github.com/jonathan/resume-genie/internal/pipeline"
)

func stubPipeline(failAt int) *pipeline.Pipeline {
	call := 0
	return pipeline.New(llm.GeneratorFunc(func(_ context.Context, _ string) (string, error) {
		call++
		if call == failAt {
			return "", errors.New("model unavailable")
		}
		return fmt.Sprintf("output %d", call), nil
	}))
}

type memorySink struct{ saved int }

func (s *memorySink) SaveResult(context.Context, *pipeline.Result) error {
	s.saved++
	return nil
}

// rpc sends one JSON-RPC message and decodes the response.
func rpc(t *testing.T, p *pipeline.Pipeline, method string, params any) map[string]any {
	t.Helper()
	s := NewServer(p, nil, "test", nil)
	msg, err := json.Marshal(map[string]any{"jsonrpc": "2.0", "id": 1, "method": method, "params": params})
	require.NoError(t, err)

	resp := s.HandleMessage(context.Background(), msg)
	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func TestInputSchema(t *testing.T) {
	var schema struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	require.NoError(t, json.Unmarshal(InputSchema(), &schema))

	assert.Equal(t, "object", schema.Type)
	assert.ElementsMatch(t, []string{"job_posting", "resume"}, schema.Required)
	assert.Equal(t, "boolean", schema.Properties["include_intermediate"]["type"])
	assert.NotEmpty(t, schema.Properties["resume"]["description"])
}

func TestToolsList(t *testing.T) {
	out := rpc(t, stubPipeline(0), "tools/list", map[string]any{})

	result, ok := out["result"].(map[string]any)
	require.True(t, ok, out)
	tools := result["tools"].([]any)
	require.Len(t, tools, 1)
	tool := tools[0].(map[string]any)
	assert.Equal(t, ToolName, tool["name"])
	assert.Contains(t, tool, "inputSchema")
}

func callTool(t *testing.T, p *pipeline.Pipeline, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Name = ToolName
	req.Params.Arguments = args

	res, err := Handler(p, nil, nil)(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.Len(t, res.Content, 1)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestHandler_FinalOnly(t *testing.T) {
	res := callTool(t, stubPipeline(0), map[string]any{
		"job_posting": "Backend Engineer: Go",
		"resume":      "Jane Doe",
	})
	assert.False(t, res.IsError)

	var out Output
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	assert.Equal(t, pipeline.StatusCompleted, out.Status)
	assert.Equal(t, "output 4", out.Final)
	assert.Empty(t, out.Artifacts)
	assert.NotEmpty(t, out.RunID)
}

func TestHandler_IncludeIntermediate(t *testing.T) {
	res := callTool(t, stubPipeline(0), map[string]any{
		"job_posting":          "Backend Engineer: Go",
		"resume":               "Jane Doe",
		"include_intermediate": true,
	})

	var out Output
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &out))
	require.Len(t, out.Artifacts, 4)
	assert.Equal(t, "polishResume", out.Artifacts[2].Step)
	assert.Equal(t, "output 3", out.Artifacts[2].Text)
}

func TestHandler_Errors(t *testing.T) {
	tests := []struct {
		name   string
		failAt int
		args   map[string]any
		want   string
	}{
		{"missing resume", 0, map[string]any{"job_posting": "Go job"}, "input resume is empty"},
		{"step failure", 2, map[string]any{"job_posting": "Go job", "resume": "Jane"}, "step enhanceProfile failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, stubPipeline(tt.failAt), tt.args)
			assert.True(t, res.IsError)
			assert.Contains(t, text(t, res), tt.want)
		})
	}
}

func TestHandler_SavesRuns(t *testing.T) {
	sink := &memorySink{}
	h := Handler(stubPipeline(3), sink, nil)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"job_posting": "Go job", "resume": "Jane"}
	_, err := h(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 1, sink.saved)
}
