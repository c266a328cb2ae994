package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/avelis/timecap/internal/capsule"
	"github.com/avelis/timecap/internal/config"
	"github.com/avelis/timecap/internal/errors"
	"github.com/avelis/timecap/internal/ops"
)

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	db  *sql.DB
	cfg *config.Config
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *sql.DB, cfg *config.Config) *Handlers {
	return &Handlers{db: db, cfg: cfg}
}

// Request types for each tool

// CreateRequest represents the arguments for timeline_create.
type CreateRequest struct {
	Name string `json:"name"`
}

// LoadRequest represents the arguments for timeline_load.
type LoadRequest struct {
	ID string `json:"id"`
}

// SaveRequest represents the arguments for timeline_save.
type SaveRequest struct {
	ID       string `json:"id"`
	Capsules string `json:"capsules"` // JSON array of capsule objects
}

// DeleteRequest represents the arguments for timeline_delete.
type DeleteRequest struct {
	ID string `json:"id"`
}

// RenameRequest represents the arguments for timeline_rename.
type RenameRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AddCapsuleRequest represents the arguments for capsule_add.
type AddCapsuleRequest struct {
	TimelineID  string  `json:"timeline_id"`
	Year        float64 `json:"year"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	MediaURL    string  `json:"media_url,omitempty"`
	Mood        string  `json:"mood,omitempty"`
	Milestone   bool    `json:"milestone,omitempty"`
	Tags        string  `json:"tags,omitempty"` // comma-separated
}

// ShareRequest represents the arguments for timeline_share.
type ShareRequest struct {
	TimelineID  string `json:"timeline_id"`
	Name        string `json:"name,omitempty"`
	Bio         string `json:"bio,omitempty"`
	ProfilePic  string `json:"profile_pic,omitempty"`
	ExternalURL string `json:"external_url,omitempty"`
}

// ExportRequest represents the arguments for timeline_export.
type ExportRequest struct {
	TimelineID string `json:"timeline_id"`
	Path       string `json:"path,omitempty"`
	Shareable  bool   `json:"shareable,omitempty"`
}

// ImportRequest represents the arguments for timeline_import.
type ImportRequest struct {
	Path string `json:"path"`
	Name string `json:"name,omitempty"`
}

// Handler implementations

// HandleCreate handles the timeline_create tool call.
func (h *Handlers) HandleCreate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CreateRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Create(h.db, ops.CreateInput{Name: input.Name})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleList handles the timeline_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result, err := ops.List(h.db)
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLoad handles the timeline_load tool call.
func (h *Handlers) HandleLoad(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LoadRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Load(h.db, ops.LoadInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleSave handles the timeline_save tool call.
func (h *Handlers) HandleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[SaveRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	var capsules []capsule.Capsule
	if strings.TrimSpace(input.Capsules) != "" {
		if err := json.Unmarshal([]byte(input.Capsules), &capsules); err != nil {
			return errorResult(errors.NewInvalidPayload("capsules must be a JSON array of capsule objects")), nil
		}
	}

	result, err := ops.Save(h.db, ops.SaveInput{
		ID:       input.ID,
		Capsules: capsules,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the timeline_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(h.db, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleRename handles the timeline_rename tool call.
func (h *Handlers) HandleRename(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RenameRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Rename(h.db, ops.RenameInput{
		ID:   input.ID,
		Name: input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleAddCapsule handles the capsule_add tool call.
func (h *Handlers) HandleAddCapsule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[AddCapsuleRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.AddCapsule(h.db, ops.AddCapsuleInput{
		TimelineID:  input.TimelineID,
		Year:        int(input.Year),
		Title:       input.Title,
		Description: input.Description,
		MediaURL:    input.MediaURL,
		Mood:        input.Mood,
		Milestone:   input.Milestone,
		Tags:        splitTags(input.Tags),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleShare handles the timeline_share tool call.
func (h *Handlers) HandleShare(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ShareRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Share(h.db, h.cfg, ops.ShareInput{
		TimelineID:  input.TimelineID,
		Name:        input.Name,
		Bio:         input.Bio,
		ProfilePic:  input.ProfilePic,
		ExternalURL: input.ExternalURL,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the timeline_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(h.db, h.cfg, ops.ExportInput{
		TimelineID: input.TimelineID,
		Path:       input.Path,
		Shareable:  input.Shareable,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the timeline_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(h.db, h.cfg, ops.ImportInput{
		Path: input.Path,
		Name: input.Name,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// splitTags turns a comma-separated tag string into a cleaned slice.
func splitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// Result helpers

// errorResult creates an MCP error result from any error.
// Uses IsError: true so MCP clients recognize failures properly.
// Note: Internal error details are not exposed to prevent leaking sensitive info.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := err.(*errors.Error); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Details stay internal for INTERNAL errors: they can carry file
		// paths or SQL fragments.
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    "INTERNAL",
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
