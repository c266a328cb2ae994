package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool definitions. Capsule lists cross the MCP boundary as JSON strings
// and tags as comma-separated strings; both are decoded handler-side.

var createToolDef = mcp.NewTool("timeline_create",
	mcp.WithDescription("Create a new empty timeline. Returns its id."),
	mcp.WithString("name", mcp.Required(),
		mcp.Description("Display name for the timeline (max 100 characters)")),
)

var listToolDef = mcp.NewTool("timeline_list",
	mcp.WithDescription("List all stored timelines, most recently updated first."),
)

var loadToolDef = mcp.NewTool("timeline_load",
	mcp.WithDescription("Load a timeline with its capsules, sorted by year. A missing timeline returns an empty capsule list."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Timeline id")),
)

var saveToolDef = mcp.NewTool("timeline_save",
	mcp.WithDescription("Replace a timeline's full capsule list."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Timeline id")),
	mcp.WithString("capsules", mcp.Required(),
		mcp.Description("JSON array of capsule objects")),
)

var deleteToolDef = mcp.NewTool("timeline_delete",
	mcp.WithDescription("Delete a timeline. Deleting a missing timeline is a no-op."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Timeline id")),
)

var renameToolDef = mcp.NewTool("timeline_rename",
	mcp.WithDescription("Rename a timeline."),
	mcp.WithString("id", mcp.Required(),
		mcp.Description("Timeline id")),
	mcp.WithString("name", mcp.Required(),
		mcp.Description("New display name (max 100 characters)")),
)

var addCapsuleToolDef = mcp.NewTool("capsule_add",
	mcp.WithDescription("Add a capsule to a timeline. Each year can hold at most one capsule."),
	mcp.WithString("timeline_id", mcp.Required(),
		mcp.Description("Timeline id")),
	mcp.WithNumber("year", mcp.Required(),
		mcp.Description("Year the capsule is pinned to (1900-2200)")),
	mcp.WithString("title", mcp.Required(),
		mcp.Description("Short label (max 100 characters)")),
	mcp.WithString("description",
		mcp.Description("Free-form text, rendered as markdown (max 1000 characters)")),
	mcp.WithString("media_url",
		mcp.Description("http(s) URL or data: URI for attached media; type is detected automatically")),
	mcp.WithString("mood",
		mcp.Description("One of: happy, sad, excited, nostalgic, proud, neutral")),
	mcp.WithBoolean("milestone",
		mcp.Description("Mark the capsule as a highlighted entry")),
	mcp.WithString("tags",
		mcp.Description("Comma-separated list of tags")),
)

var shareToolDef = mcp.NewTool("timeline_share",
	mcp.WithDescription("Build a shareable URL for a timeline. If the link would be too long, needsExternalUrl is set and the caller should host the JSON export and retry with external_url."),
	mcp.WithString("timeline_id", mcp.Required(),
		mcp.Description("Timeline id")),
	mcp.WithString("name",
		mcp.Description("Author name shown to viewers")),
	mcp.WithString("bio",
		mcp.Description("Author bio shown to viewers")),
	mcp.WithString("profile_pic",
		mcp.Description("Author profile picture URL")),
	mcp.WithString("external_url",
		mcp.Description("URL of an externally hosted JSON export; skips inline encoding")),
)

var exportToolDef = mcp.NewTool("timeline_export",
	mcp.WithDescription("Export a timeline to a JSON file."),
	mcp.WithString("timeline_id", mcp.Required(),
		mcp.Description("Timeline id")),
	mcp.WithString("path",
		mcp.Description("Destination path (.json, default: ~/.timecap/exports/<name>-<timestamp>.json)")),
	mcp.WithBoolean("shareable",
		mcp.Description("Strip embedded data: media, matching the inline share payload")),
)

var importToolDef = mcp.NewTool("timeline_import",
	mcp.WithDescription("Import a timeline JSON file as a new timeline. Malformed capsules are dropped with a warning."),
	mcp.WithString("path", mcp.Required(),
		mcp.Description("Source path (.json)")),
	mcp.WithString("name",
		mcp.Description("Name for the imported timeline (default: derived from filename)")),
)
