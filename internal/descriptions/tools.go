package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	ReleaseParseFileDescription = `Parse a release-note PDF into structured change entries without archiving it.

**When to use:** You want to see what the extractor makes of a document before storing it, or you only need the entries once.

**What you get:** Product version, TLS (OpenSSL) and SSH (OpenSSH) component versions, and the change-log entries rendered as "[Label] Category * Description (Ticket)", grouped into improvements and issues.

**Examples:**
• Preview a new note: "Parse TrusGuard_v3.1.3.11_ReleaseNote.pdf and show the improvements"
• Check a component bump: "Which OpenSSL version ships with the 3.1.3.11 note?"

**Best practices:** Paths are relative to the archive directory. Use release_ingest_file once the preview looks right.`

	ReleaseIngestFileDescription = `Parse a release-note PDF and archive it under its product version.

**When to use:** Adding a new release note to the searchable archive.

**Behavior:** A version that is already archived is reported as a duplicate and left untouched. Delete it first to re-import.

**Examples:**
• "Ingest 2024/TrusGuard_v3.1.3.11_ReleaseNote.pdf"

**Best practices:** Run release_find_files first to discover candidate documents.`

	ReleaseIngestDirectoryDescription = `Archive every release-note PDF in the archive directory whose file name matches a query.

**When to use:** Bulk import of a folder of release notes.

**Behavior:** Each file is parsed and archived independently. Failures and duplicate versions are reported per file and do not stop the batch.

**Examples:**
• Import everything: query left empty
• Import one product line: "Ingest all files matching 'trusguard 3.1'"`

	ReleaseFindFilesDescription = `List release-note PDFs in the archive directory.

**When to use:** Discover which documents are available for parsing or ingestion.

**Behavior:** Hidden directories are skipped. The optional query keeps files whose name contains every word.

**Examples:**
• "Find release notes for 3.1"
• "List every PDF in the archive directory"`

	ReleaseListDescription = `List archived release notes, newest version first.

**When to use:** Get an overview of the archive before reading or searching it.

**What you get:** Version, security component versions, source file name, archive time and entry count for every note.`

	ReleaseGetDescription = `Show one archived release note in full.

**When to use:** Read the detailed report for a version: metadata, improvements, issues and every entry.

**Examples:**
• "Show the 3.1.3.11 release note"`

	ReleaseSearchDescription = `Search archived release notes by keywords.

**When to use:** Find which versions changed a feature or fixed an issue.

**Behavior:** The query is split on whitespace. A note matches when its text contains every keyword. Each hit lists the entries that contain every keyword.

**Examples:**
• "Which releases touched SSL VPN?" → query "SSL VPN"
• "Find WORKS-123" → query "WORKS-123"`

	ReleaseDeleteDescription = `Delete an archived release note and its entries.

**When to use:** Remove a note that was ingested by mistake, or before re-importing a corrected document.`

	ReleaseServerInfoDescription = `Show server configuration, archive statistics and available tools.

**When to use:** Start here to learn the archive directory, size limit, how many notes are archived and which documents are waiting to be ingested.`

	ReleaseStatsDescription = `Summarise the archive: note and entry counts, entries per change type, OpenSSL and OpenSSH versions across releases, the oldest and newest archived version, and the size of the PDFs in the archive directory.

**When to use:** Audit which releases shipped which security component versions, or check how much of the archive directory has been processed.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"release_parse_file":       ReleaseParseFileDescription,
	"release_ingest_file":      ReleaseIngestFileDescription,
	"release_ingest_directory": ReleaseIngestDirectoryDescription,
	"release_find_files":       ReleaseFindFilesDescription,
	"release_list":             ReleaseListDescription,
	"release_get":              ReleaseGetDescription,
	"release_search":           ReleaseSearchDescription,
	"release_delete":           ReleaseDeleteDescription,
	"release_server_info":      ReleaseServerInfoDescription,
	"release_stats":            ReleaseStatsDescription,
}

// ToolParameters describes the arguments of each tool for server info
var ToolParameters = map[string]string{
	"release_parse_file":       "path (required): PDF path, relative to the archive directory or absolute within it",
	"release_ingest_file":      "path (required): PDF path, relative to the archive directory or absolute within it",
	"release_ingest_directory": "query (optional): words every file name must contain",
	"release_find_files":       "query (optional): words every file name must contain",
	"release_list":             "none",
	"release_get":              "version (required): product version, e.g. 3.1.3.11",
	"release_search":           "query (required): whitespace-separated keywords",
	"release_delete":           "version (required): product version to delete",
	"release_server_info":      "none",
	"release_stats":            "none",
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetToolParameters returns the parameter summary for a tool
func GetToolParameters(toolName string) string {
	if params, exists := ToolParameters[toolName]; exists {
		return params
	}
	return "none"
}

// GetAllToolNames returns every tool name in sorted order
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
