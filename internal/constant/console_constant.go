package constant

// Console copy shown to the operator.
const (
	WelcomeMessage = "Hello. I am Vernacular Ops. \nUpload your business data (CSV) or ask me anything."

	FileRemovedMessage      = "Data source removed: %s"
	WorkspaceClearedMessage = "Workspace cleared. All data sources removed."
)

// Event type codes published to the event bus.
const (
	EventUserLogin        = "USER_LOGIN"
	EventFilesUploaded    = "FILES_UPLOADED"
	EventCommandProcessed = "COMMAND_PROCESSED"
	EventWorkspaceCleared = "WORKSPACE_CLEARED"
)

// In-process feed topic carrying per-user change notifications to the
// websocket hub.
const FeedTopic = "CONSOLE_FEED"
