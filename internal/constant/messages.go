package constant

// User-facing copy shared by the CLI front-ends. Kept in one place so the
// transcript and the command output stay consistent.
const (
	MessageGreeting = "Hi! I'm your AI assistant. Ask me anything about the documents you've uploaded."
	MessageThinking = "Thinking..."
	MessageAskError = "Sorry, something went wrong. Make sure you've uploaded some documents and try again."

	MessageUploadSuccess = "Document uploaded successfully"
	MessageUploadError   = "Could not upload the document"
	MessageDeleteSuccess = "Document deleted successfully"
	MessageDeleteError   = "Could not delete the document"
	MessageDocumentsNone = "No documents uploaded yet"
)
