package errors

var (
	// Domain errors — used in service/repository
	ErrMessageEmpty         = InvalidArg("message cannot be empty")
	ErrMessageTooLong       = InvalidArg("message is too long")
	ErrSelfMessage          = InvalidArg("cannot send a message to yourself")
	ErrInvalidConversation  = InvalidArg("invalid conversation id")
	ErrConversationNotFound = NotFound("conversation not found")
	ErrNotParticipant       = Forbidden("not a participant of this conversation")
	ErrNoConnection         = FailedPrecondition("connection does not exist")
	ErrUnauthenticated      = Unauthorized("authentication required")
)

func ErrSendFailed(cause error) error {
	return Wrap(CodeInternal, "failed to send message", cause)
}

func ErrConversationLoadFailed(cause error) error {
	return Wrap(CodeInternal, "failed to load conversation", cause)
}
