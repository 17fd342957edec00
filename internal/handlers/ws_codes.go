// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes, for closures that need a more specific
// reason than the standard set.
const (
	InvalidAuthTokenError = 3001 // Credentials could not be resolved to an identity.
	MissingGameIDError    = 3002 // No gameId parameter on the connection request.
	InvalidGameIDError    = 3003 // Target game id does not exist.
	JoinRejectedError     = 3004 // Room rejected the join (full, already joined).
)
