package chat

import "context"

// Authenticator is the credential-validation collaborator. The engine never
// inspects credentials itself; an API layer calls Identify and passes the
// resulting user id into the operations below. Implementations return
// errs.ErrUnauthenticated when the credential is missing or invalid.
type Authenticator interface {
	Identify(ctx context.Context, credential string) (string, error)
}

// Directory is the user-directory collaborator, used to validate invitees.
type Directory interface {
	Exists(ctx context.Context, userID string) (bool, error)
}
