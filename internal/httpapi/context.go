package httpapi

import "context"

// serverBaseCtx is a process-level context canceled on shutdown. Asynchronous
// work started by a handler (the submit call behind POST /generations) runs
// under this context rather than the request context, so it survives the
// response but stops with the process.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level base context used by handlers.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		serverBaseCtx = context.Background()
		return
	}
	serverBaseCtx = ctx
}
