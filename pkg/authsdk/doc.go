/*
Package authsdk is a Go client for the jwtshield token service.

An SDKClient covers the public routes:

	client := authsdk.NewSDKClient("https://auth.example.com")

	tok, err := client.IssueToken(ctx, "alice", "correct horse battery staple")
	v, err := client.ValidateToken(ctx, tok.Token)
	health, err := client.GetReadiness(ctx)

A Session wraps an issued token for the protected routes:

	session, err := client.AuthenticateWithPassword(ctx, "alice", password)
	me, err := session.Me(ctx)

Failures come back as *Error carrying the service's error code, and can be
matched against the predefined values:

	if errors.Is(err, authsdk.ErrRateLimited) {
		// back off
	}

The same Error type is used by the server to write its responses, so the
codes and messages cannot drift apart.
*/
package authsdk
