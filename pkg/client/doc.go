// Package client is the Go SDK for the SkillSwap API.
//
// # Signing in
//
//	c, err := client.New("http://localhost:8080")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if _, err := c.Login(ctx, "alice", "s3cret!"); err != nil {
//	    log.Fatal(err)
//	}
//
// The token from Login is kept on the Client and sent with every later
// call. SaveSession and LoadSession persist it between runs, which is how
// swapctl stays signed in:
//
//	_ = client.SaveSession(dir, client.Session{BaseURL: url, Token: c.Token()})
//	s, _ := client.LoadSession(dir)
//	c, _ = client.New(s.BaseURL, client.WithBearerToken(s.Token))
//
// # Swaps
//
//	id, err := c.CreateSwap(ctx, client.CreateSwapRequest{
//	    RecipientID:      42,
//	    RequesterSkillID: 3,
//	    RecipientSkillID: 7,
//	})
//
// Status changes return the number of rows changed. Zero means the swap
// had already moved on, for example it was cancelled before the accept
// arrived; it is not an error.
//
// # Errors
//
// Non-2xx responses come back as *APIError. IsStatus checks the code:
//
//	if client.IsStatus(err, http.StatusConflict) { ... }
package client
