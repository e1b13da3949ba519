package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/rhuss/agentgate/pkg/api"
	"github.com/rhuss/agentgate/pkg/auth"
	"github.com/rhuss/agentgate/pkg/auth/mode"
	"github.com/rhuss/agentgate/pkg/config"
	"github.com/rhuss/agentgate/pkg/storage/memory"
	"github.com/rhuss/agentgate/pkg/transport"
)

const demoSecret = "demo-secret"

func main() {
	fmt.Println("=== agentgate auth modes demo ===")
	fmt.Println()
	ctx := context.Background()

	// 1. Noop mode admits every caller as anonymous
	noopStrategy, _ := mode.New(config.AuthConfig{Type: mode.Noop})
	id, _ := noopStrategy.Authenticate(ctx, auth.Headers{"authorization": "Bearer anything"})
	fmt.Printf("[1] noop mode identity: %s (authenticated=%v)\n", id.Subject, id.IsAuthenticated)

	// 2. Custom mode verifies HS256 tokens
	custom, err := mode.New(config.AuthConfig{Type: mode.Custom, SecretKey: demoSecret})
	if err != nil {
		fmt.Printf("creating custom strategy: %v\n", err)
		return
	}
	token, _ := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub":   "alice",
		"name":  "Alice Example",
		"orgId": "acme",
		"exp":   time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(demoSecret))

	alice, err := custom.Authenticate(ctx, auth.Headers{"authorization": "Bearer " + token})
	if err != nil {
		fmt.Printf("authenticate: %v\n", err)
		return
	}
	data, _ := json.MarshalIndent(alice, "", "  ")
	fmt.Printf("\n[2] custom mode identity:\n%s\n", data)

	// 3. Rejections carry a caller-safe message and status
	fmt.Println("\n[3] rejected credentials:")
	for _, header := range []string{"", "Basic dXNlcg==", "Bearer not-a-jwt"} {
		_, err := custom.Authenticate(ctx, auth.Headers{"authorization": header})
		fmt.Printf("    %-20q -> %d %v\n", header, auth.StatusCode(err), err)
	}

	// 4. The owner authorizer stamps the caller into resource metadata
	svc := transport.NewService(custom, memory.New(100))
	actx := auth.SetIdentity(ctx, alice)
	res, err := svc.Create(actx, api.KindThread, &api.CreateResourceRequest{
		Metadata: map[string]any{"topic": "billing", "owner": "mallory"},
	})
	if err != nil {
		fmt.Printf("create: %v\n", err)
		return
	}
	data, _ = json.MarshalIndent(res, "", "  ")
	fmt.Printf("\n[4] created thread (forged owner overwritten):\n%s\n", data)

	// 5. Another caller cannot see it
	bob := &auth.Identity{Subject: "bob", IsAuthenticated: true}
	_, err = svc.Get(auth.SetIdentity(ctx, bob), api.KindThread, res.ID)
	fmt.Printf("\n[5] bob reads alice's thread: %v\n", err)

	list, _ := svc.Search(actx, api.KindThread, &api.SearchRequest{})
	fmt.Printf("    alice searches threads: %d result(s)\n", len(list.Data))
}
