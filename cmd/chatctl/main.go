// chatctl performs one secure round trip against a relay: load or create the
// local identity, handshake, then send a prompt and print the reply.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/internal/client"
)

func main() {
	var (
		serverURL = flag.String("server", "http://localhost:8080", "relay base URL")
		storePath = flag.String("keystore", "chatctl.db", "identity keystore path")
		prompt    = flag.String("prompt", "", "prompt to send")
		convID    = flag.String("conversation", "", "existing conversation id")
	)
	flag.Parse()

	if *prompt == "" {
		logrus.Fatal("missing -prompt")
	}

	ks, err := client.OpenIdentityKeyStore(*storePath)
	if err != nil {
		logrus.Fatalf("open keystore: %v", err)
	}
	defer ks.Close()

	identity, err := ks.GetOrCreate()
	if err != nil {
		logrus.Fatalf("load identity: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cli := client.New(*serverURL, identity)
	if err := cli.Handshake(ctx); err != nil {
		logrus.Fatalf("handshake: %v", err)
	}
	logrus.Infof("session established: %s", cli.SessionID())

	req, _ := json.Marshal(map[string]string{
		"type":            "chat",
		"prompt":          *prompt,
		"conversation_id": *convID,
	})
	plaintext, err := cli.Send(ctx, req)
	if err != nil {
		logrus.Fatalf("send: %v", err)
	}

	var resp struct {
		Status int    `json:"status"`
		Body   string `json:"body"`
	}
	if err := json.Unmarshal(plaintext, &resp); err != nil {
		logrus.Fatalf("parse response: %v", err)
	}

	var body struct {
		Reply          string `json:"reply"`
		ConversationID string `json:"conversation_id"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &body); err != nil {
		logrus.Fatalf("parse body: %v", err)
	}

	fmt.Println(body.Reply)
	logrus.Infof("conversation: %s", body.ConversationID)
}
