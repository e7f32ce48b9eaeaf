// Chat CLI - command line client for the realtime relay
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/ZZZSleepy333/whatsapp-clone/clients/go/chat"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	baseURL := os.Getenv("CHAT_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	client := chat.NewClient(baseURL)
	client.Token = os.Getenv("CHAT_TOKEN")
	cmd := os.Args[1]

	switch cmd {
	case "online":
		resp, err := client.Online()
		exitOnError(err)
		fmt.Printf("%d online\n", resp.Count)
		for _, user := range resp.Users {
			fmt.Println("  " + user)
		}

	case "user":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat user <email>")
			os.Exit(1)
		}
		resp, err := client.User(os.Args[2])
		exitOnError(err)
		if resp.Online {
			fmt.Printf("%s is online\n", resp.Email)
		} else {
			fmt.Printf("%s last seen %s\n", resp.Email, resp.LastSeen)
		}

	case "history":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat history <conversation>")
			os.Exit(1)
		}
		resp, err := client.History(os.Args[2], 20, 0)
		exitOnError(err)
		for i := len(resp.Messages) - 1; i >= 0; i-- {
			msg := resp.Messages[i]
			ts := time.UnixMilli(msg.ReceivedAt).Format("2006-01-02 15:04:05")
			fmt.Printf("[%s] %s: %s\n", ts, msg.User, msg.Text)
		}

	case "listen":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "Usage: chat listen <conversation>")
			os.Exit(1)
		}
		listen(client, os.Args[2])

	default:
		usage()
		os.Exit(1)
	}
}

// listen joins a conversation and bridges it to the terminal: inbound
// events are printed, stdin lines are sent as messages.
func listen(client *chat.Client, conversationID string) {
	identity := os.Getenv("CHAT_USER")
	if identity == "" {
		fmt.Fprintln(os.Stderr, "CHAT_USER is required for listen")
		os.Exit(1)
	}

	client.HandleNewMessage(func(msg chat.Message) {
		if msg.ConversationID == conversationID {
			fmt.Printf("%s: %s\n", msg.User, msg.Text)
		}
	})
	client.HandleUserTyping(func(ts chat.Typing) {
		if ts.ConversationID == conversationID && ts.IsTyping {
			fmt.Printf("(%s is typing...)\n", ts.User)
		}
	})
	client.HandleOnlineUsers(func(users []string) {
		fmt.Printf("online: %v\n", users)
	})
	client.HandleError(func(err error) {
		fmt.Fprintln(os.Stderr, "relay:", err)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	err := client.Connect(ctx, chat.StaticIdentity(identity))
	cancel()
	exitOnError(err)
	defer client.Close()

	client.JoinConversation(conversationID)
	fmt.Printf("joined %s as %s, type to send\n", conversationID, identity)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		text := scanner.Text()
		if text == "" {
			continue
		}
		client.SendMessage(chat.Message{
			ConversationID: conversationID,
			Text:           text,
		})
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `Usage: chat <command>

Commands:
  online                  who is connected right now
  user <email>            last-seen lookup
  history <conversation>  recent recorded messages
  listen <conversation>   join a conversation interactively

Environment:
  CHAT_URL    server base URL (default http://localhost:8080)
  CHAT_USER   identity to announce (listen)
  CHAT_TOKEN  signed session token, if the server requires one`)
}

func exitOnError(err error) {
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
