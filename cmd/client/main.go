// Terminal chat client. Connects to a running server, joins under the
// given username and relays stdin lines as messages. Lines starting
// with "/search " run a history query instead.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"chat-core/infrastructure/ws"

	"github.com/gookit/color"
	"github.com/gorilla/websocket"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	ServerURL string `envconfig:"CHAT_SERVER_URL" default:"ws://localhost:8080/ws"`
	Username  string `envconfig:"CHAT_USERNAME"`
	Colours   bool   `envconfig:"CHAT_COLOURS" default:"true"`
}

func main() {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatalf("Config error: %v", err)
	}
	if cfg.Username == "" {
		log.Fatal("CHAT_USERNAME is required")
	}
	if !cfg.Colours {
		color.Disable()
	}

	conn, _, err := websocket.DefaultDialer.Dial(cfg.ServerURL, nil)
	if err != nil {
		log.Fatalf("Connection failed: %v", err)
	}
	defer conn.Close()

	if err := writeFrame(conn, ws.InboundFrame{Type: ws.TypeJoin, Username: cfg.Username}); err != nil {
		log.Fatalf("Join failed: %v", err)
	}

	go receive(conn)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		frame := ws.InboundFrame{Type: ws.TypeSendMessage, Content: line}
		if query, ok := strings.CutPrefix(line, "/search "); ok {
			frame = ws.InboundFrame{Type: ws.TypeSearchMessages, Query: query}
		}
		if err := writeFrame(conn, frame); err != nil {
			log.Fatalf("Send failed: %v", err)
		}
	}
}

func writeFrame(conn *websocket.Conn, frame ws.InboundFrame) error {
	payload, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, payload)
}

type incoming struct {
	Type     string              `json:"type"`
	Message  *ws.MessagePayload  `json:"message"`
	Messages []ws.MessagePayload `json:"messages"`
	Username string              `json:"username"`
	Count    *int                `json:"count"`
	Query    string              `json:"query"`
	Error    string              `json:"error"`
}

func receive(conn *websocket.Conn) {
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Fatalf("Connection lost: %v", err)
		}

		var frame incoming
		if err := json.Unmarshal(payload, &frame); err != nil {
			continue
		}
		render(frame)
	}
}

func render(frame incoming) {
	switch frame.Type {
	case "message":
		if frame.Message != nil {
			printMessage(*frame.Message)
		}
	case "messageHistory":
		for _, msg := range frame.Messages {
			printMessage(msg)
		}
	case "userJoined":
		color.Green.Printf("* %s joined\n", frame.Username)
	case "userLeft":
		color.Yellow.Printf("* %s left\n", frame.Username)
	case "userCount":
		if frame.Count != nil {
			color.Gray.Printf("* %d online\n", *frame.Count)
		}
	case "searchResults":
		color.Cyan.Printf("-- results for %q --\n", frame.Query)
		for _, msg := range frame.Messages {
			printMessage(msg)
		}
	case "error":
		color.Red.Printf("! %s\n", frame.Error)
	}
}

func printMessage(msg ws.MessagePayload) {
	stamp := time.UnixMilli(msg.Timestamp).Local().Format("15:04")
	name := color.New(color.FgGreen).Render(msg.Username)
	fmt.Printf("[%s] %s: %s", stamp, name, msg.Content)
	if msg.FileName != "" {
		color.Blue.Printf(" (file: %s)", msg.FileName)
	}
	fmt.Println()
}
