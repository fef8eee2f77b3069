package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/spf13/cobra"

	"github.com/modchat/modchat-server/internal/proto"
)

var (
	flagServer   string
	flagUser     string
	flagPassword string
	flagRegister bool
)

var rootCmd = &cobra.Command{
	Use:   "chatcli",
	Short: "Terminal client for the modchat server",
	RunE:  runClient,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&flagServer, "server", "http://localhost:8080", "server base URL")
	flags.StringVar(&flagUser, "user", "", "username")
	flags.StringVar(&flagPassword, "password", "", "password")
	flags.BoolVar(&flagRegister, "register", false, "register instead of logging in")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "chatcli: %v\n", err)
		os.Exit(1)
	}
}

func runClient(cmd *cobra.Command, args []string) error {
	if flagUser == "" || flagPassword == "" {
		return fmt.Errorf("--user and --password are required")
	}

	token, err := obtainToken()
	if err != nil {
		return err
	}

	baseCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()

	wsURL := strings.Replace(flagServer, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	hello, _ := json.Marshal(proto.HelloData{Token: token, Protocol: proto.ProtocolVersion})
	if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeHello, Data: hello}); err != nil {
		return fmt.Errorf("hello: %w", err)
	}

	go readEvents(ctx, conn, cancel)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		line := scanner.Text()
		if line == "" {
			continue
		}
		chat, _ := json.Marshal(proto.ChatData{Text: line})
		if err := wsjson.Write(ctx, conn, proto.Inbound{Type: proto.InboundTypeChat, Data: chat}); err != nil {
			return fmt.Errorf("send: %w", err)
		}
	}
	return scanner.Err()
}

func obtainToken() (string, error) {
	path := "/api/login"
	if flagRegister {
		path = "/api/register"
	}

	body, _ := json.Marshal(map[string]string{
		"username": flagUser,
		"password": flagPassword,
	})
	resp, err := http.Post(flagServer+path, "application/json", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	var authResp struct {
		Token string `json:"token"`
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("auth failed: %s", authResp.Error)
	}
	return authResp.Token, nil
}

func readEvents(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()

	for {
		var outbound struct {
			Type  string          `json:"type"`
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
			Error *proto.Error    `json:"error"`
		}
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return
		}

		if outbound.Type == proto.OutboundTypeError {
			fmt.Printf("[error] %s: %s\n", outbound.Error.Code, outbound.Error.Msg)
			continue
		}

		switch outbound.Event {
		case proto.EventNameChat:
			var ev proto.EventChat
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("%s: %s\n", ev.User, ev.Message)
			}
		case proto.EventNameWhisper:
			var ev proto.EventWhisper
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("(whisper) %s: %s\n", ev.From, ev.Message)
			}
		case proto.EventNameSystem:
			var ev proto.EventSystem
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("[system] %s\n", ev.Text)
			}
		case proto.EventNamePresence:
			var ev proto.EventPresence
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("[online] %s\n", strings.Join(ev.Users, ", "))
			}
		case proto.EventNameMuted:
			var ev proto.EventMuted
			if json.Unmarshal(outbound.Data, &ev) == nil {
				fmt.Printf("[muted] until %s: %s\n", time.Unix(ev.Until, 0).Format(time.Kitchen), ev.Reason)
			}
		case proto.EventNameHistory:
			var ev proto.EventHistory
			if json.Unmarshal(outbound.Data, &ev) == nil {
				for _, msg := range ev.Messages {
					fmt.Printf("%s: %s\n", msg.User, msg.Message)
				}
			}
		case proto.EventNameClearDisplay:
			fmt.Print("\033[2J\033[H")
		case proto.EventNameKickNotice, proto.EventNameForceClose:
			var ev proto.EventClose
			_ = json.Unmarshal(outbound.Data, &ev)
			fmt.Printf("[disconnected] %s\n", ev.Reason)
			return
		}
	}
}
