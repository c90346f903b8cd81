package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"time"

	"github.com/fasthttp/websocket"
	"github.com/fatih/color"
)

// Pretty print JSON helper
func prettyPrint(raw []byte) {
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(out.String())
}

func login(baseURL, secret string) (*http.Cookie, error) {
	body, _ := json.Marshal(map[string]string{"secretKey": secret})
	resp, err := http.Post(baseURL+"/api/login", "application/json", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("login failed (%s): %s", resp.Status, respBody)
	}
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c, nil
		}
	}
	return nil, fmt.Errorf("login succeeded but no session cookie was set")
}

func wsURL(baseURL string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String(), nil
}

func printFrame(raw []byte) {
	var envelope struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &envelope)

	switch envelope.Type {
	case "ERROR":
		color.Red("\n<- %s", envelope.Type)
	case "INIT_ALL", "SYSTEM_INFO":
		color.Cyan("\n<- %s", envelope.Type)
	case "ANNOUNCEMENT":
		color.Magenta("\n<- %s", envelope.Type)
	default:
		color.Green("\n<- %s", envelope.Type)
	}
	prettyPrint(raw)
}

func main() {
	baseURL := flag.String("url", "http://localhost:3000", "server base URL")
	secret := flag.String("secret", os.Getenv("AUTH_KEY"), "shared secret (defaults to $AUTH_KEY)")
	send := flag.String("send", "", "JSON frame to send after connecting, e.g. '{\"type\":\"CHAT_MESSAGE\",\"data\":{...}}'")
	duration := flag.Duration("duration", 0, "disconnect after this long (0 waits for Ctrl+C)")
	flag.Parse()

	color.Cyan("🔌 studyroom websocket probe\n")

	color.Yellow("\n1. Login")
	cookie, err := login(*baseURL, *secret)
	if err != nil {
		color.Red("Failed: %v", err)
		os.Exit(1)
	}
	color.Green("Session cookie acquired (expires %s)", cookie.Expires.Format(time.RFC3339))

	color.Yellow("\n2. Connect")
	target, err := wsURL(*baseURL)
	if err != nil {
		color.Red("Invalid URL: %v", err)
		os.Exit(1)
	}
	header := http.Header{}
	header.Set("Cookie", cookie.Name+"="+cookie.Value)
	conn, _, err := websocket.DefaultDialer.Dial(target, header)
	if err != nil {
		color.Red("Dial %s failed: %v", target, err)
		os.Exit(1)
	}
	defer conn.Close()
	color.Green("Connected to %s", target)

	if *send != "" {
		if !json.Valid([]byte(*send)) {
			color.Red("-send is not valid JSON")
			os.Exit(1)
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(*send)); err != nil {
			color.Red("Send failed: %v", err)
			os.Exit(1)
		}
		color.Yellow("\n-> sent %d bytes", len(*send))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				color.Red("\nConnection closed: %v", err)
				return
			}
			printFrame(data)
		}
	}()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)

	var timeout <-chan time.Time
	if *duration > 0 {
		timeout = time.After(*duration)
	}

	select {
	case <-done:
	case <-interrupt:
	case <-timeout:
	}

	_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	color.Cyan("\nbye")
}
