package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

var (
	baseURL   string
	sessionID string
	reader    = bufio.NewReader(os.Stdin)
	client    = &http.Client{Timeout: 90 * time.Second}
)

func main() {
	flag.StringVar(&baseURL, "addr", "http://localhost:8000/api", "chatbot API base URL")
	flag.Parse()

	fmt.Println("Welcome to XingChen Dialogue CLI")
	fmt.Println("Commands: /clear  /info  /exit")
	for {
		msg := prompt("You: ")
		switch msg {
		case "":
			continue
		case "/exit":
			fmt.Println("Goodbye!")
			return
		case "/clear":
			handleClear()
		case "/info":
			handleInfo()
		default:
			handleChat(msg)
		}
	}
}

func prompt(label string) string {
	fmt.Print(label)
	input, err := reader.ReadString('\n')
	if err != nil {
		os.Exit(0)
	}
	return strings.TrimSpace(input)
}

func handleChat(message string) {
	data := map[string]string{
		"session_id": sessionID,
		"message":    message,
	}
	jsonData, _ := json.Marshal(data)

	resp, err := client.Post(baseURL+"/chat", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		fmt.Printf("Chat failed (%d): %s\n", resp.StatusCode, string(body))
		return
	}

	var result struct {
		SessionID string `json:"session_id"`
		Response  string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("Invalid response: %v\n", err)
		return
	}
	sessionID = result.SessionID
	fmt.Printf("Bot: %s\n", result.Response)
}

func handleClear() {
	if sessionID == "" {
		fmt.Println("No active session")
		return
	}
	data := map[string]string{"session_id": sessionID}
	jsonData, _ := json.Marshal(data)

	resp, err := client.Post(baseURL+"/clear_context", "application/json", bytes.NewBuffer(jsonData))
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	resp.Body.Close()
	fmt.Printf("Context cleared for session %s\n", sessionID)
	sessionID = ""
}

func handleInfo() {
	resp, err := client.Get(baseURL + "/session_info")
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer resp.Body.Close()

	var result struct {
		SessionCount int `json:"session_count"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		fmt.Printf("Invalid response: %v\n", err)
		return
	}
	fmt.Printf("Resident sessions: %d\n", result.SessionCount)
	if sessionID != "" {
		fmt.Printf("Current session: %s\n", sessionID)
	}
}
