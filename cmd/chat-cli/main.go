package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"taskchat/internal/domain"
	"taskchat/internal/service"
)

// Cliente interactivo de consola: abre una conversacion contra el servidor y
// muestra los deltas del stream a medida que llegan.
func main() {
	_ = godotenv.Load()

	baseURL := flag.String("url", "http://localhost:8080", "base URL del servidor")
	tenant := flag.String("tenant", "cli-user", "tenant id para el token")
	token := flag.String("token", "", "bearer token (si no se indica, se firma uno con JWT_SECRET)")
	flag.Parse()

	bearer := *token
	if bearer == "" {
		secret := os.Getenv("JWT_SECRET")
		if secret == "" {
			log.Fatal("necesito -token o JWT_SECRET para firmar uno")
		}
		jwtSvc := service.NewJWTService(secret, 24*time.Hour)
		signed, err := jwtSvc.Issue(*tenant)
		if err != nil {
			log.Fatalf("firmar token: %v", err)
		}
		bearer = signed
	}

	reader := bufio.NewReader(os.Stdin)
	threadID := ""

	fmt.Println("===== Task Chat =====")
	fmt.Println("Escribe un mensaje, o /quit para salir.")

	for {
		fmt.Print("> ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "/quit" {
			return
		}

		newThread, err := sendMessage(*baseURL, bearer, threadID, line)
		if err != nil {
			log.Printf("error: %v", err)
			continue
		}
		if newThread != "" {
			threadID = newThread
		}
	}
}

// sendMessage envia el mensaje en modo streaming y escribe los deltas en
// stdout. Devuelve el thread id del frame inicial para continuar la
// conversacion.
func sendMessage(baseURL, bearer, threadID, content string) (string, error) {
	data := map[string]any{"content": content, "stream": true}
	if threadID != "" {
		data["thread_id"] = threadID
	}
	body, err := json.Marshal(map[string]any{"type": "send_message", "data": data})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/chat", strings.NewReader(string(body)))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("server responded %s", resp.Status)
	}

	var (
		gotThread string
		event     string
	)
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		switch {
		case strings.HasPrefix(line, "event: "):
			event = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			payload := strings.TrimPrefix(line, "data: ")
			switch event {
			case "thread":
				var frame struct {
					Thread domain.Thread `json:"thread"`
				}
				if err := json.Unmarshal([]byte(payload), &frame); err == nil {
					gotThread = frame.Thread.ID
				}
			case "delta":
				var ev domain.StreamEvent
				if err := json.Unmarshal([]byte(payload), &ev); err == nil {
					fmt.Print(ev.Delta)
				}
			case "tool_call_started":
				var ev domain.StreamEvent
				if err := json.Unmarshal([]byte(payload), &ev); err == nil {
					fmt.Printf("\n[tool %s...]\n", ev.ToolName)
				}
			case "error":
				var ev domain.StreamEvent
				if err := json.Unmarshal([]byte(payload), &ev); err == nil {
					fmt.Printf("\n[error: %s]\n", ev.ErrorMessage)
				}
			case "done":
				fmt.Println()
			}
		}
	}
	return gotThread, scanner.Err()
}
