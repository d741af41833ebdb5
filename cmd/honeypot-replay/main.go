// Package main replays a scripted scammer conversation against a honeypot service.
//
// The script is a JSONL file with one scammer message per line:
//
//	{"text": "Your SBI account will be blocked today"}
//	{"text": "Share the OTP immediately", "delayMs": 500}
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/pkg/client"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// ScriptLine is one scripted scammer message.
type ScriptLine struct {
	Text    string `json:"text"`
	DelayMs int    `json:"delayMs"`
}

func main() {
	baseURL := flag.String("url", client.LocalURL(), "Honeypot base URL")
	apiKey := flag.String("api-key", os.Getenv("HONEYPOT_API_KEY"), "API key sent as x-api-key")
	sessionID := flag.String("session", "", "Session ID (random when empty)")
	script := flag.String("script", "", "JSONL script file, - for stdin")
	channel := flag.String("channel", "SMS", "Channel reported in request metadata")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	if *script == "" {
		log.Fatal().Msg("--script is required")
	}
	if *sessionID == "" {
		*sessionID = uuid.NewString()
	}

	var in io.Reader = os.Stdin
	if *script != "-" {
		f, err := os.Open(*script)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to open script")
		}
		defer f.Close()
		in = f
	}

	lines, err := readScript(in)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read script")
	}
	if len(lines) == 0 {
		log.Fatal().Msg("Script has no messages")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	c := client.New(*baseURL, client.WithAPIKey(*apiKey))
	if !c.IsRunning(ctx) {
		log.Fatal().Str("url", *baseURL).Msg("Honeypot is not reachable")
	}

	meta := &models.Metadata{Channel: *channel, Language: "English", Locale: "IN"}
	if err := replay(ctx, c, os.Stdout, *sessionID, meta, lines); err != nil {
		log.Fatal().Err(err).Msg("Replay failed")
	}

	view, err := c.GetSession(ctx, *sessionID)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to fetch session")
		return
	}
	out, _ := json.MarshalIndent(view, "", "  ")
	fmt.Println(string(out))
}

// readScript parses a JSONL script. Blank and malformed lines are skipped.
func readScript(r io.Reader) ([]ScriptLine, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	var lines []ScriptLine
	for n := 1; scanner.Scan(); n++ {
		raw := strings.TrimSpace(scanner.Text())
		if raw == "" || strings.HasPrefix(raw, "#") {
			continue
		}
		var line ScriptLine
		if err := json.Unmarshal([]byte(raw), &line); err != nil || strings.TrimSpace(line.Text) == "" {
			log.Warn().Int("line", n).Msg("Skipping malformed script line")
			continue
		}
		lines = append(lines, line)
	}
	return lines, scanner.Err()
}

// replay sends every line in order, carrying the accumulated history the way a real caller does.
func replay(ctx context.Context, c *client.Client, w io.Writer, sessionID string, meta *models.Metadata, lines []ScriptLine) error {
	var history []models.Message
	for i, line := range lines {
		if line.DelayMs > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(line.DelayMs) * time.Millisecond):
			}
		}

		msg := models.Message{
			Sender:    models.SenderScammer,
			Text:      line.Text,
			Timestamp: models.Timestamp(time.Now().UnixMilli()),
		}
		resp, err := c.SendTurn(ctx, models.TurnRequest{
			SessionID:           sessionID,
			Message:             msg,
			ConversationHistory: history,
			Metadata:            meta,
		})
		if err != nil {
			return fmt.Errorf("turn %d: %w", i+1, err)
		}

		fmt.Fprintf(w, "[%d] scammer: %s\n[%d] persona: %s\n", i+1, line.Text, i+1, resp.Reply)
		history = append(history, msg, models.Message{
			Sender:    models.SenderUser,
			Text:      resp.Reply,
			Timestamp: models.Timestamp(time.Now().UnixMilli()),
		})
	}
	return nil
}
