package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/af-corp/campaign-relay/internal/types"
)

func main() {
	relayURL := flag.String("url", envOrDefault("RELAY_URL", "http://localhost:8080"), "relay base URL")
	mode := flag.String("mode", "generate", "generate or rewrite")
	timeout := flag.Duration("timeout", 60*time.Second, "request timeout")

	objective := flag.String("objective", "", "campaign objective")
	ageRange := flag.String("age-range", "", "target age range")
	gender := flag.String("gender", "", "target gender")
	segment := flag.String("segment", "", "customer segment")
	tone := flag.String("tone", "", "message tone")
	personalization := flag.String("personalization", "", "personalization level")
	charLimit := flag.Int("char-limit", types.DefaultCharLimit, "maximum characters")
	emojis := flag.Bool("emojis", false, "allow emojis")
	goal := flag.String("goal", types.GoalCTR, "optimization goal: ctr, conversion, engagement")
	language := flag.String("language", types.LanguageEnglish, "output language: english, bangla")
	culture := flag.String("cultural-reference", "", "cultural reference")
	extra := flag.String("context", "", "additional context")

	text := flag.String("text", "", "text to rewrite (rewrite mode)")
	option := flag.String("option", types.RewriteRegenerate, "rewrite option: extend, shorten, regenerate")
	flag.Parse()

	var path string
	var payload any
	switch *mode {
	case "generate":
		if *objective == "" {
			flag.Usage()
			fmt.Fprintln(os.Stderr, "\nerror: -objective is required")
			os.Exit(1)
		}
		path = "/api/generate"
		payload = types.CampaignRequest{
			Objective:         *objective,
			AgeRange:          *ageRange,
			Gender:            *gender,
			CustomerSegment:   *segment,
			Tone:              *tone,
			Personalization:   *personalization,
			CharLimit:         charLimit,
			AllowEmojis:       emojis,
			Goal:              *goal,
			Language:          *language,
			CulturalReference: *culture,
			AdditionalContext: *extra,
		}
	case "rewrite":
		if *text == "" {
			flag.Usage()
			fmt.Fprintln(os.Stderr, "\nerror: -text is required in rewrite mode")
			os.Exit(1)
		}
		path = "/api/rewrite"
		payload = types.RewriteRequest{Text: *text, Option: *option, Language: *language}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Fatalf("failed to encode request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(*relayURL, "/")+path, bytes.NewReader(data))
	if err != nil {
		log.Fatalf("failed to build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		log.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatalf("failed to read response: %v", err)
	}

	var env types.Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		log.Fatalf("unexpected response (HTTP %d): %s", resp.StatusCode, body)
	}

	if env.Status != types.StatusSuccess {
		fmt.Fprintf(os.Stderr, "error [%s]: %s\n", env.Code, env.Message)
		if env.Detail != "" {
			fmt.Fprintf(os.Stderr, "  detail: %s\n", env.Detail)
		}
		if env.Hint != "" {
			fmt.Fprintf(os.Stderr, "  hint:   %s\n", env.Hint)
		}
		if env.RequestID != "" {
			fmt.Fprintf(os.Stderr, "  request: %s\n", env.RequestID)
		}
		os.Exit(exitCode(env.Code))
	}

	fmt.Println(env.Output)
	fmt.Fprintf(os.Stderr, "(%d characters)\n", len([]rune(env.Output)))
}

// exitCode is 2 for failures worth retrying and 1 for everything else.
func exitCode(code types.ErrorKind) int {
	kind, ok := types.ParseErrorKind(string(code))
	if !ok {
		return 1
	}
	if kind.Retryable() {
		msg := "upstream did not answer; retrying may succeed"
		if !kind.Transport() {
			msg = "upstream returned an error status; retrying may succeed"
		}
		fmt.Fprintf(os.Stderr, "  retry:  %s\n", msg)
		return 2
	}
	return 1
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
