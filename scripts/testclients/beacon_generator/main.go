// Command beacon_generator posts synthetic performance beacons to a running
// pagepulse collector, over HTTP or WebSocket. Useful for exercising the
// dashboard and reports without an instrumented page.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8077", "Collector address")
	mode := flag.String("mode", "http", "Transport: http or websocket")
	token := flag.String("token", "", "Bearer token, if the collector requires auth")
	rate := flag.Float64("rate", 2, "Beacons per second")
	count := flag.Int("count", 0, "Beacons to send (0 = until interrupted)")
	flag.Parse()

	if *rate <= 0 {
		log.Fatalf("rate must be > 0")
	}

	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	interval := time.Duration(float64(time.Second) / *rate)

	switch *mode {
	case "http":
		log.Fatal(runHTTP(*addr, *token, interval, *count, rnd))
	case "websocket":
		log.Fatal(runWebSocket(*addr, *token, interval, *count, rnd))
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

func runHTTP(addr, token string, interval time.Duration, count int, rnd *rand.Rand) error {
	url := fmt.Sprintf("http://%s/v1/beacons", addr)
	client := &http.Client{Timeout: 5 * time.Second}

	for i := 0; count == 0 || i < count; i++ {
		req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(randomBeacon(rnd)))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		resp.Body.Close()
		if resp.StatusCode >= 400 {
			log.Printf("collector returned %d", resp.StatusCode)
		}

		time.Sleep(interval)
	}
	return nil
}

func runWebSocket(addr, token string, interval time.Duration, count int, rnd *rand.Rand) error {
	url := fmt.Sprintf("ws://%s/v1/ws", addr)
	header := http.Header{}
	if token != "" {
		header.Set("Authorization", "Bearer "+token)
	}

	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		return err
	}
	defer conn.Close()

	for i := 0; count == 0 || i < count; i++ {
		if err := conn.WriteMessage(websocket.TextMessage, randomBeacon(rnd)); err != nil {
			return err
		}
		time.Sleep(interval)
	}
	return nil
}

var pages = []string{
	"https://example.com/",
	"https://example.com/products",
	"https://example.com/checkout",
	"https://example.com/account",
}

func randomBeacon(rnd *rand.Rand) []byte {
	load := 600 + rnd.Float64()*3400
	render := load * (0.2 + rnd.Float64()*0.3)
	mem := 16<<20 + rnd.Int63n(64<<20)
	lcp := load * (0.8 + rnd.Float64()*0.6)
	cls := rnd.Float64() * 0.3
	ttfb := 100 + rnd.Float64()*900

	return []byte(fmt.Sprintf(
		`{"url":%q,"load_time_ms":%.1f,"render_time_ms":%.1f,"memory_bytes":%d,"vitals":[{"name":"lcp","value":%.1f},{"name":"cls","value":%.3f},{"name":"ttfb","value":%.1f}]}`,
		pages[rnd.Intn(len(pages))], load, render, mem, lcp, cls, ttfb,
	))
}
