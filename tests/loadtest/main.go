// Command loadtest drives a running musicwordle server with concurrent
// players and prints per-endpoint latency.
package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"
)

type options struct {
	baseURL  string
	players  int
	duration time.Duration
	seed     int
}

var searchQueries = []string{"abbey", "thriller", "rumours", "kind of blue", "nevermind", "illmatic", "ok", "dark side"}

var guessTexts = []string{"abbey road", "thriller", "rumours", "kind of blue", "nevermind", "back in black"}

type client struct {
	base string
	http *http.Client
}

func newClient(base string, players int) *client {
	return &client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        players * 2,
				MaxIdleConnsPerHost: players * 2,
				IdleConnTimeout:     30 * time.Second,
				DialContext:         (&net.Dialer{Timeout: 2 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			},
		},
	}
}

// call performs one request and decodes a 200 body into out when out is set.
func (c *client) call(ctx context.Context, method, path string, body, out any) (int, time.Duration, error) {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return 0, 0, err
		}
		rd = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return 0, 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	lat := time.Since(start)
	if err != nil {
		return 0, lat, err
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, lat, err
		}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.StatusCode, lat, nil
}

type endpointStats struct {
	count     int
	errors    int
	latencies []time.Duration
}

// tally is owned by one player; tallies are merged once the run ends.
type tally struct {
	endpoints map[string]*endpointStats
	won, lost int
}

func newTally() *tally {
	return &tally{endpoints: make(map[string]*endpointStats)}
}

func (t *tally) record(endpoint string, lat time.Duration, failed bool) {
	s, ok := t.endpoints[endpoint]
	if !ok {
		s = &endpointStats{}
		t.endpoints[endpoint] = s
	}
	s.count++
	if failed {
		s.errors++
	}
	s.latencies = append(s.latencies, lat)
}

func (t *tally) merge(o *tally) {
	for ep, s := range o.endpoints {
		dst, ok := t.endpoints[ep]
		if !ok {
			dst = &endpointStats{}
			t.endpoints[ep] = dst
		}
		dst.count += s.count
		dst.errors += s.errors
		dst.latencies = append(dst.latencies, s.latencies...)
	}
	t.won += o.won
	t.lost += o.lost
}

type guessReply struct {
	GameCompleted bool `json:"game_completed"`
	IsWon         bool `json:"is_won"`
}

// play runs whole games back to back: start, browse, guess until the game
// ends, read the status.
func play(ctx context.Context, c *client, rng *rand.Rand, t *tally) {
	for ctx.Err() == nil {
		var created struct {
			GameID string `json:"game_id"`
		}
		code, lat, err := c.call(ctx, http.MethodPost, "/api/new-game", struct{}{}, &created)
		if ctx.Err() != nil {
			return
		}
		t.record("POST /api/new-game", lat, err != nil || code != http.StatusOK || created.GameID == "")
		if created.GameID == "" {
			continue
		}

		if rng.IntN(2) == 0 {
			q := map[string]string{"query": searchQueries[rng.IntN(len(searchQueries))]}
			code, lat, err = c.call(ctx, http.MethodPost, "/api/search-albums", q, nil)
			t.record("POST /api/search-albums", lat, err != nil || code != http.StatusOK)
		}

		for ctx.Err() == nil {
			var reply guessReply
			g := map[string]string{"game_id": created.GameID, "guess_text": guessTexts[rng.IntN(len(guessTexts))]}
			code, lat, err = c.call(ctx, http.MethodPost, "/api/guess", g, &reply)
			// 404 means no album matched the text; the guess is not counted.
			t.record("POST /api/guess", lat, err != nil || (code != http.StatusOK && code != http.StatusNotFound))
			if err != nil || reply.GameCompleted || (code != http.StatusOK && code != http.StatusNotFound) {
				if reply.IsWon {
					t.won++
				} else if reply.GameCompleted {
					t.lost++
				}
				break
			}
		}

		path := "/api/game-status?game_id=" + url.QueryEscape(created.GameID)
		code, lat, err = c.call(ctx, http.MethodGet, path, nil, nil)
		if ctx.Err() == nil {
			t.record("GET /api/game-status", lat, err != nil || code != http.StatusOK)
		}
	}
}

func waitReady(c *client) error {
	for i := 0; i < 30; i++ {
		code, _, err := c.call(context.Background(), http.MethodGet, "/health", nil, nil)
		if err == nil && code == http.StatusOK {
			return nil
		}
		time.Sleep(200 * time.Millisecond)
	}
	return fmt.Errorf("server at %s not responding", c.base)
}

func run(opts options) error {
	c := newClient(opts.baseURL, opts.players)
	fmt.Printf("=== MusicWordle Load Test ===\nTarget: %s | Players: %d | Duration: %s\n\n", c.base, opts.players, opts.duration)
	if err := waitReady(c); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.duration)
	defer cancel()

	var mu sync.Mutex
	total := newTally()
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < opts.players; i++ {
		seed := uint64(opts.seed) + uint64(i)
		g.Go(func() error {
			t := newTally()
			play(ctx, c, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)), t)
			mu.Lock()
			total.merge(t)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	report(os.Stdout, total, opts.duration)
	return nil
}

func report(w io.Writer, t *tally, duration time.Duration) {
	endpoints := make([]string, 0, len(t.endpoints))
	for ep := range t.endpoints {
		endpoints = append(endpoints, ep)
	}
	slices.Sort(endpoints)

	rule := "  " + strings.Repeat("-", 86)
	fmt.Fprintf(w, "  %-24s %8s %6s %10s %10s %10s %10s\n", "Endpoint", "Reqs", "Errs", "Avg", "P50", "P95", "P99")
	fmt.Fprintln(w, rule)

	var reqs, errs int
	for _, ep := range endpoints {
		s := t.endpoints[ep]
		reqs += s.count
		errs += s.errors
		slices.Sort(s.latencies)
		fmt.Fprintf(w, "  %-24s %8d %6d %10s %10s %10s %10s\n",
			ep, s.count, s.errors,
			fmtDur(mean(s.latencies)),
			fmtDur(percentile(s.latencies, 0.50)),
			fmtDur(percentile(s.latencies, 0.95)),
			fmtDur(percentile(s.latencies, 0.99)))
	}
	if reqs == 0 {
		return
	}
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "  Total: %d reqs | Errors: %d (%.1f%%) | RPS: %.0f | Games won/lost: %d/%d\n",
		reqs, errs, float64(errs)/float64(reqs)*100, float64(reqs)/duration.Seconds(), t.won, t.lost)
}

func mean(d []time.Duration) time.Duration {
	if len(d) == 0 {
		return 0
	}
	var sum time.Duration
	for _, v := range d {
		sum += v
	}
	return sum / time.Duration(len(d))
}

// percentile expects d sorted.
func percentile(d []time.Duration, p float64) time.Duration {
	if len(d) == 0 {
		return 0
	}
	return d[min(int(float64(len(d))*p), len(d)-1)]
}

func fmtDur(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
	return fmt.Sprintf("%.1fms", float64(d.Microseconds())/1000.0)
}

func main() {
	var opts options
	fs := pflag.NewFlagSet("loadtest", pflag.ExitOnError)
	fs.StringVarP(&opts.baseURL, "url", "u", envOr("MW_LOADTEST_URL", "http://127.0.0.1:8080"), "server base URL")
	fs.IntVarP(&opts.players, "players", "p", 50, "concurrent players")
	fs.DurationVarP(&opts.duration, "duration", "d", 10*time.Second, "test duration")
	fs.IntVar(&opts.seed, "seed", int(time.Now().UnixNano()%1_000_000), "random seed")
	_ = fs.Parse(os.Args[1:])

	if err := run(opts); err != nil {
		fmt.Fprintln(os.Stderr, "loadtest:", err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
