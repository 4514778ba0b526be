// simulate fires concurrent booking traffic at a running api-server. Aiming
// many workers at one day's slots makes the store's read-then-write window
// observable: the conflict counter catches most collisions, and the
// duplicate counter shows how many slipped through for reconciliation.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

type simConfig struct {
	APIBaseURL string
	Workers    int
	Duration   time.Duration
	TargetDate string
}

type bookingRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	SessionType string `json:"session_type"`
	Format      string `json:"format"`
}

type daySlots struct {
	Date  string `json:"date"`
	Open  bool   `json:"open"`
	Slots []struct {
		Time      string `json:"time"`
		Available bool   `json:"available"`
	} `json:"slots"`
}

type counters struct {
	booked    atomic.Int64
	conflicts atomic.Int64
	rejected  atomic.Int64
	errors    atomic.Int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadSimConfig()
	log.Printf("simulate starting base_url=%s workers=%d duration=%s date=%s",
		cfg.APIBaseURL, cfg.Workers, cfg.Duration, cfg.TargetDate)

	slots, err := fetchSlots(cfg)
	if err != nil {
		log.Fatalf("fetch slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatalf("no slots offered on %s, pick a business day", cfg.TargetDate)
	}
	log.Printf("targeting %d template slots", len(slots))

	gofakeit.Seed(time.Now().UnixNano())

	var c counters
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			client := &http.Client{Timeout: 10 * time.Second}
			for time.Now().Before(deadline) {
				fire(client, cfg, slots, &c)
				time.Sleep(time.Duration(rand.Intn(200)) * time.Millisecond)
			}
		}()
	}
	wg.Wait()

	log.Printf("simulate done booked=%d conflicts=%d rejected=%d errors=%d",
		c.booked.Load(), c.conflicts.Load(), c.rejected.Load(), c.errors.Load())
}

func fire(client *http.Client, cfg simConfig, slots []string, c *counters) {
	req := bookingRequest{
		Name:        gofakeit.Name(),
		Email:       gofakeit.Email(),
		Phone:       gofakeit.Phone(),
		Date:        cfg.TargetDate,
		Time:        slots[rand.Intn(len(slots))],
		SessionType: "trial",
		Format:      pick("online", "in-person"),
	}

	body, err := json.Marshal(req)
	if err != nil {
		c.errors.Add(1)
		return
	}

	resp, err := client.Post(cfg.APIBaseURL+"/bookings", "application/json", bytes.NewReader(body))
	if err != nil {
		c.errors.Add(1)
		return
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusCreated:
		c.booked.Add(1)
	case http.StatusConflict:
		c.conflicts.Add(1)
	case http.StatusBadRequest, http.StatusTooManyRequests:
		c.rejected.Add(1)
	default:
		c.errors.Add(1)
	}
}

func fetchSlots(cfg simConfig) ([]string, error) {
	resp, err := http.Get(fmt.Sprintf("%s/availability?date=%s", cfg.APIBaseURL, cfg.TargetDate))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("availability returned status %d", resp.StatusCode)
	}

	var day daySlots
	if err := json.NewDecoder(resp.Body).Decode(&day); err != nil {
		return nil, err
	}

	var times []string
	for _, s := range day.Slots {
		times = append(times, s.Time)
	}
	return times, nil
}

func loadSimConfig() simConfig {
	cfg := simConfig{
		APIBaseURL: getenv("API_BASE_URL", "http://127.0.0.1:8080"),
		Workers:    getenvInt("SIM_WORKERS", 8),
		Duration:   getenvDuration("SIM_DURATION", 30*time.Second),
		TargetDate: getenv("SIM_TARGET_DATE", time.Now().AddDate(0, 0, 1).Format("2006-01-02")),
	}
	return cfg
}

func pick(options ...string) string {
	return options[rand.Intn(len(options))]
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
