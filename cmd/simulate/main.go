package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vetcal/scheduling-service/internal/config"
	"github.com/vetcal/scheduling-service/internal/db"
	"github.com/vetcal/scheduling-service/internal/localtime"
)

// The simulator hammers the booking endpoint with many workers aiming at a
// small set of vet/time targets, then audits Postgres for overlap. With the
// exclusion constraint in place the audit must come back clean no matter how
// the race resolves.

type SimConfig struct {
	APIBaseURL  string
	Duration    time.Duration
	Workers     int
	TargetSlots int
	Timezone    string
	PostgresDSN string
}

type Target struct {
	PracticeID uuid.UUID
	VetID      uuid.UUID
	LocalDate  string
	LocalTime  string
}

type DataPool struct {
	Owners  []uuid.UUID
	Targets []Target
}

type OperationMetrics struct {
	Total     int64
	Booked    int64
	Conflict  int64
	Error     int64
	mu        sync.Mutex
	Latencies []time.Duration
}

func (om *OperationMetrics) Record(latency time.Duration, booked, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if booked {
		atomic.AddInt64(&om.Booked, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}
	avg = sum / time.Duration(len(latencies))

	p50Idx := len(latencies) * 50 / 100
	if p50Idx >= len(latencies) {
		p50Idx = len(latencies) - 1
	}
	p95Idx := len(latencies) * 95 / 100
	if p95Idx >= len(latencies) {
		p95Idx = len(latencies) - 1
	}
	return avg, latencies[p50Idx], latencies[p95Idx]
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("booking-race simulator starting")

	cfg := loadSimConfig()

	log.Printf("config: duration=%s workers=%d target_slots=%d", cfg.Duration, cfg.Workers, cfg.TargetSlots)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pgPool.Close()

	pool, err := loadDataPool(ctx, pgPool, cfg)
	if err != nil {
		log.Fatalf("load data pool: %v", err)
	}
	log.Printf("loaded: %d owners, %d contested targets", len(pool.Owners), len(pool.Targets))

	var metrics OperationMetrics
	client := &http.Client{Timeout: 10 * time.Second}

	runCtx, stopRun := context.WithTimeout(context.Background(), cfg.Duration)
	defer stopRun()

	var wg sync.WaitGroup
	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)))
			for runCtx.Err() == nil {
				target := pool.Targets[rng.Intn(len(pool.Targets))]
				owner := pool.Owners[rng.Intn(len(pool.Owners))]
				attemptBooking(runCtx, client, cfg, target, owner, &metrics)
			}
		}(i)
	}
	wg.Wait()

	printReport(&metrics)

	auditCtx, cancelAudit := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelAudit()
	if err := auditOverlaps(auditCtx, pgPool); err != nil {
		log.Fatalf("OVERLAP AUDIT FAILED: %v", err)
	}
	log.Println("overlap audit clean: no vet has overlapping live appointments")
}

func loadSimConfig() SimConfig {
	baseCfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load base config: %v", err)
	}

	return SimConfig{
		APIBaseURL:  getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:    getDuration("SIM_DURATION", 30*time.Second),
		Workers:     getInt("SIM_WORKERS", 20),
		TargetSlots: getInt("SIM_TARGET_SLOTS", 5),
		Timezone:    getEnv("SIM_TIMEZONE", "America/Los_Angeles"),
		PostgresDSN: baseCfg.PostgresDSN,
	}
}

// loadDataPool picks owners plus a few vet/time pairs inside tomorrow's
// availability for every worker to fight over.
func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dp := &DataPool{}

	rows, err := pool.Query(ctx, `SELECT id FROM owners LIMIT 200`)
	if err != nil {
		return nil, fmt.Errorf("load owners: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		dp.Owners = append(dp.Owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(dp.Owners) == 0 {
		return nil, fmt.Errorf("no owners seeded, run cmd/seed first")
	}

	loc, err := localtime.Location(cfg.Timezone)
	if err != nil {
		return nil, err
	}
	tomorrow := time.Now().In(loc).AddDate(0, 0, 1)
	// Skip to Monday when tomorrow falls on a weekend; seeding only creates
	// weekday windows.
	for tomorrow.Weekday() == time.Saturday || tomorrow.Weekday() == time.Sunday {
		tomorrow = tomorrow.AddDate(0, 0, 1)
	}
	date := tomorrow.Format(localtime.DateLayout)

	vetRows, err := pool.Query(ctx, `
		SELECT v.id, v.practice_id
		FROM vets v
		JOIN practices p ON p.id = v.practice_id
		WHERE v.active AND p.timezone = $1
		LIMIT $2
	`, cfg.Timezone, cfg.TargetSlots)
	if err != nil {
		return nil, fmt.Errorf("load vets: %w", err)
	}
	defer vetRows.Close()

	clocks := []string{"09:00", "10:30", "13:00", "14:30", "16:00"}
	i := 0
	for vetRows.Next() {
		var vetID, practiceID uuid.UUID
		if err := vetRows.Scan(&vetID, &practiceID); err != nil {
			return nil, err
		}
		dp.Targets = append(dp.Targets, Target{
			PracticeID: practiceID,
			VetID:      vetID,
			LocalDate:  date,
			LocalTime:  clocks[i%len(clocks)],
		})
		i++
	}
	if err := vetRows.Err(); err != nil {
		return nil, err
	}
	if len(dp.Targets) == 0 {
		return nil, fmt.Errorf("no vets found for timezone %s, run cmd/seed first", cfg.Timezone)
	}

	return dp, nil
}

func attemptBooking(ctx context.Context, client *http.Client, cfg SimConfig, target Target, owner uuid.UUID, metrics *OperationMetrics) {
	body, _ := json.Marshal(map[string]any{
		"practice_id": target.PracticeID.String(),
		"owner_id":    owner.String(),
		"vet_id":      target.VetID.String(),
		"local_date":  target.LocalDate,
		"local_time":  target.LocalTime,
		"timezone":    cfg.Timezone,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, cfg.APIBaseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := client.Do(req)
	latency := time.Since(start)
	if err != nil {
		if ctx.Err() == nil {
			metrics.Record(latency, false, false)
		}
		return
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	metrics.Record(latency, resp.StatusCode == http.StatusCreated, resp.StatusCode == http.StatusConflict)
}

// auditOverlaps asks Postgres directly whether any two live appointments for
// the same vet overlap. The exclusion constraint should make this impossible.
func auditOverlaps(ctx context.Context, pool *pgxpool.Pool) error {
	var count int
	err := pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments a
		JOIN appointments b
		  ON a.vet_id = b.vet_id
		 AND a.id < b.id
		 AND a.appointment_at < b.appointment_at + make_interval(mins => b.duration_minutes)
		 AND b.appointment_at < a.appointment_at + make_interval(mins => a.duration_minutes)
		WHERE a.status NOT IN ('cancelled', 'no_show', 'completed')
		  AND b.status NOT IN ('cancelled', 'no_show', 'completed')
	`).Scan(&count)
	if err != nil {
		return fmt.Errorf("audit query: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("%d overlapping live appointment pairs found", count)
	}
	return nil
}

func printReport(m *OperationMetrics) {
	avg, p50, p95 := m.Stats()
	fmt.Println()
	fmt.Println("=== booking race report ===")
	fmt.Printf("attempts:  %d\n", atomic.LoadInt64(&m.Total))
	fmt.Printf("booked:    %d\n", atomic.LoadInt64(&m.Booked))
	fmt.Printf("conflicts: %d\n", atomic.LoadInt64(&m.Conflict))
	fmt.Printf("errors:    %d\n", atomic.LoadInt64(&m.Error))
	fmt.Printf("latency:   avg=%s p50=%s p95=%s\n", avg, p50, p95)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}
