// Нагрузочный прогон планировщика: наполняет каталог ревьюеров, затем
// обстреливает /schedule/next и /reviewers/setStatus с заданным RPS и
// пишет сводку по латентности в JSON-отчёт.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type runConfig struct {
	BaseURL        string
	ReviewerCount  int
	PickCount      int
	RPS            float64
	Duration       time.Duration
	RequestTimeout time.Duration
	ReportPath     string
	DatasetPrefix  string

	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
}

type latencySummary struct {
	Samples   int     `json:"samples"`
	AverageMs float64 `json:"average_ms"`
	P95Ms     float64 `json:"p95_ms"`
	MaxMs     float64 `json:"max_ms"`
}

type totalsSummary struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

type loadSummary struct {
	GeneratedAt  time.Time      `json:"generated_at"`
	BaseURL      string         `json:"base_url"`
	DurationSec  float64        `json:"duration_sec"`
	TargetRPS    float64        `json:"target_rps"`
	ActualRPS    float64        `json:"actual_rps"`
	Reviewers    int            `json:"reviewers"`
	Totals       totalsSummary  `json:"totals"`
	NextLatency  latencySummary `json:"schedule_next_latency_ms"`
	StatusTotals totalsSummary  `json:"set_status_totals"`
	Errors       []string       `json:"errors,omitempty"`
}

type metricRecorder struct {
	mu            sync.Mutex
	total         int
	success       int
	failures      int
	durations     []time.Duration
	statusTotal   int
	statusSuccess int
	errors        []string
}

func (m *metricRecorder) recordNext(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total++
	if err != nil {
		m.failures++
		if len(m.errors) < 10 {
			m.errors = append(m.errors, err.Error())
		}
		return
	}
	m.success++
	m.durations = append(m.durations, duration)
}

func (m *metricRecorder) recordStatus(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statusTotal++
	if err == nil {
		m.statusSuccess++
	} else if len(m.errors) < 10 {
		m.errors = append(m.errors, err.Error())
	}
}

func main() {
	cfg := parseFlags()

	ctx := context.Background()
	reviewerIDs, err := seedReviewers(ctx, cfg)
	if err != nil {
		log.Fatalf("seed reviewers: %v", err)
	}
	log.Printf("dataset ready: %d reviewers with prefix %q", len(reviewerIDs), cfg.DatasetPrefix)

	client := &http.Client{Timeout: cfg.RequestTimeout}
	recorder := &metricRecorder{}

	interval := time.Duration(float64(time.Second) / cfg.RPS)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	deadline := time.Now().Add(cfg.Duration)

	var wg sync.WaitGroup
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	started := time.Now()

	for time.Now().Before(deadline) {
		<-ticker.C
		wg.Add(1)
		// Примерно каждый десятый запрос — смена статуса, остальное — выдача.
		flipStatus := rng.Intn(10) == 0
		target := reviewerIDs[rng.Intn(len(reviewerIDs))]
		go func() {
			defer wg.Done()
			if flipStatus {
				recorder.recordStatus(postSetStatus(client, cfg.BaseURL, target, rng.Intn(3)))
				return
			}
			t0 := time.Now()
			err := getScheduleNext(client, cfg.BaseURL, cfg.PickCount)
			recorder.recordNext(time.Since(t0), err)
		}()
	}
	wg.Wait()
	elapsed := time.Since(started)

	summary := buildSummary(cfg, recorder, elapsed, len(reviewerIDs))
	if err := writeReport(cfg.ReportPath, summary); err != nil {
		log.Fatalf("write report: %v", err)
	}
	log.Printf("done: %d requests, %d failed, p95=%.1fms, report at %s",
		summary.Totals.Requested, summary.Totals.Failed, summary.NextLatency.P95Ms, cfg.ReportPath)
}

func parseFlags() runConfig {
	var cfg runConfig
	flag.StringVar(&cfg.BaseURL, "base-url", "http://127.0.0.1:8080", "base URL of the running service")
	flag.IntVar(&cfg.ReviewerCount, "reviewers", 50, "number of reviewers to seed")
	flag.IntVar(&cfg.PickCount, "pick", 2, "count parameter for /schedule/next")
	flag.Float64Var(&cfg.RPS, "rps", 20, "target requests per second")
	flag.DurationVar(&cfg.Duration, "duration", 30*time.Second, "load duration")
	flag.DurationVar(&cfg.RequestTimeout, "timeout", 3*time.Second, "per-request timeout")
	flag.StringVar(&cfg.ReportPath, "report", "load_report.json", "report file path")
	flag.StringVar(&cfg.DatasetPrefix, "prefix", "load", "id prefix for seeded reviewers")
	flag.StringVar(&cfg.DBHost, "db-host", "localhost", "database host")
	flag.StringVar(&cfg.DBPort, "db-port", "5432", "database port")
	flag.StringVar(&cfg.DBUser, "db-user", "postgres", "database user")
	flag.StringVar(&cfg.DBPassword, "db-password", "postgres", "database password")
	flag.StringVar(&cfg.DBName, "db-name", "review_scheduler", "database name")
	flag.Parse()

	if cfg.RPS <= 0 || cfg.ReviewerCount <= 0 {
		log.Fatal("rps and reviewers must be positive")
	}
	return cfg
}

// seedReviewers наполняет таблицу reviewers напрямую через pgx: каталог
// принадлежит внешней системе, поэтому сервисного API для вставки нет.
func seedReviewers(ctx context.Context, cfg runConfig) ([]string, error) {
	connStr := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	defer pool.Close()

	const upsert = `
	INSERT INTO reviewers (id, name, phone, role, available, status, status_since, pages)
	VALUES ($1, $2, $3, 1, true, 0, NOW(), $4)
	ON CONFLICT (id) DO UPDATE
	SET available = true, status = 0, status_since = NOW(), pages = EXCLUDED.pages
	`

	ids := make([]string, 0, cfg.ReviewerCount)
	for i := 0; i < cfg.ReviewerCount; i++ {
		id := fmt.Sprintf("%s-rev-%04d", cfg.DatasetPrefix, i)
		name := fmt.Sprintf("%s reviewer %d", cfg.DatasetPrefix, i)
		phone := fmt.Sprintf("7%010d", i)
		if _, err := pool.Exec(ctx, upsert, id, name, phone, i%200); err != nil {
			return nil, fmt.Errorf("upsert reviewer %s: %w", id, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func getScheduleNext(client *http.Client, baseURL string, count int) error {
	resp, err := client.Get(fmt.Sprintf("%s/schedule/next?count=%d", baseURL, count))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("schedule/next: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func postSetStatus(client *http.Client, baseURL, reviewerID string, status int) error {
	payload, err := json.Marshal(map[string]any{"user_id": reviewerID, "status": status})
	if err != nil {
		return err
	}
	resp, err := client.Post(baseURL+"/reviewers/setStatus", "application/json", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("setStatus: unexpected status %d", resp.StatusCode)
	}
	return nil
}

func buildSummary(cfg runConfig, m *metricRecorder, elapsed time.Duration, reviewers int) loadSummary {
	m.mu.Lock()
	defer m.mu.Unlock()

	return loadSummary{
		GeneratedAt: time.Now(),
		BaseURL:     cfg.BaseURL,
		DurationSec: elapsed.Seconds(),
		TargetRPS:   cfg.RPS,
		ActualRPS:   float64(m.total+m.statusTotal) / math.Max(elapsed.Seconds(), 0.001),
		Reviewers:   reviewers,
		Totals: totalsSummary{
			Requested: m.total,
			Succeeded: m.success,
			Failed:    m.failures,
		},
		NextLatency: summarizeLatency(m.durations),
		StatusTotals: totalsSummary{
			Requested: m.statusTotal,
			Succeeded: m.statusSuccess,
			Failed:    m.statusTotal - m.statusSuccess,
		},
		Errors: m.errors,
	}
}

func summarizeLatency(durations []time.Duration) latencySummary {
	if len(durations) == 0 {
		return latencySummary{}
	}

	sorted := make([]time.Duration, len(durations))
	copy(sorted, durations)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	var total time.Duration
	for _, d := range sorted {
		total += d
	}
	p95Index := int(math.Ceil(float64(len(sorted))*0.95)) - 1
	if p95Index < 0 {
		p95Index = 0
	}

	return latencySummary{
		Samples:   len(sorted),
		AverageMs: float64(total.Milliseconds()) / float64(len(sorted)),
		P95Ms:     float64(sorted[p95Index].Milliseconds()),
		MaxMs:     float64(sorted[len(sorted)-1].Milliseconds()),
	}
}

func writeReport(path string, summary loadSummary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
