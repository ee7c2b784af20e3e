package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hackgods/workshop-scheduler/internal/appointment"
	"github.com/hackgods/workshop-scheduler/internal/db"
)

// SimConfig drives a load run against a live api-server. Bookings land in
// a narrow window so concurrent requests for the same staff collide.
type SimConfig struct {
	APIBaseURL    string
	Duration      time.Duration
	Workers       int
	BookingRatio  float64
	CompleteRatio float64
	ReadRatio     float64
	Staff         int
	WindowDays    int
}

type DataPool struct {
	Staff        []int64
	Day          time.Time
	mu           sync.RWMutex
	appointments []int64 // Thread-safe list of created appointment IDs
}

func (dp *DataPool) AddAppointment(id int64) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.appointments = append(dp.appointments, id)
}

func (dp *DataPool) GetRandomAppointment(rng *rand.Rand) (int64, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.appointments) == 0 {
		return 0, false
	}
	return dp.appointments[rng.Intn(len(dp.appointments))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
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
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	Booking  OperationMetrics
	Complete OperationMetrics
	ReadByID OperationMetrics
	Search   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
}

// envelope mirrors the api-server response body.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

type apptBody struct {
	ID        int64   `json:"id"`
	StaffID   int64   `json:"staff_id"`
	StartTime string  `json:"start_time"`
	EndTime   *string `json:"end_time"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("simulator starting")

	cfg := loadConfig()
	if err := validateConfig(cfg); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	log.Printf("config: duration=%s workers=%d booking=%.2f complete=%.2f read=%.2f staff=%d",
		cfg.Duration, cfg.Workers, cfg.BookingRatio, cfg.CompleteRatio, cfg.ReadRatio, cfg.Staff)

	sim := &Simulator{
		config: cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := sim.prepare(ctx)
	if err != nil {
		log.Fatalf("prepare: %v", err)
	}
	sim.pool = pool
	log.Printf("using %d staff on %s", len(pool.Staff), pool.Day.Format("2006-01-02"))

	sim.Run()
	sim.PrintReport()

	violations, err := sim.verify(context.Background())
	if err != nil {
		log.Fatalf("verify: %v", err)
	}
	if violations > 0 {
		log.Fatalf("found %d overlapping appointment pairs", violations)
	}
	log.Println("no overlapping appointments found")
}

func loadConfig() SimConfig {
	cfg := SimConfig{
		APIBaseURL:    strings.TrimSuffix(getEnv("SIM_API_BASE_URL", "http://localhost:8080"), "/"),
		Duration:      getDuration("SIM_DURATION", 30*time.Second),
		Workers:       getInt("SIM_WORKERS", 10),
		BookingRatio:  getFloat("SIM_BOOKING_RATIO", 0.6),
		CompleteRatio: getFloat("SIM_COMPLETE_RATIO", 0.1),
		ReadRatio:     getFloat("SIM_READ_RATIO", 0.3),
		Staff:         getInt("SIM_STAFF", 3),
		WindowDays:    getInt("SIM_WINDOW_DAYS", 1),
	}

	// Normalize ratios
	total := cfg.BookingRatio + cfg.CompleteRatio + cfg.ReadRatio
	if total > 0 {
		cfg.BookingRatio /= total
		cfg.CompleteRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.Staff <= 0 {
		return fmt.Errorf("SIM_STAFF must be > 0")
	}
	if cfg.WindowDays <= 0 {
		return fmt.Errorf("SIM_WINDOW_DAYS must be > 0")
	}
	return nil
}

// prepare creates the simulation's own staff so earlier runs do not skew
// the conflict counts.
func (s *Simulator) prepare(ctx context.Context) (*DataPool, error) {
	pool := &DataPool{}

	run := time.Now().Format("150405")
	for i := 0; i < s.config.Staff; i++ {
		var created struct {
			ID int64 `json:"id"`
		}
		status, err := s.call(ctx, http.MethodPost, "/staff", map[string]any{
			"name": fmt.Sprintf("sim-%s-%d", run, i+1),
		}, &created)
		if err != nil {
			return nil, err
		}
		if status != http.StatusCreated {
			return nil, fmt.Errorf("create staff: status %d", status)
		}
		pool.Staff = append(pool.Staff, created.ID)
	}

	// A day far enough ahead that nothing else is booked on it.
	y, m, d := time.Now().AddDate(1, 0, 0).Date()
	pool.Day = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return pool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	log.Printf("starting simulation for %s with %d workers", s.config.Duration, s.config.Workers)

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	log.Println("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.BookingRatio:
				s.doBooking(ctx, rng)
			case r < s.config.BookingRatio+s.config.CompleteRatio:
				s.doComplete(ctx, rng)
			case rng.Intn(2) == 0:
				s.doReadByID(ctx, rng)
			default:
				s.doSearch(ctx, rng)
			}
		}
	}
}

// doBooking asks for a 15-90 minute slot on a quarter hour between 09:00
// and 18:00, so overlapping requests are common.
func (s *Simulator) doBooking(ctx context.Context, rng *rand.Rand) {
	staffID := s.pool.Staff[rng.Intn(len(s.pool.Staff))]
	day := s.pool.Day.AddDate(0, 0, rng.Intn(s.config.WindowDays))
	start := day.Add(9*time.Hour + time.Duration(rng.Intn(36))*15*time.Minute)
	end := start.Add(time.Duration(1+rng.Intn(6)) * 15 * time.Minute)

	begin := time.Now()
	var created apptBody
	status, err := s.call(ctx, http.MethodPost, "/appointments", map[string]any{
		"customer_name":     fmt.Sprintf("sim customer %d", rng.Intn(1000)),
		"staff_id":          staffID,
		"start_time":        start.Format(db.TimeLayout),
		"end_time":          end.Format(db.TimeLayout),
		"business_category": "simulation",
	}, &created)
	latency := time.Since(begin)
	if ctx.Err() != nil {
		return
	}

	success := err == nil && status == http.StatusCreated
	if success && created.ID != 0 {
		s.pool.AddAppointment(created.ID)
	}
	s.metrics.Booking.Record(latency, success, status == http.StatusConflict)
}

func (s *Simulator) doComplete(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	begin := time.Now()
	status, err := s.call(ctx, http.MethodPost, fmt.Sprintf("/appointments/%d/complete", id), nil, nil)
	latency := time.Since(begin)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Complete.Record(latency, err == nil && status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doReadByID(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.GetRandomAppointment(rng)
	if !ok {
		return
	}

	begin := time.Now()
	status, err := s.call(ctx, http.MethodGet, fmt.Sprintf("/appointments/%d", id), nil, nil)
	latency := time.Since(begin)
	if ctx.Err() != nil {
		return
	}
	s.metrics.ReadByID.Record(latency, err == nil && status == http.StatusOK, false)
}

func (s *Simulator) doSearch(ctx context.Context, rng *rand.Rand) {
	staffID := s.pool.Staff[rng.Intn(len(s.pool.Staff))]

	begin := time.Now()
	status, err := s.call(ctx, http.MethodGet,
		fmt.Sprintf("/appointments?staff_id=%d&limit=20&page=1", staffID), nil, nil)
	latency := time.Since(begin)
	if ctx.Err() != nil {
		return
	}
	s.metrics.Search.Record(latency, err == nil && status == http.StatusOK, false)
}

// verify reloads every simulated appointment and counts overlapping pairs
// per staff member. Any non-zero result is a scheduling bug.
func (s *Simulator) verify(ctx context.Context) (int, error) {
	from := s.pool.Day.Format("2006-01-02")
	to := s.pool.Day.AddDate(0, 0, s.config.WindowDays-1).Format("2006-01-02")

	violations := 0
	for _, staffID := range s.pool.Staff {
		var list []apptBody
		status, err := s.call(ctx, http.MethodGet,
			fmt.Sprintf("/appointments?staff_id=%d&start_date=%s&end_date=%s", staffID, from, to), nil, &list)
		if err != nil {
			return 0, err
		}
		if status != http.StatusOK {
			return 0, fmt.Errorf("list staff %d: status %d", staffID, status)
		}

		ranges := make([][2]time.Time, 0, len(list))
		for _, a := range list {
			start, err := time.Parse(db.TimeLayout, a.StartTime)
			if err != nil {
				return 0, fmt.Errorf("appointment %d: %w", a.ID, err)
			}
			end := start
			if a.EndTime != nil {
				if end, err = time.Parse(db.TimeLayout, *a.EndTime); err != nil {
					return 0, fmt.Errorf("appointment %d: %w", a.ID, err)
				}
			}
			ranges = append(ranges, [2]time.Time{start, end})
		}

		for i := range ranges {
			for j := i + 1; j < len(ranges); j++ {
				if appointment.Overlaps(ranges[i][0], ranges[i][1], ranges[j][0], ranges[j][1]) {
					violations++
				}
			}
		}
	}
	return violations, nil
}

// call sends body as JSON and decodes the envelope's data into out.
func (s *Simulator) call(ctx context.Context, method, path string, body any, out any) (int, error) {
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if out == nil || resp.StatusCode >= 300 {
		return resp.StatusCode, nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return resp.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return resp.StatusCode, fmt.Errorf("decode data %s %s: %w", method, path, err)
	}
	return resp.StatusCode, nil
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Booking", &s.metrics.Booking)
	printOperationReport("Complete", &s.metrics.Complete)
	printOperationReport("Read by ID", &s.metrics.ReadByID)
	printOperationReport("Search by staff", &s.metrics.Search)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
