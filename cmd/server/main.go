package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"parcel-sim-service/internal/adapters/cache"
	"parcel-sim-service/internal/adapters/geometry"
	"parcel-sim-service/internal/adapters/journal"
	"parcel-sim-service/internal/adapters/routing"
	"parcel-sim-service/internal/api"
	"parcel-sim-service/internal/config"
	"parcel-sim-service/internal/domain"
	"parcel-sim-service/internal/platform/db"
	"parcel-sim-service/internal/ports"
	"parcel-sim-service/internal/services"
	"parcel-sim-service/internal/sim"
	"parcel-sim-service/internal/store"
)

// main is the application composition root.
// It wires concrete adapters (ORS, Redis, Postgres) behind ports, starts
// the simulation clock, and serves the HTTP API.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	port := config.Get("PORT", "8080")
	hubsPath := config.Get("HUBS_PATH", "")
	tickInterval := tickIntervalFromEnv()

	orsKey := os.Getenv("ORS_API_KEY")
	if strings.TrimSpace(orsKey) == "" {
		log.Fatal("ORS_API_KEY is required")
	}

	// Route cache is optional: without Redis every route is fetched fresh.
	var routeCache ports.RouteCache
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		client := redis.NewClient(&redis.Options{Addr: addr})
		routeCache = cache.NewRedisRouteCache(client, 24*time.Hour)
		log.Printf("Route cache enabled addr=%s", addr)
	}

	// Event journal is optional: without Postgres mutations are not audited.
	var eventJournal ports.EventJournal = journal.Nop{}
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		pg, err := db.Open(databaseURL)
		if err != nil {
			log.Fatal(err)
		}
		defer pg.Close()

		if err := journal.InitSchema(pg); err != nil {
			log.Fatal(err)
		}
		eventJournal = journal.NewPostgresJournal(pg)
		log.Println("Event journal enabled")
	}

	provider, err := routing.NewORSRouteProvider(orsKey, routeCache)
	if err != nil {
		log.Fatal(err)
	}
	decoder := geometry.NewPolylineDecoder()

	st := store.New()

	hubs, err := loadHubs(hubsPath)
	if err != nil {
		log.Fatal(err)
	}
	st.SetHubs(hubs)
	log.Printf("Loaded hubs count=%d", len(hubs))

	recalc := services.NewRecalculator(st, provider, decoder, eventJournal)
	svc := &services.ParcelService{
		Store:    st,
		Provider: provider,
		Decoder:  decoder,
		Journal:  eventJournal,
		Recalc:   recalc,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	clock := sim.NewClock(st, recalc)
	go clock.Run(ctx, tickInterval)

	router := api.NewRouter(st, svc, recalc, eventJournal)

	log.Printf("Server listening addr=:%s tick=%s", port, tickInterval)
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      0, // websocket streams stay open indefinitely
		IdleTimeout:       60 * time.Second,
	}
	log.Fatal(srv.ListenAndServe())
}

func tickIntervalFromEnv() time.Duration {
	raw := config.Get("TICK_MS", "100")
	ms, err := strconv.Atoi(raw)
	if err != nil || ms <= 0 {
		log.Fatalf("TICK_MS must be a positive integer, got %q", raw)
	}
	return time.Duration(ms) * time.Millisecond
}

type hubSeed struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Position domain.GeoPoint `json:"position"`
}

// loadHubs reads the hub list from a JSON seed file, falling back to a
// built-in demo set when no path is configured.
func loadHubs(path string) ([]domain.Hub, error) {
	if path == "" {
		return defaultHubs(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load hubs: %w", err)
	}

	var seeds []hubSeed
	if err := json.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("load hubs: parse %q: %w", path, err)
	}

	hubs := make([]domain.Hub, 0, len(seeds))
	for _, s := range seeds {
		if s.ID == "" || !s.Position.IsValid() {
			return nil, fmt.Errorf("load hubs: hub %q needs an id and a valid position", s.Name)
		}
		hubs = append(hubs, domain.Hub{ID: s.ID, Name: s.Name, Position: s.Position})
	}
	return hubs, nil
}

func defaultHubs() []domain.Hub {
	return []domain.Hub{
		{ID: "hub-phx-west", Name: "Phoenix West Depot", Position: domain.GeoPoint{Lat: 33.4455, Lng: -112.0952}},
		{ID: "hub-phx-airport", Name: "Sky Harbor Depot", Position: domain.GeoPoint{Lat: 33.4352, Lng: -112.0101}},
		{ID: "hub-tempe", Name: "Tempe Depot", Position: domain.GeoPoint{Lat: 33.4255, Lng: -111.9400}},
		{ID: "hub-mesa", Name: "Mesa Depot", Position: domain.GeoPoint{Lat: 33.4152, Lng: -111.8315}},
	}
}
