package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"
)

// Vehicle is the body posted to /vehicles.
type Vehicle struct {
	Category string `json:"category"`
	Brand    string `json:"brand"`
	Model    string `json:"model"`
	Year     int    `json:"year"`
	Plate    string `json:"plate"`
	Mileage  int    `json:"mileage"`
}

// Service is the body posted to /vehicles/{id}/services.
type Service struct {
	Type             string   `json:"type"`
	MileageAtService int      `json:"mileage_at_service"`
	Cost             float64  `json:"cost"`
	Date             string   `json:"date"`
	Parts            []string `json:"parts,omitempty"`
	Status           string   `json:"status"`
}

// FuelLog is the body posted to /vehicles/{id}/fuel-logs.
type FuelLog struct {
	Mileage int     `json:"mileage"`
	Liters  float64 `json:"liters"`
	Cost    float64 `json:"cost"`
	Date    string  `json:"date"`
}

// Part is the body posted to /parts.
type Part struct {
	Name     string  `json:"name"`
	Category string  `json:"category"`
	SKU      string  `json:"sku"`
	Stock    int     `json:"stock"`
	UnitCost float64 `json:"unit_cost"`
}

var catalog = map[string][][2]string{
	"car": {
		{"Toyota", "Corolla"}, {"Volkswagen", "Golf"}, {"Fiat", "Uno"},
		{"Honda", "Civic"}, {"Chevrolet", "Onix"},
	},
	"motorcycle": {
		{"Honda", "CB 500"}, {"Yamaha", "MT-07"}, {"Kawasaki", "Z400"},
	},
}

var demoParts = []Part{
	{Name: "Oil filter", Category: "filters", SKU: "FLT-OIL", Stock: 12, UnitCost: 9.5},
	{Name: "Engine oil 5W30 (1L)", Category: "fluids", SKU: "OIL-5W30", Stock: 40, UnitCost: 11},
	{Name: "Brake pads", Category: "brakes", SKU: "BRK-PAD", Stock: 2, UnitCost: 38},
	{Name: "Spark plug", Category: "ignition", SKU: "IGN-SPK", Stock: 3, UnitCost: 6.75},
	{Name: "Chain kit", Category: "transmission", SKU: "TRN-CHN", Stock: 5, UnitCost: 95},
}

const dateLayout = "2006-01-02"

type seeder struct {
	apiURL string
	token  string
	client *http.Client
	rng    *rand.Rand
	now    time.Time
}

func (s *seeder) post(path string, body any, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal %s body: %w", path, err)
	}
	req, err := http.NewRequest(http.MethodPost, s.apiURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return fmt.Errorf("post %s failed with status: %d", path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// login obtains a token, registering the account first when it does not exist yet.
func (s *seeder) login(username, password string) error {
	var resp struct {
		Token string `json:"token"`
	}
	creds := map[string]string{"username": username, "password": password}
	if err := s.post("/auth/login", creds, &resp); err == nil {
		s.token = resp.Token
		return nil
	}

	register := map[string]string{
		"username": username,
		"password": password,
		"email":    username + "@garage.local",
		"role":     "admin",
	}
	if err := s.post("/auth/register", register, &resp); err != nil {
		return fmt.Errorf("login and register both failed: %w", err)
	}
	s.token = resp.Token
	return nil
}

func (s *seeder) randomVehicle(i int) Vehicle {
	category := "car"
	if s.rng.Intn(3) == 0 {
		category = "motorcycle"
	}
	pick := catalog[category][s.rng.Intn(len(catalog[category]))]
	return Vehicle{
		Category: category,
		Brand:    pick[0],
		Model:    pick[1],
		Year:     2015 + s.rng.Intn(10),
		Plate:    fmt.Sprintf("GAR-%03d", i+1),
		Mileage:  0,
	}
}

// history generates oil changes at roughly the category interval, spread
// evenly over the past months, plus a scheduled service for today.
func (s *seeder) history(v Vehicle, months int) ([]Service, []FuelLog, int) {
	interval := 10000
	kmPerL := 11.0
	if v.Category == "motorcycle" {
		interval = 5000
		kmPerL = 28
	}

	start := s.now.AddDate(0, -months, 0)
	days := int(s.now.Sub(start).Hours() / 24)
	kmPerDay := float64(interval) / 60 * (0.7 + s.rng.Float64()*0.6)

	var services []Service
	var logs []FuelLog
	mileage := 0
	for day := 0; day <= days; day += 7 {
		date := start.AddDate(0, 0, day)
		next := int(float64(day) * kmPerDay)
		if next/interval > mileage/interval {
			services = append(services, Service{
				Type:             "oil_change",
				MileageAtService: next / interval * interval,
				Cost:             float64(80 + s.rng.Intn(60)),
				Date:             date.Format(dateLayout),
				Parts:            []string{"Oil filter", "Engine oil 5W30 (1L)"},
				Status:           "completed",
			})
		}
		mileage = next
		if day > 0 {
			liters := float64(int(kmPerDay*7/kmPerL*(0.9+s.rng.Float64()*0.2)*10)) / 10
			logs = append(logs, FuelLog{Mileage: mileage, Liters: liters, Cost: liters * 1.6, Date: date.Format(dateLayout)})
		}
	}
	services = append(services, Service{
		Type:             "inspection",
		MileageAtService: mileage,
		Cost:             60,
		Date:             s.now.Format(dateLayout),
		Status:           "scheduled",
	})
	return services, logs, mileage
}

func (s *seeder) seedVehicle(i, months int) error {
	v := s.randomVehicle(i)
	var created struct {
		ID string `json:"id"`
	}
	if err := s.post("/vehicles", v, &created); err != nil {
		return err
	}
	if created.ID == "" {
		return fmt.Errorf("invalid vehicle ID in response")
	}

	services, logs, mileage := s.history(v, months)
	for _, svc := range services {
		if err := s.post("/vehicles/"+created.ID+"/services", svc, nil); err != nil {
			return err
		}
	}
	for _, fl := range logs {
		if err := s.post("/vehicles/"+created.ID+"/fuel-logs", fl, nil); err != nil {
			return err
		}
	}

	log.WithFields(log.Fields{
		"vehicle_id": created.ID,
		"vehicle":    v.Brand + " " + v.Model,
		"mileage":    mileage,
		"services":   len(services),
		"fuel_logs":  len(logs),
	}).Info("Seeded vehicle")
	return nil
}

func envInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func main() {
	apiURL := os.Getenv("API_BASE_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080/api"
	}
	username := os.Getenv("SEED_USERNAME")
	if username == "" {
		username = "admin"
	}
	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		password = "garage-admin-1"
	}
	fleetSize := envInt("FLEET_SIZE", 5)
	months := envInt("SEED_MONTHS", 6)

	s := &seeder{
		apiURL: apiURL,
		token:  os.Getenv("SEED_AUTH_TOKEN"),
		client: &http.Client{Timeout: 10 * time.Second},
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		now:    time.Now().UTC(),
	}

	log.WithFields(log.Fields{
		"fleet_size": fleetSize,
		"api_url":    apiURL,
		"months":     months,
	}).Info("Starting garage seed")

	if s.token == "" {
		if err := s.login(username, password); err != nil {
			log.WithError(err).Fatal("Failed to authenticate")
		}
	}

	for _, p := range demoParts {
		if err := s.post("/parts", p, nil); err != nil {
			log.WithError(err).WithField("sku", p.SKU).Error("Failed to create part")
		}
	}

	seeded := 0
	for i := 0; i < fleetSize; i++ {
		if err := s.seedVehicle(i, months); err != nil {
			log.WithError(err).Error("Failed to seed vehicle")
			continue
		}
		seeded++
	}
	log.WithField("seeded_vehicles", seeded).Info("Seed completed")
	if seeded == 0 {
		os.Exit(1)
	}
}
