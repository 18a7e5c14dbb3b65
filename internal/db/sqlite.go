package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ukydev/garage-ops/internal/models"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS vehicles (
	id         TEXT PRIMARY KEY,
	category   TEXT NOT NULL,
	brand      TEXT NOT NULL,
	model      TEXT NOT NULL DEFAULT '',
	year       INTEGER NOT NULL DEFAULT 0,
	plate      TEXT NOT NULL DEFAULT '',
	mileage    INTEGER NOT NULL DEFAULT 0,
	photo_url  TEXT NOT NULL DEFAULT '',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS services (
	id                 TEXT PRIMARY KEY,
	vehicle_id         TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	type               TEXT NOT NULL,
	mileage_at_service INTEGER NOT NULL,
	cost               REAL NOT NULL DEFAULT 0,
	date               TEXT NOT NULL,
	notes              TEXT NOT NULL DEFAULT '',
	parts              TEXT NOT NULL DEFAULT '[]',
	status             TEXT NOT NULL,
	seq                INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS fuel_logs (
	id         TEXT PRIMARY KEY,
	vehicle_id TEXT NOT NULL REFERENCES vehicles(id) ON DELETE CASCADE,
	mileage    INTEGER NOT NULL,
	liters     REAL NOT NULL,
	cost       REAL NOT NULL DEFAULT 0,
	date       TEXT NOT NULL,
	seq        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS parts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	category   TEXT NOT NULL DEFAULT '',
	sku        TEXT NOT NULL DEFAULT '',
	stock      INTEGER NOT NULL DEFAULT 0,
	unit_cost  REAL NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS templates (
	id             TEXT PRIMARY KEY,
	name           TEXT NOT NULL,
	service_type   TEXT NOT NULL,
	parts          TEXT NOT NULL DEFAULT '[]',
	estimated_cost REAL NOT NULL DEFAULT 0,
	created_at     TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT UNIQUE NOT NULL,
	email         TEXT UNIQUE NOT NULL,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	first_name    TEXT NOT NULL DEFAULT '',
	last_name     TEXT NOT NULL DEFAULT '',
	is_active     INTEGER NOT NULL DEFAULT 1,
	last_login    TEXT,
	created_at    TEXT NOT NULL,
	updated_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_services_vehicle ON services(vehicle_id, seq);
CREATE INDEX IF NOT EXISTS idx_fuel_logs_vehicle ON fuel_logs(vehicle_id, seq);
`

// SQLiteStore is the single-file backend. Times are stored as RFC 3339 text in UTC.
type SQLiteStore struct {
	conn *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	connStr := fmt.Sprintf("file:%s?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000", path)

	conn, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// single writer
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(time.Hour)

	if _, err := conn.Exec(sqliteSchema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return &SQLiteStore{conn: conn}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close(context.Context) error {
	return s.conn.Close()
}

// Users returns a UserCollection sharing this store's connection.
func (s *SQLiteStore) Users() *SQLiteUserCollection {
	return &SQLiteUserCollection{conn: s.conn}
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func encodeList(items []string) (string, error) {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	return string(b), err
}

func decodeList(s string) ([]string, error) {
	var items []string
	if s == "" {
		return items, nil
	}
	err := json.Unmarshal([]byte(s), &items)
	return items, err
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func notFound(kind, id string) error {
	return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
}

func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound(kind, id)
	}
	return nil
}

const vehicleColumns = `id, category, brand, model, year, plate, mileage, photo_url, created_at, updated_at`

func scanVehicle(row rowScanner) (*models.Vehicle, error) {
	var (
		v                models.Vehicle
		created, updated string
	)
	if err := row.Scan(&v.ID, &v.Category, &v.Brand, &v.Model, &v.Year, &v.Plate, &v.Mileage, &v.PhotoURL, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if v.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if v.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &v, nil
}

// InsertVehicle adds a new vehicle. Embedded services and fuel logs are ignored.
func (s *SQLiteStore) InsertVehicle(ctx context.Context, v *models.Vehicle) error {
	now := time.Now().UTC()
	v.ID = uuid.NewString()
	v.CreatedAt = now
	v.UpdatedAt = now
	v.Services = []models.ServiceRecord{}
	v.FuelLogs = []models.FuelLogEntry{}

	query := `INSERT INTO vehicles (` + vehicleColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.conn.ExecContext(ctx, query,
		v.ID, v.Category, v.Brand, v.Model, v.Year, v.Plate, v.Mileage, v.PhotoURL,
		formatTime(now), formatTime(now),
	)
	return err
}

// FindVehicles returns all vehicles with their history, oldest first.
func (s *SQLiteStore) FindVehicles(ctx context.Context) ([]models.Vehicle, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	vehicles := make([]models.Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		vehicles = append(vehicles, *v)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// history is loaded after the cursor is closed; the pool has one connection
	for i := range vehicles {
		if err := s.loadHistory(ctx, &vehicles[i]); err != nil {
			return nil, err
		}
	}
	return vehicles, nil
}

// FindVehicleByID retrieves a vehicle with its services and fuel logs.
func (s *SQLiteStore) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	row := s.conn.QueryRowContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id)
	v, err := scanVehicle(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound("vehicle", id)
		}
		return nil, err
	}
	if err := s.loadHistory(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *SQLiteStore) loadHistory(ctx context.Context, v *models.Vehicle) error {
	services, err := s.servicesFor(ctx, v.ID)
	if err != nil {
		return err
	}
	logs, err := s.fuelLogsFor(ctx, v.ID)
	if err != nil {
		return err
	}
	v.Services = services
	v.FuelLogs = logs
	return nil
}

func (s *SQLiteStore) servicesFor(ctx context.Context, vehicleID string) ([]models.ServiceRecord, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, type, mileage_at_service, cost, date, notes, parts, status
		FROM services WHERE vehicle_id = ? ORDER BY seq`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	services := make([]models.ServiceRecord, 0)
	for rows.Next() {
		var (
			rec         models.ServiceRecord
			date, parts string
		)
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.MileageAtService, &rec.Cost, &date, &rec.Notes, &parts, &rec.Status); err != nil {
			return nil, err
		}
		if rec.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		if rec.Parts, err = decodeList(parts); err != nil {
			return nil, err
		}
		services = append(services, rec)
	}
	return services, rows.Err()
}

func (s *SQLiteStore) fuelLogsFor(ctx context.Context, vehicleID string) ([]models.FuelLogEntry, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, mileage, liters, cost, date
		FROM fuel_logs WHERE vehicle_id = ? ORDER BY seq`, vehicleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]models.FuelLogEntry, 0)
	for rows.Next() {
		var (
			entry models.FuelLogEntry
			date  string
		)
		if err := rows.Scan(&entry.ID, &entry.Mileage, &entry.Liters, &entry.Cost, &date); err != nil {
			return nil, err
		}
		if entry.Date, err = parseTime(date); err != nil {
			return nil, err
		}
		logs = append(logs, entry)
	}
	return logs, rows.Err()
}

// UpdateVehicle replaces the profile fields of a vehicle.
func (s *SQLiteStore) UpdateVehicle(ctx context.Context, id string, v models.Vehicle) error {
	res, err := s.conn.ExecContext(ctx, `
		UPDATE vehicles
		SET category = ?, brand = ?, model = ?, year = ?, plate = ?, mileage = ?, photo_url = ?, updated_at = ?
		WHERE id = ?`,
		v.Category, v.Brand, v.Model, v.Year, v.Plate, v.Mileage, v.PhotoURL, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res, "vehicle", id)
}

// DeleteVehicle removes a vehicle; its services and fuel logs cascade.
func (s *SQLiteStore) DeleteVehicle(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "vehicle", id)
}

// AddService appends a service record to a vehicle.
func (s *SQLiteStore) AddService(ctx context.Context, vehicleID string, rec *models.ServiceRecord) error {
	parts, err := encodeList(rec.Parts)
	if err != nil {
		return err
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE vehicles SET updated_at = ? WHERE id = ?`, formatTime(time.Now()), vehicleID)
		if err != nil {
			return err
		}
		if err := checkAffected(res, "vehicle", vehicleID); err != nil {
			return err
		}
		rec.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO services (id, vehicle_id, type, mileage_at_service, cost, date, notes, parts, status, seq)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM services WHERE vehicle_id = ?))`,
			rec.ID, vehicleID, rec.Type, rec.MileageAtService, rec.Cost, formatTime(rec.Date), rec.Notes, parts, rec.Status, vehicleID,
		)
		return err
	})
}

// UpdateServiceStatus moves a service record to a new status.
func (s *SQLiteStore) UpdateServiceStatus(ctx context.Context, vehicleID, serviceID string, status models.ServiceStatus) error {
	res, err := s.conn.ExecContext(ctx, `UPDATE services SET status = ? WHERE id = ? AND vehicle_id = ?`, status, serviceID, vehicleID)
	if err != nil {
		return err
	}
	return checkAffected(res, "service", serviceID)
}

// AddFuelLog appends a fuel log and raises the vehicle mileage if the new reading is higher.
func (s *SQLiteStore) AddFuelLog(ctx context.Context, vehicleID string, entry *models.FuelLogEntry) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE vehicles SET mileage = MAX(mileage, ?), updated_at = ? WHERE id = ?`,
			entry.Mileage, formatTime(time.Now()), vehicleID,
		)
		if err != nil {
			return err
		}
		if err := checkAffected(res, "vehicle", vehicleID); err != nil {
			return err
		}
		entry.ID = uuid.NewString()
		_, err = tx.ExecContext(ctx, `
			INSERT INTO fuel_logs (id, vehicle_id, mileage, liters, cost, date, seq)
			VALUES (?, ?, ?, ?, ?, ?,
				(SELECT COALESCE(MAX(seq), 0) + 1 FROM fuel_logs WHERE vehicle_id = ?))`,
			entry.ID, vehicleID, entry.Mileage, entry.Liters, entry.Cost, formatTime(entry.Date), vehicleID,
		)
		return err
	})
}

const partColumns = `id, name, category, sku, stock, unit_cost, created_at, updated_at`

func scanPart(row rowScanner) (*models.Part, error) {
	var (
		p                models.Part
		created, updated string
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Category, &p.SKU, &p.Stock, &p.UnitCost, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if p.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if p.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPart adds an inventory item.
func (s *SQLiteStore) InsertPart(ctx context.Context, p *models.Part) error {
	now := time.Now().UTC()
	p.ID = uuid.NewString()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Stock < 0 {
		p.Stock = 0
	}
	_, err := s.conn.ExecContext(ctx, `INSERT INTO parts (`+partColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Category, p.SKU, p.Stock, p.UnitCost, formatTime(now), formatTime(now),
	)
	return err
}

// FindParts returns the inventory ordered by name.
func (s *SQLiteStore) FindParts(ctx context.Context) ([]models.Part, error) {
	rows, err := s.conn.QueryContext(ctx, `SELECT `+partColumns+` FROM parts ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	parts := make([]models.Part, 0)
	for rows.Next() {
		p, err := scanPart(rows)
		if err != nil {
			return nil, err
		}
		parts = append(parts, *p)
	}
	return parts, rows.Err()
}

// AdjustStock adds delta to the stock of a part, clamping at zero.
func (s *SQLiteStore) AdjustStock(ctx context.Context, id string, delta int) (*models.Part, error) {
	var part *models.Part
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `UPDATE parts SET stock = MAX(0, stock + ?), updated_at = ? WHERE id = ?`,
			delta, formatTime(time.Now()), id)
		if err != nil {
			return err
		}
		if err := checkAffected(res, "part", id); err != nil {
			return err
		}
		part, err = scanPart(tx.QueryRowContext(ctx, `SELECT `+partColumns+` FROM parts WHERE id = ?`, id))
		return err
	})
	if err != nil {
		return nil, err
	}
	return part, nil
}

// DeletePart removes an inventory item.
func (s *SQLiteStore) DeletePart(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM parts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "part", id)
}

// InsertTemplate adds a service template.
func (s *SQLiteStore) InsertTemplate(ctx context.Context, t *models.ServiceTemplate) error {
	parts, err := encodeList(t.Parts)
	if err != nil {
		return err
	}
	t.ID = uuid.NewString()
	t.CreatedAt = time.Now().UTC()
	if t.Parts == nil {
		t.Parts = []string{}
	}
	_, err = s.conn.ExecContext(ctx, `
		INSERT INTO templates (id, name, service_type, parts, estimated_cost, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.Name, t.ServiceType, parts, t.EstimatedCost, formatTime(t.CreatedAt),
	)
	return err
}

// FindTemplates returns all service templates ordered by name.
func (s *SQLiteStore) FindTemplates(ctx context.Context) ([]models.ServiceTemplate, error) {
	rows, err := s.conn.QueryContext(ctx, `
		SELECT id, name, service_type, parts, estimated_cost, created_at
		FROM templates ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := make([]models.ServiceTemplate, 0)
	for rows.Next() {
		var (
			t              models.ServiceTemplate
			parts, created string
		)
		if err := rows.Scan(&t.ID, &t.Name, &t.ServiceType, &parts, &t.EstimatedCost, &created); err != nil {
			return nil, err
		}
		if t.Parts, err = decodeList(parts); err != nil {
			return nil, err
		}
		if t.CreatedAt, err = parseTime(created); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// DeleteTemplate removes a service template.
func (s *SQLiteStore) DeleteTemplate(ctx context.Context, id string) error {
	res, err := s.conn.ExecContext(ctx, `DELETE FROM templates WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "template", id)
}

func (s *SQLiteStore) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// SQLiteUserCollection implements UserCollection on the SQLite backend.
type SQLiteUserCollection struct {
	conn *sql.DB
}

const userColumns = `id, username, email, password_hash, role, first_name, last_name, is_active, last_login, created_at, updated_at`

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                models.User
		lastLogin        sql.NullString
		created, updated string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.FirstName, &u.LastName,
		&u.IsActive, &lastLogin, &created, &updated); err != nil {
		return nil, err
	}
	var err error
	if lastLogin.Valid {
		t, err := parseTime(lastLogin.String)
		if err != nil {
			return nil, err
		}
		u.LastLogin = &t
	}
	if u.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	return &u, nil
}

// InsertUser inserts a new active user.
func (c *SQLiteUserCollection) InsertUser(ctx context.Context, u *models.User) error {
	now := time.Now().UTC()
	u.ID = uuid.NewString()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.IsActive = true
	_, err := c.conn.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, first_name, last_name, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		u.ID, u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, formatTime(now), formatTime(now),
	)
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("user %s already exists: %w", u.Username, err)
	}
	return err
}

func (c *SQLiteUserCollection) findOne(ctx context.Context, where string, arg any) (*models.User, error) {
	u, err := scanUser(c.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE `+where+` = ?`, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user: %w", ErrNotFound)
		}
		return nil, err
	}
	return u, nil
}

// FindUserByID finds a user by their ID.
func (c *SQLiteUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	return c.findOne(ctx, "id", id)
}

// FindUserByUsername finds a user by their username.
func (c *SQLiteUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, "username", username)
}

// FindUserByEmail finds a user by their email.
func (c *SQLiteUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, "email", email)
}

// FindUsers lists all users ordered by username.
func (c *SQLiteUserCollection) FindUsers(ctx context.Context) ([]models.User, error) {
	rows, err := c.conn.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]models.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// UpdateUser replaces a user's profile, role and password hash.
func (c *SQLiteUserCollection) UpdateUser(ctx context.Context, id string, u models.User) error {
	res, err := c.conn.ExecContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, role = ?, first_name = ?, last_name = ?, is_active = ?, updated_at = ?
		WHERE id = ?`,
		u.Username, u.Email, u.PasswordHash, u.Role, u.FirstName, u.LastName, u.IsActive, formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return checkAffected(res, "user", id)
}

// DeleteUser deletes a user.
func (c *SQLiteUserCollection) DeleteUser(ctx context.Context, id string) error {
	res, err := c.conn.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return checkAffected(res, "user", id)
}

// UpdateLastLogin records the current time as the user's last login.
func (c *SQLiteUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	now := formatTime(time.Now())
	_, err := c.conn.ExecContext(ctx, `UPDATE users SET last_login = ?, updated_at = ? WHERE id = ?`, now, now, id)
	return err
}
