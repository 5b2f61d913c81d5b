package store

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

const dinnerColumns = `id, title, description, date, time, price, max_guests, host_id, host_name, image, category, is_public, created_at`

type DinnerStore struct {
	db *sql.DB
}

func NewDinnerStore(db *sql.DB) *DinnerStore {
	return &DinnerStore{db: db}
}

// Create inserts d and returns the stored row. Any id on d is ignored; the
// database assigns one.
func (s *DinnerStore) Create(d model.Dinner) (*model.Dinner, error) {
	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO dinners (title, description, date, time, price, max_guests, host_id, host_name, image, category, is_public, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.Title, d.Description, d.Date, d.Time, d.Price, d.MaxGuests, d.HostID.String(), d.HostName, d.Image, d.Category, boolToInt(d.IsPublic), createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert dinner: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *DinnerStore) GetByID(id int64) (*model.Dinner, error) {
	row := s.db.QueryRow(`SELECT `+dinnerColumns+` FROM dinners WHERE id = ?`, id)
	d, err := scanDinner(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query dinner: %w", err)
	}
	return d, nil
}

func (s *DinnerStore) List() ([]model.Dinner, error) {
	rows, err := s.db.Query(`SELECT ` + dinnerColumns + ` FROM dinners ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("query dinners: %w", err)
	}
	defer rows.Close()

	var dinners []model.Dinner
	for rows.Next() {
		d, err := scanDinner(rows)
		if err != nil {
			return nil, fmt.Errorf("scan dinner: %w", err)
		}
		dinners = append(dinners, *d)
	}
	return dinners, rows.Err()
}

// Update applies patch to the stored dinner. It returns nil, nil when the
// dinner does not exist.
func (s *DinnerStore) Update(id int64, patch model.DinnerPatch) (*model.Dinner, error) {
	existing, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}

	d := patch.Apply(*existing)
	_, err = s.db.Exec(
		`UPDATE dinners
		 SET title = ?, description = ?, date = ?, time = ?, price = ?, max_guests = ?, image = ?, category = ?, is_public = ?
		 WHERE id = ?`,
		d.Title, d.Description, d.Date, d.Time, d.Price, d.MaxGuests, d.Image, d.Category, boolToInt(d.IsPublic), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update dinner: %w", err)
	}

	return s.GetByID(id)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanDinner(row scanner) (*model.Dinner, error) {
	var d model.Dinner
	var id int64
	var hostID string
	var isPublic int

	if err := row.Scan(&id, &d.Title, &d.Description, &d.Date, &d.Time, &d.Price, &d.MaxGuests, &hostID, &d.HostName, &d.Image, &d.Category, &isPublic, &d.CreatedAt); err != nil {
		return nil, err
	}

	d.ID = model.ID(strconv.FormatInt(id, 10))
	d.HostID = model.ID(hostID)
	d.IsPublic = isPublic != 0
	return &d, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
