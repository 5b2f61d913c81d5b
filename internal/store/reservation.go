package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/repoeli/dinner-hoting-app/internal/model"
)

const reservationColumns = `id, dinner_id, guest_name, email, phone, seats, notes, preferences, created_at`

type ReservationStore struct {
	db *sql.DB
}

func NewReservationStore(db *sql.DB) *ReservationStore {
	return &ReservationStore{db: db}
}

// Create inserts a reservation for dinnerID. Capacity is not checked here.
func (s *ReservationStore) Create(dinnerID int64, r model.Reservation) (*model.Reservation, error) {
	prefs := r.Preferences
	if prefs == nil {
		prefs = []string{}
	}
	prefsJSON, err := json.Marshal(prefs)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	createdAt := r.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := s.db.Exec(
		`INSERT INTO reservations (dinner_id, guest_name, email, phone, seats, notes, preferences, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		dinnerID, r.GuestName, r.Email, r.Phone, r.Seats, r.Notes, string(prefsJSON), createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reservation: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(id)
}

func (s *ReservationStore) GetByID(id int64) (*model.Reservation, error) {
	row := s.db.QueryRow(`SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	r, err := scanReservation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query reservation: %w", err)
	}
	return r, nil
}

// List returns all reservations, or only those of dinnerID when it is non-nil.
func (s *ReservationStore) List(dinnerID *int64) ([]model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations`
	var args []any
	if dinnerID != nil {
		query += ` WHERE dinner_id = ?`
		args = append(args, *dinnerID)
	}
	query += ` ORDER BY id ASC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query reservations: %w", err)
	}
	defer rows.Close()

	var reservations []model.Reservation
	for rows.Next() {
		r, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, *r)
	}
	return reservations, rows.Err()
}

func scanReservation(row scanner) (*model.Reservation, error) {
	var r model.Reservation
	var id, dinnerID int64
	var prefs string

	if err := row.Scan(&id, &dinnerID, &r.GuestName, &r.Email, &r.Phone, &r.Seats, &r.Notes, &prefs, &r.CreatedAt); err != nil {
		return nil, err
	}

	r.ID = model.ID(strconv.FormatInt(id, 10))
	r.DinnerID = model.ID(strconv.FormatInt(dinnerID, 10))
	if prefs != "" {
		if err := json.Unmarshal([]byte(prefs), &r.Preferences); err != nil {
			return nil, fmt.Errorf("decode preferences: %w", err)
		}
	}
	return &r, nil
}
