package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"lightbnb/internal/adapters/observability"
	"lightbnb/internal/domain"
	"lightbnb/internal/storage/query"
)

// str scans a nullable text column into a plain string ("" for NULL).
type str struct{ p *string }

func (s str) Scan(v any) error {
	var ns sql.NullString
	if err := ns.Scan(v); err != nil {
		return err
	}
	*s.p = ns.String
	return nil
}

func propertyDest(p *domain.Property) []any {
	return []any{
		&p.ID,
		&p.OwnerID,
		str{&p.Title},
		str{&p.Description},
		str{&p.ThumbnailPhotoURL},
		str{&p.CoverPhotoURL},
		&p.CostPerNight,
		&p.ParkingSpaces,
		&p.NumberOfBathrooms,
		&p.NumberOfBedrooms,
		str{&p.Country},
		str{&p.Street},
		str{&p.City},
		str{&p.Province},
		str{&p.PostCode},
		&p.Active,
	}
}

type Repo struct {
	db      *sql.DB
	dialect query.Dialect

	getUserWithEmail string
	getUserWithID    string
	insertUser       string
	getReservations  string
}

func New(db *sql.DB, d query.Dialect) *Repo {
	return &Repo{
		db:               db,
		dialect:          d,
		getUserWithEmail: d.Rebind(getUserWithEmailSQL),
		getUserWithID:    d.Rebind(getUserWithIDSQL),
		insertUser:       d.Rebind(insertUserSQL),
		getReservations:  d.Rebind(getAllReservationsSQL),
	}
}

func (r *Repo) GetUserWithEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getUser(ctx, "get_user_with_email", r.getUserWithEmail, email)
}

func (r *Repo) GetUserWithID(ctx context.Context, id int64) (*domain.User, error) {
	return r.getUser(ctx, "get_user_with_id", r.getUserWithID, id)
}

// getUser returns (nil, nil) when no row matches.
func (r *Repo) getUser(ctx context.Context, op, q string, arg any) (*domain.User, error) {
	start := time.Now()
	var u domain.User
	err := r.db.QueryRowContext(ctx, q, arg).Scan(&u.ID, &u.Name, &u.Email, &u.Password)
	if errors.Is(err, sql.ErrNoRows) {
		observability.ObserveQuery(op, "empty", time.Since(start))
		return nil, nil
	}
	if err := finish(op, start, err); err != nil {
		return nil, err
	}
	return &u, nil
}

// AddUser inserts u and returns the stored row. A duplicate email yields domain.ErrConflict.
func (r *Repo) AddUser(ctx context.Context, u domain.NewUser) (domain.User, error) {
	const op = "add_user"
	start := time.Now()

	if r.dialect == query.MySQL {
		res, err := r.db.ExecContext(ctx, r.insertUser, u.Name, u.Email, u.Password)
		if err == nil {
			var id int64
			if id, err = res.LastInsertId(); err == nil {
				return domain.User{ID: id, Name: u.Name, Email: u.Email, Password: u.Password}, finish(op, start, nil)
			}
		}
		return domain.User{}, finish(op, start, err)
	}

	var out domain.User
	err := r.db.QueryRowContext(ctx, r.insertUser+insertUserReturning, u.Name, u.Email, u.Password).
		Scan(&out.ID, &out.Name, &out.Email, &out.Password)
	if err := finish(op, start, err); err != nil {
		return domain.User{}, err
	}
	return out, nil
}

// GetAllReservations lists a guest's reservations starting today or later,
// earliest first.
func (r *Repo) GetAllReservations(ctx context.Context, guestID int64, limit int) ([]domain.UpcomingReservation, error) {
	const op = "get_all_reservations"
	if limit <= 0 {
		limit = query.DefaultLimit
	}
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, r.getReservations, guestID, limit)
	if err != nil {
		return nil, finish(op, start, err)
	}
	defer rows.Close()

	out := []domain.UpcomingReservation{}
	for rows.Next() {
		var ur domain.UpcomingReservation
		var avg sql.NullFloat64
		dest := []any{
			&ur.ID,
			&ur.GuestID,
			&ur.PropertyID,
			&ur.StartDate,
			&ur.EndDate,
		}
		dest = append(dest, propertyDest(&ur.Property)...)
		dest = append(dest, &avg)
		if err := rows.Scan(dest...); err != nil {
			return nil, finish(op, start, err)
		}
		ur.AverageRating = avg.Float64
		out = append(out, ur)
	}
	if err := finish(op, start, rows.Err()); err != nil {
		return nil, err
	}
	return out, nil
}

// SearchProperties runs the filtered search built by query.PropertySearch.
// No match is an empty slice with a nil error.
func (r *Repo) SearchProperties(ctx context.Context, f domain.PropertyFilter, limit int) ([]domain.PropertyListing, error) {
	const op = "search_properties"
	q, args, err := query.PropertySearch(r.dialect, f, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	start := time.Now()

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, finish(op, start, err)
	}
	defer rows.Close()

	out := []domain.PropertyListing{}
	for rows.Next() {
		var pl domain.PropertyListing
		var avg sql.NullFloat64
		if err := rows.Scan(append(propertyDest(&pl.Property), &avg)...); err != nil {
			return nil, finish(op, start, err)
		}
		pl.AverageRating = avg.Float64
		out = append(out, pl)
	}
	if err := finish(op, start, rows.Err()); err != nil {
		return nil, err
	}
	return out, nil
}
