package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// directoryRepository holds the addresses and cards a client can pick at checkout.
// Every query is scoped by user_id; rows of another user read as not found.
type directoryRepository struct {
	db *sql.DB
}

func NewDirectoryRepository(db *sql.DB) DirectoryRepository {
	return &directoryRepository{db: db}
}

const addressColumns = `id, user_id, title, name, surname, phone, city, district, neighborhood, line, created_at, updated_at`

func (r *directoryRepository) ListAddresses(ctx context.Context, userID string) ([]*domain.Address, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query addresses: %w", err)
	}
	defer rows.Close()

	addresses := make([]*domain.Address, 0)
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("scan address: %w", err)
		}
		addresses = append(addresses, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return addresses, nil
}

func (r *directoryRepository) GetAddress(ctx context.Context, userID string, id int64) (*domain.Address, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	a, err := scanAddress(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAddressNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query address: %w", err)
	}
	return a, nil
}

func (r *directoryRepository) CreateAddress(ctx context.Context, a *domain.Address) error {
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO addresses (user_id, title, name, surname, phone, city, district, neighborhood, line)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		a.UserID, a.Title, a.Name, a.Surname, a.Phone, a.City, a.District, a.Neighborhood, a.Line,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert address: %w", err)
	}
	return nil
}

func (r *directoryRepository) UpdateAddress(ctx context.Context, a *domain.Address) error {
	err := r.db.QueryRowContext(ctx,
		`UPDATE addresses
		 SET title = $3, name = $4, surname = $5, phone = $6, city = $7, district = $8,
		     neighborhood = $9, line = $10, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.Title, a.Name, a.Surname, a.Phone, a.City, a.District, a.Neighborhood, a.Line,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrAddressNotFound
	}
	if err != nil {
		return fmt.Errorf("update address: %w", err)
	}
	return nil
}

func (r *directoryRepository) DeleteAddress(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete address: %w", err)
	}
	return expectOne(res, ErrAddressNotFound)
}

const cardColumns = `id, user_id, card_no, expire_month, expire_year, name_on_card, created_at, updated_at`

func (r *directoryRepository) ListCards(ctx context.Context, userID string) ([]*domain.Card, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := make([]*domain.Card, 0)
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return cards, nil
}

func (r *directoryRepository) GetCard(ctx context.Context, userID string, id int64) (*domain.Card, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+cardColumns+` FROM cards WHERE id = $1 AND user_id = $2`, id, userID)
	c, err := scanCard(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query card: %w", err)
	}
	return c, nil
}

func (r *directoryRepository) CreateCard(ctx context.Context, c *domain.Card) error {
	c.Number = domain.NormalizeCardNumber(c.Number)
	err := r.db.QueryRowContext(ctx,
		`INSERT INTO cards (user_id, card_no, expire_month, expire_year, name_on_card)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		c.UserID, c.Number, c.ExpireMonth, c.ExpireYear, c.NameOnCard,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert card: %w", err)
	}
	return nil
}

func (r *directoryRepository) UpdateCard(ctx context.Context, c *domain.Card) error {
	c.Number = domain.NormalizeCardNumber(c.Number)
	err := r.db.QueryRowContext(ctx,
		`UPDATE cards
		 SET card_no = $3, expire_month = $4, expire_year = $5, name_on_card = $6, updated_at = NOW()
		 WHERE id = $1 AND user_id = $2
		 RETURNING created_at, updated_at`,
		c.ID, c.UserID, c.Number, c.ExpireMonth, c.ExpireYear, c.NameOnCard,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrCardNotFound
	}
	if err != nil {
		return fmt.Errorf("update card: %w", err)
	}
	return nil
}

func (r *directoryRepository) DeleteCard(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM cards WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	return expectOne(res, ErrCardNotFound)
}

func scanAddress(row rowScanner) (*domain.Address, error) {
	var a domain.Address
	err := row.Scan(
		&a.ID,
		&a.UserID,
		&a.Title,
		&a.Name,
		&a.Surname,
		&a.Phone,
		&a.City,
		&a.District,
		&a.Neighborhood,
		&a.Line,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func scanCard(row rowScanner) (*domain.Card, error) {
	var c domain.Card
	err := row.Scan(
		&c.ID,
		&c.UserID,
		&c.Number,
		&c.ExpireMonth,
		&c.ExpireYear,
		&c.NameOnCard,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
