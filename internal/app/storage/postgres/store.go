// Package postgres implements the storage interfaces backed by PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/pawmart/petstore/internal/app/domain/catalog"
	"github.com/pawmart/petstore/internal/app/domain/user"
	"github.com/pawmart/petstore/internal/app/storage"
)

// Store implements the storage interfaces against a postgres database.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.AddressStore = (*Store)(nil)
var _ storage.CategoryStore = (*Store)(nil)
var _ storage.PetStore = (*Store)(nil)
var _ storage.CartStore = (*Store)(nil)
var _ storage.DiscountStore = (*Store)(nil)
var _ storage.OrderStore = (*Store)(nil)
var _ storage.DeliveryStore = (*Store)(nil)
var _ storage.AuditStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// mapError translates driver errors into storage sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return storage.ErrDuplicate
	}
	return err
}

func nullInt64(v int64) sql.NullInt64 {
	return sql.NullInt64{Int64: v, Valid: v != 0}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

// --- UserStore ---------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (email, password_hash, first_name, last_name, roles, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, u.Email, u.PasswordHash, u.FirstName, u.LastName, pq.Array(rolesToStrings(u.Roles)), u.CreatedAt, u.UpdatedAt).Scan(&u.ID)
	if err != nil {
		return user.User{}, mapError(err)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET email = $2, password_hash = $3, first_name = $4, last_name = $5, roles = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, pq.Array(rolesToStrings(u.Roles)), u.UpdatedAt)
	if err != nil {
		return user.User{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, storage.ErrNotFound
	}
	return u, nil
}

const userColumns = `id, email, password_hash, first_name, last_name, roles, created_at, updated_at`

func scanUser(row interface{ Scan(...interface{}) error }) (user.User, error) {
	var (
		u     user.User
		roles []string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName, pq.Array(&roles), &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return user.User{}, mapError(err)
	}
	for _, r := range roles {
		u.Roles = append(u.Roles, user.Role(r))
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id int64) (user.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE LOWER(email) = LOWER($1)`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func rolesToStrings(roles []user.Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}

// --- AddressStore ------------------------------------------------------------

const addressColumns = `id, user_id, full_name, phone_number, street, city, state, postal_code, country, is_default, created_at, updated_at`

func scanAddress(row interface{ Scan(...interface{}) error }) (user.Address, error) {
	var a user.Address
	err := row.Scan(&a.ID, &a.UserID, &a.FullName, &a.PhoneNumber, &a.Street, &a.City, &a.State,
		&a.PostalCode, &a.Country, &a.Default, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return user.Address{}, mapError(err)
	}
	return a, nil
}

func (s *Store) CreateAddress(ctx context.Context, a user.Address) (user.Address, error) {
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO addresses (user_id, full_name, phone_number, street, city, state, postal_code, country, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, a.UserID, a.FullName, a.PhoneNumber, a.Street, a.City, a.State, a.PostalCode, a.Country, a.Default, a.CreatedAt, a.UpdatedAt).Scan(&a.ID)
	if err != nil {
		return user.Address{}, mapError(err)
	}
	return a, nil
}

func (s *Store) UpdateAddress(ctx context.Context, a user.Address) (user.Address, error) {
	a.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE addresses
		SET full_name = $2, phone_number = $3, street = $4, city = $5, state = $6,
		    postal_code = $7, country = $8, is_default = $9, updated_at = $10
		WHERE id = $1
	`, a.ID, a.FullName, a.PhoneNumber, a.Street, a.City, a.State, a.PostalCode, a.Country, a.Default, a.UpdatedAt)
	if err != nil {
		return user.Address{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.Address{}, storage.ErrNotFound
	}
	return a, nil
}

func (s *Store) GetAddress(ctx context.Context, id int64) (user.Address, error) {
	return scanAddress(s.db.QueryRowContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE id = $1`, id))
}

func (s *Store) ListAddresses(ctx context.Context, userID int64) ([]user.Address, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

func (s *Store) DeleteAddress(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM addresses WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- CategoryStore -----------------------------------------------------------

func (s *Store) CreateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, created_at, updated_at)
		VALUES ($1, $2, $3)
		RETURNING id
	`, c.Name, c.CreatedAt, c.UpdatedAt).Scan(&c.ID)
	if err != nil {
		return catalog.Category{}, mapError(err)
	}
	return c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, c catalog.Category) (catalog.Category, error) {
	c.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE categories SET name = $2, updated_at = $3 WHERE id = $1
	`, c.ID, c.Name, c.UpdatedAt)
	if err != nil {
		return catalog.Category{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Category{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) GetCategory(ctx context.Context, id int64) (catalog.Category, error) {
	var c catalog.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM categories WHERE id = $1
	`, id).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return catalog.Category{}, mapError(err)
	}
	return c, nil
}

func (s *Store) GetCategoryByName(ctx context.Context, name string) (catalog.Category, error) {
	var c catalog.Category
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at FROM categories WHERE LOWER(name) = LOWER($1)
	`, name).Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return catalog.Category{}, mapError(err)
	}
	return c, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Category
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

func (s *Store) DeleteCategory(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// --- PetStore ----------------------------------------------------------------

const petColumns = `id, name, description, category_id, price, status, owner_id, photo_urls, tags, created_at, updated_at, created_by, last_modified_by`

func scanPet(row interface{ Scan(...interface{}) error }) (catalog.Pet, error) {
	var (
		p          catalog.Pet
		ownerID    sql.NullInt64
		createdBy  sql.NullInt64
		modifiedBy sql.NullInt64
		photos     []string
		tags       []string
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Price, &p.Status, &ownerID,
		pq.Array(&photos), pq.Array(&tags), &p.CreatedAt, &p.UpdatedAt, &createdBy, &modifiedBy)
	if err != nil {
		return catalog.Pet{}, mapError(err)
	}
	p.OwnerID = ownerID.Int64
	p.CreatedBy = createdBy.Int64
	p.LastModifiedBy = modifiedBy.Int64
	p.PhotoURLs = photos
	p.Tags = tags
	return p, nil
}

func (s *Store) CreatePet(ctx context.Context, p catalog.Pet) (catalog.Pet, error) {
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	if p.Status == "" {
		p.Status = catalog.StatusAvailable
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO pets (name, description, category_id, price, status, owner_id, photo_urls, tags, created_at, updated_at, created_by, last_modified_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`, p.Name, p.Description, p.CategoryID, p.Price, p.Status, nullInt64(p.OwnerID),
		pq.Array(p.PhotoURLs), pq.Array(p.Tags), p.CreatedAt, p.UpdatedAt,
		nullInt64(p.CreatedBy), nullInt64(p.LastModifiedBy)).Scan(&p.ID)
	if err != nil {
		return catalog.Pet{}, mapError(err)
	}
	return p, nil
}

func (s *Store) UpdatePet(ctx context.Context, p catalog.Pet) (catalog.Pet, error) {
	p.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE pets
		SET name = $2, description = $3, category_id = $4, price = $5, status = $6,
		    owner_id = $7, photo_urls = $8, tags = $9, updated_at = $10, last_modified_by = $11
		WHERE id = $1
	`, p.ID, p.Name, p.Description, p.CategoryID, p.Price, p.Status, nullInt64(p.OwnerID),
		pq.Array(p.PhotoURLs), pq.Array(p.Tags), p.UpdatedAt, nullInt64(p.LastModifiedBy))
	if err != nil {
		return catalog.Pet{}, mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return catalog.Pet{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) GetPet(ctx context.Context, id int64) (catalog.Pet, error) {
	return scanPet(s.db.QueryRowContext(ctx, `SELECT `+petColumns+` FROM pets WHERE id = $1`, id))
}

func (s *Store) SearchPets(ctx context.Context, f catalog.Filter, page, size int) (catalog.Page, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	next := 1

	if f.Name != "" {
		where += ` AND name ILIKE '%' || ` + placeholder(next) + ` || '%'`
		args = append(args, f.Name)
		next++
	}
	if f.CategoryID != 0 {
		where += ` AND category_id = ` + placeholder(next)
		args = append(args, f.CategoryID)
		next++
	}
	if f.Status != "" {
		where += ` AND status = ` + placeholder(next)
		args = append(args, f.Status)
		next++
	}
	if f.OwnerID != 0 {
		where += ` AND owner_id = ` + placeholder(next)
		args = append(args, f.OwnerID)
		next++
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets`+where, args...).Scan(&total); err != nil {
		return catalog.Page{}, err
	}

	query := `SELECT ` + petColumns + ` FROM pets` + where +
		` ORDER BY id LIMIT ` + placeholder(next) + ` OFFSET ` + placeholder(next+1)
	if page < 1 {
		page = 1
	}
	args = append(args, size, (page-1)*size)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return catalog.Page{}, err
	}
	defer rows.Close()

	var items []catalog.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return catalog.Page{}, err
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return catalog.Page{}, err
	}

	totalPages := int((total + int64(size) - 1) / int64(size))
	return catalog.Page{Items: items, Page: page, Size: size, TotalItems: total, TotalPages: totalPages}, nil
}

func (s *Store) ListLatestAvailable(ctx context.Context, limit int) ([]catalog.Pet, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+petColumns+` FROM pets
		WHERE status = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`, catalog.StatusAvailable, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []catalog.Pet
	for rows.Next() {
		p, err := scanPet(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

func (s *Store) DeletePet(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM pets WHERE id = $1`, id)
	if err != nil {
		return mapError(err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func (s *Store) CountPetsByCategory(ctx context.Context, categoryID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE category_id = $1`, categoryID).Scan(&count)
	return count, err
}

func (s *Store) CountPetsByOwner(ctx context.Context, ownerID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE owner_id = $1`, ownerID).Scan(&count)
	return count, err
}

func (s *Store) CountPetsCreatedBy(ctx context.Context, userID int64) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM pets WHERE created_by = $1`, userID).Scan(&count)
	return count, err
}

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}
